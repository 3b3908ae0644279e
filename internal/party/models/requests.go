package models

import (
	"strings"

	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	pstrings "contractdesk/pkg/platform/strings"
	"contractdesk/pkg/platform/validation"
)

// RegisterOrganizationRequest is the input of RegisterOrganization.
type RegisterOrganizationRequest struct {
	LegalName         string  `json:"legal_name" validate:"required,max=200"`
	TradeName         string  `json:"trade_name" validate:"max=200"`
	TaxID             string  `json:"tax_id" validate:"required"`
	StateRegistration string  `json:"state_registration" validate:"max=30"`
	Address           Address `json:"address"`
	Phone             string  `json:"phone"`
	Email             string  `json:"email" validate:"required,email,max=254"`
}

func (r *RegisterOrganizationRequest) Normalize() {
	r.LegalName = strings.TrimSpace(r.LegalName)
	r.TradeName = strings.TrimSpace(r.TradeName)
	r.TaxID = pstrings.Digits(r.TaxID)
	r.StateRegistration = pstrings.Digits(r.StateRegistration)
	r.Address.Normalize()
	r.Phone = pstrings.Digits(r.Phone)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *RegisterOrganizationRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if err := ValidateTaxID(r.TaxID); err != nil {
		return err
	}
	if err := r.Address.Validate(); err != nil {
		return err
	}
	return validatePhone(r.Phone)
}

// UpdateOrganizationRequest replaces only the fields that are present.
// Address is replaced as a whole.
type UpdateOrganizationRequest struct {
	LegalName         *string  `json:"legal_name" validate:"omitempty,max=200"`
	TradeName         *string  `json:"trade_name" validate:"omitempty,max=200"`
	TaxID             *string  `json:"tax_id"`
	StateRegistration *string  `json:"state_registration" validate:"omitempty,max=30"`
	Address           *Address `json:"address"`
	Phone             *string  `json:"phone"`
	Email             *string  `json:"email" validate:"omitempty,email,max=254"`
}

func (r *UpdateOrganizationRequest) Normalize() {
	trimPtr(r.LegalName)
	trimPtr(r.TradeName)
	digitsPtr(r.TaxID)
	digitsPtr(r.StateRegistration)
	if r.Address != nil {
		r.Address.Normalize()
	}
	digitsPtr(r.Phone)
	if r.Email != nil {
		*r.Email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
}

func (r *UpdateOrganizationRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if r.LegalName != nil && *r.LegalName == "" {
		return dErrors.New(dErrors.CodeValidation, "legal_name cannot be empty")
	}
	if r.Email != nil && *r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email cannot be empty")
	}
	if r.TaxID != nil {
		if err := ValidateTaxID(*r.TaxID); err != nil {
			return err
		}
	}
	if r.Address != nil {
		if err := r.Address.Validate(); err != nil {
			return err
		}
	}
	if r.Phone != nil {
		return validatePhone(*r.Phone)
	}
	return nil
}

// Apply copies the present fields onto o.
func (r *UpdateOrganizationRequest) Apply(o *Organization) {
	setIf(&o.LegalName, r.LegalName)
	setIf(&o.TradeName, r.TradeName)
	setIf(&o.TaxID, r.TaxID)
	setIf(&o.StateRegistration, r.StateRegistration)
	if r.Address != nil {
		o.Address = *r.Address
	}
	setIf(&o.Phone, r.Phone)
	setIf(&o.Email, r.Email)
}

// RegisterIndividualRequest is the input of RegisterIndividual.
type RegisterIndividualRequest struct {
	FullName   string      `json:"full_name" validate:"required,max=200"`
	NationalID string      `json:"national_id" validate:"required"`
	BirthDate  domain.Date `json:"birth_date"`
	Address    Address     `json:"address"`
	Phone      string      `json:"phone"`
	Email      string      `json:"email" validate:"omitempty,email,max=254"`
}

func (r *RegisterIndividualRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.NationalID = pstrings.Digits(r.NationalID)
	r.Address.Normalize()
	r.Phone = pstrings.Digits(r.Phone)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate checks formats. The future birth date check needs the request
// clock and runs in the service.
func (r *RegisterIndividualRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if err := ValidateNationalID(r.NationalID); err != nil {
		return err
	}
	if r.BirthDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "birth_date is required")
	}
	if err := r.Address.Validate(); err != nil {
		return err
	}
	return validatePhone(r.Phone)
}

// UpdateIndividualRequest replaces only the fields that are present.
type UpdateIndividualRequest struct {
	FullName   *string      `json:"full_name" validate:"omitempty,max=200"`
	NationalID *string      `json:"national_id"`
	BirthDate  *domain.Date `json:"birth_date"`
	Address    *Address     `json:"address"`
	Phone      *string      `json:"phone"`
	Email      *string      `json:"email" validate:"omitempty,email,max=254"`
}

func (r *UpdateIndividualRequest) Normalize() {
	trimPtr(r.FullName)
	digitsPtr(r.NationalID)
	if r.Address != nil {
		r.Address.Normalize()
	}
	digitsPtr(r.Phone)
	if r.Email != nil {
		*r.Email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
}

func (r *UpdateIndividualRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if r.FullName != nil && *r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name cannot be empty")
	}
	if r.NationalID != nil {
		if err := ValidateNationalID(*r.NationalID); err != nil {
			return err
		}
	}
	if r.BirthDate != nil && r.BirthDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "birth_date cannot be cleared")
	}
	if r.Address != nil {
		if err := r.Address.Validate(); err != nil {
			return err
		}
	}
	if r.Phone != nil {
		return validatePhone(*r.Phone)
	}
	return nil
}

func (r *UpdateIndividualRequest) Apply(i *Individual) {
	setIf(&i.FullName, r.FullName)
	setIf(&i.NationalID, r.NationalID)
	if r.BirthDate != nil {
		i.BirthDate = *r.BirthDate
	}
	if r.Address != nil {
		i.Address = *r.Address
	}
	setIf(&i.Phone, r.Phone)
	setIf(&i.Email, r.Email)
}

// ListFilter narrows registry listings. Zero values match everything.
type ListFilter struct {
	Status Status
	Name   string
}

func (f ListFilter) Validate() error {
	if f.Status != "" && !f.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be active or inactive")
	}
	return nil
}

// MatchesName is a case-insensitive substring match.
func (f ListFilter) MatchesName(names ...string) bool {
	if f.Name == "" {
		return true
	}
	needle := strings.ToLower(f.Name)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), needle) {
			return true
		}
	}
	return false
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func digitsPtr(s *string) {
	if s != nil {
		*s = pstrings.Digits(*s)
	}
}

func setIf(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (r *UpdateOrganizationRequest) IsEmpty() bool {
	return r.LegalName == nil && r.TradeName == nil && r.TaxID == nil && r.StateRegistration == nil &&
		r.Address == nil && r.Phone == nil && r.Email == nil
}

func (r *UpdateIndividualRequest) IsEmpty() bool {
	return r.FullName == nil && r.NationalID == nil && r.BirthDate == nil &&
		r.Address == nil && r.Phone == nil && r.Email == nil
}
