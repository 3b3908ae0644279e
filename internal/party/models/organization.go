package models

import (
	"time"

	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
)

// TaxIDLength is the digit count of a CNPJ.
const TaxIDLength = 14

// Organization is a corporate party.
type Organization struct {
	ID                domain.OrganizationID
	LegalName         string
	TradeName         string
	TaxID             string
	StateRegistration string
	Address           Address
	Phone             string
	Email             string
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (o *Organization) Ref() Ref {
	return OrganizationRef(o.ID)
}

func (o *Organization) AsParty() Party {
	return Party{Ref: o.Ref(), Name: o.LegalName, Status: o.Status}
}

// FormattedTaxID renders the CNPJ as 12.345.678/0001-95.
func (o *Organization) FormattedTaxID() string {
	t := o.TaxID
	if len(t) != TaxIDLength {
		return t
	}
	return t[:2] + "." + t[2:5] + "." + t[5:8] + "/" + t[8:12] + "-" + t[12:]
}

// Validate checks the invariants every stored organization satisfies.
func (o *Organization) Validate() error {
	if o.LegalName == "" {
		return dErrors.New(dErrors.CodeValidation, "legal_name is required")
	}
	if err := ValidateTaxID(o.TaxID); err != nil {
		return err
	}
	if err := o.Address.Validate(); err != nil {
		return err
	}
	if err := validatePhone(o.Phone); err != nil {
		return err
	}
	if !o.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be active or inactive")
	}
	return nil
}

// CanDeactivate reports whether the organization can be soft-deleted.
func (o *Organization) CanDeactivate() error {
	if o.Status == StatusInactive {
		return dErrors.New(dErrors.CodeConflict, "organization is already inactive")
	}
	return nil
}

// Deactivate flips the status. Call CanDeactivate first.
func (o *Organization) Deactivate(now time.Time) {
	o.Status = StatusInactive
	o.UpdatedAt = now
}

// ValidateTaxID expects digits only.
func ValidateTaxID(taxID string) error {
	if taxID == "" {
		return dErrors.New(dErrors.CodeValidation, "tax_id is required")
	}
	if len(taxID) != TaxIDLength {
		return dErrors.New(dErrors.CodeValidation, "tax_id must contain 14 digits")
	}
	return nil
}
