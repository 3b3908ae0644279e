package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	partymodels "contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/platform/validation"
)

// CreateContractRequest is the input of Create.
type CreateContractRequest struct {
	ContractNumber    string           `json:"contract_number" validate:"required,max=100"`
	Name              string           `json:"name" validate:"required,max=200"`
	Type              string           `json:"type" validate:"required,max=100"`
	Category          string           `json:"category" validate:"required,max=100"`
	PartyA            *partymodels.Ref `json:"party_a"`
	PartyARole        string           `json:"party_a_role" validate:"max=100"`
	PartyB            *partymodels.Ref `json:"party_b"`
	PartyBRole        string           `json:"party_b_role" validate:"max=100"`
	EffectiveDate     domain.Date      `json:"effective_date"`
	ExpirationDate    domain.Date      `json:"expiration_date"`
	RenewalTerms      string           `json:"renewal_terms" validate:"max=20000"`
	PaymentTerms      string           `json:"payment_terms" validate:"max=20000"`
	EscalationClauses string           `json:"escalation_clauses" validate:"max=20000"`
	DocumentContent   string           `json:"document_content" validate:"max=1000000"`
}

func (r *CreateContractRequest) Normalize() {
	r.ContractNumber = strings.TrimSpace(r.ContractNumber)
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.TrimSpace(r.Type)
	r.Category = strings.TrimSpace(r.Category)
	r.PartyARole = strings.TrimSpace(r.PartyARole)
	r.PartyBRole = strings.TrimSpace(r.PartyBRole)
}

func (r *CreateContractRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if err := validateRef("party_a", r.PartyA); err != nil {
		return err
	}
	return validateRef("party_b", r.PartyB)
}

// Contract builds the pending, version 1 contract the request describes.
func (r *CreateContractRequest) Contract() *Contract {
	return &Contract{
		ID:                domain.ContractID(uuid.New()),
		ContractNumber:    r.ContractNumber,
		Name:              r.Name,
		Type:              r.Type,
		Category:          r.Category,
		Version:           1,
		Status:            StatusPending,
		PartyA:            r.PartyA,
		PartyARole:        r.PartyARole,
		PartyB:            r.PartyB,
		PartyBRole:        r.PartyBRole,
		EffectiveDate:     r.EffectiveDate,
		ExpirationDate:    r.ExpirationDate,
		RenewalTerms:      r.RenewalTerms,
		PaymentTerms:      r.PaymentTerms,
		EscalationClauses: r.EscalationClauses,
		DocumentContent:   r.DocumentContent,
	}
}

// OptionalRef distinguishes an absent party field from an explicit null,
// which unbinds the party.
type OptionalRef struct {
	Present bool
	Ref     *partymodels.Ref
}

func (o *OptionalRef) UnmarshalJSON(b []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Ref = nil
		return nil
	}
	var ref partymodels.Ref
	if err := json.Unmarshal(b, &ref); err != nil {
		return err
	}
	o.Ref = &ref
	return nil
}

// UpdateContractRequest changes only the fields that are present. Status is
// applied as a lifecycle transition after the field changes.
type UpdateContractRequest struct {
	ContractNumber    *string      `json:"contract_number"`
	Name              *string      `json:"name" validate:"omitempty,max=200"`
	Type              *string      `json:"type" validate:"omitempty,max=100"`
	Category          *string      `json:"category" validate:"omitempty,max=100"`
	PartyA            OptionalRef  `json:"party_a"`
	PartyARole        *string      `json:"party_a_role" validate:"omitempty,max=100"`
	PartyB            OptionalRef  `json:"party_b"`
	PartyBRole        *string      `json:"party_b_role" validate:"omitempty,max=100"`
	EffectiveDate     *domain.Date `json:"effective_date"`
	ExpirationDate    *domain.Date `json:"expiration_date"`
	RenewalTerms      *string      `json:"renewal_terms" validate:"omitempty,max=20000"`
	PaymentTerms      *string      `json:"payment_terms" validate:"omitempty,max=20000"`
	EscalationClauses *string      `json:"escalation_clauses" validate:"omitempty,max=20000"`
	DocumentContent   *string      `json:"document_content" validate:"omitempty,max=1000000"`
	Status            *Status      `json:"status"`
}

func (r *UpdateContractRequest) Normalize() {
	for _, p := range []*string{r.ContractNumber, r.Name, r.Type, r.Category, r.PartyARole, r.PartyBRole} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	if r.Status != nil {
		*r.Status = Status(strings.ToLower(strings.TrimSpace(string(*r.Status))))
	}
}

func (r *UpdateContractRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	for name, p := range map[string]*string{"name": r.Name, "type": r.Type, "category": r.Category} {
		if p != nil && *p == "" {
			return dErrors.New(dErrors.CodeValidation, name+" cannot be empty")
		}
	}
	if r.EffectiveDate != nil && r.EffectiveDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "effective_date cannot be cleared")
	}
	if r.ExpirationDate != nil && r.ExpirationDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "expiration_date cannot be cleared")
	}
	if r.Status != nil && !r.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of: pending, active, expired, terminated")
	}
	if err := validateRef("party_a", r.PartyA.Ref); err != nil {
		return err
	}
	return validateRef("party_b", r.PartyB.Ref)
}

// HasFieldChanges reports whether anything besides status is present.
func (r *UpdateContractRequest) HasFieldChanges() bool {
	return r.ContractNumber != nil || r.Name != nil || r.Type != nil || r.Category != nil ||
		r.PartyA.Present || r.PartyARole != nil || r.PartyB.Present || r.PartyBRole != nil ||
		r.EffectiveDate != nil || r.ExpirationDate != nil || r.RenewalTerms != nil ||
		r.PaymentTerms != nil || r.EscalationClauses != nil || r.DocumentContent != nil
}

// Apply copies the present fields onto c. contract_number is checked by the
// caller and never copied.
func (r *UpdateContractRequest) Apply(c *Contract) {
	setIf(&c.Name, r.Name)
	setIf(&c.Type, r.Type)
	setIf(&c.Category, r.Category)
	if r.PartyA.Present {
		c.PartyA = r.PartyA.Ref
	}
	setIf(&c.PartyARole, r.PartyARole)
	if r.PartyB.Present {
		c.PartyB = r.PartyB.Ref
	}
	setIf(&c.PartyBRole, r.PartyBRole)
	if r.EffectiveDate != nil {
		c.EffectiveDate = *r.EffectiveDate
	}
	if r.ExpirationDate != nil {
		c.ExpirationDate = *r.ExpirationDate
	}
	setIf(&c.RenewalTerms, r.RenewalTerms)
	setIf(&c.PaymentTerms, r.PaymentTerms)
	setIf(&c.EscalationClauses, r.EscalationClauses)
	setIf(&c.DocumentContent, r.DocumentContent)
}

// TouchesParties reports whether either binding is being set or cleared.
func (r *UpdateContractRequest) TouchesParties() bool {
	return r.PartyA.Present || r.PartyB.Present
}

// TransitionRequest is the body of POST /contracts/{id}/status.
type TransitionRequest struct {
	Status Status `json:"status" validate:"required"`
}

func (r *TransitionRequest) Normalize() {
	r.Status = Status(strings.ToLower(strings.TrimSpace(string(r.Status))))
}

func (r *TransitionRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if !r.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of: pending, active, expired, terminated")
	}
	return nil
}

// ListFilter narrows List. Zero values match everything; From and To form an
// inclusive window that must overlap the contract's.
type ListFilter struct {
	Status Status
	Party  *partymodels.Ref
	From   domain.Date
	To     domain.Date
}

func (f ListFilter) Validate() error {
	if f.Status != "" && !f.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of: pending, active, expired, terminated")
	}
	if f.Party != nil {
		if err := f.Party.Validate(); err != nil {
			return err
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return dErrors.New(dErrors.CodeValidation, "from must be on or before to")
	}
	return nil
}

// Matches applies the filter to c.
func (f ListFilter) Matches(c *Contract) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Party != nil && !c.BindsParty(*f.Party) {
		return false
	}
	return c.Overlaps(f.From, f.To)
}

func validateRef(field string, ref *partymodels.Ref) error {
	if ref == nil {
		return nil
	}
	if err := ref.Validate(); err != nil {
		return dErrors.New(dErrors.CodeValidation, field+": "+dErrors.MessageOf(err))
	}
	return nil
}

func setIf(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
