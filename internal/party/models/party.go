package models

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	pstrings "contractdesk/pkg/platform/strings"
)

// Status is shared by both party variants. Deactivation is the only delete.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Kind distinguishes the party variants a contract can bind.
type Kind string

const (
	KindOrganization Kind = "organization"
	KindIndividual   Kind = "individual"
)

func (k Kind) IsValid() bool {
	return k == KindOrganization || k == KindIndividual
}

// Ref points at a party of either variant.
type Ref struct {
	Type Kind      `json:"type"`
	ID   uuid.UUID `json:"id"`
}

func OrganizationRef(id domain.OrganizationID) Ref {
	return Ref{Type: KindOrganization, ID: uuid.UUID(id)}
}

func IndividualRef(id domain.IndividualID) Ref {
	return Ref{Type: KindIndividual, ID: uuid.UUID(id)}
}

func (r Ref) Validate() error {
	if !r.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "party type must be organization or individual")
	}
	if r.ID == uuid.Nil {
		return dErrors.New(dErrors.CodeValidation, "party id is required")
	}
	return nil
}

func (r Ref) String() string {
	return string(r.Type) + ":" + r.ID.String()
}

// UnmarshalJSON accepts ids as strings and rejects unknown kinds early.
func (r *Ref) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "party reference must be an object with type and id")
	}
	id, err := uuid.Parse(strings.TrimSpace(raw.ID))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid party id")
	}
	r.Type = Kind(strings.ToLower(strings.TrimSpace(raw.Type)))
	r.ID = id
	return nil
}

// Party is what the contract store needs to know at bind time.
type Party struct {
	Ref    Ref
	Name   string
	Status Status
}

func (p Party) IsActive() bool {
	return p.Status == StatusActive
}

// Address is shared by both variants. State is a two-letter code and
// PostalCode holds eight digits.
type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

func (a *Address) Normalize() {
	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.Complement = strings.TrimSpace(a.Complement)
	a.District = strings.TrimSpace(a.District)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.ToUpper(strings.TrimSpace(a.State))
	a.PostalCode = pstrings.Digits(a.PostalCode)
}

func (a Address) Validate() error {
	if a.State != "" && !isStateCode(a.State) {
		return dErrors.New(dErrors.CodeValidation, "state must be a two-letter code, e.g. SP")
	}
	if a.PostalCode != "" && len(a.PostalCode) != 8 {
		return dErrors.New(dErrors.CodeValidation, "postal_code must contain 8 digits")
	}
	return nil
}

// FormattedPostalCode renders 12345678 as 12345-678.
func (a Address) FormattedPostalCode() string {
	if len(a.PostalCode) != 8 {
		return a.PostalCode
	}
	return a.PostalCode[:5] + "-" + a.PostalCode[5:]
}

func isStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func validatePhone(phone string) error {
	if phone != "" && (len(phone) < 8 || len(phone) > 13) {
		return dErrors.New(dErrors.CodeValidation, "phone must contain between 8 and 13 digits")
	}
	return nil
}
