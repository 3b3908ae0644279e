package models

import (
	"time"

	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
)

// NationalIDLength is the digit count of a CPF.
const NationalIDLength = 11

// Individual is a natural-person party.
type Individual struct {
	ID         domain.IndividualID
	FullName   string
	NationalID string
	BirthDate  domain.Date
	Address    Address
	Phone      string
	Email      string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (i *Individual) Ref() Ref {
	return IndividualRef(i.ID)
}

func (i *Individual) AsParty() Party {
	return Party{Ref: i.Ref(), Name: i.FullName, Status: i.Status}
}

// FormattedNationalID renders the CPF as 123.456.789-09.
func (i *Individual) FormattedNationalID() string {
	n := i.NationalID
	if len(n) != NationalIDLength {
		return n
	}
	return n[:3] + "." + n[3:6] + "." + n[6:9] + "-" + n[9:]
}

// Validate checks the invariants every stored individual satisfies.
// today bounds the birth date.
func (i *Individual) Validate(today domain.Date) error {
	if i.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if err := ValidateNationalID(i.NationalID); err != nil {
		return err
	}
	if i.BirthDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "birth_date is required")
	}
	if i.BirthDate.After(today) {
		return dErrors.New(dErrors.CodeValidation, "birth_date cannot be in the future")
	}
	if err := i.Address.Validate(); err != nil {
		return err
	}
	if err := validatePhone(i.Phone); err != nil {
		return err
	}
	if !i.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be active or inactive")
	}
	return nil
}

func (i *Individual) CanDeactivate() error {
	if i.Status == StatusInactive {
		return dErrors.New(dErrors.CodeConflict, "individual is already inactive")
	}
	return nil
}

func (i *Individual) Deactivate(now time.Time) {
	i.Status = StatusInactive
	i.UpdatedAt = now
}

// ValidateNationalID expects digits only. A CPF of one repeated digit is
// rejected even though it has the right length.
func ValidateNationalID(nationalID string) error {
	if nationalID == "" {
		return dErrors.New(dErrors.CodeValidation, "national_id is required")
	}
	if len(nationalID) != NationalIDLength {
		return dErrors.New(dErrors.CodeValidation, "national_id must contain 11 digits")
	}
	allSame := true
	for i := 1; i < len(nationalID); i++ {
		if nationalID[i] != nationalID[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return dErrors.New(dErrors.CodeValidation, "national_id is invalid")
	}
	return nil
}
