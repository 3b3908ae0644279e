// Package models holds the contract aggregate, its status machine and the
// audit trail entries every mutation appends.
package models

import (
	"time"

	partymodels "contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
)

// Status is the contract lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusTerminated Status = "terminated"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusExpired, StatusTerminated:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusTerminated
}

// CanTransitionTo enforces the lifecycle:
//
//	pending -> active -> expired
//	pending|active|expired -> terminated
//
// Everything else, including expired -> active and self transitions, is refused.
func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() || s == target {
		return false
	}
	switch target {
	case StatusActive:
		return s == StatusPending
	case StatusExpired:
		return s == StatusActive
	case StatusTerminated:
		return true
	}
	return false
}

// ValidateTransition returns a coded error when from -> to is not allowed.
func ValidateTransition(from, to Status) error {
	if !to.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of: pending, active, expired, terminated")
	}
	if !from.CanTransitionTo(to) {
		return dErrors.New(dErrors.CodeConflict, "cannot transition contract from "+string(from)+" to "+string(to))
	}
	return nil
}

// Contract is a legal agreement between up to two parties.
type Contract struct {
	ID                domain.ContractID
	ContractNumber    string
	Name              string
	Type              string
	Category          string
	Version           int
	Status            Status
	PartyA            *partymodels.Ref
	PartyARole        string
	PartyB            *partymodels.Ref
	PartyBRole        string
	EffectiveDate     domain.Date
	ExpirationDate    domain.Date
	RenewalTerms      string
	PaymentTerms      string
	EscalationClauses string
	DocumentContent   string
	CreatedAt         time.Time
	LastModifiedAt    time.Time
	LastModifiedBy    domain.UserID
}

// Clone returns a deep copy so stores never share party pointers with callers.
func (c *Contract) Clone() *Contract {
	out := *c
	if c.PartyA != nil {
		a := *c.PartyA
		out.PartyA = &a
	}
	if c.PartyB != nil {
		b := *c.PartyB
		out.PartyB = &b
	}
	return &out
}

// ValidateDates checks that the window is set and ordered.
func (c *Contract) ValidateDates() error {
	if c.EffectiveDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "effective_date is required")
	}
	if c.ExpirationDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "expiration_date is required")
	}
	if c.EffectiveDate.After(c.ExpirationDate) {
		return dErrors.New(dErrors.CodeValidation, "effective_date must be on or before expiration_date")
	}
	return nil
}

// Overlaps reports whether [from, to] intersects the contract window.
// A zero bound is open.
func (c *Contract) Overlaps(from, to domain.Date) bool {
	if !to.IsZero() && c.EffectiveDate.After(to) {
		return false
	}
	if !from.IsZero() && c.ExpirationDate.Before(from) {
		return false
	}
	return true
}

// BindsParty reports whether either side references the party with id.
func (c *Contract) BindsParty(ref partymodels.Ref) bool {
	return (c.PartyA != nil && *c.PartyA == ref) || (c.PartyB != nil && *c.PartyB == ref)
}
