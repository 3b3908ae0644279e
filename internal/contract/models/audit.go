package models

import (
	"time"

	"github.com/google/uuid"

	partymodels "contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
)

// AuditAction names the kind of mutation an entry records.
type AuditAction string

const (
	AuditActionCreate       AuditAction = "create"
	AuditActionUpdate       AuditAction = "update"
	AuditActionStatusChange AuditAction = "status_change"
)

// FieldChange is one field's before and after value. Old is nil on create.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Changes maps field names to their change.
type Changes map[string]FieldChange

// AuditEntry is an immutable record of one contract mutation.
type AuditEntry struct {
	ID         uuid.UUID
	ContractID domain.ContractID
	OccurredAt time.Time
	ActorID    domain.UserID
	Action     AuditAction
	Changes    Changes
}

// NewAuditEntry stamps an entry for c at now.
func NewAuditEntry(c *Contract, actor domain.UserID, action AuditAction, changes Changes, now time.Time) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.New(),
		ContractID: c.ID,
		OccurredAt: now,
		ActorID:    actor,
		Action:     action,
		Changes:    changes,
	}
}

// auditedField is one entry of the update allow-list. get returns a
// comparable value so diffs can use ==.
type auditedField struct {
	name string
	get  func(c *Contract) any
}

// auditedFields lists every field an update may change, in response order.
var auditedFields = []auditedField{
	{"name", func(c *Contract) any { return c.Name }},
	{"type", func(c *Contract) any { return c.Type }},
	{"category", func(c *Contract) any { return c.Category }},
	{"party_a", func(c *Contract) any { return refValue(c.PartyA) }},
	{"party_a_role", func(c *Contract) any { return c.PartyARole }},
	{"party_b", func(c *Contract) any { return refValue(c.PartyB) }},
	{"party_b_role", func(c *Contract) any { return c.PartyBRole }},
	{"effective_date", func(c *Contract) any { return dateValue(c.EffectiveDate) }},
	{"expiration_date", func(c *Contract) any { return dateValue(c.ExpirationDate) }},
	{"renewal_terms", func(c *Contract) any { return c.RenewalTerms }},
	{"payment_terms", func(c *Contract) any { return c.PaymentTerms }},
	{"escalation_clauses", func(c *Contract) any { return c.EscalationClauses }},
	{"document_content", func(c *Contract) any { return c.DocumentContent }},
}

func refValue(r *partymodels.Ref) any {
	if r == nil {
		return nil
	}
	return *r
}

func dateValue(d domain.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

// Diff returns the allow-listed fields that differ between before and after.
func Diff(before, after *Contract) Changes {
	changes := Changes{}
	for _, f := range auditedFields {
		old, updated := f.get(before), f.get(after)
		if old != updated {
			changes[f.name] = FieldChange{Old: old, New: updated}
		}
	}
	return changes
}

// Snapshot records the full initial field set of a new contract.
func Snapshot(c *Contract) Changes {
	changes := Changes{
		"contract_number": {New: c.ContractNumber},
		"status":          {New: string(c.Status)},
		"version":         {New: c.Version},
	}
	for _, f := range auditedFields {
		changes[f.name] = FieldChange{New: f.get(c)}
	}
	return changes
}

// StatusChange records a lifecycle transition.
func StatusChange(from, to Status) Changes {
	return Changes{"status": {Old: string(from), New: string(to)}}
}
