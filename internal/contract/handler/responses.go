package handler

import (
	"time"

	"github.com/google/uuid"

	"contractdesk/internal/contract/models"
	partymodels "contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
)

type PartyRefResponse struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type ContractResponse struct {
	ID                string            `json:"id"`
	ContractNumber    string            `json:"contract_number"`
	Name              string            `json:"name"`
	Type              string            `json:"type"`
	Category          string            `json:"category"`
	Version           int               `json:"version"`
	Status            string            `json:"status"`
	PartyA            *PartyRefResponse `json:"party_a"`
	PartyARole        string            `json:"party_a_role"`
	PartyB            *PartyRefResponse `json:"party_b"`
	PartyBRole        string            `json:"party_b_role"`
	EffectiveDate     domain.Date       `json:"effective_date"`
	ExpirationDate    domain.Date       `json:"expiration_date"`
	RenewalTerms      string            `json:"renewal_terms"`
	PaymentTerms      string            `json:"payment_terms"`
	EscalationClauses string            `json:"escalation_clauses"`
	DocumentContent   string            `json:"document_content"`
	CreatedAt         time.Time         `json:"created_at"`
	LastModifiedAt    time.Time         `json:"last_modified_at"`
	LastModifiedBy    string            `json:"last_modified_by"`
}

type ContractListResponse struct {
	Contracts []ContractResponse `json:"contracts"`
	Total     int                `json:"total"`
}

type AuditEntryResponse struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Changes   models.Changes `json:"changes"`
}

type AuditLogResponse struct {
	ContractID string               `json:"contract_id"`
	Entries    []AuditEntryResponse `json:"entries"`
}

func toRefResponse(r *partymodels.Ref) *PartyRefResponse {
	if r == nil {
		return nil
	}
	return &PartyRefResponse{Type: string(r.Type), ID: r.ID.String()}
}

func toContractResponse(c *models.Contract) ContractResponse {
	return ContractResponse{
		ID:                c.ID.String(),
		ContractNumber:    c.ContractNumber,
		Name:              c.Name,
		Type:              c.Type,
		Category:          c.Category,
		Version:           c.Version,
		Status:            string(c.Status),
		PartyA:            toRefResponse(c.PartyA),
		PartyARole:        c.PartyARole,
		PartyB:            toRefResponse(c.PartyB),
		PartyBRole:        c.PartyBRole,
		EffectiveDate:     c.EffectiveDate,
		ExpirationDate:    c.ExpirationDate,
		RenewalTerms:      c.RenewalTerms,
		PaymentTerms:      c.PaymentTerms,
		EscalationClauses: c.EscalationClauses,
		DocumentContent:   c.DocumentContent,
		CreatedAt:         c.CreatedAt,
		LastModifiedAt:    c.LastModifiedAt,
		LastModifiedBy:    c.LastModifiedBy.String(),
	}
}

func toAuditLogResponse(id domain.ContractID, entries []*models.AuditEntry) AuditLogResponse {
	resp := AuditLogResponse{ContractID: id.String(), Entries: make([]AuditEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, AuditEntryResponse{
			ID:        e.ID,
			Timestamp: e.OccurredAt,
			ActorID:   e.ActorID.String(),
			Action:    string(e.Action),
			Changes:   e.Changes,
		})
	}
	return resp
}
