// Package store persists contracts and their audit trail.
package store

import (
	"context"
	"slices"
	"sync"

	"contractdesk/internal/contract/models"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
)

// InMemory keeps contracts, a contract number index and per-contract audit
// entries in append order.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[domain.ContractID]*models.Contract
	byNumber map[string]domain.ContractID
	audit    map[domain.ContractID][]*models.AuditEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[domain.ContractID]*models.Contract),
		byNumber: make(map[string]domain.ContractID),
		audit:    make(map[domain.ContractID][]*models.AuditEntry),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byNumber[c.ContractNumber]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[c.ID] = c.Clone()
	s.byNumber[c.ContractNumber] = c.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, c *models.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ContractID) (*models.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

// FindByIDForUpdate is FindByID; the memory tx runner already serializes
// writers.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, id domain.ContractID) (*models.Contract, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemory) FindByNumber(_ context.Context, number string) (*models.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// List returns matching contracts, newest first.
func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Contract, 0, len(s.byID))
	for _, c := range s.byID {
		if filter.Matches(c) {
			out = append(out, c.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Contract) int {
		if cmp := b.CreatedAt.Compare(a.CreatedAt); cmp != 0 {
			return cmp
		}
		if a.ContractNumber < b.ContractNumber {
			return -1
		}
		if a.ContractNumber > b.ContractNumber {
			return 1
		}
		return 0
	})
	return out, nil
}

// Delete removes the contract and its audit trail.
func (s *InMemory) Delete(_ context.Context, id domain.ContractID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byNumber, c.ContractNumber)
	delete(s.byID, id)
	delete(s.audit, id)
	return nil
}

func (s *InMemory) AppendAudit(_ context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[entry.ContractID]; !ok {
		return sentinel.ErrNotFound
	}
	e := *entry
	s.audit[entry.ContractID] = append(s.audit[entry.ContractID], &e)
	return nil
}

func (s *InMemory) ListAudit(_ context.Context, id domain.ContractID) ([]*models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.audit[id]
	out := make([]*models.AuditEntry, 0, len(entries))
	for _, e := range entries {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}
