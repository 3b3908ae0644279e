// Package issue persists contract issues and their history.
package issue

import (
	"context"
	"slices"
	"sync"

	"contractdesk/internal/annotation/models"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
)

// InMemory keeps issues by id, each contract's issues in insertion order and
// per-issue history in append order.
type InMemory struct {
	mu         sync.RWMutex
	byID       map[domain.IssueID]*models.Issue
	byContract map[domain.ContractID][]domain.IssueID
	history    map[domain.IssueID][]*models.HistoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:       make(map[domain.IssueID]*models.Issue),
		byContract: make(map[domain.ContractID][]domain.IssueID),
		history:    make(map[domain.IssueID][]*models.HistoryEntry),
	}
}

func (s *InMemory) Create(_ context.Context, i *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[i.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[i.ID] = i.Clone()
	s.byContract[i.ContractID] = append(s.byContract[i.ContractID], i.ID)
	return nil
}

func (s *InMemory) Update(_ context.Context, i *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[i.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[i.ID] = i.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.IssueID) (*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return i.Clone(), nil
}

// FindByIDForUpdate is FindByID; the memory tx runner already serializes
// writers.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, id domain.IssueID) (*models.Issue, error) {
	return s.FindByID(ctx, id)
}

// List returns the contract's matching issues, oldest first.
func (s *InMemory) List(_ context.Context, contractID domain.ContractID, filter models.IssueFilter) ([]*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byContract[contractID]
	out := make([]*models.Issue, 0, len(ids))
	for _, id := range ids {
		if i := s.byID[id]; filter.Matches(i) {
			out = append(out, i.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Issue) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *InMemory) AppendHistory(_ context.Context, entry *models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[entry.IssueID]; !ok {
		return sentinel.ErrNotFound
	}
	e := *entry
	s.history[entry.IssueID] = append(s.history[entry.IssueID], &e)
	return nil
}

func (s *InMemory) ListHistory(_ context.Context, id domain.IssueID) ([]*models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[id]
	out := make([]*models.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

// DeleteByContract hard-deletes the contract's issues and their history.
func (s *InMemory) DeleteByContract(_ context.Context, contractID domain.ContractID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.byContract[contractID] {
		delete(s.byID, id)
		delete(s.history, id)
	}
	delete(s.byContract, contractID)
	return nil
}
