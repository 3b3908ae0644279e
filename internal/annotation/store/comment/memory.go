// Package comment persists contract comments.
package comment

import (
	"context"
	"slices"
	"sync"

	"contractdesk/internal/annotation/models"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
)

// InMemory keeps comments by id plus each contract's comments in insertion
// order, which breaks ties between equal created_at values.
type InMemory struct {
	mu         sync.RWMutex
	byID       map[domain.CommentID]*models.Comment
	byContract map[domain.ContractID][]domain.CommentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:       make(map[domain.CommentID]*models.Comment),
		byContract: make(map[domain.ContractID][]domain.CommentID),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[c.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if c.ParentID != nil {
		if _, ok := s.byID[*c.ParentID]; !ok {
			return sentinel.ErrNotFound
		}
	}
	s.byID[c.ID] = c.Clone()
	s.byContract[c.ContractID] = append(s.byContract[c.ContractID], c.ID)
	return nil
}

// Update replaces a live comment. Soft-deleted comments are never rewritten.
func (s *InMemory) Update(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.IsDeleted {
		return sentinel.ErrInvalidState
	}
	s.byID[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.CommentID) (*models.Comment, error) {
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
func (s *InMemory) FindByIDForUpdate(ctx context.Context, id domain.CommentID) (*models.Comment, error) {
	return s.FindByID(ctx, id)
}

// ListByContract returns every comment of the contract, deleted ones
// included, oldest first.
func (s *InMemory) ListByContract(_ context.Context, contractID domain.ContractID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byContract[contractID]
	out := make([]*models.Comment, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id].Clone())
	}
	slices.SortStableFunc(out, func(a, b *models.Comment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// DeleteByContract hard-deletes every comment of the contract.
func (s *InMemory) DeleteByContract(_ context.Context, contractID domain.ContractID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.byContract[contractID] {
		delete(s.byID, id)
	}
	delete(s.byContract, contractID)
	return nil
}
