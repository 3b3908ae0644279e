package individual

import (
	"context"
	"slices"
	"strings"
	"sync"

	"contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
)

// InMemory is a map-backed individual store with a national id index.
type InMemory struct {
	mu           sync.RWMutex
	byID         map[domain.IndividualID]*models.Individual
	byNationalID map[string]domain.IndividualID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:         make(map[domain.IndividualID]*models.Individual),
		byNationalID: make(map[string]domain.IndividualID),
	}
}

func (s *InMemory) Create(_ context.Context, ind *models.Individual) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byNationalID[ind.NationalID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	c := *ind
	s.byID[ind.ID] = &c
	s.byNationalID[ind.NationalID] = ind.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, ind *models.Individual) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[ind.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byNationalID[ind.NationalID]; taken && owner != ind.ID {
		return sentinel.ErrAlreadyUsed
	}
	delete(s.byNationalID, existing.NationalID)
	c := *ind
	s.byID[ind.ID] = &c
	s.byNationalID[ind.NationalID] = ind.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.IndividualID) (*models.Individual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ind, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *ind
	return &c, nil
}

func (s *InMemory) FindByNationalID(_ context.Context, nationalID string) (*models.Individual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNationalID[nationalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *s.byID[id]
	return &c, nil
}

// List returns matching individuals ordered by full name.
func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Individual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Individual, 0, len(s.byID))
	for _, ind := range s.byID {
		if filter.Status != "" && ind.Status != filter.Status {
			continue
		}
		if !filter.MatchesName(ind.FullName) {
			continue
		}
		c := *ind
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.Individual) int {
		if c := strings.Compare(a.FullName, b.FullName); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}
