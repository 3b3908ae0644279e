package organization

import (
	"context"
	"slices"
	"sync"

	"contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
)

// InMemory is a map-backed organization store with a tax id index.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[domain.OrganizationID]*models.Organization
	byTaxID map[string]domain.OrganizationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[domain.OrganizationID]*models.Organization),
		byTaxID: make(map[string]domain.OrganizationID),
	}
}

func (s *InMemory) Create(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byTaxID[org.TaxID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	c := *org
	s.byID[org.ID] = &c
	s.byTaxID[org.TaxID] = org.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[org.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byTaxID[org.TaxID]; taken && owner != org.ID {
		return sentinel.ErrAlreadyUsed
	}
	delete(s.byTaxID, existing.TaxID)
	c := *org
	s.byID[org.ID] = &c
	s.byTaxID[org.TaxID] = org.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.OrganizationID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *org
	return &c, nil
}

func (s *InMemory) FindByTaxID(_ context.Context, taxID string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byTaxID[taxID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *s.byID[id]
	return &c, nil
}

// List returns matching organizations ordered by legal name.
func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Organization, 0, len(s.byID))
	for _, org := range s.byID {
		if filter.Status != "" && org.Status != filter.Status {
			continue
		}
		if !filter.MatchesName(org.LegalName, org.TradeName) {
			continue
		}
		c := *org
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.Organization) int {
		if a.LegalName != b.LegalName {
			if a.LegalName < b.LegalName {
				return -1
			}
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}
