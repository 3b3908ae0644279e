package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"contractdesk/internal/party/metrics"
	"contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/platform/tx"
	"contractdesk/pkg/requestcontext"
)

type OrganizationStore interface {
	Create(ctx context.Context, org *models.Organization) error
	Update(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, id domain.OrganizationID) (*models.Organization, error)
	FindByTaxID(ctx context.Context, taxID string) (*models.Organization, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Organization, error)
}

type IndividualStore interface {
	Create(ctx context.Context, ind *models.Individual) error
	Update(ctx context.Context, ind *models.Individual) error
	FindByID(ctx context.Context, id domain.IndividualID) (*models.Individual, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Individual, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Individual, error)
}

// Service is the party registry.
type Service struct {
	organizations OrganizationStore
	individuals   IndividualStore
	tx            tx.Runner
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(organizations OrganizationStore, individuals IndividualStore, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		organizations: organizations,
		individuals:   individuals,
		tx:            runner,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterOrganization validates and inserts an active organization.
// A duplicate tax id is a validation failure, not a conflict.
func (s *Service) RegisterOrganization(ctx context.Context, req *models.RegisterOrganizationRequest) (*models.Organization, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}

	now := requestcontext.Now(ctx)
	org := &models.Organization{
		ID:                domain.OrganizationID(uuid.New()),
		LegalName:         req.LegalName,
		TradeName:         req.TradeName,
		TaxID:             req.TaxID,
		StateRegistration: req.StateRegistration,
		Address:           req.Address,
		Phone:             req.Phone,
		Email:             req.Email,
		Status:            models.StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.ensureTaxIDFree(ctx, org.TaxID, org.ID); err != nil {
			return err
		}
		if err := s.organizations.Create(ctx, org); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return duplicateTaxID()
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organization")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "organization registered",
		"request_id", requestcontext.RequestID(ctx),
		"organization_id", org.ID,
		"user_id", requestcontext.UserID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementRegistered(string(models.KindOrganization))
	}
	return org, nil
}

// UpdateOrganization applies the present fields. Changing the tax id
// re-checks uniqueness.
func (s *Service) UpdateOrganization(ctx context.Context, id domain.OrganizationID, req *models.UpdateOrganizationRequest) (*models.Organization, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}
	if req.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}

	var updated *models.Organization
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		org, err := s.findOrganization(ctx, id)
		if err != nil {
			return err
		}
		req.Apply(org)
		org.UpdatedAt = requestcontext.Now(ctx)
		if err := org.Validate(); err != nil {
			return err
		}
		if req.TaxID != nil {
			if err := s.ensureTaxIDFree(ctx, org.TaxID, org.ID); err != nil {
				return err
			}
		}
		if err := s.organizations.Update(ctx, org); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				return duplicateTaxID()
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "organization not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update organization")
		}
		updated = org
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "organization updated",
		"request_id", requestcontext.RequestID(ctx),
		"organization_id", id,
		"user_id", requestcontext.UserID(ctx),
	)
	return updated, nil
}

func (s *Service) GetOrganization(ctx context.Context, id domain.OrganizationID) (*models.Organization, error) {
	return s.findOrganization(ctx, id)
}

func (s *Service) ListOrganizations(ctx context.Context, filter models.ListFilter) ([]*models.Organization, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	orgs, err := s.organizations.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizations")
	}
	return orgs, nil
}

// RegisterIndividual validates and inserts an active individual.
func (s *Service) RegisterIndividual(ctx context.Context, req *models.RegisterIndividualRequest) (*models.Individual, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}

	now := requestcontext.Now(ctx)
	ind := &models.Individual{
		ID:         domain.IndividualID(uuid.New()),
		FullName:   req.FullName,
		NationalID: req.NationalID,
		BirthDate:  req.BirthDate,
		Address:    req.Address,
		Phone:      req.Phone,
		Email:      req.Email,
		Status:     models.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := ind.Validate(domain.DateOf(now)); err != nil {
		return nil, err
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.ensureNationalIDFree(ctx, ind.NationalID, ind.ID); err != nil {
			return err
		}
		if err := s.individuals.Create(ctx, ind); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return duplicateNationalID()
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create individual")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "individual registered",
		"request_id", requestcontext.RequestID(ctx),
		"individual_id", ind.ID,
		"user_id", requestcontext.UserID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementRegistered(string(models.KindIndividual))
	}
	return ind, nil
}

func (s *Service) UpdateIndividual(ctx context.Context, id domain.IndividualID, req *models.UpdateIndividualRequest) (*models.Individual, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}
	if req.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}

	var updated *models.Individual
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ind, err := s.findIndividual(ctx, id)
		if err != nil {
			return err
		}
		req.Apply(ind)
		now := requestcontext.Now(ctx)
		ind.UpdatedAt = now
		if err := ind.Validate(domain.DateOf(now)); err != nil {
			return err
		}
		if req.NationalID != nil {
			if err := s.ensureNationalIDFree(ctx, ind.NationalID, ind.ID); err != nil {
				return err
			}
		}
		if err := s.individuals.Update(ctx, ind); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				return duplicateNationalID()
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "individual not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update individual")
		}
		updated = ind
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "individual updated",
		"request_id", requestcontext.RequestID(ctx),
		"individual_id", id,
		"user_id", requestcontext.UserID(ctx),
	)
	return updated, nil
}

func (s *Service) GetIndividual(ctx context.Context, id domain.IndividualID) (*models.Individual, error) {
	return s.findIndividual(ctx, id)
}

func (s *Service) ListIndividuals(ctx context.Context, filter models.ListFilter) ([]*models.Individual, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	inds, err := s.individuals.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list individuals")
	}
	return inds, nil
}

// Deactivate soft-deletes a party. Existing contract bindings are untouched.
func (s *Service) Deactivate(ctx context.Context, ref models.Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		switch ref.Type {
		case models.KindOrganization:
			org, err := s.findOrganization(ctx, domain.OrganizationID(ref.ID))
			if err != nil {
				return err
			}
			if err := org.CanDeactivate(); err != nil {
				return err
			}
			org.Deactivate(now)
			if err := s.organizations.Update(ctx, org); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate organization")
			}
		default:
			ind, err := s.findIndividual(ctx, domain.IndividualID(ref.ID))
			if err != nil {
				return err
			}
			if err := ind.CanDeactivate(); err != nil {
				return err
			}
			ind.Deactivate(now)
			if err := s.individuals.Update(ctx, ind); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate individual")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "party deactivated",
		"request_id", requestcontext.RequestID(ctx),
		"party", ref.String(),
		"user_id", requestcontext.UserID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementDeactivated(string(ref.Type))
	}
	return nil
}

// Resolve returns the party behind ref or a NotFound error. Inactive parties
// are returned; callers decide whether they are acceptable.
func (s *Service) Resolve(ctx context.Context, ref models.Ref) (models.Party, error) {
	if err := ref.Validate(); err != nil {
		return models.Party{}, err
	}
	switch ref.Type {
	case models.KindOrganization:
		org, err := s.findOrganization(ctx, domain.OrganizationID(ref.ID))
		if err != nil {
			return models.Party{}, err
		}
		return org.AsParty(), nil
	default:
		ind, err := s.findIndividual(ctx, domain.IndividualID(ref.ID))
		if err != nil {
			return models.Party{}, err
		}
		return ind.AsParty(), nil
	}
}

func (s *Service) findOrganization(ctx context.Context, id domain.OrganizationID) (*models.Organization, error) {
	org, err := s.organizations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}
	return org, nil
}

func (s *Service) findIndividual(ctx context.Context, id domain.IndividualID) (*models.Individual, error) {
	ind, err := s.individuals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "individual not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load individual")
	}
	return ind, nil
}

func (s *Service) ensureTaxIDFree(ctx context.Context, taxID string, self domain.OrganizationID) error {
	existing, err := s.organizations.FindByTaxID(ctx, taxID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check tax id")
	case existing.ID != self:
		return duplicateTaxID()
	}
	return nil
}

func (s *Service) ensureNationalIDFree(ctx context.Context, nationalID string, self domain.IndividualID) error {
	existing, err := s.individuals.FindByNationalID(ctx, nationalID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check national id")
	case existing.ID != self:
		return duplicateNationalID()
	}
	return nil
}

func duplicateTaxID() error {
	return dErrors.New(dErrors.CodeValidation, "tax_id is already registered")
}

func duplicateNationalID() error {
	return dErrors.New(dErrors.CodeValidation, "national_id is already registered")
}

// asValidation keeps coded errors and tags anything else as validation.
func asValidation(err error) error {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	return err
}
