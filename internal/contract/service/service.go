package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"contractdesk/internal/contract/metrics"
	"contractdesk/internal/contract/models"
	partymodels "contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/platform/tx"
	"contractdesk/pkg/requestcontext"
)

// Store persists contracts and their audit trail.
type Store interface {
	Create(ctx context.Context, c *models.Contract) error
	Update(ctx context.Context, c *models.Contract) error
	FindByID(ctx context.Context, id domain.ContractID) (*models.Contract, error)
	FindByIDForUpdate(ctx context.Context, id domain.ContractID) (*models.Contract, error)
	FindByNumber(ctx context.Context, number string) (*models.Contract, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Contract, error)
	Delete(ctx context.Context, id domain.ContractID) error
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
	ListAudit(ctx context.Context, id domain.ContractID) ([]*models.AuditEntry, error)
}

// PartyResolver looks up a party at bind time.
type PartyResolver interface {
	Resolve(ctx context.Context, ref partymodels.Ref) (partymodels.Party, error)
}

// AnnotationPurger removes every comment and issue of a contract.
type AnnotationPurger interface {
	PurgeContract(ctx context.Context, id domain.ContractID) error
}

// Service owns the contract lifecycle. Every mutation appends exactly one
// audit entry in the same transaction.
type Service struct {
	store   Store
	parties PartyResolver
	tx      tx.Runner
	purger  AnnotationPurger
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
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

// WithAnnotationPurger makes Purge remove annotations explicitly. Without it
// Purge relies on the database cascade.
func WithAnnotationPurger(p AnnotationPurger) Option {
	return func(s *Service) {
		s.purger = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, parties PartyResolver, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:   store,
		parties: parties,
		tx:      runner,
		logger:  slog.Default(),
		tracer:  otel.Tracer("contractdesk/contract"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a pending, version 1 contract and its create audit entry.
func (s *Service) Create(ctx context.Context, req *models.CreateContractRequest) (c *models.Contract, err error) {
	ctx, span := s.tracer.Start(ctx, "contract.Create")
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}
	c = req.Contract()
	if err := c.ValidateDates(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("contract.id", c.ID.String()))

	actor := requestcontext.UserID(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.FindByNumber(ctx, c.ContractNumber); err == nil {
			return duplicateNumber()
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check contract number")
		}
		if err := s.checkParty(ctx, "party_a", c.PartyA); err != nil {
			return err
		}
		if err := s.checkParty(ctx, "party_b", c.PartyB); err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		c.CreatedAt = now
		c.LastModifiedAt = now
		c.LastModifiedBy = actor
		if err := s.store.Create(ctx, c); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				return duplicateNumber()
			case errors.Is(err, sentinel.ErrConflict):
				return dErrors.New(dErrors.CodeValidation, "referenced party does not exist")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contract")
		}
		return s.appendAudit(ctx, models.NewAuditEntry(c, actor, models.AuditActionCreate, models.Snapshot(c), now))
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contract created",
		"request_id", requestcontext.RequestID(ctx),
		"contract_id", c.ID,
		"contract_number", c.ContractNumber,
		"user_id", actor,
	)
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	return c, nil
}

// Update applies the present fields, bumps the version and appends one update
// entry. A status in the request is then applied as a transition with its own
// entry, in the same transaction.
func (s *Service) Update(ctx context.Context, id domain.ContractID, req *models.UpdateContractRequest) (c *models.Contract, err error) {
	ctx, span := s.tracer.Start(ctx, "contract.Update", trace.WithAttributes(attribute.String("contract.id", id.String())))
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}
	if !req.HasFieldChanges() && req.Status == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}

	actor := requestcontext.UserID(ctx)
	var (
		fieldsChanged bool
		transitioned  *models.Changes
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.lockContract(ctx, id)
		if err != nil {
			return err
		}
		now := requestcontext.NowAfter(ctx, c.LastModifiedAt)
		// Reject a bad transition before the field write.
		if req.Status != nil && *req.Status != c.Status {
			if err := models.ValidateTransition(c.Status, *req.Status); err != nil {
				return err
			}
		}

		if req.HasFieldChanges() {
			changes, err := s.applyFields(ctx, c, req)
			if err != nil {
				return err
			}
			if len(changes) > 0 {
				c.Version++
				c.LastModifiedAt = now
				c.LastModifiedBy = actor
				if err := s.save(ctx, c); err != nil {
					return err
				}
				if err := s.appendAudit(ctx, models.NewAuditEntry(c, actor, models.AuditActionUpdate, changes, now)); err != nil {
					return err
				}
				fieldsChanged = true
			}
		}

		if req.Status != nil && *req.Status != c.Status {
			changes, err := s.transition(ctx, c, *req.Status, actor, now)
			if err != nil {
				return err
			}
			transitioned = &changes
		}

		if !fieldsChanged && transitioned == nil {
			return dErrors.New(dErrors.CodeValidation, "no changes")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contract updated",
		"request_id", requestcontext.RequestID(ctx),
		"contract_id", id,
		"version", c.Version,
		"status", c.Status,
		"user_id", actor,
	)
	if s.metrics != nil && fieldsChanged {
		s.metrics.IncrementUpdated()
	}
	if s.metrics != nil && transitioned != nil {
		change := (*transitioned)["status"]
		s.metrics.IncrementTransition(change.Old.(string), change.New.(string))
	}
	return c, nil
}

// TransitionStatus moves the contract along its lifecycle. The version is not
// bumped; the audit entry records the old and new status.
func (s *Service) TransitionStatus(ctx context.Context, id domain.ContractID, target models.Status) (c *models.Contract, err error) {
	ctx, span := s.tracer.Start(ctx, "contract.TransitionStatus", trace.WithAttributes(
		attribute.String("contract.id", id.String()),
		attribute.String("contract.target_status", string(target)),
	))
	defer func() { endSpan(span, err) }()

	if !target.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be one of: pending, active, expired, terminated")
	}
	actor := requestcontext.UserID(ctx)
	var from models.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.lockContract(ctx, id)
		if err != nil {
			return err
		}
		from = c.Status
		_, err = s.transition(ctx, c, target, actor, requestcontext.NowAfter(ctx, c.LastModifiedAt))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contract status changed",
		"request_id", requestcontext.RequestID(ctx),
		"contract_id", id,
		"from", from,
		"to", target,
		"user_id", actor,
	)
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(from), string(target))
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id domain.ContractID) (*models.Contract, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateFind(err)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Contract, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	contracts, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contracts")
	}
	return contracts, nil
}

// AuditLog returns the contract's entries in append order.
func (s *Service) AuditLog(ctx context.Context, id domain.ContractID) ([]*models.AuditEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.store.ListAudit(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit log")
	}
	return entries, nil
}

// Purge hard-deletes a contract with its audit trail, comments, issues and
// issue history. Administrators only.
func (s *Service) Purge(ctx context.Context, id domain.ContractID) (err error) {
	ctx, span := s.tracer.Start(ctx, "contract.Purge", trace.WithAttributes(attribute.String("contract.id", id.String())))
	defer func() { endSpan(span, err) }()

	principal := requestcontext.Principal(ctx)
	if !principal.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "purging contracts requires the admin role")
	}
	var number string
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.lockContract(ctx, id)
		if err != nil {
			return err
		}
		number = c.ContractNumber
		if s.purger != nil {
			if err := s.purger.PurgeContract(ctx, id); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge annotations")
			}
		}
		if err := s.store.Delete(ctx, id); err != nil {
			return translateFind(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WarnContext(ctx, "contract purged",
		"request_id", requestcontext.RequestID(ctx),
		"contract_id", id,
		"contract_number", number,
		"user_id", principal.UserID,
	)
	if s.metrics != nil {
		s.metrics.IncrementPurged()
	}
	return nil
}

// applyFields applies req to c and returns the allow-listed diff.
func (s *Service) applyFields(ctx context.Context, c *models.Contract, req *models.UpdateContractRequest) (models.Changes, error) {
	if req.ContractNumber != nil && *req.ContractNumber != c.ContractNumber {
		return nil, dErrors.New(dErrors.CodeValidation, "contract_number cannot be changed")
	}
	before := c.Clone()
	req.Apply(c)
	if req.EffectiveDate != nil || req.ExpirationDate != nil {
		if err := c.ValidateDates(); err != nil {
			return nil, err
		}
	}
	// An unchanged binding is historical and stays valid even if the party
	// was deactivated since.
	if req.PartyA.Present && !sameRef(before.PartyA, c.PartyA) {
		if err := s.checkParty(ctx, "party_a", c.PartyA); err != nil {
			return nil, err
		}
	}
	if req.PartyB.Present && !sameRef(before.PartyB, c.PartyB) {
		if err := s.checkParty(ctx, "party_b", c.PartyB); err != nil {
			return nil, err
		}
	}
	return models.Diff(before, c), nil
}

func (s *Service) transition(ctx context.Context, c *models.Contract, target models.Status, actor domain.UserID, now time.Time) (models.Changes, error) {
	if err := models.ValidateTransition(c.Status, target); err != nil {
		return nil, err
	}
	changes := models.StatusChange(c.Status, target)
	c.Status = target
	c.LastModifiedAt = now
	c.LastModifiedBy = actor
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	if err := s.appendAudit(ctx, models.NewAuditEntry(c, actor, models.AuditActionStatusChange, changes, now)); err != nil {
		return nil, err
	}
	return changes, nil
}

// checkParty requires ref, when set, to resolve to an active party.
func (s *Service) checkParty(ctx context.Context, field string, ref *partymodels.Ref) error {
	if ref == nil {
		return nil
	}
	party, err := s.parties.Resolve(ctx, *ref)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeValidation, field+" references an unknown "+string(ref.Type))
		}
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return dErrors.New(dErrors.CodeValidation, field+": "+dErrors.MessageOf(err))
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve party")
	}
	if !party.IsActive() {
		return dErrors.New(dErrors.CodeValidation, field+" references an inactive "+string(ref.Type))
	}
	return nil
}

func (s *Service) lockContract(ctx context.Context, id domain.ContractID) (*models.Contract, error) {
	c, err := s.store.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, translateFind(err)
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *models.Contract) error {
	if err := s.store.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "contract not found")
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeValidation, "referenced party does not exist")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update contract")
	}
	return nil
}

func (s *Service) appendAudit(ctx context.Context, entry *models.AuditEntry) error {
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}
	return nil
}

func translateFind(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "contract not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
}

func duplicateNumber() error {
	return dErrors.New(dErrors.CodeConflict, "contract_number already exists")
}

func sameRef(a, b *partymodels.Ref) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// asValidation keeps coded errors and tags anything else as validation.
func asValidation(err error) error {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
