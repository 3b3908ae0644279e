// Package service implements comments and issues on contracts.
package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"contractdesk/internal/annotation/metrics"
	"contractdesk/internal/annotation/models"
	contractmodels "contractdesk/internal/contract/models"
	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/platform/tx"
	"contractdesk/pkg/requestcontext"
)

type CommentStore interface {
	Create(ctx context.Context, c *models.Comment) error
	Update(ctx context.Context, c *models.Comment) error
	FindByID(ctx context.Context, id domain.CommentID) (*models.Comment, error)
	FindByIDForUpdate(ctx context.Context, id domain.CommentID) (*models.Comment, error)
	ListByContract(ctx context.Context, contractID domain.ContractID) ([]*models.Comment, error)
	DeleteByContract(ctx context.Context, contractID domain.ContractID) error
}

type IssueStore interface {
	Create(ctx context.Context, i *models.Issue) error
	Update(ctx context.Context, i *models.Issue) error
	FindByID(ctx context.Context, id domain.IssueID) (*models.Issue, error)
	FindByIDForUpdate(ctx context.Context, id domain.IssueID) (*models.Issue, error)
	List(ctx context.Context, contractID domain.ContractID, filter models.IssueFilter) ([]*models.Issue, error)
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	ListHistory(ctx context.Context, id domain.IssueID) ([]*models.HistoryEntry, error)
	DeleteByContract(ctx context.Context, contractID domain.ContractID) error
}

// ContractReader checks that a contract exists and exposes its document.
type ContractReader interface {
	Get(ctx context.Context, id domain.ContractID) (*contractmodels.Contract, error)
}

// Service owns comments and issues. Issue mutations append exactly one
// history entry in the same transaction.
type Service struct {
	comments  CommentStore
	issues    IssueStore
	contracts ContractReader
	tx        tx.Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
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

func New(comments CommentStore, issues IssueStore, contracts ContractReader, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		comments:  comments,
		issues:    issues,
		contracts: contracts,
		tx:        runner,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Overview loads the contract's threads and issues concurrently.
func (s *Service) Overview(ctx context.Context, contractID domain.ContractID) (*models.Overview, error) {
	if _, err := s.contract(ctx, contractID); err != nil {
		return nil, err
	}
	var (
		threads []*models.Thread
		issues  []*models.Issue
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		comments, err := s.comments.ListByContract(gctx, contractID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list comments")
		}
		threads = models.BuildThreads(comments)
		return nil
	})
	g.Go(func() error {
		var err error
		issues, err = s.issues.List(gctx, contractID, models.IssueFilter{})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issues")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return models.NewOverview(contractID, threads, issues), nil
}

// PurgeContract hard-deletes every comment and issue of the contract. It runs
// inside the caller's transaction when there is one.
func (s *Service) PurgeContract(ctx context.Context, contractID domain.ContractID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.comments.DeleteByContract(ctx, contractID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge comments")
		}
		if err := s.issues.DeleteByContract(ctx, contractID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge issues")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "annotations purged",
		"request_id", requestcontext.RequestID(ctx),
		"contract_id", contractID,
		"user_id", requestcontext.UserID(ctx),
	)
	return nil
}

// contract loads the owning contract, keeping NotFound as is.
func (s *Service) contract(ctx context.Context, id domain.ContractID) (*contractmodels.Contract, error) {
	c, err := s.contracts.Get(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contract not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
	}
	return c, nil
}

// asValidation keeps coded errors and tags anything else as validation.
func asValidation(err error) error {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	return err
}
