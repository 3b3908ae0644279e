package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	annotationmetrics "contractdesk/internal/annotation/metrics"
	annotationservice "contractdesk/internal/annotation/service"
	commentstore "contractdesk/internal/annotation/store/comment"
	issuestore "contractdesk/internal/annotation/store/issue"
	contractmetrics "contractdesk/internal/contract/metrics"
	contractmodels "contractdesk/internal/contract/models"
	contractservice "contractdesk/internal/contract/service"
	contractstore "contractdesk/internal/contract/store"
	partymetrics "contractdesk/internal/party/metrics"
	partyservice "contractdesk/internal/party/service"
	individualstore "contractdesk/internal/party/store/individual"
	organizationstore "contractdesk/internal/party/store/organization"
	"contractdesk/internal/platform/config"
	"contractdesk/internal/platform/logger"
	"contractdesk/internal/platform/postgres"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/tx"
)

// app holds the wired services shared by the serve and contract commands.
type app struct {
	cfg      config.Server
	log      *slog.Logger
	registry *prometheus.Registry
	db       *sql.DB

	parties     *partyservice.Service
	contracts   *contractservice.Service
	annotations *annotationservice.Service
}

func loadConfig(cmd *cobra.Command) (config.Server, error) {
	files, err := cmd.Flags().GetStringSlice("env-file")
	if err != nil {
		return config.Server{}, err
	}
	return config.Load(files...)
}

// newApp builds every service over Postgres when DATABASE_URL is set and over
// in-memory stores otherwise.
func newApp(ctx context.Context, cfg config.Server) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      logger.New(cfg.LogLevel),
		registry: prometheus.NewRegistry(),
	}

	var (
		runner        tx.Runner
		organizations partyservice.OrganizationStore
		individuals   partyservice.IndividualStore
		contracts     contractservice.Store
		comments      annotationservice.CommentStore
		issues        annotationservice.IssueStore
	)
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			results, err := postgres.Migrate(ctx, db)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
			a.log.InfoContext(ctx, "migrations applied", "count", len(results))
		}
		a.db = db
		runner = tx.NewSQLRunner(db)
		organizations = organizationstore.NewPostgres(db)
		individuals = individualstore.NewPostgres(db)
		contracts = contractstore.NewPostgres(db)
		comments = commentstore.NewPostgres(db)
		issues = issuestore.NewPostgres(db)
	} else {
		a.log.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		runner = tx.NewMemoryRunner()
		organizations = organizationstore.NewInMemory()
		individuals = individualstore.NewInMemory()
		contracts = contractstore.NewInMemory()
		comments = commentstore.NewInMemory()
		issues = issuestore.NewInMemory()
	}

	a.parties = partyservice.New(organizations, individuals, runner,
		partyservice.WithLogger(a.log),
		partyservice.WithMetrics(partymetrics.New(a.registry)),
	)
	// The annotation service reads contracts through a late-bound reader so the
	// contract service can in turn purge annotations.
	reader := &contractReader{}
	a.annotations = annotationservice.New(comments, issues, reader, runner,
		annotationservice.WithLogger(a.log),
		annotationservice.WithMetrics(annotationmetrics.New(a.registry)),
	)
	a.contracts = contractservice.New(contracts, a.parties, runner,
		contractservice.WithLogger(a.log),
		contractservice.WithMetrics(contractmetrics.New(a.registry)),
		contractservice.WithAnnotationPurger(a.annotations),
	)
	reader.contracts = a.contracts
	return a, nil
}

func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

type contractReader struct {
	contracts annotationservice.ContractReader
}

func (r *contractReader) Get(ctx context.Context, id domain.ContractID) (*contractmodels.Contract, error) {
	return r.contracts.Get(ctx, id)
}
