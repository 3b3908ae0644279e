//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"contractdesk/internal/contract/models"
	"contractdesk/internal/contract/store"
	partymodels "contractdesk/internal/party/models"
	"contractdesk/internal/party/store/organization"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/platform/tx"
	"contractdesk/pkg/testutil/containers"
)

type ContractPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	orgs     *organization.PostgresStore
	runner   *tx.SQLRunner
}

func TestContractPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ContractPostgresSuite))
}

func (s *ContractPostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.orgs = organization.NewPostgres(s.postgres.DB)
	s.runner = tx.NewSQLRunner(s.postgres.DB)
}

func (s *ContractPostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"issue_history", "issues", "comments", "contract_audit_entries", "contracts", "organizations", "individuals"))
}

func (s *ContractPostgresSuite) createOrg(taxID string) partymodels.Ref {
	now := time.Now().UTC().Truncate(time.Microsecond)
	org := &partymodels.Organization{
		ID:        domain.OrganizationID(uuid.New()),
		LegalName: "Org " + taxID,
		TaxID:     taxID,
		Email:     "legal@example.com",
		Status:    partymodels.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.orgs.Create(context.Background(), org))
	return org.Ref()
}

func newContract(number string) *models.Contract {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Contract{
		ID:             domain.ContractID(uuid.New()),
		ContractNumber: number,
		Name:           "Supply agreement",
		Type:           "supply",
		Category:       "procurement",
		Version:        1,
		Status:         models.StatusPending,
		EffectiveDate:  domain.NewDate(2024, time.January, 1),
		ExpirationDate: domain.NewDate(2024, time.December, 31),
		CreatedAt:      now,
		LastModifiedAt: now,
		LastModifiedBy: domain.UserID(uuid.New()),
	}
}

func (s *ContractPostgresSuite) TestRoundTripWithParties() {
	ctx := context.Background()
	a := s.createOrg("11111111000111")
	c := newContract("C-1")
	c.PartyA = &a
	c.PartyARole = "supplier"
	s.Require().NoError(s.store.Create(ctx, c))

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c, got)

	byNumber, err := s.store.FindByNumber(ctx, "C-1")
	s.Require().NoError(err)
	s.Equal(c.ID, byNumber.ID)

	s.ErrorIs(s.store.Create(ctx, newContract("C-1")), sentinel.ErrAlreadyUsed)
}

func (s *ContractPostgresSuite) TestUnknownPartyViolatesForeignKey() {
	ghost := partymodels.OrganizationRef(domain.OrganizationID(uuid.New()))
	c := newContract("C-2")
	c.PartyB = &ghost
	s.ErrorIs(s.store.Create(context.Background(), c), sentinel.ErrConflict)
}

func (s *ContractPostgresSuite) TestForUpdateRequiresTransaction() {
	ctx := context.Background()
	c := newContract("C-3")
	s.Require().NoError(s.store.Create(ctx, c))

	_, err := s.store.FindByIDForUpdate(ctx, c.ID)
	s.Error(err)

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		locked, err := s.store.FindByIDForUpdate(ctx, c.ID)
		if err != nil {
			return err
		}
		s.Equal(c.ID, locked.ID)
		return nil
	})
	s.NoError(err)
}

// TestLockedIncrementsDoNotLoseUpdates runs read-modify-write cycles under
// FOR UPDATE and expects every increment to land.
func (s *ContractPostgresSuite) TestLockedIncrementsDoNotLoseUpdates() {
	ctx := context.Background()
	c := newContract("C-4")
	s.Require().NoError(s.store.Create(ctx, c))

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
				locked, err := s.store.FindByIDForUpdate(ctx, c.ID)
				if err != nil {
					return err
				}
				locked.Version++
				return s.store.Update(ctx, locked)
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(1+writers, got.Version)
}

func (s *ContractPostgresSuite) TestAuditRoundTripAndCascade() {
	ctx := context.Background()
	c := newContract("C-5")
	s.Require().NoError(s.store.Create(ctx, c))

	now := time.Now().UTC().Truncate(time.Microsecond)
	first := models.NewAuditEntry(c, c.LastModifiedBy, models.AuditActionStatusChange,
		models.StatusChange(models.StatusPending, models.StatusActive), now)
	second := models.NewAuditEntry(c, c.LastModifiedBy, models.AuditActionUpdate,
		models.Changes{"name": {Old: "Supply agreement", New: "Supply agreement v2"}}, now)
	s.Require().NoError(s.store.AppendAudit(ctx, first))
	s.Require().NoError(s.store.AppendAudit(ctx, second))

	entries, err := s.store.ListAudit(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(first.ID, entries[0].ID)
	s.Equal(models.Changes{"status": {Old: "pending", New: "active"}}, entries[0].Changes)
	s.Equal(models.AuditActionUpdate, entries[1].Action)

	orphan := models.NewAuditEntry(newContract("C-6"), c.LastModifiedBy, models.AuditActionCreate, models.Changes{}, now)
	s.ErrorIs(s.store.AppendAudit(ctx, orphan), sentinel.ErrNotFound)

	s.Require().NoError(s.store.Delete(ctx, c.ID))
	entries, err = s.store.ListAudit(ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(entries)
	s.ErrorIs(s.store.Delete(ctx, c.ID), sentinel.ErrNotFound)
}

func (s *ContractPostgresSuite) TestListFilters() {
	ctx := context.Background()
	a := s.createOrg("22222222000122")

	q1 := newContract("Q1")
	q1.ExpirationDate = domain.NewDate(2024, time.March, 31)
	q1.PartyA = &a
	q4 := newContract("Q4")
	q4.EffectiveDate = domain.NewDate(2024, time.October, 1)
	q4.Status = models.StatusActive
	s.Require().NoError(s.store.Create(ctx, q1))
	s.Require().NoError(s.store.Create(ctx, q4))

	byParty, err := s.store.List(ctx, models.ListFilter{Party: &a})
	s.Require().NoError(err)
	s.Require().Len(byParty, 1)
	s.Equal(q1.ID, byParty[0].ID)

	window, err := s.store.List(ctx, models.ListFilter{
		From: domain.NewDate(2024, time.May, 1),
		To:   domain.NewDate(2024, time.June, 30),
	})
	s.Require().NoError(err)
	s.Empty(window)

	active, err := s.store.List(ctx, models.ListFilter{Status: models.StatusActive})
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(q4.ID, active[0].ID)
}
