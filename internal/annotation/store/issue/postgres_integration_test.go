//go:build integration

package issue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"contractdesk/internal/annotation/models"
	"contractdesk/internal/annotation/store/issue"
	contractmodels "contractdesk/internal/contract/models"
	contractstore "contractdesk/internal/contract/store"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/platform/tx"
	"contractdesk/pkg/testutil/containers"
)

type IssuePostgresSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	store      *issue.PostgresStore
	contracts  *contractstore.PostgresStore
	runner     *tx.SQLRunner
	contractID domain.ContractID
}

func TestIssuePostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(IssuePostgresSuite))
}

func (s *IssuePostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = issue.NewPostgres(s.postgres.DB)
	s.contracts = contractstore.NewPostgres(s.postgres.DB)
	s.runner = tx.NewSQLRunner(s.postgres.DB)
}

func (s *IssuePostgresSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "issue_history", "issues", "contract_audit_entries", "contracts"))
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &contractmodels.Contract{
		ID:             domain.ContractID(uuid.New()),
		ContractNumber: "C-1",
		Name:           "n",
		Type:           "t",
		Category:       "c",
		Version:        1,
		Status:         contractmodels.StatusActive,
		EffectiveDate:  domain.NewDate(2024, time.January, 1),
		ExpirationDate: domain.NewDate(2024, time.December, 31),
		CreatedAt:      now,
		LastModifiedAt: now,
		LastModifiedBy: domain.UserID(uuid.New()),
	}
	s.Require().NoError(s.contracts.Create(ctx, c))
	s.contractID = c.ID
}

func (s *IssuePostgresSuite) newIssue(title string, tags ...string) *models.Issue {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Issue{
		ID:         domain.IssueID(uuid.New()),
		ContractID: s.contractID,
		Title:      title,
		Status:     models.IssueStatusOpen,
		Priority:   models.PriorityMedium,
		Type:       models.IssueTypeTask,
		CreatedBy:  domain.UserID(uuid.New()),
		Tags:       models.NormalizeTags(tags),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *IssuePostgresSuite) TestRoundTripWithOptionalFields() {
	ctx := context.Background()
	i := s.newIssue("full", "billing", "legal")
	assignee := domain.UserID(uuid.New())
	due := domain.NewDate(2024, time.April, 30)
	resolved := i.CreatedAt.Add(time.Hour)
	i.AssigneeID = &assignee
	i.DueDate = &due
	i.TextPosition = &models.Span{Start: 0, End: 3}
	i.RelatedText = "The"
	i.Status = models.IssueStatusResolved
	i.ResolvedAt = &resolved
	s.Require().NoError(s.store.Create(ctx, i))

	got, err := s.store.FindByID(ctx, i.ID)
	s.Require().NoError(err)
	s.Equal(i, got)

	bare := s.newIssue("bare")
	s.Require().NoError(s.store.Create(ctx, bare))
	got, err = s.store.FindByID(ctx, bare.ID)
	s.Require().NoError(err)
	s.Equal(bare, got)
	s.Equal([]string{}, got.Tags)
}

func (s *IssuePostgresSuite) TestListFilters() {
	ctx := context.Background()
	tagged := s.newIssue("tagged", "billing")
	tagged.Type = models.IssueTypeBug
	plain := s.newIssue("plain")
	plain.Priority = models.PriorityCritical
	s.Require().NoError(s.store.Create(ctx, tagged))
	s.Require().NoError(s.store.Create(ctx, plain))

	byTag, err := s.store.List(ctx, s.contractID, models.IssueFilter{Tag: "billing"})
	s.Require().NoError(err)
	s.Require().Len(byTag, 1)
	s.Equal(tagged.ID, byTag[0].ID)

	byPriority, err := s.store.List(ctx, s.contractID, models.IssueFilter{Priority: models.PriorityCritical})
	s.Require().NoError(err)
	s.Require().Len(byPriority, 1)
	s.Equal(plain.ID, byPriority[0].ID)

	other, err := s.store.List(ctx, domain.ContractID(uuid.New()), models.IssueFilter{})
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *IssuePostgresSuite) TestHistoryAppendsUnderLock() {
	ctx := context.Background()
	i := s.newIssue("locked")
	s.Require().NoError(s.store.Create(ctx, i))

	const writers = 8
	var wg sync.WaitGroup
	for n := 0; n < writers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
				current, err := s.store.FindByIDForUpdate(ctx, i.ID)
				if err != nil {
					return err
				}
				before := current.Clone()
				current.Tags = append(current.Tags, uuid.NewString()[:8])
				current.Tags = models.NormalizeTags(current.Tags)
				if err := s.store.Update(ctx, current); err != nil {
					return err
				}
				entry := models.NewHistoryEntry(current, models.HistoryActionUpdate, models.Diff(before, current), current.CreatedBy, time.Now().UTC())
				return s.store.AppendHistory(ctx, entry)
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.store.FindByID(ctx, i.ID)
	s.Require().NoError(err)
	s.Len(got.Tags, writers)

	history, err := s.store.ListHistory(ctx, i.ID)
	s.Require().NoError(err)
	s.Len(history, writers)
	s.Contains(history[0].Changes, "tags")
}

func (s *IssuePostgresSuite) TestDeleteByContractCascadesHistory() {
	ctx := context.Background()
	i := s.newIssue("gone")
	s.Require().NoError(s.store.Create(ctx, i))
	s.Require().NoError(s.store.AppendHistory(ctx,
		models.NewHistoryEntry(i, models.HistoryActionCreate, models.Snapshot(i), i.CreatedBy, time.Now().UTC())))

	s.Require().NoError(s.store.DeleteByContract(ctx, s.contractID))

	_, err := s.store.FindByID(ctx, i.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	history, err := s.store.ListHistory(ctx, i.ID)
	s.Require().NoError(err)
	s.Empty(history)
}
