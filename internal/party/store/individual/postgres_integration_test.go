//go:build integration

package individual_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"contractdesk/internal/party/models"
	"contractdesk/internal/party/store/individual"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *individual.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = individual.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "organizations", "individuals"))
}

func newIndividual(nationalID string) *models.Individual {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Individual{
		ID:         domain.IndividualID(uuid.New()),
		FullName:   "Maria Silva",
		NationalID: nationalID,
		BirthDate:  domain.NewDate(1990, time.May, 17),
		Status:     models.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *PostgresStoreSuite) TestBirthDateSurvivesRoundTrip() {
	ctx := context.Background()
	ind := newIndividual("12345678909")
	s.Require().NoError(s.store.Create(ctx, ind))

	got, err := s.store.FindByNationalID(ctx, ind.NationalID)
	s.Require().NoError(err)
	s.Equal("1990-05-17", got.BirthDate.String())
	s.Equal(ind, got)
}

func (s *PostgresStoreSuite) TestDuplicateNationalID() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newIndividual("52998224725")))
	s.ErrorIs(s.store.Create(ctx, newIndividual("52998224725")), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestDeactivationPersists() {
	ctx := context.Background()
	ind := newIndividual("39053344705")
	s.Require().NoError(s.store.Create(ctx, ind))

	ind.Deactivate(time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.Update(ctx, ind))

	inactive, err := s.store.List(ctx, models.ListFilter{Status: models.StatusInactive})
	s.Require().NoError(err)
	s.Require().Len(inactive, 1)
	s.Equal(ind.ID, inactive[0].ID)
}
