package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"contractdesk/internal/contract/metrics"
	"contractdesk/internal/contract/models"
	"contractdesk/internal/contract/store"
	partymodels "contractdesk/internal/party/models"
	partyservice "contractdesk/internal/party/service"
	"contractdesk/internal/party/store/individual"
	"contractdesk/internal/party/store/organization"
	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/platform/tx"
	"contractdesk/pkg/requestcontext"
	pkgtestutil "contractdesk/pkg/testutil"
)

type recordingPurger struct {
	mu     sync.Mutex
	purged []domain.ContractID
}

func (p *recordingPurger) PurgeContract(_ context.Context, id domain.ContractID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purged = append(p.purged, id)
	return nil
}

type ContractServiceSuite struct {
	suite.Suite
	service *Service
	parties *partyservice.Service
	metrics *metrics.Metrics
	purger  *recordingPurger
	ctx     context.Context
	actor   domain.Principal
	org1    partymodels.Ref
	org2    partymodels.Ref
}

func TestContractServiceSuite(t *testing.T) {
	suite.Run(t, new(ContractServiceSuite))
}

func (s *ContractServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := tx.NewMemoryRunner()
	s.parties = partyservice.New(organization.NewInMemory(), individual.NewInMemory(), runner, partyservice.WithLogger(logger))
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.purger = &recordingPurger{}
	s.service = New(store.NewInMemory(), s.parties, runner,
		WithLogger(logger),
		WithMetrics(s.metrics),
		WithAnnotationPurger(s.purger),
	)
	s.actor = pkgtestutil.NewPrincipal(domain.RoleUser)
	s.ctx = pkgtestutil.AuthedContext(s.actor, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	s.org1 = s.registerOrg("11111111000111")
	s.org2 = s.registerOrg("22222222000122")
}

func (s *ContractServiceSuite) registerOrg(taxID string) partymodels.Ref {
	org, err := s.parties.RegisterOrganization(s.ctx, &partymodels.RegisterOrganizationRequest{
		LegalName: "Org " + taxID,
		TaxID:     taxID,
		Email:     "org@example.com",
	})
	s.Require().NoError(err)
	return org.Ref()
}

func (s *ContractServiceSuite) createRequest(number string) *models.CreateContractRequest {
	a, b := s.org1, s.org2
	return &models.CreateContractRequest{
		ContractNumber:  number,
		Name:            "Office lease",
		Type:            "lease",
		Category:        "real-estate",
		PartyA:          &a,
		PartyARole:      "lessor",
		PartyB:          &b,
		PartyBRole:      "lessee",
		EffectiveDate:   domain.NewDate(2024, time.January, 1),
		ExpirationDate:  domain.NewDate(2024, time.December, 31),
		DocumentContent: "The lessee shall pay monthly.",
	}
}

func (s *ContractServiceSuite) auditLen(id domain.ContractID) int {
	entries, err := s.service.AuditLog(s.ctx, id)
	s.Require().NoError(err)
	return len(entries)
}

// C-100 walks pending -> active -> expired and back to active, which fails.
func (s *ContractServiceSuite) TestLifecycleScenario() {
	c, err := s.service.Create(s.ctx, s.createRequest("C-100"))
	s.Require().NoError(err)
	s.Equal(models.StatusPending, c.Status)
	s.Equal(1, c.Version)
	s.Equal(1, s.auditLen(c.ID))

	c, err = s.service.TransitionStatus(s.ctx, c.ID, models.StatusActive)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, c.Status)
	s.Equal(1, c.Version, "transitions do not bump the version")
	s.Equal(2, s.auditLen(c.ID))

	_, err = s.service.TransitionStatus(s.ctx, c.ID, models.StatusExpired)
	s.Require().NoError(err)

	_, err = s.service.TransitionStatus(s.ctx, c.ID, models.StatusActive)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(3, s.auditLen(c.ID), "a failed transition appends nothing")

	got, err := s.service.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusExpired, got.Status)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.StatusTransitions.WithLabelValues("pending", "active")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.StatusTransitions.WithLabelValues("active", "expired")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ContractsCreated))
}

func (s *ContractServiceSuite) TestTerminatedIsFinal() {
	c, err := s.service.Create(s.ctx, s.createRequest("C-200"))
	s.Require().NoError(err)
	_, err = s.service.TransitionStatus(s.ctx, c.ID, models.StatusActive)
	s.Require().NoError(err)
	_, err = s.service.TransitionStatus(s.ctx, c.ID, models.StatusTerminated)
	s.Require().NoError(err)

	for _, target := range []models.Status{models.StatusPending, models.StatusActive, models.StatusExpired, models.StatusTerminated} {
		_, err := s.service.TransitionStatus(s.ctx, c.ID, target)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict), "terminated -> %s", target)
	}
}

func (s *ContractServiceSuite) TestCreateValidation() {
	_, err := s.service.Create(s.ctx, s.createRequest("C-300"))
	s.Require().NoError(err)

	s.Run("duplicate number conflicts", func() {
		_, err := s.service.Create(s.ctx, s.createRequest(" C-300 "))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("dates out of order", func() {
		req := s.createRequest("C-301")
		req.ExpirationDate = domain.NewDate(2023, time.December, 31)
		_, err := s.service.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown party", func() {
		req := s.createRequest("C-302")
		ghost := partymodels.OrganizationRef(domain.OrganizationID(uuid.New()))
		req.PartyB = &ghost
		_, err := s.service.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("inactive party", func() {
		inactive := s.registerOrg("33333333000133")
		s.Require().NoError(s.parties.Deactivate(s.ctx, inactive))
		req := s.createRequest("C-303")
		req.PartyA = &inactive
		_, err := s.service.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("no parties is fine", func() {
		req := s.createRequest("C-304")
		req.PartyA, req.PartyB = nil, nil
		c, err := s.service.Create(s.ctx, req)
		s.Require().NoError(err)
		s.Nil(c.PartyA)
	})

	s.Run("missing required field", func() {
		req := s.createRequest("C-305")
		req.Category = "  "
		_, err := s.service.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ContractServiceSuite) TestUpdate() {
	c, err := s.service.Create(s.ctx, s.createRequest("C-400"))
	s.Require().NoError(err)

	s.Run("records old and new per changed field", func() {
		name := "Office lease, 2nd floor"
		terms := "Net 30"
		updated, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{Name: &name, PaymentTerms: &terms})
		s.Require().NoError(err)
		s.Equal(2, updated.Version)
		s.Equal(s.actor.UserID, updated.LastModifiedBy)

		entries, err := s.service.AuditLog(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		last := entries[1]
		s.Equal(models.AuditActionUpdate, last.Action)
		s.Equal(models.Changes{
			"name":          {Old: "Office lease", New: name},
			"payment_terms": {Old: "", New: terms},
		}, last.Changes)
	})

	s.Run("same values are not a change", func() {
		name := "Office lease, 2nd floor"
		_, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{Name: &name})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(2, s.auditLen(c.ID))
	})

	s.Run("empty request", func() {
		_, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("touching one date rechecks ordering", func() {
		d := domain.NewDate(2025, time.January, 1)
		_, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{EffectiveDate: &d})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		got, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(domain.NewDate(2024, time.January, 1), got.EffectiveDate)
	})

	s.Run("contract number is immutable", func() {
		n := "C-999"
		_, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{ContractNumber: &n})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unbinding a party", func() {
		updated, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{PartyB: models.OptionalRef{Present: true}})
		s.Require().NoError(err)
		s.Nil(updated.PartyB)
	})

	s.Run("existing binding survives deactivation", func() {
		s.Require().NoError(s.parties.Deactivate(s.ctx, s.org1))
		role := "landlord"
		same := s.org1
		_, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{
			PartyARole: &role,
			PartyA:     models.OptionalRef{Present: true, Ref: &same},
		})
		s.NoError(err)
	})

	s.Run("not found", func() {
		name := "x"
		_, err := s.service.Update(s.ctx, domain.ContractID(uuid.New()), &models.UpdateContractRequest{Name: &name})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ContractServiceSuite) TestUpdateWithStatus() {
	c, err := s.service.Create(s.ctx, s.createRequest("C-500"))
	s.Require().NoError(err)

	s.Run("fields and transition each append an entry", func() {
		name := "Renamed"
		active := models.StatusActive
		updated, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{Name: &name, Status: &active})
		s.Require().NoError(err)
		s.Equal(models.StatusActive, updated.Status)
		s.Equal(2, updated.Version)

		entries, err := s.service.AuditLog(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 3)
		s.Equal(models.AuditActionUpdate, entries[1].Action)
		s.Equal(models.AuditActionStatusChange, entries[2].Action)
	})

	s.Run("illegal transition rejects the whole update", func() {
		name := "Should not stick"
		pending := models.StatusPending
		_, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{Name: &name, Status: &pending})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		got, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal("Renamed", got.Name)
		s.Equal(3, s.auditLen(c.ID))
	})

	s.Run("status equal to current only is no change", func() {
		active := models.StatusActive
		_, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{Status: &active})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// Concurrent updates serialize and each commits its own entry.
func (s *ContractServiceSuite) TestConcurrentUpdatesEachAppend() {
	c, err := s.service.Create(s.ctx, s.createRequest("C-600"))
	s.Require().NoError(err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			terms := "revision " + uuid.NewString()
			_, err := s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{RenewalTerms: &terms})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.service.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(1+writers, got.Version)
	s.Equal(1+writers, s.auditLen(c.ID))
}

// A request stamped earlier that acquires the row after a later one must not
// move last_modified_at or the audit log backwards.
func (s *ContractServiceSuite) TestStampsFollowLockOrder() {
	c, err := s.service.Create(s.ctx, s.createRequest("C-650"))
	s.Require().NoError(err)
	late := requestcontext.WithTime(s.ctx, requestcontext.Now(s.ctx).Add(time.Second))

	first := "granted first"
	updated, err := s.service.Update(late, c.ID, &models.UpdateContractRequest{RenewalTerms: &first})
	s.Require().NoError(err)
	lateAt := updated.LastModifiedAt

	second := "arrived first, waited on the lock"
	updated, err = s.service.Update(s.ctx, c.ID, &models.UpdateContractRequest{RenewalTerms: &second})
	s.Require().NoError(err)
	s.Equal(lateAt, updated.LastModifiedAt)

	updated, err = s.service.TransitionStatus(s.ctx, c.ID, models.StatusActive)
	s.Require().NoError(err)
	s.False(updated.LastModifiedAt.Before(lateAt))

	entries, err := s.service.AuditLog(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 4)
	for i := 1; i < len(entries); i++ {
		s.False(entries[i].OccurredAt.Before(entries[i-1].OccurredAt), "entry %d goes back in time", i)
	}
}

func (s *ContractServiceSuite) TestList() {
	a, err := s.service.Create(s.ctx, s.createRequest("C-700"))
	s.Require().NoError(err)
	req := s.createRequest("C-701")
	req.PartyA = nil
	req.PartyB = nil
	req.EffectiveDate = domain.NewDate(2026, time.January, 1)
	req.ExpirationDate = domain.NewDate(2026, time.June, 30)
	_, err = s.service.Create(s.ctx, req)
	s.Require().NoError(err)
	_, err = s.service.TransitionStatus(s.ctx, a.ID, models.StatusActive)
	s.Require().NoError(err)

	byStatus, err := s.service.List(s.ctx, models.ListFilter{Status: models.StatusActive})
	s.Require().NoError(err)
	s.Require().Len(byStatus, 1)
	s.Equal(a.ID, byStatus[0].ID)

	org2 := s.org2
	byParty, err := s.service.List(s.ctx, models.ListFilter{Party: &org2})
	s.Require().NoError(err)
	s.Len(byParty, 1)

	byWindow, err := s.service.List(s.ctx, models.ListFilter{From: domain.NewDate(2025, time.December, 1), To: domain.NewDate(2026, time.February, 1)})
	s.Require().NoError(err)
	s.Require().Len(byWindow, 1)
	s.Equal("C-701", byWindow[0].ContractNumber)
}

func (s *ContractServiceSuite) TestPurge() {
	c, err := s.service.Create(s.ctx, s.createRequest("C-800"))
	s.Require().NoError(err)

	s.Run("requires admin", func() {
		err := s.service.Purge(s.ctx, c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	admin := requestcontext.WithPrincipal(s.ctx, pkgtestutil.NewPrincipal(domain.RoleAdmin))

	s.Run("removes contract, audit and annotations", func() {
		s.Require().NoError(s.service.Purge(admin, c.ID))
		s.Equal([]domain.ContractID{c.ID}, s.purger.purged)

		_, err := s.service.Get(s.ctx, c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_, err = s.service.AuditLog(s.ctx, c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("number is reusable afterwards", func() {
		_, err := s.service.Create(s.ctx, s.createRequest("C-800"))
		s.NoError(err)
	})

	s.Run("unknown contract", func() {
		err := s.service.Purge(admin, domain.ContractID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
