package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"contractdesk/internal/party/handler/mocks"
	"contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/party-mocks.go -package=mocks Service
type PartyHandlerSuite struct {
	suite.Suite
	router  http.Handler
	service *mocks.MockService
	now     time.Time
}

func TestPartyHandlerSuite(t *testing.T) {
	suite.Run(t, new(PartyHandlerSuite))
}

func (s *PartyHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(s.service, logger).Register(r)
	s.router = r
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *PartyHandlerSuite) organization() *models.Organization {
	return &models.Organization{
		ID:        domain.OrganizationID(uuid.New()),
		LegalName: "Acme Ltda",
		TaxID:     "12345678000195",
		Address:   models.Address{PostalCode: "01310100", State: "SP"},
		Email:     "legal@acme.example",
		Status:    models.StatusActive,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

func (s *PartyHandlerSuite) TestRegisterOrganization() {
	s.Run("created with formatted identifiers", func() {
		org := s.organization()
		s.service.EXPECT().RegisterOrganization(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req *models.RegisterOrganizationRequest) (*models.Organization, error) {
				s.Equal("12345678000195", req.TaxID)
				return org, nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/organizations", map[string]any{
			"legal_name": "Acme Ltda",
			"tax_id":     "12.345.678/0001-95",
			"email":      "legal@acme.example",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.DecodeJSON[OrganizationResponse](s.T(), rr)
		s.Equal(org.ID.String(), resp.ID)
		s.Equal("12.345.678/0001-95", resp.TaxIDFormatted)
		s.Equal("01310-100", resp.Address.PostalCodeFormatted)
		s.Equal("active", resp.Status)
	})

	s.Run("invalid body never reaches the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/organizations", map[string]any{
			"legal_name": "Acme Ltda",
			"tax_id":     "123",
			"email":      "legal@acme.example",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("malformed json", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/organizations", "{")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("duplicate tax id surfaces as validation", func() {
		s.service.EXPECT().RegisterOrganization(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "tax_id is already registered"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/organizations", map[string]any{
			"legal_name": "Acme Ltda",
			"tax_id":     "12345678000195",
			"email":      "legal@acme.example",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
		s.Equal("tax_id is already registered", testutil.ErrorBody(s.T(), rr)["error_description"])
	})
}

func (s *PartyHandlerSuite) TestGetOrganization() {
	s.Run("bad id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/organizations/not-a-uuid", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.Run("not found", func() {
		id := domain.OrganizationID(uuid.New())
		s.service.EXPECT().GetOrganization(gomock.Any(), id).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "organization not found"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/organizations/"+id.String(), nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("internal errors hide details", func() {
		id := domain.OrganizationID(uuid.New())
		s.service.EXPECT().GetOrganization(gomock.Any(), id).
			Return(nil, dErrors.New(dErrors.CodeInternal, "connection refused"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/organizations/"+id.String(), nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
		s.NotContains(rr.Body.String(), "connection refused")
	})
}

func (s *PartyHandlerSuite) TestListOrganizations() {
	org := s.organization()
	s.service.EXPECT().ListOrganizations(gomock.Any(), models.ListFilter{Status: models.StatusActive, Name: "acme"}).
		Return([]*models.Organization{org}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/organizations?status=ACTIVE&name=acme", nil))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.DecodeJSON[OrganizationListResponse](s.T(), rr)
	s.Equal(1, resp.Total)
	s.Len(resp.Organizations, 1)
}

func (s *PartyHandlerSuite) TestUpdateOrganization() {
	s.Run("empty body fields are rejected by the service", func() {
		id := domain.OrganizationID(uuid.New())
		s.service.EXPECT().UpdateOrganization(gomock.Any(), id, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "no fields to update"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut, "/organizations/"+id.String(), map[string]any{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("present fields are forwarded", func() {
		org := s.organization()
		s.service.EXPECT().UpdateOrganization(gomock.Any(), org.ID, gomock.Any()).
			DoAndReturn(func(_ any, _ domain.OrganizationID, req *models.UpdateOrganizationRequest) (*models.Organization, error) {
				s.Require().NotNil(req.TradeName)
				s.Equal("Acme", *req.TradeName)
				s.Nil(req.LegalName)
				return org, nil
			})
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut, "/organizations/"+org.ID.String(), map[string]any{
			"trade_name": " Acme ",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}

func (s *PartyHandlerSuite) TestDeactivate() {
	s.Run("organization returns the inactive record", func() {
		org := s.organization()
		org.Status = models.StatusInactive
		gomock.InOrder(
			s.service.EXPECT().Deactivate(gomock.Any(), models.OrganizationRef(org.ID)).Return(nil),
			s.service.EXPECT().GetOrganization(gomock.Any(), org.ID).Return(org, nil),
		)
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodDelete, "/organizations/"+org.ID.String(), nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Equal("inactive", testutil.DecodeJSON[OrganizationResponse](s.T(), rr).Status)
	})

	s.Run("already inactive individual conflicts", func() {
		id := domain.IndividualID(uuid.New())
		s.service.EXPECT().Deactivate(gomock.Any(), models.IndividualRef(id)).
			Return(dErrors.New(dErrors.CodeConflict, "individual is already inactive"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodDelete, "/individuals/"+id.String(), nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
	})
}

func (s *PartyHandlerSuite) TestRegisterIndividual() {
	ind := &models.Individual{
		ID:         domain.IndividualID(uuid.New()),
		FullName:   "Maria Silva",
		NationalID: "12345678909",
		BirthDate:  domain.NewDate(1990, time.May, 17),
		Status:     models.StatusActive,
	}
	s.service.EXPECT().RegisterIndividual(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req *models.RegisterIndividualRequest) (*models.Individual, error) {
			s.Equal(domain.NewDate(1990, time.May, 17), req.BirthDate)
			return ind, nil
		})

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/individuals", map[string]any{
		"full_name":   "Maria Silva",
		"national_id": "123.456.789-09",
		"birth_date":  "1990-05-17",
	}))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	resp := testutil.DecodeJSON[IndividualResponse](s.T(), rr)
	s.Equal("123.456.789-09", resp.NationalIDFormatted)
	s.Equal("1990-05-17", resp.BirthDate.String())
}
