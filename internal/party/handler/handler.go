package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/httputil"
	"contractdesk/pkg/requestcontext"
)

// Service defines the party registry operations the handler needs.
type Service interface {
	RegisterOrganization(ctx context.Context, req *models.RegisterOrganizationRequest) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, id domain.OrganizationID, req *models.UpdateOrganizationRequest) (*models.Organization, error)
	GetOrganization(ctx context.Context, id domain.OrganizationID) (*models.Organization, error)
	ListOrganizations(ctx context.Context, filter models.ListFilter) ([]*models.Organization, error)
	RegisterIndividual(ctx context.Context, req *models.RegisterIndividualRequest) (*models.Individual, error)
	UpdateIndividual(ctx context.Context, id domain.IndividualID, req *models.UpdateIndividualRequest) (*models.Individual, error)
	GetIndividual(ctx context.Context, id domain.IndividualID) (*models.Individual, error)
	ListIndividuals(ctx context.Context, filter models.ListFilter) ([]*models.Individual, error)
	Deactivate(ctx context.Context, ref models.Ref) error
}

// Handler exposes the party registry over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the organization and individual routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/organizations", func(r chi.Router) {
		r.Post("/", h.HandleRegisterOrganization)
		r.Get("/", h.HandleListOrganizations)
		r.Get("/{id}", h.HandleGetOrganization)
		r.Put("/{id}", h.HandleUpdateOrganization)
		r.Delete("/{id}", h.HandleDeactivateOrganization)
	})
	r.Route("/individuals", func(r chi.Router) {
		r.Post("/", h.HandleRegisterIndividual)
		r.Get("/", h.HandleListIndividuals)
		r.Get("/{id}", h.HandleGetIndividual)
		r.Put("/{id}", h.HandleUpdateIndividual)
		r.Delete("/{id}", h.HandleDeactivateIndividual)
	})
}

func (h *Handler) HandleRegisterOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterOrganizationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	org, err := h.service.RegisterOrganization(ctx, req)
	if err != nil {
		h.fail(ctx, w, "failed to register organization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toOrganizationResponse(org))
}

func (h *Handler) HandleListOrganizations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgs, err := h.service.ListOrganizations(ctx, filterFromQuery(r))
	if err != nil {
		h.fail(ctx, w, "failed to list organizations", err)
		return
	}
	resp := OrganizationListResponse{Organizations: make([]OrganizationResponse, 0, len(orgs)), Total: len(orgs)}
	for _, o := range orgs {
		resp.Organizations = append(resp.Organizations, toOrganizationResponse(o))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	org, err := h.service.GetOrganization(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get organization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}

func (h *Handler) HandleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, err := domain.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateOrganizationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	org, err := h.service.UpdateOrganization(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "failed to update organization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}

func (h *Handler) HandleDeactivateOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Deactivate(ctx, models.OrganizationRef(id)); err != nil {
		h.fail(ctx, w, "failed to deactivate organization", err)
		return
	}
	org, err := h.service.GetOrganization(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to reload organization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}

func (h *Handler) HandleRegisterIndividual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterIndividualRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ind, err := h.service.RegisterIndividual(ctx, req)
	if err != nil {
		h.fail(ctx, w, "failed to register individual", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIndividualResponse(ind))
}

func (h *Handler) HandleListIndividuals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inds, err := h.service.ListIndividuals(ctx, filterFromQuery(r))
	if err != nil {
		h.fail(ctx, w, "failed to list individuals", err)
		return
	}
	resp := IndividualListResponse{Individuals: make([]IndividualResponse, 0, len(inds)), Total: len(inds)}
	for _, i := range inds {
		resp.Individuals = append(resp.Individuals, toIndividualResponse(i))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetIndividual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseIndividualID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ind, err := h.service.GetIndividual(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get individual", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIndividualResponse(ind))
}

func (h *Handler) HandleUpdateIndividual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, err := domain.ParseIndividualID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateIndividualRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ind, err := h.service.UpdateIndividual(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "failed to update individual", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIndividualResponse(ind))
}

func (h *Handler) HandleDeactivateIndividual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseIndividualID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Deactivate(ctx, models.IndividualRef(id)); err != nil {
		h.fail(ctx, w, "failed to deactivate individual", err)
		return
	}
	ind, err := h.service.GetIndividual(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to reload individual", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIndividualResponse(ind))
}

// fail logs at a level matching the error class and writes the envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogError(ctx, h.logger, msg, err)
	httputil.WriteError(w, err)
}

func filterFromQuery(r *http.Request) models.ListFilter {
	q := r.URL.Query()
	return models.ListFilter{
		Status: models.Status(strings.ToLower(strings.TrimSpace(q.Get("status")))),
		Name:   strings.TrimSpace(q.Get("name")),
	}
}
