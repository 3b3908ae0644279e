package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"contractdesk/internal/contract/models"
	partymodels "contractdesk/internal/party/models"
	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/platform/httputil"
	"contractdesk/pkg/requestcontext"
)

// Service defines the contract operations exposed over HTTP. Purge is CLI only.
type Service interface {
	Create(ctx context.Context, req *models.CreateContractRequest) (*models.Contract, error)
	Update(ctx context.Context, id domain.ContractID, req *models.UpdateContractRequest) (*models.Contract, error)
	TransitionStatus(ctx context.Context, id domain.ContractID, target models.Status) (*models.Contract, error)
	Get(ctx context.Context, id domain.ContractID) (*models.Contract, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Contract, error)
	AuditLog(ctx context.Context, id domain.ContractID) ([]*models.AuditEntry, error)
}

// Handler exposes contracts over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the contract routes. Routes are flat so other handlers can
// add /contracts/{id}/... paths on the same router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/contracts", h.HandleCreate)
	r.Get("/contracts", h.HandleList)
	r.Get("/contracts/{id}", h.HandleGet)
	r.Put("/contracts/{id}", h.HandleUpdate)
	r.Post("/contracts/{id}/status", h.HandleTransition)
	r.Get("/contracts/{id}/audit", h.HandleAuditLog)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateContractRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Create(ctx, req)
	if err != nil {
		h.fail(ctx, w, "failed to create contract", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toContractResponse(c))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	contracts, err := h.service.List(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list contracts", err)
		return
	}
	resp := ContractListResponse{Contracts: make([]ContractResponse, 0, len(contracts)), Total: len(contracts)}
	for _, c := range contracts {
		resp.Contracts = append(resp.Contracts, toContractResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseContractID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get contract", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContractResponse(c))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, err := domain.ParseContractID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateContractRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "failed to update contract", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContractResponse(c))
}

func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, err := domain.ParseContractID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.TransitionStatus(ctx, id, req.Status)
	if err != nil {
		h.fail(ctx, w, "failed to transition contract", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContractResponse(c))
}

func (h *Handler) HandleAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseContractID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.service.AuditLog(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to load audit log", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditLogResponse(id, entries))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogError(ctx, h.logger, msg, err)
	httputil.WriteError(w, err)
}

// filterFromQuery reads status, party_type, party_id, from and to.
func filterFromQuery(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	filter := models.ListFilter{
		Status: models.Status(strings.ToLower(strings.TrimSpace(q.Get("status")))),
	}
	if partyID := strings.TrimSpace(q.Get("party_id")); partyID != "" {
		kind := partymodels.Kind(strings.ToLower(strings.TrimSpace(q.Get("party_type"))))
		if kind == "" {
			return filter, dErrors.New(dErrors.CodeValidation, "party_type is required with party_id")
		}
		var ref partymodels.Ref
		switch kind {
		case partymodels.KindOrganization:
			id, err := domain.ParseOrganizationID(partyID)
			if err != nil {
				return filter, err
			}
			ref = partymodels.OrganizationRef(id)
		case partymodels.KindIndividual:
			id, err := domain.ParseIndividualID(partyID)
			if err != nil {
				return filter, err
			}
			ref = partymodels.IndividualRef(id)
		default:
			return filter, dErrors.New(dErrors.CodeValidation, "party_type must be organization or individual")
		}
		filter.Party = &ref
	}
	for param, dst := range map[string]*domain.Date{"from": &filter.From, "to": &filter.To} {
		if v := strings.TrimSpace(q.Get(param)); v != "" {
			d, err := domain.ParseDate(v)
			if err != nil {
				return filter, err
			}
			*dst = d
		}
	}
	return filter, nil
}
