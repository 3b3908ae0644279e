package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"contractdesk/internal/annotation/models"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/httputil"
	"contractdesk/pkg/requestcontext"
)

// Service defines the annotation operations exposed over HTTP.
type Service interface {
	AddComment(ctx context.Context, req *models.AddCommentRequest) (*models.Comment, error)
	EditComment(ctx context.Context, id domain.CommentID, req *models.EditCommentRequest) (*models.Comment, error)
	DeleteComment(ctx context.Context, id domain.CommentID) (*models.Comment, error)
	ListComments(ctx context.Context, contractID domain.ContractID) ([]*models.Comment, error)
	CreateIssue(ctx context.Context, contractID domain.ContractID, req *models.CreateIssueRequest) (*models.Issue, error)
	UpdateIssue(ctx context.Context, id domain.IssueID, req *models.UpdateIssueRequest) (*models.Issue, error)
	GetIssue(ctx context.Context, id domain.IssueID) (*models.Issue, error)
	ListIssues(ctx context.Context, contractID domain.ContractID, filter models.IssueFilter) ([]*models.Issue, error)
	History(ctx context.Context, id domain.IssueID) ([]*models.HistoryEntry, error)
	Overview(ctx context.Context, contractID domain.ContractID) (*models.Overview, error)
}

// Handler exposes comments and issues over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/comments", h.HandleAddComment)
	r.Put("/comments/{id}", h.HandleEditComment)
	r.Delete("/comments/{id}", h.HandleDeleteComment)
	r.Get("/contracts/{id}/comments", h.HandleListComments)
	r.Post("/contracts/{id}/issues", h.HandleCreateIssue)
	r.Get("/contracts/{id}/issues", h.HandleListIssues)
	r.Get("/contracts/{id}/overview", h.HandleOverview)
	r.Get("/issues/{id}", h.HandleGetIssue)
	r.Put("/issues/{id}", h.HandleUpdateIssue)
	r.Get("/issues/{id}/history", h.HandleHistory)
}

func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.AddCommentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.AddComment(ctx, req)
	if err != nil {
		h.fail(ctx, w, "failed to add comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCommentResponse(c))
}

func (h *Handler) HandleEditComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, err := domain.ParseCommentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.EditCommentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.EditComment(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "failed to edit comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCommentResponse(c))
}

func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseCommentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.DeleteComment(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to delete comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCommentResponse(c))
}

// HandleListComments returns reply trees, or the flat creation-ordered list
// with ?view=flat.
func (h *Handler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contractID, err := domain.ParseContractID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	comments, err := h.service.ListComments(ctx, contractID)
	if err != nil {
		h.fail(ctx, w, "failed to list comments", err)
		return
	}
	if strings.EqualFold(r.URL.Query().Get("view"), "flat") {
		resp := CommentListResponse{ContractID: contractID.String(), Comments: make([]CommentResponse, 0, len(comments)), Total: len(comments)}
		for _, c := range comments {
			resp.Comments = append(resp.Comments, toCommentResponse(c))
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ThreadListResponse{
		ContractID: contractID.String(),
		Threads:    toThreadResponses(models.BuildThreads(comments)),
		Total:      len(comments),
	})
}

func (h *Handler) HandleCreateIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	contractID, err := domain.ParseContractID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CreateIssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	issue, err := h.service.CreateIssue(ctx, contractID, req)
	if err != nil {
		h.fail(ctx, w, "failed to create issue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIssueResponse(issue))
}

func (h *Handler) HandleListIssues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contractID, err := domain.ParseContractID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter, err := issueFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	issues, err := h.service.ListIssues(ctx, contractID, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list issues", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, IssueListResponse{Issues: toIssueResponses(issues), Total: len(issues)})
}

func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contractID, err := domain.ParseContractID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	overview, err := h.service.Overview(ctx, contractID)
	if err != nil {
		h.fail(ctx, w, "failed to load overview", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOverviewResponse(overview))
}

func (h *Handler) HandleGetIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseIssueID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	issue, err := h.service.GetIssue(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get issue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIssueResponse(issue))
}

func (h *Handler) HandleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, err := domain.ParseIssueID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateIssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	issue, err := h.service.UpdateIssue(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "failed to update issue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIssueResponse(issue))
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseIssueID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.service.History(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to load issue history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHistoryResponse(id, entries))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogError(ctx, h.logger, msg, err)
	httputil.WriteError(w, err)
}

func issueFilterFromQuery(r *http.Request) (models.IssueFilter, error) {
	q := r.URL.Query()
	lower := func(key string) string { return strings.ToLower(strings.TrimSpace(q.Get(key))) }
	filter := models.IssueFilter{
		Status:   models.IssueStatus(lower("status")),
		Priority: models.Priority(lower("priority")),
		Type:     models.IssueType(lower("issue_type")),
		Tag:      lower("tag"),
	}
	if v := strings.TrimSpace(q.Get("assignee_id")); v != "" {
		id, err := domain.ParseUserID(v)
		if err != nil {
			return filter, err
		}
		filter.AssigneeID = &id
	}
	return filter, filter.Validate()
}
