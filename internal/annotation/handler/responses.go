package handler

import (
	"time"

	"github.com/google/uuid"

	"contractdesk/internal/annotation/models"
	"contractdesk/pkg/domain"
)

// CommentResponse renders a comment. Deleted comments keep their place in
// the tree but their body is withheld.
type CommentResponse struct {
	ID                string       `json:"id"`
	ContractID        string       `json:"contract_id"`
	AuthorID          string       `json:"author_id"`
	Body              string       `json:"body"`
	SelectionText     string       `json:"selection_text"`
	SelectionPosition *models.Span `json:"selection_position"`
	ParentID          *string      `json:"parent_id"`
	IsDeleted         bool         `json:"is_deleted"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

type ThreadResponse struct {
	CommentResponse
	Replies []ThreadResponse `json:"replies"`
}

type ThreadListResponse struct {
	ContractID string           `json:"contract_id"`
	Threads    []ThreadResponse `json:"threads"`
	Total      int              `json:"total"`
}

type CommentListResponse struct {
	ContractID string            `json:"contract_id"`
	Comments   []CommentResponse `json:"comments"`
	Total      int               `json:"total"`
}

type IssueResponse struct {
	ID           string       `json:"id"`
	ContractID   string       `json:"contract_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       string       `json:"status"`
	Priority     string       `json:"priority"`
	IssueType    string       `json:"issue_type"`
	CreatedBy    string       `json:"created_by"`
	AssigneeID   *string      `json:"assignee_id"`
	DueDate      *domain.Date `json:"due_date"`
	Tags         []string     `json:"tags"`
	RelatedText  string       `json:"related_text"`
	TextPosition *models.Span `json:"text_position"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	ResolvedAt   *time.Time   `json:"resolved_at"`
	ClosedAt     *time.Time   `json:"closed_at"`
}

type IssueListResponse struct {
	Issues []IssueResponse `json:"issues"`
	Total  int             `json:"total"`
}

type HistoryEntryResponse struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	Changes   models.Changes `json:"changes"`
	ChangedBy string         `json:"changed_by"`
	ChangedAt time.Time      `json:"changed_at"`
}

type HistoryResponse struct {
	IssueID string                 `json:"issue_id"`
	Entries []HistoryEntryResponse `json:"entries"`
}

type OverviewResponse struct {
	ContractID   string           `json:"contract_id"`
	Threads      []ThreadResponse `json:"threads"`
	CommentCount int              `json:"comment_count"`
	Issues       []IssueResponse  `json:"issues"`
	IssueCounts  map[string]int   `json:"issue_counts"`
}

func toCommentResponse(c *models.Comment) CommentResponse {
	resp := CommentResponse{
		ID:                c.ID.String(),
		ContractID:        c.ContractID.String(),
		AuthorID:          c.AuthorID.String(),
		Body:              c.Body,
		SelectionText:     c.SelectionText,
		SelectionPosition: c.Selection,
		IsDeleted:         c.IsDeleted,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if c.IsDeleted {
		resp.Body = ""
		resp.SelectionText = ""
	}
	if c.ParentID != nil {
		pid := c.ParentID.String()
		resp.ParentID = &pid
	}
	return resp
}

func toThreadResponses(threads []*models.Thread) []ThreadResponse {
	out := make([]ThreadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, ThreadResponse{
			CommentResponse: toCommentResponse(t.Comment),
			Replies:         toThreadResponses(t.Replies),
		})
	}
	return out
}

func toIssueResponse(i *models.Issue) IssueResponse {
	resp := IssueResponse{
		ID:           i.ID.String(),
		ContractID:   i.ContractID.String(),
		Title:        i.Title,
		Description:  i.Description,
		Status:       string(i.Status),
		Priority:     string(i.Priority),
		IssueType:    string(i.Type),
		CreatedBy:    i.CreatedBy.String(),
		DueDate:      i.DueDate,
		Tags:         append([]string{}, i.Tags...),
		RelatedText:  i.RelatedText,
		TextPosition: i.TextPosition,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
		ResolvedAt:   i.ResolvedAt,
		ClosedAt:     i.ClosedAt,
	}
	if i.AssigneeID != nil {
		a := i.AssigneeID.String()
		resp.AssigneeID = &a
	}
	return resp
}

func toIssueResponses(issues []*models.Issue) []IssueResponse {
	out := make([]IssueResponse, 0, len(issues))
	for _, i := range issues {
		out = append(out, toIssueResponse(i))
	}
	return out
}

func toHistoryResponse(id domain.IssueID, entries []*models.HistoryEntry) HistoryResponse {
	resp := HistoryResponse{IssueID: id.String(), Entries: make([]HistoryEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, HistoryEntryResponse{
			ID:        e.ID,
			Action:    string(e.Action),
			Changes:   e.Changes,
			ChangedBy: e.ChangedBy.String(),
			ChangedAt: e.ChangedAt,
		})
	}
	return resp
}

func toOverviewResponse(o *models.Overview) OverviewResponse {
	counts := make(map[string]int, len(o.IssueCounts))
	for status, n := range o.IssueCounts {
		counts[string(status)] = n
	}
	return OverviewResponse{
		ContractID:   o.ContractID.String(),
		Threads:      toThreadResponses(o.Threads),
		CommentCount: o.CommentCount,
		Issues:       toIssueResponses(o.Issues),
		IssueCounts:  counts,
	}
}
