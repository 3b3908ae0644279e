package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/platform/validation"
)

// Optional tells an absent field apart from an explicit null.
type Optional[T any] struct {
	Present bool
	Value   *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// AddCommentRequest is the body of POST /comments.
type AddCommentRequest struct {
	ContractID    domain.ContractID `json:"contract_id"`
	ParentID      *domain.CommentID `json:"parent_id"`
	Body          string            `json:"body" validate:"required,max=10000"`
	SelectionText string            `json:"selection_text" validate:"max=10000"`
	Selection     *Span             `json:"selection_position"`
}

func (r *AddCommentRequest) Normalize() {
	r.Body = strings.TrimSpace(r.Body)
}

func (r *AddCommentRequest) Validate() error {
	if r.ContractID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "contract_id is required")
	}
	if r.ParentID != nil && r.ParentID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "parent_id cannot be nil")
	}
	return validation.Struct(r)
}

// EditCommentRequest is the body of PUT /comments/{id}.
type EditCommentRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

func (r *EditCommentRequest) Normalize() {
	r.Body = strings.TrimSpace(r.Body)
}

func (r *EditCommentRequest) Validate() error {
	return validation.Struct(r)
}

// CreateIssueRequest is the body of POST /contracts/{id}/issues. New issues
// always start open.
type CreateIssueRequest struct {
	Title        string         `json:"title" validate:"required,max=200"`
	Description  string         `json:"description" validate:"max=20000"`
	Priority     Priority       `json:"priority"`
	Type         IssueType      `json:"issue_type"`
	AssigneeID   *domain.UserID `json:"assignee_id"`
	DueDate      *domain.Date   `json:"due_date"`
	Tags         []string       `json:"tags" validate:"max=20,dive,max=50"`
	RelatedText  string         `json:"related_text" validate:"max=10000"`
	TextPosition *Span          `json:"text_position"`
}

// Normalize trims input and fills the medium priority and task type defaults.
func (r *CreateIssueRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Priority = Priority(strings.ToLower(strings.TrimSpace(string(r.Priority))))
	r.Type = IssueType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if r.Type == "" {
		r.Type = IssueTypeTask
	}
	r.Tags = NormalizeTags(r.Tags)
	if r.DueDate != nil && r.DueDate.IsZero() {
		r.DueDate = nil
	}
}

func (r *CreateIssueRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if !r.Priority.IsValid() {
		return invalidPriority()
	}
	if !r.Type.IsValid() {
		return invalidType()
	}
	return nil
}

// UpdateIssueRequest changes only the fields that are present. assignee_id,
// due_date and text_position accept null to clear them.
type UpdateIssueRequest struct {
	Title        *string                 `json:"title" validate:"omitempty,max=200"`
	Description  *string                 `json:"description" validate:"omitempty,max=20000"`
	Status       *IssueStatus            `json:"status"`
	Priority     *Priority               `json:"priority"`
	Type         *IssueType              `json:"issue_type"`
	AssigneeID   Optional[domain.UserID] `json:"assignee_id"`
	DueDate      Optional[domain.Date]   `json:"due_date"`
	Tags         *[]string               `json:"tags"`
	RelatedText  *string                 `json:"related_text" validate:"omitempty,max=10000"`
	TextPosition Optional[Span]          `json:"text_position"`
}

func (r *UpdateIssueRequest) Normalize() {
	if r.Title != nil {
		*r.Title = strings.TrimSpace(*r.Title)
	}
	if r.Status != nil {
		*r.Status = IssueStatus(strings.ToLower(strings.TrimSpace(string(*r.Status))))
	}
	if r.Priority != nil {
		*r.Priority = Priority(strings.ToLower(strings.TrimSpace(string(*r.Priority))))
	}
	if r.Type != nil {
		*r.Type = IssueType(strings.ToLower(strings.TrimSpace(string(*r.Type))))
	}
	if r.Tags != nil {
		tags := NormalizeTags(*r.Tags)
		r.Tags = &tags
	}
	if r.DueDate.Value != nil && r.DueDate.Value.IsZero() {
		r.DueDate.Value = nil
	}
}

func (r *UpdateIssueRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if r.Title != nil && *r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title cannot be empty")
	}
	if r.Status != nil && !r.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of: open, in_progress, resolved, closed, reopened")
	}
	if r.Priority != nil && !r.Priority.IsValid() {
		return invalidPriority()
	}
	if r.Type != nil && !r.Type.IsValid() {
		return invalidType()
	}
	if r.Tags != nil {
		if len(*r.Tags) > validation.MaxTags {
			return dErrors.New(dErrors.CodeValidation, "too many tags")
		}
		for _, t := range *r.Tags {
			if len(t) > validation.MaxTagLength {
				return dErrors.New(dErrors.CodeValidation, "tag is too long")
			}
		}
	}
	return nil
}

func (r *UpdateIssueRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil && r.Priority == nil &&
		r.Type == nil && !r.AssigneeID.Present && !r.DueDate.Present && r.Tags == nil &&
		r.RelatedText == nil && !r.TextPosition.Present
}

// Apply copies the present fields onto i. Timestamps are left to the caller.
func (r *UpdateIssueRequest) Apply(i *Issue) {
	if r.Title != nil {
		i.Title = *r.Title
	}
	if r.Description != nil {
		i.Description = *r.Description
	}
	if r.Status != nil {
		i.Status = *r.Status
	}
	if r.Priority != nil {
		i.Priority = *r.Priority
	}
	if r.Type != nil {
		i.Type = *r.Type
	}
	if r.AssigneeID.Present {
		i.AssigneeID = r.AssigneeID.Value
	}
	if r.DueDate.Present {
		i.DueDate = r.DueDate.Value
	}
	if r.Tags != nil {
		i.Tags = *r.Tags
	}
	if r.RelatedText != nil {
		i.RelatedText = *r.RelatedText
	}
	if r.TextPosition.Present {
		i.TextPosition = r.TextPosition.Value
	}
}

// IssueFilter narrows ListIssues. Zero values match everything.
type IssueFilter struct {
	Status     IssueStatus
	Priority   Priority
	Type       IssueType
	AssigneeID *domain.UserID
	Tag        string
}

func (f IssueFilter) Validate() error {
	if f.Status != "" && !f.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of: open, in_progress, resolved, closed, reopened")
	}
	if f.Priority != "" && !f.Priority.IsValid() {
		return invalidPriority()
	}
	if f.Type != "" && !f.Type.IsValid() {
		return invalidType()
	}
	return nil
}

func (f IssueFilter) Matches(i *Issue) bool {
	switch {
	case f.Status != "" && i.Status != f.Status:
		return false
	case f.Priority != "" && i.Priority != f.Priority:
		return false
	case f.Type != "" && i.Type != f.Type:
		return false
	case f.AssigneeID != nil && (i.AssigneeID == nil || *i.AssigneeID != *f.AssigneeID):
		return false
	case f.Tag != "" && !i.HasTag(f.Tag):
		return false
	}
	return true
}

func invalidPriority() error {
	return dErrors.New(dErrors.CodeValidation, "priority must be one of: low, medium, high, critical")
}

func invalidType() error {
	return dErrors.New(dErrors.CodeValidation, "issue_type must be one of: bug, feature, improvement, question, task")
}
