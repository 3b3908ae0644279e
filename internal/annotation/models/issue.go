package models

import (
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"

	"contractdesk/pkg/domain"
	pstrings "contractdesk/pkg/platform/strings"
)

type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
	IssueStatusReopened   IssueStatus = "reopened"
)

func (s IssueStatus) IsValid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed, IssueStatusReopened:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type IssueType string

const (
	IssueTypeBug         IssueType = "bug"
	IssueTypeFeature     IssueType = "feature"
	IssueTypeImprovement IssueType = "improvement"
	IssueTypeQuestion    IssueType = "question"
	IssueTypeTask        IssueType = "task"
)

func (t IssueType) IsValid() bool {
	switch t {
	case IssueTypeBug, IssueTypeFeature, IssueTypeImprovement, IssueTypeQuestion, IssueTypeTask:
		return true
	}
	return false
}

// Issue is a tracked work item on a contract. Status moves freely; only the
// resolved and closed timestamps react to it.
type Issue struct {
	ID           domain.IssueID
	ContractID   domain.ContractID
	Title        string
	Description  string
	Status       IssueStatus
	Priority     Priority
	Type         IssueType
	CreatedBy    domain.UserID
	AssigneeID   *domain.UserID
	DueDate      *domain.Date
	Tags         []string
	RelatedText  string
	TextPosition *Span
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time
}

func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	cp := *i
	cp.Tags = slices.Clone(i.Tags)
	if i.AssigneeID != nil {
		a := *i.AssigneeID
		cp.AssigneeID = &a
	}
	if i.DueDate != nil {
		d := *i.DueDate
		cp.DueDate = &d
	}
	if i.TextPosition != nil {
		p := *i.TextPosition
		cp.TextPosition = &p
	}
	if i.ResolvedAt != nil {
		t := *i.ResolvedAt
		cp.ResolvedAt = &t
	}
	if i.ClosedAt != nil {
		t := *i.ClosedAt
		cp.ClosedAt = &t
	}
	return &cp
}

// StampStatus applies the timestamp side effects of entering the current
// status. Closing implies resolution, so it fills resolved_at when unset.
func (i *Issue) StampStatus(now time.Time) {
	switch i.Status {
	case IssueStatusResolved:
		if i.ResolvedAt == nil {
			i.ResolvedAt = &now
		}
	case IssueStatusClosed:
		if i.ResolvedAt == nil {
			i.ResolvedAt = &now
		}
		i.ClosedAt = &now
	case IssueStatusReopened:
		i.ResolvedAt = nil
		i.ClosedAt = nil
	}
}

// HasTag reports whether tag is in the issue's tag set.
func (i *Issue) HasTag(tag string) bool {
	return slices.Contains(i.Tags, tag)
}

// NormalizeTags trims, lowercases, dedupes and sorts tags, dropping empties.
func NormalizeTags(tags []string) []string {
	return pstrings.TagSet(tags)
}

// HistoryAction names the kind of mutation a history entry records.
type HistoryAction string

const (
	HistoryActionCreate HistoryAction = "create"
	HistoryActionUpdate HistoryAction = "update"
)

// FieldChange is one field's before and after value. Old is nil on create.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

type Changes map[string]FieldChange

// HistoryEntry is an immutable record of one issue mutation.
type HistoryEntry struct {
	ID        uuid.UUID
	IssueID   domain.IssueID
	Action    HistoryAction
	Changes   Changes
	ChangedBy domain.UserID
	ChangedAt time.Time
}

func NewHistoryEntry(issue *Issue, action HistoryAction, changes Changes, actor domain.UserID, now time.Time) *HistoryEntry {
	return &HistoryEntry{
		ID:        uuid.New(),
		IssueID:   issue.ID,
		Action:    action,
		Changes:   changes,
		ChangedBy: actor,
		ChangedAt: now,
	}
}

type trackedField struct {
	name string
	get  func(i *Issue) any
}

// trackedFields lists every field an update may change.
var trackedFields = []trackedField{
	{"title", func(i *Issue) any { return i.Title }},
	{"description", func(i *Issue) any { return i.Description }},
	{"status", func(i *Issue) any { return string(i.Status) }},
	{"priority", func(i *Issue) any { return string(i.Priority) }},
	{"issue_type", func(i *Issue) any { return string(i.Type) }},
	{"assignee_id", func(i *Issue) any { return userValue(i.AssigneeID) }},
	{"due_date", func(i *Issue) any { return dateValue(i.DueDate) }},
	{"tags", func(i *Issue) any { return append([]string{}, i.Tags...) }},
	{"related_text", func(i *Issue) any { return i.RelatedText }},
	{"text_position", func(i *Issue) any { return spanValue(i.TextPosition) }},
}

func userValue(id *domain.UserID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func dateValue(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func spanValue(s *Span) any {
	if s == nil {
		return nil
	}
	return *s
}

// Diff returns the tracked fields that differ between before and after.
func Diff(before, after *Issue) Changes {
	changes := Changes{}
	for _, f := range trackedFields {
		old, updated := f.get(before), f.get(after)
		if !reflect.DeepEqual(old, updated) {
			changes[f.name] = FieldChange{Old: old, New: updated}
		}
	}
	return changes
}

// Snapshot records the full initial field set of a new issue.
func Snapshot(i *Issue) Changes {
	changes := Changes{}
	for _, f := range trackedFields {
		changes[f.name] = FieldChange{New: f.get(i)}
	}
	return changes
}
