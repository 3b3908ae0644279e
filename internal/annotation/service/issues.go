package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"contractdesk/internal/annotation/models"
	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/requestcontext"
)

// CreateIssue opens an issue on a contract and records its initial fields
// as a create history entry.
func (s *Service) CreateIssue(ctx context.Context, contractID domain.ContractID, req *models.CreateIssueRequest) (*models.Issue, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.UserID(ctx)
	issue := &models.Issue{
		ID:           domain.IssueID(uuid.New()),
		ContractID:   contractID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       models.IssueStatusOpen,
		Priority:     req.Priority,
		Type:         req.Type,
		CreatedBy:    actor,
		AssigneeID:   req.AssigneeID,
		DueDate:      req.DueDate,
		Tags:         req.Tags,
		RelatedText:  req.RelatedText,
		TextPosition: req.TextPosition,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		contract, err := s.contract(ctx, contractID)
		if err != nil {
			return err
		}
		if issue.TextPosition != nil {
			if err := issue.TextPosition.Within("text_position", contract.DocumentContent); err != nil {
				return err
			}
		}
		if err := s.issues.Create(ctx, issue); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "contract not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create issue")
		}
		entry := models.NewHistoryEntry(issue, models.HistoryActionCreate, models.Snapshot(issue), actor, now)
		return s.appendHistory(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "issue created",
		"request_id", requestcontext.RequestID(ctx),
		"issue_id", issue.ID,
		"contract_id", contractID,
		"priority", issue.Priority,
		"user_id", actor,
	)
	if s.metrics != nil {
		s.metrics.IncrementIssueCreated(string(issue.Priority))
	}
	return issue, nil
}

// UpdateIssue applies the present fields and records the diff as one update
// history entry. Any status may follow any other; entering resolved, closed
// or reopened adjusts resolved_at and closed_at.
func (s *Service) UpdateIssue(ctx context.Context, id domain.IssueID, req *models.UpdateIssueRequest) (*models.Issue, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}
	if req.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}

	var (
		updated       *models.Issue
		statusChanged bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		issue, err := s.issues.FindByIDForUpdate(ctx, id)
		if err != nil {
			return translateIssueFind(err)
		}
		if req.TextPosition.Value != nil {
			contract, err := s.contract(ctx, issue.ContractID)
			if err != nil {
				return err
			}
			if err := req.TextPosition.Value.Within("text_position", contract.DocumentContent); err != nil {
				return err
			}
		}

		before := issue.Clone()
		req.Apply(issue)
		changes := models.Diff(before, issue)
		if len(changes) == 0 {
			return dErrors.New(dErrors.CodeValidation, "no changes")
		}
		now := requestcontext.NowAfter(ctx, before.UpdatedAt)
		if issue.Status != before.Status {
			issue.StampStatus(now)
			statusChanged = true
		}
		issue.UpdatedAt = now

		if err := s.issues.Update(ctx, issue); err != nil {
			return translateIssueFind(err)
		}
		actor := requestcontext.UserID(ctx)
		if err := s.appendHistory(ctx, models.NewHistoryEntry(issue, models.HistoryActionUpdate, changes, actor, now)); err != nil {
			return err
		}
		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "issue updated",
		"request_id", requestcontext.RequestID(ctx),
		"issue_id", id,
		"status", updated.Status,
		"user_id", requestcontext.UserID(ctx),
	)
	if s.metrics != nil && statusChanged {
		s.metrics.IncrementIssueStatus(string(updated.Status))
	}
	return updated, nil
}

func (s *Service) GetIssue(ctx context.Context, id domain.IssueID) (*models.Issue, error) {
	issue, err := s.issues.FindByID(ctx, id)
	if err != nil {
		return nil, translateIssueFind(err)
	}
	return issue, nil
}

// ListIssues returns the contract's issues matching filter, oldest first.
func (s *Service) ListIssues(ctx context.Context, contractID domain.ContractID, filter models.IssueFilter) ([]*models.Issue, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.contract(ctx, contractID); err != nil {
		return nil, err
	}
	issues, err := s.issues.List(ctx, contractID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issues")
	}
	return issues, nil
}

// History returns the issue's entries oldest first.
func (s *Service) History(ctx context.Context, id domain.IssueID) ([]*models.HistoryEntry, error) {
	if _, err := s.GetIssue(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.issues.ListHistory(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issue history")
	}
	return entries, nil
}

func (s *Service) appendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	if err := s.issues.AppendHistory(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append issue history")
	}
	return nil
}

func translateIssueFind(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "issue not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issue")
}
