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

// AddComment attaches a comment, or a reply when ParentID is set, to a
// contract. A reply's parent must belong to the same contract.
func (s *Service) AddComment(ctx context.Context, req *models.AddCommentRequest) (*models.Comment, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}

	now := requestcontext.Now(ctx)
	comment := &models.Comment{
		ID:            domain.CommentID(uuid.New()),
		ContractID:    req.ContractID,
		AuthorID:      requestcontext.UserID(ctx),
		Body:          req.Body,
		SelectionText: req.SelectionText,
		Selection:     req.Selection,
		ParentID:      req.ParentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		contract, err := s.contract(ctx, req.ContractID)
		if err != nil {
			return err
		}
		if comment.Selection != nil {
			if err := comment.Selection.Within("selection_position", contract.DocumentContent); err != nil {
				return err
			}
		}
		if comment.ParentID != nil {
			parent, err := s.findComment(ctx, *comment.ParentID, "parent comment not found")
			if err != nil {
				return err
			}
			if parent.ContractID != comment.ContractID {
				return dErrors.New(dErrors.CodeValidation, "parent comment belongs to a different contract")
			}
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "contract or parent comment not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create comment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "comment added",
		"request_id", requestcontext.RequestID(ctx),
		"comment_id", comment.ID,
		"contract_id", comment.ContractID,
		"user_id", comment.AuthorID,
	)
	if s.metrics != nil {
		s.metrics.IncrementCommentAdded()
	}
	return comment, nil
}

// EditComment replaces the body of a live comment.
func (s *Service) EditComment(ctx context.Context, id domain.CommentID, req *models.EditCommentRequest) (*models.Comment, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}

	var comment *models.Comment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.lockComment(ctx, id)
		if err != nil {
			return err
		}
		if err := c.CanEdit(); err != nil {
			return err
		}
		c.Body = req.Body
		c.UpdatedAt = requestcontext.NowAfter(ctx, c.UpdatedAt)
		if err := s.saveComment(ctx, c, errCommentNotFound()); err != nil {
			return err
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment soft-deletes a comment. Replies stay attached and visible.
func (s *Service) DeleteComment(ctx context.Context, id domain.CommentID) (*models.Comment, error) {
	var comment *models.Comment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.lockComment(ctx, id)
		if err != nil {
			return err
		}
		if err := c.SoftDelete(requestcontext.NowAfter(ctx, c.UpdatedAt)); err != nil {
			return err
		}
		if err := s.saveComment(ctx, c, errCommentDeleted()); err != nil {
			return err
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "comment deleted",
		"request_id", requestcontext.RequestID(ctx),
		"comment_id", id,
		"user_id", requestcontext.UserID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementCommentDeleted()
	}
	return comment, nil
}

// ListComments returns the contract's comments oldest first, deleted ones
// included so reply chains stay intact.
func (s *Service) ListComments(ctx context.Context, contractID domain.ContractID) ([]*models.Comment, error) {
	if _, err := s.contract(ctx, contractID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByContract(ctx, contractID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list comments")
	}
	return comments, nil
}

// Threads returns the contract's comments grouped into reply trees.
func (s *Service) Threads(ctx context.Context, contractID domain.ContractID) ([]*models.Thread, error) {
	comments, err := s.ListComments(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return models.BuildThreads(comments), nil
}

func (s *Service) findComment(ctx context.Context, id domain.CommentID, notFound string) (*models.Comment, error) {
	c, err := s.comments.FindByID(ctx, id)
	return translateCommentFind(c, err, notFound)
}

// lockComment loads the comment for a write, holding its row until commit.
func (s *Service) lockComment(ctx context.Context, id domain.CommentID) (*models.Comment, error) {
	c, err := s.comments.FindByIDForUpdate(ctx, id)
	return translateCommentFind(c, err, "comment not found")
}

func translateCommentFind(c *models.Comment, err error, notFound string) (*models.Comment, error) {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, notFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load comment")
	}
	return c, nil
}

// saveComment writes c. onDeleted is returned when the stored comment turned
// out to be soft-deleted already.
func (s *Service) saveComment(ctx context.Context, c *models.Comment, onDeleted error) error {
	err := s.comments.Update(ctx, c)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return errCommentNotFound()
	case errors.Is(err, sentinel.ErrInvalidState):
		return onDeleted
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update comment")
}

func errCommentNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "comment not found")
}

func errCommentDeleted() error {
	return dErrors.New(dErrors.CodeConflict, "comment already deleted")
}
