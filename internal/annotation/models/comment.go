// Package models holds comments, issues and issue history attached to a
// contract's text.
package models

import (
	"time"
	"unicode/utf8"

	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
)

// Span is a character-offset range into a contract's document_content.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Within checks 0 <= start <= end <= rune length of document.
func (s Span) Within(field, document string) error {
	if s.Start < 0 || s.Start > s.End {
		return dErrors.New(dErrors.CodeValidation, field+" must satisfy 0 <= start <= end")
	}
	if s.End > utf8.RuneCountInString(document) {
		return dErrors.New(dErrors.CodeValidation, field+" end is past the end of the document")
	}
	return nil
}

// Comment is one node of a contract's discussion. Replies point at their
// parent by id; deleted comments stay in place so replies keep their anchor.
type Comment struct {
	ID            domain.CommentID
	ContractID    domain.ContractID
	AuthorID      domain.UserID
	Body          string
	SelectionText string
	Selection     *Span
	ParentID      *domain.CommentID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	IsDeleted     bool
}

func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Selection != nil {
		sel := *c.Selection
		cp.Selection = &sel
	}
	if c.ParentID != nil {
		pid := *c.ParentID
		cp.ParentID = &pid
	}
	return &cp
}

func (c *Comment) CanEdit() error {
	if c.IsDeleted {
		return dErrors.New(dErrors.CodeNotFound, "comment not found")
	}
	return nil
}

// SoftDelete flags the comment. Deleting twice is a conflict.
func (c *Comment) SoftDelete(now time.Time) error {
	if c.IsDeleted {
		return dErrors.New(dErrors.CodeConflict, "comment already deleted")
	}
	c.IsDeleted = true
	c.UpdatedAt = now
	return nil
}

// Thread is a comment with its replies.
type Thread struct {
	Comment *Comment
	Replies []*Thread
}

// BuildThreads groups a flat, creation-ordered list into trees in one pass.
// Order is preserved among siblings. A comment whose parent is not in the
// list is treated as a root.
func BuildThreads(comments []*Comment) []*Thread {
	nodes := make(map[domain.CommentID]*Thread, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &Thread{Comment: c}
	}
	roots := make([]*Thread, 0)
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
