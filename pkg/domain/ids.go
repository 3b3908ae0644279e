// Package domain holds value types shared across modules: typed identifiers,
// civil dates and the authenticated principal.
package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "contractdesk/pkg/domain-errors"
)

// Typed identifiers. Each is a distinct type so a CommentID can never be passed
// where a ContractID is expected.
type (
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	IndividualID   uuid.UUID
	ContractID     uuid.UUID
	CommentID      uuid.UUID
	IssueID        uuid.UUID
)

const maxIDLength = 64

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" || strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := parseUUID(s, "organization id")
	return OrganizationID(u), err
}

func ParseIndividualID(s string) (IndividualID, error) {
	u, err := parseUUID(s, "individual id")
	return IndividualID(u), err
}

func ParseContractID(s string) (ContractID, error) {
	u, err := parseUUID(s, "contract id")
	return ContractID(u), err
}

func ParseCommentID(s string) (CommentID, error) {
	u, err := parseUUID(s, "comment id")
	return CommentID(u), err
}

func ParseIssueID(s string) (IssueID, error) {
	u, err := parseUUID(s, "issue id")
	return IssueID(u), err
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id UserID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id *UserID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id OrganizationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id OrganizationID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id *OrganizationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id IndividualID) String() string { return uuid.UUID(id).String() }
func (id IndividualID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id IndividualID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id *IndividualID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id ContractID) String() string { return uuid.UUID(id).String() }
func (id ContractID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ContractID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id *ContractID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id CommentID) String() string { return uuid.UUID(id).String() }
func (id CommentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CommentID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id *CommentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id IssueID) String() string { return uuid.UUID(id).String() }
func (id IssueID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id IssueID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id *IssueID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
