package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"contractdesk/internal/annotation/models"
	"contractdesk/internal/platform/postgres"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/platform/tx"
)

const selectColumns = `
	id, contract_id, author_id, body, selection_text, selection_start, selection_end,
	parent_id, is_deleted, created_at, updated_at`

// PostgresStore persists comments in PostgreSQL. The parent link is a
// self-referencing foreign key; seq orders comments created in the same
// instant.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed comment store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (
			id, contract_id, author_id, body, selection_text, selection_start, selection_end,
			parent_id, is_deleted, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	start, end := splitSpan(c.Selection)
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.ContractID), uuid.UUID(c.AuthorID), c.Body, c.SelectionText, start, end,
		parentValue(c.ParentID), c.IsDeleted, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err, ""):
			return sentinel.ErrAlreadyUsed
		case postgres.IsForeignKeyViolation(err):
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// Update rewrites the body, deletion flag and updated_at of a live comment.
// A comment that is already soft-deleted is left untouched and reported as
// sentinel.ErrInvalidState.
func (s *PostgresStore) Update(ctx context.Context, c *models.Comment) error {
	exec := tx.Executor(ctx, s.db)
	query := `UPDATE comments SET body = $2, is_deleted = $3, updated_at = $4 WHERE id = $1 AND NOT is_deleted`
	res, err := exec.ExecContext(ctx, query, uuid.UUID(c.ID), c.Body, c.IsDeleted, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update comment rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)`, uuid.UUID(c.ID)).Scan(&exists); err != nil {
		return fmt.Errorf("check comment: %w", err)
	}
	if exists {
		return sentinel.ErrInvalidState
	}
	return sentinel.ErrNotFound
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CommentID) (*models.Comment, error) {
	return s.findOne(ctx, `SELECT`+selectColumns+` FROM comments WHERE id = $1`, id)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.CommentID) (*models.Comment, error) {
	if _, ok := tx.From(ctx); !ok {
		return nil, errors.New("find comment for update: no transaction in context")
	}
	return s.findOne(ctx, `SELECT`+selectColumns+` FROM comments WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, id domain.CommentID) (*models.Comment, error) {
	c, err := scanComment(tx.Executor(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListByContract(ctx context.Context, contractID domain.ContractID) ([]*models.Comment, error) {
	query := `SELECT` + selectColumns + ` FROM comments WHERE contract_id = $1 ORDER BY created_at, seq`
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, uuid.UUID(contractID))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteByContract(ctx context.Context, contractID domain.ContractID) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM comments WHERE contract_id = $1`, uuid.UUID(contractID))
	if err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(row scanner) (*models.Comment, error) {
	var (
		c                      models.Comment
		id, contractID, author uuid.UUID
		start, end             sql.NullInt32
		parent                 uuid.NullUUID
	)
	err := row.Scan(
		&id, &contractID, &author, &c.Body, &c.SelectionText, &start, &end,
		&parent, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ID = domain.CommentID(id)
	c.ContractID = domain.ContractID(contractID)
	c.AuthorID = domain.UserID(author)
	if start.Valid && end.Valid {
		c.Selection = &models.Span{Start: int(start.Int32), End: int(end.Int32)}
	}
	if parent.Valid {
		pid := domain.CommentID(parent.UUID)
		c.ParentID = &pid
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func splitSpan(s *models.Span) (start, end sql.NullInt32) {
	if s == nil {
		return start, end
	}
	return sql.NullInt32{Int32: int32(s.Start), Valid: true}, sql.NullInt32{Int32: int32(s.End), Valid: true}
}

func parentValue(id *domain.CommentID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*id), Valid: true}
}
