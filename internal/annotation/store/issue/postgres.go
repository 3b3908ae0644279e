package issue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"contractdesk/internal/annotation/models"
	"contractdesk/internal/platform/postgres"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/platform/tx"
)

const selectColumns = `
	id, contract_id, title, description, status, priority, issue_type,
	created_by, assignee_id, due_date, tags, related_text, text_start, text_end,
	created_at, updated_at, resolved_at, closed_at`

// PostgresStore persists issues and their history in PostgreSQL. Tags are a
// TEXT[] column so tag filters use ANY.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed issue store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, i *models.Issue) error {
	query := `
		INSERT INTO issues (
			id, contract_id, title, description, status, priority, issue_type,
			created_by, assignee_id, due_date, tags, related_text, text_start, text_end,
			created_at, updated_at, resolved_at, closed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	start, end := splitSpan(i.TextPosition)
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(i.ID), uuid.UUID(i.ContractID), i.Title, i.Description,
		string(i.Status), string(i.Priority), string(i.Type),
		uuid.UUID(i.CreatedBy), userValue(i.AssigneeID), dateValue(i.DueDate),
		pq.Array(tagsOrEmpty(i.Tags)), i.RelatedText, start, end,
		i.CreatedAt, i.UpdatedAt, timeValue(i.ResolvedAt), timeValue(i.ClosedAt),
	)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err, ""):
			return sentinel.ErrAlreadyUsed
		case postgres.IsForeignKeyViolation(err):
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

// Update rewrites every mutable column.
func (s *PostgresStore) Update(ctx context.Context, i *models.Issue) error {
	query := `
		UPDATE issues SET
			title = $2, description = $3, status = $4, priority = $5, issue_type = $6,
			assignee_id = $7, due_date = $8, tags = $9, related_text = $10,
			text_start = $11, text_end = $12,
			updated_at = $13, resolved_at = $14, closed_at = $15
		WHERE id = $1
	`
	start, end := splitSpan(i.TextPosition)
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(i.ID), i.Title, i.Description, string(i.Status), string(i.Priority), string(i.Type),
		userValue(i.AssigneeID), dateValue(i.DueDate), pq.Array(tagsOrEmpty(i.Tags)), i.RelatedText,
		start, end,
		i.UpdatedAt, timeValue(i.ResolvedAt), timeValue(i.ClosedAt),
	)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update issue rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.IssueID) (*models.Issue, error) {
	return s.findOne(ctx, `SELECT`+selectColumns+` FROM issues WHERE id = $1`, id)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.IssueID) (*models.Issue, error) {
	if _, ok := tx.From(ctx); !ok {
		return nil, errors.New("find issue for update: no transaction in context")
	}
	return s.findOne(ctx, `SELECT`+selectColumns+` FROM issues WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, id domain.IssueID) (*models.Issue, error) {
	i, err := scanIssue(tx.Executor(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find issue: %w", err)
	}
	return i, nil
}

// List returns the contract's matching issues, oldest first.
func (s *PostgresStore) List(ctx context.Context, contractID domain.ContractID, filter models.IssueFilter) ([]*models.Issue, error) {
	args := []any{uuid.UUID(contractID)}
	where := []string{"contract_id = $1"}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.Priority != "" {
		where = append(where, "priority = "+arg(string(filter.Priority)))
	}
	if filter.Type != "" {
		where = append(where, "issue_type = "+arg(string(filter.Type)))
	}
	if filter.AssigneeID != nil {
		where = append(where, "assignee_id = "+arg(uuid.UUID(*filter.AssigneeID)))
	}
	if filter.Tag != "" {
		where = append(where, arg(filter.Tag)+" = ANY(tags)")
	}
	query := `SELECT` + selectColumns + ` FROM issues WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at, id`

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Issue, 0)
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal history changes: %w", err)
	}
	query := `
		INSERT INTO issue_history (id, issue_id, action, changes, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Executor(ctx, s.db).ExecContext(ctx, query,
		entry.ID, uuid.UUID(entry.IssueID), string(entry.Action), changes, uuid.UUID(entry.ChangedBy), entry.ChangedAt,
	)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// ListHistory returns entries in append order.
func (s *PostgresStore) ListHistory(ctx context.Context, id domain.IssueID) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, issue_id, action, changes, changed_by, changed_at
		FROM issue_history
		WHERE issue_id = $1
		ORDER BY seq
	`
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, uuid.UUID(id))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]*models.HistoryEntry, 0)
	for rows.Next() {
		var (
			e                  models.HistoryEntry
			issueID, changedBy uuid.UUID
			action             string
			changes            []byte
		)
		if err := rows.Scan(&e.ID, &issueID, &action, &changes, &changedBy, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, fmt.Errorf("decode history changes: %w", err)
		}
		e.IssueID = domain.IssueID(issueID)
		e.ChangedBy = domain.UserID(changedBy)
		e.Action = models.HistoryAction(action)
		e.ChangedAt = e.ChangedAt.UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// DeleteByContract removes the contract's issues; history cascades.
func (s *PostgresStore) DeleteByContract(ctx context.Context, contractID domain.ContractID) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM issues WHERE contract_id = $1`, uuid.UUID(contractID))
	if err != nil {
		return fmt.Errorf("delete issues: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(row scanner) (*models.Issue, error) {
	var (
		i                         models.Issue
		id, contractID, createdBy uuid.UUID
		status, priority, kind    string
		assignee                  uuid.NullUUID
		due                       sql.NullTime
		tags                      []string
		start, end                sql.NullInt32
		resolvedAt, closedAt      sql.NullTime
	)
	err := row.Scan(
		&id, &contractID, &i.Title, &i.Description, &status, &priority, &kind,
		&createdBy, &assignee, &due, pq.Array(&tags), &i.RelatedText, &start, &end,
		&i.CreatedAt, &i.UpdatedAt, &resolvedAt, &closedAt,
	)
	if err != nil {
		return nil, err
	}
	i.ID = domain.IssueID(id)
	i.ContractID = domain.ContractID(contractID)
	i.Status = models.IssueStatus(status)
	i.Priority = models.Priority(priority)
	i.Type = models.IssueType(kind)
	i.CreatedBy = domain.UserID(createdBy)
	if assignee.Valid {
		a := domain.UserID(assignee.UUID)
		i.AssigneeID = &a
	}
	if due.Valid {
		d := domain.DateOf(due.Time.UTC())
		i.DueDate = &d
	}
	i.Tags = tagsOrEmpty(tags)
	if start.Valid && end.Valid {
		i.TextPosition = &models.Span{Start: int(start.Int32), End: int(end.Int32)}
	}
	i.CreatedAt = i.CreatedAt.UTC()
	i.UpdatedAt = i.UpdatedAt.UTC()
	i.ResolvedAt = timePtr(resolvedAt)
	i.ClosedAt = timePtr(closedAt)
	return &i, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func splitSpan(s *models.Span) (start, end sql.NullInt32) {
	if s == nil {
		return start, end
	}
	return sql.NullInt32{Int32: int32(s.Start), Valid: true}, sql.NullInt32{Int32: int32(s.End), Valid: true}
}

func userValue(id *domain.UserID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*id), Valid: true}
}

func dateValue(d *domain.Date) sql.NullTime {
	if d == nil || d.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time(), Valid: true}
}

func timeValue(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
