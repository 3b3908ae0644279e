package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"contractdesk/internal/contract/models"
	partymodels "contractdesk/internal/party/models"
	"contractdesk/internal/platform/postgres"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/platform/tx"
)

const contractNumberConstraint = "contracts_contract_number_key"

const selectColumns = `
	id, contract_number, name, type, category, version, status,
	party_a_organization_id, party_a_individual_id, party_a_role,
	party_b_organization_id, party_b_individual_id, party_b_role,
	effective_date, expiration_date,
	renewal_terms, payment_terms, escalation_clauses, document_content,
	created_at, last_modified_at, last_modified_by`

// PostgresStore persists contracts in PostgreSQL. A party binding is stored
// in the column matching its kind so foreign keys cover both variants.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed contract store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Contract) error {
	query := `
		INSERT INTO contracts (
			id, contract_number, name, type, category, version, status,
			party_a_organization_id, party_a_individual_id, party_a_role,
			party_b_organization_id, party_b_individual_id, party_b_role,
			effective_date, expiration_date,
			renewal_terms, payment_terms, escalation_clauses, document_content,
			created_at, last_modified_at, last_modified_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	aOrg, aInd := splitRef(c.PartyA)
	bOrg, bInd := splitRef(c.PartyB)
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID), c.ContractNumber, c.Name, c.Type, c.Category, c.Version, string(c.Status),
		aOrg, aInd, c.PartyARole,
		bOrg, bInd, c.PartyBRole,
		c.EffectiveDate.Time(), c.ExpirationDate.Time(),
		c.RenewalTerms, c.PaymentTerms, c.EscalationClauses, c.DocumentContent,
		c.CreatedAt, c.LastModifiedAt, uuid.UUID(c.LastModifiedBy),
	)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err, contractNumberConstraint):
			return sentinel.ErrAlreadyUsed
		case postgres.IsForeignKeyViolation(err):
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert contract: %w", err)
	}
	return nil
}

// Update rewrites every mutable column. contract_number and created_at are
// never touched.
func (s *PostgresStore) Update(ctx context.Context, c *models.Contract) error {
	query := `
		UPDATE contracts SET
			name = $2, type = $3, category = $4, version = $5, status = $6,
			party_a_organization_id = $7, party_a_individual_id = $8, party_a_role = $9,
			party_b_organization_id = $10, party_b_individual_id = $11, party_b_role = $12,
			effective_date = $13, expiration_date = $14,
			renewal_terms = $15, payment_terms = $16, escalation_clauses = $17, document_content = $18,
			last_modified_at = $19, last_modified_by = $20
		WHERE id = $1
	`
	aOrg, aInd := splitRef(c.PartyA)
	bOrg, bInd := splitRef(c.PartyB)
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID), c.Name, c.Type, c.Category, c.Version, string(c.Status),
		aOrg, aInd, c.PartyARole,
		bOrg, bInd, c.PartyBRole,
		c.EffectiveDate.Time(), c.ExpirationDate.Time(),
		c.RenewalTerms, c.PaymentTerms, c.EscalationClauses, c.DocumentContent,
		c.LastModifiedAt, uuid.UUID(c.LastModifiedBy),
	)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update contract: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contract rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ContractID) (*models.Contract, error) {
	return s.findOne(ctx, `SELECT`+selectColumns+` FROM contracts WHERE id = $1`, uuid.UUID(id))
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.ContractID) (*models.Contract, error) {
	if _, ok := tx.From(ctx); !ok {
		return nil, errors.New("find contract for update: no transaction in context")
	}
	return s.findOne(ctx, `SELECT`+selectColumns+` FROM contracts WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
}

func (s *PostgresStore) FindByNumber(ctx context.Context, number string) (*models.Contract, error) {
	return s.findOne(ctx, `SELECT`+selectColumns+` FROM contracts WHERE contract_number = $1`, number)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Contract, error) {
	c, err := scanContract(tx.Executor(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find contract: %w", err)
	}
	return c, nil
}

// List returns matching contracts, newest first.
func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Contract, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.Party != nil {
		col := "organization_id"
		if filter.Party.Type == partymodels.KindIndividual {
			col = "individual_id"
		}
		p := arg(filter.Party.ID)
		where = append(where, fmt.Sprintf("(party_a_%s = %s OR party_b_%s = %s)", col, p, col, p))
	}
	if !filter.From.IsZero() {
		where = append(where, "expiration_date >= "+arg(filter.From.Time()))
	}
	if !filter.To.IsZero() {
		where = append(where, "effective_date <= "+arg(filter.To.Time()))
	}
	query := `SELECT` + selectColumns + ` FROM contracts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, contract_number`

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}
	return out, nil
}

// Delete removes the contract; audit entries and annotations cascade.
func (s *PostgresStore) Delete(ctx context.Context, id domain.ContractID) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM contracts WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contract rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}
	query := `
		INSERT INTO contract_audit_entries (id, contract_id, occurred_at, actor_id, action, changes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Executor(ctx, s.db).ExecContext(ctx, query,
		entry.ID, uuid.UUID(entry.ContractID), entry.OccurredAt, uuid.UUID(entry.ActorID), string(entry.Action), changes,
	)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListAudit returns entries in append order.
func (s *PostgresStore) ListAudit(ctx context.Context, id domain.ContractID) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, contract_id, occurred_at, actor_id, action, changes
		FROM contract_audit_entries
		WHERE contract_id = $1
		ORDER BY seq
	`
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, uuid.UUID(id))
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AuditEntry, 0)
	for rows.Next() {
		var (
			e          models.AuditEntry
			contractID uuid.UUID
			actorID    uuid.UUID
			action     string
			changes    []byte
		)
		if err := rows.Scan(&e.ID, &contractID, &e.OccurredAt, &actorID, &action, &changes); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, fmt.Errorf("decode audit changes: %w", err)
		}
		e.ContractID = domain.ContractID(contractID)
		e.ActorID = domain.UserID(actorID)
		e.Action = models.AuditAction(action)
		e.OccurredAt = e.OccurredAt.UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContract(row scanner) (*models.Contract, error) {
	var (
		c                    models.Contract
		id, modifiedBy       uuid.UUID
		status               string
		aOrg, aInd           uuid.NullUUID
		bOrg, bInd           uuid.NullUUID
		effective, expiresAt time.Time
	)
	err := row.Scan(
		&id, &c.ContractNumber, &c.Name, &c.Type, &c.Category, &c.Version, &status,
		&aOrg, &aInd, &c.PartyARole,
		&bOrg, &bInd, &c.PartyBRole,
		&effective, &expiresAt,
		&c.RenewalTerms, &c.PaymentTerms, &c.EscalationClauses, &c.DocumentContent,
		&c.CreatedAt, &c.LastModifiedAt, &modifiedBy,
	)
	if err != nil {
		return nil, err
	}
	c.ID = domain.ContractID(id)
	c.Status = models.Status(status)
	c.PartyA = joinRef(aOrg, aInd)
	c.PartyB = joinRef(bOrg, bInd)
	c.EffectiveDate = domain.DateOf(effective.UTC())
	c.ExpirationDate = domain.DateOf(expiresAt.UTC())
	c.CreatedAt = c.CreatedAt.UTC()
	c.LastModifiedAt = c.LastModifiedAt.UTC()
	c.LastModifiedBy = domain.UserID(modifiedBy)
	return &c, nil
}

func splitRef(ref *partymodels.Ref) (org, ind uuid.NullUUID) {
	if ref == nil {
		return org, ind
	}
	if ref.Type == partymodels.KindIndividual {
		return org, uuid.NullUUID{UUID: ref.ID, Valid: true}
	}
	return uuid.NullUUID{UUID: ref.ID, Valid: true}, ind
}

func joinRef(org, ind uuid.NullUUID) *partymodels.Ref {
	switch {
	case org.Valid:
		r := partymodels.Ref{Type: partymodels.KindOrganization, ID: org.UUID}
		return &r
	case ind.Valid:
		r := partymodels.Ref{Type: partymodels.KindIndividual, ID: ind.UUID}
		return &r
	}
	return nil
}
