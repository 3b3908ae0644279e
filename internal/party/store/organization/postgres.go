package organization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"contractdesk/internal/party/models"
	"contractdesk/internal/platform/postgres"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/platform/tx"
)

const taxIDConstraint = "organizations_tax_id_key"

const selectColumns = `
	id, legal_name, trade_name, tax_id, state_registration,
	street, number, complement, district, city, state, postal_code,
	phone, email, status, created_at, updated_at`

// PostgresStore persists organizations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed organization store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (
			id, legal_name, trade_name, tax_id, state_registration,
			street, number, complement, district, city, state, postal_code,
			phone, email, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	a := org.Address
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(org.ID), org.LegalName, org.TradeName, org.TaxID, org.StateRegistration,
		a.Street, a.Number, a.Complement, a.District, a.City, a.State, a.PostalCode,
		org.Phone, org.Email, string(org.Status), org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, taxIDConstraint) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, org *models.Organization) error {
	query := `
		UPDATE organizations SET
			legal_name = $2, trade_name = $3, tax_id = $4, state_registration = $5,
			street = $6, number = $7, complement = $8, district = $9, city = $10, state = $11, postal_code = $12,
			phone = $13, email = $14, status = $15, updated_at = $16
		WHERE id = $1
	`
	a := org.Address
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(org.ID), org.LegalName, org.TradeName, org.TaxID, org.StateRegistration,
		a.Street, a.Number, a.Complement, a.District, a.City, a.State, a.PostalCode,
		org.Phone, org.Email, string(org.Status), org.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, taxIDConstraint) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update organization: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update organization rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.OrganizationID) (*models.Organization, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+selectColumns+` FROM organizations WHERE id = $1`, uuid.UUID(id))
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find organization by id: %w", err)
	}
	return org, nil
}

func (s *PostgresStore) FindByTaxID(ctx context.Context, taxID string) (*models.Organization, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+selectColumns+` FROM organizations WHERE tax_id = $1`, taxID)
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find organization by tax id: %w", err)
	}
	return org, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Organization, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, "%"+escapeLike(filter.Name)+"%")
		where = append(where, fmt.Sprintf("(legal_name ILIKE $%d OR trade_name ILIKE $%d)", len(args), len(args)))
	}
	query := `SELECT` + selectColumns + ` FROM organizations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY legal_name, created_at`

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Organization, 0)
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		out = append(out, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row scanner) (*models.Organization, error) {
	var (
		org    models.Organization
		id     uuid.UUID
		status string
	)
	a := &org.Address
	err := row.Scan(
		&id, &org.LegalName, &org.TradeName, &org.TaxID, &org.StateRegistration,
		&a.Street, &a.Number, &a.Complement, &a.District, &a.City, &a.State, &a.PostalCode,
		&org.Phone, &org.Email, &status, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	org.ID = domain.OrganizationID(id)
	org.Status = models.Status(status)
	org.CreatedAt = org.CreatedAt.UTC()
	org.UpdatedAt = org.UpdatedAt.UTC()
	return &org, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
