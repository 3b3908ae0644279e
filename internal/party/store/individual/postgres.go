package individual

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"contractdesk/internal/party/models"
	"contractdesk/internal/platform/postgres"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/platform/sentinel"
	"contractdesk/pkg/platform/tx"
)

const nationalIDConstraint = "individuals_national_id_key"

const selectColumns = `
	id, full_name, national_id, birth_date,
	street, number, complement, district, city, state, postal_code,
	phone, email, status, created_at, updated_at`

// PostgresStore persists individuals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed individual store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, ind *models.Individual) error {
	query := `
		INSERT INTO individuals (
			id, full_name, national_id, birth_date,
			street, number, complement, district, city, state, postal_code,
			phone, email, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	a := ind.Address
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(ind.ID), ind.FullName, ind.NationalID, ind.BirthDate.Time(),
		a.Street, a.Number, a.Complement, a.District, a.City, a.State, a.PostalCode,
		ind.Phone, ind.Email, string(ind.Status), ind.CreatedAt, ind.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, nationalIDConstraint) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert individual: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, ind *models.Individual) error {
	query := `
		UPDATE individuals SET
			full_name = $2, national_id = $3, birth_date = $4,
			street = $5, number = $6, complement = $7, district = $8, city = $9, state = $10, postal_code = $11,
			phone = $12, email = $13, status = $14, updated_at = $15
		WHERE id = $1
	`
	a := ind.Address
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(ind.ID), ind.FullName, ind.NationalID, ind.BirthDate.Time(),
		a.Street, a.Number, a.Complement, a.District, a.City, a.State, a.PostalCode,
		ind.Phone, ind.Email, string(ind.Status), ind.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, nationalIDConstraint) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update individual: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update individual rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.IndividualID) (*models.Individual, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+selectColumns+` FROM individuals WHERE id = $1`, uuid.UUID(id))
	ind, err := scanIndividual(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find individual by id: %w", err)
	}
	return ind, nil
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (*models.Individual, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+selectColumns+` FROM individuals WHERE national_id = $1`, nationalID)
	ind, err := scanIndividual(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find individual by national id: %w", err)
	}
	return ind, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Individual, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, "%"+strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(filter.Name)+"%")
		where = append(where, fmt.Sprintf("full_name ILIKE $%d", len(args)))
	}
	query := `SELECT` + selectColumns + ` FROM individuals`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY full_name, created_at`

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list individuals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Individual, 0)
	for rows.Next() {
		ind, err := scanIndividual(rows)
		if err != nil {
			return nil, fmt.Errorf("scan individual: %w", err)
		}
		out = append(out, ind)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate individuals: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIndividual(row scanner) (*models.Individual, error) {
	var (
		ind       models.Individual
		id        uuid.UUID
		birthDate time.Time
		status    string
	)
	a := &ind.Address
	err := row.Scan(
		&id, &ind.FullName, &ind.NationalID, &birthDate,
		&a.Street, &a.Number, &a.Complement, &a.District, &a.City, &a.State, &a.PostalCode,
		&ind.Phone, &ind.Email, &status, &ind.CreatedAt, &ind.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ind.ID = domain.IndividualID(id)
	ind.BirthDate = domain.DateOf(birthDate)
	ind.Status = models.Status(status)
	ind.CreatedAt = ind.CreatedAt.UTC()
	ind.UpdatedAt = ind.UpdatedAt.UTC()
	return &ind, nil
}
