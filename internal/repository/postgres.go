// Package repository provides PostgreSQL-backed persistence for feature
// flags. Key uniqueness is enforced by the feature_flags_key_key constraint,
// so concurrent writers never observe duplicate keys.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// ErrDuplicateKey is returned (wrapped) when a write would give two flags the
// same key.
var ErrDuplicateKey = errors.New("duplicate flag key")

// Flag is the repository-level representation of a feature_flags row.
type Flag struct {
	ID                uuid.UUID
	Key               string
	Description       *string
	Enabled           bool
	RolloutPercentage *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PostgresRepository implements flag persistence backed by a pgxpool
// connection pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a [PostgresRepository] over pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const flagColumns = `id, key, description, enabled, rollout_percentage, created_at, updated_at`

// CreateFlag inserts a new flag row and returns the stored record. Returns
// ErrDuplicateKey (wrapped) if the key is already taken.
func (r *PostgresRepository) CreateFlag(ctx context.Context, flag Flag) (Flag, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO feature_flags (id, key, description, enabled, rollout_percentage)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+flagColumns,
		flag.ID,
		flag.Key,
		flag.Description,
		flag.Enabled,
		flag.RolloutPercentage,
	)

	created, err := scanFlag(row)
	if err != nil {
		return Flag{}, fmt.Errorf("create flag: %w", translateWriteError(err))
	}

	return created, nil
}

// UpdateFlag overwrites every mutable column of the flag identified by
// flag.ID in a single statement. Returns pgx.ErrNoRows (wrapped) if the flag
// does not exist and ErrDuplicateKey (wrapped) if the new key belongs to
// another flag.
func (r *PostgresRepository) UpdateFlag(ctx context.Context, flag Flag) (Flag, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE feature_flags
		SET key = $2,
		    description = $3,
		    enabled = $4,
		    rollout_percentage = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+flagColumns,
		flag.ID,
		flag.Key,
		flag.Description,
		flag.Enabled,
		flag.RolloutPercentage,
	)

	updated, err := scanFlag(row)
	if err != nil {
		return Flag{}, fmt.Errorf("update flag: %w", translateWriteError(err))
	}

	return updated, nil
}

// GetFlag retrieves a single flag by id. Returns pgx.ErrNoRows (wrapped) if
// not found.
func (r *PostgresRepository) GetFlag(ctx context.Context, id uuid.UUID) (Flag, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+flagColumns+` FROM feature_flags WHERE id = $1`, id)

	flag, err := scanFlag(row)
	if err != nil {
		return Flag{}, fmt.Errorf("get flag: %w", err)
	}

	return flag, nil
}

// ListFlags returns all flags in insertion order.
func (r *PostgresRepository) ListFlags(ctx context.Context) ([]Flag, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+flagColumns+` FROM feature_flags ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	flags := make([]Flag, 0)
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}

		flags = append(flags, flag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flags rows: %w", err)
	}

	return flags, nil
}

// DeleteFlag removes a flag by id. Returns pgx.ErrNoRows (wrapped) if the flag
// does not exist.
func (r *PostgresRepository) DeleteFlag(ctx context.Context, id uuid.UUID) error {
	commandTag, err := r.pool.Exec(ctx, `DELETE FROM feature_flags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete flag: %w", err)
	}
	if err := deleteFlagNoRows(commandTag); err != nil {
		return err
	}

	return nil
}

// Ping verifies that a connection to the database can be acquired and used.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func scanFlag(row pgx.Row) (Flag, error) {
	var flag Flag
	err := row.Scan(
		&flag.ID,
		&flag.Key,
		&flag.Description,
		&flag.Enabled,
		&flag.RolloutPercentage,
		&flag.CreatedAt,
		&flag.UpdatedAt,
	)
	return flag, err
}

func translateWriteError(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func deleteFlagNoRows(commandTag pgconn.CommandTag) error {
	if commandTag.RowsAffected() == 0 {
		return fmt.Errorf("delete flag: %w", pgx.ErrNoRows)
	}

	return nil
}
