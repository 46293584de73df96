package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/isdelr/splinter-be/internal/models"
)

// emailConstraint is the unique constraint on users.email in the migrations.
const emailConstraint = "users_email_key"

// pgxPool is the subset of *pgxpool.Pool used here; pgxmock satisfies it in tests.
type pgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements IdentityStore using PostgreSQL.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgresStore creates a new PostgreSQL identity store.
func NewPostgresStore(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// FindByEmail retrieves a single user by email, including the password hash.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanPostgresUser(row)
}

// FindByID retrieves a single user by id.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanPostgresUser(row)
}

// Create inserts the user and returns it with its assigned id.
func (s *PostgresStore) Create(ctx context.Context, user models.User) (models.User, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, external_game_id, public_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		user.Username, user.Email, user.PasswordHash, user.ExternalGameID, user.PublicID.String(),
		user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == emailConstraint {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// UpdateExternalGameID sets or clears the linked game account.
func (s *PostgresStore) UpdateExternalGameID(ctx context.Context, id int64, externalGameID *string, updatedAt time.Time) (models.User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET external_game_id = $1, updated_at = $2 WHERE id = $3
		RETURNING `+userColumns,
		externalGameID, updatedAt, id,
	)
	return scanPostgresUser(row)
}

func scanPostgresUser(row pgx.Row) (models.User, error) {
	var user models.User
	var publicID string
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.ExternalGameID, &publicID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	if err := user.PublicID.UnmarshalText([]byte(publicID)); err != nil {
		return models.User{}, fmt.Errorf("parse public id %q: %w", publicID, err)
	}
	return user, nil
}
