package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/isdelr/splinter-be/internal/models"
)

const userColumns = "id, username, email, password_hash, external_game_id, public_id, created_at, updated_at"

// SQLiteStore implements IdentityStore on a database/sql SQLite handle.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// FindByEmail retrieves a single user by email, including the password hash.
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanSQLiteUser(row)
}

// FindByID retrieves a single user by id.
func (s *SQLiteStore) FindByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanSQLiteUser(row)
}

// Create inserts the user and returns it with its assigned id.
func (s *SQLiteStore) Create(ctx context.Context, user models.User) (models.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username, email, password_hash, external_game_id, public_id, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.ExternalGameID, user.PublicID.String(),
		user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	)
	if err != nil {
		if isSQLiteUniqueEmail(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("read inserted user id: %w", err)
	}
	user.ID = id
	return user, nil
}

// UpdateExternalGameID sets or clears the linked game account.
func (s *SQLiteStore) UpdateExternalGameID(ctx context.Context, id int64, externalGameID *string, updatedAt time.Time) (models.User, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET external_game_id = ?, updated_at = ? WHERE id = ?",
		externalGameID, updatedAt.UTC(), id,
	)
	if err != nil {
		return models.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	if n == 0 {
		return models.User{}, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func scanSQLiteUser(row *sql.Row) (models.User, error) {
	var user models.User
	var publicID string
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.ExternalGameID, &publicID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	if err := user.PublicID.UnmarshalText([]byte(publicID)); err != nil {
		return models.User{}, fmt.Errorf("parse public id %q: %w", publicID, err)
	}
	return user, nil
}

func isSQLiteUniqueEmail(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(sqliteErr.Error(), "users.email")
}
