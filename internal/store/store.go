// Package store persists user identities.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/isdelr/splinter-be/internal/models"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the unique email index rejects an insert.
	ErrDuplicateEmail = errors.New("email already in use")
)

// IdentityStore is the create/find surface the auth service needs.
// Emails are expected to be normalized by the caller.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
	UpdateExternalGameID(ctx context.Context, id int64, externalGameID *string, updatedAt time.Time) (models.User, error)
}
