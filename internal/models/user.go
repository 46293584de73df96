package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// User represents a user account in the system.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // Never expose this to the client
	ExternalGameID *string   `json:"externalGameId,omitempty"`
	PublicID       uuid.UUID `json:"publicId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Subject is the token subject identifying this user.
func (u User) Subject() string {
	return strconv.FormatInt(u.ID, 10)
}

// Public returns the fields safe to hand to a client.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		PublicID:       u.PublicID,
		ExternalGameID: u.ExternalGameID,
	}
}

// PublicUser is the client-facing view of a User.
type PublicUser struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PublicID       uuid.UUID `json:"publicId"`
	ExternalGameID *string   `json:"externalGameId,omitempty"`
}
