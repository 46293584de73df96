package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/isdelr/splinter-be/internal/auth"
	"github.com/isdelr/splinter-be/internal/models"
	"github.com/isdelr/splinter-be/internal/store"
)

// AuthServiceProvider defines the interface for account and session services.
type AuthServiceProvider interface {
	Register(ctx context.Context, in RegisterInput) (models.PublicUser, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	CurrentUser(ctx context.Context, subject string) (models.PublicUser, error)
	LinkGameAccount(ctx context.Context, subject, externalGameID string) (models.PublicUser, error)
	Logout(ctx context.Context, token string) error
}

// TokenIssuer is the part of auth.TokenService the service needs.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, time.Time, error)
	Revoke(ctx context.Context, token string) error
}

// RegisterInput is the data accepted at registration.
type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	ExternalGameID string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.PublicUser
}

// AuthService provides registration, login and session operations.
type AuthService struct {
	users    store.IdentityStore
	digest   auth.PasswordDigest
	tokens   TokenIssuer
	tokenTTL time.Duration
	now      func() time.Time

	// dummyDigest is verified when the email is unknown so lookups of
	// missing users cost the same as wrong passwords.
	dummyDigest string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users store.IdentityStore, digest auth.PasswordDigest, tokens TokenIssuer, tokenTTL time.Duration) (*AuthService, error) {
	switch {
	case users == nil:
		return nil, errors.New("identity store is required")
	case digest == nil:
		return nil, errors.New("password digest is required")
	case tokens == nil:
		return nil, errors.New("token issuer is required")
	case tokenTTL <= 0:
		return nil, fmt.Errorf("token ttl must be positive, got %s", tokenTTL)
	}

	dummy, err := digest.Hash(ulid.Make().String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy digest: %w", err)
	}

	return &AuthService{
		users:       users,
		digest:      digest,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
		now:         time.Now,
		dummyDigest: dummy,
	}, nil
}

// Register validates the input, hashes the password and creates the user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.PublicUser, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	gameID := strings.TrimSpace(in.ExternalGameID)

	verr := &ValidationError{}
	if username == "" {
		verr.add("username", "Username is required")
	}
	if !validEmail(email) {
		verr.add("email", "Please include a valid email")
	}
	validatePassword(verr, in.Password)
	if gameID != "" && !ValidRiotID(gameID) {
		verr.add("externalGameId", "Riot ID must look like gameName#tagLine")
	}
	if err := verr.orNil(); err != nil {
		return models.PublicUser{}, err
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return models.PublicUser{}, ErrDuplicateEmail
	case !errors.Is(err, store.ErrNotFound):
		return models.PublicUser{}, fmt.Errorf("%w: lookup email: %w", ErrStorage, err)
	}

	hash, err := s.digest.Hash(in.Password)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		PublicID:     uuid.New(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if gameID != "" {
		user.ExternalGameID = &gameID
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return models.PublicUser{}, ErrDuplicateEmail
		}
		return models.PublicUser{}, fmt.Errorf("%w: create user: %w", ErrStorage, err)
	}
	return created.Public(), nil
}

// Login verifies the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)

	verr := &ValidationError{}
	if !validEmail(email) {
		verr.add("email", "Please include a valid email")
	}
	if password == "" {
		verr.add("password", "Password is required")
	}
	if err := verr.orNil(); err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, fmt.Errorf("%w: lookup email: %w", ErrStorage, err)
		}
		s.digest.Verify(password, s.dummyDigest)
		return LoginResult{}, ErrInvalidCredentials
	}

	if !s.digest.Verify(password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Subject(), s.tokenTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to issue token: %w", err)
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		User:      user.Public(),
	}, nil
}

// CurrentUser resolves a validated token subject to its user.
func (s *AuthService) CurrentUser(ctx context.Context, subject string) (models.PublicUser, error) {
	user, err := s.userBySubject(ctx, subject)
	if err != nil {
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

// LinkGameAccount sets the user's Riot ID. An empty id removes the link.
func (s *AuthService) LinkGameAccount(ctx context.Context, subject, externalGameID string) (models.PublicUser, error) {
	gameID := strings.TrimSpace(externalGameID)
	if gameID != "" && !ValidRiotID(gameID) {
		return models.PublicUser{}, &ValidationError{Errors: []FieldError{
			{Field: "riotId", Msg: "Riot ID must look like gameName#tagLine"},
		}}
	}

	user, err := s.userBySubject(ctx, subject)
	if err != nil {
		return models.PublicUser{}, err
	}

	var link *string
	if gameID != "" {
		link = &gameID
	}
	updated, err := s.users.UpdateExternalGameID(ctx, user.ID, link, s.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.PublicUser{}, ErrUserNotFound
		}
		return models.PublicUser{}, fmt.Errorf("%w: update user: %w", ErrStorage, err)
	}
	return updated.Public(), nil
}

// Logout revokes the presented token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

func (s *AuthService) userBySubject(ctx context.Context, subject string) (models.User, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return models.User{}, ErrUserNotFound
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%w: find user: %w", ErrStorage, err)
	}
	return user, nil
}
