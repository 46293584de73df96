package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Token validation failures. Every error returned by Validate wraps exactly
// one of these, except for denylist lookup failures.
var (
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenRevoked      = errors.New("token revoked")

	ErrRevocationDisabled = errors.New("token revocation is not configured")
)

// Claims defines the JWT claims structure. Subject carries the user id and
// ID the token id used for revocation.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 session tokens. It holds no state
// besides the signing secret, the clock and an optional denylist.
type TokenService struct {
	secret   []byte
	now      func() time.Time
	denylist Denylist
	parser   *jwt.Parser
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now, so validation is deterministic under test.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithDenylist enables revocation checks.
func WithDenylist(d Denylist) TokenOption {
	return func(s *TokenService) { s.denylist = d }
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret []byte, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token signing secret must not be empty")
	}
	s := &TokenService{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return s, nil
}

// Issue creates a signed token for subject and returns it with the expiry
// it carries. exp is a whole second, rounded up so the token never expires
// before now+ttl.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject must not be empty")
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	now := s.now()
	expiresAt := ceilSecond(now.Add(ttl))
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ceilSecond rounds t up to the next whole second; NumericDate keeps seconds only.
func ceilSecond(t time.Time) time.Time {
	whole := t.Truncate(time.Second)
	if whole.Before(t) {
		whole = whole.Add(time.Second)
	}
	return whole
}

// Validate checks the token's shape, then its signature, then its claims.
// The signature is verified over the raw segments before anything inside
// them is trusted.
func (s *TokenService) Validate(ctx context.Context, tokenStr string) (*Claims, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, ErrTokenMalformed
	}

	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return nil, ErrTokenBadSignature
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, s.secret); err != nil {
		return nil, ErrTokenBadSignature
	}

	claims := &Claims{}
	_, err = s.parser.ParseWithClaims(tokenStr, claims, s.keyFunc)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrTokenBadSignature
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.Contains(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("checking token denylist: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// Revoke puts a valid token on the denylist until it would have expired anyway.
func (s *TokenService) Revoke(ctx context.Context, tokenStr string) error {
	if s.denylist == nil {
		return ErrRevocationDisabled
	}
	claims, err := s.Validate(ctx, tokenStr)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return fmt.Errorf("%w: missing token id", ErrTokenMalformed)
	}
	return s.denylist.Add(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return s.secret, nil
}
