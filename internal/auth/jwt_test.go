package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/isdelr/splinter-be/internal/auth"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testSecret = []byte("test-signing-secret")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newTokenService(t *testing.T, clock *fakeClock, opts ...auth.TokenOption) *auth.TokenService {
	t.Helper()
	opts = append([]auth.TokenOption{auth.WithClock(clock.Now)}, opts...)
	svc, err := auth.NewTokenService(testSecret, opts...)
	require.NoError(t, err)
	return svc
}

func replaceAt(s string, i int) string {
	b := []byte(s)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestNewTokenService_RejectsEmptySecret(t *testing.T) {
	_, err := auth.NewTokenService(nil)
	assert.Error(t, err)
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	clock := newClock()
	svc := newTokenService(t, clock)

	token, expiresAt, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)
	assert.True(t, clock.t.Add(time.Hour).Equal(expiresAt), "expires at %s", expiresAt)

	claims, err := svc.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, clock.t.Equal(claims.IssuedAt.Time), "issued at %s", claims.IssuedAt.Time)
	assert.True(t, clock.t.Add(time.Hour).Equal(claims.ExpiresAt.Time), "expires at %s", claims.ExpiresAt.Time)

	_, err = ulid.Parse(claims.ID)
	assert.NoError(t, err, "token id should be a ULID")
}

func TestTokenService_IssueRejectsBadInput(t *testing.T) {
	svc := newTokenService(t, newClock())

	_, _, err := svc.Issue("", time.Hour)
	assert.Error(t, err)

	_, _, err = svc.Issue("42", 0)
	assert.Error(t, err)
}

func TestTokenService_TokensAreUnique(t *testing.T) {
	svc := newTokenService(t, newClock())

	t1, _, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)
	t2, _, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := newClock()
	svc := newTokenService(t, clock)
	ttl := 30 * time.Minute
	issuedAt := clock.t

	token, _, err := svc.Issue("7", ttl)
	require.NoError(t, err)

	t.Run("valid just before expiry", func(t *testing.T) {
		clock.t = issuedAt.Add(ttl - time.Second)
		_, err := svc.Validate(context.Background(), token)
		assert.NoError(t, err)
	})

	t.Run("expired at expiry", func(t *testing.T) {
		clock.t = issuedAt.Add(ttl)
		_, err := svc.Validate(context.Background(), token)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("expired after ttl plus one second", func(t *testing.T) {
		clock.t = issuedAt.Add(ttl + time.Second)
		_, err := svc.Validate(context.Background(), token)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})
}

func TestTokenService_FractionalSecondIssue(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 500_000_000, time.UTC)

	tests := []struct {
		name    string
		ttl     time.Duration
		wantExp time.Time
	}{
		{name: "sub-second ttl", ttl: 300 * time.Millisecond, wantExp: issuedAt.Truncate(time.Second).Add(time.Second)},
		{name: "day ttl", ttl: 24 * time.Hour, wantExp: issuedAt.Truncate(time.Second).Add(24*time.Hour + time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: issuedAt}
			svc := newTokenService(t, clock)

			token, expiresAt, err := svc.Issue("1", tt.ttl)
			require.NoError(t, err)
			assert.True(t, tt.wantExp.Equal(expiresAt), "expires at %s", expiresAt)

			claims, err := svc.Validate(context.Background(), token)
			require.NoError(t, err, "valid at issue time")
			assert.True(t, expiresAt.Equal(claims.ExpiresAt.Time), "signed exp %s", claims.ExpiresAt.Time)

			clock.t = issuedAt.Add(tt.ttl - 200*time.Millisecond)
			_, err = svc.Validate(context.Background(), token)
			assert.NoError(t, err, "valid just before now+ttl")

			clock.t = issuedAt.Add(tt.ttl)
			_, err = svc.Validate(context.Background(), token)
			assert.NoError(t, err, "valid at now+ttl")

			clock.t = issuedAt.Add(tt.ttl + time.Second)
			_, err = svc.Validate(context.Background(), token)
			assert.ErrorIs(t, err, auth.ErrTokenExpired)
		})
	}
}

func TestTokenService_TamperedTokens(t *testing.T) {
	svc := newTokenService(t, newClock())
	token, _, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)

	firstDot := strings.Index(token, ".")
	lastDot := strings.LastIndex(token, ".")

	t.Run("header byte", func(t *testing.T) {
		_, err := svc.Validate(context.Background(), replaceAt(token, 3))
		assert.ErrorIs(t, err, auth.ErrTokenBadSignature)
	})

	t.Run("payload byte", func(t *testing.T) {
		_, err := svc.Validate(context.Background(), replaceAt(token, firstDot+5))
		assert.ErrorIs(t, err, auth.ErrTokenBadSignature)
	})

	t.Run("signature byte", func(t *testing.T) {
		_, err := svc.Validate(context.Background(), replaceAt(token, lastDot+3))
		assert.ErrorIs(t, err, auth.ErrTokenBadSignature)
	})

	t.Run("separator byte is malformed", func(t *testing.T) {
		_, err := svc.Validate(context.Background(), replaceAt(token, firstDot))
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)

		_, err = svc.Validate(context.Background(), replaceAt(token, lastDot))
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("every segment byte", func(t *testing.T) {
		for i := range token {
			// a replaced separator leaves two segments, covered above
			if token[i] == '.' {
				continue
			}
			_, err := svc.Validate(context.Background(), replaceAt(token, i))
			require.ErrorIs(t, err, auth.ErrTokenBadSignature, "byte %d", i)
		}
	})
}

func TestTokenService_SecretRotation(t *testing.T) {
	clock := newClock()
	oldSvc := newTokenService(t, clock)
	token, _, err := oldSvc.Issue("42", time.Hour)
	require.NoError(t, err)

	newSvc, err := auth.NewTokenService([]byte("rotated-secret"), auth.WithClock(clock.Now))
	require.NoError(t, err)

	_, err = newSvc.Validate(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrTokenBadSignature)
}

func TestTokenService_Malformed(t *testing.T) {
	svc := newTokenService(t, newClock())

	for _, tok := range []string{"", "abc", "a.b", "a..c", ".b.c", "a.b.c.d"} {
		_, err := svc.Validate(context.Background(), tok)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed, "token %q", tok)
	}
}

func TestTokenService_ClaimsProblems(t *testing.T) {
	clock := newClock()
	svc := newTokenService(t, clock)

	sign := func(claims jwt.Claims, method jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(testSecret)
		require.NoError(t, err)
		return s
	}

	t.Run("missing subject", func(t *testing.T) {
		tok := sign(jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))}, jwt.SigningMethodHS256)
		_, err := svc.Validate(context.Background(), tok)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("missing expiry", func(t *testing.T) {
		tok := sign(jwt.RegisteredClaims{Subject: "42"}, jwt.SigningMethodHS256)
		_, err := svc.Validate(context.Background(), tok)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("other HMAC algorithm", func(t *testing.T) {
		tok := sign(jwt.RegisteredClaims{Subject: "42", ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))}, jwt.SigningMethodHS384)
		_, err := svc.Validate(context.Background(), tok)
		assert.ErrorIs(t, err, auth.ErrTokenBadSignature)
	})
}

func TestTokenService_Revoke(t *testing.T) {
	clock := newClock()
	denylist := auth.NewMemoryDenylist(clock.Now)
	svc := newTokenService(t, clock, auth.WithDenylist(denylist))

	revoked, _, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)
	other, _, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), revoked))

	_, err = svc.Validate(context.Background(), revoked)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	_, err = svc.Validate(context.Background(), other)
	assert.NoError(t, err)

	t.Run("revoking an invalid token fails", func(t *testing.T) {
		err := svc.Revoke(context.Background(), "garbage")
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})
}

func TestTokenService_RevokeWithoutDenylist(t *testing.T) {
	svc := newTokenService(t, newClock())
	token, _, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Revoke(context.Background(), token), auth.ErrRevocationDisabled)
}
