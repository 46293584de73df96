package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// TokenValidator is the part of TokenService the middleware needs.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
}

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// TokenCookieName is the cookie that may carry the bearer token.
const TokenCookieName = "token"

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the token cookie. It returns "" when neither is present.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// ClaimsFromContext returns the claims stored by JWTMiddleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

// JWTMiddleware creates a middleware for protecting routes.
func JWTMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				http.Error(w, "Missing auth token", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(r.Context(), tokenStr)
			switch {
			case err == nil:
			case errors.Is(err, ErrTokenExpired):
				http.Error(w, "Auth token expired", http.StatusUnauthorized)
				return
			case errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrTokenBadSignature), errors.Is(err, ErrTokenRevoked):
				log.Debug().Err(err).Msg("Rejected auth token")
				http.Error(w, "Invalid auth token", http.StatusUnauthorized)
				return
			default:
				log.Error().Err(err).Msg("Failed to validate auth token")
				http.Error(w, "Failed to validate auth token", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
