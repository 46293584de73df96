package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/splinter-be/internal/auth"
	"github.com/isdelr/splinter-be/internal/services"
)

// AuthMetrics records auth outcomes.
type AuthMetrics interface {
	RecordAuthEvent(event, outcome string)
}

type noopAuthMetrics struct{}

func (noopAuthMetrics) RecordAuthEvent(string, string) {}

// AuthHandler handles registration, login and session requests.
type AuthHandler struct {
	service      services.AuthServiceProvider
	metrics      AuthMetrics
	secureCookie bool
	errorReporter
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the token
// cookie Secure; verbose adds error details to 500 responses.
func NewAuthHandler(service services.AuthServiceProvider, metrics AuthMetrics, secureCookie, verbose bool) *AuthHandler {
	if metrics == nil {
		metrics = noopAuthMetrics{}
	}
	return &AuthHandler{
		service:       service,
		metrics:       metrics,
		secureCookie:  secureCookie,
		errorReporter: errorReporter{verbose: verbose},
	}
}

// RegisterPayload defines the structure for registration requests.
// riotId is accepted as an alias of externalGameId.
type RegisterPayload struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ExternalGameID string `json:"externalGameId"`
	RiotID         string `json:"riotId"`
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RiotIDPayload defines the structure for linking a Riot ID.
type RiotIDPayload struct {
	RiotID string `json:"riotId"`
}

var invalidBody = map[string][]services.FieldError{
	"errors": {{Field: "body", Msg: "Invalid request body"}},
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, invalidBody)
		return
	}
	gameID := payload.ExternalGameID
	if gameID == "" {
		gameID = payload.RiotID
	}

	user, err := h.service.Register(r.Context(), services.RegisterInput{
		Username:       payload.Username,
		Email:          payload.Email,
		Password:       payload.Password,
		ExternalGameID: gameID,
	})
	if err != nil {
		h.metrics.RecordAuthEvent("register", outcome(err))
		if h.writeAuthError(w, r, err) {
			return
		}
		h.serverError(w, r, err, "Failed to register user")
		return
	}

	h.metrics.RecordAuthEvent("register", "success")
	log.Info().Int64("user_id", user.ID).Msg("User registered")
	writeJSON(w, http.StatusCreated, map[string]any{
		"msg":  "User registered successfully",
		"user": user,
	})
}

// Login handles user authentication and token issuance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, invalidBody)
		return
	}

	res, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.metrics.RecordAuthEvent("login", outcome(err))
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Msg("Failed authentication attempt")
		}
		if h.writeAuthError(w, r, err) {
			return
		}
		h.serverError(w, r, err, "Failed to log in user")
		return
	}

	h.metrics.RecordAuthEvent("login", "success")
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    res.Token,
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
	})
}

// GetMe retrieves the currently authenticated user from the token.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.serverError(w, r, errors.New("missing claims"), "Could not retrieve user claims from context")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), claims.Subject)
	if err != nil {
		if h.writeAuthError(w, r, err) {
			return
		}
		h.serverError(w, r, err, "Failed to load current user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// LinkRiotID sets or clears the current user's Riot ID.
func (h *AuthHandler) LinkRiotID(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.serverError(w, r, errors.New("missing claims"), "Could not retrieve user claims from context")
		return
	}

	var payload RiotIDPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, invalidBody)
		return
	}

	user, err := h.service.LinkGameAccount(r.Context(), claims.Subject, payload.RiotID)
	if err != nil {
		if h.writeAuthError(w, r, err) {
			return
		}
		h.serverError(w, r, err, "Failed to link Riot ID")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout revokes the presented token and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
		h.metrics.RecordAuthEvent("logout", "error")
		switch {
		case errors.Is(err, auth.ErrTokenMalformed), errors.Is(err, auth.ErrTokenBadSignature),
			errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenRevoked):
			writeMsg(w, http.StatusUnauthorized, "Invalid auth token")
		default:
			h.serverError(w, r, err, "Failed to revoke token")
		}
		return
	}

	h.metrics.RecordAuthEvent("logout", "success")
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	w.WriteHeader(http.StatusNoContent)
}

// writeAuthError writes the 4xx response for a known service error and
// reports whether it did.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) bool {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Errors})
	case errors.Is(err, services.ErrDuplicateEmail):
		writeMsg(w, http.StatusBadRequest, "Email already in use")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeMsg(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, services.ErrUserNotFound):
		log.Warn().Str("path", r.URL.Path).Msg("User from token not found")
		writeMsg(w, http.StatusNotFound, "User not found")
	default:
		return false
	}
	return true
}

func outcome(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "validation_error"
	case errors.Is(err, services.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, services.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}
