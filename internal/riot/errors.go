package riot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind is the stable category of a gateway failure.
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthorizedKey Kind = "UNAUTHORIZED_KEY"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindUpstream        Kind = "UPSTREAM_ERROR"
)

// Sentinels for errors.Is checks against *Error.
var (
	ErrNotFound        = errors.New("riot: not found")
	ErrUnauthorizedKey = errors.New("riot: API key expired or unauthorized")
	ErrRateLimited     = errors.New("riot: rate limit exceeded")
	ErrUpstream        = errors.New("riot: upstream error")
)

// Error is returned by every Gateway operation.
type Error struct {
	Kind       Kind
	Resource   string // e.g. "Summoner", "Riot ID"; set for NOT_FOUND
	Key        string // the looked-up value; set for NOT_FOUND
	Detail     string
	Status     int           // upstream status, 0 if none
	RetryAfter time.Duration // upstream Retry-After, RATE_LIMITED only
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s '%s' not found", e.Resource, e.Key)
	case KindUnauthorizedKey:
		return "API key expired or unauthorized"
	case KindRateLimited:
		return "Rate limit exceeded. Please try again later"
	default:
		return "Riot API Error: " + e.Detail
	}
}

// Code returns the error category.
func (e *Error) Code() string { return string(e.Kind) }

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnauthorizedKey:
		return e.Kind == KindUnauthorizedKey
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrUpstream:
		return e.Kind == KindUpstream
	}
	return false
}

// upstreamStatus is the error envelope Riot returns on failures.
type upstreamStatus struct {
	Status struct {
		Message    string `json:"message"`
		StatusCode int    `json:"status_code"`
	} `json:"status"`
}

// normalize maps a Client failure to an *Error. It is the only place
// upstream statuses are interpreted.
func normalize(err error, resource, key string) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return &Error{Kind: KindUpstream, Detail: err.Error(), Err: err}
	}

	switch httpErr.StatusCode {
	case 0:
		return &Error{Kind: KindUpstream, Detail: httpErr.Err.Error(), Err: err}
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, Resource: resource, Key: key, Status: httpErr.StatusCode, Err: err}
	case http.StatusForbidden:
		return &Error{Kind: KindUnauthorizedKey, Status: httpErr.StatusCode, Err: err}
	case http.StatusTooManyRequests:
		return &Error{
			Kind:       KindRateLimited,
			Status:     httpErr.StatusCode,
			RetryAfter: parseRetryAfter(httpErr.Header, time.Now()),
			Err:        err,
		}
	}

	return &Error{Kind: KindUpstream, Detail: upstreamDetail(httpErr), Status: httpErr.StatusCode, Err: err}
}

func upstreamDetail(e *HTTPError) string {
	var st upstreamStatus
	if len(e.Body) > 0 && json.Unmarshal(e.Body, &st) == nil && st.Status.Message != "" {
		return st.Status.Message
	}
	return e.Error()
}

// parseRetryAfter reads delay-seconds or an HTTP date. It returns 0 when
// the header is absent or unusable.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now).Round(time.Second)
	}
	return 0
}

func shapeError(resource string, err error) *Error {
	return &Error{Kind: KindUpstream, Detail: fmt.Sprintf("unexpected %s response: %v", resource, err), Err: err}
}
