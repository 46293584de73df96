// Package ratelimit throttles requests per client IP.
package ratelimit

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an unused client limiter is kept.
const DefaultIdleTTL = 10 * time.Minute

// Recorder receives rejected requests.
type Recorder interface {
	RecordRateLimited(route string)
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// IPLimiter keeps one token bucket per client IP.
type IPLimiter struct {
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	recorder Recorder

	mu       sync.Mutex
	limiters map[string]*clientLimiter
}

// Option customises an IPLimiter.
type Option func(*IPLimiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *IPLimiter) { l.now = now }
}

// WithRecorder reports rejections to r.
func WithRecorder(r Recorder) Option {
	return func(l *IPLimiter) { l.recorder = r }
}

// NewIPLimiter allows perMinute requests per minute per IP with a burst of
// the same size. perMinute <= 0 is treated as 1.
func NewIPLimiter(perMinute int, opts ...Option) *IPLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	l := &IPLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
		idleTTL:  DefaultIdleTTL,
		now:      time.Now,
		limiters: make(map[string]*clientLimiter),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether a request from ip may proceed now.
func (l *IPLimiter) Allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	cl, ok := l.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = cl
	}
	cl.lastAccess = now
	l.mu.Unlock()

	return cl.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.Allow(ip) {
			log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			if l.recorder != nil {
				l.recorder.RecordRateLimited(r.URL.Path)
			}
			l.writeLimited(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Sweep drops limiters idle for longer than the idle TTL.
func (l *IPLimiter) Sweep(context.Context) (int, error) {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for ip, cl := range l.limiters {
		if cl.lastAccess.Before(cutoff) {
			delete(l.limiters, ip)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked clients.
func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// writeLimited sets Retry-After to the time needed to refill one token.
func (l *IPLimiter) writeLimited(w http.ResponseWriter) {
	retryAfter := int(math.Ceil(1.0 / float64(l.limit)))
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Too many requests. Please try again later",
	})
}

// clientIP keys on RemoteAddr: the socket peer, or the forwarded client when
// the router trusts a proxy and chi's RealIP has rewritten it.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
