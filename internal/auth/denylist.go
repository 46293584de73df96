package auth

import (
	"context"
	"sync"
	"time"
)

// Denylist records revoked token ids until the tokens would have expired.
type Denylist interface {
	Add(ctx context.Context, tokenID string, expiresAt time.Time) error
	Contains(ctx context.Context, tokenID string) (bool, error)
}

// MemoryDenylist is a process-local Denylist. Entries are dropped by Sweep
// once their token has expired.
type MemoryDenylist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryDenylist creates an empty MemoryDenylist. A nil clock means time.Now.
func NewMemoryDenylist(now func() time.Time) *MemoryDenylist {
	if now == nil {
		now = time.Now
	}
	return &MemoryDenylist{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

// Add revokes tokenID. Already expired tokens are not recorded.
func (d *MemoryDenylist) Add(_ context.Context, tokenID string, expiresAt time.Time) error {
	if !d.now().Before(expiresAt) {
		return nil
	}
	d.mu.Lock()
	d.entries[tokenID] = expiresAt
	d.mu.Unlock()
	return nil
}

// Contains reports whether tokenID is revoked and not yet expired.
func (d *MemoryDenylist) Contains(_ context.Context, tokenID string) (bool, error) {
	d.mu.RLock()
	expiresAt, ok := d.entries[tokenID]
	d.mu.RUnlock()
	return ok && d.now().Before(expiresAt), nil
}

// Sweep removes entries whose tokens have expired and returns how many went.
func (d *MemoryDenylist) Sweep(_ context.Context) (int, error) {
	now := d.now()
	removed := 0

	d.mu.Lock()
	defer d.mu.Unlock()
	for id, expiresAt := range d.entries {
		if !now.Before(expiresAt) {
			delete(d.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of recorded entries, expired or not.
func (d *MemoryDenylist) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
