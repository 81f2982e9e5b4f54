// Package revocation tracks tokens that must be rejected even though their
// signature and expiry still check out.
package revocation

import (
	"sync"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
)

// Store is a concurrency-safe set of revoked token strings. Lookups are by
// exact string, so two encodings of the same claims are distinct entries.
type Store interface {
	// Revoke adds token to the set. expiresAt is the token's own expiry and
	// may be zero when it is unknown. Revoking twice is the same as once.
	Revoke(token string, expiresAt time.Time)

	// IsRevoked reports whether token has been revoked.
	IsRevoked(token string) bool

	// Prune forgets entries whose token has expired by now and returns how
	// many were dropped. Entries with unknown expiry are never pruned.
	Prune(now time.Time) int

	// Len is the number of entries currently held.
	Len() int
}

// Memory is the in-process Store. Entries are keyed by token fingerprint so
// raw tokens are not retained. The zero value is not usable; call NewMemory.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time)}
}

func (m *Memory) Revoke(token string, expiresAt time.Time) {
	key := cryptox.FingerprintToken(token)

	m.mu.Lock()
	defer m.mu.Unlock()

	// A known expiry replaces an unknown one; otherwise the later one wins.
	if prev, ok := m.entries[key]; ok {
		if expiresAt.IsZero() || (!prev.IsZero() && !expiresAt.After(prev)) {
			return
		}
	}
	m.entries[key] = expiresAt
}

func (m *Memory) IsRevoked(token string) bool {
	key := cryptox.FingerprintToken(token)

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[key]
	return ok
}

func (m *Memory) Prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	for key, exp := range m.entries {
		if exp.IsZero() || now.Before(exp) {
			continue
		}
		delete(m.entries, key)
		n++
	}
	return n
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
