package youtube

import (
	"log/slog"
	"sync"
)

// KeyRing rotates a fixed pool of Data API keys. A key reported as quota
// exhausted is skipped for the rest of the process; exhaustion state is not
// persisted, so a fresh run presumes every key usable again.
type KeyRing struct {
	mu        sync.Mutex
	keys      []string
	exhausted map[string]bool
	current   int
}

func NewKeyRing(keys []string) (*KeyRing, error) {
	if len(keys) == 0 {
		return nil, ErrNoAPIKeys
	}
	return &KeyRing{
		keys:      keys,
		exhausted: make(map[string]bool),
	}, nil
}

// AcquireKey returns the current usable key, or ErrQuotaExhausted when none
// remains.
func (r *KeyRing) AcquireKey() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.currentKeyLocked()
	if !ok {
		return "", ErrQuotaExhausted
	}
	return key, nil
}

// ReportQuotaExhausted marks key as spent and advances to the next usable
// key, round-robin, skipping exhausted ones.
func (r *KeyRing) ReportQuotaExhausted(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.exhausted[key] {
		return
	}
	r.exhausted[key] = true

	if _, ok := r.currentKeyLocked(); ok {
		slog.Info("Cycled API keys", "remaining", len(r.keys)-len(r.exhausted))
	} else {
		slog.Warn("All API keys exhausted", "total", len(r.keys))
	}
}

// AllExhausted reports whether no usable key remains.
func (r *KeyRing) AllExhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.currentKeyLocked()
	return !ok
}

// Remaining returns the number of keys not yet reported exhausted.
func (r *KeyRing) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys) - len(r.exhausted)
}

// currentKeyLocked advances current past exhausted keys and returns the key
// it lands on. Caller holds mu.
func (r *KeyRing) currentKeyLocked() (string, bool) {
	for i := 0; i < len(r.keys); i++ {
		idx := (r.current + i) % len(r.keys)
		if !r.exhausted[r.keys[idx]] {
			r.current = idx
			return r.keys[idx], true
		}
	}
	return "", false
}
