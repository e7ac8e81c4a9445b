package session

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/voxcal/voxcal/internal/utils"
)

var ErrSessionNotFound = errors.New("session not found")

// Repository stores live sessions. Each session is independently owned;
// Update applies its mutation under the store's per-key write discipline so
// callers never observe a torn record.
type Repository interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, id string, fn func(*Session)) (Session, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryRepository is the default in-process store: a mutex-guarded map with
// a TTL sweep. A zero ttl disables expiry.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	clock    utils.Clock
}

func NewMemoryRepository(ttl time.Duration, clock utils.Clock) *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		clock:    clock,
	}
}

func (r *MemoryRepository) Create(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Id] = &memoryEntry{
		session:   s,
		expiresAt: r.expiry(),
	}
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Session, error) {
	// The session must be copied before the lock is released; a concurrent
	// Update mutates entry.session in place.
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[id]
	if !ok || r.expired(entry) {
		return Session{}, ErrSessionNotFound
	}
	return entry.session, nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, fn func(*Session)) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok || r.expired(entry) {
		return Session{}, ErrSessionNotFound
	}
	fn(&entry.session)
	entry.expiresAt = r.expiry()
	return entry.session, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (r *MemoryRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, entry := range r.sessions {
		if r.expired(entry) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps periodically until ctx is cancelled.
func (r *MemoryRepository) StartJanitor(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := r.Sweep(); removed > 0 {
					log.Debugf("session janitor removed %d expired session(s)", removed)
				}
			}
		}
	}()
}

func (r *MemoryRepository) expiry() time.Time {
	if r.ttl <= 0 {
		return time.Time{}
	}
	return r.clock.Now().Add(r.ttl)
}

func (r *MemoryRepository) expired(entry *memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !r.clock.Now().Before(entry.expiresAt)
}
