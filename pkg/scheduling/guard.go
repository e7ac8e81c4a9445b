package scheduling

import (
	"errors"
	"sync"
)

// ErrCreationInFlight signals that another creation attempt already holds the
// guard for this session. Racing triggers are expected; callers in the
// trigger funnel drop it silently.
var ErrCreationInFlight = errors.New("event creation already in progress")

// CreationGuard is a per-session single-flight flag. Creation can be
// triggered by a user confirmation, an assistant utterance, or an explicit
// API call racing each other; the guard ensures at most one in-flight
// calendar submission per session.
type CreationGuard struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

func NewCreationGuard() *CreationGuard {
	return &CreationGuard{inFlight: make(map[string]bool)}
}

// TryAcquire returns false if a creation attempt for this session is already
// in flight.
func (g *CreationGuard) TryAcquire(sessionId string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[sessionId] {
		return false
	}
	g.inFlight[sessionId] = true
	return true
}

// Release frees the guard. Safe to call even when not held, so a session
// reset can clear it unconditionally.
func (g *CreationGuard) Release(sessionId string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, sessionId)
}
