package session

import (
	"time"

	"golang.org/x/oauth2"
)

// State tracks where a conversation is in the scheduling flow.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateReady      State = "ready"
	StateCreating   State = "creating"
	StateDone       State = "done"
)

// Session is one voice conversation's server-side state, keyed by an opaque
// identifier handed to the client at init.
type Session struct {
	Id        string
	Timezone  string
	State     State
	Details   DetailRecord
	Authed    bool
	Tokens    *oauth2.Token
	EventId   string
	EventLink string
	CreatedAt time.Time
}
