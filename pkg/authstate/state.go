// Package authstate tracks the single pending OAuth authorization session.
//
// The session slot is a last-writer-wins cell: a new Begin displaces any
// pending session without error, and a callback carrying the displaced
// session's state will fail validation. The token is derived from a
// nanosecond timestamp and the requester identity; that is only acceptable
// while there is exactly one authorized identity and one pending session.
// Any multi-session support must replace it with a crypto/rand token.
package authstate

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// Session correlates an outbound authorization redirect with its callback.
type Session struct {
	State     string
	Identity  string
	CreatedAt time.Time
}

// Machine holds at most one pending session.
type Machine struct {
	mu      sync.Mutex
	pending *Session
	seq     uint64
}

func NewMachine() *Machine {
	return &Machine{}
}

// Begin issues a fresh opaque state token for the given requester identity,
// discarding any session still pending.
func (m *Machine) Begin(identity string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	// The sequence number keeps tokens distinct even when two Begins land
	// on the same clock tick.
	m.seq++
	seed := fmt.Sprintf("_chat_identity_%d_%d_%s", time.Now().UnixNano(), m.seq, identity)
	state := base64.URLEncoding.EncodeToString([]byte(seed))

	m.pending = &Session{
		State:     state,
		Identity:  identity,
		CreatedAt: time.Now(),
	}
	return state
}

// Validate reports whether candidate matches the pending session's state
// byte-for-byte. It is false whenever no session is pending. The session is
// not consumed; callers clear it after a successful completion.
func (m *Machine) Validate(candidate string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil && candidate != "" && m.pending.State == candidate
}

// Pending returns a copy of the current session, if any.
func (m *Machine) Pending() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return Session{}, false
	}
	return *m.pending, true
}

// Clear returns the machine to idle.
func (m *Machine) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
}
