package service

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
)

// LockScope selects which handshakes exclude each other.
type LockScope string

const (
	// LockGlobal allows one handshake in flight process-wide.
	LockGlobal LockScope = "global"
	// LockPerUser allows one handshake in flight per user.
	LockPerUser LockScope = "user"
)

type session struct {
	snap   domain.HandshakeSession
	cancel context.CancelCauseFunc
}

// registry is the in-memory table of handshake sessions, keyed by user id.
// It also implements the initiation try-lock: a slot is taken for the
// synchronous phase, and an initiated session keeps its slot busy until it
// reaches a terminal state.
type registry struct {
	scope LockScope

	mu         sync.RWMutex
	sessions   map[string]*session
	initiating map[string]struct{}
}

func newRegistry(scope LockScope) *registry {
	if scope != LockPerUser {
		scope = LockGlobal
	}
	return &registry{
		scope:      scope,
		sessions:   make(map[string]*session),
		initiating: make(map[string]struct{}),
	}
}

func (r *registry) slot(userID string) string {
	if r.scope == LockPerUser {
		return userID
	}
	return ""
}

// tryAcquire takes the initiation slot for userID without blocking. The
// returned release func must be called on every path.
func (r *registry) tryAcquire(userID string) (release func(), ok bool) {
	key := r.slot(userID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.initiating[key]; busy {
		return nil, false
	}
	for id, s := range r.sessions {
		if s.snap.State == domain.HandshakeInitiated && r.slot(id) == key {
			return nil, false
		}
	}

	r.initiating[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.initiating, key)
			r.mu.Unlock()
		})
	}, true
}

// put records a freshly initiated session, replacing any terminal session
// of the same user.
func (r *registry) put(snap domain.HandshakeSession, cancel context.CancelCauseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[snap.SessionID] = &session{snap: snap, cancel: cancel}
}

// putFailed records an attempt that failed before it was initiated, so the
// status reflects it instead of an older session of the same user.
func (r *registry) putFailed(snap domain.HandshakeSession, reason string, at time.Time) {
	snap.State = domain.HandshakeFailed
	snap.Reason = reason
	snap.FinishedAt = &at

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[snap.SessionID] = &session{snap: snap}
}

func (r *registry) get(sessionID string) (domain.HandshakeSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return domain.HandshakeSession{}, false
	}
	return s.snap, true
}

// finish moves an initiated attempt to a terminal state. It reports false
// when the attempt is unknown or already terminal.
func (r *registry) finish(sessionID, attemptID string, state domain.HandshakeState, reason string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok || s.snap.AttemptID != attemptID || s.snap.State != domain.HandshakeInitiated {
		return false
	}
	s.snap.State = state
	s.snap.Reason = reason
	s.snap.FinishedAt = &at
	return true
}

// cancel aborts the in-flight attempt of sessionID.
func (r *registry) cancel(sessionID string, cause error) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok || s.snap.State != domain.HandshakeInitiated {
		return false
	}
	s.cancel(cause)
	return true
}

func (r *registry) cancelAll(cause error) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.sessions {
		if s.snap.State == domain.HandshakeInitiated {
			s.cancel(cause)
			n++
		}
	}
	return n
}

// evictTerminal drops terminal sessions that finished before cutoff.
func (r *registry) evictTerminal(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if s.snap.State.Terminal() && s.snap.FinishedAt != nil && s.snap.FinishedAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
