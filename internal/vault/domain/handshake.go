package domain

import "time"

// HandshakeState is the lifecycle state of a handshake session.
//
//	initiated -> completed
//	initiated -> failed
//
// Idle is never stored in the registry; it is reported for users with no
// session and no token.
type HandshakeState string

const (
	HandshakeIdle      HandshakeState = "idle"
	HandshakeInitiated HandshakeState = "initiated"
	HandshakeCompleted HandshakeState = "completed"
	HandshakeFailed    HandshakeState = "failed"
)

// Terminal reports whether no further transition is possible.
func (s HandshakeState) Terminal() bool {
	return s == HandshakeCompleted || s == HandshakeFailed
}

// HandshakeSession is a snapshot of one handshake attempt. SessionID equals
// the user id; AttemptID distinguishes successive attempts for that user.
type HandshakeSession struct {
	SessionID  string
	AttemptID  string
	UserID     string
	State      HandshakeState
	AuthURL    string
	Reason     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// HandshakeResult is returned to the caller that initiated a handshake.
type HandshakeResult struct {
	SessionID            string
	AttemptID            string
	AuthURL              string
	AlreadyAuthenticated bool
}

// HandshakeStatus combines durable status with the in-memory session state.
type HandshakeStatus struct {
	AuthStatus
	State   HandshakeState
	Session *HandshakeSession
}
