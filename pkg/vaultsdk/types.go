package vaultsdk

import "time"

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	// Error is a stable machine-readable code (e.g. "duplicate_email")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Account Types
// ============================================================================

// RegisterRequest is the body of POST /v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse carries the id assigned to a new user.
type RegisterResponse struct {
	UserID string `json:"user_id"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the user id and the durable credential status.
type LoginResponse struct {
	UserID string     `json:"user_id"`
	Status AuthStatus `json:"status"`
}

// LogoutRequest is the body of POST /v1/auth/logout.
type LogoutRequest struct {
	UserID string `json:"user_id"`
}

// SuccessResponse is returned by operations whose only result is a flag.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ForgotPasswordRequest is the body of POST /v1/auth/password/forgot.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordResponse carries a single-use reset token. Delivering it to
// the user is the caller's job.
type ForgotPasswordResponse struct {
	ResetToken string `json:"reset_token"`

	// ExpiresIn is the token lifetime in seconds
	ExpiresIn int `json:"expires_in"`
}

// ResetPasswordRequest is the body of POST /v1/auth/password/reset.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ============================================================================
// Status Types
// ============================================================================

// Profile is the cached external identity of a user.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AuthStatus is read from durable storage and is unaffected by restarts.
type AuthStatus struct {
	UserID        string   `json:"user_id"`
	Registered    bool     `json:"registered"`
	Email         string   `json:"email,omitempty"`
	Authenticated bool     `json:"authenticated"`
	HasAPIKey     bool     `json:"has_api_key"`
	HasToken      bool     `json:"has_token"`
	Profile       *Profile `json:"profile,omitempty"`
}

// DebugStatusResponse reports presence flags and whether stored ciphertexts
// open under the current key. Decryptable flags are omitted when nothing is
// stored.
type DebugStatusResponse struct {
	UserExists        bool   `json:"user_exists"`
	Email             string `json:"email,omitempty"`
	HasAPIKey         bool   `json:"has_api_key"`
	HasToken          bool   `json:"has_token"`
	HasUserInfo       bool   `json:"has_user_info"`
	APIKeyDecryptable *bool  `json:"api_key_decryptable,omitempty"`
	TokenDecryptable  *bool  `json:"token_decryptable,omitempty"`
}

// ============================================================================
// Handshake Types
// ============================================================================

// Handshake states.
const (
	StateIdle      = "idle"
	StateInitiated = "initiated"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// HandshakeRequest is the body of POST /v1/handshake. An empty APIKey, or
// UseStoredKey, selects the key already on file.
type HandshakeRequest struct {
	UserID       string `json:"user_id"`
	APIKey       string `json:"api_key,omitempty"`
	UseStoredKey bool   `json:"use_stored_key,omitempty"`
}

// HandshakeResponse is returned once the authorization URL is known, or
// immediately when the user already has a token.
type HandshakeResponse struct {
	SessionID            string `json:"session_id"`
	AttemptID            string `json:"attempt_id,omitempty"`
	AuthURL              string `json:"auth_url,omitempty"`
	AlreadyAuthenticated bool   `json:"already_authenticated"`
}

// HandshakeSession is the in-memory state of the latest attempt.
type HandshakeSession struct {
	AttemptID  string     `json:"attempt_id"`
	State      string     `json:"state"`
	AuthURL    string     `json:"auth_url,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// HandshakeStatusResponse is the answer to GET /v1/handshake/status.
type HandshakeStatusResponse struct {
	UserID        string            `json:"user_id"`
	State         string            `json:"state"`
	Authenticated bool              `json:"authenticated"`
	Registered    bool              `json:"registered"`
	APIKeyStored  bool              `json:"api_key_stored"`
	TokenStored   bool              `json:"token_stored"`
	Profile       *Profile          `json:"profile,omitempty"`
	Session       *HandshakeSession `json:"session,omitempty"`
}

// Terminal reports whether the handshake has settled.
func (s HandshakeStatusResponse) Terminal() bool {
	return s.State == StateCompleted || s.State == StateFailed
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of the components the vault cannot work
// without.
type HealthChecks struct {
	Database string `json:"database"`
	Cipher   string `json:"cipher"`
}
