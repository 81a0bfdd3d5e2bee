package domain

// AuthStatus is what the vault knows durably about a user. It is derived from
// the store only, so it survives restarts.
type AuthStatus struct {
	UserID     string
	Registered bool
	Email      string
	HasAPIKey  bool
	HasToken   bool
	Profile    *Profile
}

// Authenticated reports whether a bearer token is on file.
func (s AuthStatus) Authenticated() bool { return s.HasToken }

// DebugStatus extends AuthStatus with decryptability probes. The probes are
// nil when there is nothing stored to decrypt.
type DebugStatus struct {
	UserExists        bool
	Email             string
	HasAPIKey         bool
	HasToken          bool
	HasProfile        bool
	APIKeyDecryptable *bool
	TokenDecryptable  *bool
}
