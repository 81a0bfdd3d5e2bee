package domain

import "github.com/aussiebroadwan/credvault/pkg/cryptox"

// CredentialContext carries one user's decrypted credentials to the agent
// boundary. It is passed explicitly and never shared between users.
type CredentialContext struct {
	UserID      string
	APIKey      cryptox.RedactedToken
	AccessToken cryptox.RedactedToken
	Profile     *Profile
}

// Ready reports whether both credentials needed to act for the user exist.
func (c CredentialContext) Ready() bool {
	return !c.APIKey.IsEmpty() && !c.AccessToken.IsEmpty()
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	UserID string
	Status AuthStatus
}
