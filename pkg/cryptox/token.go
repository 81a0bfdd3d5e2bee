package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// resetTokenBytes is the entropy of a reset token before encoding.
const resetTokenBytes = 32

// ResetToken is a freshly minted single-use secret. Value goes to the user;
// only Fingerprint is stored.
type ResetToken struct {
	Value       RedactedToken
	Fingerprint string
}

// NewResetToken mints a 256-bit base64url token and its fingerprint.
func NewResetToken() (ResetToken, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return ResetToken{}, fmt.Errorf("failed to generate reset token: %w", err)
	}
	value := base64.RawURLEncoding.EncodeToString(buf)
	return ResetToken{
		Value:       NewRedactedToken(value),
		Fingerprint: FingerprintToken(value),
	}, nil
}

// FingerprintToken is the base64url SHA-256 of token. A leaked database
// row cannot be replayed as a token.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
