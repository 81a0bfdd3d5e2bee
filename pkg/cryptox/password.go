package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

// PasswordSeparator splits the salt from the digest in a stored password hash.
const PasswordSeparator = ":"

// legacyDigestLen is the length of a hex sha256 digest written by the
// previous generation of the service.
const legacyDigestLen = sha256.Size * 2

var (
	// ErrPasswordFormat reports a stored hash without exactly one separator
	// between a non-empty salt and digest.
	ErrPasswordFormat = errors.New("invalid password storage format")

	// ErrPasswordMismatch reports a well-formed hash that does not match.
	ErrPasswordMismatch = errors.New("password does not match")
)

// HashPassword returns "salt:digest" where salt is 16 random bytes and digest
// is the Argon2id key of password+pepper, both base64 (raw, standard alphabet).
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	digest := argon2.IDKey(
		[]byte(password+getPepper()),
		salt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)

	return base64.RawStdEncoding.EncodeToString(salt) +
		PasswordSeparator +
		base64.RawStdEncoding.EncodeToString(digest), nil
}

// VerifyPassword compares password against a stored "salt:digest" hash in
// constant time. Legacy hashes (hex salt, hex sha256(password+salt)) are
// still accepted; see NeedsRehash.
func VerifyPassword(password, encodedHash string) error {
	salt, digest, err := splitPasswordHash(encodedHash)
	if err != nil {
		return err
	}

	if isLegacyDigest(digest) {
		sum := sha256.Sum256([]byte(password + salt))
		computed := hex.EncodeToString(sum[:])
		if subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(digest))) == 1 {
			return nil
		}
		return ErrPasswordMismatch
	}

	rawSalt, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return ErrPasswordFormat
	}
	expected, err := base64.RawStdEncoding.DecodeString(digest)
	if err != nil || len(expected) == 0 {
		return ErrPasswordFormat
	}

	computed := argon2.IDKey(
		[]byte(password+getPepper()),
		rawSalt,
		iterations,
		memory,
		parallelism,
		uint32(len(expected)), // #nosec G115 - digest length is bounded by what we wrote
	)

	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

// NeedsRehash reports whether a stored hash uses the legacy sha256 scheme and
// should be replaced after the next successful verification.
func NeedsRehash(encodedHash string) bool {
	_, digest, err := splitPasswordHash(encodedHash)
	if err != nil {
		return false
	}
	return isLegacyDigest(digest)
}

// WellFormedPasswordHash reports whether encodedHash has exactly one
// separator with non-empty parts on both sides.
func WellFormedPasswordHash(encodedHash string) bool {
	_, _, err := splitPasswordHash(encodedHash)
	return err == nil
}

func splitPasswordHash(encodedHash string) (salt, digest string, err error) {
	if strings.Count(encodedHash, PasswordSeparator) != 1 {
		return "", "", ErrPasswordFormat
	}
	salt, digest, _ = strings.Cut(encodedHash, PasswordSeparator)
	if salt == "" || digest == "" {
		return "", "", ErrPasswordFormat
	}
	return salt, digest, nil
}

func isLegacyDigest(digest string) bool {
	if len(digest) != legacyDigestLen {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}
