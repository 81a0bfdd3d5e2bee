package service

import "errors"

var (
	ErrInvalidEmail          = errors.New("invalid email format")
	ErrPasswordTooShort      = errors.New("password must be at least 8 characters long")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrEmailNotFound         = errors.New("email not found")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrCorruptPasswordFormat = errors.New("invalid password storage format, please reset your password")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidResetToken     = errors.New("invalid reset token")
	ErrExpiredResetToken     = errors.New("reset token expired")
)

var (
	ErrNoAPIKey            = errors.New("no API key available")
	ErrHandshakeInProgress = errors.New("another handshake is already in progress")
	ErrAuthURLExtraction   = errors.New("failed to obtain authorization URL")
	ErrHandshakeNotFound   = errors.New("no handshake in progress")
)

// ErrCredentialUndecryptable reports ciphertext on file that the current key
// cannot open. It is distinct from a credential that was never stored and
// always travels together with cryptox.ErrCrypto.
var ErrCredentialUndecryptable = errors.New("stored credential cannot be decrypted")

// ErrProfileUnavailable reports a failed identity lookup. It is never fatal
// to a handshake.
var ErrProfileUnavailable = errors.New("profile unavailable")
