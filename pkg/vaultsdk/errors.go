package vaultsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/credvault/pkg/httpx"
)

// Error codes carried in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidEmail            = "invalid_email"
	ErrorCodePasswordTooShort        = "password_too_short"
	ErrorCodeDuplicateEmail          = "duplicate_email"
	ErrorCodeEmailNotFound           = "email_not_found"
	ErrorCodeInvalidPassword         = "invalid_password"
	ErrorCodeCorruptPasswordFormat   = "corrupt_password_format"
	ErrorCodeUserNotFound            = "user_not_found"
	ErrorCodeInvalidToken            = "invalid_token"
	ErrorCodeExpiredToken            = "expired_token"
	ErrorCodeNoAPIKey                = "no_api_key"
	ErrorCodeHandshakeInProgress     = "handshake_in_progress"
	ErrorCodeAuthURLExtraction       = "auth_url_extraction_failed"
	ErrorCodeHandshakeNotFound       = "handshake_not_found"
	ErrorCodeCredentialUndecryptable = "credential_undecryptable"
	ErrorCodeRateLimitExceeded       = "rate_limit_exceeded"
	ErrorCodeServerError             = "server_error"
)

// APIError is a non-2xx response from the vault. Handlers write it and the
// client returns it.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches another *APIError by code, so the predefined errors below work
// with errors.Is regardless of description.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as the response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteError(w, e.StatusCode, e.Code, e.Description)
}

// WithDescription returns a copy of e with a different description.
func (e *APIError) WithDescription(desc string) *APIError {
	c := *e
	c.Description = desc
	return &c
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}
	ErrInvalidEmail = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidEmail,
		Description: "email address is not valid",
	}
	ErrPasswordTooShort = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodePasswordTooShort,
		Description: "password must be at least 8 characters",
	}
	ErrDuplicateEmail = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeDuplicateEmail,
		Description: "email is already registered",
	}
	ErrEmailNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeEmailNotFound,
		Description: "no user is registered with this email",
	}
	ErrInvalidPassword = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidPassword,
		Description: "invalid password",
	}
	// ErrCorruptPasswordFormat means the stored hash is unreadable; the user
	// has to reset their password.
	ErrCorruptPasswordFormat = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeCorruptPasswordFormat,
		Description: "stored password is unreadable, reset it",
	}
	ErrUserNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeUserNotFound,
		Description: "user not found",
	}
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidToken,
		Description: "reset token is invalid or already used",
	}
	ErrExpiredToken = &APIError{
		StatusCode:  http.StatusGone,
		Code:        ErrorCodeExpiredToken,
		Description: "reset token has expired",
	}
	ErrNoAPIKey = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeNoAPIKey,
		Description: "no API key provided and none stored",
	}
	// ErrHandshakeInProgress is retryable: back off and resubmit.
	ErrHandshakeInProgress = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeHandshakeInProgress,
		Description: "another handshake is in progress, retry later",
	}
	ErrAuthURLExtraction = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeAuthURLExtraction,
		Description: "authorization URL could not be obtained",
	}
	ErrHandshakeNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeHandshakeNotFound,
		Description: "no handshake in flight for this user",
	}
	// ErrCredentialUndecryptable means stored credentials exist but do not
	// open under the current key. Re-authenticate.
	ErrCredentialUndecryptable = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeCredentialUndecryptable,
		Description: "stored credentials cannot be decrypted, re-authenticate",
	}
	ErrRateLimitExceeded = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimitExceeded,
		Description: "rate limit exceeded",
	}
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
