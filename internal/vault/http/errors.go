package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/credvault/internal/vault/service"
	"github.com/aussiebroadwan/credvault/pkg/slogx"
	"github.com/aussiebroadwan/credvault/pkg/vaultsdk"
)

const maxBodyBytes = 64 << 10

// serviceErrors maps service sentinels to their wire errors. Order matters
// only in that the first match wins.
var serviceErrors = []struct {
	err error
	api *vaultsdk.APIError
}{
	{service.ErrInvalidEmail, vaultsdk.ErrInvalidEmail},
	{service.ErrPasswordTooShort, vaultsdk.ErrPasswordTooShort},
	{service.ErrDuplicateEmail, vaultsdk.ErrDuplicateEmail},
	{service.ErrEmailNotFound, vaultsdk.ErrEmailNotFound},
	{service.ErrInvalidPassword, vaultsdk.ErrInvalidPassword},
	{service.ErrCorruptPasswordFormat, vaultsdk.ErrCorruptPasswordFormat},
	{service.ErrUserNotFound, vaultsdk.ErrUserNotFound},
	{service.ErrInvalidResetToken, vaultsdk.ErrInvalidToken},
	{service.ErrExpiredResetToken, vaultsdk.ErrExpiredToken},
	{service.ErrNoAPIKey, vaultsdk.ErrNoAPIKey},
	{service.ErrHandshakeInProgress, vaultsdk.ErrHandshakeInProgress},
	{service.ErrAuthURLExtraction, vaultsdk.ErrAuthURLExtraction},
	{service.ErrHandshakeNotFound, vaultsdk.ErrHandshakeNotFound},
	{service.ErrCredentialUndecryptable, vaultsdk.ErrCredentialUndecryptable},
}

// writeServiceError writes the wire error for err. Unmapped errors are
// logged and reported as a generic server error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			m.api.WriteError(w)
			return
		}
	}

	slogx.FromContext(r.Context()).Error("request failed", "error", err)
	vaultsdk.ErrServerError.WriteError(w)
}

// decodeBody reads a JSON request body into v. On failure it writes a 400
// and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		vaultsdk.ErrInvalidRequest.WithDescription("request body must be valid JSON").WriteError(w)
		return false
	}
	return true
}

// requireUserID reads the user_id query parameter, writing a 400 when it is
// missing.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("user_id")
	if id == "" {
		vaultsdk.ErrInvalidRequest.WithDescription("user_id is required").WriteError(w)
		return "", false
	}
	return id, true
}
