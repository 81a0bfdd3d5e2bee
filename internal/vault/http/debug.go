package http

import (
	"net/http"

	"github.com/aussiebroadwan/credvault/internal/vault/service"
	"github.com/aussiebroadwan/credvault/pkg/httpx"
)

type DebugHandler struct {
	Bridge *service.StatusBridge
}

// ServeHTTP reports whether a user's stored credentials exist and open
// under the current key.
//
//	@Summary		Credential debug status
//	@Description	Presence flags plus decryptability of each stored ciphertext. Never returns plaintext. Unknown users report user_exists=false.
//	@Tags			Accounts
//	@Produce		json
//	@Param			user_id	query		string	true	"User id"
//	@Success		200		{object}	vaultsdk.DebugStatusResponse
//	@Failure		400		{object}	vaultsdk.ErrorResponse	"invalid_request"
//	@Router			/v1/auth/debug_status [get].
func (h *DebugHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	ds, err := h.Bridge.DebugStatus(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toDebugStatus(ds))
}
