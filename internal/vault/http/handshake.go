package http

import (
	"net/http"

	"github.com/aussiebroadwan/credvault/internal/vault/service"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/aussiebroadwan/credvault/pkg/httpx"
	"github.com/aussiebroadwan/credvault/pkg/slogx"
	"github.com/aussiebroadwan/credvault/pkg/vaultsdk"
)

type HandshakeHandler struct {
	Handshakes *service.HandshakeService
}

// HandleInitiate starts a handshake.
//
//	@Summary		Initiate a handshake
//	@Description	Launches the external authorization program and returns its authorization URL. The token is captured in the background; poll the status endpoint.
//	@Description	A provided api_key is stored; without one (or with use_stored_key) the stored key is used. Users with a token on file get already_authenticated.
//	@Tags			Handshake
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultsdk.HandshakeRequest	true	"User id and optional API key"
//	@Success		200		{object}	vaultsdk.HandshakeResponse
//	@Failure		400		{object}	vaultsdk.ErrorResponse	"no_api_key or invalid_request"
//	@Failure		404		{object}	vaultsdk.ErrorResponse	"user_not_found"
//	@Failure		429		{object}	vaultsdk.ErrorResponse	"handshake_in_progress or rate_limit_exceeded"
//	@Failure		500		{object}	vaultsdk.ErrorResponse	"auth_url_extraction_failed"
//	@Router			/v1/handshake [post].
func (h *HandshakeHandler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	var req vaultsdk.HandshakeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		vaultsdk.ErrInvalidRequest.WithDescription("user_id is required").WriteError(w)
		return
	}

	ctx := slogx.WithUserID(r.Context(), req.UserID)
	res, err := h.Handshakes.Initiate(ctx, req.UserID, cryptox.NewRedactedToken(req.APIKey), req.UseStoredKey)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, vaultsdk.HandshakeResponse{
		SessionID:            res.SessionID,
		AttemptID:            res.AttemptID,
		AuthURL:              res.AuthURL,
		AlreadyAuthenticated: res.AlreadyAuthenticated,
	})
}

// HandleStatus reports the durable status and the latest attempt.
//
//	@Summary		Handshake status
//	@Description	Safe to poll. Flags come from durable storage; state and session come from the in-memory registry, falling back to the store after a restart.
//	@Tags			Handshake
//	@Produce		json
//	@Param			user_id	query		string	true	"User id"
//	@Success		200		{object}	vaultsdk.HandshakeStatusResponse
//	@Failure		400		{object}	vaultsdk.ErrorResponse	"invalid_request"
//	@Failure		404		{object}	vaultsdk.ErrorResponse	"user_not_found"
//	@Router			/v1/handshake/status [get].
func (h *HandshakeHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	st, err := h.Handshakes.Status(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toHandshakeStatus(st))
}

// HandleCancel aborts an in-flight handshake.
//
//	@Summary		Cancel a handshake
//	@Description	Kills the authorization program of the user's in-flight handshake. The session becomes failed.
//	@Tags			Handshake
//	@Param			user_id	query	string	true	"User id"
//	@Success		204
//	@Failure		404	{object}	vaultsdk.ErrorResponse	"handshake_not_found"
//	@Router			/v1/handshake [delete].
func (h *HandshakeHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.Handshakes.Cancel(slogx.WithUserID(r.Context(), userID), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
