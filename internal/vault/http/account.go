package http

import (
	"net/http"

	"github.com/aussiebroadwan/credvault/internal/vault/service"
	"github.com/aussiebroadwan/credvault/pkg/httpx"
	"github.com/aussiebroadwan/credvault/pkg/slogx"
	"github.com/aussiebroadwan/credvault/pkg/vaultsdk"
)

type AccountHandler struct {
	Accounts *service.AccountService
}

// HandleRegister creates a user.
//
//	@Summary		Register a user
//	@Description	Creates a user with an email and a password of at least 8 characters. The email is stored lower-cased and must be unique.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultsdk.RegisterRequest	true	"Email and password"
//	@Success		201		{object}	vaultsdk.RegisterResponse
//	@Failure		400		{object}	vaultsdk.ErrorResponse	"invalid_email, password_too_short or invalid_request"
//	@Failure		409		{object}	vaultsdk.ErrorResponse	"duplicate_email"
//	@Failure		429		{object}	vaultsdk.ErrorResponse	"rate_limit_exceeded"
//	@Router			/v1/auth/register [post].
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req vaultsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID, err := h.Accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, vaultsdk.RegisterResponse{UserID: userID})
}

// HandleLogin verifies a password.
//
//	@Summary		Log in
//	@Description	Verifies the password and returns the user's durable credential status.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultsdk.LoginRequest	true	"Email and password"
//	@Success		200		{object}	vaultsdk.LoginResponse
//	@Failure		401		{object}	vaultsdk.ErrorResponse	"invalid_password"
//	@Failure		404		{object}	vaultsdk.ErrorResponse	"email_not_found"
//	@Failure		429		{object}	vaultsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	vaultsdk.ErrorResponse	"corrupt_password_format"
//	@Router			/v1/auth/login [post].
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req vaultsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, vaultsdk.LoginResponse{
		UserID: res.UserID,
		Status: toAuthStatus(res.Status),
	})
}

// HandleLogout ends the user's session without touching stored credentials.
//
//	@Summary		Log out
//	@Description	Records the logout. Stored API key and token are kept; success is false for an unknown user.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultsdk.LogoutRequest	true	"User id"
//	@Success		200		{object}	vaultsdk.SuccessResponse
//	@Failure		400		{object}	vaultsdk.ErrorResponse	"invalid_request"
//	@Router			/v1/auth/logout [post].
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req vaultsdk.LogoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		vaultsdk.ErrInvalidRequest.WithDescription("user_id is required").WriteError(w)
		return
	}

	ok, err := h.Accounts.Logout(slogx.WithUserID(r.Context(), req.UserID), req.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, vaultsdk.SuccessResponse{Success: ok})
}

// HandleForgotPassword issues a reset token.
//
//	@Summary		Issue a password reset token
//	@Description	Issues a single-use reset token valid for the configured lifetime (24h by default), replacing any earlier one.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultsdk.ForgotPasswordRequest	true	"Email"
//	@Success		200		{object}	vaultsdk.ForgotPasswordResponse
//	@Failure		404		{object}	vaultsdk.ErrorResponse	"email_not_found"
//	@Router			/v1/auth/password/forgot [post].
func (h *AccountHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req vaultsdk.ForgotPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, err := h.Accounts.IssueResetToken(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, vaultsdk.ForgotPasswordResponse{
		ResetToken: token,
		ExpiresIn:  int(h.Accounts.ResetTTL().Seconds()),
	})
}

// HandleResetPassword consumes a reset token.
//
//	@Summary		Reset a password
//	@Description	Consumes a reset token and replaces the password. Each token works once.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultsdk.ResetPasswordRequest	true	"Token and new password"
//	@Success		200		{object}	vaultsdk.SuccessResponse
//	@Failure		400		{object}	vaultsdk.ErrorResponse	"invalid_token or password_too_short"
//	@Failure		410		{object}	vaultsdk.ErrorResponse	"expired_token"
//	@Router			/v1/auth/password/reset [post].
func (h *AccountHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req vaultsdk.ResetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Accounts.ConsumeResetToken(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, vaultsdk.SuccessResponse{Success: true})
}
