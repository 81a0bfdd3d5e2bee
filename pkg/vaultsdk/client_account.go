package vaultsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Register creates a user with an email and password.
func (c *Client) Register(ctx context.Context, email, password string) (*RegisterResponse, error) {
	var out RegisterResponse
	err := c.postJSON(ctx, "/v1/auth/register", RegisterRequest{Email: email, Password: password}, &out, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login verifies the password and returns the user's credential status.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.postJSON(ctx, "/v1/auth/login", LoginRequest{Email: email, Password: password}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the user's session. Stored credentials are kept. Success is
// false for an unknown user.
func (c *Client) Logout(ctx context.Context, userID string) (bool, error) {
	var out SuccessResponse
	if err := c.postJSON(ctx, "/v1/auth/logout", LogoutRequest{UserID: userID}, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Success, nil
}

// ForgotPassword issues a reset token, replacing any previous one.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResponse, error) {
	var out ForgotPasswordResponse
	err := c.postJSON(ctx, "/v1/auth/password/forgot", ForgotPasswordRequest{Email: email}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword consumes a reset token and sets a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	var out SuccessResponse
	return c.postJSON(ctx, "/v1/auth/password/reset", ResetPasswordRequest{
		Token:       token,
		NewPassword: newPassword,
	}, &out, http.StatusOK)
}

// DebugStatus returns presence and decryptability flags for a user.
func (c *Client) DebugStatus(ctx context.Context, userID string) (*DebugStatusResponse, error) {
	var out DebugStatusResponse
	if err := c.getJSON(ctx, "/v1/auth/debug_status", url.Values{"user_id": {userID}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
