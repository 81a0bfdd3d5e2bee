package vaultsdk

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// InitiateHandshake starts a handshake and returns the authorization URL.
func (c *Client) InitiateHandshake(ctx context.Context, req HandshakeRequest) (*HandshakeResponse, error) {
	var out HandshakeResponse
	if err := c.postJSON(ctx, "/v1/handshake", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// HandshakeStatus returns the durable status and the latest attempt's state.
func (c *Client) HandshakeStatus(ctx context.Context, userID string) (*HandshakeStatusResponse, error) {
	var out HandshakeStatusResponse
	if err := c.getJSON(ctx, "/v1/handshake/status", url.Values{"user_id": {userID}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelHandshake aborts the user's in-flight handshake.
func (c *Client) CancelHandshake(ctx context.Context, userID string) error {
	path := "/v1/handshake?" + url.Values{"user_id": {userID}}.Encode()
	resp, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// WaitForHandshake polls the status every interval until the handshake is
// completed or failed, or ctx ends.
func (c *Client) WaitForHandshake(ctx context.Context, userID string, interval time.Duration) (*HandshakeStatusResponse, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := c.HandshakeStatus(ctx, userID)
		if err != nil {
			return nil, err
		}
		if st.Terminal() {
			return st, nil
		}

		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}
