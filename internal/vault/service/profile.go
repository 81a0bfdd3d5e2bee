package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/aussiebroadwan/credvault/pkg/slogx"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultProfileEndpoint = "https://api.twitter.com/2/users/me"
	DefaultProfileTimeout  = 10 * time.Second

	maxProfileBody = 1 << 20
)

// ProfileResolver looks up the identity behind a stored token and caches it.
// Concurrent resolutions for the same user share one request.
type ProfileResolver struct {
	Vault      *CredentialVault
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client // base transport; the bearer header is added on top

	group singleflight.Group
}

// Resolve fetches and caches the profile for userID. On failure the cached
// profile is left untouched and an error wrapping ErrProfileUnavailable is
// returned for the caller to log.
func (r *ProfileResolver) Resolve(ctx context.Context, userID string) (domain.Profile, error) {
	v, err, _ := r.group.Do(userID, func() (any, error) {
		return r.resolve(ctx, userID)
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return v.(domain.Profile), nil
}

func (r *ProfileResolver) resolve(ctx context.Context, userID string) (domain.Profile, error) {
	token, ok, err := r.Vault.Token(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if !ok {
		return domain.Profile{}, fmt.Errorf("%w: no token stored", ErrProfileUnavailable)
	}

	p, err := r.fetch(ctx, token)
	if err != nil {
		return domain.Profile{}, err
	}

	if err := r.Vault.StoreProfile(ctx, userID, p); err != nil {
		return domain.Profile{}, err
	}

	slogx.FromContext(ctx).Info("profile cached",
		slog.String("user_id", userID),
		slog.String("profile_id", p.ID),
	)
	return p, nil
}

func (r *ProfileResolver) fetch(ctx context.Context, token cryptox.RedactedToken) (domain.Profile, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultProfileTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if r.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.HTTPClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.Value(),
		TokenType:   "Bearer",
	}))

	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = DefaultProfileEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Profile{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: read body: %v", ErrProfileUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Profile{}, fmt.Errorf("%w: status %d", ErrProfileUnavailable, resp.StatusCode)
	}

	return normalizeProfile(body)
}

// profilePayload covers the shapes the platform returns for "who am I":
// the v2 envelope {"data":{...}} and a bare object.
type profilePayload struct {
	Data *profileFields `json:"data"`
	profileFields
}

type profileFields struct {
	ID         json.RawMessage `json:"id"`
	IDStr      string          `json:"id_str"`
	Name       string          `json:"name"`
	Username   string          `json:"username"`
	ScreenName string          `json:"screen_name"`
}

// normalizeProfile is the only place platform payloads are interpreted.
func normalizeProfile(body []byte) (domain.Profile, error) {
	var payload profilePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: decode: %v", ErrProfileUnavailable, err)
	}

	f := payload.profileFields
	if payload.Data != nil {
		f = *payload.Data
	}

	p := domain.Profile{
		ID:   firstNonEmpty(f.IDStr, rawID(f.ID)),
		Name: firstNonEmpty(f.Name, f.Username, f.ScreenName),
	}
	if p.ID == "" {
		return domain.Profile{}, fmt.Errorf("%w: payload has no id", ErrProfileUnavailable)
	}
	return p, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// rawID accepts an id encoded as either a JSON string or a JSON number.
func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
