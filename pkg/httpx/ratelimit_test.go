package httpx_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/credvault/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

func do(h http.Handler, method, target, remote, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPKeyExtractor(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"socket address", "192.168.1.1:12345", nil, "192.168.1.1"},
		{"address without port", "192.168.1.1", nil, "192.168.1.1"},
		{"first forwarded hop wins", "10.0.0.1:1", map[string]string{
			"X-Forwarded-For": "203.0.113.1, 10.0.0.2",
			"X-Real-IP":       "198.51.100.1",
		}, "203.0.113.1"},
		{"real ip without forwarded", "10.0.0.1:1", map[string]string{"X-Real-IP": " 198.51.100.1 "}, "198.51.100.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestJSONFieldKeyExtractor(t *testing.T) {
	email := httpx.JSONFieldKeyExtractor("email")

	t.Run("normalises and restores the body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":" Alice@Example.COM ","password":"x"}`))
		require.Equal(t, "alice@example.com", email(req))

		var got map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		require.Equal(t, "x", got["password"])
	})

	t.Run("query parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/handshake/status?user_id=user-7", nil)
		require.Equal(t, "user-7", httpx.JSONFieldKeyExtractor("user_id")(req))

		req = httptest.NewRequest(http.MethodGet, "/v1/handshake/status?user_id=%20User-7%20", nil)
		require.Equal(t, "user-7", httpx.JSONFieldKeyExtractor("user_id")(req), "query and body share a bucket")

		req = httptest.NewRequest(http.MethodGet, "/v1/handshake/status?user_id=%20%20", nil)
		require.Empty(t, httpx.JSONFieldKeyExtractor("user_id")(req))
	})

	t.Run("nothing usable", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"email":42}`, `not json`, ``} {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			require.Empty(t, email(req), "body %q", body)
		}
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	key := httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.JSONFieldKeyExtractor("user_id"))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"user_id":"user-1"}`))
	req.RemoteAddr = "192.168.1.1:1"
	require.Equal(t, "192.168.1.1:user-1", key(req))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.RemoteAddr = "192.168.1.1:1"
	require.Equal(t, "192.168.1.1", key(req), "empty parts are skipped")
}

func TestRateLimitMiddleware(t *testing.T) {
	perMinute := func(n int) httpx.RateLimitConfig {
		return httpx.RateLimitConfig{RequestsPerWindow: n, Window: time.Minute, Burst: n}
	}

	t.Run("burst then reject", func(t *testing.T) {
		h := httpx.RateLimitByIP(perMinute(3))(ok)
		for i := range 3 {
			require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/", "192.168.1.1:1", "").Code, "request %d", i+1)
		}

		rec := do(h, http.MethodGet, "/", "192.168.1.1:2", "")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "20", rec.Header().Get("Retry-After"), "one token per 20s")
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		var body httpx.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "rate_limit_exceeded", body.Error)

		require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/", "192.168.1.2:1", "").Code, "other clients unaffected")
	})

	t.Run("keyless requests pass", func(t *testing.T) {
		h := httpx.RateLimitMiddleware(perMinute(1), func(*http.Request) string { return "" })(ok)
		for range 3 {
			require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/", "192.168.1.1:1", "").Code)
		}
	})

	t.Run("per account budget from one address", func(t *testing.T) {
		var seen []string
		h := httpx.RateLimitByIPAndField(perMinute(2), "email")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Email string `json:"email"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			seen = append(seen, body.Email)
		}))

		for range 2 {
			require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/", "192.168.1.1:1", `{"email":"a@b.co"}`).Code)
		}
		require.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/", "192.168.1.1:1", `{"email":"A@b.co"}`).Code)
		require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/", "192.168.1.1:1", `{"email":"c@d.co"}`).Code)
		require.Equal(t, []string{"a@b.co", "a@b.co", "c@d.co"}, seen)
	})
}

func TestProfilesAreOrdered(t *testing.T) {
	order := []httpx.RateLimitConfig{httpx.StrictLimit, httpx.ModerateLimit, httpx.LenientLimit, httpx.PublicLimit}
	for i, cfg := range order {
		require.Positive(t, cfg.RequestsPerWindow)
		require.Positive(t, cfg.Burst)
		require.Equal(t, time.Minute, cfg.Window)
		if i > 0 {
			require.Less(t, order[i-1].RequestsPerWindow, cfg.RequestsPerWindow)
		}
	}
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	cases := []struct {
		name string
		env  map[string]string
		want httpx.RateLimitConfig
	}{
		{"unset", nil, def},
		{"full override", map[string]string{
			"RATELIMIT_TEST_REQUESTS":   "100",
			"RATELIMIT_TEST_WINDOW_SEC": "30",
			"RATELIMIT_TEST_BURST":      "20",
		}, httpx.RateLimitConfig{RequestsPerWindow: 100, Window: 30 * time.Second, Burst: 20}},
		{"partial override", map[string]string{"RATELIMIT_TEST_BURST": "50"},
			httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 50}},
		{"non-positive ignored", map[string]string{
			"RATELIMIT_TEST_WINDOW_SEC": "-5",
			"RATELIMIT_TEST_BURST":      "0",
		}, def},
		{"unparsable discards overlay", map[string]string{
			"RATELIMIT_TEST_REQUESTS": "lots",
			"RATELIMIT_TEST_BURST":    "50",
		}, def},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			require.Equal(t, tc.want, httpx.ParseRateLimitFromEnv("TEST", def))
		})
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	do(httpx.Chain(ok, mw("outer"), mw("inner")), http.MethodGet, "/", "192.168.1.1:1", "")
	require.Equal(t, []string{"outer", "inner"}, order)
}
