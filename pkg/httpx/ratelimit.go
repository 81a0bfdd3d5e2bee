package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/credvault/pkg/slogx"
	"golang.org/x/time/rate"
)

// KeyExtractor names the bucket a request draws from. An empty key exempts
// the request.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the client address. Proxy headers win over the
// socket address: the first X-Forwarded-For hop, then X-Real-IP.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep, e.g.
// "192.168.1.1:a@b.com".
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if key := extract(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// maxKeyBodyBytes bounds how much of a request body a key extractor buffers.
const maxKeyBodyBytes = 64 << 10

// JSONFieldKeyExtractor keys on a top-level string field of the JSON body,
// or the query parameter of the same name. Values are trimmed and
// lower-cased so "A@b.com" and "a@b.com " share a bucket. The body is
// restored for the handler.
func JSONFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if v := normalizeKey(r.URL.Query().Get(field)); v != "" {
			return v
		}
		if r.Body == nil || r.Body == http.NoBody {
			return ""
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBodyBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return ""
		}

		var fields map[string]json.RawMessage
		if json.Unmarshal(body, &fields) != nil {
			return ""
		}
		var value string
		if json.Unmarshal(fields[field], &value) != nil {
			return ""
		}
		return normalizeKey(value)
	}
}

func normalizeKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// sweepEvery is how often a limiter set drops idle buckets.
const sweepEvery = 5 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per key. A bucket idle for longer than
// it takes to refill completely is indistinguishable from a new one, so the
// sweep drops it.
type limiterSet struct {
	cfg       RateLimitConfig
	idleAfter time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	refill := time.Duration(float64(cfg.Burst) / cfg.perSecond() * float64(time.Second))
	return &limiterSet{
		cfg:       cfg,
		idleAfter: max(refill, cfg.Window),
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// take consumes a token for key. When none is left it reports how long
// until one is.
func (s *limiterSet) take(key string) (ok bool, retryAfter time.Duration) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= sweepEvery {
		for k, b := range s.buckets {
			if now.Sub(b.lastSeen) > s.idleAfter {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = now
	}

	b, found := s.buckets[key]
	if !found {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(s.cfg.perSecond()), s.cfg.Burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	if b.lim.AllowN(now, 1) {
		return true, 0
	}

	r := b.lim.ReserveN(now, 1)
	retryAfter = r.DelayFrom(now)
	r.CancelAt(now)
	return false, retryAfter
}

// RateLimitMiddleware rejects requests with 429 once the bucket chosen by
// keyOf is empty.
func RateLimitMiddleware(cfg RateLimitConfig, keyOf KeyExtractor) Middleware {
	set := newLimiterSet(cfg)
	limit := strconv.Itoa(cfg.RequestsPerWindow)
	window := cfg.Window.String()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyOf(r)
			if key == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key for request, allowing")
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := set.take(key)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(wait.Round(time.Second)/time.Second), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Window", window)

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				slog.String("key", key),
				slog.String("path", r.URL.Path),
				slog.Int("retry_after", retryAfter),
			)
			WriteError(w, http.StatusTooManyRequests,
				"rate_limit_exceeded",
				"Too many requests. Please try again later.",
			)
		})
	}
}

// RateLimitByIP limits by client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitByIPAndField limits by client address plus a body or query field,
// so each account (email, user_id) from one address has its own budget.
func RateLimitByIPAndField(cfg RateLimitConfig, field string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":",
		IPKeyExtractor,
		JSONFieldKeyExtractor(field),
	))
}
