package httpx

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// RateLimitConfig is a token bucket refilled at RequestsPerWindow per Window,
// holding at most Burst tokens.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// perSecond converts the window budget to the rate package's unit.
func (c RateLimitConfig) perSecond() float64 {
	return float64(c.RequestsPerWindow) / c.Window.Seconds()
}

// Route profiles. Each reads RATELIMIT_<NAME>_{REQUESTS,WINDOW_SEC,BURST} at
// startup, which the e2e suite uses to relax them.
var (
	// StrictLimit guards credential guessing and process spawning: login,
	// password reset and handshake initiation.
	StrictLimit = ParseRateLimitFromEnv("STRICT", RateLimitConfig{5, time.Minute, 5})

	// ModerateLimit covers account mutations and debug lookups.
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", RateLimitConfig{20, time.Minute, 20})

	// LenientLimit covers status polling and health probes.
	LenientLimit = ParseRateLimitFromEnv("LENIENT", RateLimitConfig{100, time.Minute, 100})

	// PublicLimit covers static documentation.
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", RateLimitConfig{1000, time.Minute, 1000})
)

type rateLimitEnv struct {
	Requests  int `env:"REQUESTS"`
	WindowSec int `env:"WINDOW_SEC"`
	Burst     int `env:"BURST"`
}

// ParseRateLimitFromEnv overlays RATELIMIT_<prefix>_* variables on def.
// Non-positive values are ignored; a value that does not parse as an
// integer discards the whole overlay.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	overlay, err := env.ParseAsWithOptions[rateLimitEnv](env.Options{
		Prefix: "RATELIMIT_" + prefix + "_",
	})
	if err != nil {
		return def
	}

	cfg := def
	if overlay.Requests > 0 {
		cfg.RequestsPerWindow = overlay.Requests
	}
	if overlay.WindowSec > 0 {
		cfg.Window = time.Duration(overlay.WindowSec) * time.Second
	}
	if overlay.Burst > 0 {
		cfg.Burst = overlay.Burst
	}
	return cfg
}
