package app

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/service"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	EncryptionKey     string `env:"VAULT_ENCRYPTION_KEY"`      // Required unless a key file is given: base64 of 32 bytes
	EncryptionKeyFile string `env:"VAULT_ENCRYPTION_KEY_FILE"` // Optional: file holding the key, wins over VAULT_ENCRYPTION_KEY
	DatabaseFile      string `env:"VAULT_DATABASE_FILE" envDefault:"vault.db"`
	Pepper            string `env:"VAULT_PEPPER"` // Optional: server-side secret mixed into password digests

	HandshakeCommand    []string      `env:"VAULT_HANDSHAKE_COMMAND" envSeparator:"," envDefault:"poetry,run,twitter-plugin-gamesdk,auth,-k"`
	HandshakeTimeout    time.Duration `env:"VAULT_HANDSHAKE_TIMEOUT" envDefault:"10m"`
	HandshakeURLTimeout time.Duration `env:"VAULT_HANDSHAKE_URL_TIMEOUT" envDefault:"60s"`
	HandshakeLockScope  string        `env:"VAULT_HANDSHAKE_LOCK_SCOPE" envDefault:"global"` // global or user
	SessionRetention    time.Duration `env:"VAULT_SESSION_RETENTION" envDefault:"1h"`

	ProfileEndpoint string        `env:"VAULT_PROFILE_ENDPOINT" envDefault:"https://api.twitter.com/2/users/me"`
	ProfileTimeout  time.Duration `env:"VAULT_PROFILE_TIMEOUT" envDefault:"10s"`

	ResetTokenTTL time.Duration `env:"VAULT_RESET_TOKEN_TTL" envDefault:"24h"`

	Env                  string        `env:"ENV" envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"`
	LogFile              string        `env:"LOG_FILE"` // Optional: also write logs to a daily rotated file
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig reads the configuration from the environment. The encryption
// key is not checked here; New refuses to start without one.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	switch service.LockScope(cfg.HandshakeLockScope) {
	case service.LockGlobal, service.LockPerUser:
	default:
		return Config{}, fmt.Errorf("VAULT_HANDSHAKE_LOCK_SCOPE must be %q or %q, got %q",
			service.LockGlobal, service.LockPerUser, cfg.HandshakeLockScope)
	}
	if len(cfg.HandshakeCommand) == 0 {
		return Config{}, fmt.Errorf("VAULT_HANDSHAKE_COMMAND must not be empty")
	}

	return cfg, nil
}
