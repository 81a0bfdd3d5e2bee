package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/credvault/internal/vault/http"
	"github.com/aussiebroadwan/credvault/internal/vault/service"
	"github.com/aussiebroadwan/credvault/internal/vault/store"
	"github.com/aussiebroadwan/credvault/internal/vault/store/drivers/sqlite"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/aussiebroadwan/credvault/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

// BuildVersion is stamped at build time with
// -ldflags "-X github.com/aussiebroadwan/credvault/internal/vault/app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the vault service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	cipher *cryptox.Cipher

	vault               *service.CredentialVault
	statusBridge        *service.StatusBridge
	accountService      *service.AccountService
	profileResolver     *service.ProfileResolver
	handshakeService    *service.HandshakeService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application. It fails when no usable encryption key is
// configured (cryptox.ErrConfig) or the database cannot be opened.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "vault-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			File:    cfg.LogFile,
		}),
	}

	cipher, err := cryptox.LoadCipher(cryptox.KeySource{
		Key:  cfg.EncryptionKey,
		Path: cfg.EncryptionKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}
	app.cipher = cipher

	cryptox.SetPepper(cfg.Pepper)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the HTTP handler with all routes applied.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until a shutdown signal arrives or
// the server fails.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.housekeepingService.Start()

	app.logger.Info("vault service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops the HTTP server and the handshake supervisor in parallel,
// then the housekeeping worker and the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down vault service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.server.Shutdown(gctx); err != nil {
			app.logger.Error("graceful server shutdown failed", "error", err)
			return app.server.Close()
		}
		return nil
	})
	g.Go(func() error {
		return app.handshakeService.Shutdown(gctx)
	})
	if err := g.Wait(); err != nil {
		app.logger.Error("shutdown incomplete", "error", err)
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("vault service stopped")
	return nil
}

// initDatabase opens the store and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.vault = &service.CredentialVault{Store: app.db, Cipher: app.cipher}
	app.statusBridge = &service.StatusBridge{Store: app.db, Vault: app.vault}

	app.accountService = &service.AccountService{
		Store:         app.db,
		Status:        app.statusBridge,
		ResetTokenTTL: app.cfg.ResetTokenTTL,
	}

	app.profileResolver = &service.ProfileResolver{
		Vault:    app.vault,
		Endpoint: app.cfg.ProfileEndpoint,
		Timeout:  app.cfg.ProfileTimeout,
	}

	app.handshakeService = service.NewHandshakeService(
		app.db,
		app.vault,
		app.statusBridge,
		app.profileResolver,
		app.logger,
		service.HandshakeConfig{
			Command:    app.cfg.HandshakeCommand,
			Timeout:    app.cfg.HandshakeTimeout,
			URLTimeout: app.cfg.HandshakeURLTimeout,
			LockScope:  service.LockScope(app.cfg.HandshakeLockScope),
		},
	)
	app.logger.Info("handshake supervisor ready",
		"lock_scope", app.cfg.HandshakeLockScope,
		"timeout", app.cfg.HandshakeTimeout,
	)

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.handshakeService,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.SessionRetention,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.cipher, app.logger)

	router.AccountService = app.accountService
	router.StatusBridge = app.statusBridge
	router.HandshakeService = app.handshakeService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
