package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/internal/vault/store"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/aussiebroadwan/credvault/pkg/idx"
	"github.com/aussiebroadwan/credvault/pkg/slogx"
)

const (
	DefaultHandshakeTimeout    = 10 * time.Minute
	DefaultHandshakeURLTimeout = 60 * time.Second

	persistTimeout = 10 * time.Second
	attemptPrefix  = "hs"
)

var (
	errHandshakeCancelled = errors.New("handshake cancelled")
	errHandshakeTimedOut  = errors.New("handshake timed out")
	errSupervisorShutdown = errors.New("supervisor shutting down")
	errHandshakeSettled   = errors.New("handshake settled")
)

// HandshakeConfig tunes the supervisor.
type HandshakeConfig struct {
	Command    []string
	Timeout    time.Duration
	URLTimeout time.Duration
	LockScope  LockScope
}

// HandshakeService launches the external authorization program, returns its
// authorization URL synchronously and captures the bearer token in the
// background.
type HandshakeService struct {
	Store    store.Store
	Vault    *CredentialVault
	Bridge   *StatusBridge
	Profiles *ProfileResolver
	Logger   *slog.Logger
	Now      func() time.Time

	cfg      HandshakeConfig
	registry *registry
	wg       sync.WaitGroup
}

func NewHandshakeService(
	st store.Store,
	vault *CredentialVault,
	bridge *StatusBridge,
	profiles *ProfileResolver,
	logger *slog.Logger,
	cfg HandshakeConfig,
) *HandshakeService {
	if len(cfg.Command) == 0 {
		cfg.Command = DefaultHandshakeCommand
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHandshakeTimeout
	}
	if cfg.URLTimeout <= 0 {
		cfg.URLTimeout = DefaultHandshakeURLTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HandshakeService{
		Store:    st,
		Vault:    vault,
		Bridge:   bridge,
		Profiles: profiles,
		Logger:   logger,
		cfg:      cfg,
		registry: newRegistry(cfg.LockScope),
	}
}

func (s *HandshakeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Initiate starts a handshake for userID. An empty apiKey, or useStoredKey,
// selects the key on file; a provided key is always stored. A user with a
// token on file gets AlreadyAuthenticated without a new process.
func (s *HandshakeService) Initiate(
	ctx context.Context,
	userID string,
	apiKey cryptox.RedactedToken,
	useStoredKey bool,
) (domain.HandshakeResult, error) {
	l := slogx.FromContext(ctx).With(slog.String("user_id", userID))

	release, ok := s.registry.tryAcquire(userID)
	if !ok {
		l.Info("handshake rejected, another one is in progress")
		return domain.HandshakeResult{}, ErrHandshakeInProgress
	}
	defer release()

	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.HandshakeResult{}, ErrUserNotFound
		}
		return domain.HandshakeResult{}, err
	}

	if useStoredKey || apiKey.IsEmpty() {
		stored, ok, err := s.Vault.APIKey(ctx, userID)
		if err != nil {
			return domain.HandshakeResult{}, err
		}
		if !ok {
			return domain.HandshakeResult{}, ErrNoAPIKey
		}
		apiKey = stored
		l.Info("using stored API key")
	} else if err := s.Vault.StoreAPIKey(ctx, userID, apiKey); err != nil {
		return domain.HandshakeResult{}, err
	}

	switch _, ok, err := s.Vault.Token(ctx, userID); {
	case err != nil:
		l.Warn("stored token is undecryptable, starting a new handshake", slog.Any("error", err))
	case ok:
		l.Info("already authenticated")
		return domain.HandshakeResult{SessionID: userID, AlreadyAuthenticated: true}, nil
	}

	attemptID := idx.Prefixed(attemptPrefix, s.now())
	l = l.With(slog.String("attempt_id", attemptID))

	hsCtx, cancel := context.WithCancelCause(context.Background())
	hsCtx, stopTimer := context.WithTimeoutCause(hsCtx, s.cfg.Timeout, errHandshakeTimedOut)
	abort := func(cause error) {
		cancel(cause)
		stopTimer()
	}

	snap := domain.HandshakeSession{
		SessionID: userID,
		AttemptID: attemptID,
		UserID:    userID,
		State:     domain.HandshakeInitiated,
		StartedAt: s.now(),
	}

	proc, err := startAuthProcess(hsCtx, s.cfg.Command, apiKey.Value())
	if err != nil {
		abort(err)
		l.Error("failed to start authorization program", slog.Any("error", err))
		s.registry.putFailed(snap, "failed to start authorization program: "+err.Error(), s.now())
		return domain.HandshakeResult{}, fmt.Errorf("%w: %v", ErrAuthURLExtraction, err)
	}

	authURL, err := s.awaitURL(ctx, proc)
	if err != nil {
		abort(err)
		proc.release()
		stderr := proc.stderrTail()
		l.Error("authorization URL not found",
			slog.Any("error", err),
			slog.Any("exit", proc.exitErr()),
			slog.String("stderr", stderr),
		)
		reason := "authorization URL not found: " + err.Error()
		if stderr != "" {
			reason += ": " + stderr
		}
		s.registry.putFailed(snap, reason, s.now())
		return domain.HandshakeResult{}, fmt.Errorf("%w: %v", ErrAuthURLExtraction, err)
	}

	snap.AuthURL = authURL
	s.registry.put(snap, abort)

	s.wg.Add(1)
	go s.watch(hsCtx, abort, snap, proc, s.Logger.With(
		slog.String("user_id", userID),
		slog.String("attempt_id", attemptID),
	))

	l.Info("handshake initiated")
	return domain.HandshakeResult{SessionID: userID, AttemptID: attemptID, AuthURL: authURL}, nil
}

// awaitURL reads the authorization URL, bounded by the URL timeout and by
// the caller's context.
func (s *HandshakeService) awaitURL(ctx context.Context, proc *authProcess) (string, error) {
	type result struct {
		url string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		url, err := proc.valueAfter(URLSentinel)
		ch <- result{url, err}
	}()

	timer := time.NewTimer(s.cfg.URLTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.url, r.err
	case <-timer.C:
		return "", fmt.Errorf("no URL within %s", s.cfg.URLTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// watch waits for the token, persists it and settles the session. It owns
// proc from here on and stops it once the session is settled.
func (s *HandshakeService) watch(
	hsCtx context.Context,
	abort context.CancelCauseFunc,
	snap domain.HandshakeSession,
	proc *authProcess,
	l *slog.Logger,
) {
	defer s.wg.Done()
	defer func() {
		abort(errHandshakeSettled)
		proc.release()
	}()

	token, err := proc.valueAfter(TokenSentinel)
	if err != nil {
		reason := "authorization program exited without a token"
		if cause := context.Cause(hsCtx); cause != nil {
			reason = cause.Error()
		}
		s.fail(snap, reason, l.With(
			slog.Any("exit", proc.exitErr()),
			slog.String("stderr", proc.stderrTail()),
		))
		return
	}

	ctx, cancel := context.WithTimeout(slogx.WithContext(context.Background(), l), persistTimeout)
	defer cancel()

	if err := s.Vault.StoreToken(ctx, snap.UserID, cryptox.NewRedactedToken(token)); err != nil {
		s.fail(snap, "failed to persist token: "+err.Error(), l)
		return
	}

	if !s.registry.finish(snap.SessionID, snap.AttemptID, domain.HandshakeCompleted, "", s.now()) {
		return
	}
	l.Info("handshake completed")

	if s.Profiles == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := slogx.WithContext(context.Background(), l)
		if _, err := s.Profiles.Resolve(ctx, snap.UserID); err != nil {
			l.Warn("profile resolution failed", slog.Any("error", err))
		}
	}()
}

func (s *HandshakeService) fail(snap domain.HandshakeSession, reason string, l *slog.Logger) {
	if s.registry.finish(snap.SessionID, snap.AttemptID, domain.HandshakeFailed, reason, s.now()) {
		l.Warn("handshake failed", slog.String("reason", reason))
	}
}

// Status combines the durable status with the in-memory session. Without a
// session (for example after a restart) the state follows the store: a
// stored token is completed, anything else idle.
func (s *HandshakeService) Status(ctx context.Context, userID string) (domain.HandshakeStatus, error) {
	st, err := s.Bridge.Status(ctx, userID)
	if err != nil {
		return domain.HandshakeStatus{}, err
	}

	out := domain.HandshakeStatus{AuthStatus: st, State: domain.HandshakeIdle}
	if st.HasToken {
		out.State = domain.HandshakeCompleted
	}
	if snap, ok := s.registry.get(userID); ok {
		out.Session = &snap
		out.State = snap.State
	}
	return out, nil
}

// Cancel aborts the user's in-flight handshake. The process is killed and
// the session becomes failed.
func (s *HandshakeService) Cancel(ctx context.Context, userID string) error {
	if !s.registry.cancel(userID, errHandshakeCancelled) {
		return ErrHandshakeNotFound
	}
	slogx.FromContext(ctx).Info("handshake cancelled", slog.String("user_id", userID))
	return nil
}

// EvictFinished drops terminal sessions that finished more than retention ago.
func (s *HandshakeService) EvictFinished(retention time.Duration) int {
	return s.registry.evictTerminal(s.now().Add(-retention))
}

// Shutdown cancels every in-flight handshake and waits for the watchers.
func (s *HandshakeService) Shutdown(ctx context.Context) error {
	if n := s.registry.cancelAll(errSupervisorShutdown); n > 0 {
		s.Logger.Info("cancelled in-flight handshakes", slog.Int("count", n))
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
