package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/store"
)

const DefaultSessionRetention = time.Hour

// HousekeepingService periodically clears expired reset tokens and evicts
// settled handshake sessions from memory.
type HousekeepingService struct {
	Store      store.Store
	Handshakes *HandshakeService
	Logger     *slog.Logger
	Interval   time.Duration
	Retention  time.Duration
	Now        func() time.Time

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. Non-positive
// interval and retention fall back to one hour.
func NewHousekeepingService(
	st store.Store,
	handshakes *HandshakeService,
	logger *slog.Logger,
	interval, retention time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = DefaultSessionRetention
	}

	return &HousekeepingService{
		Store:      st,
		Handshakes: handshakes,
		Logger:     logger,
		Interval:   interval,
		Retention:  retention,
	}
}

// Start begins the background worker. Call Stop to shut it down. A stopped
// service may be started again.
func (s *HousekeepingService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(s.stopCh, s.doneCh)
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished. It is a no-op for
// a service that is not running.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.stopCh, s.doneCh = nil, nil
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-stop:
			return
		}
	}
}

// Cleanup runs one pass. Each step is independent; a failure in one does
// not stop the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	cleared, err := s.Store.Users().ClearExpiredResetTokens(ctx, now)
	if err != nil {
		s.Logger.Error("failed to clear expired reset tokens", "error", err)
	}

	evicted := 0
	if s.Handshakes != nil {
		evicted = s.Handshakes.EvictFinished(s.Retention)
	}

	s.Logger.Info("housekeeping cleanup completed",
		"reset_tokens_cleared", cleared,
		"sessions_evicted", evicted,
	)
}
