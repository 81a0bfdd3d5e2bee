package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeepingCleanup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "a@b.com")

	_, err := env.accounts.IssueResetToken(ctx, "a@b.com")
	require.NoError(t, err)

	hk := NewHousekeepingService(env.store, nil, slog.New(slog.DiscardHandler), time.Minute, 0)
	hk.Now = env.clock.Now
	require.Equal(t, DefaultSessionRetention, hk.Retention)

	hk.Cleanup(ctx)
	u, err := env.store.Users().GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotEmpty(t, u.ResetTokenHash, "fresh token survives")

	env.clock.now = env.clock.now.Add(DefaultResetTokenTTL + time.Minute)
	hk.Cleanup(ctx)
	u, err = env.store.Users().GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Empty(t, u.ResetTokenHash)
	require.Nil(t, u.ResetTokenExpires)
}

func TestHousekeepingStartStop(t *testing.T) {
	env := newTestEnv(t)
	hk := NewHousekeepingService(env.store, nil, slog.New(slog.DiscardHandler), 10*time.Millisecond, time.Minute)

	hk.Start()
	time.Sleep(30 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		hk.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("housekeeping did not stop")
	}
}

func TestHousekeepingStopWithoutStart(t *testing.T) {
	env := newTestEnv(t)
	hk := NewHousekeepingService(env.store, nil, slog.New(slog.DiscardHandler), time.Minute, time.Minute)
	hk.Stop()
}

func TestHousekeepingRestart(t *testing.T) {
	env := newTestEnv(t)
	hk := NewHousekeepingService(env.store, nil, slog.New(slog.DiscardHandler), 10*time.Millisecond, time.Minute)

	for range 2 {
		hk.Start()
		hk.Start()
		time.Sleep(20 * time.Millisecond)

		done := make(chan struct{})
		go func() {
			hk.Stop()
			hk.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("housekeeping did not stop")
		}
	}
}
