package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	cases := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"missing at", "ab.com", "longenough1", ErrInvalidEmail},
		{"missing dot", "a@bcom", "longenough1", ErrInvalidEmail},
		{"empty", "", "longenough1", ErrInvalidEmail},
		{"short password", "a@b.com", "short", ErrPasswordTooShort},
		{"seven runes", "a@b.com", "ééééééé", ErrPasswordTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.accounts.Register(ctx, tc.email, tc.password)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("normalises email and rejects duplicates", func(t *testing.T) {
		id, err := env.accounts.Register(ctx, "  A@B.com ", "longenough1")
		require.NoError(t, err)
		require.Regexp(t, `^user-[0-9a-f-]{36}$`, id)

		u, err := env.store.Users().GetUserByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "a@b.com", u.Email)
		require.True(t, cryptox.WellFormedPasswordHash(u.PasswordHash))

		_, err = env.accounts.Register(ctx, "a@b.com", "different1")
		require.ErrorIs(t, err, ErrDuplicateEmail)

		users, err := env.store.Users().ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
	})
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.accounts.Register(ctx, "race@b.com", "longenough1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrDuplicateEmail)
	}
	require.Equal(t, 1, ok)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.register(t, "a@b.com")

	t.Run("success reports durable status", func(t *testing.T) {
		res, err := env.accounts.Login(ctx, "A@b.com", "longenough1")
		require.NoError(t, err)
		require.Equal(t, id, res.UserID)
		require.True(t, res.Status.Registered)
		require.False(t, res.Status.HasAPIKey)
		require.False(t, res.Status.HasToken)

		u, err := env.store.Users().GetUserByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, u.LastLogin)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := env.accounts.Login(ctx, "x@y.com", "longenough1")
		require.ErrorIs(t, err, ErrEmailNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.accounts.Login(ctx, "a@b.com", "wrongpassword")
		require.ErrorIs(t, err, ErrInvalidPassword)
	})

	t.Run("corrupt stored hash", func(t *testing.T) {
		require.NoError(t, env.store.Users().CreateUser(ctx, domain.User{
			ID: "user-corrupt", Email: "c@b.com", PasswordHash: "no-separator",
		}))
		_, err := env.accounts.Login(ctx, "c@b.com", "longenough1")
		require.ErrorIs(t, err, ErrCorruptPasswordFormat)
	})
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	salt := "0123456789abcdef0123456789abcdef"
	sum := sha256.Sum256([]byte("longenough1" + salt))
	legacy := salt + ":" + hex.EncodeToString(sum[:])
	require.NoError(t, env.store.Users().CreateUser(ctx, domain.User{
		ID: "user-legacy", Email: "old@b.com", PasswordHash: legacy,
	}))

	_, err := env.accounts.Login(ctx, "old@b.com", "longenough1")
	require.NoError(t, err)

	u, err := env.store.Users().GetUserByID(ctx, "user-legacy")
	require.NoError(t, err)
	require.NotEqual(t, legacy, u.PasswordHash)
	require.False(t, cryptox.NeedsRehash(u.PasswordHash))

	_, err = env.accounts.Login(ctx, "old@b.com", "longenough1")
	require.NoError(t, err)
}

func TestLogoutKeepsCredentials(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.register(t, "a@b.com")
	require.NoError(t, env.vault.StoreToken(ctx, id, cryptox.NewRedactedToken("tok")))

	ok, err := env.accounts.Logout(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	tok, found, err := env.vault.Token(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "tok", tok.Value())

	ok, err = env.accounts.Logout(ctx, "user-missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResetTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "a@b.com")

	_, err := env.accounts.IssueResetToken(ctx, "nobody@b.com")
	require.ErrorIs(t, err, ErrEmailNotFound)

	token, err := env.accounts.IssueResetToken(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, token, 43)

	require.ErrorIs(t, env.accounts.ConsumeResetToken(ctx, token, "short"), ErrPasswordTooShort)
	require.ErrorIs(t, env.accounts.ConsumeResetToken(ctx, "bogus", "brandnewpass"), ErrInvalidResetToken)

	require.NoError(t, env.accounts.ConsumeResetToken(ctx, token, "brandnewpass"))
	require.ErrorIs(t, env.accounts.ConsumeResetToken(ctx, token, "brandnewpass2"), ErrInvalidResetToken)

	_, err = env.accounts.Login(ctx, "a@b.com", "longenough1")
	require.ErrorIs(t, err, ErrInvalidPassword)
	_, err = env.accounts.Login(ctx, "a@b.com", "brandnewpass")
	require.NoError(t, err)

	t.Run("a newer token replaces the older one", func(t *testing.T) {
		first, err := env.accounts.IssueResetToken(ctx, "a@b.com")
		require.NoError(t, err)
		second, err := env.accounts.IssueResetToken(ctx, "a@b.com")
		require.NoError(t, err)

		require.ErrorIs(t, env.accounts.ConsumeResetToken(ctx, first, "anotherpass"), ErrInvalidResetToken)
		require.NoError(t, env.accounts.ConsumeResetToken(ctx, second, "anotherpass"))
	})

	t.Run("expired after the window", func(t *testing.T) {
		token, err := env.accounts.IssueResetToken(ctx, "a@b.com")
		require.NoError(t, err)

		issued := env.clock.now
		env.clock.now = issued.Add(DefaultResetTokenTTL + time.Second)
		defer func() { env.clock.now = issued }()

		require.ErrorIs(t, env.accounts.ConsumeResetToken(ctx, token, "latepassword"), ErrExpiredResetToken)
	})
}
