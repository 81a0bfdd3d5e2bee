package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/internal/vault/store"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/aussiebroadwan/credvault/pkg/slogx"
	"github.com/google/uuid"
)

const (
	MinPasswordLength    = 8
	DefaultResetTokenTTL = 24 * time.Hour
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUserID returns a fresh opaque user identifier.
func NewUserID() string {
	return "user-" + uuid.NewString()
}

// AccountService owns registration, login and password recovery.
type AccountService struct {
	Store         store.Store
	Status        *StatusBridge
	ResetTokenTTL time.Duration
	Now           func() time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ResetTTL is the lifetime of newly issued reset tokens.
func (s *AccountService) ResetTTL() time.Duration {
	if s.ResetTokenTTL > 0 {
		return s.ResetTokenTTL
	}
	return DefaultResetTokenTTL
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Register creates a user with email and password and returns its id. The
// email uniqueness check is the unique index itself, so two concurrent
// registrations cannot both succeed.
func (s *AccountService) Register(ctx context.Context, email, password string) (string, error) {
	l := slogx.FromContext(ctx)

	email = NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return "", err
	}

	userID := NewUserID()
	err = s.Store.Users().CreateUser(ctx, domain.User{
		ID:           userID,
		Email:        email,
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		l.Info("registration rejected, email taken")
		return "", ErrDuplicateEmail
	}
	if err != nil {
		return "", err
	}

	l.Info("user registered", slog.String("user_id", userID))
	return userID, nil
}

// Login verifies credentials in constant time, records last_login and
// returns the user's durable status. Legacy sha256 hashes are upgraded on
// the way through.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return domain.LoginResult{}, ErrEmailNotFound
	}
	if err != nil {
		return domain.LoginResult{}, err
	}

	switch err := cryptox.VerifyPassword(password, u.PasswordHash); {
	case errors.Is(err, cryptox.ErrPasswordFormat):
		l.Warn("stored password hash is malformed", slog.String("user_id", u.ID))
		return domain.LoginResult{}, ErrCorruptPasswordFormat
	case errors.Is(err, cryptox.ErrPasswordMismatch):
		return domain.LoginResult{}, ErrInvalidPassword
	case err != nil:
		return domain.LoginResult{}, err
	}

	if cryptox.NeedsRehash(u.PasswordHash) {
		if hash, err := cryptox.HashPassword(password); err == nil {
			if err := s.Store.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
				l.Error("failed to upgrade legacy password hash", slog.String("user_id", u.ID), slog.Any("error", err))
			} else {
				l.Info("upgraded legacy password hash", slog.String("user_id", u.ID))
			}
		}
	}

	if err := s.Store.Users().UpdateLastLogin(ctx, u.ID); err != nil {
		return domain.LoginResult{}, err
	}

	status, err := s.Status.Status(ctx, u.ID)
	if err != nil {
		return domain.LoginResult{}, err
	}

	l.Info("user logged in", slog.String("user_id", u.ID))
	return domain.LoginResult{UserID: u.ID, Status: status}, nil
}

// Logout records the logout. Stored token and API key are kept so the next
// login does not need a new handshake. It reports whether the user existed.
func (s *AccountService) Logout(ctx context.Context, userID string) (bool, error) {
	err := s.Store.Users().MarkLoggedOut(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	slogx.FromContext(ctx).Info("user logged out, credentials preserved", slog.String("user_id", userID))
	return true, nil
}

// IssueResetToken mints a single-use password reset token, replacing any
// earlier one. Only its fingerprint is stored.
func (s *AccountService) IssueResetToken(ctx context.Context, email string) (string, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrEmailNotFound
	}
	if err != nil {
		return "", err
	}

	token, err := cryptox.NewResetToken()
	if err != nil {
		return "", err
	}

	expires := s.now().Add(s.ResetTTL())
	if err := s.Store.Users().SetResetToken(ctx, u.ID, token.Fingerprint, expires); err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("reset token issued",
		slog.String("user_id", u.ID),
		slog.Time("expires_at", expires),
	)
	return token.Value.Value(), nil
}

// ConsumeResetToken replaces the password of the token's owner and clears
// the token in one conditional update. A token works at most once.
func (s *AccountService) ConsumeResetToken(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	fingerprint := cryptox.FingerprintToken(token)

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByResetTokenHash(ctx, fingerprint)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return err
		}

		if u.ResetTokenExpires != nil && s.now().After(*u.ResetTokenExpires) {
			return ErrExpiredResetToken
		}

		hash, err := cryptox.HashPassword(newPassword)
		if err != nil {
			return err
		}

		err = tx.Users().ConsumeResetToken(ctx, u.ID, fingerprint, hash)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return err
		}

		slogx.FromContext(ctx).Info("password reset", slog.String("user_id", u.ID))
		return nil
	})
}
