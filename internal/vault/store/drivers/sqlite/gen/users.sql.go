package gen

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

const userColumns = `user_id, email, password_hash, encrypted_token, encrypted_api_key, user_info,
	reset_token, reset_token_expires, created_at, updated_at, last_login, last_logout`

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`

func (q *Queries) GetUserByID(ctx context.Context, userID string) (User, error) {
	var u User
	err := sqlx.GetContext(ctx, q.db, &u, getUserByID, userID)
	return u, err
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := sqlx.GetContext(ctx, q.db, &u, getUserByEmail, email)
	return u, err
}

const getUserByResetToken = `SELECT ` + userColumns + ` FROM users WHERE reset_token = ?`

func (q *Queries) GetUserByResetToken(ctx context.Context, resetToken string) (User, error) {
	var u User
	err := sqlx.GetContext(ctx, q.db, &u, getUserByResetToken, resetToken)
	return u, err
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, user_id`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := sqlx.SelectContext(ctx, q.db, &users, listUsers)
	return users, err
}

const createUser = `INSERT INTO users (user_id, email, password_hash, created_at, updated_at)
VALUES (:user_id, :email, :password_hash, :created_at, :updated_at)`

type CreateUserParams struct {
	UserID       string         `db:"user_id"`
	Email        sql.NullString `db:"email"`
	PasswordHash sql.NullString `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, createUser, arg)
	return err
}

const upsertEncryptedToken = `INSERT INTO users (user_id, encrypted_token, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	encrypted_token = excluded.encrypted_token,
	updated_at = excluded.updated_at`

func (q *Queries) UpsertEncryptedToken(ctx context.Context, userID, ciphertext string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, upsertEncryptedToken, userID, ciphertext, now, now)
	return err
}

const upsertEncryptedApiKey = `INSERT INTO users (user_id, encrypted_api_key, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	encrypted_api_key = excluded.encrypted_api_key,
	updated_at = excluded.updated_at`

func (q *Queries) UpsertEncryptedApiKey(ctx context.Context, userID, ciphertext string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, upsertEncryptedApiKey, userID, ciphertext, now, now)
	return err
}

const upsertUserInfo = `INSERT INTO users (user_id, user_info, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	user_info = excluded.user_info,
	updated_at = excluded.updated_at`

func (q *Queries) UpsertUserInfo(ctx context.Context, userID, userInfo string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, upsertUserInfo, userID, userInfo, now, now)
	return err
}

const updatePasswordHash = `UPDATE users SET password_hash = ?, updated_at = ? WHERE user_id = ?`

func (q *Queries) UpdatePasswordHash(ctx context.Context, passwordHash string, now time.Time, userID string) (sql.Result, error) {
	return q.db.ExecContext(ctx, updatePasswordHash, passwordHash, now, userID)
}

const updateLastLogin = `UPDATE users SET last_login = ?, updated_at = ? WHERE user_id = ?`

func (q *Queries) UpdateLastLogin(ctx context.Context, now time.Time, userID string) (sql.Result, error) {
	return q.db.ExecContext(ctx, updateLastLogin, now, now, userID)
}

const markLoggedOut = `UPDATE users SET last_logout = ?, updated_at = ? WHERE user_id = ?`

func (q *Queries) MarkLoggedOut(ctx context.Context, now time.Time, userID string) (sql.Result, error) {
	return q.db.ExecContext(ctx, markLoggedOut, now, now, userID)
}

const setResetToken = `UPDATE users
SET reset_token = :reset_token, reset_token_expires = :reset_token_expires, updated_at = :updated_at
WHERE user_id = :user_id`

type SetResetTokenParams struct {
	UserID            string    `db:"user_id"`
	ResetToken        string    `db:"reset_token"`
	ResetTokenExpires time.Time `db:"reset_token_expires"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (q *Queries) SetResetToken(ctx context.Context, arg SetResetTokenParams) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, q.db, setResetToken, arg)
}

const consumeResetToken = `UPDATE users
SET password_hash = :password_hash, reset_token = NULL, reset_token_expires = NULL, updated_at = :updated_at
WHERE user_id = :user_id AND reset_token = :reset_token`

type ConsumeResetTokenParams struct {
	UserID       string    `db:"user_id"`
	ResetToken   string    `db:"reset_token"`
	PasswordHash string    `db:"password_hash"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (q *Queries) ConsumeResetToken(ctx context.Context, arg ConsumeResetTokenParams) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, q.db, consumeResetToken, arg)
}

const clearExpiredResetTokens = `UPDATE users
SET reset_token = NULL, reset_token_expires = NULL, updated_at = ?
WHERE reset_token IS NOT NULL AND reset_token_expires < ?`

func (q *Queries) ClearExpiredResetTokens(ctx context.Context, now time.Time) (sql.Result, error) {
	return q.db.ExecContext(ctx, clearExpiredResetTokens, now, now)
}
