package gen

import (
	"database/sql"
)

// User mirrors the users table. The profile cache lives in the user_info
// column for compatibility with databases created before versioned
// migrations existed.
type User struct {
	UserID            string         `db:"user_id"`
	Email             sql.NullString `db:"email"`
	PasswordHash      sql.NullString `db:"password_hash"`
	EncryptedToken    sql.NullString `db:"encrypted_token"`
	EncryptedApiKey   sql.NullString `db:"encrypted_api_key"`
	UserInfo          sql.NullString `db:"user_info"`
	ResetToken        sql.NullString `db:"reset_token"`
	ResetTokenExpires sql.NullTime   `db:"reset_token_expires"`
	CreatedAt         sql.NullTime   `db:"created_at"`
	UpdatedAt         sql.NullTime   `db:"updated_at"`
	LastLogin         sql.NullTime   `db:"last_login"`
	LastLogout        sql.NullTime   `db:"last_logout"`
}
