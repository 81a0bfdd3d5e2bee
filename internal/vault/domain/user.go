package domain

import "time"

// User is the single durable record the vault keeps per identity. A record
// created by a handshake before registration has no Email or PasswordHash.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	EncryptedToken    string
	EncryptedAPIKey   string
	ProfileJSON       string
	ResetTokenHash    string
	ResetTokenExpires *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastLogin         *time.Time
	LastLogout        *time.Time
}

// Registered reports whether the record carries login credentials.
func (u User) Registered() bool {
	return u.Email != "" && u.PasswordHash != ""
}

func (u User) HasToken() bool   { return u.EncryptedToken != "" }
func (u User) HasAPIKey() bool  { return u.EncryptedAPIKey != "" }
func (u User) HasProfile() bool { return u.ProfileJSON != "" }
