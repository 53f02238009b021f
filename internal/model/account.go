// Package model defines the data structures used throughout the application.
package model

import "time"

// Account represents a registered user account.
//
// The ID is an internal string ID (xid) generated by the repository on
// insert and never changes afterwards. Email is unique across all accounts —
// the store enforces this with a UNIQUE constraint, and the service checks
// it again before signup so callers get a clean duplicate error instead of a
// failed insert on the common path.
//
// WHY IS PasswordHash NEVER SERIALIZED?
// PasswordHash holds the bcrypt output, never the plaintext. The `json:"-"`
// tag keeps it out of every API response — handlers encode model.Account
// directly, so a forgotten field here would leak hashes to clients.
type Account struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// AuthResult is returned by the authentication operations.
//
// Signup returns both the new account and its token. Login returns only the
// token — the caller already knows who they logged in as, and the token's
// subject carries the account ID for anything that needs it.
type AuthResult struct {
	Account *Account `json:"account,omitempty"`
	Token   string   `json:"token"`
}
