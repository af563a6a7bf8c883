package model

import "time"

// DefaultAdminUsername is the username of the bootstrap admin identity.
const DefaultAdminUsername = "admin"

// Admin is the single privileged account allowed to manage the catalog.
// Passwords are stored as bcrypt hashes.
type Admin struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password"` // bcrypt hash, never expose
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
