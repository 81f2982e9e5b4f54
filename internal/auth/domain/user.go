package domain

import "time"

// User is a principal that can log in with a password.
type User struct {
	ID           int64
	Username     string
	PasswordHash string   // argon2id PHC string
	Roles        []string // role names as stored, not yet normalized
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
