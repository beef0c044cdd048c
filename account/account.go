// Package account stores the users allowed to log in.
package account

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrExists   = errors.New("user already exists")
)

// User is a login identity. PasswordHash is an argon2id PHC string.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
}

// Store looks up and creates users.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	// UpdatePasswordHash replaces the stored hash of user id.
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
