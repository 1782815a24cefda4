package domain

import (
	"context"
	"time"
)

// User represents a registered account. PasswordHash never leaves the
// repository and service layers.
type User struct {
	ID            string
	Email         string
	Username      string
	PasswordHash  string
	LoginAttempts int
	LockUntil     *time.Time
	LastLogin     *time.Time
	Role          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
	BeginLogin(ctx context.Context, email string) (LoginTx, error)
}

// LoginTx is an open write transaction holding the user row for the duration
// of a single login attempt. Concurrent attempts against the same account
// serialize on it, so attempt counting cannot lose updates. Callers must
// resolve the transaction with Commit or Rollback on every path.
type LoginTx interface {
	// User returns the row loaded inside the transaction, or nil when no
	// account matches the email.
	User() *User
	RecordFailure(ctx context.Context, attempts int, lockUntil *time.Time) error
	RecordSuccess(ctx context.Context, now time.Time) error
	Commit() error
	Rollback() error
}
