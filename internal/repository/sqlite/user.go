package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avensio/avensio-web/internal/domain"
	"github.com/google/uuid"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

const userColumns = `id, email, username, password_hash, login_attempts, lock_until, last_login, role, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = "user"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, login_attempts, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		user.ID, user.Email, user.Username, user.PasswordHash, user.Role, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			// Deliberately aggregated: callers must not learn whether the
			// email or the username collided.
			return domain.ErrIdentityExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.LoginAttempts = 0
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}

// FindByEmailOrUsername returns a user matching either identity field. It is
// used only for the pre-creation uniqueness check, so no locking is needed.
func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? OR username = ? LIMIT 1`,
		email, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by email or username: %w", err)
	}
	return user, nil
}

// BeginLogin opens a write transaction and loads the account matching email
// inside it. With the single-connection pool, a second login attempt against
// any account blocks until the first transaction resolves, so attempt
// counting is linearized. (On a server with row locks this query would carry
// FOR UPDATE; SQLite's whole-database write lock is strictly stronger.)
func (r *UserRepository) BeginLogin(ctx context.Context, email string) (domain.LoginTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	user, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &loginTx{tx: tx}, nil
		}
		tx.Rollback()
		return nil, fmt.Errorf("query user for login: %w", err)
	}

	return &loginTx{tx: tx, user: user}, nil
}

type loginTx struct {
	tx   *sql.Tx
	user *domain.User
}

func (l *loginTx) User() *domain.User {
	return l.user
}

func (l *loginTx) RecordFailure(ctx context.Context, attempts int, lockUntil *time.Time) error {
	if l.user == nil {
		return errors.New("no user row in login transaction")
	}
	_, err := l.tx.ExecContext(ctx,
		`UPDATE users SET login_attempts = ?, lock_until = ?, updated_at = ? WHERE id = ?`,
		attempts, nullTime(lockUntil), time.Now().UTC(), l.user.ID,
	)
	if err != nil {
		return fmt.Errorf("update failed attempt: %w", err)
	}
	return nil
}

func (l *loginTx) RecordSuccess(ctx context.Context, now time.Time) error {
	if l.user == nil {
		return errors.New("no user row in login transaction")
	}
	_, err := l.tx.ExecContext(ctx,
		`UPDATE users SET login_attempts = 0, lock_until = NULL, last_login = ?, updated_at = ? WHERE id = ?`,
		now.UTC(), time.Now().UTC(), l.user.ID,
	)
	if err != nil {
		return fmt.Errorf("update successful login: %w", err)
	}
	return nil
}

func (l *loginTx) Commit() error {
	return l.tx.Commit()
}

// Rollback is safe to defer on every path: rolling back an already committed
// transaction is a no-op.
func (l *loginTx) Rollback() error {
	if err := l.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var lockUntil, lastLogin sql.NullTime
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.LoginAttempts, &lockUntil, &lastLogin, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lockUntil.Valid {
		t := lockUntil.Time
		user.LockUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return user, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint
// violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
