package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avensio/avensio-web/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// AuthService composes the password policy, lockout policy, credential store,
// and token service into the signup and login flows.
type AuthService struct {
	users      domain.UserRepository
	policy     *PasswordPolicy
	lockout    LockoutPolicy
	tokens     *TokenService
	bcryptCost int
	dummyHash  []byte
}

// NewAuthService creates an AuthService. A dummy hash is precomputed at the
// configured cost so the unknown-email login path performs the same amount
// of hashing work as a real comparison.
func NewAuthService(users domain.UserRepository, policy *PasswordPolicy, lockout LockoutPolicy, tokens *TokenService, bcryptCost int) (*AuthService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("avensio-timing-equalizer"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("precompute dummy hash: %w", err)
	}
	return &AuthService{
		users:      users,
		policy:     policy,
		lockout:    lockout,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}, nil
}

// Register creates a new account after validating the password against the
// policy and checking identity uniqueness. The uniqueness pre-check is an
// optimization; the store's unique constraint is the source of truth, so a
// concurrent signup racing past the check still maps to ErrIdentityExists.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email, and password are required", domain.ErrInvalidInput)
	}

	if err := s.policy.Validate(password); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmailOrUsername(ctx, email, username)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing identity: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrIdentityExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         "user",
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrIdentityExists) {
			return nil, domain.ErrIdentityExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresIn int64
}

// Login runs the full login state machine: open a write transaction on the
// account row, fail fast while locked, verify the password, apply the
// lockout transition, and issue a token on success.
//
// Failure paths for "no such account" and "wrong password" share the same
// error shape and comparable hashing cost, so neither the response body nor
// its latency reveals whether an email is registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	now := time.Now()

	// The attempt-counting lock must resolve even if the client disconnects
	// mid-flight, so the transaction runs detached from request cancellation.
	txCtx := context.WithoutCancel(ctx)

	tx, err := s.users.BeginLogin(txCtx, email)
	if err != nil {
		return nil, fmt.Errorf("begin login: %w", err)
	}
	defer tx.Rollback()

	user := tx.User()
	if user == nil {
		// Same hashing work as a real comparison. Never special-case this
		// away: it is what keeps unknown emails indistinguishable by timing.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, &domain.InvalidCredentialsError{RemainingAttempts: s.lockout.Threshold - 1}
	}

	state := LockoutState{Attempts: user.LoginAttempts, LockUntil: user.LockUntil}
	if s.lockout.Locked(state, now) {
		// No hashing while locked.
		return nil, &domain.AccountLockedError{RetryAfter: s.lockout.RemainingLock(state, now)}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		next := s.lockout.OnFailure(state, now)
		if err := tx.RecordFailure(txCtx, next.Attempts, next.LockUntil); err != nil {
			return nil, fmt.Errorf("record failed attempt: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit failed attempt: %w", err)
		}
		if s.lockout.Locked(next, now) {
			return nil, &domain.AccountLockedError{RetryAfter: s.lockout.RemainingLock(next, now)}
		}
		return nil, &domain.InvalidCredentialsError{RemainingAttempts: s.lockout.RemainingAttempts(next)}
	}

	if err := tx.RecordSuccess(txCtx, now); err != nil {
		return nil, fmt.Errorf("record successful login: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit successful login: %w", err)
	}

	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now

	token, expiresIn, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{User: user, Token: token, ExpiresIn: expiresIn}, nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
