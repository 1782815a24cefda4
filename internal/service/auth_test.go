package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/avensio/avensio-web/internal/domain"
	"github.com/avensio/avensio-web/internal/repository/sqlite"
	"github.com/avensio/avensio-web/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-32ch"

// newTestAuthService builds an AuthService over a real temp-file database.
// Bcrypt cost 4 keeps the hashing fast while preserving the real code path.
func newTestAuthService(t *testing.T, lockout service.LockoutPolicy) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens := service.NewTokenService([]byte(testJWTSecret), "avensio-test", time.Hour)
	auth, err := service.NewAuthService(db.Users(), service.NewPasswordPolicy(), lockout, tokens, 4)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return auth, db
}

func defaultTestLockout() service.LockoutPolicy {
	return service.LockoutPolicy{Threshold: 5, LockDuration: 15 * time.Minute}
}

func TestAuthService_Register_Success(t *testing.T) {
	auth, _ := newTestAuthService(t, defaultTestLockout())
	ctx := context.Background()

	user, err := auth.Register(ctx, "newuser", "new@example.com", "Sk9#mQplxZvy")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.ID == "" {
		t.Fatal("expected user ID to be set")
	}
	if user.Email != "new@example.com" {
		t.Fatalf("expected email new@example.com, got %s", user.Email)
	}
	if user.Role != "user" {
		t.Fatalf("expected default role user, got %s", user.Role)
	}
	if user.LoginAttempts != 0 {
		t.Fatalf("expected 0 login attempts, got %d", user.LoginAttempts)
	}
}

func TestAuthService_Register_NormalizesEmail(t *testing.T) {
	auth, _ := newTestAuthService(t, defaultTestLockout())
	ctx := context.Background()

	user, err := auth.Register(ctx, "caseuser", "  Case@Example.COM ", "Sk9#mQplxZvy")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "case@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}

	// Login with the original casing still works.
	if _, err := auth.Login(ctx, "Case@Example.COM", "Sk9#mQplxZvy"); err != nil {
		t.Fatalf("Login with unnormalized email: %v", err)
	}
}

func TestAuthService_Register_PolicyViolation(t *testing.T) {
	auth, _ := newTestAuthService(t, defaultTestLockout())
	ctx := context.Background()

	_, err := auth.Register(ctx, "weakuser", "weak@example.com", "Password123!")
	var violation *domain.PolicyViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected PolicyViolation, got %v", err)
	}
	if violation.Rule != domain.RuleTooCommon {
		t.Fatalf("expected TOO_COMMON, got %s", violation.Rule)
	}
}

func TestAuthService_Register_DuplicateIdentity(t *testing.T) {
	auth, _ := newTestAuthService(t, defaultTestLockout())
	ctx := context.Background()

	if _, err := auth.Register(ctx, "original", "dup@example.com", "Sk9#mQplxZvy"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	// Same email, different username.
	_, err := auth.Register(ctx, "other", "dup@example.com", "Sk9#mQplxZvy")
	if !errors.Is(err, domain.ErrIdentityExists) {
		t.Fatalf("expected ErrIdentityExists for email collision, got %v", err)
	}

	// Same username, different email.
	_, err = auth.Register(ctx, "original", "other@example.com", "Sk9#mQplxZvy")
	if !errors.Is(err, domain.ErrIdentityExists) {
		t.Fatalf("expected ErrIdentityExists for username collision, got %v", err)
	}
}

func TestAuthService_Register_EmptyFields(t *testing.T) {
	auth, _ := newTestAuthService(t, defaultTestLockout())
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@b.com", "Sk9#mQplxZvy"},
		{"empty email", "name", "", "Sk9#mQplxZvy"},
		{"empty password", "name", "a@b.com", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.username, tc.email, tc.password)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	auth, db := newTestAuthService(t, defaultTestLockout())
	ctx := context.Background()

	registered, err := auth.Register(ctx, "loginuser", "login@example.com", "Sk9#mQplxZvy")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	result, err := auth.Login(ctx, "login@example.com", "Sk9#mQplxZvy")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected non-empty token")
	}
	if result.ExpiresIn != 3600 {
		t.Fatalf("expected expiresIn 3600, got %d", result.ExpiresIn)
	}
	if result.User.ID != registered.ID {
		t.Fatalf("expected user %s, got %s", registered.ID, result.User.ID)
	}

	stored, err := db.Users().GetByID(ctx, registered.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.LastLogin == nil {
		t.Fatal("expected lastLogin to be set after successful login")
	}
	if stored.LoginAttempts != 0 {
		t.Fatalf("expected 0 attempts after success, got %d", stored.LoginAttempts)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	auth, db := newTestAuthService(t, defaultTestLockout())
	ctx := context.Background()

	user, err := auth.Register(ctx, "wrongpw", "wrongpw@example.com", "Sk9#mQplxZvy")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = auth.Login(ctx, "wrongpw@example.com", "not-the-password")
	var invalid *domain.InvalidCredentialsError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidCredentialsError, got %v", err)
	}
	if invalid.RemainingAttempts != 4 {
		t.Fatalf("expected 4 remaining attempts, got %d", invalid.RemainingAttempts)
	}

	stored, err := db.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.LoginAttempts != 1 {
		t.Fatalf("expected 1 persisted attempt, got %d", stored.LoginAttempts)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	auth, _ := newTestAuthService(t, defaultTestLockout())
	ctx := context.Background()

	_, err := auth.Login(ctx, "nobody@example.com", "Sk9#mQplxZvy")
	var invalid *domain.InvalidCredentialsError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidCredentialsError, got %v", err)
	}
}

func TestAuthService_Login_LockoutSequence(t *testing.T) {
	auth, db := newTestAuthService(t, defaultTestLockout())
	ctx := context.Background()

	user, err := auth.Register(ctx, "lockme", "lockme@example.com", "Sk9#mQplxZvy")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Four failures leave the account unlocked with a shrinking allowance.
	for i := 1; i <= 4; i++ {
		_, err := auth.Login(ctx, "lockme@example.com", "wrong-password")
		var invalid *domain.InvalidCredentialsError
		if !errors.As(err, &invalid) {
			t.Fatalf("attempt %d: expected InvalidCredentialsError, got %v", i, err)
		}
		if invalid.RemainingAttempts != 5-i {
			t.Fatalf("attempt %d: expected %d remaining, got %d", i, 5-i, invalid.RemainingAttempts)
		}
	}

	// The fifth failure trips the lock.
	_, err = auth.Login(ctx, "lockme@example.com", "wrong-password")
	var locked *domain.AccountLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("expected AccountLockedError on fifth failure, got %v", err)
	}
	if locked.RetryAfterSeconds() <= 0 {
		t.Fatalf("expected positive retry-after, got %d", locked.RetryAfterSeconds())
	}

	// Even the correct password is rejected while locked.
	_, err = auth.Login(ctx, "lockme@example.com", "Sk9#mQplxZvy")
	if !errors.As(err, &locked) {
		t.Fatalf("expected AccountLockedError with correct password, got %v", err)
	}

	stored, err := db.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.LoginAttempts != 5 {
		t.Fatalf("expected 5 persisted attempts, got %d", stored.LoginAttempts)
	}
	if stored.LockUntil == nil {
		t.Fatal("expected persisted lockUntil")
	}
}

func TestAuthService_Login_LockExpires(t *testing.T) {
	lockout := service.LockoutPolicy{Threshold: 2, LockDuration: 60 * time.Millisecond}
	auth, db := newTestAuthService(t, lockout)
	ctx := context.Background()

	user, err := auth.Register(ctx, "expiry", "expiry@example.com", "Sk9#mQplxZvy")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < 2; i++ {
		auth.Login(ctx, "expiry@example.com", "wrong-password")
	}

	_, err = auth.Login(ctx, "expiry@example.com", "Sk9#mQplxZvy")
	var locked *domain.AccountLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("expected AccountLockedError, got %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	// After the lock elapses, the correct password succeeds and the counter
	// resets to zero.
	if _, err := auth.Login(ctx, "expiry@example.com", "Sk9#mQplxZvy"); err != nil {
		t.Fatalf("Login after lock expiry: %v", err)
	}

	stored, err := db.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.LoginAttempts != 0 {
		t.Fatalf("expected attempts reset to 0, got %d", stored.LoginAttempts)
	}
	if stored.LockUntil != nil {
		t.Fatal("expected lock to be cleared")
	}
}

// Concurrent failed logins against the same account must each be counted:
// the attempt counter serializes on the login transaction, so no increment
// is lost.
func TestAuthService_Login_ConcurrentFailuresNotLost(t *testing.T) {
	auth, db := newTestAuthService(t, defaultTestLockout())
	ctx := context.Background()

	user, err := auth.Register(ctx, "racer", "racer@example.com", "Sk9#mQplxZvy")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	const parallel = 4
	var wg sync.WaitGroup
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			auth.Login(ctx, "racer@example.com", "wrong-password")
		}()
	}
	wg.Wait()

	stored, err := db.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.LoginAttempts != parallel {
		t.Fatalf("expected exactly %d attempts, got %d (lost update)", parallel, stored.LoginAttempts)
	}
}

// The unknown-email and wrong-password paths must be indistinguishable: same
// error shape, and comparable latency because both run a bcrypt comparison.
func TestAuthService_Login_UnknownEmailTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("timing measurement skipped in short mode")
	}

	// High threshold so repeated sampling never trips the lock.
	auth, _ := newTestAuthService(t, service.LockoutPolicy{Threshold: 1000, LockDuration: 15 * time.Minute})
	ctx := context.Background()

	if _, err := auth.Register(ctx, "timing", "timing@example.com", "Sk9#mQplxZvy"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	measure := func(email string) time.Duration {
		const samples = 15
		durations := make([]time.Duration, 0, samples)
		for i := 0; i < samples; i++ {
			start := time.Now()
			_, err := auth.Login(ctx, email, "definitely-wrong")
			elapsed := time.Since(start)

			var invalid *domain.InvalidCredentialsError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidCredentialsError for %s, got %v", email, err)
			}
			durations = append(durations, elapsed)
		}
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		return durations[len(durations)/2]
	}

	unknown := measure("ghost@example.com")
	known := measure("timing@example.com")

	// Generous bounds: the point is that the unknown path is not orders of
	// magnitude faster because it skipped hashing.
	if unknown*5 < known {
		t.Fatalf("unknown-email path too fast: unknown=%v known=%v", unknown, known)
	}
	if known*5 < unknown {
		t.Fatalf("known-email path too fast: unknown=%v known=%v", unknown, known)
	}
}
