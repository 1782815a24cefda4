package service

import "time"

// LockoutPolicy computes lockout transitions from an account's consecutive
// failure count and lock expiry. It is pure: callers pass the current time
// and persist the returned state themselves, which keeps the algorithm
// testable without any I/O.
type LockoutPolicy struct {
	// Threshold is the number of consecutive failures that triggers a lock.
	Threshold int
	// LockDuration is how long a triggered lock lasts.
	LockDuration time.Duration
}

// DefaultLockoutPolicy returns the production policy: five failures lock the
// account for fifteen minutes.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: 5, LockDuration: 15 * time.Minute}
}

// LockoutState mirrors the persisted (login_attempts, lock_until) pair.
// A nil LockUntil means the account is not locked.
type LockoutState struct {
	Attempts  int
	LockUntil *time.Time
}

// Locked reports whether the state is locked at the given instant.
func (p LockoutPolicy) Locked(st LockoutState, now time.Time) bool {
	return st.LockUntil != nil && now.Before(*st.LockUntil)
}

// OnFailure returns the state after one failed attempt at the given instant.
// An expired lock is treated as a clean slate before the failure is counted.
// A still-active lock is returned unchanged: callers must reject locked
// accounts before counting attempts.
func (p LockoutPolicy) OnFailure(st LockoutState, now time.Time) LockoutState {
	if st.LockUntil != nil {
		if now.Before(*st.LockUntil) {
			return st
		}
		st = LockoutState{}
	}
	st.Attempts++
	if st.Attempts >= p.Threshold {
		until := now.Add(p.LockDuration)
		st.LockUntil = &until
	}
	return st
}

// OnSuccess returns the cleared state after a successful authentication.
func (p LockoutPolicy) OnSuccess() LockoutState {
	return LockoutState{}
}

// RemainingAttempts reports how many more failures the state tolerates
// before locking. Only meaningful while unlocked.
func (p LockoutPolicy) RemainingAttempts(st LockoutState) int {
	n := p.Threshold - st.Attempts
	if n < 0 {
		return 0
	}
	return n
}

// RemainingLock reports how much of the lock is left at the given instant.
func (p LockoutPolicy) RemainingLock(st LockoutState, now time.Time) time.Duration {
	if st.LockUntil == nil {
		return 0
	}
	d := st.LockUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
