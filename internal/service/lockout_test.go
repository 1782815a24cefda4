package service_test

import (
	"testing"
	"time"

	"github.com/avensio/avensio-web/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockoutPolicy_OnFailure_CountsUpToThreshold(t *testing.T) {
	policy := service.LockoutPolicy{Threshold: 5, LockDuration: 15 * time.Minute}
	now := time.Now()

	st := service.LockoutState{}
	for i := 1; i < 5; i++ {
		st = policy.OnFailure(st, now)
		assert.Equal(t, i, st.Attempts)
		assert.Nil(t, st.LockUntil, "attempt %d must not lock", i)
		assert.Equal(t, 5-i, policy.RemainingAttempts(st))
	}

	// The fifth failure triggers the lock.
	st = policy.OnFailure(st, now)
	assert.Equal(t, 5, st.Attempts)
	require.NotNil(t, st.LockUntil)
	assert.Equal(t, now.Add(15*time.Minute), *st.LockUntil)
	assert.True(t, policy.Locked(st, now))
}

func TestLockoutPolicy_OnFailure_ActiveLockUnchanged(t *testing.T) {
	policy := service.LockoutPolicy{Threshold: 5, LockDuration: 15 * time.Minute}
	now := time.Now()
	until := now.Add(10 * time.Minute)

	st := service.LockoutState{Attempts: 5, LockUntil: &until}
	next := policy.OnFailure(st, now)

	// Still locked: the attempt is not counted.
	assert.Equal(t, st, next)
	assert.True(t, policy.Locked(next, now))
}

func TestLockoutPolicy_OnFailure_LazyExpiry(t *testing.T) {
	policy := service.LockoutPolicy{Threshold: 5, LockDuration: 15 * time.Minute}
	now := time.Now()
	expired := now.Add(-time.Second)

	st := service.LockoutState{Attempts: 5, LockUntil: &expired}
	next := policy.OnFailure(st, now)

	// The expired lock resets the counter before the failure is applied.
	assert.Equal(t, 1, next.Attempts)
	assert.Nil(t, next.LockUntil)
	assert.False(t, policy.Locked(next, now))
}

func TestLockoutPolicy_OnFailure_ExpiryBoundary(t *testing.T) {
	policy := service.LockoutPolicy{Threshold: 5, LockDuration: 15 * time.Minute}
	now := time.Now()

	// now == until counts as expired: Locked requires now < until.
	until := now
	st := service.LockoutState{Attempts: 5, LockUntil: &until}
	assert.False(t, policy.Locked(st, now))

	next := policy.OnFailure(st, now)
	assert.Equal(t, 1, next.Attempts)
}

func TestLockoutPolicy_OnSuccess_ResetsUnconditionally(t *testing.T) {
	policy := service.LockoutPolicy{Threshold: 5, LockDuration: 15 * time.Minute}

	st := policy.OnSuccess()
	assert.Equal(t, service.LockoutState{}, st)
	assert.Equal(t, 5, policy.RemainingAttempts(st))
}

func TestLockoutPolicy_RemainingLock(t *testing.T) {
	policy := service.LockoutPolicy{Threshold: 5, LockDuration: 15 * time.Minute}
	now := time.Now()

	assert.Equal(t, time.Duration(0), policy.RemainingLock(service.LockoutState{}, now))

	until := now.Add(90 * time.Second)
	st := service.LockoutState{Attempts: 5, LockUntil: &until}
	assert.Equal(t, 90*time.Second, policy.RemainingLock(st, now))

	// A lock in the past never reports negative time.
	past := now.Add(-time.Minute)
	st = service.LockoutState{Attempts: 5, LockUntil: &past}
	assert.Equal(t, time.Duration(0), policy.RemainingLock(st, now))
}

func TestDefaultLockoutPolicy(t *testing.T) {
	policy := service.DefaultLockoutPolicy()
	assert.Equal(t, 5, policy.Threshold)
	assert.Equal(t, 15*time.Minute, policy.LockDuration)
}
