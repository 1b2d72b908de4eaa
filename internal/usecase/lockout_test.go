package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockoutPolicyReachesThreshold(t *testing.T) {
	policy := NewLockoutPolicy(5, 15*time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	state := LockoutState{}
	for i := 1; i <= 4; i++ {
		state = policy.RegisterFailure(state, now)
		assert.Equal(t, i, state.FailedAttempts)
		assert.Nil(t, state.LockUntil)
		assert.False(t, policy.IsLocked(state, now))
	}

	state = policy.RegisterFailure(state, now)
	assert.Equal(t, 5, state.FailedAttempts)
	require.NotNil(t, state.LockUntil)
	assert.Equal(t, now.Add(15*time.Minute), *state.LockUntil)
	assert.True(t, policy.IsLocked(state, now.Add(14*time.Minute)))
	assert.False(t, policy.IsLocked(state, now.Add(15*time.Minute)))
}

func TestLockoutPolicyExpiredLockRestartsCount(t *testing.T) {
	policy := NewLockoutPolicy(5, 15*time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	state := policy.RegisterFailure(LockoutState{FailedAttempts: 5, LockUntil: &past}, now)
	assert.Equal(t, 1, state.FailedAttempts)
	assert.Nil(t, state.LockUntil)
}

func TestLockoutPolicySuccessResets(t *testing.T) {
	policy := NewLockoutPolicy(5, 15*time.Minute)
	now := time.Now()

	state := policy.RegisterFailure(LockoutState{}, now)
	state = policy.RegisterFailure(state, now)
	require.Equal(t, 2, state.FailedAttempts)

	state = policy.RegisterSuccess()
	assert.True(t, state.IsZero())
}

func TestNewLockoutPolicyDefaults(t *testing.T) {
	policy := NewLockoutPolicy(0, 0)
	assert.Equal(t, DefaultLockoutThreshold, policy.Threshold)
	assert.Equal(t, DefaultLockoutDuration, policy.Duration)
}
