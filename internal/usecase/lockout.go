package usecase

import "time"

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutState is the persisted failed-login bookkeeping of a principal.
type LockoutState struct {
	FailedAttempts int
	LockUntil      *time.Time
}

func (s LockoutState) IsZero() bool {
	return s.FailedAttempts == 0 && s.LockUntil == nil
}

// LockoutPolicy is a pure state machine; callers persist what it returns.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

func NewLockoutPolicy(threshold int, duration time.Duration) LockoutPolicy {
	if threshold < 1 {
		threshold = DefaultLockoutThreshold
	}
	if duration <= 0 {
		duration = DefaultLockoutDuration
	}
	return LockoutPolicy{Threshold: threshold, Duration: duration}
}

// IsLocked reports whether the lock is set and still in the future.
func (p LockoutPolicy) IsLocked(s LockoutState, now time.Time) bool {
	return s.LockUntil != nil && s.LockUntil.After(now)
}

// RegisterFailure counts a failed attempt. An expired lock restarts the count.
func (p LockoutPolicy) RegisterFailure(s LockoutState, now time.Time) LockoutState {
	next := LockoutState{FailedAttempts: s.FailedAttempts + 1, LockUntil: s.LockUntil}
	if s.LockUntil != nil && s.LockUntil.Before(now) {
		next = LockoutState{FailedAttempts: 1}
	}

	if next.FailedAttempts >= p.Threshold {
		until := now.Add(p.Duration)
		next.LockUntil = &until
	}
	return next
}

// RegisterSuccess returns the zero state.
func (p LockoutPolicy) RegisterSuccess() LockoutState {
	return LockoutState{}
}
