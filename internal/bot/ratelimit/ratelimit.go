// Package ratelimit gates the random-motto feature with a strict global
// cooldown layered under a per-user cooldown.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks the last granted request globally and per user. Timestamps
// live in process memory for the process lifetime and are not persisted.
type Limiter struct {
	mu      sync.Mutex
	global  time.Duration
	perUser time.Duration
	last    time.Time
	users   map[string]time.Time
}

// New builds a limiter with the given cooldowns.
func New(global, perUser time.Duration) *Limiter {
	return &Limiter{
		global:  global,
		perUser: perUser,
		users:   map[string]time.Time{},
	}
}

// Allow grants a request only when both the global and the user's own
// cooldown have elapsed at the given instant, and records the grant.
// A denied request is simply denied, never queued.
func (l *Limiter) Allow(userID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Before(l.last.Add(l.global)) {
		return false
	}

	if now.Before(l.users[userID].Add(l.perUser)) {
		return false
	}

	l.last = now
	l.users[userID] = now

	return true
}
