package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mottoworks/botto/internal/bot/ratelimit"
)

func TestAllowFirstRequest(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(5*time.Minute, 30*time.Minute)

	assert.True(t, limiter.Allow("alice", time.Now()))
}

func TestGlobalCooldownBlocksEveryone(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(5*time.Minute, 30*time.Minute)
	now := time.Now()

	assert.True(t, limiter.Allow("alice", now))
	assert.False(t, limiter.Allow("bob", now.Add(time.Minute)), "global cooldown applies to other users")
	assert.True(t, limiter.Allow("bob", now.Add(6*time.Minute)))
}

func TestPerUserCooldownOutlastsGlobal(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(5*time.Minute, 30*time.Minute)
	now := time.Now()

	assert.True(t, limiter.Allow("alice", now))
	assert.False(t, limiter.Allow("alice", now.Add(10*time.Minute)),
		"the user's own cooldown still applies after the global one has elapsed")
	assert.True(t, limiter.Allow("alice", now.Add(31*time.Minute)))
}

func TestDenialDoesNotExtendCooldowns(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(5*time.Minute, 30*time.Minute)
	now := time.Now()

	assert.True(t, limiter.Allow("alice", now))

	// Hammering during the cooldown must not push the window out.
	for i := 1; i <= 4; i++ {
		assert.False(t, limiter.Allow("bob", now.Add(time.Duration(i)*time.Minute)))
	}

	assert.True(t, limiter.Allow("bob", now.Add(6*time.Minute)))
}

func TestGrantUpdatesBothWindows(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(5*time.Minute, 30*time.Minute)
	now := time.Now()

	assert.True(t, limiter.Allow("alice", now))
	assert.True(t, limiter.Allow("bob", now.Add(6*time.Minute)))
	assert.False(t, limiter.Allow("carol", now.Add(10*time.Minute)),
		"bob's grant restarted the global cooldown")
}
