package ratelimits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildGate(t *testing.T) {
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	gate := NewGuildGate(5 * time.Second)
	gate.now = func() time.Time { return now }

	assert.Equal(t, GuildFree, gate.State("g1"))

	release, state, ok := gate.Acquire("g1")
	require.True(t, ok)
	assert.Equal(t, GuildProcessing, state)

	_, state, ok = gate.Acquire("g1")
	assert.False(t, ok)
	assert.Equal(t, GuildProcessing, state)

	// other guilds are independent
	releaseOther, _, ok := gate.Acquire("g2")
	require.True(t, ok)
	releaseOther()

	release()
	release()
	_, state, ok = gate.Acquire("g1")
	assert.False(t, ok)
	assert.Equal(t, GuildCoolingDown, state)

	now = now.Add(4 * time.Second)
	assert.Equal(t, GuildCoolingDown, gate.State("g1"))

	now = now.Add(time.Second)
	assert.Equal(t, GuildFree, gate.State("g1"))
	_, _, ok = gate.Acquire("g1")
	assert.True(t, ok)
}

func TestGuildStateString(t *testing.T) {
	assert.Equal(t, "free", GuildFree.String())
	assert.Equal(t, "processing", GuildProcessing.String())
	assert.Equal(t, "cooling down", GuildCoolingDown.String())
}

func TestUserBuckets(t *testing.T) {
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	buckets := NewUserBuckets()
	buckets.now = func() time.Time { return now }

	for i := 0; i < BucketInitialFill; i++ {
		require.True(t, buckets.Drain("u1"), "key %d", i)
	}
	assert.False(t, buckets.Drain("u1"))
	assert.True(t, buckets.Drain("u2"))

	now = now.Add(2*DropInterval + time.Second)
	assert.Equal(t, 2, buckets.Keys("u1"))

	now = now.Add(time.Hour)
	assert.Equal(t, BucketUpperBound, buckets.Keys("u1"))
}
