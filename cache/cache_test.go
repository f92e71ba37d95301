package cache

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}

func newTestStore(t *testing.T) store.Store {
	s, err := store.OpenBolt(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMirrorFollowsStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newTestStore(t)
	first := models.Job{ClientID: "a", ExecuteAt: 2000}
	require.NoError(t, s.Set(ctx, store.Path(models.JobsTable, "check_1"), first))

	mirror := NewMirror(newTestLogger())
	require.NoError(t, mirror.Attach(ctx, s))

	job, ok := mirror.Job("check_1")
	require.True(t, ok)
	assert.Equal(t, first, job)

	second := models.Job{ClientID: "a", ExecuteAt: 1000}
	require.NoError(t, s.Set(ctx, store.Path(models.JobsTable, "raffle_2"), second))
	require.NoError(t, s.Set(ctx, store.Path(models.BansTable, "u1"), models.Ban{Reason: "spam"}))
	require.NoError(t, s.Set(ctx, store.Path(models.RemindSettingsTable, "g1"), models.RemindSettings{Mention: true}))

	jobs := mirror.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "raffle_2", jobs[0].Key)
	assert.Equal(t, "check_1", jobs[1].Key)

	assert.True(t, mirror.IsBanned("g9", "u1"))
	assert.False(t, mirror.IsBanned("u2"))
	assert.True(t, mirror.RemindSettings("g1").Mention)
	assert.False(t, mirror.RemindSettings("g2").Mention)

	require.NoError(t, s.Remove(ctx, store.Path(models.JobsTable, "check_1")))
	_, ok = mirror.Job("check_1")
	assert.False(t, ok)
}

func TestMirrorIgnoresMalformedEvents(t *testing.T) {
	mirror := NewMirror(newTestLogger())
	mirror.ApplyValue(models.JobsTable, "check_1", models.Job{ExecuteAt: 5})

	var seen []store.Event
	mirror.OnChange(func(event store.Event) { seen = append(seen, event) })

	mirror.Apply(store.Event{Kind: store.ChildChanged, Subtree: models.JobsTable, Key: "check_1", Value: []byte("{")})
	mirror.Apply(store.Event{Kind: store.ChildAdded, Subtree: "unknown", Key: "x", Value: []byte("{}")})

	job, ok := mirror.Job("check_1")
	require.True(t, ok)
	assert.EqualValues(t, 5, job.ExecuteAt)
	assert.Empty(t, seen)

	mirror.ApplyRemove(models.JobsTable, "check_1")
	require.Len(t, seen, 1)
	assert.Equal(t, store.ChildRemoved, seen[0].Kind)
}

func TestMirrorOrdersEqualDueTimesByKey(t *testing.T) {
	mirror := NewMirror(newTestLogger())
	mirror.ApplyValue(models.JobsTable, "raffle_1", models.Job{ExecuteAt: 10})
	mirror.ApplyValue(models.JobsTable, "check_1", models.Job{ExecuteAt: 10})

	jobs := mirror.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "check_1", jobs[0].Key)
	assert.Equal(t, "raffle_1", jobs[1].Key)
}

func TestSettingsCacheCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	settings := NewSettingsCache(s, time.Minute)

	got, err := settings.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, models.GuildSettings{}.Default(), got)

	var stored models.GuildSettings
	require.NoError(t, s.Get(ctx, store.Path(models.GuildSettingsTable, "g1"), &stored))
	assert.Equal(t, got, stored)
}

func TestSettingsCacheExpires(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	settings := NewSettingsCache(s, time.Minute)

	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	settings.now = func() time.Time { return now }

	updated := models.GuildSettings{}.Default()
	updated.Prefix = "!"
	require.NoError(t, settings.Set(ctx, "g1", updated))

	// written behind the cache's back
	remote := updated
	remote.Prefix = "?"
	require.NoError(t, s.Set(ctx, store.Path(models.GuildSettingsTable, "g1"), remote))

	got, err := settings.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "!", got.Prefix)

	now = now.Add(2 * time.Minute)
	got, err = settings.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "?", got.Prefix)
}

func TestSettingsCacheInvalidatedByMirror(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newTestStore(t)
	settings := NewSettingsCache(s, time.Hour)
	mirror := NewMirror(newTestLogger())
	mirror.OnChange(settings.OnStoreEvent)
	require.NoError(t, mirror.Attach(ctx, s))

	_, err := settings.Get(ctx, "g1")
	require.NoError(t, err)

	remote := models.GuildSettings{}.Default()
	remote.Locale = "zh-TW"
	require.NoError(t, s.Set(ctx, store.Path(models.GuildSettingsTable, "g1"), remote))

	got, err := settings.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "zh-TW", got.Locale)
}
