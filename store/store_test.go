package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestRedis(t *testing.T) *Redis {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	logger := logrus.New()
	logger.Out = io.Discard
	s := NewRedis(client, "test:", logger)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestBolt(t *testing.T) *Bolt {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSplitPath(t *testing.T) {
	subtree, key, err := SplitPath(Path("jobs", "check_1"))
	require.NoError(t, err)
	assert.Equal(t, "jobs", subtree)
	assert.Equal(t, "check_1", key)

	for _, path := range []string{"", "/", "/jobs", "/jobs/", "/a/b/c"} {
		_, _, err = SplitPath(path)
		assert.Equal(t, ErrInvalidPath, errors.Cause(err), path)
	}
}

func TestRedisStore(t *testing.T) {
	testStoreCRUD(t, newTestRedis(t))
}

func TestBoltStore(t *testing.T) {
	testStoreCRUD(t, newTestBolt(t))
}

func TestRedisSubscribe(t *testing.T) {
	testStoreSubscribe(t, newTestRedis(t))
}

func TestBoltSubscribe(t *testing.T) {
	testStoreSubscribe(t, newTestBolt(t))
}

func testStoreCRUD(t *testing.T, s Store) {
	ctx := context.Background()

	var record testRecord
	err := s.Get(ctx, "/records/a", &record)
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	err = s.Update(ctx, "/records/a", map[string]interface{}{"count": 1})
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	require.NoError(t, s.Set(ctx, "/records/a", testRecord{Name: "alpha", Count: 1}))
	require.NoError(t, s.Set(ctx, "/records/b", testRecord{Name: "beta", Count: 2}))

	require.NoError(t, s.Get(ctx, "/records/a", &record))
	assert.Equal(t, testRecord{Name: "alpha", Count: 1}, record)

	require.NoError(t, s.Update(ctx, "/records/a", map[string]interface{}{"count": 5}))
	require.NoError(t, s.Get(ctx, "/records/a", &record))
	assert.Equal(t, testRecord{Name: "alpha", Count: 5}, record)

	children, err := s.List(ctx, "records")
	require.NoError(t, err)
	assert.Len(t, children, 2)
	assert.Contains(t, children, "b")

	require.NoError(t, s.Remove(ctx, "/records/a"))
	require.NoError(t, s.Remove(ctx, "/records/a"))
	err = s.Get(ctx, "/records/a", &record)
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	children, err = s.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func testStoreSubscribe(t *testing.T, s Store) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Set(ctx, "/records/existing", testRecord{Name: "old"}))

	events := make(chan Event, 16)
	require.NoError(t, s.Subscribe(ctx, "records", func(event Event) {
		events <- event
	}))

	next := func() Event {
		select {
		case event := <-events:
			return event
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for store event")
		}
		return Event{}
	}

	event := next()
	assert.Equal(t, ChildAdded, event.Kind)
	assert.Equal(t, "existing", event.Key)

	require.NoError(t, s.Set(ctx, "/records/new", testRecord{Name: "new", Count: 3}))
	event = next()
	assert.Equal(t, ChildAdded, event.Kind)
	assert.Equal(t, "records", event.Subtree)
	var record testRecord
	require.NoError(t, event.Decode(&record))
	assert.Equal(t, 3, record.Count)

	require.NoError(t, s.Set(ctx, "/records/new", testRecord{Name: "new", Count: 4}))
	event = next()
	assert.Equal(t, ChildChanged, event.Kind)

	require.NoError(t, s.Remove(ctx, "/records/new"))
	event = next()
	assert.Equal(t, ChildRemoved, event.Kind)
	assert.Equal(t, "new", event.Key)
	assert.Empty(t, event.Value)
}
