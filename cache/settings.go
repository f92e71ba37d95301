package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/store"
	"github.com/pkg/errors"
)

// DefaultSettingsTimeout is how long a cached guild settings entry is valid
const DefaultSettingsTimeout = 5 * time.Minute

// SettingsCache keeps guild settings read through from the store.
// Missing settings are created with defaults on first read.
type SettingsCache struct {
	store   store.Store
	timeout time.Duration
	now     func() time.Time

	sync.Mutex
	settings map[string]models.GuildSettings
	fetched  map[string]time.Time
}

func NewSettingsCache(s store.Store, timeout time.Duration) *SettingsCache {
	if timeout <= 0 {
		timeout = DefaultSettingsTimeout
	}

	return &SettingsCache{
		store:    s,
		timeout:  timeout,
		now:      time.Now,
		settings: make(map[string]models.GuildSettings),
		fetched:  make(map[string]time.Time),
	}
}

// Get returns the settings of $guildID
func (c *SettingsCache) Get(ctx context.Context, guildID string) (models.GuildSettings, error) {
	c.Lock()
	settings, ok := c.settings[guildID]
	fresh := ok && c.now().Sub(c.fetched[guildID]) < c.timeout
	c.Unlock()

	if fresh {
		return settings, nil
	}

	path := store.Path(models.GuildSettingsTable, guildID)
	err := c.store.Get(ctx, path, &settings)
	if errors.Cause(err) == store.ErrNotFound {
		settings = models.GuildSettings{}.Default()
		err = c.store.Set(ctx, path, settings)
	}
	if err != nil {
		return models.GuildSettings{}, errors.Wrapf(err, "loading settings of guild %s", guildID)
	}

	c.put(guildID, settings)
	return settings, nil
}

// Set writes $settings to the store, then to the cache
func (c *SettingsCache) Set(ctx context.Context, guildID string, settings models.GuildSettings) error {
	err := c.store.Set(ctx, store.Path(models.GuildSettingsTable, guildID), settings)
	if err != nil {
		return errors.Wrapf(err, "saving settings of guild %s", guildID)
	}

	c.put(guildID, settings)
	return nil
}

func (c *SettingsCache) put(guildID string, settings models.GuildSettings) {
	c.Lock()
	c.settings[guildID] = settings
	c.fetched[guildID] = c.now()
	c.Unlock()
}

// Invalidate drops the cached entry of $guildID
func (c *SettingsCache) Invalidate(guildID string) {
	c.Lock()
	delete(c.settings, guildID)
	delete(c.fetched, guildID)
	c.Unlock()
}

// OnStoreEvent is registered on the Mirror so that remote edits are picked up
func (c *SettingsCache) OnStoreEvent(event store.Event) {
	if event.Subtree == models.GuildSettingsTable {
		c.Invalidate(event.Key)
	}
}
