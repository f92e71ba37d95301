package cache

import (
	"context"
	"sort"
	"sync"

	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MirroredSubtrees are the store subtrees kept in memory
var MirroredSubtrees = []string{
	models.JobsTable,
	models.GuildSettingsTable,
	models.BansTable,
	models.RemindSettingsTable,
}

// JobEntry pairs a job with its key
type JobEntry struct {
	Key string
	Job models.Job
}

// Mirror is a read-mostly copy of the mirrored subtrees. It is only fed by
// store events (or by writers right after a successful write), the store
// stays authoritative.
type Mirror struct {
	sync.RWMutex
	jobs     map[string]models.Job
	settings map[string]models.GuildSettings
	bans     map[string]models.Ban
	remind   map[string]models.RemindSettings

	hooks []func(store.Event)
	log   logrus.FieldLogger
}

func NewMirror(log logrus.FieldLogger) *Mirror {
	return &Mirror{
		jobs:     make(map[string]models.Job),
		settings: make(map[string]models.GuildSettings),
		bans:     make(map[string]models.Ban),
		remind:   make(map[string]models.RemindSettings),
		log:      log,
	}
}

// Attach subscribes the mirror to every mirrored subtree of $s
func (m *Mirror) Attach(ctx context.Context, s store.Store) error {
	for _, subtree := range MirroredSubtrees {
		if err := s.Subscribe(ctx, subtree, m.Apply); err != nil {
			return errors.Wrapf(err, "mirroring %s", subtree)
		}
	}
	return nil
}

// OnChange registers $hook, called after every applied event
func (m *Mirror) OnChange(hook func(store.Event)) {
	m.Lock()
	m.hooks = append(m.hooks, hook)
	m.Unlock()
}

// Apply folds one store event into the mirror. The latest event wins.
func (m *Mirror) Apply(event store.Event) {
	var err error

	m.Lock()
	switch event.Subtree {
	case models.JobsTable:
		err = applyTo(m.jobs, event)
	case models.GuildSettingsTable:
		err = applyTo(m.settings, event)
	case models.BansTable:
		err = applyTo(m.bans, event)
	case models.RemindSettingsTable:
		err = applyTo(m.remind, event)
	default:
		err = errors.New("subtree is not mirrored")
	}
	hooks := m.hooks
	m.Unlock()

	if err != nil {
		m.log.Warnf("ignoring %s event for %s: %s",
			event.Kind, store.Path(event.Subtree, event.Key), err.Error())
		return
	}

	for _, hook := range hooks {
		hook(event)
	}
}

// ApplyValue records a successful write of $v at /$subtree/$key
func (m *Mirror) ApplyValue(subtree, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		m.log.Warnf("cannot mirror %s: %s", store.Path(subtree, key), err.Error())
		return
	}
	m.Apply(store.Event{Kind: store.ChildChanged, Subtree: subtree, Key: key, Value: data})
}

// ApplyRemove records a successful removal of /$subtree/$key
func (m *Mirror) ApplyRemove(subtree, key string) {
	m.Apply(store.Event{Kind: store.ChildRemoved, Subtree: subtree, Key: key})
}

func applyTo[T any](target map[string]T, event store.Event) error {
	if event.Kind == store.ChildRemoved {
		delete(target, event.Key)
		return nil
	}

	var value T
	if err := event.Decode(&value); err != nil {
		return err
	}
	target[event.Key] = value
	return nil
}

// Jobs returns all mirrored jobs ordered by due time, then key
func (m *Mirror) Jobs() []JobEntry {
	m.RLock()
	entries := make([]JobEntry, 0, len(m.jobs))
	for key, job := range m.jobs {
		entries = append(entries, JobEntry{Key: key, Job: job})
	}
	m.RUnlock()

	sortJobEntries(entries)
	return entries
}

func (m *Mirror) Job(key string) (job models.Job, ok bool) {
	m.RLock()
	defer m.RUnlock()

	job, ok = m.jobs[key]
	return job, ok
}

func (m *Mirror) GuildSettings(guildID string) (settings models.GuildSettings, ok bool) {
	m.RLock()
	defer m.RUnlock()

	settings, ok = m.settings[guildID]
	return settings, ok
}

// RemindSettings returns the reminder settings of a guild, zero value if unset
func (m *Mirror) RemindSettings(guildID string) models.RemindSettings {
	m.RLock()
	defer m.RUnlock()

	return m.remind[guildID]
}

// IsBanned reports whether any of $ids is on the ban list
func (m *Mirror) IsBanned(ids ...string) bool {
	m.RLock()
	defer m.RUnlock()

	for _, id := range ids {
		if _, ok := m.bans[id]; ok {
			return true
		}
	}
	return false
}

func (m *Mirror) Bans() map[string]models.Ban {
	m.RLock()
	defer m.RUnlock()

	bans := make(map[string]models.Ban, len(m.bans))
	for id, ban := range m.bans {
		bans[id] = ban
	}
	return bans
}

func sortJobEntries(entries []JobEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Job.ExecuteAt != entries[j].Job.ExecuteAt {
			return entries[i].Job.ExecuteAt < entries[j].Job.ExecuteAt
		}
		return entries[i].Key < entries[j].Key
	})
}
