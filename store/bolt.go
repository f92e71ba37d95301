package store

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// Bolt is a single process store backed by a bbolt file. Changes are
// announced to subscribers of the same process only.
type Bolt struct {
	db *bolt.DB

	sync.Mutex
	listeners map[string]map[int]Listener
	nextID    int
}

func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	return &Bolt{
		db:        db,
		listeners: make(map[string]map[int]Listener),
	}, nil
}

func (b *Bolt) Get(ctx context.Context, path string, v interface{}) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	var data []byte
	err = b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(subtree))
		if bucket == nil {
			return nil
		}
		if value := bucket.Get([]byte(key)); value != nil {
			// values are only valid inside the transaction
			data = append([]byte(nil), value...)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	if data == nil {
		return errors.Wrap(ErrNotFound, path)
	}

	return json.Unmarshal(data, v)
}

func (b *Bolt) List(ctx context.Context, subtree string) (map[string][]byte, error) {
	children := make(map[string][]byte)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(subtree))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			children[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", subtree)
	}
	return children, nil
}

func (b *Bolt) Set(ctx context.Context, path string, v interface{}) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}

	var kind EventKind
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(subtree))
		if err != nil {
			return err
		}
		kind = ChildAdded
		if bucket.Get([]byte(key)) != nil {
			kind = ChildChanged
		}
		return bucket.Put([]byte(key), data)
	})
	if err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}

	b.emit(Event{Kind: kind, Subtree: subtree, Key: key, Value: data})
	return nil
}

func (b *Bolt) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	var data []byte
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(subtree))
		if bucket == nil {
			return ErrNotFound
		}
		current := bucket.Get([]byte(key))
		if current == nil {
			return ErrNotFound
		}
		merged, mergeErr := merge(current, fields)
		if mergeErr != nil {
			return mergeErr
		}
		data = merged
		return bucket.Put([]byte(key), data)
	})
	if err == ErrNotFound {
		return errors.Wrap(ErrNotFound, path)
	}
	if err != nil {
		return errors.Wrapf(err, "updating %s", path)
	}

	b.emit(Event{Kind: ChildChanged, Subtree: subtree, Key: key, Value: data})
	return nil
}

func (b *Bolt) Remove(ctx context.Context, path string) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	removed := false
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(subtree))
		if bucket == nil || bucket.Get([]byte(key)) == nil {
			return nil
		}
		removed = true
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return errors.Wrapf(err, "removing %s", path)
	}

	if removed {
		b.emit(Event{Kind: ChildRemoved, Subtree: subtree, Key: key})
	}
	return nil
}

func (b *Bolt) Subscribe(ctx context.Context, subtree string, listener Listener) error {
	children, err := b.List(ctx, subtree)
	if err != nil {
		return err
	}
	for key, value := range children {
		listener(Event{Kind: ChildAdded, Subtree: subtree, Key: key, Value: value})
	}

	b.Lock()
	id := b.nextID
	b.nextID++
	if b.listeners[subtree] == nil {
		b.listeners[subtree] = make(map[int]Listener)
	}
	b.listeners[subtree][id] = listener
	b.Unlock()

	go func() {
		<-ctx.Done()
		b.Lock()
		delete(b.listeners[subtree], id)
		b.Unlock()
	}()

	return nil
}

func (b *Bolt) emit(event Event) {
	b.Lock()
	listeners := make([]Listener, 0, len(b.listeners[event.Subtree]))
	for _, listener := range b.listeners[event.Subtree] {
		listeners = append(listeners, listener)
	}
	b.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
