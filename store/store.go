// Package store is the durable key-value layer. Every record lives at a
// two-level path "/{subtree}/{key}" and subtrees can be watched for changes.
package store

import (
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidPath = errors.New("invalid path, expected /{subtree}/{key}")
)

type EventKind int

const (
	ChildAdded EventKind = iota
	ChildChanged
	ChildRemoved
)

func (k EventKind) String() string {
	switch k {
	case ChildAdded:
		return "added"
	case ChildChanged:
		return "changed"
	case ChildRemoved:
		return "removed"
	}
	return "unknown"
}

// Event describes one change below a watched subtree.
// Value holds the JSON document, it is empty for ChildRemoved.
type Event struct {
	Kind    EventKind
	Subtree string
	Key     string
	Value   []byte
}

// Decode unmarshals the event value into $v
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Value, v)
}

// Listener receives events of a subscription in order
type Listener func(Event)

// Store is the durable store every component writes through
type Store interface {
	// Get reads the record at $path once, ErrNotFound if missing
	Get(ctx context.Context, path string, v interface{}) error
	// List reads all children of $subtree once
	List(ctx context.Context, subtree string) (map[string][]byte, error)
	// Set replaces the record at $path
	Set(ctx context.Context, path string, v interface{}) error
	// Update merges $fields into the record at $path, ErrNotFound if missing
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	// Remove deletes the record at $path, missing records are not an error
	Remove(ctx context.Context, path string) error
	// Subscribe emits ChildAdded for every existing child of $subtree, then
	// every later change, until $ctx is done
	Subscribe(ctx context.Context, subtree string, listener Listener) error
	Close() error
}

// Path joins a subtree and a key into "/{subtree}/{key}"
func Path(subtree, key string) string {
	return "/" + subtree + "/" + key
}

// SplitPath is the inverse of Path
func SplitPath(path string) (subtree, key string, err error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Wrap(ErrInvalidPath, path)
	}
	return parts[0], parts[1], nil
}

// merge applies $fields on top of the JSON document $current
func merge(current []byte, fields map[string]interface{}) ([]byte, error) {
	document := make(map[string]interface{})
	if len(current) > 0 {
		if err := json.Unmarshal(current, &document); err != nil {
			return nil, errors.Wrap(err, "decoding stored document")
		}
	}
	for field, value := range fields {
		document[field] = value
	}
	return json.Marshal(document)
}
