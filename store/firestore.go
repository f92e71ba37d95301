package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore maps every subtree onto a collection and every key onto a
// document. Subscriptions use snapshot listeners.
type Firestore struct {
	client *firestore.Client
	prefix string
	log    logrus.FieldLogger
}

func NewFirestore(ctx context.Context, projectID, prefix string, log logrus.FieldLogger) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "creating firestore client")
	}

	return &Firestore{
		client: client,
		prefix: prefix,
		log:    log,
	}, nil
}

func isNotFound(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.NotFound
}

func (f *Firestore) collection(subtree string) *firestore.CollectionRef {
	return f.client.Collection(f.prefix + subtree)
}

func (f *Firestore) Get(ctx context.Context, path string, v interface{}) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	snapshot, err := f.collection(subtree).Doc(key).Get(ctx)
	if isNotFound(err) {
		return errors.Wrap(ErrNotFound, path)
	}
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}

	data, err := json.Marshal(snapshot.Data())
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	return json.Unmarshal(data, v)
}

func (f *Firestore) List(ctx context.Context, subtree string) (map[string][]byte, error) {
	snapshots, err := f.collection(subtree).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", subtree)
	}

	children := make(map[string][]byte, len(snapshots))
	for _, snapshot := range snapshots {
		data, err := json.Marshal(snapshot.Data())
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s", Path(subtree, snapshot.Ref.ID))
		}
		children[snapshot.Ref.ID] = data
	}
	return children, nil
}

func (f *Firestore) Set(ctx context.Context, path string, v interface{}) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	document, err := toDocument(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}

	_, err = f.collection(subtree).Doc(key).Set(ctx, document)
	return errors.Wrapf(err, "writing %s", path)
}

func (f *Firestore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	updates := make([]firestore.Update, 0, len(fields))
	for field, value := range fields {
		updates = append(updates, firestore.Update{Path: field, Value: value})
	}

	_, err = f.collection(subtree).Doc(key).Update(ctx, updates)
	if isNotFound(err) {
		return errors.Wrap(ErrNotFound, path)
	}
	return errors.Wrapf(err, "updating %s", path)
}

func (f *Firestore) Remove(ctx context.Context, path string) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	_, err = f.collection(subtree).Doc(key).Delete(ctx)
	return errors.Wrapf(err, "removing %s", path)
}

func (f *Firestore) Subscribe(ctx context.Context, subtree string, listener Listener) error {
	snapshots := f.collection(subtree).Snapshots(ctx)

	// the first snapshot reports every existing document as added
	first, err := snapshots.Next()
	if err != nil {
		snapshots.Stop()
		return errors.Wrapf(err, "subscribing to %s", subtree)
	}
	f.dispatch(subtree, first.Changes, listener)

	go func() {
		defer snapshots.Stop()

		for {
			snapshot, err := snapshots.Next()
			if err == iterator.Done || status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return
			}
			if err != nil {
				f.log.Errorf("snapshot listener for %s stopped: %s", subtree, err.Error())
				return
			}
			f.dispatch(subtree, snapshot.Changes, listener)
		}
	}()

	return nil
}

func (f *Firestore) dispatch(subtree string, changes []firestore.DocumentChange, listener Listener) {
	for _, change := range changes {
		event := Event{Subtree: subtree, Key: change.Doc.Ref.ID}
		switch change.Kind {
		case firestore.DocumentAdded:
			event.Kind = ChildAdded
		case firestore.DocumentModified:
			event.Kind = ChildChanged
		case firestore.DocumentRemoved:
			event.Kind = ChildRemoved
		}

		if event.Kind != ChildRemoved {
			data, err := json.Marshal(change.Doc.Data())
			if err != nil {
				f.log.Warnf("dropping undecodable document %s: %s", Path(subtree, event.Key), err.Error())
				continue
			}
			event.Value = data
		}
		listener(event)
	}
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

// toDocument turns a tagged struct into the map firestore stores, so that
// documents carry the same field names as the JSON backends
func toDocument(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	document := make(map[string]interface{})
	err = json.Unmarshal(data, &document)
	return document, err
}
