package store

import (
	"context"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack"
)

// Redis keeps every subtree in one hash and announces changes on a pub/sub
// channel per subtree, so that other processes can mirror it.
type Redis struct {
	client *redis.Client
	prefix string
	log    logrus.FieldLogger
}

type redisEnvelope struct {
	Kind  int
	Key   string
	Value []byte
}

func NewRedis(client *redis.Client, prefix string, log logrus.FieldLogger) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		log:    log,
	}
}

func (r *Redis) hashKey(subtree string) string {
	return r.prefix + subtree
}

func (r *Redis) channelKey(subtree string) string {
	return r.prefix + "events:" + subtree
}

func (r *Redis) Get(ctx context.Context, path string, v interface{}) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	data, err := r.client.WithContext(ctx).HGet(r.hashKey(subtree), key).Bytes()
	if err == redis.Nil {
		return errors.Wrap(ErrNotFound, path)
	}
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}

	return json.Unmarshal(data, v)
}

func (r *Redis) List(ctx context.Context, subtree string) (map[string][]byte, error) {
	values, err := r.client.WithContext(ctx).HGetAll(r.hashKey(subtree)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", subtree)
	}

	children := make(map[string][]byte, len(values))
	for key, value := range values {
		children[key] = []byte(value)
	}
	return children, nil
}

func (r *Redis) Set(ctx context.Context, path string, v interface{}) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}

	return r.write(ctx, subtree, key, data)
}

func (r *Redis) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	current, err := r.client.WithContext(ctx).HGet(r.hashKey(subtree), key).Bytes()
	if err == redis.Nil {
		return errors.Wrap(ErrNotFound, path)
	}
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}

	data, err := merge(current, fields)
	if err != nil {
		return err
	}

	return r.write(ctx, subtree, key, data)
}

func (r *Redis) write(ctx context.Context, subtree, key string, data []byte) error {
	client := r.client.WithContext(ctx)

	added, err := client.HSet(r.hashKey(subtree), key, data).Result()
	if err != nil {
		return errors.Wrapf(err, "writing %s", Path(subtree, key))
	}

	kind := ChildChanged
	if added {
		kind = ChildAdded
	}
	return r.publish(client, subtree, redisEnvelope{Kind: int(kind), Key: key, Value: data})
}

func (r *Redis) Remove(ctx context.Context, path string) error {
	subtree, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	client := r.client.WithContext(ctx)
	removed, err := client.HDel(r.hashKey(subtree), key).Result()
	if err != nil {
		return errors.Wrapf(err, "removing %s", path)
	}
	if removed == 0 {
		return nil
	}

	return r.publish(client, subtree, redisEnvelope{Kind: int(ChildRemoved), Key: key})
}

func (r *Redis) publish(client *redis.Client, subtree string, envelope redisEnvelope) error {
	payload, err := msgpack.Marshal(envelope)
	if err != nil {
		return errors.Wrap(err, "encoding change event")
	}

	return errors.Wrap(
		client.Publish(r.channelKey(subtree), payload).Err(),
		"publishing change event",
	)
}

func (r *Redis) Subscribe(ctx context.Context, subtree string, listener Listener) error {
	pubsub := r.client.Subscribe(r.channelKey(subtree))
	// wait for the subscription before listing, changes in between are
	// delivered twice which listeners tolerate
	if _, err := pubsub.Receive(); err != nil {
		pubsub.Close()
		return errors.Wrapf(err, "subscribing to %s", subtree)
	}

	children, err := r.List(ctx, subtree)
	if err != nil {
		pubsub.Close()
		return err
	}
	for key, value := range children {
		listener(Event{Kind: ChildAdded, Subtree: subtree, Key: key, Value: value})
	}

	go func() {
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-messages:
				if !ok {
					return
				}

				var envelope redisEnvelope
				if err := msgpack.Unmarshal([]byte(message.Payload), &envelope); err != nil {
					r.log.Warnf("dropping malformed event on %s: %s", subtree, err.Error())
					continue
				}
				listener(Event{
					Kind:    EventKind(envelope.Kind),
					Subtree: subtree,
					Key:     envelope.Key,
					Value:   envelope.Value,
				})
			}
		}
	}()

	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
