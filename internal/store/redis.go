package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const DefaultStream = "interactions"

// RedisStore appends interactions to a Redis stream; the stream entry id is
// the document id.
type RedisStore struct {
	client *redis.Client
	stream string
}

// NewRedisStore creates a store that appends to stream on client.
func NewRedisStore(client *redis.Client, stream string) *RedisStore {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStore{client: client, stream: stream}
}

// OpenRedisStore connects to the Redis server at rawURL and pings it.
func OpenRedisStore(ctx context.Context, rawURL, stream string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, wrap("open", errors.Wrap(err, "parse redis url"))
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, wrap("open", errors.Wrap(err, "ping redis"))
	}
	return NewRedisStore(client, stream), nil
}

// Insert adds rec to the stream and returns the stream entry id.
func (s *RedisStore) Insert(ctx context.Context, rec Interaction) (string, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", wrap("insert", errors.Wrap(err, "encode interaction"))
	}
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"user_id":  rec.UserID,
			"document": string(doc),
		},
	}).Result()
	if err != nil {
		return "", wrap("insert", errors.Wrapf(err, "xadd %s", s.stream))
	}
	return id, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return wrap("ping", s.client.Ping(ctx).Err())
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
