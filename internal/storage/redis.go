package storage

import (
	"context"
	"fmt"
	"strings"

	"luna_companion/src/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "luna:"

// RedisStore keeps one sorted set per collection and user, scored by timestamp.
// Members are "<nanos>-<batch index>-<uuid>|<json>" so records sharing a score sort
// in insertion order and identical payloads never collapse into one member.
type RedisStore struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		log:    logger.Component("redis-store"),
	}, nil
}

// key generates the sorted set key for a collection and user
func (r *RedisStore) key(collection, userID string) string {
	return keyPrefix + collection + ":" + userID
}

// Insert adds all records in a single MULTI/EXEC transaction
func (r *RedisStore) Insert(ctx context.Context, collection string, records ...any) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	docs, err := encodeRecords(records)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, doc := range docs {
			member := fmt.Sprintf("%019d-%03d-%s|%s", doc.Timestamp.UnixNano(), i, uuid.NewString(), doc.Raw)
			pipe.ZAdd(ctx, r.key(collection, doc.UserID), redis.Z{
				Score:  float64(doc.Timestamp.UnixMicro()),
				Member: member,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}

	r.log.Debug().Str("collection", collection).Int("records", len(docs)).Msg("records inserted")
	return nil
}

// Find reads a user's records in timestamp order. A user id is required.
func (r *RedisStore) Find(ctx context.Context, collection string, q Query, dest any) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if q.UserID == "" {
		return fmt.Errorf("redis store requires a user_id filter")
	}

	stop := int64(-1)
	if q.Limit > 0 {
		stop = int64(q.Limit) - 1
	}

	members, err := r.client.ZRangeArgs(ctx, redis.ZRangeArgs{
		Key:   r.key(collection, q.UserID),
		Start: 0,
		Stop:  stop,
		Rev:   q.Sort == Descending,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	docs := make([]document, 0, len(members))
	for _, member := range members {
		_, raw, ok := strings.Cut(member, "|")
		if !ok {
			r.log.Warn().Str("collection", collection).Msg("skipping malformed member")
			continue
		}
		doc, err := decodeDocument([]byte(raw))
		if err != nil {
			r.log.Warn().Err(err).Str("collection", collection).Msg("skipping unreadable record")
			continue
		}
		docs = append(docs, doc)
	}

	return materialize(docs, dest)
}

// Ping tests the Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
