package presence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis as the backing store.
// Heartbeats are stored as JSON under key: "presence:<docID>:<userID>" with
// TTL = heartbeat TTL, so the server forgets idle viewers on its own.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-based heartbeat store. Prefix may be empty.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "presence:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(documentID, userID string) string {
	return r.prefix + documentID + ":" + userID
}

func (r *RedisStore) Touch(ctx context.Context, documentID, userID string, now time.Time) error {
	b, err := json.Marshal(Heartbeat{DocumentID: documentID, UserID: userID, LastSeen: now})
	if err != nil {
		return err
	}
	// plain SET: last write wins, which is all a heartbeat needs
	return r.client.Set(ctx, r.key(documentID, userID), b, r.ttl).Err()
}

func (r *RedisStore) Active(ctx context.Context, documentID string, cutoff time.Time) ([]Heartbeat, error) {
	out := []Heartbeat{}
	iter := r.client.Scan(ctx, 0, r.prefix+documentID+":*", 100).Iterator()
	for iter.Next(ctx) {
		b, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				// expired between SCAN and GET
				continue
			}
			return nil, err
		}
		var hb Heartbeat
		if err := json.Unmarshal(b, &hb); err != nil {
			return nil, err
		}
		// TTL usually removes stale beats; the cutoff check covers clock skew
		if hb.LastSeen.Before(cutoff) {
			continue
		}
		out = append(out, hb)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RedisStore) Drop(ctx context.Context, documentID string) error {
	iter := r.client.Scan(ctx, 0, r.prefix+documentID+":*", 100).Iterator()
	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
