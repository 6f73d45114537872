package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobscout/internal/model"
)

var _ model.ListingStore = (*RedisStore)(nil)

// RedisStore keeps listings in one Redis hash keyed by a digest of the identity
// key, plus a sorted set ordering them by first sighting. HSETNX decides
// which insert of a key wins; both structures are written in one transaction.
type RedisStore struct {
	client   *redis.Client
	hashKey  string
	orderKey string
}

// NewRedisStore parses redisURL, verifies connectivity and namespaces all keys under prefix.
func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if prefix == "" {
		prefix = "jobscout"
	}
	return &RedisStore{
		client:   client,
		hashKey:  prefix + ":listings",
		orderKey: prefix + ":listings:order",
	}, nil
}

// keyDigest is a stable field name for an identity key. NUL separators keep
// ("ab","c") and ("a","bc") apart.
func keyDigest(key model.Key) string {
	h := sha256.New()
	for _, part := range []string{string(key.Source), key.SearchTerm, key.Title, key.Link} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *RedisStore) Exists(ctx context.Context, key model.Key) (bool, error) {
	ok, err := s.client.HExists(ctx, s.hashKey, keyDigest(key)).Result()
	if err != nil {
		return false, fmt.Errorf("checking listing %q: %w", key.Link, err)
	}
	return ok, nil
}

func (s *RedisStore) Insert(ctx context.Context, l model.Listing) (bool, error) {
	payload, err := json.Marshal(l)
	if err != nil {
		return false, fmt.Errorf("encoding listing %q: %w", l.Link, err)
	}
	field := keyDigest(l.Key())
	score := float64(l.FirstSeenAt.UnixNano())

	// Both writes go in one MULTI so a listing is never stored without its
	// order entry. ZADD NX leaves the score of an existing listing alone.
	var created *redis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.HSetNX(ctx, s.hashKey, field, payload)
		pipe.ZAddNX(ctx, s.orderKey, redis.Z{Score: score, Member: field})
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("inserting listing %q: %w", l.Link, err)
	}
	return created.Val(), nil
}

func (s *RedisStore) All(ctx context.Context, q model.ListQuery) ([]model.Listing, error) {
	fields, err := s.client.ZRange(ctx, s.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("querying listing order: %w", err)
	}
	if len(fields) == 0 {
		return []model.Listing{}, nil
	}
	values, err := s.client.HMGet(ctx, s.hashKey, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}

	var filtered []model.Listing
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var l model.Listing
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, fmt.Errorf("decoding listing: %w", err)
		}
		if l.Tags == nil {
			l.Tags = []string{}
		}
		if matches(l, q) {
			filtered = append(filtered, l)
		}
	}
	return page(filtered, q), nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, s.hashKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("counting listings: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
