package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/flytogether/models"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "flightsession:"

// RedisStore keeps each session as one JSON document. A non-zero TTL is
// renewed on every write, so sessions nobody touches expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (r *RedisStore) Get(ctx context.Context, id string) (models.Session, error) {
	val, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, models.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	var s models.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return models.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	s.SessionID = id
	return s, nil
}

func (r *RedisStore) Put(ctx context.Context, id string, s models.Session) error {
	prev, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	s.SessionID = id
	s.CreatedAt = prev.CreatedAt
	s.UpdatedAt = r.now()
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	// XX: the key may have expired between the read and this write
	err = r.client.SetArgs(ctx, sessionKey(id), data, redis.SetArgs{Mode: "XX", TTL: r.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return models.ErrSessionNotFound
	}
	return err
}

func (r *RedisStore) Create(ctx context.Context, s models.Session) (string, error) {
	now := r.now()
	s.CreatedAt, s.UpdatedAt = now, now
	for attempt := 0; attempt < 3; attempt++ {
		s.SessionID = NewSessionID()
		data, err := json.Marshal(s)
		if err != nil {
			return "", err
		}
		ok, err := r.client.SetNX(ctx, sessionKey(s.SessionID), data, r.ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return s.SessionID, nil
		}
	}
	return "", errors.New("could not allocate a unique session id")
}

func (r *RedisStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(sessionKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
