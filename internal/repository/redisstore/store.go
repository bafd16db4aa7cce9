// Package redisstore holds the Redis-backed stores for short-lived auth
// state: login sessions and OTP challenges. Both carry TTLs so stale state
// expires without a reaper.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emedica/emedica-api/internal/config"
	"github.com/emedica/emedica-api/internal/domain/session"
)

const (
	sessionKeyPrefix = "session:"
	otpKeyPrefix     = "otp:challenge:"
)

type Store struct {
	client *redis.Client
}

func New(cfg config.RedisConfig) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{client: rdb}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// --- session.Store ---

func (s *Store) Put(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+sess.ID, payload, ttl).Err()
}

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}

	var sess session.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, session.ErrCorrupt
	}
	return &sess, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	// DEL on a missing key is a no-op, which gives logout its idempotency.
	return s.client.Del(ctx, sessionKeyPrefix+id).Err()
}

// CountSessions walks the session keyspace. Used to reconcile the active
// session gauge, since TTL expiry removes keys without any callback.
func (s *Store) CountSessions(ctx context.Context) (int64, error) {
	var cursor uint64
	var total int64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, err
		}
		total += int64(len(keys))
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

// --- OTP challenge store ---

// PutChallenge holds the per-phone TOTP secret for the challenge window.
// A new request for the same phone replaces the previous challenge.
func (s *Store) PutChallenge(ctx context.Context, phone, secret string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKeyPrefix+phone, secret, ttl).Err()
}

func (s *Store) GetChallenge(ctx context.Context, phone string) (string, error) {
	secret, err := s.client.Get(ctx, otpKeyPrefix+phone).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", session.ErrNotFound
		}
		return "", err
	}
	return secret, nil
}

func (s *Store) DeleteChallenge(ctx context.Context, phone string) error {
	return s.client.Del(ctx, otpKeyPrefix+phone).Err()
}
