package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrAbsent is returned by [Store.Load] when no session is persisted, or
// when a partial or corrupt session was found and reset.
var ErrAbsent = errors.New("session absent")

// ErrRedisUnavailable wraps transport-level Redis failures so callers can
// distinguish "no session" from "cannot reach the store".
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is a Redis-backed session store. One Store instance owns one
// logical session, namespaced by its key prefix.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New creates a session [Store]. prefix namespaces the session keys; ttl
// bounds how long a persisted session survives without being rewritten
// (zero means no expiry — the session lives until cleared or rejected by
// revalidation).
func New(client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) principalKey() string {
	return s.prefix + ":principal"
}

func (s *Store) accessKey() string {
	return s.prefix + ":access"
}

func (s *Store) refreshKey() string {
	return s.prefix + ":refresh"
}

// Save persists the whole record atomically. Every mutation rewrites all
// three keys in one transaction; there is no partial-field update path.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("nil record")
	}
	if rec.AccessToken == "" || rec.RefreshToken == "" {
		return errors.New("record missing tokens")
	}

	blob, err := encodePrincipal(rec.Principal)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.principalKey(), blob, s.ttl)
		pipe.Set(ctx, s.accessKey(), rec.AccessToken, s.ttl)
		pipe.Set(ctx, s.refreshKey(), rec.RefreshToken, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Load retrieves the persisted record. A session is present only when all
// three keys are set; any partial combination is cleared and reported as
// [ErrAbsent], as is an undecodable principal blob.
func (s *Store) Load(ctx context.Context) (*Record, error) {
	values, err := s.redis.MGet(ctx, s.principalKey(), s.accessKey(), s.refreshKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("%w: unexpected mget reply", ErrRedisUnavailable)
	}

	blob, blobOK := asString(values[0])
	access, accessOK := asString(values[1])
	refresh, refreshOK := asString(values[2])

	present := 0
	for _, ok := range []bool{blobOK, accessOK, refreshOK} {
		if ok {
			present++
		}
	}
	if present == 0 {
		return nil, ErrAbsent
	}
	if present < 3 {
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, ErrAbsent
	}

	principal, err := decodePrincipal([]byte(blob))
	if err != nil {
		if clearErr := s.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, ErrAbsent
	}

	return &Record{
		Principal:    principal,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Clear deletes all session keys. Clearing an absent session is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.principalKey(), s.accessKey(), s.refreshKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Present reports whether a complete session is persisted, without
// decoding or mutating it.
func (s *Store) Present(ctx context.Context) (bool, error) {
	n, err := s.redis.Exists(ctx, s.principalKey(), s.accessKey(), s.refreshKey()).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n == 3, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func asString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}
