package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-character-chat/backend/pkg/cache"
)

// Marker links a session token back to the (user, character) pair it belongs
// to. Markers expire; a missing marker just means the session must be
// resolved from the database.
type Marker struct {
	UserID      uint
	CharacterID uint
}

// ErrMarkerNotFound is returned when no marker exists for a session.
var ErrMarkerNotFound = errors.New("session marker not found")

// MarkerStore stores session markers with a bounded lifetime. Writes are
// best effort; the orchestrator never depends on a marker for correctness.
type MarkerStore interface {
	Put(ctx context.Context, sessionID string, marker Marker) error
	Lookup(ctx context.Context, sessionID string) (Marker, error)
}

// RedisStore keeps markers in Redis so they survive process restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func markerKey(sessionID string) string {
	return "session:" + sessionID
}

func encodeMarker(m Marker) string {
	return fmt.Sprintf("%d:%d", m.UserID, m.CharacterID)
}

func decodeMarker(value string) (Marker, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return Marker{}, fmt.Errorf("malformed session marker %q", value)
	}
	userID, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Marker{}, fmt.Errorf("malformed session marker %q", value)
	}
	characterID, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Marker{}, fmt.Errorf("malformed session marker %q", value)
	}
	return Marker{UserID: uint(userID), CharacterID: uint(characterID)}, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, marker Marker) error {
	return s.client.Set(ctx, markerKey(sessionID), encodeMarker(marker), s.ttl).Err()
}

func (s *RedisStore) Lookup(ctx context.Context, sessionID string) (Marker, error) {
	value, err := s.client.Get(ctx, markerKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Marker{}, ErrMarkerNotFound
		}
		return Marker{}, err
	}
	return decodeMarker(value)
}

// MemoryStore keeps markers in the in-process TTL cache. Used in tests and
// when Redis is not configured.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(ttl, 0, 0)}
}

func (s *MemoryStore) Put(ctx context.Context, sessionID string, marker Marker) error {
	s.cache.Set(markerKey(sessionID), encodeMarker(marker))
	return nil
}

func (s *MemoryStore) Lookup(ctx context.Context, sessionID string) (Marker, error) {
	value, ok := s.cache.Get(markerKey(sessionID))
	if !ok {
		return Marker{}, ErrMarkerNotFound
	}
	return decodeMarker(value.(string))
}
