package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ambros-labs/relayer/app/operation"
)

// PayloadUUIDStore persists the message_id -> []payload_uuid mapping lander
// mode needs to recover which payloads a prior Submit already sent, so after
// a crash-and-restart the prepare shortcut can route the operation to
// confirm as AlreadySubmitted instead of re-submitting it.
type PayloadUUIDStore interface {
	Store(ctx context.Context, id operation.ID, uuids []uuid.UUID) error
	Retrieve(ctx context.Context, id operation.ID) ([]uuid.UUID, error)
}

// RedisStore is the production PayloadUUIDStore, generalized from the
// teacher's idempotency.Store: that package used SETNX against a boolean
// "processed" flag, this one RPUSHes onto an ordered list so a message that
// produces more than one payload (Open Question #2) keeps every UUID, in
// submission order.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. ttl bounds how long a message's
// payload-uuid list survives, mirroring the teacher's 7-day idempotency TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(id operation.ID) string {
	return fmt.Sprintf("relayer:payload_uuids:%s", id.String())
}

// Store appends uuids to id's list and refreshes the TTL. Called once per
// successful SendPayload (spec's lander-mode Submit step 5).
func (s *RedisStore) Store(ctx context.Context, id operation.ID, uuids []uuid.UUID) error {
	if len(uuids) == 0 {
		return nil
	}

	key := s.key(id)
	values := make([]interface{}, len(uuids))
	for i, u := range uuids {
		values[i] = u.String()
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store payload uuids: %w", err)
	}
	return nil
}

// Retrieve returns id's payload uuids in submission order, or an empty slice
// if none have been stored yet.
func (s *RedisStore) Retrieve(ctx context.Context, id operation.ID) ([]uuid.UUID, error) {
	raw, err := s.client.LRange(ctx, s.key(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payload uuids: %w", err)
	}

	uuids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		u, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored payload uuid %q: %w", r, err)
		}
		uuids = append(uuids, u)
	}
	return uuids, nil
}
