// Package ratelimit throttles confirm-poll calls per app_context, adapted
// from the teacher's per-email/per-IP sliding window limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter bounds how many confirm polls a single app_context may issue in
// a fixed window that starts at the first poll counted (the counter key
// expires one window later), so one noisy app context can't exhaust a destination
// RPC provider's confirm-polling quota on behalf of every other queue.
type Limiter struct {
	client *redis.Client
}

// NewLimiter creates a Limiter. A nil client makes every Allow call pass,
// matching the teacher's "Redis unavailable -> fail open" posture.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow reports whether a confirm poll for appContext may proceed, given
// maxRequests per window. On any Redis error it fails open (allows the
// call) and lets the caller treat an eventual real limit as NotReady rather
// than surfacing an infrastructure error to the operation.
func (l *Limiter) Allow(ctx context.Context, appContext string, maxRequests int, window time.Duration) bool {
	if l.client == nil || maxRequests <= 0 {
		return true
	}

	key := fmt.Sprintf("relayer:ratelimit:confirm:%s", appContext)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true
	}

	if count == 1 {
		l.client.Expire(ctx, key, window)
	}

	return count <= int64(maxRequests)
}
