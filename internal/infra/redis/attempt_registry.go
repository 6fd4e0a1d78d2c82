package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"quizarena/internal/app"
)

// AttemptRegistry decorates an in-process registry with Redis liveness
// markers. Attempts themselves stay local to the instance that owns their
// countdown; the markers let operators see live attempts across instances
// (and could back cross-instance routing later).
type AttemptRegistry struct {
	inner  app.AttemptRegistry
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptRegistry(client *redis.Client, inner app.AttemptRegistry, ttl time.Duration) *AttemptRegistry {
	return &AttemptRegistry{inner: inner, client: client, ttl: ttl}
}

func (r *AttemptRegistry) GetOrCreate(quizID, userID string, create func() *app.Attempt) (*app.Attempt, bool) {
	attempt, created := r.inner.GetOrCreate(quizID, userID, create)
	if created {
		// best-effort liveness marker
		_ = r.client.Set(context.Background(), r.key(quizID, userID), "1", r.ttl).Err()
	}
	return attempt, created
}

func (r *AttemptRegistry) Get(quizID, userID string) (*app.Attempt, bool) {
	return r.inner.Get(quizID, userID)
}

func (r *AttemptRegistry) Delete(quizID, userID string) {
	r.inner.Delete(quizID, userID)
	_ = r.client.Del(context.Background(), r.key(quizID, userID)).Err()
}

func (r *AttemptRegistry) key(quizID, userID string) string {
	return "attempt:" + quizID + ":" + userID
}
