// Package redis adds a Redis caching layer in front of the persistence
// store and a liveness marker for attempts, for multi-instance deployments.
package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizarena/internal/app"
	"quizarena/internal/domain"
)

// StoreCache decorates an app.Store with Redis-backed quiz definition
// caching. Quiz reads are hot on every attempt start and every websocket
// state push; submissions and profiles pass straight through.
//
// Definitions are stored as: SET quiz:{quizID}:def {json} EX ttl(+jitter)
type StoreCache struct {
	app.Store
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewStoreCache(client *redis.Client, inner app.Store, ttl time.Duration) *StoreCache {
	return &StoreCache{
		Store:  inner,
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *StoreCache) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	key := s.quizKey(id)

	if raw, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err == nil {
			return quiz, nil
		}
		// Unreadable entry: drop it and fall through to the loader.
		_ = s.client.Del(ctx, key).Err()
	}

	result, err, _ := s.sf.Do(id, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if raw, err := s.client.Get(ctx, key).Bytes(); err == nil {
			var quiz domain.Quiz
			if err := json.Unmarshal(raw, &quiz); err == nil {
				return quiz, nil
			}
		}

		quiz, err := s.Store.GetQuiz(ctx, id)
		if err != nil {
			return domain.Quiz{}, err
		}
		if raw, err := json.Marshal(quiz); err == nil {
			_ = s.client.Set(ctx, key, raw, s.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (s *StoreCache) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if err := s.Store.UpdateQuiz(ctx, quiz); err != nil {
		return err
	}
	return s.invalidate(ctx, quiz.ID)
}

func (s *StoreCache) SetQuizActive(ctx context.Context, id string, active bool) error {
	if err := s.Store.SetQuizActive(ctx, id, active); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *StoreCache) DeleteQuiz(ctx context.Context, id string) error {
	if err := s.Store.DeleteQuiz(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *StoreCache) invalidate(ctx context.Context, id string) error {
	// best effort; a stale entry expires with its TTL anyway
	_ = s.client.Del(ctx, s.quizKey(id)).Err()
	return nil
}

func (s *StoreCache) quizKey(id string) string {
	return "quiz:" + id + ":def"
}

func (s *StoreCache) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
