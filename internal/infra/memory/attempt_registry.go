package memory

import (
	"sync"

	"quizarena/internal/app"
)

// AttemptRegistry is an in-memory implementation of app.AttemptRegistry.
type AttemptRegistry struct {
	mu       sync.Mutex
	attempts map[attemptKey]*app.Attempt
}

type attemptKey struct {
	quizID string
	userID string
}

func NewAttemptRegistry() *AttemptRegistry {
	return &AttemptRegistry{attempts: make(map[attemptKey]*app.Attempt)}
}

func (r *AttemptRegistry) GetOrCreate(quizID, userID string, create func() *app.Attempt) (*app.Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := attemptKey{quizID, userID}
	if attempt, ok := r.attempts[key]; ok {
		return attempt, false
	}
	attempt := create()
	r.attempts[key] = attempt
	return attempt, true
}

func (r *AttemptRegistry) Get(quizID, userID string) (*app.Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[attemptKey{quizID, userID}]
	return attempt, ok
}

func (r *AttemptRegistry) Delete(quizID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, attemptKey{quizID, userID})
}
