// Package memory holds in-process implementations of the persistence
// contracts, used for tests, demos, and running without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"

	"quizarena/internal/domain"
)

// Store is an in-memory implementation of app.Store.
type Store struct {
	mu          sync.RWMutex
	quizzes     map[string]domain.Quiz
	submissions []domain.Submission // append-only, submission order preserved
	profiles    map[string]domain.Profile
}

func NewStore() *Store {
	return &Store{
		quizzes:  make(map[string]domain.Quiz),
		profiles: make(map[string]domain.Profile),
	}
}

// SeedProfiles loads participant display data, normally owned by the
// external identity collaborator.
func (s *Store) SeedProfiles(profiles ...domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
}

func (s *Store) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = *quiz
	return nil
}

func (s *Store) GetQuiz(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) ListQuizzes(_ context.Context, activeOnly bool) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		if activeOnly && !quiz.IsActive {
			continue
		}
		quizzes = append(quizzes, quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
	})
	return quizzes, nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.quizzes[quiz.ID] = *quiz
	return nil
}

func (s *Store) SetQuizActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.ErrQuizNotFound
	}
	quiz.IsActive = active
	s.quizzes[id] = quiz
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	// cascade
	kept := s.submissions[:0]
	for _, sub := range s.submissions {
		if sub.QuizID != id {
			kept = append(kept, sub)
		}
	}
	s.submissions = kept
	return nil
}

func (s *Store) InsertSubmission(_ context.Context, sub *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.submissions {
		if existing.QuizID == sub.QuizID && existing.UserID == sub.UserID {
			return domain.ErrAlreadySubmitted
		}
	}
	s.submissions = append(s.submissions, *sub)
	return nil
}

func (s *Store) HasSubmission(_ context.Context, quizID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions {
		if sub.QuizID == quizID && sub.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListSubmissionsByQuiz(_ context.Context, quizID string) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := make([]domain.Submission, 0)
	for _, sub := range s.submissions {
		if sub.QuizID == quizID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (s *Store) ListSubmissionsByUser(_ context.Context, userID string) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := make([]domain.Submission, 0)
	for _, sub := range s.submissions {
		if sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (s *Store) ListSubmissions(_ context.Context) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := make([]domain.Submission, len(s.submissions))
	copy(subs, s.submissions)
	return subs, nil
}

func (s *Store) CountSubmissions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.submissions), nil
}

func (s *Store) GetProfiles(_ context.Context, ids []string) (map[string]domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *Store) CountProfiles(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}
