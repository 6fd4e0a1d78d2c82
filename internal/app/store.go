package app

import (
	"context"

	"quizarena/internal/domain"
)

// QuizStore persists quiz definitions.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	GetQuiz(ctx context.Context, id string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, activeOnly bool) ([]domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error
	SetQuizActive(ctx context.Context, id string, active bool) error
	// DeleteQuiz removes the quiz and cascades to its submissions.
	DeleteQuiz(ctx context.Context, id string) error
}

// SubmissionStore persists graded submissions and enforces the one
// submission per (quiz, user) invariant: InsertSubmission must return
// domain.ErrAlreadySubmitted when the pair already exists, so a raced
// duplicate is distinguishable from an ordinary persistence failure.
type SubmissionStore interface {
	InsertSubmission(ctx context.Context, sub *domain.Submission) error
	HasSubmission(ctx context.Context, quizID, userID string) (bool, error)
	// List methods return submissions ordered by submission time ascending,
	// which the ranking engine relies on as the tie-break of last resort.
	ListSubmissionsByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error)
	ListSubmissionsByUser(ctx context.Context, userID string) ([]domain.Submission, error)
	ListSubmissions(ctx context.Context) ([]domain.Submission, error)
	CountSubmissions(ctx context.Context) (int, error)
}

// ProfileStore reads participant display metadata maintained elsewhere.
type ProfileStore interface {
	GetProfiles(ctx context.Context, ids []string) (map[string]domain.Profile, error)
	CountProfiles(ctx context.Context) (int, error)
}

// Store is the full persistence surface consumed by the services.
type Store interface {
	QuizStore
	SubmissionStore
	ProfileStore
}

// AttemptRegistry tracks live attempts, at most one per (quiz, user) pair.
// Attempts are transient: nothing is persisted until submission.
type AttemptRegistry interface {
	// GetOrCreate returns the live attempt for the pair, creating one via
	// create if none exists. The second return reports whether a new
	// attempt was created.
	GetOrCreate(quizID, userID string, create func() *Attempt) (*Attempt, bool)
	Get(quizID, userID string) (*Attempt, bool)
	Delete(quizID, userID string)
}
