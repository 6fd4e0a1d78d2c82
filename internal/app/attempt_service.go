package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quizarena/internal/domain"
	"quizarena/internal/scoring"
)

// AttemptService drives the quiz attempt lifecycle: it gates entry, owns one
// countdown per timed attempt, and turns a finished sheet into a Submission.
type AttemptService struct {
	attempts AttemptRegistry
	store    Store
	now      func() time.Time
}

func NewAttemptService(attempts AttemptRegistry, store Store) *AttemptService {
	return NewAttemptServiceWithClock(attempts, store, time.Now)
}

// NewAttemptServiceWithClock injects the clock for deterministic timestamps
// in tests.
func NewAttemptServiceWithClock(attempts AttemptRegistry, store Store, now func() time.Time) *AttemptService {
	return &AttemptService{attempts: attempts, store: store, now: now}
}

// Start opens an attempt for (quizID, userID). The participant is blocked
// before any attempt exists when the quiz is missing, inactive, or already
// submitted by them. Re-entering with a live attempt returns the same
// attempt, so a second browser tab shares rather than resets progress.
func (s *AttemptService) Start(ctx context.Context, quizID, userID string) (*Attempt, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, domain.ErrQuizInactive
	}
	submitted, err := s.store.HasSubmission(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("check prior submission: %w", err)
	}
	if submitted {
		return nil, domain.ErrAlreadySubmitted
	}

	attempt, created := s.attempts.GetOrCreate(quizID, userID, func() *Attempt {
		return newAttempt(quiz, userID, s.now)
	})
	if created && attempt.timed {
		go s.runCountdown(attempt)
	}
	return attempt, nil
}

// Get returns the live attempt for the pair, if any.
func (s *AttemptService) Get(quizID, userID string) (*Attempt, error) {
	attempt, ok := s.attempts.Get(quizID, userID)
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

// Answer records an option for the attempt's current question.
func (s *AttemptService) Answer(quizID, userID string, option int) error {
	attempt, err := s.Get(quizID, userID)
	if err != nil {
		return err
	}
	return attempt.Answer(option)
}

// NavigateTo jumps to a question by index.
func (s *AttemptService) NavigateTo(quizID, userID string, index int) error {
	attempt, err := s.Get(quizID, userID)
	if err != nil {
		return err
	}
	return attempt.NavigateTo(index)
}

// Next advances to the following question; blocked while the current slot
// is unanswered.
func (s *AttemptService) Next(quizID, userID string) error {
	attempt, err := s.Get(quizID, userID)
	if err != nil {
		return err
	}
	return attempt.Next()
}

// Previous steps back one question.
func (s *AttemptService) Previous(quizID, userID string) error {
	attempt, err := s.Get(quizID, userID)
	if err != nil {
		return err
	}
	return attempt.Previous()
}

// Submit grades and persists the attempt on the manual path: every slot must
// be answered. A persistence failure leaves the attempt active with answers
// retained, so Submit can simply be called again.
func (s *AttemptService) Submit(ctx context.Context, quizID, userID string) (domain.Submission, scoring.Result, error) {
	attempt, err := s.Get(quizID, userID)
	if err != nil {
		return domain.Submission{}, scoring.Result{}, err
	}
	return s.submit(ctx, attempt, false)
}

func (s *AttemptService) submit(ctx context.Context, attempt *Attempt, forced bool) (domain.Submission, scoring.Result, error) {
	answers, err := attempt.beginSubmit(forced)
	if err != nil {
		return domain.Submission{}, scoring.Result{}, err
	}

	// Grading happens here, never from a client-reported score.
	result := scoring.Score(attempt.quiz, answers)
	timeTaken := attempt.elapsedSeconds()
	sub := domain.Submission{
		ID:            uuid.NewString(),
		QuizID:        attempt.quiz.ID,
		UserID:        attempt.userID,
		Answers:       answers,
		Score:         result.Score,
		TotalPossible: result.TotalPossible,
		Percentage:    result.Percentage,
		TimeTaken:     &timeTaken,
		SubmittedAt:   s.now(),
	}

	if err := s.store.InsertSubmission(ctx, &sub); err != nil {
		if errors.Is(err, domain.ErrAlreadySubmitted) {
			// Lost the uniqueness race: a concurrent writer completed first.
			attempt.finish(nil, forced)
			s.attempts.Delete(attempt.quiz.ID, attempt.userID)
			return domain.Submission{}, scoring.Result{}, domain.ErrAlreadySubmitted
		}
		attempt.reopen()
		return domain.Submission{}, scoring.Result{}, fmt.Errorf("persist submission: %w", err)
	}

	attempt.finish(&result, forced)
	s.attempts.Delete(attempt.quiz.ID, attempt.userID)
	return sub, result, nil
}

// runCountdown owns the per-second timer for one timed attempt. It stops on
// submission or teardown; reaching zero force-submits exactly once, with
// unanswered slots allowed.
func (s *AttemptService) runCountdown(attempt *Attempt) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-attempt.Done():
			return
		case <-ticker.C:
			if !attempt.tick() {
				continue
			}
			// Expired: force-submit, retrying on store failures. A race
			// loss or completed submit ends the attempt either way.
			for {
				_, _, err := s.submit(context.Background(), attempt, true)
				if err == nil || errors.Is(err, domain.ErrAlreadySubmitted) || errors.Is(err, domain.ErrAttemptFinished) {
					return
				}
				select {
				case <-attempt.Done():
					return
				case <-ticker.C:
				}
			}
		}
	}
}

// Release drops a watcher's claim on an attempt; once no watchers remain and
// no submission happened, the attempt is discarded without a trace.
func (s *AttemptService) Release(quizID, userID string) {
	attempt, ok := s.attempts.Get(quizID, userID)
	if !ok {
		return
	}
	if attempt.watcherCount() > 0 {
		return
	}
	if attempt.abandon() {
		s.attempts.Delete(quizID, userID)
	}
}
