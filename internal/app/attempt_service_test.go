package app_test

import (
	"context"
	"errors"
	"testing"

	"quizarena/internal/app"
	"quizarena/internal/domain"
	"quizarena/internal/infra/memory"
)

func newFixture(t *testing.T) (*app.AttemptService, *app.QuizService, *memory.Store, string) {
	t.Helper()
	store := memory.NewStore()
	store.SeedProfiles(
		domain.Profile{ID: "u1", FullName: "Alice", Email: "alice@example.com"},
		domain.Profile{ID: "u2", FullName: "Bob", Email: "bob@example.com"},
	)
	quizzes := app.NewQuizService(store)
	quiz, err := quizzes.CreateQuiz(context.Background(), "admin-1", app.QuizInput{
		Title: "Capitals",
		Questions: []domain.Question{
			{Question: "Capital of France?", Options: []string{"Paris", "Lyon"}, CorrectAnswer: 0, Points: 10},
			{Question: "Capital of Japan?", Options: []string{"Osaka", "Tokyo"}, CorrectAnswer: 1, Points: 10},
			{Question: "Capital of Peru?", Options: []string{"Lima", "Cusco"}, CorrectAnswer: 0, Points: 5},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	attempts := app.NewAttemptService(memory.NewAttemptRegistry(), store)
	return attempts, quizzes, store, quiz.ID
}

func TestStartBlockedForMissingOrInactiveQuiz(t *testing.T) {
	ctx := context.Background()
	attempts, quizzes, _, quizID := newFixture(t)

	if _, err := attempts.Start(ctx, "nope", "u1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	if err := quizzes.SetQuizActive(ctx, quizID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := attempts.Start(ctx, quizID, "u1"); !errors.Is(err, domain.ErrQuizInactive) {
		t.Fatalf("expected ErrQuizInactive, got %v", err)
	}
}

func TestStartBlockedAfterSubmission(t *testing.T) {
	ctx := context.Background()
	attempts, _, _, quizID := newFixture(t)

	attempt, err := attempts.Start(ctx, quizID, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answerAll(t, attempt, []int{0, 1, 0})
	if _, _, err := attempts.Submit(ctx, quizID, "u1"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := attempts.Start(ctx, quizID, "u1"); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestStartIsSharedAcrossTabs(t *testing.T) {
	ctx := context.Background()
	attempts, _, _, quizID := newFixture(t)

	first, err := attempts.Start(ctx, quizID, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := first.Answer(0); err != nil {
		t.Fatalf("answer: %v", err)
	}

	second, err := attempts.Start(ctx, quizID, "u1")
	if err != nil {
		t.Fatalf("re-start: %v", err)
	}
	if second != first {
		t.Fatalf("expected the same live attempt for both tabs")
	}
	if second.Snapshot().Answers[0] != 0 {
		t.Fatalf("expected progress to be shared")
	}
}

func TestNavigationRules(t *testing.T) {
	ctx := context.Background()
	attempts, _, _, quizID := newFixture(t)

	if _, err := attempts.Start(ctx, quizID, "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Next is gated on the current slot being answered.
	if err := attempts.Next(quizID, "u1"); !errors.Is(err, domain.ErrCurrentUnanswered) {
		t.Fatalf("expected ErrCurrentUnanswered, got %v", err)
	}
	if err := attempts.Answer(quizID, "u1", 0); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := attempts.Next(quizID, "u1"); err != nil {
		t.Fatalf("next after answering: %v", err)
	}

	// Previous has no gate.
	if err := attempts.Previous(quizID, "u1"); err != nil {
		t.Fatalf("previous: %v", err)
	}

	// Direct selection reaches any valid index, answered or not.
	if err := attempts.NavigateTo(quizID, "u1", 2); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := attempts.NavigateTo(quizID, "u1", 3); !errors.Is(err, domain.ErrQuestionIndexOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
}

func TestAnswerOverwritesWithoutAdvancing(t *testing.T) {
	ctx := context.Background()
	attempts, _, _, quizID := newFixture(t)

	attempt, err := attempts.Start(ctx, quizID, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := attempts.Answer(quizID, "u1", 0); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := attempts.Answer(quizID, "u1", 1); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	snap := attempt.Snapshot()
	if snap.Answers[0] != 1 {
		t.Fatalf("expected overwritten answer 1, got %d", snap.Answers[0])
	}
	if snap.CurrentQuestion != 0 {
		t.Fatalf("answering must not auto-advance, at question %d", snap.CurrentQuestion)
	}
	if err := attempts.Answer(quizID, "u1", 5); !errors.Is(err, domain.ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange, got %v", err)
	}
}

func TestManualSubmitRequiresAllAnswers(t *testing.T) {
	ctx := context.Background()
	attempts, _, _, quizID := newFixture(t)

	if _, err := attempts.Start(ctx, quizID, "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := attempts.Answer(quizID, "u1", 0); err != nil {
		t.Fatalf("answer: %v", err)
	}

	_, _, err := attempts.Submit(ctx, quizID, "u1")
	if !errors.Is(err, domain.ErrAttemptIncomplete) {
		t.Fatalf("expected ErrAttemptIncomplete, got %v", err)
	}

	// Rejected locally: nothing persisted, attempt still live.
	if _, err := attempts.Get(quizID, "u1"); err != nil {
		t.Fatalf("attempt must remain live, got %v", err)
	}
}

func TestSubmitGradesAndPersists(t *testing.T) {
	ctx := context.Background()
	attempts, _, store, quizID := newFixture(t)

	attempt, err := attempts.Start(ctx, quizID, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// Correct on questions 1 and 3 only.
	answerAll(t, attempt, []int{0, 0, 0})

	sub, result, err := attempts.Submit(ctx, quizID, "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Score != 15 || sub.TotalPossible != 25 || sub.Percentage != 60.0 {
		t.Fatalf("unexpected grading: %+v", sub)
	}
	if result.CorrectCount() != 2 {
		t.Fatalf("expected 2 correct, got %d", result.CorrectCount())
	}
	if sub.TimeTaken == nil || *sub.TimeTaken < 0 {
		t.Fatalf("expected recorded time taken, got %v", sub.TimeTaken)
	}

	stored, err := store.ListSubmissionsByQuiz(ctx, quizID)
	if err != nil || len(stored) != 1 {
		t.Fatalf("expected one stored submission, got %d (%v)", len(stored), err)
	}
	if _, err := attempts.Get(quizID, "u1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("attempt must be gone after submit, got %v", err)
	}
}

func TestDuplicateSubmitDoesNotCreateSecondRecord(t *testing.T) {
	ctx := context.Background()
	attempts, _, store, quizID := newFixture(t)

	attempt, err := attempts.Start(ctx, quizID, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answerAll(t, attempt, []int{0, 1, 0})
	if _, _, err := attempts.Submit(ctx, quizID, "u1"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := attempts.Submit(ctx, quizID, "u1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound after completion, got %v", err)
	}

	count, err := store.CountSubmissions(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected exactly one submission, got %d (%v)", count, err)
	}
}

func answerAll(t *testing.T, attempt *app.Attempt, answers []int) {
	t.Helper()
	for i, ans := range answers {
		if err := attempt.NavigateTo(i); err != nil {
			t.Fatalf("navigate to %d: %v", i, err)
		}
		if err := attempt.Answer(ans); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
}
