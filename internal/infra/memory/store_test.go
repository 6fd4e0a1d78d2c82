package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizarena/internal/domain"
)

func storeQuiz(t *testing.T, s *Store, title string, active bool, createdAt time.Time) domain.Quiz {
	t.Helper()
	quiz, err := domain.NewQuiz("admin", title, "", 0, []domain.Question{
		{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: 0, Points: 5},
	})
	if err != nil {
		t.Fatalf("new quiz: %v", err)
	}
	quiz.IsActive = active
	quiz.CreatedAt = createdAt
	if err := s.CreateQuiz(context.Background(), quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return *quiz
}

func TestStoreListQuizzesFiltersAndOrders(t *testing.T) {
	s := NewStore()
	base := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	older := storeQuiz(t, s, "older", true, base)
	newer := storeQuiz(t, s, "newer", true, base.Add(time.Hour))
	storeQuiz(t, s, "draft", false, base.Add(2*time.Hour))

	active, err := s.ListQuizzes(context.Background(), true)
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active quizzes, got %d", len(active))
	}
	if active[0].ID != newer.ID || active[1].ID != older.ID {
		t.Fatalf("expected newest-first order, got %q then %q", active[0].Title, active[1].Title)
	}

	all, err := s.ListQuizzes(context.Background(), false)
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 quizzes, got %d", len(all))
	}
}

func TestStoreInsertSubmissionRejectsDuplicate(t *testing.T) {
	s := NewStore()
	quiz := storeQuiz(t, s, "dup", true, time.Now())

	sub := domain.Submission{ID: "s1", QuizID: quiz.ID, UserID: "u1", Score: 5, TotalPossible: 5, Percentage: 100}
	if err := s.InsertSubmission(context.Background(), &sub); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	second := domain.Submission{ID: "s2", QuizID: quiz.ID, UserID: "u1"}
	if err := s.InsertSubmission(context.Background(), &second); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}

	has, err := s.HasSubmission(context.Background(), quiz.ID, "u1")
	if err != nil || !has {
		t.Fatalf("expected recorded submission, has=%v err=%v", has, err)
	}
	count, _ := s.CountSubmissions(context.Background())
	if count != 1 {
		t.Fatalf("expected 1 submission, got %d", count)
	}
}

func TestStoreDeleteQuizCascades(t *testing.T) {
	s := NewStore()
	quiz := storeQuiz(t, s, "doomed", true, time.Now())
	other := storeQuiz(t, s, "kept", true, time.Now())

	for i, quizID := range []string{quiz.ID, other.ID} {
		sub := domain.Submission{ID: string(rune('a' + i)), QuizID: quizID, UserID: "u1"}
		if err := s.InsertSubmission(context.Background(), &sub); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if err := s.DeleteQuiz(context.Background(), quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := s.GetQuiz(context.Background(), quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	subs, _ := s.ListSubmissions(context.Background())
	if len(subs) != 1 || subs[0].QuizID != other.ID {
		t.Fatalf("expected only the surviving quiz submission, got %+v", subs)
	}
}

func TestStoreProfileLookups(t *testing.T) {
	s := NewStore()
	s.SeedProfiles(
		domain.Profile{ID: "u1", FullName: "Alice", Email: "alice@example.com"},
		domain.Profile{ID: "u2", FullName: "Bob", Email: "bob@example.com"},
	)

	profiles, err := s.GetProfiles(context.Background(), []string{"u2", "ghost"})
	if err != nil {
		t.Fatalf("get profiles: %v", err)
	}
	if len(profiles) != 1 || profiles["u2"].FullName != "Bob" {
		t.Fatalf("unexpected profiles: %+v", profiles)
	}
	count, _ := s.CountProfiles(context.Background())
	if count != 2 {
		t.Fatalf("expected 2 profiles, got %d", count)
	}
}
