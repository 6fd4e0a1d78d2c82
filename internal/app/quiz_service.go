package app

import (
	"context"
	"fmt"

	"quizarena/internal/domain"
	"quizarena/internal/ranking"
)

// QuizService covers authoring, catalog, and leaderboard use cases.
// Attempt-taking lives in AttemptService.
type QuizService struct {
	store Store
}

func NewQuizService(store Store) *QuizService {
	return &QuizService{store: store}
}

// QuizInput is the authoring payload for create and update.
type QuizInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	TimeLimit   int               `json:"time_limit"` // minutes, 0 = untimed
	Questions   []domain.Question `json:"questions"`
}

// CreateQuiz validates and persists a new quiz, active by default.
func (s *QuizService) CreateQuiz(ctx context.Context, createdBy string, input QuizInput) (*domain.Quiz, error) {
	quiz, err := domain.NewQuiz(createdBy, input.Title, input.Description, input.TimeLimit, input.Questions)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

// UpdateQuiz replaces the editable fields of an existing quiz. Submissions
// already recorded keep their snapshot of total_possible.
func (s *QuizService) UpdateQuiz(ctx context.Context, id string, input QuizInput) (*domain.Quiz, error) {
	quiz, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := quiz.Update(input.Title, input.Description, input.TimeLimit, input.Questions); err != nil {
		return nil, err
	}
	if err := s.store.UpdateQuiz(ctx, &quiz); err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	return &quiz, nil
}

// SetQuizActive toggles whether participants are offered the quiz.
func (s *QuizService) SetQuizActive(ctx context.Context, id string, active bool) error {
	if _, err := s.store.GetQuiz(ctx, id); err != nil {
		return err
	}
	return s.store.SetQuizActive(ctx, id, active)
}

// DeleteQuiz removes the quiz; its submissions go with it.
func (s *QuizService) DeleteQuiz(ctx context.Context, id string) error {
	if _, err := s.store.GetQuiz(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteQuiz(ctx, id)
}

// GetQuiz returns one quiz, including correct answers. Callers serving
// participants must sanitize before sending it out.
func (s *QuizService) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	return s.store.GetQuiz(ctx, id)
}

// QuizOverview pairs a quiz with the caller's submission, if any, so a
// catalog view can mark completed quizzes.
type QuizOverview struct {
	Quiz       domain.Quiz        `json:"quiz"`
	Submission *domain.Submission `json:"submission,omitempty"`
}

// ListForParticipant returns active quizzes annotated with the participant's
// own results.
func (s *QuizService) ListForParticipant(ctx context.Context, userID string) ([]QuizOverview, error) {
	quizzes, err := s.store.ListQuizzes(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	subs, err := s.store.ListSubmissionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	byQuiz := make(map[string]domain.Submission, len(subs))
	for _, sub := range subs {
		byQuiz[sub.QuizID] = sub
	}

	overviews := make([]QuizOverview, 0, len(quizzes))
	for _, quiz := range quizzes {
		overview := QuizOverview{Quiz: quiz}
		if sub, ok := byQuiz[quiz.ID]; ok {
			overview.Submission = &sub
		}
		overviews = append(overviews, overview)
	}
	return overviews, nil
}

// QuizSummary is an admin dashboard row: the quiz plus submission stats.
type QuizSummary struct {
	Quiz              domain.Quiz `json:"quiz"`
	SubmissionCount   int         `json:"submission_count"`
	AveragePercentage float64     `json:"average_percentage"`
}

// ListForAdmin returns every quiz, active or not, with per-quiz stats.
func (s *QuizService) ListForAdmin(ctx context.Context) ([]QuizSummary, error) {
	quizzes, err := s.store.ListQuizzes(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	summaries := make([]QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		subs, err := s.store.ListSubmissionsByQuiz(ctx, quiz.ID)
		if err != nil {
			return nil, fmt.Errorf("list submissions for %s: %w", quiz.ID, err)
		}
		summary := QuizSummary{Quiz: quiz, SubmissionCount: len(subs)}
		if len(subs) > 0 {
			total := 0.0
			for _, sub := range subs {
				total += sub.Percentage
			}
			summary.AveragePercentage = total / float64(len(subs))
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// QuizLeaderboard is the ranked view of one quiz's submissions.
type QuizLeaderboard struct {
	QuizID      string              `json:"quiz_id"`
	Title       string              `json:"title"`
	TotalPoints int                 `json:"total_points"`
	Entries     []ranking.QuizEntry `json:"entries"`
}

// Leaderboard ranks all submissions for one quiz over a best-effort
// snapshot read at call time.
func (s *QuizService) Leaderboard(ctx context.Context, quizID string) (QuizLeaderboard, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizLeaderboard{}, err
	}
	subs, err := s.store.ListSubmissionsByQuiz(ctx, quizID)
	if err != nil {
		return QuizLeaderboard{}, fmt.Errorf("list submissions: %w", err)
	}
	profiles, err := s.profilesFor(ctx, subs)
	if err != nil {
		return QuizLeaderboard{}, err
	}
	return QuizLeaderboard{
		QuizID:      quiz.ID,
		Title:       quiz.Title,
		TotalPoints: quiz.TotalPoints,
		Entries:     ranking.PerQuiz(subs, profiles),
	}, nil
}

// OverallLeaderboard aggregates every participant's submissions across all
// quizzes, ranked by total score.
func (s *QuizService) OverallLeaderboard(ctx context.Context) ([]ranking.OverallEntry, error) {
	subs, err := s.store.ListSubmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	profiles, err := s.profilesFor(ctx, subs)
	if err != nil {
		return nil, err
	}
	return ranking.Overall(subs, profiles), nil
}

func (s *QuizService) profilesFor(ctx context.Context, subs []domain.Submission) (map[string]domain.Profile, error) {
	seen := make(map[string]struct{}, len(subs))
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		if _, ok := seen[sub.UserID]; ok {
			continue
		}
		seen[sub.UserID] = struct{}{}
		ids = append(ids, sub.UserID)
	}
	if len(ids) == 0 {
		return map[string]domain.Profile{}, nil
	}
	profiles, err := s.store.GetProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return profiles, nil
}

// Stats is the platform-wide dashboard summary.
type Stats struct {
	TotalQuizzes      int     `json:"total_quizzes"`
	TotalSubmissions  int     `json:"total_submissions"`
	TotalUsers        int     `json:"total_users"`
	AveragePercentage float64 `json:"average_percentage"`
}

// Stats counts quizzes, submissions, and users, and averages submission
// percentages across the platform.
func (s *QuizService) Stats(ctx context.Context) (Stats, error) {
	quizzes, err := s.store.ListQuizzes(ctx, false)
	if err != nil {
		return Stats{}, fmt.Errorf("list quizzes: %w", err)
	}
	subCount, err := s.store.CountSubmissions(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count submissions: %w", err)
	}
	userCount, err := s.store.CountProfiles(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count profiles: %w", err)
	}

	stats := Stats{
		TotalQuizzes:     len(quizzes),
		TotalSubmissions: subCount,
		TotalUsers:       userCount,
	}
	if subCount > 0 {
		subs, err := s.store.ListSubmissions(ctx)
		if err != nil {
			return Stats{}, fmt.Errorf("list submissions: %w", err)
		}
		total := 0.0
		for _, sub := range subs {
			total += sub.Percentage
		}
		stats.AveragePercentage = total / float64(len(subs))
	}
	return stats, nil
}
