// Package ranking turns persisted submissions into ordered leaderboards.
// Both views recompute from a snapshot on every call; nothing here reads a
// store or mutates its inputs.
package ranking

import (
	"sort"
	"time"

	"quizarena/internal/domain"
)

// QuizEntry is one row of a per-quiz leaderboard.
type QuizEntry struct {
	Rank        int       `json:"rank"`
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name,omitempty"`
	Email       string    `json:"email"`
	Score       int       `json:"score"`
	Percentage  float64   `json:"percentage"`
	TimeTaken   *int      `json:"time_taken,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// OverallEntry aggregates a participant's results across all quizzes.
type OverallEntry struct {
	Rank         int     `json:"rank"`
	UserID       string  `json:"user_id"`
	FullName     string  `json:"full_name,omitempty"`
	Email        string  `json:"email"`
	TotalScore   int     `json:"total_score"`
	QuizCount    int     `json:"quiz_count"`
	AverageScore float64 `json:"average_score"`
	BestScore    int     `json:"best_score"`
}

// PerQuiz ranks the submissions of a single quiz: score descending, then
// time taken ascending with missing times last. The sort is stable, so
// submissions tied on both keys keep their input order, and ranks are the
// 1-based positions after sorting: always exactly 1..N, never shared.
func PerQuiz(submissions []domain.Submission, profiles map[string]domain.Profile) []QuizEntry {
	entries := make([]QuizEntry, 0, len(submissions))
	for _, sub := range submissions {
		profile := profiles[sub.UserID]
		entries = append(entries, QuizEntry{
			UserID:      sub.UserID,
			FullName:    profile.FullName,
			Email:       profile.Email,
			Score:       sub.Score,
			Percentage:  sub.Percentage,
			TimeTaken:   sub.TimeTaken,
			SubmittedAt: sub.SubmittedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return timeTakenLess(entries[i].TimeTaken, entries[j].TimeTaken)
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// timeTakenLess orders recorded times ascending and places missing times
// after every recorded one.
func timeTakenLess(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

// Overall groups submissions by participant and ranks the aggregates by
// total score descending only. Grouping preserves first-appearance order and
// the sort is stable, so equal totals keep their relative input order.
func Overall(submissions []domain.Submission, profiles map[string]domain.Profile) []OverallEntry {
	index := make(map[string]int, len(submissions))
	entries := make([]OverallEntry, 0, len(submissions))

	for _, sub := range submissions {
		i, ok := index[sub.UserID]
		if !ok {
			profile := profiles[sub.UserID]
			i = len(entries)
			index[sub.UserID] = i
			entries = append(entries, OverallEntry{
				UserID:   sub.UserID,
				FullName: profile.FullName,
				Email:    profile.Email,
			})
		}
		entries[i].TotalScore += sub.Score
		entries[i].QuizCount++
		if sub.Score > entries[i].BestScore {
			entries[i].BestScore = sub.Score
		}
	}

	for i := range entries {
		entries[i].AverageScore = float64(entries[i].TotalScore) / float64(entries[i].QuizCount)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
