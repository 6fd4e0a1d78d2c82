// Package postgres persists quizzes, submissions, and profile reads in
// Postgres via pgx. Questions and answer sheets are stored as JSONB so the
// authored structure round-trips without a join table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizarena/internal/domain"
)

// Store is the Postgres implementation of app.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const quizColumns = `id, title, description, questions, total_points, time_limit, created_by, is_active, created_at, updated_at`

func (s *Store) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quizzes (`+quizColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		quiz.ID, quiz.Title, quiz.Description, questions, quiz.TotalPoints,
		quiz.TimeLimit, quiz.CreatedBy, quiz.IsActive, quiz.CreatedAt, quiz.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, id)
	quiz, err := scanQuiz(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) ListQuizzes(ctx context.Context, activeOnly bool) ([]domain.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes ORDER BY created_at DESC`
	if activeOnly {
		query = `SELECT ` + quizColumns + ` FROM quizzes WHERE is_active ORDER BY created_at DESC`
	}
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE quizzes
		SET title=$2, description=$3, questions=$4, total_points=$5, time_limit=$6, updated_at=$7
		WHERE id=$1`,
		quiz.ID, quiz.Title, quiz.Description, questions, quiz.TotalPoints, quiz.TimeLimit, quiz.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) SetQuizActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE quizzes SET is_active=$2, updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return fmt.Errorf("set quiz active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// DeleteQuiz removes the quiz; its submissions go with it through the
// ON DELETE CASCADE constraint.
func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// InsertSubmission relies on the UNIQUE (quiz_id, user_id) constraint to
// arbitrate concurrent submits: the loser's insert affects zero rows and
// maps to domain.ErrAlreadySubmitted.
func (s *Store) InsertSubmission(ctx context.Context, sub *domain.Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_submissions
			(id, quiz_id, user_id, answers, score, total_possible, percentage, time_taken, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (quiz_id, user_id) DO NOTHING`,
		sub.ID, sub.QuizID, sub.UserID, answers, sub.Score, sub.TotalPossible,
		sub.Percentage, sub.TimeTaken, sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadySubmitted
	}
	return nil
}

func (s *Store) HasSubmission(ctx context.Context, quizID, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quiz_submissions WHERE quiz_id=$1 AND user_id=$2)`,
		quizID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	return exists, nil
}

const submissionColumns = `id, quiz_id, user_id, answers, score, total_possible, percentage, time_taken, submitted_at`

func (s *Store) ListSubmissionsByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error) {
	return s.querySubmissions(ctx,
		`SELECT `+submissionColumns+` FROM quiz_submissions WHERE quiz_id=$1 ORDER BY submitted_at ASC`, quizID)
}

func (s *Store) ListSubmissionsByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	return s.querySubmissions(ctx,
		`SELECT `+submissionColumns+` FROM quiz_submissions WHERE user_id=$1 ORDER BY submitted_at ASC`, userID)
}

func (s *Store) ListSubmissions(ctx context.Context) ([]domain.Submission, error) {
	return s.querySubmissions(ctx,
		`SELECT `+submissionColumns+` FROM quiz_submissions ORDER BY submitted_at ASC`)
}

func (s *Store) CountSubmissions(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM quiz_submissions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}

func (s *Store) querySubmissions(ctx context.Context, query string, args ...interface{}) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]domain.Submission, 0)
	for rows.Next() {
		var sub domain.Submission
		var answers []byte
		err := rows.Scan(&sub.ID, &sub.QuizID, &sub.UserID, &answers, &sub.Score,
			&sub.TotalPossible, &sub.Percentage, &sub.TimeTaken, &sub.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := json.Unmarshal(answers, &sub.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Store) GetProfiles(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, full_name, email FROM profiles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	defer rows.Close()

	profiles := make(map[string]domain.Profile, len(ids))
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles[p.ID] = p
	}
	return profiles, rows.Err()
}

func (s *Store) CountProfiles(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

// SeedProfiles upserts display data, used by the demo seed and tests.
// Production deployments sync profiles from the identity provider instead.
func (s *Store) SeedProfiles(ctx context.Context, profiles ...domain.Profile) error {
	for _, p := range profiles {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO profiles (id, full_name, email)
			VALUES ($1,$2,$3)
			ON CONFLICT (id) DO UPDATE SET full_name=EXCLUDED.full_name, email=EXCLUDED.email`,
			p.ID, p.FullName, p.Email)
		if err != nil {
			return fmt.Errorf("seed profile %s: %w", p.ID, err)
		}
	}
	return nil
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var quiz domain.Quiz
	var questions []byte
	err := row.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &questions, &quiz.TotalPoints,
		&quiz.TimeLimit, &quiz.CreatedBy, &quiz.IsActive, &quiz.CreatedAt, &quiz.UpdatedAt)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := json.Unmarshal(questions, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}
