package domain

import (
	"time"

	"github.com/google/uuid"
)

// Question is a single multiple-choice question embedded in a quiz.
// CorrectAnswer is a zero-based index into Options.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Points        int      `json:"points"`
}

// Quiz is an administrator-authored set of questions. Question order is
// meaningful: it defines numbering and navigation order during an attempt.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
	TotalPoints int        `json:"total_points"`
	TimeLimit   int        `json:"time_limit,omitempty"` // minutes; 0 means untimed
	CreatedBy   string     `json:"created_by,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewQuiz validates the question set and builds a quiz with TotalPoints
// computed from the questions, keeping the sum invariant by construction.
func NewQuiz(createdBy, title, description string, timeLimit int, questions []Question) (*Quiz, error) {
	if title == "" {
		return nil, ErrTitleRequired
	}
	if timeLimit < 0 {
		return nil, ErrInvalidTimeLimit
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	total := 0
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		total += q.Points
	}

	now := time.Now()
	return &Quiz{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Questions:   questions,
		TotalPoints: total,
		TimeLimit:   timeLimit,
		CreatedBy:   createdBy,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update replaces the editable fields and recomputes TotalPoints.
// Existing submissions keep their own total_possible snapshot, so edits
// never change past results.
func (q *Quiz) Update(title, description string, timeLimit int, questions []Question) error {
	updated, err := NewQuiz(q.CreatedBy, title, description, timeLimit, questions)
	if err != nil {
		return err
	}
	q.Title = updated.Title
	q.Description = updated.Description
	q.Questions = updated.Questions
	q.TotalPoints = updated.TotalPoints
	q.TimeLimit = updated.TimeLimit
	q.UpdatedAt = time.Now()
	return nil
}

// Validate checks the fixed question shape at authoring time so attempts
// never have to re-validate it at read time.
func (q Question) Validate() error {
	if q.Question == "" {
		return ErrQuestionTextRequired
	}
	if len(q.Options) < 2 {
		return ErrTooFewOptions
	}
	for _, opt := range q.Options {
		if opt == "" {
			return ErrEmptyOption
		}
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return ErrCorrectAnswerOutOfRange
	}
	if q.Points < 0 {
		return ErrNegativePoints
	}
	return nil
}

// Submission is the immutable record of one graded attempt. At most one
// exists per (QuizID, UserID) pair; the store enforces the uniqueness.
type Submission struct {
	ID            string    `json:"id"`
	QuizID        string    `json:"quiz_id"`
	UserID        string    `json:"user_id"`
	Answers       []int     `json:"answers"` // -1 marks a slot left unanswered
	Score         int       `json:"score"`
	TotalPossible int       `json:"total_possible"`
	Percentage    float64   `json:"percentage"`
	TimeTaken     *int      `json:"time_taken,omitempty"` // wall-clock seconds
	SubmittedAt   time.Time `json:"submitted_at"`
}

// Profile is display metadata for a participant, provided by an external
// identity collaborator. Read-only here.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email"`
}

// DisplayName prefers the full name and falls back to the email address.
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}
