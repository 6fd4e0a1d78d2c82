package domain

import "errors"

var (
	// ErrQuizNotFound indicates the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizInactive indicates the quiz exists but is not offered to participants.
	ErrQuizInactive = errors.New("quiz is not active")
	// ErrAlreadySubmitted is returned when a submission already exists for the
	// (quiz, user) pair, whether detected up front or lost to a concurrent writer.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrAttemptNotFound is returned when acting on a quiz without a live attempt.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptIncomplete rejects a manual submit while slots are unanswered.
	ErrAttemptIncomplete = errors.New("attempt has unanswered questions")
	// ErrAttemptFinished is returned when an attempt is acted on after a submit
	// has already started or completed.
	ErrAttemptFinished = errors.New("attempt already finished")
	// ErrQuestionIndexOutOfRange rejects navigation outside the question list.
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
	// ErrOptionOutOfRange rejects an answer index outside the option list.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrCurrentUnanswered blocks advancing past an unanswered question.
	ErrCurrentUnanswered = errors.New("current question is unanswered")
)

// Authoring validation errors, reported at quiz creation time.
var (
	ErrTitleRequired           = errors.New("title is required")
	ErrInvalidTimeLimit        = errors.New("time limit must not be negative")
	ErrNoQuestions             = errors.New("quiz must have at least one question")
	ErrQuestionTextRequired    = errors.New("question text is required")
	ErrTooFewOptions           = errors.New("question needs at least two options")
	ErrEmptyOption             = errors.New("options must not be empty")
	ErrCorrectAnswerOutOfRange = errors.New("correct answer index out of range")
	ErrNegativePoints          = errors.New("question points must not be negative")
)
