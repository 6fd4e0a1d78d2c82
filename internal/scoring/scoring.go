// Package scoring grades a finished answer sheet against a quiz definition.
// It is a pure function of its inputs: no clocks, no stores, no side effects.
package scoring

import "quizarena/internal/domain"

// Unanswered marks an answer slot the participant never filled in.
// It compares unequal to every valid option index, so it never scores.
const Unanswered = -1

// Result is the graded outcome of one answer sheet.
type Result struct {
	Score         int     `json:"score"`
	TotalPossible int     `json:"total_possible"`
	Percentage    float64 `json:"percentage"`
	Correct       []bool  `json:"correct"` // per-question correctness, quiz order
}

// CorrectCount reports how many questions were answered correctly.
func (r Result) CorrectCount() int {
	n := 0
	for _, ok := range r.Correct {
		if ok {
			n++
		}
	}
	return n
}

// Score grades answers against the quiz. answers holds one slot per question
// in quiz order; slots beyond len(answers) count as unanswered. TotalPossible
// is taken from the quiz's recorded TotalPoints rather than recomputed, so a
// submission snapshots exactly what the quiz advertised at grading time.
func Score(quiz domain.Quiz, answers []int) Result {
	result := Result{
		TotalPossible: quiz.TotalPoints,
		Correct:       make([]bool, len(quiz.Questions)),
	}

	for i, q := range quiz.Questions {
		if i >= len(answers) || answers[i] == Unanswered {
			continue
		}
		if answers[i] == q.CorrectAnswer {
			result.Correct[i] = true
			result.Score += q.Points
		}
	}

	if result.TotalPossible > 0 {
		result.Percentage = float64(result.Score) / float64(result.TotalPossible) * 100
	}
	return result
}

// NewAnswerSheet returns an all-unanswered sheet for n questions.
func NewAnswerSheet(n int) []int {
	answers := make([]int, n)
	for i := range answers {
		answers[i] = Unanswered
	}
	return answers
}
