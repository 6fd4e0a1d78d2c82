// Package http exposes the quiz platform over REST for authoring, catalogs,
// and leaderboards, and over a websocket for live attempts.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quizarena/internal/app"
	"quizarena/internal/domain"
)

// NewRouter wires every route. Callers identify themselves with the
// X-User-ID header; authentication itself is handled upstream.
func NewRouter(quizzes *app.QuizService, attempts *app.AttemptService) http.Handler {
	h := &handler{quizzes: quizzes}
	ws := NewWSHandler(attempts)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/quizzes", func(r chi.Router) {
		r.Get("/", h.listForParticipant)
		r.Post("/", h.createQuiz)
		r.Get("/admin", h.listForAdmin)
		r.Route("/{quizID}", func(r chi.Router) {
			r.Get("/", h.getQuiz)
			r.Put("/", h.updateQuiz)
			r.Delete("/", h.deleteQuiz)
			r.Patch("/active", h.setQuizActive)
			r.Get("/leaderboard", h.quizLeaderboard)
		})
	})
	r.Get("/leaderboard", h.overallLeaderboard)
	r.Get("/stats", h.stats)
	r.Get("/attempts/ws", ws.ServeWS)

	return r
}

type handler struct {
	quizzes *app.QuizService
}

func (h *handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var input app.QuizInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid quiz payload", http.StatusBadRequest)
		return
	}
	quiz, err := h.quizzes.CreateQuiz(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *handler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	var input app.QuizInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid quiz payload", http.StatusBadRequest)
		return
	}
	quiz, err := h.quizzes.UpdateQuiz(r.Context(), chi.URLParam(r, "quizID"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.quizzes.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) setQuizActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.quizzes.SetQuizActive(r.Context(), chi.URLParam(r, "quizID"), body.Active); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getQuiz serves the participant-facing view, with correct answers removed.
func (h *handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitizeQuiz(quiz))
}

func (h *handler) listForParticipant(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	overviews, err := h.quizzes.ListForParticipant(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]participantOverview, 0, len(overviews))
	for _, ov := range overviews {
		out = append(out, participantOverview{Quiz: sanitizeQuiz(ov.Quiz), Submission: ov.Submission})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) listForAdmin(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.quizzes.ListForAdmin(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) quizLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.quizzes.Leaderboard(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *handler) overallLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.quizzes.OverallLeaderboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.quizzes.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// participantQuestion is a question with the correct answer stripped.
type participantQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Points   int      `json:"points"`
}

type participantQuiz struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Questions   []participantQuestion `json:"questions"`
	TotalPoints int                   `json:"total_points"`
	TimeLimit   int                   `json:"time_limit,omitempty"`
	IsActive    bool                  `json:"is_active"`
}

type participantOverview struct {
	Quiz       participantQuiz    `json:"quiz"`
	Submission *domain.Submission `json:"submission,omitempty"`
}

// sanitizeQuiz builds the participant view. Correct answers never leave the
// server; grading happens here.
func sanitizeQuiz(quiz domain.Quiz) participantQuiz {
	questions := make([]participantQuestion, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, participantQuestion{
			Question: q.Question,
			Options:  q.Options,
			Points:   q.Points,
		})
	}
	return participantQuiz{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Questions:   questions,
		TotalPoints: quiz.TotalPoints,
		TimeLimit:   quiz.TimeLimit,
		IsActive:    quiz.IsActive,
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrAttemptNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadySubmitted), errors.Is(err, domain.ErrQuizInactive):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrInvalidTimeLimit),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrQuestionTextRequired),
		errors.Is(err, domain.ErrTooFewOptions),
		errors.Is(err, domain.ErrEmptyOption),
		errors.Is(err, domain.ErrCorrectAnswerOutOfRange),
		errors.Is(err, domain.ErrNegativePoints):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
