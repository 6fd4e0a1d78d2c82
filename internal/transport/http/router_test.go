package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizarena/internal/domain"
)

func doJSON(t *testing.T, server *httptest.Server, method, path, userID string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouterQuizLifecycle(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp := doJSON(t, server, http.MethodPost, "/quizzes", "admin", map[string]any{
		"title": "Math",
		"questions": []map[string]any{
			{"question": "1+1?", "options": []string{"1", "2"}, "correct_answer": 1, "points": 5},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %d", resp.StatusCode)
	}
	var created domain.Quiz
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.TotalPoints != 5 || !created.IsActive {
		t.Fatalf("unexpected created quiz: %+v", created)
	}

	resp = doJSON(t, server, http.MethodPatch, "/quizzes/"+created.ID+"/active", "admin", map[string]any{"active": false})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("deactivate status: %d", resp.StatusCode)
	}

	// Deactivated quizzes drop out of the participant catalog.
	resp = doJSON(t, server, http.MethodGet, "/quizzes", "u1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %d", resp.StatusCode)
	}
	var overviews []participantOverview
	if err := json.NewDecoder(resp.Body).Decode(&overviews); err != nil {
		t.Fatalf("decode overviews: %v", err)
	}
	for _, ov := range overviews {
		if ov.Quiz.ID == created.ID {
			t.Fatalf("inactive quiz still listed for participants")
		}
	}

	resp = doJSON(t, server, http.MethodDelete, "/quizzes/"+created.ID, "admin", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}
	resp = doJSON(t, server, http.MethodGet, "/quizzes/"+created.ID, "admin", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestRouterCreateQuizValidation(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp := doJSON(t, server, http.MethodPost, "/quizzes", "admin", map[string]any{"title": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty title, got %d", resp.StatusCode)
	}

	resp = doJSON(t, server, http.MethodPost, "/quizzes", "", map[string]any{"title": "x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user header, got %d", resp.StatusCode)
	}
}

func TestRouterQuizViewHidesAnswers(t *testing.T) {
	server, _, quizID := newTestServer(t)

	resp := doJSON(t, server, http.MethodGet, "/quizzes/"+quizID, "u1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %d", resp.StatusCode)
	}
	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode quiz: %v", err)
	}
	questions := raw["questions"].([]any)
	if len(questions) == 0 {
		t.Fatalf("expected questions")
	}
	if _, leaked := questions[0].(map[string]any)["correct_answer"]; leaked {
		t.Fatalf("correct answer leaked")
	}
}

func TestRouterLeaderboardsAndStats(t *testing.T) {
	server, store, quizID := newTestServer(t)

	tt1, tt2 := 90, 120
	subs := []domain.Submission{
		{ID: "s1", QuizID: quizID, UserID: "u1", Score: 20, TotalPossible: 25, Percentage: 80, TimeTaken: &tt1, SubmittedAt: time.Now()},
		{ID: "s2", QuizID: quizID, UserID: "u2", Score: 25, TotalPossible: 25, Percentage: 100, TimeTaken: &tt2, SubmittedAt: time.Now()},
	}
	for i := range subs {
		if err := store.InsertSubmission(context.Background(), &subs[i]); err != nil {
			t.Fatalf("insert submission: %v", err)
		}
	}

	resp := doJSON(t, server, http.MethodGet, "/quizzes/"+quizID+"/leaderboard", "u1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard status: %d", resp.StatusCode)
	}
	var lb struct {
		Entries []struct {
			Rank     int    `json:"rank"`
			UserID   string `json:"user_id"`
			FullName string `json:"full_name"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&lb); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(lb.Entries) != 2 || lb.Entries[0].UserID != "u2" || lb.Entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", lb.Entries)
	}
	if lb.Entries[0].FullName != "Bob" {
		t.Fatalf("expected profile join, got %q", lb.Entries[0].FullName)
	}

	resp = doJSON(t, server, http.MethodGet, "/leaderboard", "u1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overall leaderboard status: %d", resp.StatusCode)
	}

	resp = doJSON(t, server, http.MethodGet, "/stats", "admin", nil)
	var stats struct {
		TotalQuizzes     int `json:"total_quizzes"`
		TotalSubmissions int `json:"total_submissions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalQuizzes != 1 || stats.TotalSubmissions != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
