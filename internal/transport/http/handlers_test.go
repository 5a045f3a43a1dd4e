package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/infra/memory"
)

var testNow = time.Date(2024, 11, 22, 14, 0, 0, 0, time.UTC)

type stubAuth struct {
	userID int64
	err    error
}

func (a stubAuth) Authenticate(string) (int64, error) {
	if a.err != nil {
		return 0, a.err
	}
	return a.userID, nil
}

func testQuestions() map[int64]domain.Question {
	return map[int64]domain.Question{
		1: {
			ID:         1,
			Headword:   "ephemeral",
			Definition: "lasting for a very short time",
			Options:    [domain.OptionCount]string{"short-lived", "eternal", "heavy", "translucent"},
			Difficulty: "medium",
			Active:     true,
		},
		2: {
			ID:         2,
			Headword:   "gregarious",
			Definition: "fond of company",
			Options:    [domain.OptionCount]string{"sociable", "lonely", "greedy", "slow"},
			Difficulty: "easy",
			Active:     true,
		},
	}
}

type testEnv struct {
	handler       *Handler
	progressStore *memory.ProgressStore
	reviewStore   *memory.ReviewStore
}

func newTestEnv(auth Authenticator) *testEnv {
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(testQuestions()), time.Minute)
	progressStore := memory.NewProgressStore()
	progressStore.SeedProfile(domain.Profile{UserID: 1, TotalPoints: 100, Streak: 3})
	reviewStore := memory.NewReviewStore()

	clock := func() time.Time { return testNow }
	quiz := app.NewQuizServiceWithRand(repo, rand.New(rand.NewSource(1)))
	feed := app.NewProgressFeed()
	progress := app.NewProgressServiceWithClock(progressStore, feed, clock)
	review := app.NewReviewServiceWithClock(reviewStore, repo, quiz, clock)

	return &testEnv{
		handler:       NewHandler(quiz, progress, review, feed, auth),
		progressStore: progressStore,
		reviewStore:   reviewStore,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	e.handler.Routes().ServeHTTP(rec, req)
	return rec
}

func TestRequireUser(t *testing.T) {
	env := newTestEnv(stubAuth{userID: 1})

	req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
	rec := httptest.NewRecorder()
	env.handler.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	env = newTestEnv(stubAuth{err: errors.New("bad token")})
	rec = env.do(t, http.MethodGet, "/api/questions", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for rejected token, got %d", rec.Code)
	}
}

func TestListQuestionsEndpoint(t *testing.T) {
	env := newTestEnv(stubAuth{userID: 1})

	rec := env.do(t, http.MethodGet, "/api/questions?limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var questions []domain.PresentedQuestion
	if err := json.Unmarshal(rec.Body.Bytes(), &questions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if len(q.Options) != domain.OptionCount {
			t.Fatalf("expected %d options, got %d", domain.OptionCount, len(q.Options))
		}
	}

	rec = env.do(t, http.MethodGet, "/api/questions?limit=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestValidateAnswerEndpoint(t *testing.T) {
	env := newTestEnv(stubAuth{userID: 1})

	rec := env.do(t, http.MethodPost, "/api/answers", answerRequest{QuestionID: 1, ChosenLabel: "B"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result domain.ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Correct || result.CorrectLabel != domain.CorrectLabel || result.CorrectText != "short-lived" {
		t.Fatalf("unexpected result: %+v", result)
	}

	rec = env.do(t, http.MethodPost, "/api/answers", answerRequest{QuestionID: 99, ChosenLabel: "A"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown question, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/answers", answerRequest{QuestionID: 1, ChosenLabel: "Z"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad label, got %d", rec.Code)
	}
}

func TestRecordSessionEndpoint(t *testing.T) {
	env := newTestEnv(stubAuth{userID: 1})

	rec := env.do(t, http.MethodPost, "/api/sessions", domain.SessionInput{
		CourseTag:    "general",
		CorrectCount: 7,
		TotalCount:   10,
		Answers: []domain.SessionAnswer{
			{QuestionID: 1, ChosenLabel: "A"},
			{QuestionID: 2, ChosenLabel: "C"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created["sessionId"] == 0 {
		t.Fatalf("expected session id, got %v", created)
	}

	profile, _ := env.progressStore.Profile(1)
	if profile.TotalPoints != 107 {
		t.Fatalf("expected 107 points, got %d", profile.TotalPoints)
	}

	rec = env.do(t, http.MethodPost, "/api/sessions", domain.SessionInput{
		CourseTag: "general", CorrectCount: 5, TotalCount: 3,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid counts, got %d", rec.Code)
	}
}

func TestRecordSessionUnknownProfile(t *testing.T) {
	env := newTestEnv(stubAuth{userID: 42})

	rec := env.do(t, http.MethodPost, "/api/sessions", domain.SessionInput{
		CourseTag: "general", CorrectCount: 1, TotalCount: 1,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown profile, got %d", rec.Code)
	}
}

func TestWeaknessEndpoints(t *testing.T) {
	env := newTestEnv(stubAuth{userID: 1})

	rec := env.do(t, http.MethodPost, "/api/weaknesses", weaknessRequest{QuestionID: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/weaknesses/questions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var questions []domain.PresentedQuestion
	if err := json.Unmarshal(rec.Body.Bytes(), &questions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(questions) != 1 || questions[0].QuestionID != 1 {
		t.Fatalf("unexpected training set: %+v", questions)
	}

	rec = env.do(t, http.MethodDelete, "/api/weaknesses", weaknessRequest{QuestionID: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if status, _ := env.reviewStore.WeaknessStatus(1, 1); status != domain.WeaknessRemovedManual {
		t.Fatalf("expected removed_manual, got %s", status)
	}

	rec = env.do(t, http.MethodPost, "/api/weaknesses", weaknessRequest{QuestionID: 99})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown question, got %d", rec.Code)
	}
}

func TestReportEndpoints(t *testing.T) {
	env := newTestEnv(stubAuth{userID: 1})

	rec := env.do(t, http.MethodPost, "/api/reports", reportRequest{QuestionID: 1, Reason: "typo"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	reportID := created["reportId"]
	if reportID == 0 {
		t.Fatalf("expected report id")
	}

	rec = env.do(t, http.MethodGet, "/api/reports/questions", nil)
	var entries []app.ReportedQuestion
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].ReportID != reportID {
		t.Fatalf("unexpected review set: %+v", entries)
	}

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/reports/%d/dismiss", reportID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/reports/999/dismiss", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown report, got %d", rec.Code)
	}
}

func TestOverviewEndpoint(t *testing.T) {
	env := newTestEnv(stubAuth{userID: 1})

	rec := env.do(t, http.MethodGet, "/api/progress/overview", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var overview domain.Overview
	if err := json.Unmarshal(rec.Body.Bytes(), &overview); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if overview.Profile.TotalPoints != 100 || overview.Profile.Streak != 3 {
		t.Fatalf("unexpected overview: %+v", overview)
	}
}
