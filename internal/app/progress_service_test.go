package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/infra/memory"
)

var sessionToday = time.Date(2024, 11, 22, 14, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return sessionToday }

func tenAnswers() []domain.SessionAnswer {
	answers := make([]domain.SessionAnswer, 0, 10)
	labels := []string{"A", "A", "A", "A", "A", "A", "A", "B", "C", "D"}
	for i, label := range labels {
		answers = append(answers, domain.SessionAnswer{QuestionID: int64(i + 1), ChosenLabel: label})
	}
	return answers
}

func TestRecordSessionEndToEnd(t *testing.T) {
	store := memory.NewProgressStore()
	yesterday := sessionToday.AddDate(0, 0, -1)
	store.SeedProfile(domain.Profile{UserID: 1, TotalPoints: 100, Streak: 3, LastActivityDate: &yesterday})

	feed := app.NewProgressFeed()
	updates, cancel := feed.Subscribe(1)
	defer cancel()

	service := app.NewProgressServiceWithClock(store, feed, fixedClock)

	sessionID, err := service.RecordSession(context.Background(), 1, domain.SessionInput{
		CourseTag:       "general",
		CorrectCount:    7,
		TotalCount:      10,
		DurationSeconds: 120,
		Answers:         tenAnswers(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if sessionID == 0 {
		t.Fatalf("expected generated session id")
	}

	profile, _ := store.Profile(1)
	if profile.TotalPoints != 107 {
		t.Fatalf("expected 107 points, got %d", profile.TotalPoints)
	}
	if profile.Streak != 4 {
		t.Fatalf("expected streak 4, got %d", profile.Streak)
	}
	if profile.LastActivityDate == nil || !profile.LastActivityDate.Equal(domain.Midnight(sessionToday)) {
		t.Fatalf("expected last activity today, got %v", profile.LastActivityDate)
	}

	if store.SessionCount() != 1 {
		t.Fatalf("expected 1 session, got %d", store.SessionCount())
	}
	if store.AnswerCount() != 10 {
		t.Fatalf("expected 10 answer rows, got %d", store.AnswerCount())
	}

	course, ok := store.Course(1, "general")
	if !ok {
		t.Fatalf("expected course progress row")
	}
	if course.Attempted != 10 || course.Correct != 7 || course.TimesCompleted != 1 {
		t.Fatalf("unexpected course progress: %+v", course)
	}
	if course.HighestAccuracy != 0.7 {
		t.Fatalf("expected accuracy 0.7, got %v", course.HighestAccuracy)
	}

	day, ok := store.Day(1, sessionToday)
	if !ok {
		t.Fatalf("expected daily stat row")
	}
	if day.Answered != 10 || day.Correct != 7 || !day.CompletedQuiz {
		t.Fatalf("unexpected daily stat: %+v", day)
	}

	select {
	case update := <-updates:
		if update.SessionID != sessionID || update.TotalPoints != 107 || update.Streak != 4 {
			t.Fatalf("unexpected feed update: %+v", update)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected feed update")
	}
}

func TestRecordSessionAggregatesAcrossSessions(t *testing.T) {
	store := memory.NewProgressStore()
	store.SeedProfile(domain.Profile{UserID: 1})
	service := app.NewProgressServiceWithClock(store, nil, fixedClock)
	ctx := context.Background()

	first := domain.SessionInput{CourseTag: "general", CorrectCount: 9, TotalCount: 10}
	if _, err := service.RecordSession(ctx, 1, first); err != nil {
		t.Fatalf("record first: %v", err)
	}
	second := domain.SessionInput{CourseTag: "general", CorrectCount: 5, TotalCount: 10}
	if _, err := service.RecordSession(ctx, 1, second); err != nil {
		t.Fatalf("record second: %v", err)
	}

	course, _ := store.Course(1, "general")
	if course.Attempted != 20 || course.Correct != 14 || course.TimesCompleted != 2 {
		t.Fatalf("unexpected course progress: %+v", course)
	}
	// A worse second run must not lower the highest accuracy seen.
	if course.HighestAccuracy != 0.9 {
		t.Fatalf("expected highest accuracy 0.9, got %v", course.HighestAccuracy)
	}

	// Same-day repeat: streak unchanged after the first session of the day.
	profile, _ := store.Profile(1)
	if profile.Streak != 1 {
		t.Fatalf("expected streak 1 after same-day sessions, got %d", profile.Streak)
	}

	day, _ := store.Day(1, sessionToday)
	if day.Answered != 20 || day.Correct != 14 {
		t.Fatalf("unexpected daily stat: %+v", day)
	}
}

func TestRecordSessionAtomicUnderInjectedFailure(t *testing.T) {
	store := memory.NewProgressStore()
	yesterday := sessionToday.AddDate(0, 0, -1)
	store.SeedProfile(domain.Profile{UserID: 1, TotalPoints: 100, Streak: 3, LastActivityDate: &yesterday})
	store.FailCourseUpdate(errors.New("course progress update refused"))

	service := app.NewProgressServiceWithClock(store, nil, fixedClock)

	_, err := service.RecordSession(context.Background(), 1, domain.SessionInput{
		CourseTag:    "general",
		CorrectCount: 7,
		TotalCount:   10,
		Answers:      tenAnswers(),
	})
	if !errors.Is(err, domain.ErrSessionNotRecorded) {
		t.Fatalf("expected ErrSessionNotRecorded, got %v", err)
	}

	// Nothing from the failed attempt may survive.
	if store.SessionCount() != 0 || store.AnswerCount() != 0 {
		t.Fatalf("partial session state leaked: sessions=%d answers=%d", store.SessionCount(), store.AnswerCount())
	}
	profile, _ := store.Profile(1)
	if profile.TotalPoints != 100 || profile.Streak != 3 || !profile.LastActivityDate.Equal(yesterday) {
		t.Fatalf("profile mutated by failed session: %+v", profile)
	}
	if _, ok := store.Course(1, "general"); ok {
		t.Fatalf("course progress created by failed session")
	}
	if _, ok := store.Day(1, sessionToday); ok {
		t.Fatalf("daily stat created by failed session")
	}

	// The identical payload succeeds once the failure clears.
	store.FailCourseUpdate(nil)
	if _, err := service.RecordSession(context.Background(), 1, domain.SessionInput{
		CourseTag:    "general",
		CorrectCount: 7,
		TotalCount:   10,
		Answers:      tenAnswers(),
	}); err != nil {
		t.Fatalf("retry after clear: %v", err)
	}
}

func TestRecordSessionRequiresProfile(t *testing.T) {
	service := app.NewProgressServiceWithClock(memory.NewProgressStore(), nil, fixedClock)

	_, err := service.RecordSession(context.Background(), 42, domain.SessionInput{
		CourseTag: "general", CorrectCount: 1, TotalCount: 1,
	})
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	// A missing profile is a precondition violation, not a retryable
	// transaction failure.
	if errors.Is(err, domain.ErrSessionNotRecorded) {
		t.Fatalf("profile precondition wrongly marked retryable: %v", err)
	}
}

func TestRecordSessionValidatesInput(t *testing.T) {
	store := memory.NewProgressStore()
	store.SeedProfile(domain.Profile{UserID: 1})
	service := app.NewProgressServiceWithClock(store, nil, fixedClock)
	ctx := context.Background()

	cases := []domain.SessionInput{
		{CourseTag: "", CorrectCount: 1, TotalCount: 1},
		{CourseTag: "general", CorrectCount: -1, TotalCount: 1},
		{CourseTag: "general", CorrectCount: 5, TotalCount: 3},
		{CourseTag: "general", CorrectCount: 0, TotalCount: -1},
		{CourseTag: "general", DurationSeconds: -1},
		{CourseTag: "general", Answers: []domain.SessionAnswer{{QuestionID: 0, ChosenLabel: "A"}}},
		{CourseTag: "general", Answers: []domain.SessionAnswer{{QuestionID: 1, ChosenLabel: "X"}}},
	}
	for i, in := range cases {
		if _, err := service.RecordSession(ctx, 1, in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
	if store.SessionCount() != 0 {
		t.Fatalf("invalid input recorded a session")
	}
}

func TestRecordSessionZeroTotalHasZeroAccuracy(t *testing.T) {
	store := memory.NewProgressStore()
	store.SeedProfile(domain.Profile{UserID: 1})
	service := app.NewProgressServiceWithClock(store, nil, fixedClock)

	if _, err := service.RecordSession(context.Background(), 1, domain.SessionInput{
		CourseTag: "empty", CorrectCount: 0, TotalCount: 0,
	}); err != nil {
		t.Fatalf("record empty session: %v", err)
	}
	course, _ := store.Course(1, "empty")
	if course.HighestAccuracy != 0 {
		t.Fatalf("expected accuracy 0 for empty session, got %v", course.HighestAccuracy)
	}
}

func TestOverview(t *testing.T) {
	store := memory.NewProgressStore()
	store.SeedProfile(domain.Profile{UserID: 1, TotalPoints: 10})
	service := app.NewProgressServiceWithClock(store, nil, fixedClock)
	ctx := context.Background()

	if _, err := service.RecordSession(ctx, 1, domain.SessionInput{
		CourseTag: "general", CorrectCount: 3, TotalCount: 5,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	overview, err := service.Overview(ctx, 1)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Profile.TotalPoints != 13 {
		t.Fatalf("expected 13 points, got %d", overview.Profile.TotalPoints)
	}
	if len(overview.Courses) != 1 || overview.Courses[0].CourseTag != "general" {
		t.Fatalf("unexpected courses: %+v", overview.Courses)
	}
	if overview.Today == nil || overview.Today.Answered != 5 {
		t.Fatalf("unexpected today stat: %+v", overview.Today)
	}
}
