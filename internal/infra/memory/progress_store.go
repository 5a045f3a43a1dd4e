package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vocab-quiz-service/internal/domain"
)

type courseKey struct {
	userID    int64
	courseTag string
}

type dayKey struct {
	userID int64
	day    time.Time
}

type sessionRow struct {
	id        int64
	userID    int64
	courseTag string
	correct   int
	total     int
	duration  int
	createdAt time.Time
}

type answerRow struct {
	sessionID  int64
	userID     int64
	questionID int64
	label      string
	correct    bool
}

// ProgressStore is an in-memory implementation of app.ProgressStore. All
// new state is staged first and applied only after every step succeeded,
// mirroring the all-or-nothing transaction of the SQL store.
type ProgressStore struct {
	mu            sync.Mutex
	nextSessionID int64
	profiles      map[int64]domain.Profile
	sessions      []sessionRow
	answers       []answerRow
	courses       map[courseKey]domain.CourseProgress
	days          map[dayKey]domain.DailyStat

	// failCourseUpdate injects a failure at the course-progress step for
	// atomicity tests.
	failCourseUpdate error
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		nextSessionID: 1,
		profiles:      make(map[int64]domain.Profile),
		courses:       make(map[courseKey]domain.CourseProgress),
		days:          make(map[dayKey]domain.DailyStat),
	}
}

// SeedProfile provisions a user profile (account creation is external to
// the recording engine).
func (s *ProgressStore) SeedProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

// FailCourseUpdate makes the next RecordSession calls fail at the
// course-progress step. Test-only.
func (s *ProgressStore) FailCourseUpdate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCourseUpdate = err
}

func (s *ProgressStore) RecordSession(_ context.Context, userID int64, in domain.SessionInput, today time.Time) (int64, domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return 0, domain.Profile{}, domain.ErrProfileNotFound
	}

	day := domain.Midnight(today)
	sessionID := s.nextSessionID

	session := sessionRow{
		id:        sessionID,
		userID:    userID,
		courseTag: in.CourseTag,
		correct:   in.CorrectCount,
		total:     in.TotalCount,
		duration:  in.DurationSeconds,
		createdAt: today,
	}

	answers := make([]answerRow, 0, len(in.Answers))
	for _, a := range in.Answers {
		if a.QuestionID <= 0 || !domain.ValidLabel(a.ChosenLabel) {
			return 0, domain.Profile{}, fmt.Errorf("malformed answer for question %d", a.QuestionID)
		}
		answers = append(answers, answerRow{
			sessionID:  sessionID,
			userID:     userID,
			questionID: a.QuestionID,
			label:      a.ChosenLabel,
			correct:    a.Correct(),
		})
	}

	profile.TotalPoints += in.CorrectCount
	profile.Streak = domain.NextStreak(profile.Streak, profile.LastActivityDate, today)
	profile.LastActivityDate = &day

	if s.failCourseUpdate != nil {
		return 0, domain.Profile{}, s.failCourseUpdate
	}

	ck := courseKey{userID: userID, courseTag: in.CourseTag}
	course, ok := s.courses[ck]
	accuracy := domain.Accuracy(in.CorrectCount, in.TotalCount)
	if !ok {
		course = domain.CourseProgress{
			UserID:          userID,
			CourseTag:       in.CourseTag,
			Attempted:       in.TotalCount,
			Correct:         in.CorrectCount,
			HighestAccuracy: accuracy,
			TimesCompleted:  1,
			LastPlayedAt:    today,
		}
	} else {
		course.Attempted += in.TotalCount
		course.Correct += in.CorrectCount
		if accuracy > course.HighestAccuracy {
			course.HighestAccuracy = accuracy
		}
		course.TimesCompleted++
		course.LastPlayedAt = today
	}

	dk := dayKey{userID: userID, day: day}
	stat, ok := s.days[dk]
	if !ok {
		stat = domain.DailyStat{UserID: userID, Day: day}
	}
	stat.Answered += in.TotalCount
	stat.Correct += in.CorrectCount
	stat.CompletedQuiz = true

	// Every step succeeded: apply the staged state.
	s.nextSessionID++
	s.sessions = append(s.sessions, session)
	s.answers = append(s.answers, answers...)
	s.profiles[userID] = profile
	s.courses[ck] = course
	s.days[dk] = stat

	return sessionID, profile, nil
}

func (s *ProgressStore) Overview(_ context.Context, userID int64, today time.Time) (domain.Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return domain.Overview{}, domain.ErrProfileNotFound
	}

	overview := domain.Overview{Profile: profile}
	for key, course := range s.courses {
		if key.userID == userID {
			overview.Courses = append(overview.Courses, course)
		}
	}
	sort.Slice(overview.Courses, func(i, j int) bool {
		return overview.Courses[i].CourseTag < overview.Courses[j].CourseTag
	})

	if stat, ok := s.days[dayKey{userID: userID, day: domain.Midnight(today)}]; ok {
		overview.Today = &stat
	}
	return overview, nil
}

// Profile returns the current profile copy. Test helper.
func (s *ProgressStore) Profile(userID int64) (domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	return p, ok
}

// SessionCount reports how many sessions are recorded. Test helper.
func (s *ProgressStore) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// AnswerCount reports how many answer-log rows exist. Test helper.
func (s *ProgressStore) AnswerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Course returns the (user, courseTag) aggregate. Test helper.
func (s *ProgressStore) Course(userID int64, courseTag string) (domain.CourseProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[courseKey{userID: userID, courseTag: courseTag}]
	return c, ok
}

// Day returns the (user, day) aggregate. Test helper.
func (s *ProgressStore) Day(userID int64, day time.Time) (domain.DailyStat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[dayKey{userID: userID, day: domain.Midnight(day)}]
	return d, ok
}
