package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"vocab-quiz-service/internal/domain"
)

type weaknessKey struct {
	userID     int64
	questionID int64
}

type dismissalKey struct {
	userID   int64
	reportID int64
}

// ReviewStore is an in-memory implementation of app.ReviewStore.
type ReviewStore struct {
	mu           sync.Mutex
	nextReportID int64
	weaknesses   map[weaknessKey]domain.WeaknessItem
	reports      []domain.Report
	dismissals   map[dismissalKey]struct{}
}

func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		nextReportID: 1,
		weaknesses:   make(map[weaknessKey]domain.WeaknessItem),
		dismissals:   make(map[dismissalKey]struct{}),
	}
}

func (s *ReviewStore) UpsertWeakness(_ context.Context, userID, questionID int64, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weaknesses[weaknessKey{userID: userID, questionID: questionID}] = domain.WeaknessItem{
		UserID:     userID,
		QuestionID: questionID,
		Status:     status,
		UpdatedAt:  at,
	}
	return nil
}

func (s *ReviewStore) ActiveWeaknessQuestionIDs(_ context.Context, userID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0)
	for key, item := range s.weaknesses {
		if key.userID == userID && item.Active() {
			ids = append(ids, key.questionID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *ReviewStore) CreateReport(_ context.Context, report domain.Report) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report.ID = s.nextReportID
	s.nextReportID++
	s.reports = append(s.reports, report)
	return report.ID, nil
}

func (s *ReviewStore) DismissReport(_ context.Context, userID, reportID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, r := range s.reports {
		if r.ID == reportID {
			found = true
			break
		}
	}
	if !found {
		return domain.ErrReportNotFound
	}
	// Duplicate dismissal is a no-op success: the desired end state holds.
	s.dismissals[dismissalKey{userID: userID, reportID: reportID}] = struct{}{}
	return nil
}

func (s *ReviewStore) OpenReports(_ context.Context, userID int64) ([]domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := make([]domain.Report, 0)
	for _, r := range s.reports {
		if r.ReporterID != userID {
			continue
		}
		if _, dismissed := s.dismissals[dismissalKey{userID: userID, reportID: r.ID}]; dismissed {
			continue
		}
		open = append(open, r)
	}
	return open, nil
}

// WeaknessStatus returns the stored status for (user, question). Test helper.
func (s *ReviewStore) WeaknessStatus(userID, questionID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.weaknesses[weaknessKey{userID: userID, questionID: questionID}]
	return item.Status, ok
}

// DismissalCount reports how many dismissal rows exist. Test helper.
func (s *ReviewStore) DismissalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dismissals)
}
