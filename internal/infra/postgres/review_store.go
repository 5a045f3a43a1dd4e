package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"vocab-quiz-service/internal/domain"
)

// ReviewStore persists weakness items, reports, and dismissals using
// conflict-resolving upserts so every write is idempotent.
type ReviewStore struct {
	db *bun.DB
}

func NewReviewStore(db *bun.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

func (s *ReviewStore) UpsertWeakness(ctx context.Context, userID, questionID int64, status string, at time.Time) error {
	item := &WeaknessItemRow{
		UserID:     userID,
		QuestionID: questionID,
		Status:     status,
		UpdatedAt:  at,
	}
	_, err := s.db.NewInsert().Model(item).
		On("CONFLICT (user_id, question_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert weakness: %w", err)
	}
	return nil
}

func (s *ReviewStore) ActiveWeaknessQuestionIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := s.db.NewSelect().Model((*WeaknessItemRow)(nil)).
		Column("question_id").
		Where("user_id = ?", userID).
		Where("status IN (?)", bun.In([]string{domain.WeaknessManualAdd, domain.WeaknessAutoAdd})).
		Order("updated_at DESC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list weaknesses: %w", err)
	}
	return ids, nil
}

func (s *ReviewStore) CreateReport(ctx context.Context, report domain.Report) (int64, error) {
	row := &ReportRow{
		QuestionID: report.QuestionID,
		Reason:     report.Reason,
		Detail:     report.Detail,
		ReporterID: report.ReporterID,
		CreatedAt:  report.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	return row.ID, nil
}

func (s *ReviewStore) DismissReport(ctx context.Context, userID, reportID int64) error {
	exists, err := s.db.NewSelect().Model((*ReportRow)(nil)).
		Where("id = ?", reportID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check report: %w", err)
	}
	if !exists {
		return domain.ErrReportNotFound
	}

	// A second dismissal hits the (user_id, report_id) primary key; DO
	// NOTHING turns that conflict into the success the caller expects.
	dismissal := &ReportDismissalRow{UserID: userID, ReportID: reportID}
	if _, err := s.db.NewInsert().Model(dismissal).
		On("CONFLICT (user_id, report_id) DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("insert dismissal: %w", err)
	}
	return nil
}

func (s *ReviewStore) OpenReports(ctx context.Context, userID int64) ([]domain.Report, error) {
	var rows []ReportRow
	err := s.db.NewSelect().Model(&rows).
		Where("r.reporter_id = ?", userID).
		Where("NOT EXISTS (SELECT 1 FROM report_dismissals rd WHERE rd.report_id = r.id AND rd.user_id = ?)", userID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open reports: %w", err)
	}

	reports := make([]domain.Report, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, domain.Report{
			ID:         r.ID,
			QuestionID: r.QuestionID,
			Reason:     r.Reason,
			Detail:     r.Detail,
			ReporterID: r.ReporterID,
			CreatedAt:  r.CreatedAt,
		})
	}
	return reports, nil
}
