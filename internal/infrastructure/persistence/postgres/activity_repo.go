package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/activity"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY AND SUBMISSION REPOSITORIES
// ══════════════════════════════════════════════════════════════════════════════

// ActivityRepository implements activity.Repository for PostgreSQL.
type ActivityRepository struct {
	db Querier
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{db: conn}
}

// Append stores a new activity event.
func (r *ActivityRepository) Append(ctx context.Context, a *activity.Activity) error {
	data, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal activity data: %w", err)
	}

	query := `
		INSERT INTO activities (id, student_id, type, occurred_at, data)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.db.Exec(ctx, query, a.ID, a.StudentID, string(a.Type), a.OccurredAt, data); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	return nil
}

// ListByStudent returns a student's activities, newest first.
func (r *ActivityRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]*activity.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, student_id, type, occurred_at, data
		FROM activities
		WHERE student_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	return r.queryActivities(ctx, query, studentID, limit)
}

// ListByStudentAndType returns a student's activities of one type in a
// time window, oldest first.
func (r *ActivityRepository) ListByStudentAndType(ctx context.Context, studentID string, activityType activity.Type, from, to time.Time) ([]*activity.Activity, error) {
	query := `
		SELECT id, student_id, type, occurred_at, data
		FROM activities
		WHERE student_id = $1 AND type = $2 AND occurred_at >= $3 AND occurred_at <= $4
		ORDER BY occurred_at ASC
	`

	return r.queryActivities(ctx, query, studentID, string(activityType), from, to)
}

func (r *ActivityRepository) queryActivities(ctx context.Context, query string, args ...interface{}) ([]*activity.Activity, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []*activity.Activity
	for rows.Next() {
		var (
			a     activity.Activity
			aType string
			data  []byte
		)
		if err := rows.Scan(&a.ID, &a.StudentID, &aType, &a.OccurredAt, &data); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if err := json.Unmarshal(data, &a.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal activity data: %w", err)
		}
		a.Type = activity.Type(aType)
		activities = append(activities, &a)
	}

	return activities, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Submissions
// ─────────────────────────────────────────────────────────────────────────────

// SubmissionRepository implements activity.SubmissionRepository for PostgreSQL.
type SubmissionRepository struct {
	db Querier
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(conn *Connection) *SubmissionRepository {
	return &SubmissionRepository{db: conn}
}

// Create stores a submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *activity.Submission) error {
	query := `
		INSERT INTO submissions (id, student_id, assignment_id, deadline, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.db.Exec(ctx, query, s.ID, s.StudentID, s.AssignmentID, s.Deadline, s.SubmittedAt); err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// ListByStudent returns all of a student's submissions.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]*activity.Submission, error) {
	query := `
		SELECT id, student_id, assignment_id, deadline, submitted_at
		FROM submissions
		WHERE student_id = $1
		ORDER BY submitted_at DESC
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*activity.Submission
	for rows.Next() {
		var s activity.Submission
		if err := rows.Scan(&s.ID, &s.StudentID, &s.AssignmentID, &s.Deadline, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, &s)
	}

	return submissions, rows.Err()
}

// GetStats returns the aggregated submission counters. Early means the
// hand-in beat the deadline by at least a day; late means it missed it.
func (r *SubmissionRepository) GetStats(ctx context.Context, studentID string) (activity.SubmissionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE submitted_at <= deadline - INTERVAL '24 hours'),
			COUNT(*) FILTER (WHERE submitted_at > deadline)
		FROM submissions
		WHERE student_id = $1
	`

	var stats activity.SubmissionStats
	if err := r.db.QueryRow(ctx, query, studentID).Scan(&stats.Total, &stats.Early, &stats.Late); err != nil {
		return activity.SubmissionStats{}, fmt.Errorf("failed to aggregate submissions: %w", err)
	}

	return stats, nil
}
