// Package activity contains domain entities for the raw activity feed.
package activity

import (
	"context"
	"time"
)

// Repository is the storage port for the activity feed.
type Repository interface {
	// Append stores a new activity event. Events are immutable.
	Append(ctx context.Context, a *Activity) error

	// ListByStudent returns a student's activities, newest first,
	// capped at limit.
	ListByStudent(ctx context.Context, studentID string, limit int) ([]*Activity, error)

	// ListByStudentAndType returns a student's activities of one type
	// within [from, to), oldest first.
	ListByStudentAndType(ctx context.Context, studentID string, activityType Type, from, to time.Time) ([]*Activity, error)
}

// SubmissionRepository is the storage port for assignment submissions.
type SubmissionRepository interface {
	// Create stores a submission record.
	Create(ctx context.Context, s *Submission) error

	// ListByStudent returns all of a student's submissions.
	ListByStudent(ctx context.Context, studentID string) ([]*Submission, error)

	// GetStats returns the aggregated submission counters.
	GetStats(ctx context.Context, studentID string) (SubmissionStats, error)
}
