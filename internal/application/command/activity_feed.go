package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/activity"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

// recordActivity appends an entry to the student activity feed. The feed
// is a read-side convenience: a failed append is logged, never returned,
// so the command that produced the entry still succeeds.
func recordActivity(ctx context.Context, repo activity.Repository, log *logger.Logger, studentID string, activityType activity.Type, occurredAt time.Time, data activity.Data) {
	if repo == nil {
		return
	}
	entry, err := activity.NewActivity(uuid.NewString(), studentID, activityType, occurredAt, data)
	if err == nil {
		err = repo.Append(ctx, entry)
	}
	if err != nil {
		log.Warn("activity not recorded", logger.StudentID(studentID), logger.Err(err))
	}
}
