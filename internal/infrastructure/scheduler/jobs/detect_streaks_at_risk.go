package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/notification"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DETECT STREAKS AT RISK JOB
// ══════════════════════════════════════════════════════════════════════════════

// DetectStreaksAtRiskJob scans all students for streaks whose last
// activity was yesterday: one more missed day breaks them. Each such
// streak produces an at-risk reminder notification. The job is scheduled
// once per evening, so a streak is reminded about at most once a day.
type DetectStreaksAtRiskJob struct {
	students      student.Repository
	streaks       gamification.StreakRepository
	notifications notification.Repository
	logger        *slog.Logger
	config        DetectStreaksAtRiskConfig
	now           func() time.Time

	lastRunStats atomic.Value // *StreakScanStats
}

// DetectStreaksAtRiskConfig contains configuration for the scan.
type DetectStreaksAtRiskConfig struct {
	// MinStreakLength is the shortest streak worth a reminder.
	MinStreakLength int

	// BatchSize is the page size for iterating students.
	BatchSize int

	// Timeout bounds one full scan.
	Timeout time.Duration
}

// DefaultDetectStreaksAtRiskConfig returns sensible defaults: only
// streaks of 3+ days are worth interrupting a student about.
func DefaultDetectStreaksAtRiskConfig() DetectStreaksAtRiskConfig {
	return DetectStreaksAtRiskConfig{
		MinStreakLength: 3,
		BatchSize:       200,
		Timeout:         3 * time.Minute,
	}
}

// StreakScanStats contains statistics from one scan.
type StreakScanStats struct {
	StartedAt         time.Time
	StudentsScanned   int
	StreaksAtRisk     int
	NotificationsSent int
	Errors            []error
}

// NewDetectStreaksAtRiskJob creates the job.
func NewDetectStreaksAtRiskJob(
	students student.Repository,
	streaks gamification.StreakRepository,
	notifications notification.Repository,
	logger *slog.Logger,
	config DetectStreaksAtRiskConfig,
) *DetectStreaksAtRiskJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Minute
	}
	return &DetectStreaksAtRiskJob{
		students:      students,
		streaks:       streaks,
		notifications: notifications,
		logger:        logger,
		config:        config,
		now:           timeutil.Now,
	}
}

// Name returns the job name.
func (j *DetectStreaksAtRiskJob) Name() string {
	return "detect_streaks_at_risk"
}

// Description returns a human-readable job description.
func (j *DetectStreaksAtRiskJob) Description() string {
	return "Finds streaks one missed day away from breaking and queues reminders"
}

// Run executes one scan over all students.
func (j *DetectStreaksAtRiskJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	stats := &StreakScanStats{StartedAt: time.Now().UTC()}
	defer j.lastRunStats.Store(stats)

	today := timeutil.StartOfDay(j.now())

	for offset := 0; ; offset += j.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := j.students.GetAll(ctx, student.ListOptions{
			Offset: offset,
			Limit:  j.config.BatchSize,
		})
		if err != nil {
			return fmt.Errorf("list students: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, s := range batch {
			stats.StudentsScanned++
			if err := j.scanStudent(ctx, s.ID, today, stats); err != nil {
				stats.Errors = append(stats.Errors, err)
				j.logger.Warn("streak scan failed for student",
					slog.String("student_id", s.ID),
					slog.String("error", err.Error()),
				)
			}
		}

		if len(batch) < j.config.BatchSize {
			break
		}
	}

	j.logger.Info("streak risk scan complete",
		slog.Int("students", stats.StudentsScanned),
		slog.Int("at_risk", stats.StreaksAtRisk),
		slog.Int("notified", stats.NotificationsSent),
		slog.Int("errors", len(stats.Errors)),
	)
	return nil
}

func (j *DetectStreaksAtRiskJob) scanStudent(ctx context.Context, studentID string, today time.Time, stats *StreakScanStats) error {
	streaks, err := j.streaks.ListByStudent(ctx, studentID)
	if err != nil {
		return fmt.Errorf("list streaks: %w", err)
	}

	for _, streak := range streaks {
		if !j.isAtRisk(streak, today) {
			continue
		}
		stats.StreaksAtRisk++

		n, err := notification.ForStreakAtRisk(
			uuid.NewString(),
			studentID,
			string(streak.Type),
			streak.CurrentStreak,
		)
		if err != nil {
			return fmt.Errorf("build at-risk notification: %w", err)
		}
		if err := j.notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("queue at-risk notification: %w", err)
		}
		stats.NotificationsSent++
	}
	return nil
}

// isAtRisk reports whether the streak survives today only if the student
// acts before midnight: last activity was exactly yesterday.
func (j *DetectStreaksAtRiskJob) isAtRisk(streak *gamification.Streak, today time.Time) bool {
	if streak.CurrentStreak < j.config.MinStreakLength {
		return false
	}
	return timeutil.DayGap(streak.LastActivityDate, today) == 1
}

// LastRunStats returns statistics from the most recent scan.
func (j *DetectStreaksAtRiskJob) LastRunStats() *StreakScanStats {
	v := j.lastRunStats.Load()
	if v == nil {
		return nil
	}
	return v.(*StreakScanStats)
}
