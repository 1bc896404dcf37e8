package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/academics"
	"github.com/studypulse/studypulse-backend/internal/domain/notification"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE DIGEST JOB
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceDigestJob runs every morning and warns students whose
// attendance in any subject has dropped below the exam eligibility
// threshold. Warnings go out per subject so the student knows exactly
// where to show up.
type AttendanceDigestJob struct {
	students      student.Repository
	subjects      academics.SubjectRepository
	attendance    academics.AttendanceRepository
	notifications notification.Repository
	logger        *slog.Logger
	config        AttendanceDigestConfig

	lastRunStats atomic.Value // *DigestStats
}

// AttendanceDigestConfig contains configuration for the digest.
type AttendanceDigestConfig struct {
	// WarnBelowPercentage is the attendance threshold that triggers a
	// warning.
	WarnBelowPercentage float64

	// MinClassesHeld suppresses warnings for subjects with too little
	// history to be meaningful.
	MinClassesHeld int

	// BatchSize is the page size for iterating students.
	BatchSize int

	// Timeout bounds one full digest run.
	Timeout time.Duration
}

// DefaultAttendanceDigestConfig returns defaults matching the exam
// eligibility rule: warn below 75% once at least 4 classes were held.
func DefaultAttendanceDigestConfig() AttendanceDigestConfig {
	return AttendanceDigestConfig{
		WarnBelowPercentage: academics.DefaultMidSemThreshold,
		MinClassesHeld:      4,
		BatchSize:           200,
		Timeout:             5 * time.Minute,
	}
}

// DigestStats contains statistics from one digest run.
type DigestStats struct {
	StartedAt       time.Time
	StudentsScanned int
	SubjectsChecked int
	WarningsSent    int
	Errors          []error
}

// NewAttendanceDigestJob creates the job.
func NewAttendanceDigestJob(
	students student.Repository,
	subjects academics.SubjectRepository,
	attendance academics.AttendanceRepository,
	notifications notification.Repository,
	logger *slog.Logger,
	config AttendanceDigestConfig,
) *AttendanceDigestJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WarnBelowPercentage <= 0 {
		config.WarnBelowPercentage = academics.DefaultMidSemThreshold
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	return &AttendanceDigestJob{
		students:      students,
		subjects:      subjects,
		attendance:    attendance,
		notifications: notifications,
		logger:        logger,
		config:        config,
	}
}

// Name returns the job name.
func (j *AttendanceDigestJob) Name() string {
	return "attendance_digest"
}

// Description returns a human-readable job description.
func (j *AttendanceDigestJob) Description() string {
	return "Warns students whose attendance fell below the eligibility threshold"
}

// Run executes one digest pass over all students.
func (j *AttendanceDigestJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	stats := &DigestStats{StartedAt: time.Now().UTC()}
	defer j.lastRunStats.Store(stats)

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
			if err := j.digestStudent(ctx, s.ID, stats); err != nil {
				stats.Errors = append(stats.Errors, err)
				j.logger.Warn("attendance digest failed for student",
					slog.String("student_id", s.ID),
					slog.String("error", err.Error()),
				)
			}
		}

		if len(batch) < j.config.BatchSize {
			break
		}
	}

	j.logger.Info("attendance digest complete",
		slog.Int("students", stats.StudentsScanned),
		slog.Int("subjects", stats.SubjectsChecked),
		slog.Int("warnings", stats.WarningsSent),
		slog.Int("errors", len(stats.Errors)),
	)
	return nil
}

func (j *AttendanceDigestJob) digestStudent(ctx context.Context, studentID string, stats *DigestStats) error {
	subjects, err := j.subjects.ListByStudent(ctx, studentID)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}

	for _, subject := range subjects {
		records, err := j.attendance.ListByStudentAndSubject(ctx, studentID, subject.ID)
		if err != nil {
			return fmt.Errorf("list attendance for %s: %w", subject.ID, err)
		}
		stats.SubjectsChecked++

		st := academics.ComputeAttendanceStats(records)
		if st.Total < j.config.MinClassesHeld {
			continue
		}
		if st.Percentage >= j.config.WarnBelowPercentage {
			continue
		}

		n, err := notification.ForAttendanceWarning(
			uuid.NewString(),
			studentID,
			subject.Name,
			st.Percentage,
			j.config.WarnBelowPercentage,
		)
		if err != nil {
			return fmt.Errorf("build attendance warning: %w", err)
		}
		if err := j.notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("queue attendance warning: %w", err)
		}
		stats.WarningsSent++
	}
	return nil
}

// LastRunStats returns statistics from the most recent run.
func (j *AttendanceDigestJob) LastRunStats() *DigestStats {
	v := j.lastRunStats.Load()
	if v == nil {
		return nil
	}
	return v.(*DigestStats)
}
