// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/application/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/academics"
	"github.com/studypulse/studypulse-backend/internal/domain/activity"
	domgam "github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
	"github.com/studypulse/studypulse-backend/pkg/logger"
	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK ATTENDANCE COMMAND
// The raw event at the head of the pipeline: one attendance mark flows
// into XP, the attendance streak, badge checks and the leaderboard.
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceXP is awarded for each class attended.
const AttendanceXP = 10

// MarkAttendanceCommand contains the data to mark attendance.
type MarkAttendanceCommand struct {
	// StudentID is the internal ID of the student.
	StudentID string

	// SubjectID identifies the class.
	SubjectID string

	// Status of the mark (present, absent, holiday, medical, cancelled).
	Status academics.AttendanceStatus

	// Date of the class (defaults to today if zero).
	Date time.Time
}

// Validate validates the command.
func (c MarkAttendanceCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("mark_attendance: student_id is required")
	}
	if c.SubjectID == "" {
		return errors.New("mark_attendance: subject_id is required")
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("mark_attendance: unknown status: %s", c.Status)
	}
	return nil
}

// MarkAttendanceResult contains the result of marking attendance.
type MarkAttendanceResult struct {
	// Percentage is the subject attendance ratio after this mark.
	Percentage float64

	// Zone is the safe-zone classification after this mark.
	Zone academics.ZoneStatus

	// XPAwarded for this mark (zero for non-present statuses).
	XPAwarded int

	// Streak is the attendance streak state after this mark.
	Streak *gamification.StreakResult

	// Unlocked lists achievements granted by this mark.
	Unlocked []*domgam.Achievement
}

// MarkAttendanceHandler handles the MarkAttendanceCommand.
type MarkAttendanceHandler struct {
	attendance academics.AttendanceRepository
	activities activity.Repository
	service    *gamification.Service
	log        *logger.Logger
}

// NewMarkAttendanceHandler creates a new MarkAttendanceHandler.
// The activities repository is optional; without it no feed entries
// are written.
func NewMarkAttendanceHandler(attendance academics.AttendanceRepository, activities activity.Repository, service *gamification.Service, log *logger.Logger) *MarkAttendanceHandler {
	if log == nil {
		log = logger.Default()
	}
	return &MarkAttendanceHandler{
		attendance: attendance,
		activities: activities,
		service:    service,
		log:        log.With(logger.Component("mark_attendance")),
	}
}

// Handle executes the mark attendance command.
func (h *MarkAttendanceHandler) Handle(ctx context.Context, cmd MarkAttendanceCommand) (*MarkAttendanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	date := cmd.Date
	if date.IsZero() {
		date = timeutil.Now()
	}
	date = timeutil.StartOfDay(date)
	if date.After(timeutil.StartOfDay(timeutil.Now())) {
		return nil, shared.ErrInvalidAttendanceDay
	}

	record := &academics.AttendanceRecord{
		ID:        uuid.NewString(),
		StudentID: cmd.StudentID,
		SubjectID: cmd.SubjectID,
		Date:      date,
		Status:    cmd.Status,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.attendance.Create(ctx, record); err != nil {
		// A repeated mark for the same class day is a no-op, not a failure.
		if shared.IsAlreadyExists(err) {
			return nil, shared.ErrDuplicateAttendance
		}
		return nil, fmt.Errorf("mark_attendance: %w", err)
	}

	records, err := h.attendance.ListByStudentAndSubject(ctx, cmd.StudentID, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("mark_attendance: %w", err)
	}
	stats := academics.ComputeAttendanceStats(records)

	result := &MarkAttendanceResult{
		Percentage: stats.Percentage,
		Zone:       stats.Status,
	}

	recordActivity(ctx, h.activities, h.log, cmd.StudentID, activity.TypeAttendance, date,
		activity.Data{AttendancePercentage: stats.Percentage})

	if cmd.Status != academics.StatusPresent {
		return result, nil
	}

	if _, err := h.service.AwardXP(ctx, cmd.StudentID, AttendanceXP, "Attended class", student.SourceAttendance); err != nil {
		return nil, fmt.Errorf("mark_attendance: %w", err)
	}
	result.XPAwarded = AttendanceXP

	streak, err := h.service.UpdateStreak(ctx, cmd.StudentID, domgam.StreakAttendance)
	if err != nil {
		return nil, fmt.Errorf("mark_attendance: %w", err)
	}
	result.Streak = streak

	weekly, err := h.weeklyPercentage(ctx, cmd.StudentID, date)
	if err != nil {
		h.log.Warn("weekly attendance not computed", logger.StudentID(cmd.StudentID), logger.Err(err))
	} else {
		unlocked, err := h.service.CheckAndAwardAchievements(ctx, cmd.StudentID, gamification.Activity{
			Type: gamification.ActivityAttendance,
			Data: gamification.ActivityData{Percentage: weekly},
		})
		if err != nil {
			return nil, fmt.Errorf("mark_attendance: %w", err)
		}
		result.Unlocked = unlocked
	}

	if err := h.service.UpdateLeaderboard(ctx, cmd.StudentID, leaderboard.CategoryAttendance, stats.Percentage); err != nil {
		h.log.Warn("leaderboard not updated", logger.StudentID(cmd.StudentID), logger.Err(err))
	}

	return result, nil
}

// weeklyPercentage computes the attendance ratio across all subjects
// for the week containing the date. Feeds the perfect_week check.
func (h *MarkAttendanceHandler) weeklyPercentage(ctx context.Context, studentID string, date time.Time) (float64, error) {
	weekStart := timeutil.StartOfWeek(date)
	records, err := h.attendance.ListByStudentSince(ctx, studentID, weekStart)
	if err != nil {
		return 0, err
	}
	stats := academics.ComputeAttendanceStats(records)
	return stats.Percentage, nil
}
