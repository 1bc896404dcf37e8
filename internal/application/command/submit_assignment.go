package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/application/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/activity"
	domgam "github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ASSIGNMENT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

const (
	// AssignmentXP is awarded for any on-time submission.
	AssignmentXP = 25

	// EarlyBonusXP is added when the hand-in beats the deadline by a day.
	EarlyBonusXP = 10
)

// SubmitAssignmentCommand contains the data to register a submission.
type SubmitAssignmentCommand struct {
	// StudentID is the internal ID of the student.
	StudentID string

	// AssignmentID identifies the assignment.
	AssignmentID string

	// Deadline of the assignment.
	Deadline time.Time

	// SubmittedAt is when the work was handed in (defaults to now).
	SubmittedAt time.Time
}

// Validate validates the command.
func (c SubmitAssignmentCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("submit_assignment: student_id is required")
	}
	if c.AssignmentID == "" {
		return errors.New("submit_assignment: assignment_id is required")
	}
	if c.Deadline.IsZero() {
		return errors.New("submit_assignment: deadline is required")
	}
	return nil
}

// SubmitAssignmentResult contains the result of a submission.
type SubmitAssignmentResult struct {
	// Early reports whether the submission beat the deadline by a day.
	Early bool

	// Late reports whether the submission missed the deadline.
	Late bool

	// XPAwarded for this submission.
	XPAwarded int

	// Streak is the assignment streak state after this submission.
	Streak *gamification.StreakResult

	// Unlocked lists achievements granted by this submission.
	Unlocked []*domgam.Achievement
}

// SubmitAssignmentHandler handles the SubmitAssignmentCommand.
type SubmitAssignmentHandler struct {
	submissions activity.SubmissionRepository
	activities  activity.Repository
	service     *gamification.Service
	log         *logger.Logger
}

// NewSubmitAssignmentHandler creates a new SubmitAssignmentHandler.
func NewSubmitAssignmentHandler(submissions activity.SubmissionRepository, activities activity.Repository, service *gamification.Service, log *logger.Logger) *SubmitAssignmentHandler {
	if log == nil {
		log = logger.Default()
	}
	return &SubmitAssignmentHandler{
		submissions: submissions,
		activities:  activities,
		service:     service,
		log:         log.With(logger.Component("submit_assignment")),
	}
}

// Handle executes the submit assignment command.
func (h *SubmitAssignmentHandler) Handle(ctx context.Context, cmd SubmitAssignmentCommand) (*SubmitAssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	submittedAt := cmd.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	sub := &activity.Submission{
		ID:           uuid.NewString(),
		StudentID:    cmd.StudentID,
		AssignmentID: cmd.AssignmentID,
		Deadline:     cmd.Deadline,
		SubmittedAt:  submittedAt,
	}
	if err := h.submissions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("submit_assignment: %w", err)
	}

	result := &SubmitAssignmentResult{
		Early: sub.IsEarly(),
		Late:  sub.IsLate(),
	}

	recordActivity(ctx, h.activities, h.log, cmd.StudentID, activity.TypeAssignment, submittedAt,
		activity.Data{SubmittedEarly: result.Early})

	if result.Late {
		return result, nil
	}

	xp := AssignmentXP
	reason := "Assignment submitted"
	if result.Early {
		xp += EarlyBonusXP
		reason = "Assignment submitted early"
	}
	if _, err := h.service.AwardXP(ctx, cmd.StudentID, xp, reason, student.SourceAssignment); err != nil {
		return nil, fmt.Errorf("submit_assignment: %w", err)
	}
	result.XPAwarded = xp

	streak, err := h.service.UpdateStreak(ctx, cmd.StudentID, domgam.StreakAssignment)
	if err != nil {
		return nil, fmt.Errorf("submit_assignment: %w", err)
	}
	result.Streak = streak

	stats, err := h.submissions.GetStats(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("submit_assignment: %w", err)
	}

	unlocked, err := h.service.CheckAndAwardAchievements(ctx, cmd.StudentID, gamification.Activity{
		Type: gamification.ActivityAssignment,
		Data: gamification.ActivityData{SubmittedEarly: result.Early},
	})
	if err != nil {
		return nil, fmt.Errorf("submit_assignment: %w", err)
	}
	result.Unlocked = unlocked

	if stats.QualifiesForNeverMissed() {
		a, err := h.service.UnlockAchievement(ctx, cmd.StudentID, domgam.BadgeNeverMissed, "assignment")
		if err != nil {
			return nil, fmt.Errorf("submit_assignment: %w", err)
		}
		if a != nil {
			result.Unlocked = append(result.Unlocked, a)
		}
	}

	return result, nil
}
