package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/studypulse/studypulse-backend/internal/application/gamification"
	domgam "github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD LOGIN COMMAND
// Daily login: a small XP drip plus the login streak. XP is granted only
// when the streak actually advances, so repeated logins in one day pay once.
// ══════════════════════════════════════════════════════════════════════════════

// DailyLoginXP is awarded once per calendar day.
const DailyLoginXP = 5

// RecordLoginCommand contains the data to record a login.
type RecordLoginCommand struct {
	// StudentID is the internal ID of the student.
	StudentID string
}

// Validate validates the command.
func (c RecordLoginCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("record_login: student_id is required")
	}
	return nil
}

// RecordLoginResult contains the result of recording a login.
type RecordLoginResult struct {
	// FirstToday reports whether this was the first login of the day.
	FirstToday bool

	// XPAwarded for this login.
	XPAwarded int

	// Streak is the login streak state after this login.
	Streak *gamification.StreakResult
}

// RecordLoginHandler handles the RecordLoginCommand.
type RecordLoginHandler struct {
	service *gamification.Service
	log     *logger.Logger
}

// NewRecordLoginHandler creates a new RecordLoginHandler.
func NewRecordLoginHandler(service *gamification.Service, log *logger.Logger) *RecordLoginHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordLoginHandler{
		service: service,
		log:     log.With(logger.Component("record_login")),
	}
}

// Handle executes the record login command.
func (h *RecordLoginHandler) Handle(ctx context.Context, cmd RecordLoginCommand) (*RecordLoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	streak, err := h.service.UpdateStreak(ctx, cmd.StudentID, domgam.StreakLogin)
	if err != nil {
		return nil, fmt.Errorf("record_login: %w", err)
	}

	result := &RecordLoginResult{
		Streak:     streak,
		FirstToday: streak.Outcome != domgam.OutcomeUnchanged,
	}
	if !result.FirstToday {
		return result, nil
	}

	if _, err := h.service.AwardXP(ctx, cmd.StudentID, DailyLoginXP, "Daily login", student.SourceLogin); err != nil {
		return nil, fmt.Errorf("record_login: %w", err)
	}
	result.XPAwarded = DailyLoginXP

	return result, nil
}
