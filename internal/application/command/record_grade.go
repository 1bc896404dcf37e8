package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/application/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/academics"
	"github.com/studypulse/studypulse-backend/internal/domain/activity"
	domgam "github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
	"github.com/studypulse/studypulse-backend/pkg/logger"
	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD GRADE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// GradeXP is awarded for each recorded grade.
const GradeXP = 20

// RecordGradeCommand contains the data to record a grade.
type RecordGradeCommand struct {
	// StudentID is the internal ID of the student.
	StudentID string

	// SubjectID identifies the graded subject.
	SubjectID string

	// MarksObtained and TotalMarks define the raw score.
	MarksObtained float64
	TotalMarks    float64

	// Semester the grade belongs to.
	Semester int

	// ExamType of the assessment.
	ExamType academics.ExamType
}

// Validate validates the command.
func (c RecordGradeCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("record_grade: student_id is required")
	}
	if c.SubjectID == "" {
		return errors.New("record_grade: subject_id is required")
	}
	if c.TotalMarks <= 0 {
		return errors.New("record_grade: total_marks must be positive")
	}
	if c.MarksObtained < 0 || c.MarksObtained > c.TotalMarks {
		return errors.New("record_grade: marks_obtained out of range")
	}
	if c.Semester < 1 {
		return errors.New("record_grade: semester must be positive")
	}
	if !c.ExamType.IsValid() {
		return fmt.Errorf("record_grade: unknown exam type: %s", c.ExamType)
	}
	return nil
}

// RecordGradeResult contains the result of recording a grade.
type RecordGradeResult struct {
	// Letter is the grade letter for this score.
	Letter string

	// CGPA is the weighted average after this grade.
	CGPA float64

	// XPAwarded for this grade.
	XPAwarded int

	// Unlocked lists achievements granted by this grade.
	Unlocked []*domgam.Achievement
}

// RecordGradeHandler handles the RecordGradeCommand.
type RecordGradeHandler struct {
	grades     academics.GradeRepository
	subjects   academics.SubjectRepository
	activities activity.Repository
	service    *gamification.Service
	log        *logger.Logger
}

// NewRecordGradeHandler creates a new RecordGradeHandler.
func NewRecordGradeHandler(grades academics.GradeRepository, subjects academics.SubjectRepository, activities activity.Repository, service *gamification.Service, log *logger.Logger) *RecordGradeHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordGradeHandler{
		grades:     grades,
		subjects:   subjects,
		activities: activities,
		service:    service,
		log:        log.With(logger.Component("record_grade")),
	}
}

// Handle executes the record grade command.
func (h *RecordGradeHandler) Handle(ctx context.Context, cmd RecordGradeCommand) (*RecordGradeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	grade := &academics.Grade{
		ID:            uuid.NewString(),
		StudentID:     cmd.StudentID,
		SubjectID:     cmd.SubjectID,
		MarksObtained: cmd.MarksObtained,
		TotalMarks:    cmd.TotalMarks,
		Semester:      cmd.Semester,
		ExamType:      cmd.ExamType,
	}
	if err := h.grades.Create(ctx, grade); err != nil {
		return nil, fmt.Errorf("record_grade: %w", err)
	}

	grades, err := h.grades.ListByStudent(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("record_grade: %w", err)
	}
	subjects, err := h.subjects.ListByStudent(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("record_grade: %w", err)
	}

	letter := academics.GradeLetter(cmd.MarksObtained, cmd.TotalMarks)
	cgpa := academics.WeightedGPA(grades, subjects, academics.Scale10)

	result := &RecordGradeResult{
		Letter: letter,
		CGPA:   cgpa,
	}

	recordActivity(ctx, h.activities, h.log, cmd.StudentID, activity.TypeGrade, timeutil.Now(),
		activity.Data{GradeLetter: letter, CGPA: cgpa})

	if _, err := h.service.AwardXP(ctx, cmd.StudentID, GradeXP, "Grade recorded", student.SourceGrade); err != nil {
		return nil, fmt.Errorf("record_grade: %w", err)
	}
	result.XPAwarded = GradeXP

	unlocked, err := h.service.CheckAndAwardAchievements(ctx, cmd.StudentID, gamification.Activity{
		Type: gamification.ActivityGrade,
		Data: gamification.ActivityData{GradeLetter: letter, CGPA: cgpa},
	})
	if err != nil {
		return nil, fmt.Errorf("record_grade: %w", err)
	}
	result.Unlocked = unlocked

	if err := h.service.UpdateLeaderboard(ctx, cmd.StudentID, leaderboard.CategoryGrades, cgpa); err != nil {
		h.log.Warn("leaderboard not updated", logger.StudentID(cmd.StudentID), logger.Err(err))
	}

	return result, nil
}
