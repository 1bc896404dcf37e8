package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/academics"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACADEMIC SUMMARY QUERY
// Академическая сводка: посещаемость по предметам с зонами риска,
// CGPA и подсказки "сколько занятий нужно/можно".
// ══════════════════════════════════════════════════════════════════════════════

// DefaultAttendanceTarget - целевой процент посещаемости для подсказок.
const DefaultAttendanceTarget = 75.0

// GetAcademicSummaryQuery содержит параметры запроса сводки.
type GetAcademicSummaryQuery struct {
	// StudentID - внутренний ID студента.
	StudentID string

	// TargetPercentage - целевой процент для расчёта подсказок
	// (по умолчанию 75).
	TargetPercentage float64
}

// Validate проверяет корректность параметров запроса.
func (q *GetAcademicSummaryQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id must be provided")
	}
	if q.TargetPercentage < 0 {
		return errors.New("target_percentage cannot be negative")
	}
	if q.TargetPercentage == 0 {
		q.TargetPercentage = DefaultAttendanceTarget
	}
	return nil
}

// SubjectAttendanceDTO - посещаемость одного предмета.
type SubjectAttendanceDTO struct {
	SubjectID   string               `json:"subject_id"`
	SubjectName string               `json:"subject_name"`
	Present     int                  `json:"present"`
	Total       int                  `json:"total"`
	Percentage  float64              `json:"percentage"`
	Zone        academics.ZoneStatus `json:"zone"`

	// NeedToAttend - сколько занятий подряд нужно посетить,
	// чтобы достичь цели (0, если цель уже достигнута).
	NeedToAttend int `json:"need_to_attend"`

	// CanMiss - сколько занятий можно пропустить, оставаясь
	// на уровне цели.
	CanMiss int `json:"can_miss"`
}

// AcademicSummaryDTO - полная академическая сводка.
type AcademicSummaryDTO struct {
	StudentID   string                 `json:"student_id"`
	Subjects    []SubjectAttendanceDTO `json:"subjects"`
	OverallPct  float64                `json:"overall_percentage"`
	OverallZone academics.ZoneStatus   `json:"overall_zone"`
	CGPA        float64                `json:"cgpa"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// GetAcademicSummaryHandler обрабатывает запрос сводки.
type GetAcademicSummaryHandler struct {
	attendance academics.AttendanceRepository
	grades     academics.GradeRepository
	subjects   academics.SubjectRepository
}

// NewGetAcademicSummaryHandler создаёт новый обработчик.
func NewGetAcademicSummaryHandler(
	attendance academics.AttendanceRepository,
	grades academics.GradeRepository,
	subjects academics.SubjectRepository,
) *GetAcademicSummaryHandler {
	return &GetAcademicSummaryHandler{
		attendance: attendance,
		grades:     grades,
		subjects:   subjects,
	}
}

// Handle выполняет запрос.
func (h *GetAcademicSummaryHandler) Handle(ctx context.Context, q GetAcademicSummaryQuery) (*AcademicSummaryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	subjects, err := h.subjects.ListByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get academic summary: %w", err)
	}

	dto := &AcademicSummaryDTO{
		StudentID:   q.StudentID,
		GeneratedAt: time.Now().UTC(),
	}

	var overallPresent, overallTotal int
	for _, subj := range subjects {
		records, err := h.attendance.ListByStudentAndSubject(ctx, q.StudentID, subj.ID)
		if err != nil {
			return nil, fmt.Errorf("get academic summary: %w", err)
		}
		stats := academics.ComputeAttendanceStats(records)
		overallPresent += stats.Present
		overallTotal += stats.Total

		dto.Subjects = append(dto.Subjects, SubjectAttendanceDTO{
			SubjectID:    subj.ID,
			SubjectName:  subj.Name,
			Present:      stats.Present,
			Total:        stats.Total,
			Percentage:   stats.Percentage,
			Zone:         stats.Status,
			NeedToAttend: academics.ClassesNeedToAttend(stats.Percentage, stats.Total, q.TargetPercentage),
			CanMiss:      academics.ClassesCanMiss(stats.Percentage, stats.Total, q.TargetPercentage),
		})
	}

	dto.OverallPct = academics.AttendancePercentage(overallPresent, overallTotal)
	dto.OverallZone = academics.DefaultSafeZoneStatus(dto.OverallPct).Status

	grades, err := h.grades.ListByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get academic summary: %w", err)
	}
	dto.CGPA = academics.CGPA(grades, subjects, academics.Scale10)

	return dto, nil
}
