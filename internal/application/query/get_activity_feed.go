package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/activity"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACTIVITY FEED QUERY
// Возвращает ленту активности студента: отметки посещаемости, оценки,
// сдачи заданий и социальные вклады, новые сверху.
// ══════════════════════════════════════════════════════════════════════════════

// GetActivityFeedQuery содержит параметры запроса ленты.
type GetActivityFeedQuery struct {
	// StudentID - внутренний ID студента.
	StudentID string

	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetActivityFeedQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	return nil
}

// ActivityDTO - DTO для записи ленты активности.
type ActivityDTO struct {
	// ID - идентификатор записи.
	ID string `json:"id"`

	// Type - тип активности (attendance, grade, assignment, social).
	Type string `json:"type"`

	// OccurredAt - время события.
	OccurredAt time.Time `json:"occurred_at"`

	// AttendancePercentage - процент посещаемости на момент отметки
	// (только для attendance).
	AttendancePercentage float64 `json:"attendance_percentage,omitempty"`

	// GradeLetter и CGPA - буквенная оценка и средний балл после неё
	// (только для grade).
	GradeLetter string  `json:"grade_letter,omitempty"`
	CGPA        float64 `json:"cgpa,omitempty"`

	// SubmittedEarly - сдано ли задание досрочно (только для assignment).
	SubmittedEarly bool `json:"submitted_early,omitempty"`
}

// GetActivityFeedResult - результат запроса ленты активности.
type GetActivityFeedResult struct {
	// StudentID - внутренний ID студента.
	StudentID string `json:"student_id"`

	// Activities - записи ленты, новые сверху.
	Activities []ActivityDTO `json:"activities"`

	// GeneratedAt - время формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetActivityFeedHandler обрабатывает запрос ленты активности.
type GetActivityFeedHandler struct {
	activities activity.Repository
}

// NewGetActivityFeedHandler создаёт новый обработчик.
func NewGetActivityFeedHandler(activities activity.Repository) *GetActivityFeedHandler {
	return &GetActivityFeedHandler{activities: activities}
}

// Handle выполняет запрос.
func (h *GetActivityFeedHandler) Handle(ctx context.Context, q GetActivityFeedQuery) (*GetActivityFeedResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	entries, err := h.activities.ListByStudent(ctx, q.StudentID, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("get activity feed: %w", err)
	}

	dtos := make([]ActivityDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, ActivityDTO{
			ID:                   e.ID,
			Type:                 string(e.Type),
			OccurredAt:           e.OccurredAt,
			AttendancePercentage: e.Data.AttendancePercentage,
			GradeLetter:          e.Data.GradeLetter,
			CGPA:                 e.Data.CGPA,
			SubmittedEarly:       e.Data.SubmittedEarly,
		})
	}

	return &GetActivityFeedResult{
		StudentID:   q.StudentID,
		Activities:  dtos,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
