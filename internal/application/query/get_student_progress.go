package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT PROGRESS QUERY
// Сводка геймификации: XP, уровень, прогресс до следующего уровня,
// стрики и разблокированные достижения.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentProgressQuery содержит параметры запроса прогресса.
type GetStudentProgressQuery struct {
	// StudentID - внутренний ID студента.
	StudentID string

	// LedgerLimit - сколько последних записей леджера вернуть
	// (по умолчанию 10, максимум 50).
	LedgerLimit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetStudentProgressQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id must be provided")
	}
	if q.LedgerLimit < 0 {
		return errors.New("ledger_limit cannot be negative")
	}
	if q.LedgerLimit == 0 {
		q.LedgerLimit = 10
	}
	if q.LedgerLimit > 50 {
		q.LedgerLimit = 50
	}
	return nil
}

// StreakDTO - состояние одного стрика.
type StreakDTO struct {
	Type          gamification.StreakType `json:"type"`
	CurrentStreak int                     `json:"current_streak"`
	LongestStreak int                     `json:"longest_streak"`
	Active        bool                    `json:"active"`
}

// AchievementDTO - разблокированное достижение.
type AchievementDTO struct {
	BadgeType  gamification.BadgeType `json:"badge_type"`
	Title      string                 `json:"title"`
	Icon       string                 `json:"icon"`
	Rarity     gamification.Rarity    `json:"rarity"`
	XPEarned   int                    `json:"xp_earned"`
	UnlockedAt time.Time              `json:"unlocked_at"`
}

// LedgerEntryDTO - запись XP-леджера.
type LedgerEntryDTO struct {
	Amount    int            `json:"amount"`
	Reason    string         `json:"reason"`
	Source    student.Source `json:"source"`
	CreatedAt time.Time      `json:"created_at"`
}

// StudentProgressDTO - полная сводка прогресса студента.
type StudentProgressDTO struct {
	StudentID     string           `json:"student_id"`
	DisplayName   string           `json:"display_name"`
	TotalXP       int              `json:"total_xp"`
	Level         int              `json:"level"`
	LevelProgress float64          `json:"level_progress"`
	XPToNextLevel int              `json:"xp_to_next_level"`
	Streaks       []StreakDTO      `json:"streaks"`
	Achievements  []AchievementDTO `json:"achievements"`
	RecentLedger  []LedgerEntryDTO `json:"recent_ledger"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// GetStudentProgressHandler обрабатывает запрос прогресса.
type GetStudentProgressHandler struct {
	students     student.Repository
	ledger       student.LedgerRepository
	streaks      gamification.StreakRepository
	achievements gamification.AchievementRepository
	now          func() time.Time
}

// NewGetStudentProgressHandler создаёт новый обработчик.
func NewGetStudentProgressHandler(
	students student.Repository,
	ledger student.LedgerRepository,
	streaks gamification.StreakRepository,
	achievements gamification.AchievementRepository,
) *GetStudentProgressHandler {
	return &GetStudentProgressHandler{
		students:     students,
		ledger:       ledger,
		streaks:      streaks,
		achievements: achievements,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Handle выполняет запрос.
func (h *GetStudentProgressHandler) Handle(ctx context.Context, q GetStudentProgressQuery) (*StudentProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	stud, err := h.students.GetByID(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student progress: %w", err)
	}

	now := h.now()
	xp := stud.TotalXP.Int()
	dto := &StudentProgressDTO{
		StudentID:     stud.ID,
		DisplayName:   stud.DisplayName,
		TotalXP:       xp,
		Level:         gamification.LevelForXP(xp),
		LevelProgress: gamification.LevelProgress(xp),
		XPToNextLevel: gamification.XPToNextLevel(xp),
		GeneratedAt:   now,
	}

	streaks, err := h.streaks.ListByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student progress: %w", err)
	}
	for _, s := range streaks {
		dto.Streaks = append(dto.Streaks, StreakDTO{
			Type:          s.Type,
			CurrentStreak: s.CurrentStreak,
			LongestStreak: s.LongestStreak,
			Active:        s.IsActive(now),
		})
	}

	achievements, err := h.achievements.ListByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student progress: %w", err)
	}
	for _, a := range achievements {
		dto.Achievements = append(dto.Achievements, AchievementDTO{
			BadgeType:  a.BadgeType,
			Title:      a.Title,
			Icon:       a.Icon,
			Rarity:     a.Rarity,
			XPEarned:   a.XPEarned,
			UnlockedAt: a.UnlockedAt,
		})
	}

	entries, err := h.ledger.ListByStudent(ctx, q.StudentID, student.ListOptions{Limit: q.LedgerLimit})
	if err != nil {
		return nil, fmt.Errorf("get student progress: %w", err)
	}
	for _, e := range entries {
		dto.RecentLedger = append(dto.RecentLedger, LedgerEntryDTO{
			Amount:    e.Amount,
			Reason:    e.Reason,
			Source:    e.Source,
			CreatedAt: e.CreatedAt,
		})
	}

	return dto, nil
}
