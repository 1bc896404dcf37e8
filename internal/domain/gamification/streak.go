package gamification

import (
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// StreakType определяет вид активности, по которой считается стрик.
type StreakType string

const (
	// StreakAttendance - посещение занятий.
	StreakAttendance StreakType = "attendance"
	// StreakStudy - учебная сессия.
	StreakStudy StreakType = "study"
	// StreakAssignment - сдача заданий.
	StreakAssignment StreakType = "assignment"
	// StreakLogin - вход в приложение.
	StreakLogin StreakType = "login"
)

// AllStreakTypes возвращает все известные типы стриков.
func AllStreakTypes() []StreakType {
	return []StreakType{StreakAttendance, StreakStudy, StreakAssignment, StreakLogin}
}

// IsValid проверяет, что тип стрика известен.
func (t StreakType) IsValid() bool {
	switch t {
	case StreakAttendance, StreakStudy, StreakAssignment, StreakLogin:
		return true
	}
	return false
}

// StreakOutcome описывает, что произошло со стриком при новой активности.
type StreakOutcome string

const (
	// OutcomeStarted - первый день активности этого типа.
	OutcomeStarted StreakOutcome = "started"
	// OutcomeExtended - вчерашний стрик продолжен.
	OutcomeExtended StreakOutcome = "extended"
	// OutcomeReset - пропуск больше одного дня, счётчик начат заново.
	OutcomeReset StreakOutcome = "reset"
	// OutcomeUnchanged - повторная активность в тот же день, no-op.
	OutcomeUnchanged StreakOutcome = "unchanged"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONES
// ══════════════════════════════════════════════════════════════════════════════

// streakMilestones - длины стрика, на которых выдаётся бейдж.
// Бейдж срабатывает только при точном совпадении длины: стрик,
// сброшенный и выросший заново, дойдёт до той же отметки ещё раз,
// но повторная выдача гасится идемпотентностью разблокировки.
var streakMilestones = map[int]BadgeType{
	7:   BadgeWeekStreak,
	30:  BadgeMonthStreak,
	100: BadgeCenturyStreak,
}

// MilestoneBadge возвращает бейдж для ровно достигнутой длины стрика.
// Вторым значением возвращает false, если отметка не юбилейная.
func MilestoneBadge(length int) (BadgeType, bool) {
	badge, ok := streakMilestones[length]
	return badge, ok
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Streak - счётчик последовательных календарных дней активности.
// Ровно одна запись на пару (студент, тип). Мутируется не чаще
// одного раза в календарный день; никогда не удаляется.
type Streak struct {
	ID               string
	StudentID        string
	Type             StreakType
	CurrentStreak    int
	LongestStreak    int
	LastActivityDate time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewStreak создаёт стрик первого дня активности.
func NewStreak(id, studentID string, streakType StreakType, activityDate time.Time) (*Streak, error) {
	if studentID == "" {
		return nil, shared.ErrInvalidStudentID
	}
	if !streakType.IsValid() {
		return nil, shared.ErrInvalidStreakType
	}

	day := timeutil.StartOfDay(activityDate)
	return &Streak{
		ID:               id,
		StudentID:        studentID,
		Type:             streakType,
		CurrentStreak:    1,
		LongestStreak:    1,
		LastActivityDate: day,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}, nil
}

// AdvanceResult - результат применения дневной активности к стрику.
type AdvanceResult struct {
	Outcome       StreakOutcome
	CurrentStreak int
	LongestStreak int

	// Milestone заполнен, если новая длина ровно юбилейная.
	Milestone    BadgeType
	HasMilestone bool
}

// Advance применяет активность за день activityDate по правилам разрыва:
//
//	разница в днях == 0  → no-op (тот же день);
//	разница в днях == 1  → стрик +1, longest = max(longest, новый);
//	разница в днях  > 1  → сброс до 1, longest сохраняется.
//
// Активность задним числом (отрицательная разница) трактуется как
// тот же день и не изменяет состояние.
func (s *Streak) Advance(activityDate time.Time) AdvanceResult {
	day := timeutil.StartOfDay(activityDate)
	gap := timeutil.DayGap(s.LastActivityDate, day)

	switch {
	case gap <= 0:
		return AdvanceResult{
			Outcome:       OutcomeUnchanged,
			CurrentStreak: s.CurrentStreak,
			LongestStreak: s.LongestStreak,
		}

	case gap == 1:
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		s.LastActivityDate = day
		s.UpdatedAt = time.Now().UTC()

		result := AdvanceResult{
			Outcome:       OutcomeExtended,
			CurrentStreak: s.CurrentStreak,
			LongestStreak: s.LongestStreak,
		}
		if badge, ok := MilestoneBadge(s.CurrentStreak); ok {
			result.Milestone = badge
			result.HasMilestone = true
		}
		return result

	default:
		s.CurrentStreak = 1
		s.LastActivityDate = day
		s.UpdatedAt = time.Now().UTC()

		return AdvanceResult{
			Outcome:       OutcomeReset,
			CurrentStreak: s.CurrentStreak,
			LongestStreak: s.LongestStreak,
		}
	}
}

// IsActive возвращает true, если стрик не разорван на момент now:
// последняя активность была сегодня или вчера.
func (s *Streak) IsActive(now time.Time) bool {
	gap := timeutil.DayGap(s.LastActivityDate, timeutil.StartOfDay(now))
	return gap >= 0 && gap <= 1
}

// Clone создаёт копию стрика.
func (s *Streak) Clone() *Streak {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// String возвращает строковое представление для логирования.
func (s *Streak) String() string {
	return fmt.Sprintf(
		"Streak{Student: %s, Type: %s, Current: %d, Longest: %d}",
		s.StudentID, s.Type, s.CurrentStreak, s.LongestStreak,
	)
}
