package student

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS READ MODEL
// Сводка прогресса студента для презентационного слоя. Собирается
// query-слоем из нескольких репозиториев; сама по себе ничего не хранит.
// ══════════════════════════════════════════════════════════════════════════════

// Progress представляет полный прогресс студента.
type Progress struct {
	// StudentID - идентификатор студента.
	StudentID string

	// TotalXP - накопленный XP.
	TotalXP XP

	// Level - текущий уровень.
	Level int

	// XPToNextLevel - сколько XP осталось до следующего уровня.
	XPToNextLevel int

	// Streaks - текущие серии по типам активности.
	Streaks []StreakSummary

	// BadgesUnlocked - количество разблокированных бейджей.
	BadgesUnlocked int

	// RecentTransactions - последние начисления XP.
	RecentTransactions []*ExperienceTransaction

	// LastActivityAt - время последней активности.
	LastActivityAt time.Time
}

// StreakSummary - сводка одной серии для модели прогресса.
type StreakSummary struct {
	// StreakType - тип серии (attendance, study, assignment, login).
	StreakType string

	// Current - текущая длина серии.
	Current int

	// Longest - лучшая длина серии.
	Longest int

	// LastActivityDate - дата последней активности.
	LastActivityDate time.Time
}

// DailyXPEntry представляет запись XP за один день.
type DailyXPEntry struct {
	// Date - дата (без времени).
	Date time.Time

	// XPGained - заработано XP за день.
	XPGained XP

	// Awards - количество начислений за день.
	Awards int
}

// DailyHistory агрегирует записи леджера по календарным дням.
// Записи должны быть отсортированы от старых к новым.
func DailyHistory(txs []*ExperienceTransaction) []DailyXPEntry {
	var history []DailyXPEntry
	for _, tx := range txs {
		day := tx.CreatedAt.Truncate(24 * time.Hour)
		if n := len(history); n > 0 && history[n-1].Date.Equal(day) {
			history[n-1].XPGained += XP(tx.Amount)
			history[n-1].Awards++
			continue
		}
		history = append(history, DailyXPEntry{
			Date:     day,
			XPGained: XP(tx.Amount),
			Awards:   1,
		})
	}
	return history
}
