package gamification

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации в infrastructure/persistence. Уникальность пар
// (студент, тип стрика) и (студент, тип бейджа) обеспечивается
// ограничениями хранилища, а не проверкой перед записью.
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository - порт хранилища стриков.
type StreakRepository interface {
	// GetByStudentAndType возвращает стрик пары или shared.ErrStreakNotFound.
	GetByStudentAndType(ctx context.Context, studentID string, streakType StreakType) (*Streak, error)

	// ListByStudent возвращает все стрики студента.
	ListByStudent(ctx context.Context, studentID string) ([]*Streak, error)

	// Create вставляет новый стрик. Возвращает shared.ErrAlreadyExists,
	// если пара (студент, тип) уже существует.
	Create(ctx context.Context, streak *Streak) error

	// Update сохраняет изменённые счётчики стрика.
	Update(ctx context.Context, streak *Streak) error
}

// AchievementRepository - порт хранилища достижений.
type AchievementRepository interface {
	// GetByStudentAndBadge возвращает достижение или shared.ErrNotFound.
	GetByStudentAndBadge(ctx context.Context, studentID string, badgeType BadgeType) (*Achievement, error)

	// ListByStudent возвращает достижения студента, новые первыми.
	ListByStudent(ctx context.Context, studentID string) ([]*Achievement, error)

	// CreateIfAbsent вставляет достижение, если пары (студент, бейдж)
	// ещё нет. Возвращает false без ошибки, если запись уже была:
	// проигравший гонку дубликат - no-op, не сбой.
	CreateIfAbsent(ctx context.Context, achievement *Achievement) (bool, error)

	// CountByStudent возвращает число разблокированных бейджей.
	CountByStudent(ctx context.Context, studentID string) (int, error)
}
