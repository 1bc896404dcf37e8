package leaderboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт хранилища рейтингов.
// Реализация находится в infrastructure слое (PostgreSQL + Redis кеш).
//
// Уникальность пары (студент, категория) для текущего периода
// обеспечивается ограничением хранилища: конкурирующий дубликат
// становится обновлением, а не второй записью.
type Repository interface {
	// ──────────────────────────────────────────────────────────────────────────
	// CURRENT PERIOD (Write Model)
	// ──────────────────────────────────────────────────────────────────────────

	// Upsert вставляет или перезаписывает счёт пары (студент, категория).
	Upsert(ctx context.Context, entry *Entry) error

	// GetByStudentAndCategory возвращает запись пары или
	// shared.ErrLeaderboardNotFound.
	GetByStudentAndCategory(ctx context.Context, studentID string, category Category) (*Entry, error)

	// ──────────────────────────────────────────────────────────────────────────
	// RANKING QUERIES (Read Model)
	// ──────────────────────────────────────────────────────────────────────────

	// GetTop возвращает топ-limit записей категории: счёт по убыванию,
	// при равенстве раньше обновлённый выше.
	GetTop(ctx context.Context, category Category, limit int) ([]*Entry, error)

	// ListAll возвращает все записи категории в порядке рейтинга.
	// Используется пересчётом снапшотов.
	ListAll(ctx context.Context, category Category) ([]*Entry, error)

	// GetStudentRank возвращает позицию студента в категории.
	// Возвращает 0 без ошибки, если студента в рейтинге нет.
	GetStudentRank(ctx context.Context, studentID string, category Category) (Rank, error)

	// GetTotalCount возвращает количество участников категории.
	GetTotalCount(ctx context.Context, category Category) (int, error)

	// UpdateRankChanges проставляет rank_change записям категории
	// после пересчёта против предыдущего снапшота.
	UpdateRankChanges(ctx context.Context, category Category, changes map[string]int) error

	// ──────────────────────────────────────────────────────────────────────────
	// SNAPSHOT OPERATIONS
	// ──────────────────────────────────────────────────────────────────────────

	// SaveSnapshot сохраняет снапшот категории.
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// GetLatestSnapshot возвращает последний снапшот категории
	// или shared.ErrLeaderboardNotFound, если снапшотов ещё нет.
	GetLatestSnapshot(ctx context.Context, category Category) (*Snapshot, error)

	// ListSnapshots возвращает снапшоты категории за период,
	// новые первыми.
	ListSnapshots(ctx context.Context, category Category, from, to time.Time) ([]*Snapshot, error)

	// DeleteOldSnapshots удаляет снапшоты старше указанного времени.
	// Возвращает количество удалённых.
	DeleteOldSnapshots(ctx context.Context, olderThan time.Time) (int, error)
}
