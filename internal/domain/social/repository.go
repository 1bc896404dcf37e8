package social

import (
	"context"
	"time"
)

// Repository - порт хранилища социальных вкладов.
// Реализация находится в infrastructure слое.
type Repository interface {
	// Append добавляет запись вклада. Записи неизменяемы.
	Append(ctx context.Context, contribution *Contribution) error

	// ListByStudent возвращает все вклады студента, новые первыми.
	ListByStudent(ctx context.Context, studentID string) ([]*Contribution, error)

	// GetCounters возвращает агрегированные счётчики студента.
	GetCounters(ctx context.Context, studentID string) (Counters, error)

	// ListSince возвращает вклады всех студентов после отметки времени.
	// Используется периодической проверкой социальных бейджей.
	ListSince(ctx context.Context, since time.Time) ([]*Contribution, error)
}
