package student

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ListOptions задаёт пагинацию и сортировку выборки.
type ListOptions struct {
	Offset int
	Limit  int
}

// Repository определяет основные операции CRUD для студентов.
type Repository interface {
	// Create создаёт нового студента.
	// Возвращает ErrStudentAlreadyExists, если студент уже существует.
	Create(ctx context.Context, student *Student) error

	// GetByID возвращает студента по внутреннему ID.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetByID(ctx context.Context, id string) (*Student, error)

	// GetByAuthUserID возвращает студента по идентификатору провайдера
	// аутентификации. Возвращает ErrStudentNotFound, если не найден.
	GetByAuthUserID(ctx context.Context, authUserID string) (*Student, error)

	// Update обновляет данные студента.
	// Возвращает ErrStudentNotFound, если студент не найден.
	Update(ctx context.Context, student *Student) error

	// GetAll возвращает всех студентов с пагинацией.
	GetAll(ctx context.Context, opts ListOptions) ([]*Student, error)

	// Count возвращает общее количество студентов.
	Count(ctx context.Context) (int, error)
}

// LedgerRepository определяет операции над XP-леджером.
// Леджер append-only: записи не изменяются и не удаляются.
type LedgerRepository interface {
	// Append добавляет запись в леджер.
	Append(ctx context.Context, tx *ExperienceTransaction) error

	// ListByStudent возвращает записи студента (от новых к старым).
	ListByStudent(ctx context.Context, studentID string, opts ListOptions) ([]*ExperienceTransaction, error)

	// SumByStudent возвращает сумму начислений студента.
	// Используется для сверки с TotalXP.
	SumByStudent(ctx context.Context, studentID string) (int, error)
}
