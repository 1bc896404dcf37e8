package student

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPERIENCE LEDGER
// Append-only журнал начислений XP. Ключевой инвариант системы:
// сумма Amount всех записей студента всегда равна Student.TotalXP.
// ══════════════════════════════════════════════════════════════════════════════

// Source определяет источник начисления XP.
type Source string

const (
	// SourceManual - ручное начисление (например, преподавателем).
	SourceManual Source = "manual"
	// SourceAttendance - отметка посещаемости.
	SourceAttendance Source = "attendance"
	// SourceGrade - внесённая оценка.
	SourceGrade Source = "grade"
	// SourceAssignment - сданное задание.
	SourceAssignment Source = "assignment"
	// SourceStreak - продление серии.
	SourceStreak Source = "streak"
	// SourceAchievement - разблокированный бейдж.
	SourceAchievement Source = "achievement"
	// SourceLogin - ежедневный вход.
	SourceLogin Source = "login"
)

// IsValid проверяет, что источник известен.
func (s Source) IsValid() bool {
	switch s {
	case SourceManual, SourceAttendance, SourceGrade, SourceAssignment,
		SourceStreak, SourceAchievement, SourceLogin:
		return true
	default:
		return false
	}
}

// ErrInvalidSource - неизвестный источник начисления.
var ErrInvalidSource = errors.New("invalid xp source")

// ErrInvalidAmount - нулевая или отрицательная сумма начисления.
var ErrInvalidAmount = errors.New("invalid xp amount: must be positive")

// ExperienceTransaction - одна запись XP-леджера. Создаётся один раз,
// никогда не изменяется и не удаляется.
type ExperienceTransaction struct {
	// ID - уникальный идентификатор записи (UUID).
	ID string

	// StudentID - идентификатор студента.
	StudentID string

	// Amount - начисленные очки. Всегда положительные: система не
	// отбирает заработанный опыт.
	Amount int

	// Reason - причина начисления в свободной форме ("quiz", "Unlocked First A+").
	Reason string

	// Source - типизированный источник начисления.
	Source Source

	// CreatedAt - время начисления.
	CreatedAt time.Time
}

// NewExperienceTransaction создаёт запись леджера с валидацией.
func NewExperienceTransaction(id, studentID string, amount int, reason string, source Source) (*ExperienceTransaction, error) {
	if id == "" || studentID == "" {
		return nil, errors.New("transaction id and student id are required")
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !source.IsValid() {
		return nil, ErrInvalidSource
	}

	return &ExperienceTransaction{
		ID:        id,
		StudentID: studentID,
		Amount:    amount,
		Reason:    reason,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SumAmounts возвращает сумму начислений. Используется для сверки
// леджера с TotalXP студента.
func SumAmounts(txs []*ExperienceTransaction) int {
	total := 0
	for _, tx := range txs {
		total += tx.Amount
	}
	return total
}
