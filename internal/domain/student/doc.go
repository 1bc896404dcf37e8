// Package student содержит доменную модель студента StudyPulse.
//
// Это ядро бизнес-логики системы. Пакет определяет:
//
//   - Сущности (Entities): Student, ExperienceTransaction
//   - Value Objects: XP, Program
//   - Интерфейсы репозиториев: Repository, LedgerRepository
//
// # Архитектурные принципы
//
// Пакет следует принципам Clean Architecture и DDD:
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - определяет интерфейсы, которые реализуются в infrastructure
//  3. Rich Domain Model - бизнес-логика инкапсулирована в сущностях
//
// # Инвариант XP-леджера
//
// Сумма всех ExperienceTransaction студента всегда равна его TotalXP.
// Поэтому начисление XP и запись в леджер применяются строго атомарно -
// оркестратор геймификации использует для этого UnitOfWork.
//
// # Пример использования
//
//	student, err := NewStudent(NewStudentParams{
//	    ID:          uuid.New().String(),
//	    AuthUserID:  "provider-uid",
//	    Email:       "student@college.edu",
//	    DisplayName: "Имя Студента",
//	    Program:     Program("btech-cse"),
//	})
//	if err != nil {
//	    return err
//	}
//
//	// Начисление XP (через оркестратор, не напрямую)
//	tx := NewExperienceTransaction(student.ID, 250, "quiz", SourceManual)
//	student.ApplyAward(tx.Amount, newLevel)
package student
