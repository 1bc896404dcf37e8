// Package student содержит доменную модель студента StudyPulse.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package student

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// XP представляет накопленные очки опыта студента.
type XP int

// IsValid проверяет, что XP неотрицательный.
func (x XP) IsValid() bool {
	return x >= 0
}

// Int возвращает значение как int.
func (x XP) Int() int {
	return int(x)
}

// Add складывает XP.
func (x XP) Add(delta int) XP {
	return XP(int(x) + delta)
}

// Program представляет учебную программу студента (например, "btech-cse").
type Program string

// IsValid проверяет корректность программы.
func (p Program) IsValid() bool {
	s := string(p)
	return len(s) >= 2 && len(s) <= 50 && !strings.ContainsAny(s, " \t\n\r")
}

// String возвращает строковое представление программы.
func (p Program) String() string {
	return string(p)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student - центральная сущность системы. Ровно одна запись на
// аутентифицированного пользователя; создаётся при первом успешном
// callback от провайдера аутентификации.
//
// Поля TotalXP и Level изменяются только оркестратором геймификации.
// Level - производное от TotalXP значение, хранится для быстрого чтения.
type Student struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// AuthUserID - идентификатор пользователя у hosted-провайдера аутентификации.
	AuthUserID string

	// Email - адрес электронной почты.
	Email string

	// DisplayName - отображаемое имя.
	DisplayName string

	// Program - учебная программа.
	Program Program

	// CurrentSemester - текущий семестр (1-12).
	CurrentSemester int

	// TotalXP - накопленные очки опыта. Инвариант: равно сумме всех
	// записей XP-леджера студента.
	TotalXP XP

	// Level - уровень, производный от TotalXP.
	Level int

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidAuthUserID - пустой идентификатор провайдера аутентификации.
	ErrInvalidAuthUserID = errors.New("invalid auth user id: must be non-empty")

	// ErrInvalidEmail - невалидный email.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidXP - невалидное значение XP.
	ErrInvalidXP = errors.New("invalid xp: must be non-negative")

	// ErrInvalidProgram - невалидная программа.
	ErrInvalidProgram = errors.New("invalid program: must be 2-50 chars without whitespace")

	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrInvalidSemester - семестр вне диапазона 1-12.
	ErrInvalidSemester = errors.New("invalid semester: must be between 1 and 12")

	// ErrStudentNotFound - студент не найден.
	ErrStudentNotFound = errors.New("student not found")

	// ErrStudentAlreadyExists - студент уже существует.
	ErrStudentAlreadyExists = errors.New("student already exists")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewStudentParams содержит параметры для создания нового студента.
type NewStudentParams struct {
	ID          string
	AuthUserID  string
	Email       string
	DisplayName string
	Program     Program
	Semester    int
}

// NewStudent создаёт нового студента с валидацией всех полей.
// Новый студент начинает с TotalXP = 0 и Level = 1.
func NewStudent(params NewStudentParams) (*Student, error) {
	if params.ID == "" {
		return nil, errors.New("student id is required")
	}

	if params.AuthUserID == "" {
		return nil, ErrInvalidAuthUserID
	}

	if !strings.Contains(params.Email, "@") {
		return nil, ErrInvalidEmail
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	if !params.Program.IsValid() {
		return nil, ErrInvalidProgram
	}

	semester := params.Semester
	if semester == 0 {
		semester = 1
	}
	if semester < 1 || semester > 12 {
		return nil, ErrInvalidSemester
	}

	now := time.Now().UTC()

	return &Student{
		ID:              params.ID,
		AuthUserID:      params.AuthUserID,
		Email:           params.Email,
		DisplayName:     displayName,
		Program:         params.Program,
		CurrentSemester: semester,
		TotalXP:         0,
		Level:           1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// ApplyAward применяет начисление XP и новый уровень к сущности.
// Возвращает ошибку, если сумма делает TotalXP отрицательным.
// Вызывается только оркестратором, вместе с записью в леджер.
func (s *Student) ApplyAward(amount int, newLevel int) error {
	newTotal := s.TotalXP.Add(amount)
	if !newTotal.IsValid() {
		return ErrInvalidXP
	}

	s.TotalXP = newTotal
	s.Level = newLevel
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// AdvanceSemester переводит студента на следующий семестр.
func (s *Student) AdvanceSemester() error {
	if s.CurrentSemester >= 12 {
		return ErrInvalidSemester
	}
	s.CurrentSemester++
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Rename обновляет отображаемое имя.
func (s *Student) Rename(displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return ErrInvalidDisplayName
	}
	s.DisplayName = displayName
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// String возвращает строковое представление студента для логирования.
func (s *Student) String() string {
	return fmt.Sprintf(
		"Student{ID: %s, Name: %s, XP: %d, Level: %d}",
		s.ID, s.DisplayName, s.TotalXP, s.Level,
	)
}

// Clone создаёт копию студента.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}

	clone := *s
	return &clone
}
