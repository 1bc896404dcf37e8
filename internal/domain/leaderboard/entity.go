// Package leaderboard содержит доменную модель рейтингов StudyPulse.
// Лидерборд ведётся отдельно по каждой категории (посещаемость, оценки,
// XP, стрики): на пару (студент, категория) существует ровно одна запись
// текущего периода, которая перезаписывается, а не накапливается.
package leaderboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Category определяет, по какой метрике строится рейтинг.
type Category string

const (
	// CategoryAttendance - процент посещаемости.
	CategoryAttendance Category = "attendance"
	// CategoryGrades - CGPA.
	CategoryGrades Category = "grades"
	// CategoryXP - суммарный XP.
	CategoryXP Category = "xp"
	// CategoryStreak - длина текущего стрика.
	CategoryStreak Category = "streak"
)

// AllCategories возвращает все категории рейтинга.
func AllCategories() []Category {
	return []Category{CategoryAttendance, CategoryGrades, CategoryXP, CategoryStreak}
}

// IsValid проверяет, что категория известна.
func (c Category) IsValid() bool {
	switch c {
	case CategoryAttendance, CategoryGrades, CategoryXP, CategoryStreak:
		return true
	}
	return false
}

// PeriodCurrent - единственный поддерживаемый период рейтинга.
// Исторические периоды хранятся снапшотами, а не записями.
const PeriodCurrent = "current"

// Rank представляет позицию студента в рейтинге, начиная с 1.
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 возвращает true, если студент в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// RankChange представляет изменение позиции с прошлого пересчёта.
// Положительное значение = подъём, отрицательное = падение.
type RankChange int

// Direction возвращает направление изменения.
func (rc RankChange) Direction() RankDirection {
	switch {
	case rc > 0:
		return RankDirectionUp
	case rc < 0:
		return RankDirectionDown
	default:
		return RankDirectionStable
	}
}

// Abs возвращает абсолютное значение изменения.
func (rc RankChange) Abs() int {
	if rc < 0 {
		return int(-rc)
	}
	return int(rc)
}

// String возвращает строковое представление изменения.
func (rc RankChange) String() string {
	switch {
	case rc > 0:
		return fmt.Sprintf("+%d", rc)
	case rc < 0:
		return fmt.Sprintf("%d", rc)
	default:
		return "±0"
	}
}

// RankDirection определяет направление изменения ранга.
type RankDirection string

const (
	// RankDirectionUp - студент поднялся в рейтинге.
	RankDirectionUp RankDirection = "up"
	// RankDirectionDown - студент опустился в рейтинге.
	RankDirectionDown RankDirection = "down"
	// RankDirectionStable - позиция не изменилась.
	RankDirectionStable RankDirection = "stable"
	// RankDirectionNew - новый участник в рейтинге.
	RankDirectionNew RankDirection = "new"
)

// Emoji возвращает эмодзи для отображения направления.
func (rd RankDirection) Emoji() string {
	switch rd {
	case RankDirectionUp:
		return "🔼"
	case RankDirectionDown:
		return "🔽"
	case RankDirectionNew:
		return "🆕"
	default:
		return "➖"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет одну запись рейтинга текущего периода.
// Единица хранения: (студент, категория) → счёт. Обновляется
// upsert-ом при каждом пересчёте метрики студента.
type Entry struct {
	// ID - идентификатор записи.
	ID string

	// StudentID - внутренний идентификатор студента.
	StudentID string

	// DisplayName - отображаемое имя, денормализовано для выдачи.
	DisplayName string

	// Category - категория рейтинга.
	Category Category

	// Score - значение метрики; семантика зависит от категории
	// (процент, CGPA, XP или длина стрика).
	Score float64

	// Period - всегда PeriodCurrent для живых записей.
	Period string

	// Rank - позиция, проставляется при чтении/пересчёте.
	Rank Rank

	// RankChange - изменение позиции с прошлого снапшота.
	RankChange RankChange

	// UpdatedAt - время последнего обновления счёта.
	// Используется как tie-break: при равном счёте выше тот,
	// кто достиг его раньше.
	UpdatedAt time.Time
}

// NewEntry создаёт запись рейтинга с валидацией.
func NewEntry(id, studentID, displayName string, category Category, score float64) (*Entry, error) {
	if studentID == "" {
		return nil, shared.ErrInvalidStudentID
	}
	if !category.IsValid() {
		return nil, shared.ErrInvalidCategory
	}
	if score < 0 {
		return nil, shared.ErrInvalidScore
	}

	return &Entry{
		ID:          id,
		StudentID:   studentID,
		DisplayName: displayName,
		Category:    category,
		Score:       score,
		Period:      PeriodCurrent,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}

// UpdateScore перезаписывает счёт записи.
func (e *Entry) UpdateScore(score float64) error {
	if score < 0 {
		return shared.ErrInvalidScore
	}
	e.Score = score
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// Clone создаёт копию записи.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String возвращает строковое представление для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf(
		"Entry{Rank: %d, Student: %s, Category: %s, Score: %.2f}",
		e.Rank, e.StudentID, e.Category, e.Score,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Ranking представляет полный отсортированный рейтинг одной категории.
// Вспомогательная структура для пересчёта и снапшотов.
type Ranking struct {
	category Category
	entries  []*Entry
	byID     map[string]*Entry
}

// NewRanking создаёт пустой Ranking для категории.
func NewRanking(category Category) *Ranking {
	return &Ranking{
		category: category,
		entries:  make([]*Entry, 0),
		byID:     make(map[string]*Entry),
	}
}

// Category возвращает категорию рейтинга.
func (r *Ranking) Category() Category {
	return r.category
}

// Add добавляет запись в рейтинг (без автоматической сортировки).
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return shared.ErrLeaderboardNotFound
	}
	if _, exists := r.byID[entry.StudentID]; exists {
		return shared.ErrAlreadyExists
	}

	r.entries = append(r.entries, entry)
	r.byID[entry.StudentID] = entry
	return nil
}

// Sort сортирует записи по счёту (по убыванию) и присваивает ранги.
// Tie-break детерминированный: при равном счёте выше тот, чей счёт
// обновлялся раньше; при равном времени - по StudentID.
func (r *Ranking) Sort() {
	sort.SliceStable(r.entries, func(i, j int) bool {
		if r.entries[i].Score != r.entries[j].Score {
			return r.entries[i].Score > r.entries[j].Score
		}
		if !r.entries[i].UpdatedAt.Equal(r.entries[j].UpdatedAt) {
			return r.entries[i].UpdatedAt.Before(r.entries[j].UpdatedAt)
		}
		return r.entries[i].StudentID < r.entries[j].StudentID
	})

	// Одинаковый счёт у соседей не делит ранг: позиции строго
	// последовательные, порядок фиксирован tie-break-ом.
	for i, entry := range r.entries {
		entry.Rank = Rank(i + 1)
	}
}

// GetByID возвращает запись по ID студента.
func (r *Ranking) GetByID(studentID string) *Entry {
	return r.byID[studentID]
}

// Top возвращает топ-N записей.
func (r *Ranking) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]*Entry, n)
	copy(result, r.entries[:n])
	return result
}

// Count возвращает количество записей.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// Entries возвращает все записи в текущем порядке.
func (r *Ranking) Entries() []*Entry {
	result := make([]*Entry, len(r.entries))
	copy(result, r.entries)
	return result
}
