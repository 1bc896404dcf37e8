package leaderboard

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot представляет состояние рейтинга одной категории в момент
// пересчёта. Снапшоты используются для:
//   - расчёта RankChange между пересчётами;
//   - детектора "возвращений" (comeback): студент, выпавший из топа
//     и вернувшийся, кандидат на бейдж comeback_king.
type Snapshot struct {
	// ID - идентификатор снапшота.
	ID string

	// Category - категория рейтинга.
	Category Category

	// Entries - записи в порядке рангов на момент снапшота.
	Entries []*Entry

	// byID - индекс для быстрого поиска.
	byID map[string]*Entry

	// CreatedAt - время создания снапшота.
	CreatedAt time.Time
}

// NewSnapshot создаёт снапшот из отсортированного Ranking.
func NewSnapshot(id string, ranking *Ranking) *Snapshot {
	entries := ranking.Entries()
	byID := make(map[string]*Entry, len(entries))
	for _, e := range entries {
		byID[e.StudentID] = e
	}

	return &Snapshot{
		ID:        id,
		Category:  ranking.Category(),
		Entries:   entries,
		byID:      byID,
		CreatedAt: time.Now().UTC(),
	}
}

// RestoreSnapshot восстанавливает снапшот из данных хранилища.
func RestoreSnapshot(id string, category Category, entries []*Entry, createdAt time.Time) *Snapshot {
	byID := make(map[string]*Entry, len(entries))
	for _, e := range entries {
		byID[e.StudentID] = e
	}
	return &Snapshot{
		ID:        id,
		Category:  category,
		Entries:   entries,
		byID:      byID,
		CreatedAt: createdAt,
	}
}

// GetRank возвращает ранг студента в снапшоте.
// Возвращает 0, если студент не найден.
func (s *Snapshot) GetRank(studentID string) Rank {
	if entry, ok := s.byID[studentID]; ok {
		return entry.Rank
	}
	return 0
}

// Contains проверяет, есть ли студент в снапшоте.
func (s *Snapshot) Contains(studentID string) bool {
	_, ok := s.byID[studentID]
	return ok
}

// Count возвращает количество записей.
func (s *Snapshot) Count() int {
	return len(s.Entries)
}

// IsEmpty возвращает true, если снапшот пуст.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Entries) == 0
}

// ComputeChanges проставляет RankChange записям ranking относительно
// предыдущего снапшота. Новички получают направление "new" через ранг 0
// в prev. Nil prev - все изменения нулевые.
func ComputeChanges(ranking *Ranking, prev *Snapshot) {
	if prev == nil {
		return
	}
	for _, entry := range ranking.Entries() {
		prevRank := prev.GetRank(entry.StudentID)
		if prevRank == 0 {
			entry.RankChange = 0
			continue
		}
		// Подъём = уменьшение номера позиции.
		entry.RankChange = RankChange(prevRank - entry.Rank)
	}
}

// Comebacks возвращает студентов, которые были в снапшоте before,
// отсутствовали в after и снова присутствуют в current. Кандидаты
// на бейдж comeback_king, финальную проверку делает application слой.
func Comebacks(before, after, current *Snapshot) []string {
	if before == nil || after == nil || current == nil {
		return nil
	}

	var ids []string
	for _, e := range current.Entries {
		if before.Contains(e.StudentID) && !after.Contains(e.StudentID) {
			ids = append(ids, e.StudentID)
		}
	}
	return ids
}
