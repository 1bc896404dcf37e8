// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT RANK QUERY
// Получает позицию студента в категории лидерборда. Ключевой запрос
// для экрана профиля - показывает "где я нахожусь".
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentRankQuery содержит параметры запроса позиции студента.
type GetStudentRankQuery struct {
	// StudentID - внутренний ID студента.
	StudentID string

	// Category - категория рейтинга.
	Category leaderboard.Category
}

// Validate проверяет корректность параметров запроса.
func (q *GetStudentRankQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id must be provided")
	}
	if !q.Category.IsValid() {
		return shared.ErrInvalidCategory
	}
	return nil
}

// StudentRankDTO - позиция студента в рейтинге.
type StudentRankDTO struct {
	// StudentID - внутренний ID студента.
	StudentID string `json:"student_id"`

	// Category - категория рейтинга.
	Category leaderboard.Category `json:"category"`

	// Rank - позиция (0 = не участвует в категории).
	Rank int `json:"rank"`

	// Score - счёт в категории.
	Score float64 `json:"score"`

	// RankChange - изменение позиции с прошлого снимка.
	RankChange int `json:"rank_change"`

	// TotalParticipants - число участников категории.
	TotalParticipants int `json:"total_participants"`

	// Percentile - доля участников не выше студента (0-100).
	Percentile float64 `json:"percentile"`

	// GeneratedAt - время формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStudentRankHandler обрабатывает запрос позиции студента.
type GetStudentRankHandler struct {
	leaderboardRepo leaderboard.Repository
}

// NewGetStudentRankHandler создаёт новый обработчик.
func NewGetStudentRankHandler(leaderboardRepo leaderboard.Repository) *GetStudentRankHandler {
	return &GetStudentRankHandler{leaderboardRepo: leaderboardRepo}
}

// Handle выполняет запрос. Отсутствие студента в категории не является
// ошибкой: возвращается нулевой ранг.
func (h *GetStudentRankHandler) Handle(ctx context.Context, q GetStudentRankQuery) (*StudentRankDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	dto := &StudentRankDTO{
		StudentID:   q.StudentID,
		Category:    q.Category,
		GeneratedAt: time.Now().UTC(),
	}

	rank, err := h.leaderboardRepo.GetStudentRank(ctx, q.StudentID, q.Category)
	if err != nil {
		return nil, fmt.Errorf("get student rank: %w", err)
	}
	dto.Rank = int(rank)

	totalCount, err := h.leaderboardRepo.GetTotalCount(ctx, q.Category)
	if err != nil {
		return nil, fmt.Errorf("get student rank: %w", err)
	}
	dto.TotalParticipants = totalCount

	if dto.Rank > 0 && totalCount > 0 {
		dto.Percentile = float64(totalCount-dto.Rank+1) / float64(totalCount) * 100
	}

	if dto.Rank > 0 {
		entry, err := h.leaderboardRepo.GetByStudentAndCategory(ctx, q.StudentID, q.Category)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("get student rank: %w", err)
			}
		} else {
			dto.Score = entry.Score
			dto.RankChange = int(entry.RankChange)
		}
	}

	return dto, nil
}
