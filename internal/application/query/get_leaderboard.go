// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
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
// GET LEADERBOARD QUERY
// Получает топ-N записей категории лидерборда. Порядок фиксирован:
// счёт по убыванию, при равенстве раньше обновлённый выше.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// Category - категория рейтинга (attendance, grades, xp, streak).
	Category leaderboard.Category

	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// Offset - смещение для пагинации.
	Offset int
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if !q.Category.IsValid() {
		return shared.ErrInvalidCategory
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	return nil
}

// LeaderboardEntryDTO - DTO для записи лидерборда (Data Transfer Object).
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	// StudentID - внутренний ID студента.
	StudentID string `json:"student_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// Score - счёт в категории.
	Score float64 `json:"score"`

	// RankChange - изменение позиции с прошлого снимка
	// (положительное = рост).
	RankChange int `json:"rank_change"`

	// UpdatedAt - время последнего обновления счёта.
	UpdatedAt time.Time `json:"updated_at"`
}

// GetLeaderboardResult - результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Category - категория рейтинга.
	Category leaderboard.Category `json:"category"`

	// Entries - записи текущей страницы.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalCount - общее число участников категории.
	TotalCount int `json:"total_count"`

	// GeneratedAt - время формирования ответа.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает запрос лидерборда.
type GetLeaderboardHandler struct {
	leaderboardRepo leaderboard.Repository
}

// NewGetLeaderboardHandler создаёт новый обработчик.
func NewGetLeaderboardHandler(leaderboardRepo leaderboard.Repository) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{leaderboardRepo: leaderboardRepo}
}

// Handle выполняет запрос.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	entries, err := h.leaderboardRepo.GetTop(ctx, q.Category, q.Offset+q.Limit)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			entries = nil
		} else {
			return nil, fmt.Errorf("get leaderboard: %w", err)
		}
	}

	totalCount, err := h.leaderboardRepo.GetTotalCount(ctx, q.Category)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	if q.Offset < len(entries) {
		entries = entries[q.Offset:]
	} else {
		entries = nil
	}
	if len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}

	dtos := make([]LeaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, LeaderboardEntryDTO{
			Rank:        int(e.Rank),
			StudentID:   e.StudentID,
			DisplayName: e.DisplayName,
			Score:       e.Score,
			RankChange:  int(e.RankChange),
			UpdatedAt:   e.UpdatedAt,
		})
	}

	return &GetLeaderboardResult{
		Category:    q.Category,
		Entries:     dtos,
		TotalCount:  totalCount,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
