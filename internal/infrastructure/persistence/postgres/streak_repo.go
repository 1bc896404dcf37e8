package postgres

import (
	"context"
	"fmt"

	"github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY IMPLEMENTATION
// The UNIQUE (student_id, streak_type) constraint collapses concurrent
// first marks of the day into a single row.
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository implements gamification.StreakRepository for PostgreSQL.
type StreakRepository struct {
	db Querier
}

// NewStreakRepository creates a new StreakRepository.
func NewStreakRepository(conn *Connection) *StreakRepository {
	return &StreakRepository{db: conn}
}

// newStreakRepositoryTx binds the repository to a transaction.
func newStreakRepositoryTx(q Querier) *StreakRepository {
	return &StreakRepository{db: q}
}

const streakColumns = `id, student_id, streak_type, current_streak,
	longest_streak, last_activity_date, created_at, updated_at`

// GetByStudentAndType returns the streak for a (student, type) pair.
func (r *StreakRepository) GetByStudentAndType(ctx context.Context, studentID string, streakType gamification.StreakType) (*gamification.Streak, error) {
	query := `SELECT ` + streakColumns + `
		FROM streaks
		WHERE student_id = $1 AND streak_type = $2`

	return r.scanStreak(r.db.QueryRow(ctx, query, studentID, string(streakType)))
}

// ListByStudent returns all of a student's streaks.
func (r *StreakRepository) ListByStudent(ctx context.Context, studentID string) ([]*gamification.Streak, error) {
	query := `SELECT ` + streakColumns + `
		FROM streaks
		WHERE student_id = $1
		ORDER BY streak_type`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}
	defer rows.Close()

	var streaks []*gamification.Streak
	for rows.Next() {
		s, err := r.scanStreak(rows)
		if err != nil {
			return nil, err
		}
		streaks = append(streaks, s)
	}

	return streaks, rows.Err()
}

// Create inserts a new streak row.
func (r *StreakRepository) Create(ctx context.Context, s *gamification.Streak) error {
	query := `
		INSERT INTO streaks (
			id, student_id, streak_type, current_streak,
			longest_streak, last_activity_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		s.ID,
		s.StudentID,
		string(s.Type),
		s.CurrentStreak,
		s.LongestStreak,
		s.LastActivityDate,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create streak: %w", err)
	}

	return nil
}

// Update updates an existing streak row.
func (r *StreakRepository) Update(ctx context.Context, s *gamification.Streak) error {
	query := `
		UPDATE streaks SET
			current_streak = $1,
			longest_streak = $2,
			last_activity_date = $3,
			updated_at = $4
		WHERE id = $5
	`

	tag, err := r.db.Exec(ctx, query,
		s.CurrentStreak,
		s.LongestStreak,
		s.LastActivityDate,
		s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStreakNotFound
	}

	return nil
}

func (r *StreakRepository) scanStreak(row rowScanner) (*gamification.Streak, error) {
	var (
		s          gamification.Streak
		streakType string
	)

	err := row.Scan(
		&s.ID,
		&s.StudentID,
		&streakType,
		&s.CurrentStreak,
		&s.LongestStreak,
		&s.LastActivityDate,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStreakNotFound
		}
		return nil, fmt.Errorf("failed to scan streak: %w", err)
	}

	s.Type = gamification.StreakType(streakType)
	return &s, nil
}
