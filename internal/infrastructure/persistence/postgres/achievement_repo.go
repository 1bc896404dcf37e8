package postgres

import (
	"context"
	"fmt"

	"github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// Uniqueness of (student_id, badge_type) is enforced by the database.
// CreateIfAbsent uses INSERT ... ON CONFLICT DO NOTHING, so the race
// between two checkers resolves to exactly one unlock.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements gamification.AchievementRepository for PostgreSQL.
type AchievementRepository struct {
	db Querier
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{db: conn}
}

// newAchievementRepositoryTx binds the repository to a transaction.
func newAchievementRepositoryTx(q Querier) *AchievementRepository {
	return &AchievementRepository{db: q}
}

const achievementColumns = `id, student_id, badge_type, title, description,
	icon, rarity, xp_earned, unlock_context, unlocked_at`

// GetByStudentAndBadge returns an achievement for a (student, badge) pair.
func (r *AchievementRepository) GetByStudentAndBadge(ctx context.Context, studentID string, badgeType gamification.BadgeType) (*gamification.Achievement, error) {
	query := `SELECT ` + achievementColumns + `
		FROM achievements
		WHERE student_id = $1 AND badge_type = $2`

	return r.scanAchievement(r.db.QueryRow(ctx, query, studentID, string(badgeType)))
}

// ListByStudent returns a student's achievements, newest first.
func (r *AchievementRepository) ListByStudent(ctx context.Context, studentID string) ([]*gamification.Achievement, error) {
	query := `SELECT ` + achievementColumns + `
		FROM achievements
		WHERE student_id = $1
		ORDER BY unlocked_at DESC`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []*gamification.Achievement
	for rows.Next() {
		a, err := r.scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}

	return achievements, rows.Err()
}

// CreateIfAbsent inserts an achievement unless the (student, badge) pair
// already exists. Returns false when the insert lost to an earlier unlock.
func (r *AchievementRepository) CreateIfAbsent(ctx context.Context, a *gamification.Achievement) (bool, error) {
	query := `
		INSERT INTO achievements (
			id, student_id, badge_type, title, description,
			icon, rarity, xp_earned, unlock_context, unlocked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (student_id, badge_type) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query,
		a.ID,
		a.StudentID,
		string(a.BadgeType),
		a.Title,
		a.Description,
		a.Icon,
		string(a.Rarity),
		a.XPEarned,
		a.Context,
		a.UnlockedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create achievement: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// CountByStudent returns the number of unlocked badges.
func (r *AchievementRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM achievements WHERE student_id = $1`
	if err := r.db.QueryRow(ctx, query, studentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count achievements: %w", err)
	}
	return count, nil
}

func (r *AchievementRepository) scanAchievement(row rowScanner) (*gamification.Achievement, error) {
	var (
		a         gamification.Achievement
		badgeType string
		rarity    string
	)

	err := row.Scan(
		&a.ID,
		&a.StudentID,
		&badgeType,
		&a.Title,
		&a.Description,
		&a.Icon,
		&rarity,
		&a.XPEarned,
		&a.Context,
		&a.UnlockedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan achievement: %w", err)
	}

	a.BadgeType = gamification.BadgeType(badgeType)
	a.Rarity = gamification.Rarity(rarity)
	return &a, nil
}
