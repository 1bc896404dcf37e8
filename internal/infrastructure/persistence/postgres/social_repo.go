package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/social"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTRIBUTION REPOSITORY IMPLEMENTATION
// The log is append-only; counters aggregate over it at read time.
// Unique recipients are deduplicated in SQL for the help counter.
// ══════════════════════════════════════════════════════════════════════════════

// ContributionRepository implements social.Repository for PostgreSQL.
type ContributionRepository struct {
	db Querier
}

// NewContributionRepository creates a new ContributionRepository.
func NewContributionRepository(conn *Connection) *ContributionRepository {
	return &ContributionRepository{db: conn}
}

// Append adds a contribution record.
func (r *ContributionRepository) Append(ctx context.Context, c *social.Contribution) error {
	query := `
		INSERT INTO contributions (id, student_id, type, recipient_id, subject, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.StudentID,
		string(c.Type),
		nullableString(c.RecipientID),
		nullableString(c.Subject),
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append contribution: %w", err)
	}

	return nil
}

// ListByStudent returns a student's contributions, newest first.
func (r *ContributionRepository) ListByStudent(ctx context.Context, studentID string) ([]*social.Contribution, error) {
	query := `
		SELECT id, student_id, type, recipient_id, subject, created_at
		FROM contributions
		WHERE student_id = $1
		ORDER BY created_at DESC
	`

	return r.queryContributions(ctx, query, studentID)
}

// ListSince returns all contributions after the timestamp.
func (r *ContributionRepository) ListSince(ctx context.Context, since time.Time) ([]*social.Contribution, error) {
	query := `
		SELECT id, student_id, type, recipient_id, subject, created_at
		FROM contributions
		WHERE created_at > $1
		ORDER BY created_at ASC
	`

	return r.queryContributions(ctx, query, since)
}

// GetCounters returns aggregated counters. Helping the same peer twice
// counts once.
func (r *ContributionRepository) GetCounters(ctx context.Context, studentID string) (social.Counters, error) {
	query := `
		SELECT
			COUNT(DISTINCT recipient_id) FILTER (WHERE type = 'help'),
			COUNT(*) FILTER (WHERE type = 'note_shared')
		FROM contributions
		WHERE student_id = $1
	`

	counters := social.Counters{StudentID: studentID}
	if err := r.db.QueryRow(ctx, query, studentID).Scan(&counters.PeersHelped, &counters.NotesShared); err != nil {
		return social.Counters{}, fmt.Errorf("failed to aggregate counters: %w", err)
	}

	return counters, nil
}

func (r *ContributionRepository) queryContributions(ctx context.Context, query string, args ...interface{}) ([]*social.Contribution, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*social.Contribution
	for rows.Next() {
		var (
			c           social.Contribution
			cType       string
			recipientID *string
			subject     *string
		)
		if err := rows.Scan(&c.ID, &c.StudentID, &cType, &recipientID, &subject, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.Type = social.ContributionType(cType)
		if recipientID != nil {
			c.RecipientID = *recipientID
		}
		if subject != nil {
			c.Subject = *subject
		}
		contributions = append(contributions, &c)
	}

	return contributions, rows.Err()
}
