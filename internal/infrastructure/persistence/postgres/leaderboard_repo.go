package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// Upsert rides INSERT ... ON CONFLICT: the UNIQUE constraint over
// (student_id, category, period) turns concurrent duplicates into
// updates of the same row. Ranks are computed at read time.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	db Querier
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{db: conn}
}

// rankedColumns computes the rank in SQL so pagination stays consistent
// with the canonical order: score descending, earlier update wins ties,
// student id as the final tiebreak.
const rankedColumns = `id, student_id, display_name, category, score, period, rank_change, updated_at,
	RANK() OVER (ORDER BY score DESC, updated_at ASC, student_id ASC) AS rank`

// Upsert inserts or overwrites the score for a (student, category) pair.
func (r *LeaderboardRepository) Upsert(ctx context.Context, entry *leaderboard.Entry) error {
	query := `
		INSERT INTO leaderboard_entries (
			id, student_id, display_name, category, score, period, rank_change, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (student_id, category, period) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			score = EXCLUDED.score,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.StudentID,
		entry.DisplayName,
		string(entry.Category),
		entry.Score,
		entry.Period,
		int(entry.RankChange),
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert leaderboard entry: %w", err)
	}

	return nil
}

// GetByStudentAndCategory returns the entry for a (student, category) pair.
func (r *LeaderboardRepository) GetByStudentAndCategory(ctx context.Context, studentID string, category leaderboard.Category) (*leaderboard.Entry, error) {
	query := `
		SELECT id, student_id, display_name, category, score, period, rank_change, updated_at, rank
		FROM (
			SELECT ` + rankedColumns + `
			FROM leaderboard_entries
			WHERE category = $1 AND period = $2
		) ranked
		WHERE student_id = $3
	`

	entry, err := r.scanEntry(r.db.QueryRow(ctx, query, string(category), leaderboard.PeriodCurrent, studentID))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrLeaderboardNotFound
		}
		return nil, err
	}
	return entry, nil
}

// GetTop returns the top-limit entries of a category in ranking order.
func (r *LeaderboardRepository) GetTop(ctx context.Context, category leaderboard.Category, limit int) ([]*leaderboard.Entry, error) {
	query := `
		SELECT ` + rankedColumns + `
		FROM leaderboard_entries
		WHERE category = $1 AND period = $2
		ORDER BY score DESC, updated_at ASC, student_id ASC
		LIMIT $3
	`

	return r.queryEntries(ctx, query, string(category), leaderboard.PeriodCurrent, limit)
}

// ListAll returns all entries of a category in ranking order.
func (r *LeaderboardRepository) ListAll(ctx context.Context, category leaderboard.Category) ([]*leaderboard.Entry, error) {
	query := `
		SELECT ` + rankedColumns + `
		FROM leaderboard_entries
		WHERE category = $1 AND period = $2
		ORDER BY score DESC, updated_at ASC, student_id ASC
	`

	return r.queryEntries(ctx, query, string(category), leaderboard.PeriodCurrent)
}

// GetStudentRank returns the student's position, 0 when absent.
func (r *LeaderboardRepository) GetStudentRank(ctx context.Context, studentID string, category leaderboard.Category) (leaderboard.Rank, error) {
	query := `
		SELECT rank FROM (
			SELECT student_id,
				RANK() OVER (ORDER BY score DESC, updated_at ASC, student_id ASC) AS rank
			FROM leaderboard_entries
			WHERE category = $1 AND period = $2
		) ranked
		WHERE student_id = $3
	`

	var rank int
	err := r.db.QueryRow(ctx, query, string(category), leaderboard.PeriodCurrent, studentID).Scan(&rank)
	if err != nil {
		if IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get student rank: %w", err)
	}

	return leaderboard.Rank(rank), nil
}

// GetTotalCount returns the number of participants in a category.
func (r *LeaderboardRepository) GetTotalCount(ctx context.Context, category leaderboard.Category) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM leaderboard_entries WHERE category = $1 AND period = $2`
	if err := r.db.QueryRow(ctx, query, string(category), leaderboard.PeriodCurrent).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count leaderboard entries: %w", err)
	}
	return count, nil
}

// UpdateRankChanges writes recomputed rank deltas for a category.
func (r *LeaderboardRepository) UpdateRankChanges(ctx context.Context, category leaderboard.Category, changes map[string]int) error {
	query := `
		UPDATE leaderboard_entries
		SET rank_change = $1
		WHERE student_id = $2 AND category = $3 AND period = $4
	`

	for studentID, change := range changes {
		if _, err := r.db.Exec(ctx, query, change, studentID, string(category), leaderboard.PeriodCurrent); err != nil {
			return fmt.Errorf("failed to update rank change for %s: %w", studentID, err)
		}
	}
	return nil
}

// snapshotEntry is the JSONB shape of one snapshot row entry.
type snapshotEntry struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	DisplayName string    `json:"display_name"`
	Score       float64   `json:"score"`
	Rank        int       `json:"rank"`
	RankChange  int       `json:"rank_change"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SaveSnapshot stores a category snapshot.
func (r *LeaderboardRepository) SaveSnapshot(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	rows := make([]snapshotEntry, 0, len(snapshot.Entries))
	for _, e := range snapshot.Entries {
		rows = append(rows, snapshotEntry{
			ID:          e.ID,
			StudentID:   e.StudentID,
			DisplayName: e.DisplayName,
			Score:       e.Score,
			Rank:        int(e.Rank),
			RankChange:  int(e.RankChange),
			UpdatedAt:   e.UpdatedAt,
		})
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO leaderboard_snapshots (id, category, entries, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, snapshot.ID, string(snapshot.Category), payload, snapshot.CreatedAt); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// GetLatestSnapshot returns the most recent snapshot of a category.
func (r *LeaderboardRepository) GetLatestSnapshot(ctx context.Context, category leaderboard.Category) (*leaderboard.Snapshot, error) {
	query := `
		SELECT id, category, entries, created_at
		FROM leaderboard_snapshots
		WHERE category = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanSnapshot(r.db.QueryRow(ctx, query, string(category)))
}

// ListSnapshots returns snapshots of a category in a time window, newest first.
func (r *LeaderboardRepository) ListSnapshots(ctx context.Context, category leaderboard.Category, from, to time.Time) ([]*leaderboard.Snapshot, error) {
	query := `
		SELECT id, category, entries, created_at
		FROM leaderboard_snapshots
		WHERE category = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, string(category), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*leaderboard.Snapshot
	for rows.Next() {
		s, err := r.scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// DeleteOldSnapshots deletes snapshots older than the cutoff.
func (r *LeaderboardRepository) DeleteOldSnapshots(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM leaderboard_snapshots WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *LeaderboardRepository) scanEntry(row rowScanner) (*leaderboard.Entry, error) {
	var (
		e          leaderboard.Entry
		category   string
		rankChange int
		rank       int
	)

	err := row.Scan(
		&e.ID,
		&e.StudentID,
		&e.DisplayName,
		&category,
		&e.Score,
		&e.Period,
		&rankChange,
		&e.UpdatedAt,
		&rank,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
	}

	e.Category = leaderboard.Category(category)
	e.RankChange = leaderboard.RankChange(rankChange)
	e.Rank = leaderboard.Rank(rank)
	return &e, nil
}

func (r *LeaderboardRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*leaderboard.Entry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard entries: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.Entry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *LeaderboardRepository) scanSnapshot(row rowScanner) (*leaderboard.Snapshot, error) {
	var (
		id        string
		category  string
		payload   []byte
		createdAt time.Time
	)

	if err := row.Scan(&id, &category, &payload, &createdAt); err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLeaderboardNotFound
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	var stored []snapshotEntry
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	entries := make([]*leaderboard.Entry, 0, len(stored))
	for _, se := range stored {
		entries = append(entries, &leaderboard.Entry{
			ID:          se.ID,
			StudentID:   se.StudentID,
			DisplayName: se.DisplayName,
			Category:    leaderboard.Category(category),
			Score:       se.Score,
			Period:      leaderboard.PeriodCurrent,
			Rank:        leaderboard.Rank(se.Rank),
			RankChange:  leaderboard.RankChange(se.RankChange),
			UpdatedAt:   se.UpdatedAt,
		})
	}

	return leaderboard.RestoreSnapshot(id, leaderboard.Category(category), entries, createdAt), nil
}
