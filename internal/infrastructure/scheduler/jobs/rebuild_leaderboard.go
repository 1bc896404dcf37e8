// Package jobs contains implementations of scheduled jobs for StudyPulse.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache is the hot-path cache the rebuild refreshes.
type LeaderboardCache interface {
	Rebuild(ctx context.Context, category leaderboard.Category, entries []*leaderboard.Entry) error
}

// RankingView is the in-memory read projection the rebuild replaces.
type RankingView interface {
	Replace(category leaderboard.Category, ranking *leaderboard.Ranking)
}

// RebuildLeaderboardJob recomputes every category ranking, compares it
// against the previous snapshot to produce rank deltas, persists a new
// snapshot and refreshes the Redis cache and the in-memory projection.
type RebuildLeaderboardJob struct {
	repo      leaderboard.Repository
	cache     LeaderboardCache
	view      RankingView
	publisher shared.EventPublisher
	logger    *slog.Logger
	config    RebuildLeaderboardConfig

	lastRebuildStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// Categories to rebuild; empty means all.
	Categories []leaderboard.Category

	// SnapshotRetentionDays is how long to keep old snapshots.
	SnapshotRetentionDays int

	// Timeout is the maximum duration for one full rebuild.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		Categories:            nil, // all
		SnapshotRetentionDays: 7,
		Timeout:               5 * time.Minute,
	}
}

// RebuildStats contains statistics from one rebuild run.
type RebuildStats struct {
	StartedAt           time.Time
	CompletedAt         time.Time
	Duration            time.Duration
	CategoriesProcessed int
	EntriesRanked       int
	SnapshotsCreated    int
	SnapshotsPruned     int
	Errors              []error
}

// NewRebuildLeaderboardJob creates the job.
func NewRebuildLeaderboardJob(
	repo leaderboard.Repository,
	cache LeaderboardCache,
	view RankingView,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	return &RebuildLeaderboardJob{
		repo:      repo,
		cache:     cache,
		view:      view,
		publisher: publisher,
		logger:    logger,
		config:    config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable job description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Recomputes category rankings, snapshots them and refreshes caches"
}

// Run executes one rebuild across all configured categories.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	stats := &RebuildStats{StartedAt: time.Now().UTC()}
	defer func() {
		stats.CompletedAt = time.Now().UTC()
		stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
		j.lastRebuildStats.Store(stats)
	}()

	categories := j.config.Categories
	if len(categories) == 0 {
		categories = leaderboard.AllCategories()
	}

	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.rebuildCategory(ctx, category, stats); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("category rebuild failed",
				slog.String("category", string(category)),
				slog.String("error", err.Error()),
			)
			continue
		}
		stats.CategoriesProcessed++
	}

	if j.config.SnapshotRetentionDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -j.config.SnapshotRetentionDays)
		pruned, err := j.repo.DeleteOldSnapshots(ctx, cutoff)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("prune snapshots: %w", err))
		} else {
			stats.SnapshotsPruned = pruned
		}
	}

	j.logger.Info("leaderboard rebuild complete",
		slog.Int("categories", stats.CategoriesProcessed),
		slog.Int("entries", stats.EntriesRanked),
		slog.Int("errors", len(stats.Errors)),
		slog.Duration("duration", time.Since(stats.StartedAt)),
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rebuild finished with %d errors: %v", len(stats.Errors), stats.Errors[0])
	}
	return nil
}

func (j *RebuildLeaderboardJob) rebuildCategory(ctx context.Context, category leaderboard.Category, stats *RebuildStats) error {
	entries, err := j.repo.ListAll(ctx, category)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	ranking := leaderboard.NewRanking(category)
	for _, entry := range entries {
		if err := ranking.Add(entry); err != nil {
			return fmt.Errorf("add entry %s: %w", entry.StudentID, err)
		}
	}
	ranking.Sort()
	stats.EntriesRanked += ranking.Count()

	prev, err := j.repo.GetLatestSnapshot(ctx, category)
	if err != nil && !errors.Is(err, shared.ErrLeaderboardNotFound) {
		return fmt.Errorf("load previous snapshot: %w", err)
	}
	leaderboard.ComputeChanges(ranking, prev)

	changes := make(map[string]int, ranking.Count())
	for _, entry := range ranking.Entries() {
		changes[entry.StudentID] = int(entry.RankChange)
	}
	if err := j.repo.UpdateRankChanges(ctx, category, changes); err != nil {
		return fmt.Errorf("persist rank changes: %w", err)
	}

	snapshot := leaderboard.NewSnapshot(uuid.NewString(), ranking)
	if err := j.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	stats.SnapshotsCreated++

	if j.cache != nil {
		if err := j.cache.Rebuild(ctx, category, ranking.Entries()); err != nil {
			// Cache refresh is best effort; reads fall back to PostgreSQL.
			j.logger.Warn("leaderboard cache rebuild failed",
				slog.String("category", string(category)),
				slog.String("error", err.Error()),
			)
		}
	}
	if j.view != nil {
		j.view.Replace(category, ranking)
	}

	if j.publisher != nil {
		event := shared.NewLeaderboardRebuiltEvent(string(category), ranking.Count())
		if err := j.publisher.Publish(event); err != nil {
			j.logger.Warn("publish rebuilt event",
				slog.String("category", string(category)),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// LastRebuildStats returns statistics from the most recent run, nil before
// the first run completes.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	v := j.lastRebuildStats.Load()
	if v == nil {
		return nil
	}
	return v.(*RebuildStats)
}
