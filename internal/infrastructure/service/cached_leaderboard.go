// Package service wires resilience and caching around the domain ports:
// circuit-broken Redis reads with PostgreSQL fallback and retried
// notification delivery.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	rediscache "github.com/studypulse/studypulse-backend/internal/infrastructure/persistence/redis"
	"github.com/studypulse/studypulse-backend/pkg/circuitbreaker"
)

// CachedLeaderboardRepository serves hot leaderboard reads from Redis and
// falls back to the wrapped PostgreSQL repository when the cache is cold,
// empty or failing. The Redis path sits behind a circuit breaker so a
// flapping cache cannot slow every request down; cache misses are not
// failures and do not trip it.
type CachedLeaderboardRepository struct {
	leaderboard.Repository

	cache   *rediscache.LeaderboardCache
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewCachedLeaderboardRepository wraps repo with the Redis cache.
func NewCachedLeaderboardRepository(
	repo leaderboard.Repository,
	cache *rediscache.LeaderboardCache,
	logger *slog.Logger,
) *CachedLeaderboardRepository {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := circuitbreaker.New("leaderboard-cache",
		circuitbreaker.WithFailureThreshold(5),
		circuitbreaker.WithTimeout(30*time.Second),
		circuitbreaker.WithIsFailure(func(err error) bool {
			// Empty cache and absent members are misses, not outages.
			return !errors.Is(err, rediscache.ErrLeaderboardEmpty) &&
				!errors.Is(err, rediscache.ErrStudentNotInLeaderboard)
		}),
	)

	return &CachedLeaderboardRepository{
		Repository: repo,
		cache:      cache,
		breaker:    breaker,
		logger:     logger,
	}
}

// GetTop reads the top-limit entries from the cache, falling back to
// PostgreSQL on any miss or cache failure.
func (r *CachedLeaderboardRepository) GetTop(ctx context.Context, category leaderboard.Category, limit int) ([]*leaderboard.Entry, error) {
	var cached []rediscache.CachedEntry
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var cerr error
		cached, cerr = r.cache.GetTop(ctx, category, limit)
		return cerr
	})
	if err != nil {
		r.logCacheMiss("get_top", category, err)
		return r.Repository.GetTop(ctx, category, limit)
	}

	entries := make([]*leaderboard.Entry, 0, len(cached))
	for _, c := range cached {
		entries = append(entries, &leaderboard.Entry{
			StudentID:   c.StudentID,
			DisplayName: c.DisplayName,
			Category:    category,
			Score:       c.Score,
			Period:      leaderboard.PeriodCurrent,
			Rank:        leaderboard.Rank(c.Rank),
			RankChange:  leaderboard.RankChange(c.RankChange),
			UpdatedAt:   c.UpdatedAt,
		})
	}
	return entries, nil
}

// GetStudentRank reads the student's position from the cache, falling
// back to PostgreSQL when the student is not cached.
func (r *CachedLeaderboardRepository) GetStudentRank(ctx context.Context, studentID string, category leaderboard.Category) (leaderboard.Rank, error) {
	var rank int
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var cerr error
		rank, cerr = r.cache.GetStudentRank(ctx, category, studentID)
		return cerr
	})
	if err != nil {
		if errors.Is(err, rediscache.ErrStudentNotInLeaderboard) {
			// The cache is authoritative only for cached members; the
			// student may still exist in PostgreSQL.
			return r.Repository.GetStudentRank(ctx, studentID, category)
		}
		r.logCacheMiss("get_student_rank", category, err)
		return r.Repository.GetStudentRank(ctx, studentID, category)
	}
	return leaderboard.Rank(rank), nil
}

// Upsert writes through to PostgreSQL and refreshes the cached score
// best effort.
func (r *CachedLeaderboardRepository) Upsert(ctx context.Context, entry *leaderboard.Entry) error {
	if err := r.Repository.Upsert(ctx, entry); err != nil {
		return err
	}

	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.cache.UpdateScore(ctx, entry.Category, entry)
	})
	if err != nil {
		r.logCacheMiss("update_score", entry.Category, err)
	}
	return nil
}

func (r *CachedLeaderboardRepository) logCacheMiss(op string, category leaderboard.Category, err error) {
	r.logger.Debug("leaderboard cache bypassed",
		slog.String("op", op),
		slog.String("category", string(category)),
		slog.String("reason", err.Error()),
	)
}
