package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// One sorted set per category holds the hot ranking; a hash keeps the
// display payload per member. PostgreSQL remains the source of truth;
// the cache is rebuilt wholesale and read for top-N queries.
//
// The ZSET score is the category score. Redis breaks score ties
// lexicographically by member, which differs from the canonical
// earlier-update-wins order, so tie-sensitive reads fall back to
// PostgreSQL; the cache serves the common hot path.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLeaderboardEmpty is returned when the cached category has no entries.
	ErrLeaderboardEmpty = errors.New("leaderboard_cache: leaderboard is empty")

	// ErrStudentNotInLeaderboard is returned when the student is not cached.
	ErrStudentNotInLeaderboard = errors.New("leaderboard_cache: student not in leaderboard")
)

// DefaultLeaderboardTTL is how long a rebuilt category survives without
// a refresh.
const DefaultLeaderboardTTL = 10 * time.Minute

// CachedEntry is the display payload stored per member.
type CachedEntry struct {
	StudentID   string    `json:"student_id"`
	DisplayName string    `json:"display_name"`
	Score       float64   `json:"score"`
	Rank        int       `json:"rank"`
	RankChange  int       `json:"rank_change"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LeaderboardCache caches category rankings in Redis sorted sets.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	return &LeaderboardCache{cache: cache, ttl: ttl}
}

func zsetKey(category leaderboard.Category) string {
	return fmt.Sprintf("leaderboard:%s:scores", category)
}

func entriesKey(category leaderboard.Category) string {
	return fmt.Sprintf("leaderboard:%s:entries", category)
}

// Rebuild replaces the cached category with the given entries. Entries
// must already be in canonical ranking order.
func (c *LeaderboardCache) Rebuild(ctx context.Context, category leaderboard.Category, entries []*leaderboard.Entry) error {
	client := c.cache.Client()
	zKey := zsetKey(category)
	hKey := entriesKey(category)

	pipe := client.TxPipeline()
	pipe.Del(ctx, zKey, hKey)

	for _, e := range entries {
		payload, err := json.Marshal(CachedEntry{
			StudentID:   e.StudentID,
			DisplayName: e.DisplayName,
			Score:       e.Score,
			Rank:        int(e.Rank),
			RankChange:  int(e.RankChange),
			UpdatedAt:   e.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("leaderboard_cache: marshal entry: %w", err)
		}

		pipe.ZAdd(ctx, zKey, redis.Z{Score: e.Score, Member: e.StudentID})
		pipe.HSet(ctx, hKey, e.StudentID, payload)
	}

	pipe.Expire(ctx, zKey, c.ttl)
	pipe.Expire(ctx, hKey, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard_cache: rebuild: %w", err)
	}

	return nil
}

// UpdateScore upserts one member's score without a full rebuild. The
// display payload keeps its previous rank until the next rebuild.
func (c *LeaderboardCache) UpdateScore(ctx context.Context, category leaderboard.Category, entry *leaderboard.Entry) error {
	client := c.cache.Client()

	payload, err := json.Marshal(CachedEntry{
		StudentID:   entry.StudentID,
		DisplayName: entry.DisplayName,
		Score:       entry.Score,
		Rank:        int(entry.Rank),
		RankChange:  int(entry.RankChange),
		UpdatedAt:   entry.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("leaderboard_cache: marshal entry: %w", err)
	}

	pipe := client.TxPipeline()
	pipe.ZAdd(ctx, zsetKey(category), redis.Z{Score: entry.Score, Member: entry.StudentID})
	pipe.HSet(ctx, entriesKey(category), entry.StudentID, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard_cache: update score: %w", err)
	}

	return nil
}

// GetTop returns the top-limit cached entries, highest score first.
func (c *LeaderboardCache) GetTop(ctx context.Context, category leaderboard.Category, limit int) ([]CachedEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	client := c.cache.Client()
	ids, err := client.ZRevRange(ctx, zsetKey(category), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard_cache: get top: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrLeaderboardEmpty
	}

	raw, err := client.HMGet(ctx, entriesKey(category), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard_cache: get entries: %w", err)
	}

	entries := make([]CachedEntry, 0, len(ids))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e CachedEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("leaderboard_cache: unmarshal entry: %w", err)
		}
		// Rank from the live ZSET order, not the stale payload.
		e.Rank = i + 1
		entries = append(entries, e)
	}

	return entries, nil
}

// GetStudentRank returns the cached 1-based rank of a student.
func (c *LeaderboardCache) GetStudentRank(ctx context.Context, category leaderboard.Category, studentID string) (int, error) {
	rank, err := c.cache.Client().ZRevRank(ctx, zsetKey(category), studentID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrStudentNotInLeaderboard
		}
		return 0, fmt.Errorf("leaderboard_cache: get rank: %w", err)
	}

	return int(rank) + 1, nil
}

// Invalidate drops the cached category.
func (c *LeaderboardCache) Invalidate(ctx context.Context, category leaderboard.Category) error {
	return c.cache.Delete(ctx, zsetKey(category), entriesKey(category))
}
