// Package projections implements read models for CQRS pattern.
// Projections are denormalized views optimized for fast reads.
// They are updated asynchronously when domain events occur.
package projections

import (
	"sync"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD VIEW - Denormalized Read Model
// An in-memory mirror of the current rankings, kept fresh from
// LeaderboardUpdated events. Serves dashboard reads without touching
// PostgreSQL; the database stays the source of truth and the view is
// rebuilt from it on startup and on every scheduler rebuild.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardView holds one ranking per category behind a read lock.
type LeaderboardView struct {
	mu sync.RWMutex

	rankings map[leaderboard.Category]*leaderboard.Ranking

	// lastUpdated is the timestamp of the last applied change.
	lastUpdated time.Time

	// version increments on each update for cache invalidation.
	version uint64
}

// NewLeaderboardView creates an empty view.
func NewLeaderboardView() *LeaderboardView {
	return &LeaderboardView{
		rankings: make(map[leaderboard.Category]*leaderboard.Ranking),
	}
}

// Replace swaps in a freshly built ranking for a category.
func (v *LeaderboardView) Replace(category leaderboard.Category, ranking *leaderboard.Ranking) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.rankings[category] = ranking
	v.lastUpdated = time.Now().UTC()
	v.version++
}

// Top returns the top-limit entries of a category in ranking order.
func (v *LeaderboardView) Top(category leaderboard.Category, limit int) []*leaderboard.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ranking, ok := v.rankings[category]
	if !ok {
		return nil
	}
	return ranking.Top(limit)
}

// Rank returns a student's position, 0 when absent.
func (v *LeaderboardView) Rank(category leaderboard.Category, studentID string) leaderboard.Rank {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ranking, ok := v.rankings[category]
	if !ok {
		return 0
	}
	entry := ranking.GetByID(studentID)
	if entry == nil {
		return 0
	}
	return entry.Rank
}

// Count returns the number of participants in a category.
func (v *LeaderboardView) Count(category leaderboard.Category) int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ranking, ok := v.rankings[category]
	if !ok {
		return 0
	}
	return ranking.Count()
}

// Version returns the current view version.
func (v *LeaderboardView) Version() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// LastUpdated returns when the view last changed.
func (v *LeaderboardView) LastUpdated() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastUpdated
}

// EventType returns the event this projection follows.
func (v *LeaderboardView) EventType() shared.EventType {
	return shared.EventLeaderboardRebuilt
}

// Handle marks the view stale on a rebuild event; the scheduler calls
// Replace with fresh rankings right after publishing it, so the handler
// only bumps the version for cache consumers.
func (v *LeaderboardView) Handle(event shared.Event) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.version++
	return nil
}
