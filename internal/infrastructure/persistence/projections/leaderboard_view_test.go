package projections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

func builtRanking(t *testing.T, scores map[string]float64) *leaderboard.Ranking {
	t.Helper()
	ranking := leaderboard.NewRanking(leaderboard.CategoryXP)
	for studentID, score := range scores {
		entry, err := leaderboard.NewEntry("e-"+studentID, studentID, "Student "+studentID, leaderboard.CategoryXP, score)
		require.NoError(t, err)
		require.NoError(t, ranking.Add(entry))
	}
	ranking.Sort()
	return ranking
}

func TestLeaderboardView_ReplaceAndRead(t *testing.T) {
	view := NewLeaderboardView()

	assert.Nil(t, view.Top(leaderboard.CategoryXP, 10))
	assert.Zero(t, view.Rank(leaderboard.CategoryXP, "s1"))
	assert.Zero(t, view.Count(leaderboard.CategoryXP))

	view.Replace(leaderboard.CategoryXP, builtRanking(t, map[string]float64{
		"s1": 300,
		"s2": 900,
		"s3": 500,
	}))

	top := view.Top(leaderboard.CategoryXP, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "s2", top[0].StudentID)
	assert.Equal(t, "s3", top[1].StudentID)

	assert.Equal(t, leaderboard.Rank(1), view.Rank(leaderboard.CategoryXP, "s2"))
	assert.Equal(t, leaderboard.Rank(3), view.Rank(leaderboard.CategoryXP, "s1"))
	assert.Zero(t, view.Rank(leaderboard.CategoryXP, "missing"))
	assert.Equal(t, 3, view.Count(leaderboard.CategoryXP))
	assert.False(t, view.LastUpdated().IsZero())
}

func TestLeaderboardView_VersionAdvances(t *testing.T) {
	view := NewLeaderboardView()
	v0 := view.Version()

	view.Replace(leaderboard.CategoryXP, builtRanking(t, map[string]float64{"s1": 100}))
	v1 := view.Version()
	assert.Greater(t, v1, v0)

	// Rebuild events bump the version for cache consumers.
	assert.Equal(t, shared.EventLeaderboardRebuilt, view.EventType())
	require.NoError(t, view.Handle(shared.NewLeaderboardRebuiltEvent("xp", 1)))
	assert.Greater(t, view.Version(), v1)
}
