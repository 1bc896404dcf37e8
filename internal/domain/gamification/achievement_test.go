package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeDetails(t *testing.T) {
	badge, err := BadgeDetails(BadgeWeekStreak)
	require.NoError(t, err)

	assert.Equal(t, "7-Day Streak", badge.Title)
	assert.Equal(t, RarityCommon, badge.Rarity)
	assert.Equal(t, 100, badge.XPEarned)
}

func TestBadgeDetails_UnknownIsError(t *testing.T) {
	_, err := BadgeDetails(BadgeType("golden_unicorn"))
	assert.Error(t, err)
}

func TestBadgeCatalog_Complete(t *testing.T) {
	assert.Equal(t, 13, CatalogSize())

	expected := map[BadgeType]int{
		BadgePerfectWeek:        50,
		BadgeWeekStreak:         100,
		BadgeMonthStreak:        500,
		BadgeCenturyStreak:      2000,
		BadgeFirstAPlus:         100,
		BadgeDeanList:           1000,
		BadgeAllRounder:         2500,
		BadgeNeverMissed:        300,
		BadgeEarlyBird:          150,
		BadgeHelpfulPeer:        400,
		BadgeKnowledgeSharer:    800,
		BadgeComebackKing:       1500,
		BadgeAttendanceRecovery: 600,
	}

	for badgeType, xp := range expected {
		badge, err := BadgeDetails(badgeType)
		require.NoError(t, err, "badge %s", badgeType)
		assert.Equal(t, xp, badge.XPEarned, "badge %s", badgeType)
		assert.Equal(t, badgeType, badge.Type)
		assert.NotEmpty(t, badge.Title)
		assert.NotEmpty(t, badge.Description)
		assert.NotEmpty(t, badge.Icon)
	}
}

func TestBadgeCatalog_EveryBadgeAwardsXP(t *testing.T) {
	for _, badge := range AllBadges() {
		assert.Positive(t, badge.XPEarned, "badge %s", badge.Type)
	}
}

func TestNewAchievement(t *testing.T) {
	a, err := NewAchievement("ach-1", "student-1", BadgeFirstAPlus, "")
	require.NoError(t, err)

	assert.Equal(t, BadgeFirstAPlus, a.BadgeType)
	assert.Equal(t, "First A+", a.Title)
	assert.Equal(t, 100, a.XPEarned)
	assert.False(t, a.UnlockedAt.IsZero())
}

func TestNewAchievement_WithContext(t *testing.T) {
	a, err := NewAchievement("ach-1", "student-1", BadgeWeekStreak, string(StreakAttendance))
	require.NoError(t, err)

	assert.Equal(t, "attendance", a.Context)
}

func TestNewAchievement_Validation(t *testing.T) {
	_, err := NewAchievement("ach-1", "", BadgeFirstAPlus, "")
	assert.Error(t, err)

	_, err = NewAchievement("ach-1", "student-1", BadgeType("bogus"), "")
	assert.Error(t, err)
}
