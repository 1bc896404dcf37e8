package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, timeutil.CampusTZ)
}

func TestNewStreak(t *testing.T) {
	s, err := NewStreak("st-1", "student-1", StreakAttendance, day(2026, time.March, 10))
	require.NoError(t, err)

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)
	assert.Equal(t, StreakAttendance, s.Type)
}

func TestNewStreak_Validation(t *testing.T) {
	_, err := NewStreak("st-1", "", StreakAttendance, time.Now())
	assert.Error(t, err)

	_, err = NewStreak("st-1", "student-1", StreakType("bogus"), time.Now())
	assert.Error(t, err)
}

func TestStreak_Advance_NextDay(t *testing.T) {
	s, err := NewStreak("st-1", "student-1", StreakLogin, day(2026, time.March, 10))
	require.NoError(t, err)

	result := s.Advance(day(2026, time.March, 11))

	assert.Equal(t, OutcomeExtended, result.Outcome)
	assert.Equal(t, 2, result.CurrentStreak)
	assert.Equal(t, 2, result.LongestStreak)
	assert.False(t, result.HasMilestone)
}

func TestStreak_Advance_SameDayIsNoOp(t *testing.T) {
	s, err := NewStreak("st-1", "student-1", StreakLogin, day(2026, time.March, 10))
	require.NoError(t, err)

	// Later the same day, different hour.
	later := time.Date(2026, time.March, 10, 23, 30, 0, 0, timeutil.CampusTZ)
	result := s.Advance(later)

	assert.Equal(t, OutcomeUnchanged, result.Outcome)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)
}

func TestStreak_Advance_GapResetsPreservingLongest(t *testing.T) {
	s, err := NewStreak("st-1", "student-1", StreakStudy, day(2026, time.March, 1))
	require.NoError(t, err)

	for d := 2; d <= 5; d++ {
		s.Advance(day(2026, time.March, d))
	}
	require.Equal(t, 5, s.CurrentStreak)
	require.Equal(t, 5, s.LongestStreak)

	result := s.Advance(day(2026, time.March, 9))

	assert.Equal(t, OutcomeReset, result.Outcome)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 5, s.LongestStreak)
}

func TestStreak_Advance_WeekMilestone(t *testing.T) {
	s, err := NewStreak("st-1", "student-1", StreakAttendance, day(2026, time.March, 1))
	require.NoError(t, err)

	for d := 2; d <= 6; d++ {
		result := s.Advance(day(2026, time.March, d))
		assert.False(t, result.HasMilestone, "day %d", d)
	}
	require.Equal(t, 6, s.CurrentStreak)

	result := s.Advance(day(2026, time.March, 7))

	assert.Equal(t, 7, result.CurrentStreak)
	assert.True(t, result.HasMilestone)
	assert.Equal(t, BadgeWeekStreak, result.Milestone)
}

func TestStreak_Advance_LongRunHitsEachMilestoneOnce(t *testing.T) {
	start := day(2026, time.January, 1)
	s, err := NewStreak("st-1", "student-1", StreakLogin, start)
	require.NoError(t, err)

	hits := map[BadgeType]int{}
	for i := 1; i < 120; i++ {
		result := s.Advance(start.AddDate(0, 0, i))
		if result.HasMilestone {
			hits[result.Milestone]++
		}
	}

	assert.Equal(t, 1, hits[BadgeWeekStreak])
	assert.Equal(t, 1, hits[BadgeMonthStreak])
	assert.Equal(t, 1, hits[BadgeCenturyStreak])
}

func TestStreak_Advance_RegrowthRetriggersMilestone(t *testing.T) {
	start := day(2026, time.January, 1)
	s, err := NewStreak("st-1", "student-1", StreakLogin, start)
	require.NoError(t, err)

	for i := 1; i < 7; i++ {
		s.Advance(start.AddDate(0, 0, i))
	}
	require.Equal(t, 7, s.CurrentStreak)

	// Break the streak and regrow it to seven. The milestone fires
	// again; idempotent unlocking is the layer that dedupes it.
	regrow := start.AddDate(0, 0, 10)
	s.Advance(regrow)
	require.Equal(t, 1, s.CurrentStreak)

	var milestones int
	for i := 1; i < 7; i++ {
		if s.Advance(regrow.AddDate(0, 0, i)).HasMilestone {
			milestones++
		}
	}

	assert.Equal(t, 1, milestones)
	assert.Equal(t, 7, s.LongestStreak)
}

func TestStreak_IsActive(t *testing.T) {
	s, err := NewStreak("st-1", "student-1", StreakLogin, day(2026, time.March, 10))
	require.NoError(t, err)

	assert.True(t, s.IsActive(day(2026, time.March, 10)))
	assert.True(t, s.IsActive(day(2026, time.March, 11)))
	assert.False(t, s.IsActive(day(2026, time.March, 12)))
}

func TestMilestoneBadge(t *testing.T) {
	badge, ok := MilestoneBadge(7)
	assert.True(t, ok)
	assert.Equal(t, BadgeWeekStreak, badge)

	badge, ok = MilestoneBadge(30)
	assert.True(t, ok)
	assert.Equal(t, BadgeMonthStreak, badge)

	badge, ok = MilestoneBadge(100)
	assert.True(t, ok)
	assert.Equal(t, BadgeCenturyStreak, badge)

	_, ok = MilestoneBadge(8)
	assert.False(t, ok)
}

func TestStreakType_IsValid(t *testing.T) {
	for _, st := range AllStreakTypes() {
		assert.True(t, st.IsValid())
	}
	assert.False(t, StreakType("gym").IsValid())
}
