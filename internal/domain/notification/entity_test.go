package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

func TestNewNotification_Defaults(t *testing.T) {
	n, err := NewNotification(NewNotificationParams{
		ID:        "n-1",
		StudentID: "student-1",
		Type:      TypeLevelUp,
		Title:     "Level 5!",
		Message:   "You reached level 5.",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, n.Status)
	assert.Equal(t, PriorityNormal, n.Priority)
	assert.NotNil(t, n.Payload)
	assert.False(t, n.CreatedAt.IsZero())
}

func TestNewNotification_Validation(t *testing.T) {
	_, err := NewNotification(NewNotificationParams{
		ID: "n-1", StudentID: "", Type: TypeLevelUp, Message: "hi",
	})
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	_, err = NewNotification(NewNotificationParams{
		ID: "n-1", StudentID: "student-1", Type: NotificationType("bogus"), Message: "hi",
	})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = NewNotification(NewNotificationParams{
		ID: "n-1", StudentID: "student-1", Type: TypeLevelUp, Message: "",
	})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestNotificationType_DefaultPriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, TypeStreakAtRisk.DefaultPriority())
	assert.Equal(t, PriorityHigh, TypeAttendanceWarning.DefaultPriority())
	assert.Equal(t, PriorityNormal, TypeLevelUp.DefaultPriority())
	assert.Equal(t, PriorityNormal, TypeAchievementUnlocked.DefaultPriority())
	assert.Equal(t, PriorityLow, TypeLeaderboardChange.DefaultPriority())
}

func TestNotification_StatusTransitions(t *testing.T) {
	n, err := ForLevelUp("n-1", "student-1", 3)
	require.NoError(t, err)

	// pending → delivered is not allowed
	assert.ErrorIs(t, n.MarkDelivered(), ErrInvalidTransition)

	require.NoError(t, n.MarkQueued())
	assert.Equal(t, StatusQueued, n.Status)

	// queued → queued is not allowed
	assert.ErrorIs(t, n.MarkQueued(), ErrInvalidTransition)

	require.NoError(t, n.MarkDelivered())
	assert.Equal(t, StatusDelivered, n.Status)
	require.NotNil(t, n.DeliveredAt)

	// delivered is final
	assert.ErrorIs(t, n.MarkFailed("boom"), ErrInvalidTransition)
	assert.ErrorIs(t, n.MarkSkipped("late"), ErrInvalidTransition)
}

func TestNotification_FailAndRetry(t *testing.T) {
	n, err := ForAchievement("n-1", "student-1", "first_steps", "First Steps", 50)
	require.NoError(t, err)

	require.NoError(t, n.MarkQueued())
	require.NoError(t, n.MarkFailed("channel down"))
	assert.Equal(t, StatusFailed, n.Status)
	assert.Equal(t, "channel down", n.FailReason)

	require.NoError(t, n.ResetForRetry())
	assert.Equal(t, StatusQueued, n.Status)
	assert.Empty(t, n.FailReason)
}

func TestNotification_MarkSkipped(t *testing.T) {
	n, err := ForStreakMilestone("n-1", "student-1", "login", 7)
	require.NoError(t, err)

	require.NoError(t, n.MarkSkipped("quiet hours expired"))
	assert.Equal(t, StatusSkipped, n.Status)
	assert.True(t, n.Status.IsFinal())
}

func TestNotification_Clone(t *testing.T) {
	n, err := ForAttendanceWarning("n-1", "student-1", "Databases", 68.4, 75)
	require.NoError(t, err)

	clone := n.Clone()
	clone.Payload["subject"] = "Networks"
	clone.Status = StatusQueued

	assert.Equal(t, "Databases", n.Payload["subject"])
	assert.Equal(t, StatusPending, n.Status)
}

func TestCanDeliverNow_QuietHours(t *testing.T) {
	night := time.Date(2026, time.March, 10, 2, 30, 0, 0, timeutil.CampusTZ)
	day := time.Date(2026, time.March, 10, 14, 0, 0, 0, timeutil.CampusTZ)

	milestone, err := ForStreakMilestone("n-1", "student-1", "login", 30)
	require.NoError(t, err)
	assert.False(t, CanDeliverNow(milestone, night))
	assert.True(t, CanDeliverNow(milestone, day))

	// High priority ignores quiet hours.
	atRisk, err := ForStreakAtRisk("n-2", "student-1", "login", 14)
	require.NoError(t, err)
	assert.True(t, CanDeliverNow(atRisk, night))
}

func TestNextDeliveryTime(t *testing.T) {
	night := time.Date(2026, time.March, 10, 2, 30, 0, 0, timeutil.CampusTZ)

	n, err := ForLevelUp("n-1", "student-1", 4)
	require.NoError(t, err)

	next := NextDeliveryTime(n, night)
	assert.True(t, next.After(night))
	assert.True(t, timeutil.IsSafeNotificationTime(next))

	day := time.Date(2026, time.March, 10, 14, 0, 0, 0, timeutil.CampusTZ)
	assert.Equal(t, day, NextDeliveryTime(n, day))
}

func TestTriggers_PayloadContents(t *testing.T) {
	lvl, err := ForLevelUp("n-1", "student-1", 7)
	require.NoError(t, err)
	assert.Equal(t, "7", lvl.Payload["level"])

	badge, err := ForAchievement("n-2", "student-1", "week_warrior", "Week Warrior", 100)
	require.NoError(t, err)
	assert.Equal(t, "week_warrior", badge.Payload["badge_type"])
	assert.Equal(t, "100", badge.Payload["xp_earned"])

	warn, err := ForAttendanceWarning("n-3", "student-1", "Algorithms", 70.25, 75)
	require.NoError(t, err)
	assert.Equal(t, "Algorithms", warn.Payload["subject"])
	assert.Contains(t, warn.Message, "70.2%")
	assert.Contains(t, warn.Message, "75%")
}
