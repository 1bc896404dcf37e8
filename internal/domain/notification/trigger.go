package notification

import (
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRIGGERS
// Фабрики уведомлений для доменных событий. Текст собирается здесь,
// чтобы application слой не знал про формулировки.
// ══════════════════════════════════════════════════════════════════════════════

// ForLevelUp создаёт уведомление о новом уровне.
func ForLevelUp(id, studentID string, newLevel int) (*Notification, error) {
	return NewNotification(NewNotificationParams{
		ID:        id,
		StudentID: studentID,
		Type:      TypeLevelUp,
		Title:     fmt.Sprintf("%s Level %d!", TypeLevelUp.Emoji(), newLevel),
		Message:   fmt.Sprintf("You reached level %d. Keep it up!", newLevel),
		Payload: map[string]string{
			"level": fmt.Sprintf("%d", newLevel),
		},
	})
}

// ForAchievement создаёт уведомление о разблокированном бейдже.
func ForAchievement(id, studentID, badgeType, title string, xpEarned int) (*Notification, error) {
	return NewNotification(NewNotificationParams{
		ID:        id,
		StudentID: studentID,
		Type:      TypeAchievementUnlocked,
		Title:     fmt.Sprintf("%s %s", TypeAchievementUnlocked.Emoji(), title),
		Message:   fmt.Sprintf("Achievement unlocked: %s (+%d XP)", title, xpEarned),
		Payload: map[string]string{
			"badge_type": badgeType,
			"xp_earned":  fmt.Sprintf("%d", xpEarned),
		},
	})
}

// ForStreakMilestone создаёт уведомление о юбилейном стрике.
func ForStreakMilestone(id, studentID, streakType string, length int) (*Notification, error) {
	return NewNotification(NewNotificationParams{
		ID:        id,
		StudentID: studentID,
		Type:      TypeStreakMilestone,
		Title:     fmt.Sprintf("%s %d-day streak!", TypeStreakMilestone.Emoji(), length),
		Message:   fmt.Sprintf("Your %s streak hit %d days in a row.", streakType, length),
		Payload: map[string]string{
			"streak_type": streakType,
			"length":      fmt.Sprintf("%d", length),
		},
	})
}

// ForStreakAtRisk создаёт напоминание о сгорающем стрике.
func ForStreakAtRisk(id, studentID, streakType string, current int) (*Notification, error) {
	return NewNotification(NewNotificationParams{
		ID:        id,
		StudentID: studentID,
		Type:      TypeStreakAtRisk,
		Title:     fmt.Sprintf("%s Streak at risk", TypeStreakAtRisk.Emoji()),
		Message:   fmt.Sprintf("Your %d-day %s streak ends at midnight. One activity saves it.", current, streakType),
		Payload: map[string]string{
			"streak_type": streakType,
			"length":      fmt.Sprintf("%d", current),
		},
	})
}

// ForAttendanceWarning создаёт предупреждение о посещаемости.
func ForAttendanceWarning(id, studentID, subject string, percentage, threshold float64) (*Notification, error) {
	return NewNotification(NewNotificationParams{
		ID:        id,
		StudentID: studentID,
		Type:      TypeAttendanceWarning,
		Title:     fmt.Sprintf("%s Attendance warning", TypeAttendanceWarning.Emoji()),
		Message:   fmt.Sprintf("%s attendance is %.1f%%, below the %.0f%% threshold.", subject, percentage, threshold),
		Payload: map[string]string{
			"subject":    subject,
			"percentage": fmt.Sprintf("%.2f", percentage),
		},
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY WINDOW
// ══════════════════════════════════════════════════════════════════════════════

// CanDeliverNow решает, можно ли отправлять уведомление прямо сейчас.
// Высокий приоритет игнорирует тихие часы, остальные ждут безопасного окна.
func CanDeliverNow(n *Notification, now time.Time) bool {
	if n.Priority.ShouldSendImmediately() {
		return true
	}
	return timeutil.IsSafeNotificationTime(now)
}

// NextDeliveryTime возвращает ближайший момент, когда уведомление
// можно доставить.
func NextDeliveryTime(n *Notification, now time.Time) time.Time {
	if CanDeliverNow(n, now) {
		return now
	}
	return timeutil.NextSafeNotificationTime(now)
}
