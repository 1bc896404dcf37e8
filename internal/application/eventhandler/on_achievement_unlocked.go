package eventhandler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/notification"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACHIEVEMENT UNLOCKED HANDLER
// Ставит в очередь уведомление о новом бейдже. Событие публикуется
// ровно один раз на пару (студент, бейдж), поэтому дублей не бывает.
// ═══════════════════════════════════════════════════════════════════════════

// OnAchievementUnlockedHandler обрабатывает событие разблокировки бейджа.
type OnAchievementUnlockedHandler struct {
	notifications notification.Repository
	log           *logger.Logger
}

// NewOnAchievementUnlockedHandler создаёт новый обработчик.
func NewOnAchievementUnlockedHandler(notifications notification.Repository, log *logger.Logger) *OnAchievementUnlockedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnAchievementUnlockedHandler{
		notifications: notifications,
		log:           log.With(logger.Component("on_achievement_unlocked")),
	}
}

// EventType возвращает тип обрабатываемого события.
func (h *OnAchievementUnlockedHandler) EventType() shared.EventType {
	return shared.EventAchievementUnlocked
}

// Handle обрабатывает событие.
func (h *OnAchievementUnlockedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.AchievementUnlockedEvent)
	if !ok {
		return fmt.Errorf("on_achievement_unlocked: unexpected event type %T", event)
	}

	n, err := notification.ForAchievement(uuid.NewString(), e.StudentID, e.BadgeType, e.Title, e.XPEarned)
	if err != nil {
		return fmt.Errorf("on_achievement_unlocked: %w", err)
	}
	if err := n.MarkQueued(); err != nil {
		return fmt.Errorf("on_achievement_unlocked: %w", err)
	}

	ctx, cancel := notificationContext()
	defer cancel()
	if err := h.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("on_achievement_unlocked: %w", err)
	}

	h.log.Info("achievement notification queued",
		logger.StudentID(e.StudentID),
		logger.String("badge_type", e.BadgeType),
	)
	return nil
}
