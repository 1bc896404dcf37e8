package eventhandler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/notification"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STREAK EXTENDED HANDLER
// Поздравляет с круглыми длинами серии (7, 30, 100 дней). Бейдж за
// милстоун идёт отдельным событием; это уведомление - про саму серию.
// ═══════════════════════════════════════════════════════════════════════════

// OnStreakExtendedHandler обрабатывает событие продления серии.
type OnStreakExtendedHandler struct {
	notifications notification.Repository
	log           *logger.Logger
}

// NewOnStreakExtendedHandler создаёт новый обработчик.
func NewOnStreakExtendedHandler(notifications notification.Repository, log *logger.Logger) *OnStreakExtendedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnStreakExtendedHandler{
		notifications: notifications,
		log:           log.With(logger.Component("on_streak_extended")),
	}
}

// EventType возвращает тип обрабатываемого события.
func (h *OnStreakExtendedHandler) EventType() shared.EventType {
	return shared.EventStreakExtended
}

// Handle обрабатывает событие. Некруглые длины игнорируются.
func (h *OnStreakExtendedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.StreakExtendedEvent)
	if !ok {
		return fmt.Errorf("on_streak_extended: unexpected event type %T", event)
	}

	if _, milestone := gamification.MilestoneBadge(e.CurrentStreak); !milestone {
		return nil
	}

	n, err := notification.ForStreakMilestone(uuid.NewString(), e.StudentID, e.StreakType, e.CurrentStreak)
	if err != nil {
		return fmt.Errorf("on_streak_extended: %w", err)
	}
	if err := n.MarkQueued(); err != nil {
		return fmt.Errorf("on_streak_extended: %w", err)
	}

	ctx, cancel := notificationContext()
	defer cancel()
	if err := h.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("on_streak_extended: %w", err)
	}

	h.log.Info("streak milestone notification queued",
		logger.StudentID(e.StudentID),
		logger.String("streak_type", e.StreakType),
		logger.Int("length", e.CurrentStreak),
	)
	return nil
}
