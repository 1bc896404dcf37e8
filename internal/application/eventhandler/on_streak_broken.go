package eventhandler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/notification"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STREAK BROKEN HANDLER
// Мягко сообщает о сбросе серии. Короткие серии не стоят уведомления:
// студента не ругают за два пропущенных дня подряд.
// ═══════════════════════════════════════════════════════════════════════════

// MinStreakWorthNotifying - минимальная потерянная длина серии,
// о которой стоит сообщать.
const MinStreakWorthNotifying = 3

// OnStreakBrokenHandler обрабатывает событие сброса серии.
type OnStreakBrokenHandler struct {
	notifications notification.Repository
	log           *logger.Logger
}

// NewOnStreakBrokenHandler создаёт новый обработчик.
func NewOnStreakBrokenHandler(notifications notification.Repository, log *logger.Logger) *OnStreakBrokenHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnStreakBrokenHandler{
		notifications: notifications,
		log:           log.With(logger.Component("on_streak_broken")),
	}
}

// EventType возвращает тип обрабатываемого события.
func (h *OnStreakBrokenHandler) EventType() shared.EventType {
	return shared.EventStreakBroken
}

// Handle обрабатывает событие.
func (h *OnStreakBrokenHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.StreakBrokenEvent)
	if !ok {
		return fmt.Errorf("on_streak_broken: unexpected event type %T", event)
	}

	if e.PreviousStreak < MinStreakWorthNotifying {
		return nil
	}

	n, err := notification.ForStreakAtRisk(uuid.NewString(), e.StudentID, e.StreakType, e.PreviousStreak)
	if err != nil {
		return fmt.Errorf("on_streak_broken: %w", err)
	}
	if err := n.MarkQueued(); err != nil {
		return fmt.Errorf("on_streak_broken: %w", err)
	}

	ctx, cancel := notificationContext()
	defer cancel()
	if err := h.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("on_streak_broken: %w", err)
	}

	h.log.Info("streak-broken notification queued",
		logger.StudentID(e.StudentID),
		logger.String("streak_type", e.StreakType),
		logger.Int("previous_streak", e.PreviousStreak),
	)
	return nil
}
