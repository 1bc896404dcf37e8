// Package eventhandler содержит обработчики доменных событий.
// Эти обработчики реализуют event-driven архитектуру и связывают
// различные части системы через асинхронные события.
//
// Философия: обработчики событий — это "реактивная" часть системы.
// Они реагируют на изменения и запускают побочные эффекты,
// такие как постановка уведомлений в очередь.
package eventhandler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/notification"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LEVEL UP HANDLER
// Ставит в очередь поздравительное уведомление при повышении уровня.
// ═══════════════════════════════════════════════════════════════════════════

// OnLevelUpHandler обрабатывает событие повышения уровня.
type OnLevelUpHandler struct {
	notifications notification.Repository
	log           *logger.Logger
}

// NewOnLevelUpHandler создаёт новый обработчик.
func NewOnLevelUpHandler(notifications notification.Repository, log *logger.Logger) *OnLevelUpHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnLevelUpHandler{
		notifications: notifications,
		log:           log.With(logger.Component("on_level_up")),
	}
}

// EventType возвращает тип обрабатываемого события.
func (h *OnLevelUpHandler) EventType() shared.EventType {
	return shared.EventLevelUp
}

// Handle обрабатывает событие. Регистрируется в шине как
// shared.EventHandler.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.LevelUpEvent)
	if !ok {
		return fmt.Errorf("on_level_up: unexpected event type %T", event)
	}

	n, err := notification.ForLevelUp(uuid.NewString(), e.StudentID, e.NewLevel)
	if err != nil {
		return fmt.Errorf("on_level_up: %w", err)
	}
	if err := n.MarkQueued(); err != nil {
		return fmt.Errorf("on_level_up: %w", err)
	}
	ctx, cancel := notificationContext()
	defer cancel()
	if err := h.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("on_level_up: %w", err)
	}

	h.log.Info("level-up notification queued",
		logger.StudentID(e.StudentID),
		logger.Int("new_level", e.NewLevel),
	)
	return nil
}
