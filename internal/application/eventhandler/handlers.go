package eventhandler

import (
	"context"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// queueTimeout ограничивает время постановки уведомления в очередь.
const queueTimeout = 5 * time.Second

// notificationContext возвращает контекст для записи уведомления.
// Обработчики вызываются вне HTTP-запроса, поэтому контекст фоновый.
func notificationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), queueTimeout)
}

// Registrable - обработчик, знающий свой тип события.
type Registrable interface {
	EventType() shared.EventType
	Handle(event shared.Event) error
}

// RegisterAll подписывает обработчики на шину событий.
func RegisterAll(bus shared.EventSubscriber, handlers ...Registrable) {
	for _, h := range handlers {
		bus.Subscribe(h.EventType(), h.Handle)
	}
}
