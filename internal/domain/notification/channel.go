package notification

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY CHANNELS
// ══════════════════════════════════════════════════════════════════════════════

// ChannelType определяет канал доставки уведомления.
type ChannelType string

const (
	// ChannelInApp - лента уведомлений внутри приложения.
	ChannelInApp ChannelType = "in_app"
	// ChannelPush - push-уведомление на устройство.
	ChannelPush ChannelType = "push"
	// ChannelEmail - дайджест на почту.
	ChannelEmail ChannelType = "email"
)

// IsValid проверяет, что канал известен.
func (ct ChannelType) IsValid() bool {
	switch ct {
	case ChannelInApp, ChannelPush, ChannelEmail:
		return true
	}
	return false
}

// String возвращает строковое представление канала.
func (ct ChannelType) String() string {
	return string(ct)
}

// DeliveryResult - результат попытки доставки по каналу.
type DeliveryResult struct {
	Channel   ChannelType
	Success   bool
	MessageID string
	Err       error

	// Retryable - стоит ли повторять доставку.
	Retryable bool

	// RetryAfter - когда повторять при rate limit.
	RetryAfter time.Duration

	DeliveredAt time.Time
}

// NewSuccessResult создаёт успешный результат доставки.
func NewSuccessResult(channel ChannelType, messageID string) DeliveryResult {
	return DeliveryResult{
		Channel:     channel,
		Success:     true,
		MessageID:   messageID,
		DeliveredAt: time.Now().UTC(),
	}
}

// NewFailureResult создаёт неуспешный результат доставки.
func NewFailureResult(channel ChannelType, err error, retryable bool) DeliveryResult {
	return DeliveryResult{
		Channel:   channel,
		Success:   false,
		Err:       err,
		Retryable: retryable,
	}
}

// Channel - порт канала доставки; реализации в infrastructure слое.
type Channel interface {
	// Type возвращает тип канала.
	Type() ChannelType

	// Deliver отправляет уведомление. Ошибки транспорта возвращаются
	// внутри DeliveryResult, error - только для ошибок программирования.
	Deliver(ctx context.Context, n *Notification) DeliveryResult
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Repository - порт хранилища уведомлений.
type Repository interface {
	// Create сохраняет новое уведомление.
	Create(ctx context.Context, n *Notification) error

	// Update сохраняет изменение статуса.
	Update(ctx context.Context, n *Notification) error

	// GetByID возвращает уведомление или shared.ErrNotificationNotFound.
	GetByID(ctx context.Context, id string) (*Notification, error)

	// ListPending возвращает уведомления в статусах pending и queued,
	// старые первыми, не более limit.
	ListPending(ctx context.Context, limit int) ([]*Notification, error)

	// ListByStudent возвращает уведомления студента, новые первыми.
	ListByStudent(ctx context.Context, studentID string, limit int) ([]*Notification, error)
}
