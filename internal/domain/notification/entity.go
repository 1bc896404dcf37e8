// Package notification содержит доменную модель уведомлений StudyPulse.
// Уведомления мотивируют: повышение уровня, новый бейдж, стрик под угрозой.
// Философия: уведомление должно подталкивать к действию, а не раздражать.
package notification

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationType определяет тип уведомления.
type NotificationType string

const (
	// TypeLevelUp - студент достиг нового уровня.
	TypeLevelUp NotificationType = "level_up"

	// TypeAchievementUnlocked - разблокирован новый бейдж.
	TypeAchievementUnlocked NotificationType = "achievement_unlocked"

	// TypeStreakMilestone - стрик достиг юбилейной отметки.
	TypeStreakMilestone NotificationType = "streak_milestone"

	// TypeStreakAtRisk - сегодня ещё не было активности, стрик сгорит.
	TypeStreakAtRisk NotificationType = "streak_at_risk"

	// TypeAttendanceWarning - посещаемость упала ниже безопасной зоны.
	TypeAttendanceWarning NotificationType = "attendance_warning"

	// TypeLeaderboardChange - заметное изменение позиции в рейтинге.
	TypeLeaderboardChange NotificationType = "leaderboard_change"
)

// IsValid проверяет, что тип уведомления известен.
func (t NotificationType) IsValid() bool {
	switch t {
	case TypeLevelUp, TypeAchievementUnlocked, TypeStreakMilestone,
		TypeStreakAtRisk, TypeAttendanceWarning, TypeLeaderboardChange:
		return true
	}
	return false
}

// DefaultPriority возвращает приоритет по умолчанию для типа.
func (t NotificationType) DefaultPriority() Priority {
	switch t {
	case TypeStreakAtRisk, TypeAttendanceWarning:
		return PriorityHigh
	case TypeLevelUp, TypeAchievementUnlocked:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// Emoji возвращает эмодзи для отображения типа.
func (t NotificationType) Emoji() string {
	switch t {
	case TypeLevelUp:
		return "🎉"
	case TypeAchievementUnlocked:
		return "🏅"
	case TypeStreakMilestone:
		return "🔥"
	case TypeStreakAtRisk:
		return "⏰"
	case TypeAttendanceWarning:
		return "⚠️"
	case TypeLeaderboardChange:
		return "📊"
	default:
		return "🔔"
	}
}

// Priority определяет срочность доставки.
type Priority int

const (
	// PriorityLow - можно отложить и сгруппировать.
	PriorityLow Priority = 1
	// PriorityNormal - доставить в ближайшее безопасное окно.
	PriorityNormal Priority = 2
	// PriorityHigh - доставить немедленно.
	PriorityHigh Priority = 3
)

// IsValid проверяет корректность приоритета.
func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// ShouldSendImmediately возвращает true для срочных уведомлений.
func (p Priority) ShouldSendImmediately() bool {
	return p == PriorityHigh
}

// CanBeBatched возвращает true, если уведомление можно группировать.
func (p Priority) CanBeBatched() bool {
	return p == PriorityLow
}

// String возвращает строковое представление приоритета.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Status определяет состояние доставки уведомления.
type Status string

const (
	// StatusPending - создано, ещё не поставлено в очередь.
	StatusPending Status = "pending"
	// StatusQueued - в очереди на отправку.
	StatusQueued Status = "queued"
	// StatusDelivered - доставлено.
	StatusDelivered Status = "delivered"
	// StatusFailed - доставка не удалась.
	StatusFailed Status = "failed"
	// StatusSkipped - отправка отменена (например, тихие часы истекли).
	StatusSkipped Status = "skipped"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusQueued, StatusDelivered, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// IsFinal возвращает true для конечных статусов.
func (s Status) IsFinal() bool {
	return s == StatusDelivered || s == StatusSkipped
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidType - неизвестный тип уведомления.
	ErrInvalidType = errors.New("invalid notification type")

	// ErrInvalidRecipient - пустой получатель.
	ErrInvalidRecipient = errors.New("recipient must be non-empty")

	// ErrEmptyMessage - пустой текст уведомления.
	ErrEmptyMessage = errors.New("message must be non-empty")

	// ErrInvalidTransition - недопустимый переход статуса.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Notification - одно уведомление студенту.
type Notification struct {
	ID        string
	StudentID string
	Type      NotificationType
	Priority  Priority
	Status    Status

	// Title и Message - готовый к показу текст.
	Title   string
	Message string

	// Payload - структурированные данные для клиента
	// (номер уровня, тип бейджа и т.п.).
	Payload map[string]string

	CreatedAt   time.Time
	DeliveredAt *time.Time
	FailReason  string
}

// NewNotificationParams - параметры создания уведомления.
type NewNotificationParams struct {
	ID        string
	StudentID string
	Type      NotificationType
	Title     string
	Message   string
	Payload   map[string]string
}

// NewNotification создаёт уведомление со статусом pending
// и приоритетом по умолчанию для типа.
func NewNotification(params NewNotificationParams) (*Notification, error) {
	if params.StudentID == "" {
		return nil, ErrInvalidRecipient
	}
	if !params.Type.IsValid() {
		return nil, ErrInvalidType
	}
	if params.Message == "" {
		return nil, ErrEmptyMessage
	}

	payload := params.Payload
	if payload == nil {
		payload = make(map[string]string)
	}

	return &Notification{
		ID:        params.ID,
		StudentID: params.StudentID,
		Type:      params.Type,
		Priority:  params.Type.DefaultPriority(),
		Status:    StatusPending,
		Title:     params.Title,
		Message:   params.Message,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// MarkQueued переводит pending → queued.
func (n *Notification) MarkQueued() error {
	if n.Status != StatusPending {
		return ErrInvalidTransition
	}
	n.Status = StatusQueued
	return nil
}

// MarkDelivered переводит queued → delivered.
func (n *Notification) MarkDelivered() error {
	if n.Status != StatusQueued {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	n.Status = StatusDelivered
	n.DeliveredAt = &now
	return nil
}

// MarkFailed переводит queued → failed с причиной.
func (n *Notification) MarkFailed(reason string) error {
	if n.Status != StatusQueued {
		return ErrInvalidTransition
	}
	n.Status = StatusFailed
	n.FailReason = reason
	return nil
}

// MarkSkipped переводит любой неконечный статус в skipped.
func (n *Notification) MarkSkipped(reason string) error {
	if n.Status.IsFinal() {
		return ErrInvalidTransition
	}
	n.Status = StatusSkipped
	n.FailReason = reason
	return nil
}

// ResetForRetry возвращает failed уведомление в очередь.
func (n *Notification) ResetForRetry() error {
	if n.Status != StatusFailed {
		return ErrInvalidTransition
	}
	n.Status = StatusQueued
	n.FailReason = ""
	return nil
}

// Clone создаёт глубокую копию уведомления.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Payload = make(map[string]string, len(n.Payload))
	for k, v := range n.Payload {
		clone.Payload[k] = v
	}
	if n.DeliveredAt != nil {
		at := *n.DeliveredAt
		clone.DeliveredAt = &at
	}
	return &clone
}

// String возвращает строковое представление для логирования.
func (n *Notification) String() string {
	return fmt.Sprintf(
		"Notification{Student: %s, Type: %s, Status: %s}",
		n.StudentID, n.Type, n.Status,
	)
}
