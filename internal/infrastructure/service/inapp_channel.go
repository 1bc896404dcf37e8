package service

import (
	"context"

	"github.com/studypulse/studypulse-backend/internal/domain/notification"
)

// InAppChannel delivers to the in-app notification feed. The feed reads
// straight from the notifications table, so delivery is just the status
// transition; the message ID is the notification's own ID.
type InAppChannel struct{}

// NewInAppChannel creates the channel.
func NewInAppChannel() *InAppChannel {
	return &InAppChannel{}
}

// Type returns the channel type.
func (c *InAppChannel) Type() notification.ChannelType {
	return notification.ChannelInApp
}

// Deliver marks the notification visible in the feed.
func (c *InAppChannel) Deliver(_ context.Context, n *notification.Notification) notification.DeliveryResult {
	return notification.NewSuccessResult(notification.ChannelInApp, n.ID)
}
