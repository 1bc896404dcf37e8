package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/notification"
	"github.com/studypulse/studypulse-backend/pkg/retry"
	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// NotificationDispatcher drains pending notifications and delivers them
// through the registered channels. Retryable transport failures are
// retried with backoff; exhausted or permanent failures mark the
// notification failed with the reason kept for inspection. Low priority
// notifications respect quiet hours and stay queued until the next safe
// window.
type NotificationDispatcher struct {
	repo     notification.Repository
	channels map[notification.ChannelType]notification.Channel
	retrier  *retry.Retrier
	logger   *slog.Logger
	config   DispatchConfig
	now      func() time.Time
}

// DispatchConfig contains configuration for one dispatch pass.
type DispatchConfig struct {
	// BatchSize bounds how many pending notifications one pass takes.
	BatchSize int

	// DefaultChannel receives notifications when no channel matches.
	DefaultChannel notification.ChannelType
}

// DefaultDispatchConfig returns defaults: batches of 100 to the in-app
// feed.
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		BatchSize:      100,
		DefaultChannel: notification.ChannelInApp,
	}
}

// NewNotificationDispatcher creates a dispatcher over the given channels.
func NewNotificationDispatcher(
	repo notification.Repository,
	channels []notification.Channel,
	logger *slog.Logger,
	config DispatchConfig,
) *NotificationDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.DefaultChannel == "" {
		config.DefaultChannel = notification.ChannelInApp
	}

	byType := make(map[notification.ChannelType]notification.Channel, len(channels))
	for _, ch := range channels {
		byType[ch.Type()] = ch
	}

	return &NotificationDispatcher{
		repo:     repo,
		channels: byType,
		retrier:  retry.New(retry.WithMaxAttempts(3), retry.WithInitialDelay(200*time.Millisecond)),
		logger:   logger,
		config:   config,
		now:      timeutil.Now,
	}
}

// DispatchPending processes one batch of pending notifications and
// returns how many were delivered.
func (d *NotificationDispatcher) DispatchPending(ctx context.Context) (int, error) {
	pending, err := d.repo.ListPending(ctx, d.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending notifications: %w", err)
	}

	delivered := 0
	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}

		if !notification.CanDeliverNow(n, d.now()) {
			// Stays queued until the quiet hours end.
			continue
		}

		if err := d.deliver(ctx, n); err != nil {
			d.logger.Warn("notification delivery failed",
				slog.String("notification_id", n.ID),
				slog.String("type", string(n.Type)),
				slog.String("error", err.Error()),
			)
			continue
		}
		delivered++
	}

	if len(pending) > 0 {
		d.logger.Info("notification dispatch pass complete",
			slog.Int("pending", len(pending)),
			slog.Int("delivered", delivered),
		)
	}
	return delivered, nil
}

func (d *NotificationDispatcher) deliver(ctx context.Context, n *notification.Notification) error {
	channel, ok := d.channels[d.config.DefaultChannel]
	if !ok {
		return fmt.Errorf("no channel registered for %s", d.config.DefaultChannel)
	}

	if n.Status == notification.StatusPending {
		if err := n.MarkQueued(); err != nil {
			return fmt.Errorf("queue notification: %w", err)
		}
		if err := d.repo.Update(ctx, n); err != nil {
			return fmt.Errorf("persist queued status: %w", err)
		}
	}

	var result notification.DeliveryResult
	err := d.retrier.Do(ctx, func(ctx context.Context) error {
		result = channel.Deliver(ctx, n)
		if result.Success {
			return nil
		}
		if result.Retryable {
			return retry.Retryable(result.Err)
		}
		return retry.Permanent(result.Err)
	})
	if err != nil {
		if markErr := n.MarkFailed(err.Error()); markErr == nil {
			if updateErr := d.repo.Update(ctx, n); updateErr != nil {
				return fmt.Errorf("persist failed status: %w", updateErr)
			}
		}
		return err
	}

	if err := n.MarkDelivered(); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return d.repo.Update(ctx, n)
}
