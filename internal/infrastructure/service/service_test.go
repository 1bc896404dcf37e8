package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse-backend/internal/domain/notification"
	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

// ──────────────────────────────────────────────────────────────────────────────
// FAKES
// ──────────────────────────────────────────────────────────────────────────────

type memNotificationRepo struct {
	items map[string]*notification.Notification
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{items: make(map[string]*notification.Notification)}
}

func (r *memNotificationRepo) Create(_ context.Context, n *notification.Notification) error {
	r.items[n.ID] = n
	return nil
}

func (r *memNotificationRepo) Update(_ context.Context, n *notification.Notification) error {
	if _, ok := r.items[n.ID]; !ok {
		return errors.New("not found")
	}
	r.items[n.ID] = n
	return nil
}

func (r *memNotificationRepo) GetByID(_ context.Context, id string) (*notification.Notification, error) {
	n, ok := r.items[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return n, nil
}

func (r *memNotificationRepo) ListPending(_ context.Context, limit int) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, n := range r.items {
		if n.Status == notification.StatusPending || n.Status == notification.StatusQueued {
			out = append(out, n)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memNotificationRepo) ListByStudent(_ context.Context, studentID string, limit int) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, n := range r.items {
		if n.StudentID == studentID {
			out = append(out, n)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// flakyChannel fails the first failures deliveries, then succeeds.
type flakyChannel struct {
	failures  int
	retryable bool
	calls     int
}

func (c *flakyChannel) Type() notification.ChannelType {
	return notification.ChannelInApp
}

func (c *flakyChannel) Deliver(_ context.Context, n *notification.Notification) notification.DeliveryResult {
	c.calls++
	if c.calls <= c.failures {
		return notification.DeliveryResult{
			Channel:   notification.ChannelInApp,
			Success:   false,
			Err:       errors.New("feed unavailable"),
			Retryable: c.retryable,
		}
	}
	return notification.NewSuccessResult(notification.ChannelInApp, n.ID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func campusNoon() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, timeutil.CampusTZ)
}

func campusNight() time.Time {
	return time.Date(2026, 3, 10, 2, 30, 0, 0, timeutil.CampusTZ)
}

// ──────────────────────────────────────────────────────────────────────────────
// NOTIFICATION DISPATCHER
// ──────────────────────────────────────────────────────────────────────────────

func TestNotificationDispatcher_DeliversPendingBatch(t *testing.T) {
	repo := newMemNotificationRepo()
	ctx := context.Background()

	first, err := notification.ForLevelUp("n-1", "student-1", 5)
	require.NoError(t, err)
	second, err := notification.ForAchievement("n-2", "student-2", "first_blood", "First Blood", 50)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	d := NewNotificationDispatcher(repo, []notification.Channel{NewInAppChannel()}, testLogger(), DefaultDispatchConfig())
	d.now = campusNoon

	delivered, err := d.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)

	for _, id := range []string{"n-1", "n-2"} {
		n, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusDelivered, n.Status)
	}
}

func TestNotificationDispatcher_QuietHoursDeferLowPriority(t *testing.T) {
	repo := newMemNotificationRepo()
	ctx := context.Background()

	milestone, err := notification.ForStreakMilestone("n-1", "student-1", "login", 7)
	require.NoError(t, err)
	atRisk, err := notification.ForStreakAtRisk("n-2", "student-1", "login", 14)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, milestone))
	require.NoError(t, repo.Create(ctx, atRisk))

	d := NewNotificationDispatcher(repo, []notification.Channel{NewInAppChannel()}, testLogger(), DefaultDispatchConfig())
	d.now = campusNight

	delivered, err := d.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	deferred, err := repo.GetByID(ctx, "n-1")
	require.NoError(t, err)
	assert.Equal(t, notification.StatusPending, deferred.Status)

	urgent, err := repo.GetByID(ctx, "n-2")
	require.NoError(t, err)
	assert.Equal(t, notification.StatusDelivered, urgent.Status)
}

func TestNotificationDispatcher_RetryableFailureEventuallySucceeds(t *testing.T) {
	repo := newMemNotificationRepo()
	ctx := context.Background()

	n, err := notification.ForLevelUp("n-1", "student-1", 3)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, n))

	ch := &flakyChannel{failures: 1, retryable: true}
	d := NewNotificationDispatcher(repo, []notification.Channel{ch}, testLogger(), DefaultDispatchConfig())
	d.now = campusNoon

	delivered, err := d.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 2, ch.calls)

	stored, err := repo.GetByID(ctx, "n-1")
	require.NoError(t, err)
	assert.Equal(t, notification.StatusDelivered, stored.Status)
}

func TestNotificationDispatcher_PermanentFailureMarksFailed(t *testing.T) {
	repo := newMemNotificationRepo()
	ctx := context.Background()

	n, err := notification.ForLevelUp("n-1", "student-1", 3)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, n))

	ch := &flakyChannel{failures: 10, retryable: false}
	d := NewNotificationDispatcher(repo, []notification.Channel{ch}, testLogger(), DefaultDispatchConfig())
	d.now = campusNoon

	delivered, err := d.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
	assert.Equal(t, 1, ch.calls)

	stored, err := repo.GetByID(ctx, "n-1")
	require.NoError(t, err)
	assert.Equal(t, notification.StatusFailed, stored.Status)
	assert.NotEmpty(t, stored.FailReason)
}

func TestNotificationDispatcher_NoChannelRegistered(t *testing.T) {
	repo := newMemNotificationRepo()
	ctx := context.Background()

	n, err := notification.ForLevelUp("n-1", "student-1", 3)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, n))

	d := NewNotificationDispatcher(repo, nil, testLogger(), DefaultDispatchConfig())
	d.now = campusNoon

	delivered, err := d.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
}
