package messaging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestInMemoryEventBus_PublishReachesSubscriber(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var got []shared.Event
	bus.Subscribe(shared.EventLevelUp, func(e shared.Event) error {
		got = append(got, e)
		return nil
	})

	err := bus.Publish(shared.NewLevelUpEvent("student-1", 2, 3, 450))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, shared.EventLevelUp, got[0].EventType())
	assert.Equal(t, "student-1", got[0].AggregateID())
}

func TestInMemoryEventBus_OnlyMatchingTypeIsInvoked(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var levelUps, streaks int
	bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		levelUps++
		return nil
	})
	bus.Subscribe(shared.EventStreakExtended, func(shared.Event) error {
		streaks++
		return nil
	})

	require.NoError(t, bus.Publish(shared.NewStreakExtendedEvent("student-1", "login", 3, 5)))

	assert.Equal(t, 0, levelUps)
	assert.Equal(t, 1, streaks)
}

func TestInMemoryEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var seen []shared.EventType
	bus.SubscribeAll(func(e shared.Event) error {
		seen = append(seen, e.EventType())
		return nil
	})

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("student-1", 1, 2, 150)))
	require.NoError(t, bus.Publish(shared.NewStreakBrokenEvent("student-1", "login", 9, 2)))

	assert.Equal(t, []shared.EventType{shared.EventLevelUp, shared.EventStreakBroken}, seen)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var calls int
	bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		calls++
		return nil
	})
	bus.Unsubscribe(shared.EventLevelUp)

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("student-1", 1, 2, 150)))
	assert.Equal(t, 0, calls)
}

func TestInMemoryEventBus_SyncErrorsAreJoined(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	errBoom := errors.New("boom")
	bus.Subscribe(shared.EventLevelUp, func(shared.Event) error { return errBoom })
	bus.Subscribe(shared.EventLevelUp, func(shared.Event) error { return nil })

	err := bus.Publish(shared.NewLevelUpEvent("student-1", 1, 2, 150))
	assert.ErrorIs(t, err, errBoom)
}

func TestInMemoryEventBus_PanicInHandlerIsRecovered(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		panic("handler bug")
	})

	err := bus.Publish(shared.NewLevelUpEvent("student-1", 1, 2, 150))
	assert.Error(t, err)
}

func TestInMemoryEventBus_PublishAfterCloseFails(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewLevelUpEvent("student-1", 1, 2, 150))
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestInMemoryEventBus_AsyncDeliversAll(t *testing.T) {
	cfg := DefaultEventBusConfig()
	cfg.AsyncMode = true
	cfg.WorkerPoolSize = 4
	bus := NewInMemoryEventBus(cfg)

	const total = 50
	var (
		mu    sync.Mutex
		count int
	)
	bus.Subscribe(shared.EventXPAwarded, func(shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	for i := 0; i < total; i++ {
		require.NoError(t, bus.Publish(shared.NewXPAwardedEvent("student-1", 10, 10*(i+1), "attendance", "class")))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, total, count)
}

func TestInMemoryEventBus_Metrics(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	bus.Subscribe(shared.EventLevelUp, func(shared.Event) error { return nil })
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("student-1", 1, 2, 150)))

	m := bus.Metrics()
	assert.Equal(t, int64(1), m.Published)
	assert.Equal(t, int64(1), m.Handled)
	assert.Equal(t, int64(0), m.Failed)
}
