package messaging

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastDispatcher uses millisecond backoffs so retry tests stay quick.
func fastDispatcher() *Dispatcher {
	cfg := DefaultDispatcherConfig()
	cfg.RetryConfig = RetryConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
	cfg.DefaultTimeout = time.Second
	return NewDispatcher(cfg)
}

func TestDispatcher_SyncHandlerRuns(t *testing.T) {
	d := fastDispatcher()
	defer d.Stop()

	var got shared.Event
	require.NoError(t, d.RegisterSync(shared.EventLevelUp, "capture", func(e shared.Event) error {
		got = e
		return nil
	}))

	require.NoError(t, d.Dispatch(shared.NewLevelUpEvent("student-1", 4, 5, 1200)))
	require.NotNil(t, got)
	assert.Equal(t, "student-1", got.AggregateID())
}

func TestDispatcher_NoHandlersIsNoop(t *testing.T) {
	d := fastDispatcher()
	defer d.Stop()

	assert.NoError(t, d.Dispatch(shared.NewLevelUpEvent("student-1", 1, 2, 100)))
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	d := fastDispatcher()
	defer d.Stop()

	var attempts int
	require.NoError(t, d.RegisterSync(shared.EventStreakBroken, "flaky", func(shared.Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}))

	err := d.Dispatch(shared.NewStreakBrokenEvent("student-1", "login", 10, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	m := d.Metrics()
	assert.Equal(t, int64(1), m.RetrySuccesses)
}

func TestDispatcher_ExhaustedRetriesGoToDeadLetterQueue(t *testing.T) {
	d := fastDispatcher()
	defer d.Stop()

	errDown := errors.New("downstream down")
	require.NoError(t, d.RegisterSync(shared.EventLevelUp, "always_fails", func(shared.Event) error {
		return errDown
	}))

	err := d.Dispatch(shared.NewLevelUpEvent("student-1", 1, 2, 100))
	require.Error(t, err)

	dlq := d.DeadLetters()
	require.NotNil(t, dlq)
	require.Equal(t, 1, dlq.Size())

	entry, ok := dlq.Pop()
	require.True(t, ok)
	assert.Equal(t, "always_fails", entry.HandlerName)
	assert.ErrorIs(t, entry.Error, errDown)
	assert.Equal(t, 4, entry.Attempts) // initial + 3 retries
}

func TestDispatcher_RecoveryMiddlewareTurnsPanicIntoError(t *testing.T) {
	cfg := DefaultDispatcherConfig()
	cfg.DefaultRetries = 0
	cfg.DefaultTimeout = time.Second
	d := NewDispatcher(cfg)
	defer d.Stop()

	d.Use(RecoveryMiddleware(discardLogger()))

	require.NoError(t, d.RegisterSync(shared.EventLevelUp, "panics", func(shared.Event) error {
		panic("boom")
	}))

	err := d.Dispatch(shared.NewLevelUpEvent("student-1", 1, 2, 100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestDispatcher_HandlerTimeout(t *testing.T) {
	cfg := DefaultDispatcherConfig()
	cfg.DefaultRetries = 0
	d := NewDispatcher(cfg)
	defer d.Stop()

	require.NoError(t, d.RegisterHandler(shared.EventLevelUp, HandlerRegistration{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
		Handler: func(shared.Event) error {
			time.Sleep(200 * time.Millisecond)
			return nil
		},
	}))

	err := d.Dispatch(shared.NewLevelUpEvent("student-1", 1, 2, 100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestDispatcher_AttachReceivesBusEvents(t *testing.T) {
	d := fastDispatcher()
	defer d.Stop()

	var (
		mu   sync.Mutex
		seen []shared.EventType
	)
	require.NoError(t, d.RegisterSync(shared.EventXPAwarded, "track", func(e shared.Event) error {
		mu.Lock()
		seen = append(seen, e.EventType())
		mu.Unlock()
		return nil
	}))

	bus := newSyncBus()
	defer bus.Close()
	d.Attach(bus)

	require.NoError(t, bus.Publish(shared.NewXPAwardedEvent("student-1", 25, 25, "grade", "exam")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []shared.EventType{shared.EventXPAwarded}, seen)
}

func TestDispatcher_RegistrationValidation(t *testing.T) {
	d := fastDispatcher()
	defer d.Stop()

	assert.Error(t, d.RegisterHandler(shared.EventLevelUp, HandlerRegistration{
		Handler: func(shared.Event) error { return nil },
	}))
	assert.Error(t, d.RegisterHandler(shared.EventLevelUp, HandlerRegistration{
		Name: "nil_handler",
	}))
}

func TestDeadLetterQueue_EvictsOldestWhenFull(t *testing.T) {
	q := NewDeadLetterQueue(2)

	q.Add(DeadLetterEntry{HandlerName: "a"})
	q.Add(DeadLetterEntry{HandlerName: "b"})
	q.Add(DeadLetterEntry{HandlerName: "c"})

	entries := q.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].HandlerName)
	assert.Equal(t, "c", entries[1].HandlerName)
}
