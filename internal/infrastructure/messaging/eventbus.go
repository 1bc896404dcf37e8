// Package messaging implements event bus functionality for StudyPulse.
// It provides both in-memory and Redis-based event buses so gamification
// side effects (notifications, projections, leaderboard rebuilds) stay
// decoupled from the command handlers that produce them.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// ErrBusClosed is returned when publishing to a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// InMemoryEventBus is a synchronous-or-async event bus backed by a map of
// handlers. It satisfies shared.EventBus and is the default bus for a single
// process deployment.
type InMemoryEventBus struct {
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	asyncMode   bool
	workerPool  chan struct{}
	logger      *slog.Logger
	metrics     *EventBusMetrics
	wg          sync.WaitGroup
	mu          sync.RWMutex
	closed      bool
}

// EventBusConfig configures an InMemoryEventBus.
type EventBusConfig struct {
	// AsyncMode executes handlers in goroutines instead of inline.
	AsyncMode bool

	// WorkerPoolSize bounds concurrent handler executions in async mode.
	WorkerPoolSize int

	// Logger for handler errors and panics.
	Logger *slog.Logger
}

// DefaultEventBusConfig returns sensible defaults: async execution with a
// small worker pool.
func DefaultEventBusConfig() EventBusConfig {
	return EventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 16,
	}
}

// NewInMemoryEventBus creates a bus from config.
func NewInMemoryEventBus(config EventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 16
	}

	return &InMemoryEventBus{
		handlers:   make(map[shared.EventType][]shared.EventHandler),
		asyncMode:  config.AsyncMode,
		workerPool: make(chan struct{}, config.WorkerPoolSize),
		logger:     config.Logger,
		metrics:    &EventBusMetrics{},
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler that receives every published event.
// Useful for audit trails and projections.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
}

// Unsubscribe removes every handler for the given event type.
func (b *InMemoryEventBus) Unsubscribe(eventType shared.EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, eventType)
}

// Publish delivers the event to all matching handlers. In async mode the
// call returns immediately and handler errors are logged, not returned.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	b.metrics.recordPublished()

	if len(handlers) == 0 {
		return nil
	}

	if b.asyncMode {
		for _, h := range handlers {
			b.executeAsync(event, h)
		}
		return nil
	}

	var errs []error
	for _, h := range handlers {
		if err := b.executeSync(event, h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		b.workerPool <- struct{}{}
		defer func() { <-b.workerPool }()

		if err := b.executeSync(event, handler); err != nil {
			b.logger.Error("event handler failed",
				slog.String("event_type", string(event.EventType())),
				slog.String("aggregate_id", event.AggregateID()),
				slog.String("error", err.Error()),
			)
		}
	}()
}

func (b *InMemoryEventBus) executeSync(event shared.Event, handler shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
			b.logger.Error("event handler panic",
				slog.String("event_type", string(event.EventType())),
				slog.String("panic", fmt.Sprintf("%v", r)),
				slog.String("stack", string(debug.Stack())),
			)
			b.metrics.recordPanic()
		}
	}()

	start := time.Now()
	err = handler(event)
	b.metrics.recordHandled(time.Since(start), err)
	return err
}

// Close waits for in-flight async handlers and rejects further publishes.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// Metrics returns a snapshot of bus counters.
func (b *InMemoryEventBus) Metrics() EventBusMetricsSnapshot {
	return b.metrics.snapshot()
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics tracks publish and handler counters atomically.
type EventBusMetrics struct {
	published   atomic.Int64
	handled     atomic.Int64
	failed      atomic.Int64
	panics      atomic.Int64
	totalTimeNs atomic.Int64
}

// EventBusMetricsSnapshot is an immutable view of EventBusMetrics.
type EventBusMetricsSnapshot struct {
	Published      int64
	Handled        int64
	Failed         int64
	Panics         int64
	AvgHandlerTime time.Duration
}

func (m *EventBusMetrics) recordPublished() {
	m.published.Add(1)
}

func (m *EventBusMetrics) recordHandled(d time.Duration, err error) {
	m.handled.Add(1)
	m.totalTimeNs.Add(int64(d))
	if err != nil {
		m.failed.Add(1)
	}
}

func (m *EventBusMetrics) recordPanic() {
	m.panics.Add(1)
}

func (m *EventBusMetrics) snapshot() EventBusMetricsSnapshot {
	s := EventBusMetricsSnapshot{
		Published: m.published.Load(),
		Handled:   m.handled.Load(),
		Failed:    m.failed.Load(),
		Panics:    m.panics.Load(),
	}
	if s.Handled > 0 {
		s.AvgHandlerTime = time.Duration(m.totalTimeNs.Load() / s.Handled)
	}
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// channelPrefix namespaces StudyPulse pub/sub channels.
const channelPrefix = "studypulse:events:"

// RedisEventBus bridges the local bus to Redis pub/sub so multiple processes
// (server + worker) observe the same event stream. Local subscribers are
// backed by an embedded InMemoryEventBus; Publish fans out both locally and
// over the wire.
type RedisEventBus struct {
	client *redis.Client
	local  *InMemoryEventBus
	origin string
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	sub    *redis.PubSub
	mu     sync.Mutex
	closed bool
}

// NewRedisEventBus creates a bus over an existing Redis client.
func NewRedisEventBus(client *redis.Client, config EventBusConfig) *RedisEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		local:  NewInMemoryEventBus(config),
		origin: uuid.NewString(),
		logger: config.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Subscribe registers a local handler. The remote subscription is started
// lazily on first Start call.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) {
	b.local.Subscribe(eventType, handler)
}

// SubscribeAll registers a local catch-all handler.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) {
	b.local.SubscribeAll(handler)
}

// Unsubscribe removes local handlers for the event type.
func (b *RedisEventBus) Unsubscribe(eventType shared.EventType) {
	b.local.Unsubscribe(eventType)
}

// Publish delivers locally and broadcasts an envelope over Redis.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if err := b.local.Publish(event); err != nil {
		return err
	}

	envelope := shared.EventEnvelope{
		ID:          uuid.NewString(),
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Origin:      b.origin,
		OccurredAt:  event.OccurredAt(),
	}
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	envelope.Payload = payload

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	channel := channelPrefix + string(event.EventType())
	if err := b.client.Publish(b.ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

// Start subscribes to all StudyPulse channels and relays remote events into
// the local bus. Envelopes published by this process carry its origin ID and
// are dropped by the relay; handlers already saw them at publish time.
func (b *RedisEventBus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		return nil
	}

	b.sub = b.client.PSubscribe(b.ctx, channelPrefix+"*")
	ch := b.sub.Channel()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range ch {
			b.relay(msg)
		}
	}()
	return nil
}

func (b *RedisEventBus) relay(msg *redis.Message) {
	var envelope shared.EventEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
		b.logger.Warn("dropping malformed event envelope",
			slog.String("channel", msg.Channel),
			slog.String("error", err.Error()),
		)
		return
	}

	// Our own publish already ran the local handlers.
	if envelope.Origin == b.origin {
		return
	}

	event := RemoteEvent{envelope: envelope}
	if err := b.local.Publish(event); err != nil {
		b.logger.Error("relay remote event",
			slog.String("event_type", string(envelope.Type)),
			slog.String("error", err.Error()),
		)
	}
}

// Close stops the relay goroutine and closes the local bus.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sub := b.sub
	b.mu.Unlock()

	b.cancel()
	if sub != nil {
		_ = sub.Close()
	}
	b.wg.Wait()
	return b.local.Close()
}

// ══════════════════════════════════════════════════════════════════════════════
// REMOTE EVENT
// ══════════════════════════════════════════════════════════════════════════════

// RemoteEvent is an event reconstructed from a Redis envelope. Handlers that
// need the typed payload unmarshal Data themselves.
type RemoteEvent struct {
	envelope shared.EventEnvelope
}

// EventType returns the original event type.
func (e RemoteEvent) EventType() shared.EventType {
	return e.envelope.Type
}

// OccurredAt returns the original event timestamp.
func (e RemoteEvent) OccurredAt() time.Time {
	return e.envelope.OccurredAt
}

// AggregateID returns the originating aggregate ID.
func (e RemoteEvent) AggregateID() string {
	return e.envelope.AggregateID
}

// Payload unpacks the raw envelope payload.
func (e RemoteEvent) Payload() map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(e.envelope.Payload, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}

// Data exposes the raw payload bytes for typed decoding.
func (e RemoteEvent) Data() json.RawMessage {
	return e.envelope.Payload
}
