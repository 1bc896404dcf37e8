package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sync"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// EventStream is the bus surface the dispatcher attaches to. Both
// InMemoryEventBus and RedisEventBus satisfy it.
type EventStream interface {
	SubscribeAll(handler shared.EventHandler)
}

// Dispatcher routes events to named handlers with middleware, retry with
// exponential backoff, bounded concurrency and a dead letter queue for
// events whose handlers exhaust their retries. The worker process uses it
// to run notification handlers that must not silently drop events.
type Dispatcher struct {
	handlers    map[shared.EventType][]HandlerRegistration
	middlewares []Middleware
	retryConfig RetryConfig
	deadLetterQ *DeadLetterQueue
	logger      *slog.Logger
	workerPool  chan struct{}
	metrics     *DispatcherMetrics
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex

	defaultTimeout time.Duration
	defaultRetries int
}

// HandlerRegistration names a handler and its execution policy.
type HandlerRegistration struct {
	Name       string
	Handler    shared.EventHandler
	Async      bool
	MaxRetries int
	Timeout    time.Duration
}

// RetryConfig controls backoff between handler attempts.
type RetryConfig struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig returns 100ms initial backoff doubling up to 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
	}
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	WorkerPoolSize int
	RetryConfig    RetryConfig
	DeadLetterSize int
	Logger         *slog.Logger
	DefaultTimeout time.Duration
	DefaultRetries int
}

// DefaultDispatcherConfig returns production defaults: 8 workers, DLQ of
// 256 entries, 30s handler timeout, 3 retries.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		WorkerPoolSize: 8,
		RetryConfig:    DefaultRetryConfig(),
		DeadLetterSize: 256,
		DefaultTimeout: 30 * time.Second,
		DefaultRetries: 3,
	}
}

// NewDispatcher creates a dispatcher from config.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 8
	}
	if config.RetryConfig.Multiplier <= 1 {
		config.RetryConfig = DefaultRetryConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		handlers:    make(map[shared.EventType][]HandlerRegistration),
		retryConfig: config.RetryConfig,
		logger:      config.Logger,
		workerPool:  make(chan struct{}, config.WorkerPoolSize),
		metrics:     NewDispatcherMetrics(),
		ctx:         ctx,
		cancel:      cancel,
	}
	if config.DeadLetterSize > 0 {
		d.deadLetterQ = NewDeadLetterQueue(config.DeadLetterSize)
	}
	d.defaultTimeout = config.DefaultTimeout
	if d.defaultTimeout <= 0 {
		d.defaultTimeout = 30 * time.Second
	}
	d.defaultRetries = config.DefaultRetries
	return d
}

// RegisterHandler adds a handler with an explicit policy.
func (d *Dispatcher) RegisterHandler(eventType shared.EventType, reg HandlerRegistration) error {
	if reg.Name == "" {
		return fmt.Errorf("handler registration requires a name")
	}
	if reg.Handler == nil {
		return fmt.Errorf("handler registration %q has nil handler", reg.Name)
	}
	if reg.Timeout <= 0 {
		reg.Timeout = d.defaultTimeout
	}
	if reg.MaxRetries < 0 {
		reg.MaxRetries = 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], reg)
	return nil
}

// Register adds an async handler with default retry policy.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	return d.RegisterHandler(eventType, HandlerRegistration{
		Name:       name,
		Handler:    handler,
		Async:      true,
		MaxRetries: d.defaultRetries,
	})
}

// RegisterSync adds a handler executed inline during dispatch. Its error
// propagates back to the publisher.
func (d *Dispatcher) RegisterSync(eventType shared.EventType, name string, handler shared.EventHandler) error {
	return d.RegisterHandler(eventType, HandlerRegistration{
		Name:       name,
		Handler:    handler,
		MaxRetries: d.defaultRetries,
	})
}

// Use appends a middleware. Middlewares wrap handlers outermost-first in
// registration order.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// Attach subscribes the dispatcher to every event on the stream.
func (d *Dispatcher) Attach(stream EventStream) {
	stream.SubscribeAll(func(event shared.Event) error {
		return d.Dispatch(event)
	})
}

// Dispatch routes one event through middleware, retries and the DLQ.
func (d *Dispatcher) Dispatch(event shared.Event) error {
	d.mu.RLock()
	handlers := d.handlers[event.EventType()]
	middlewares := d.middlewares
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	d.metrics.RecordDispatch(event.EventType())

	var wg sync.WaitGroup
	var syncErrs []error
	var syncMu sync.Mutex

	for _, reg := range handlers {
		if reg.Async {
			wg.Add(1)
			go func(r HandlerRegistration) {
				defer wg.Done()
				if err := d.executeHandler(event, r, middlewares); err != nil {
					d.logger.Error("async handler exhausted retries",
						slog.String("handler", r.Name),
						slog.String("event_type", string(event.EventType())),
						slog.String("error", err.Error()),
					)
				}
			}(reg)
			continue
		}
		if err := d.executeHandler(event, reg, middlewares); err != nil {
			syncMu.Lock()
			syncErrs = append(syncErrs, err)
			syncMu.Unlock()
		}
	}

	wg.Wait()

	if len(syncErrs) > 0 {
		return fmt.Errorf("sync handler errors: %v", syncErrs)
	}
	return nil
}

func (d *Dispatcher) executeHandler(event shared.Event, reg HandlerRegistration, middlewares []Middleware) error {
	select {
	case d.workerPool <- struct{}{}:
		defer func() { <-d.workerPool }()
	case <-d.ctx.Done():
		return d.ctx.Err()
	}

	handler := reg.Handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	var lastErr error
	for attempt := 0; attempt <= reg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := d.calculateBackoff(attempt)
			select {
			case <-d.ctx.Done():
				return d.ctx.Err()
			case <-time.After(backoff):
			}
		}

		start := time.Now()
		err := d.executeWithTimeout(handler, event, reg.Timeout)
		d.metrics.RecordExecution(event.EventType(), time.Since(start), err == nil)
		if err == nil {
			if attempt > 0 {
				d.metrics.RecordRetrySuccess(event.EventType())
			}
			return nil
		}

		lastErr = err
		d.logger.Warn("handler attempt failed",
			slog.String("handler", reg.Name),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}

	if d.deadLetterQ != nil {
		d.deadLetterQ.Add(DeadLetterEntry{
			Event:       event,
			HandlerName: reg.Name,
			Error:       lastErr,
			Attempts:    reg.MaxRetries + 1,
			FailedAt:    time.Now(),
		})
	}

	d.metrics.RecordFailure(event.EventType())
	return fmt.Errorf("handler %s failed after %d attempts: %w", reg.Name, reg.MaxRetries+1, lastErr)
}

func (d *Dispatcher) executeWithTimeout(handler shared.EventHandler, event shared.Event, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- handler(event)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("handler timeout after %v", timeout)
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

func (d *Dispatcher) calculateBackoff(attempt int) time.Duration {
	backoff := float64(d.retryConfig.InitialBackoff) * math.Pow(d.retryConfig.Multiplier, float64(attempt-1))
	if backoff > float64(d.retryConfig.MaxBackoff) {
		backoff = float64(d.retryConfig.MaxBackoff)
	}
	return time.Duration(backoff)
}

// DeadLetters returns the dead letter queue, nil when disabled.
func (d *Dispatcher) DeadLetters() *DeadLetterQueue {
	return d.deadLetterQ
}

// Metrics returns a snapshot of dispatcher counters.
func (d *Dispatcher) Metrics() DispatcherMetricsSnapshot {
	return d.metrics.Snapshot()
}

// Stop cancels in-flight retries and timeouts.
func (d *Dispatcher) Stop() {
	d.cancel()
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps an event handler.
type Middleware func(shared.EventHandler) shared.EventHandler

// RecoveryMiddleware converts handler panics into errors.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic recovered",
						slog.String("event_type", string(event.EventType())),
						slog.String("panic", fmt.Sprintf("%v", r)),
						slog.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("handler panicked: %v", r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs every handler execution with its duration.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			attrs := []any{
				slog.String("event_type", string(event.EventType())),
				slog.String("aggregate_id", event.AggregateID()),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.Warn("event handled with error", attrs...)
				return err
			}
			logger.Debug("event handled", attrs...)
			return nil
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry records an event whose handler exhausted its retries.
type DeadLetterEntry struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue is a bounded in-memory queue of failed deliveries.
// When full, the oldest entry is dropped.
type DeadLetterQueue struct {
	entries []DeadLetterEntry
	maxSize int
	mu      sync.Mutex
}

// NewDeadLetterQueue creates a queue holding at most maxSize entries.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add appends an entry, evicting the oldest when full.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of all queued entries.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]DeadLetterEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Size returns the number of queued entries.
func (q *DeadLetterQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Pop removes and returns the oldest entry.
func (q *DeadLetterQueue) Pop() (DeadLetterEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return DeadLetterEntry{}, false
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	return entry, true
}

// Clear drops all entries.
func (q *DeadLetterQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER METRICS
// ══════════════════════════════════════════════════════════════════════════════

// DispatcherMetrics tracks per-event-type dispatch counters.
type DispatcherMetrics struct {
	dispatches     map[shared.EventType]int64
	executions     int64
	failures       int64
	retrySuccesses int64
	totalTime      time.Duration
	mu             sync.Mutex
}

// NewDispatcherMetrics creates zeroed metrics.
func NewDispatcherMetrics() *DispatcherMetrics {
	return &DispatcherMetrics{
		dispatches: make(map[shared.EventType]int64),
	}
}

// RecordDispatch counts one routed event.
func (m *DispatcherMetrics) RecordDispatch(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatches[eventType]++
}

// RecordExecution counts one handler attempt.
func (m *DispatcherMetrics) RecordExecution(eventType shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions++
	m.totalTime += duration
	if !success {
		m.failures++
	}
}

// RecordRetrySuccess counts a handler that succeeded after retrying.
func (m *DispatcherMetrics) RecordRetrySuccess(shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrySuccesses++
}

// RecordFailure counts a handler that exhausted all retries.
func (m *DispatcherMetrics) RecordFailure(shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

// Snapshot returns an immutable view of the counters.
func (m *DispatcherMetrics) Snapshot() DispatcherMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	dispatches := make(map[shared.EventType]int64, len(m.dispatches))
	for k, v := range m.dispatches {
		dispatches[k] = v
	}
	s := DispatcherMetricsSnapshot{
		Dispatches:     dispatches,
		Executions:     m.executions,
		Failures:       m.failures,
		RetrySuccesses: m.retrySuccesses,
	}
	if m.executions > 0 {
		s.AvgExecutionTime = m.totalTime / time.Duration(m.executions)
	}
	return s
}

// DispatcherMetricsSnapshot is an immutable view of DispatcherMetrics.
type DispatcherMetricsSnapshot struct {
	Dispatches       map[shared.EventType]int64
	Executions       int64
	Failures         int64
	RetrySuccesses   int64
	AvgExecutionTime time.Duration
}
