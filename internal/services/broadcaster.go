package services

import (
	"log/slog"
	"sync"

	"fintrack/internal/dto"

	"github.com/google/uuid"
)

// Subscription is a live event feed for a single username. Events arrives in
// publish order; when the buffer is full the oldest pending events are not
// evicted, the new event is dropped for this subscriber instead.
type Subscription struct {
	id       uuid.UUID
	username string
	events   chan *dto.TransactionResponse
	closeFn  func()
	once     sync.Once

	mu     sync.Mutex
	closed bool
}

// send attempts a non-blocking delivery. Returns false when the buffer is
// full or the subscription is already closed.
func (s *Subscription) send(event *dto.TransactionResponse) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.events <- event:
		return true
	default:
		return false
	}
}

// Events returns the channel delivering transaction events for this
// subscription. The channel is closed after Close.
func (s *Subscription) Events() <-chan *dto.TransactionResponse {
	return s.events
}

// Username returns the username this subscription is bound to.
func (s *Subscription) Username() string {
	return s.username
}

// Close unregisters the subscription and closes its event channel.
// Safe to call multiple times.
func (s *Subscription) Close() {
	s.once.Do(s.closeFn)
}

// sinkQueueDepth bounds the number of events waiting for sink delivery.
// When a sink stalls (a slow broker, say) the queue absorbs the burst and
// overflow is dropped; sinks are best-effort like subscribers.
const sinkQueueDepth = 256

type sinkEvent struct {
	username string
	event    *dto.TransactionResponse
}

// Broadcaster fans out transaction events to per-user subscribers and to
// optional event sinks. Publishing never blocks the caller: slow subscribers
// lose events rather than stalling ingestion, and sink delivery runs on its
// own drain goroutine so sink latency never reaches the publisher.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[uuid.UUID]*Subscription
	closed      bool

	sinks     []EventSink
	sinkQueue chan sinkEvent
	drained   chan struct{}

	bufferSize int
	metrics    MetricsRecorderInterface
	logger     *slog.Logger
}

// NewBroadcaster creates a broadcaster with the given per-subscriber channel
// buffer size. Sinks receive a copy of every published event regardless of
// whether any subscriber is registered.
func NewBroadcaster(bufferSize int, metrics MetricsRecorderInterface, logger *slog.Logger, sinks ...EventSink) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = 16
	}

	b := &Broadcaster{
		subscribers: make(map[string]map[uuid.UUID]*Subscription),
		sinks:       sinks,
		bufferSize:  bufferSize,
		metrics:     metrics,
		logger:      logger,
	}

	if len(sinks) > 0 {
		b.sinkQueue = make(chan sinkEvent, sinkQueueDepth)
		b.drained = make(chan struct{})
		go b.drainSinks()
	}

	return b
}

// Subscribe registers a new event feed for username. The caller must Close
// the subscription when done or the registry leaks.
func (b *Broadcaster) Subscribe(username string) *Subscription {
	sub := &Subscription{
		id:       uuid.New(),
		username: username,
		events:   make(chan *dto.TransactionResponse, b.bufferSize),
	}
	sub.closeFn = func() {
		b.unsubscribe(sub)

		sub.mu.Lock()
		sub.closed = true
		close(sub.events)
		sub.mu.Unlock()
	}

	b.mu.Lock()
	set, ok := b.subscribers[username]
	if !ok {
		set = make(map[uuid.UUID]*Subscription)
		b.subscribers[username] = set
	}
	set[sub.id] = sub
	total := b.countLocked()
	b.mu.Unlock()

	b.metrics.SetActiveSubscriptions(total)
	b.logger.Debug("subscriber registered", "username", username, "subscription_id", sub.id)

	return sub
}

// Publish delivers the event to every subscriber of username and queues it
// for the sinks. Delivery to a subscriber whose buffer is full is dropped
// and recorded; the subscriber catches up by re-reading the summary.
func (b *Broadcaster) Publish(username string, event *dto.TransactionResponse) {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subscribers[username]))
	for _, sub := range b.subscribers[username] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.send(event) {
			b.metrics.RecordNotification("delivered")
		} else {
			b.metrics.RecordNotification("dropped")
			b.logger.Warn("subscriber buffer full, event dropped",
				"username", username,
				"subscription_id", sub.id,
				"seq", event.Seq)
		}
	}

	b.enqueueSink(username, event)
}

// enqueueSink hands the event to the drain goroutine without blocking.
// The closed check and the send share the read lock so no enqueue can race
// Shutdown closing the queue.
func (b *Broadcaster) enqueueSink(username string, event *dto.TransactionResponse) {
	if b.sinkQueue == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	select {
	case b.sinkQueue <- sinkEvent{username: username, event: event}:
	default:
		b.metrics.RecordNotification("relay_dropped")
		b.logger.Warn("sink queue full, event dropped",
			"username", username,
			"seq", event.Seq)
	}
}

// drainSinks delivers queued events to every sink, one at a time. A stalled
// sink delays later sink deliveries, never the publishers.
func (b *Broadcaster) drainSinks() {
	for ev := range b.sinkQueue {
		for _, sink := range b.sinks {
			sink.Emit(ev.username, ev.event)
		}
	}
	close(b.drained)
}

// Shutdown closes every subscription, flushes the sink queue, then closes
// every sink.
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	all := make([]*Subscription, 0)
	for _, set := range b.subscribers {
		for _, sub := range set {
			all = append(all, sub)
		}
	}
	b.closed = true
	b.mu.Unlock()

	for _, sub := range all {
		sub.Close()
	}

	if b.sinkQueue != nil {
		close(b.sinkQueue)
		<-b.drained
	}

	for _, sink := range b.sinks {
		sink.Close()
	}
}

func (b *Broadcaster) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	if set, ok := b.subscribers[sub.username]; ok {
		delete(set, sub.id)
		if len(set) == 0 {
			delete(b.subscribers, sub.username)
		}
	}
	total := b.countLocked()
	b.mu.Unlock()

	b.metrics.SetActiveSubscriptions(total)
}

// countLocked returns the total live subscription count. Caller holds b.mu.
func (b *Broadcaster) countLocked() int {
	total := 0
	for _, set := range b.subscribers {
		total += len(set)
	}
	return total
}
