package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/repositories"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorderMetrics counts recorded metrics for assertions
type recorderMetrics struct {
	mu            sync.Mutex
	ingests       map[string]int
	retries       map[string]int
	notifications map[string]int
	subscriptions int
}

func newRecorderMetrics() *recorderMetrics {
	return &recorderMetrics{
		ingests:       make(map[string]int),
		retries:       make(map[string]int),
		notifications: make(map[string]int),
	}
}

func (m *recorderMetrics) RecordIngest(status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingests[status]++
}

func (m *recorderMetrics) RecordStorageRetry(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries[stage]++
}

func (m *recorderMetrics) RecordNotification(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[outcome]++
}

func (m *recorderMetrics) SetActiveSubscriptions(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = count
}

func (m *recorderMetrics) ingestCount(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ingests[status]
}

func (m *recorderMetrics) notificationCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications[outcome]
}

func (m *recorderMetrics) retryCount(stage string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retries[stage]
}

// captureBroadcaster records published events in publish order
type captureBroadcaster struct {
	mu     sync.Mutex
	events []*dto.TransactionResponse
}

func (b *captureBroadcaster) Subscribe(username string) *Subscription {
	return &Subscription{
		username: username,
		events:   make(chan *dto.TransactionResponse, 16),
		closeFn:  func() {},
	}
}

func (b *captureBroadcaster) Publish(_ string, event *dto.TransactionResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *captureBroadcaster) published() []*dto.TransactionResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*dto.TransactionResponse, len(b.events))
	copy(out, b.events)
	return out
}

// captureSink records events emitted to it
type captureSink struct {
	mu     sync.Mutex
	events []*dto.TransactionResponse
	closed bool
}

func (s *captureSink) Emit(_ string, event *dto.TransactionResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *captureSink) emitted() []*dto.TransactionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*dto.TransactionResponse, len(s.events))
	copy(out, s.events)
	return out
}

// stalledSink models a sink blocked on slow I/O, a broker that stopped
// acking for instance
type stalledSink struct {
	delay time.Duration

	mu     sync.Mutex
	events []*dto.TransactionResponse
}

func (s *stalledSink) Emit(_ string, event *dto.TransactionResponse) {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *stalledSink) Close() {}

func (s *stalledSink) emittedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// gatedSink blocks every Emit until the gate is released
type gatedSink struct {
	gate chan struct{}

	mu      sync.Mutex
	emitted int
}

func (s *gatedSink) Emit(string, *dto.TransactionResponse) {
	<-s.gate
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted++
}

func (s *gatedSink) Close() {}

// flakyLedgerRepo delegates to a real repository but fails the first
// failures calls to Append and Snapshot
type flakyLedgerRepo struct {
	repositories.LedgerRepositoryInterface

	mu             sync.Mutex
	appendFailures int
	appendErr      error
}

func (r *flakyLedgerRepo) Append(ctx context.Context, transaction *models.Transaction) error {
	r.mu.Lock()
	if r.appendFailures > 0 {
		r.appendFailures--
		err := r.appendErr
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()
	return r.LedgerRepositoryInterface.Append(ctx, transaction)
}

// countingLedgerRepo counts Snapshot calls to observe hydration behavior
type countingLedgerRepo struct {
	repositories.LedgerRepositoryInterface

	mu        sync.Mutex
	snapshots int
}

func (r *countingLedgerRepo) Snapshot(ctx context.Context, userID uuid.UUID) (models.CategorySummary, uint64, error) {
	r.mu.Lock()
	r.snapshots++
	r.mu.Unlock()
	return r.LedgerRepositoryInterface.Snapshot(ctx, userID)
}

func (r *countingLedgerRepo) snapshotCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots
}
