package services

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/models"
	"fintrack/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregator maintains per-user category running totals derived from the
// ledger. Each user has an independent entry with its own mutex, so updates
// for unrelated users never contend. Totals are held in memory and hydrated
// lazily from the ledger, which keeps Apply at O(1) and survives restarts
// without a separate persisted rollup.
type Aggregator struct {
	ledgerRepo repositories.LedgerRepositoryInterface

	mu      sync.Mutex
	entries map[uuid.UUID]*aggregateEntry
}

// aggregateEntry is one user's accumulator. lastSeq is the hydration
// watermark: Apply skips any sequence at or below it, so a hydration that
// already saw a freshly appended row cannot be double-counted by the apply
// that follows it.
type aggregateEntry struct {
	mu       sync.Mutex
	hydrated bool
	lastSeq  uint64
	totals   models.CategorySummary
}

// NewAggregator creates a new aggregator backed by the given ledger
func NewAggregator(ledgerRepo repositories.LedgerRepositoryInterface) AggregatorInterface {
	return &Aggregator{
		ledgerRepo: ledgerRepo,
		entries:    make(map[uuid.UUID]*aggregateEntry),
	}
}

// Get returns a copy of the user's category summary, hydrating the entry
// from the ledger on first access. A user with no transactions yields an
// empty summary, not an error.
func (a *Aggregator) Get(ctx context.Context, userID uuid.UUID) (models.CategorySummary, error) {
	entry := a.entry(userID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := a.hydrateLocked(ctx, userID, entry); err != nil {
		return nil, err
	}

	return entry.totals.Clone(), nil
}

// Apply folds one persisted ledger entry into the user's running totals.
// The caller must call Apply exactly once per appended row; entries already
// covered by hydration are skipped via the sequence watermark.
func (a *Aggregator) Apply(ctx context.Context, userID uuid.UUID, category string, amount decimal.Decimal, seq uint64) error {
	entry := a.entry(userID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := a.hydrateLocked(ctx, userID, entry); err != nil {
		return err
	}

	if seq <= entry.lastSeq {
		// Hydration already summed this row.
		return nil
	}

	entry.totals.Add(category, amount)
	entry.lastSeq = seq

	return nil
}

// Invalidate discards the cached totals for a user. The next Get or Apply
// re-hydrates from the ledger, which is the source of truth.
func (a *Aggregator) Invalidate(userID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, userID)
}

// entry returns the per-user accumulator, creating it if absent. The global
// map lock is held only for the lookup, never during hydration or updates.
func (a *Aggregator) entry(userID uuid.UUID) *aggregateEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.entries[userID]
	if !ok {
		entry = &aggregateEntry{totals: make(models.CategorySummary)}
		a.entries[userID] = entry
	}

	return entry
}

// hydrateLocked loads the user's totals and sequence watermark from the
// ledger. Caller holds entry.mu.
func (a *Aggregator) hydrateLocked(ctx context.Context, userID uuid.UUID, entry *aggregateEntry) error {
	if entry.hydrated {
		return nil
	}

	totals, maxSeq, err := a.ledgerRepo.Snapshot(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to hydrate aggregate: %w", err)
	}

	entry.totals = totals
	entry.lastSeq = maxSeq
	entry.hydrated = true

	return nil
}
