package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownUser      = errors.New("unknown user")
	ErrInvalidInput     = errors.New("invalid transaction input")
	ErrStorageExhausted = errors.New("storage failed after retries")
)

// IngestionService validates and persists incoming transactions, keeps the
// aggregator in step with the ledger, and hands the committed entry to the
// broadcaster. A per-user mutex serializes the append -> apply -> publish
// pipeline so that summary readers never observe a ledger row without its
// aggregate update, and per-user notification order always equals durable
// append order. Different users' submissions proceed independently.
type IngestionService struct {
	userRepo    repositories.UserRepositoryInterface
	ledgerRepo  repositories.LedgerRepositoryInterface
	aggregator  AggregatorInterface
	broadcaster BroadcasterInterface
	metrics     MetricsRecorderInterface
	retry       RetryConfig
	logger      *slog.Logger

	userLocks sync.Map // uuid.UUID -> *sync.Mutex
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	userRepo repositories.UserRepositoryInterface,
	ledgerRepo repositories.LedgerRepositoryInterface,
	aggregator AggregatorInterface,
	broadcaster BroadcasterInterface,
	metrics MetricsRecorderInterface,
	retry RetryConfig,
	logger *slog.Logger,
) IngestionServiceInterface {
	return &IngestionService{
		userRepo:    userRepo,
		ledgerRepo:  ledgerRepo,
		aggregator:  aggregator,
		broadcaster: broadcaster,
		metrics:     metrics,
		retry:       retry,
		logger:      logger,
	}
}

// Submit validates and ingests one transaction for a user. Validation
// failures happen before any write and leave no side effects. After the
// ledger append commits the transaction is final: a failed aggregate update
// is retried (the ledger is never un-appended) and a failed broadcast never
// surfaces to the caller.
func (s *IngestionService) Submit(ctx context.Context, username, category string, amount decimal.Decimal) (*models.Transaction, error) {
	start := time.Now()

	category = strings.TrimSpace(category)
	if category == "" || len(category) > models.MaxCategoryLength {
		s.metrics.RecordIngest("invalid_input", time.Since(start))
		return nil, ErrInvalidInput
	}

	if err := models.ValidateAmount(amount); err != nil {
		s.metrics.RecordIngest("invalid_input", time.Since(start))
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.metrics.RecordIngest("unknown_user", time.Since(start))
			return nil, ErrUnknownUser
		}
		s.metrics.RecordIngest("error", time.Since(start))
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	lock := s.userLock(user)
	lock.Lock()
	defer lock.Unlock()

	// The caller's deadline applies up to the durable write only. Once the
	// append commits there is no rollback, so a late caller still gets the
	// committed transaction back.
	if err := ctx.Err(); err != nil {
		s.metrics.RecordIngest("canceled", time.Since(start))
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:   user.ID,
		Category: category,
		Amount:   amount,
	}

	if err := withRetry(ctx, s.retry, func() { s.metrics.RecordStorageRetry("append") }, func() error {
		return s.ledgerRepo.Append(ctx, transaction)
	}); err != nil {
		s.metrics.RecordIngest("storage_error", time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrStorageExhausted, err)
	}

	// Derived state must converge: retry the aggregate update without the
	// caller's deadline, then fall back to dropping the in-memory entry so
	// the next read re-hydrates from the ledger.
	if err := withRetry(context.Background(), s.retry, func() { s.metrics.RecordStorageRetry("apply") }, func() error {
		return s.aggregator.Apply(context.Background(), user.ID, transaction.Category, transaction.Amount, transaction.Seq)
	}); err != nil {
		s.logger.Error("aggregate update failed after retries, invalidating cached totals",
			"error", err,
			"user_id", user.ID,
			"transaction_id", transaction.ID,
			"seq", transaction.Seq)
		s.aggregator.Invalidate(user.ID)
		s.metrics.RecordIngest("aggregate_degraded", time.Since(start))
	}

	s.broadcaster.Publish(user.Username, dto.NewTransactionResponse(transaction, user.Username))

	s.metrics.RecordIngest("ok", time.Since(start))
	return transaction, nil
}

// userLock returns the mutex serializing this user's ingestion pipeline
func (s *IngestionService) userLock(user *models.User) *sync.Mutex {
	actual, _ := s.userLocks.LoadOrStore(user.ID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
