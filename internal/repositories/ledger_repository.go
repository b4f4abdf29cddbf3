package repositories

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNilTransaction = errors.New("transaction cannot be nil")
)

// ledgerRepository implements LedgerRepositoryInterface over an append-only
// transactions table. Rows are never updated or deleted.
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepositoryInterface {
	return &ledgerRepository{
		db: db,
	}
}

// Append durably persists a new ledger entry and assigns its per-user
// sequence number. The insert and the sequence read run in one database
// transaction; on any error nothing is visible to other readers. The unique
// (user_id, seq) index rejects the write if an unserialized concurrent
// append slipped past the caller's per-user lock.
func (r *ledgerRepository) Append(ctx context.Context, transaction *models.Transaction) error {
	if transaction == nil {
		return ErrNilTransaction
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq uint64
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ?", transaction.UserID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("failed to read ledger sequence: %w", err)
		}

		transaction.Seq = maxSeq + 1

		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to append transaction: %w", err)
		}

		return nil
	})
}

// ListByUser retrieves one page of a user's ledger in append (seq) order.
// Used for audits and recovery; summary queries go through the aggregator.
func (r *ledgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Transaction, int64, error) {
	var transactions []models.Transaction
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Offset(offset).Limit(limit).
		Order("seq ASC").
		Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, total, nil
}

// Snapshot computes the grouped category totals for a user together with
// the highest sequence number the totals cover. Both come out of a single
// statement so the watermark is always consistent with the sums even while
// appends land concurrently. This is the aggregator's hydration path after
// a restart, not a hot-path query.
func (r *ledgerRepository) Snapshot(ctx context.Context, userID uuid.UUID) (models.CategorySummary, uint64, error) {
	var rows []struct {
		Category string
		Total    decimal.Decimal
		MaxSeq   uint64
	}

	if err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("category, COALESCE(SUM(amount), 0) as total, COALESCE(MAX(seq), 0) as max_seq").
		Where("user_id = ?", userID).
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to snapshot ledger: %w", err)
	}

	summary := make(models.CategorySummary, len(rows))
	var maxSeq uint64
	for _, row := range rows {
		summary[row.Category] = row.Total
		if row.MaxSeq > maxSeq {
			maxSeq = row.MaxSeq
		}
	}

	return summary, maxSeq, nil
}
