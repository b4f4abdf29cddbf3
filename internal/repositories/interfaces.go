package repositories

import (
	"context"

	"fintrack/internal/models"

	"github.com/google/uuid"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// LedgerRepositoryInterface defines the contract for the append-only ledger.
// Append assigns the per-user sequence number; concurrent appends for the
// same user must be externally serialized by the caller so the sequence is a
// total order (the ingestion service holds the per-user lock).
type LedgerRepositoryInterface interface {
	Append(ctx context.Context, transaction *models.Transaction) error
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Transaction, int64, error)
	Snapshot(ctx context.Context, userID uuid.UUID) (models.CategorySummary, uint64, error)
}
