package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/models"
	"fintrack/internal/repositories"
)

// QueryService answers read-only requests against the ledger and the
// derived category totals.
type QueryService struct {
	userRepo   repositories.UserRepositoryInterface
	ledgerRepo repositories.LedgerRepositoryInterface
	aggregator AggregatorInterface
	logger     *slog.Logger
}

// NewQueryService creates a new query service
func NewQueryService(
	userRepo repositories.UserRepositoryInterface,
	ledgerRepo repositories.LedgerRepositoryInterface,
	aggregator AggregatorInterface,
	logger *slog.Logger,
) QueryServiceInterface {
	return &QueryService{
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Summarize returns the per-category totals for a user. A user with no
// transactions gets an empty summary, not an error.
func (s *QueryService) Summarize(ctx context.Context, username string) (models.CategorySummary, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	summary, err := s.aggregator.Get(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to read aggregate", "error", err, "username", username)
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}

	return summary, nil
}

// List returns a page of the user's ledger in sequence order along with the
// total entry count.
func (s *QueryService) List(ctx context.Context, username string, offset, limit int) ([]models.Transaction, int64, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, 0, ErrUnknownUser
		}
		return nil, 0, fmt.Errorf("failed to resolve user: %w", err)
	}

	transactions, total, err := s.ledgerRepo.ListByUser(ctx, user.ID, offset, limit)
	if err != nil {
		s.logger.Error("failed to list transactions", "error", err, "username", username)
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, total, nil
}
