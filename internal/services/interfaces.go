package services

import (
	"context"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuthServiceInterface defines authentication business operations
type AuthServiceInterface interface {
	Signup(ctx context.Context, req *dto.SignupRequest, ipAddress string) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress string) (*dto.TokenResponse, error)
}

// PasswordServiceInterface defines password hashing operations
type PasswordServiceInterface interface {
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
	ValidatePassword(password string) error
}

// TokenServiceInterface defines session token operations
type TokenServiceInterface interface {
	GenerateToken(user *models.User) (string, time.Time, error)
	ValidateToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
}

// AggregatorInterface maintains per-user category running totals derived
// from the ledger. Apply must be called exactly once per persisted entry;
// idempotency across callers is not provided by this layer beyond the
// hydration watermark.
type AggregatorInterface interface {
	Get(ctx context.Context, userID uuid.UUID) (models.CategorySummary, error)
	Apply(ctx context.Context, userID uuid.UUID, category string, amount decimal.Decimal, seq uint64) error
	Invalidate(userID uuid.UUID)
}

// IngestionServiceInterface accepts new transactions into the system
type IngestionServiceInterface interface {
	Submit(ctx context.Context, username, category string, amount decimal.Decimal) (*models.Transaction, error)
}

// QueryServiceInterface answers read-only summary and listing requests
type QueryServiceInterface interface {
	Summarize(ctx context.Context, username string) (models.CategorySummary, error)
	List(ctx context.Context, username string, offset, limit int) ([]models.Transaction, int64, error)
}

// BroadcasterInterface fans out transaction events to live subscribers
type BroadcasterInterface interface {
	Subscribe(username string) *Subscription
	Publish(username string, event *dto.TransactionResponse)
}

// EventSink receives a copy of every published event. Emit is called from
// the broadcaster's drain goroutine, never from the publisher, so it may
// block on I/O. Sinks are best-effort: failures are absorbed, never
// propagated to the publisher.
type EventSink interface {
	Emit(username string, event *dto.TransactionResponse)
	Close()
}

// TransactionGeneratorInterface produces sample ledger data for development
type TransactionGeneratorInterface interface {
	Generate(count int) []SampleTransaction
}

// MetricsRecorderInterface records operational metrics
type MetricsRecorderInterface interface {
	RecordIngest(status string, duration time.Duration)
	RecordStorageRetry(stage string)
	RecordNotification(outcome string)
	SetActiveSubscriptions(count int)
}
