package handlers

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/repositories"
	"fintrack/internal/services"

	"github.com/labstack/echo/v4"
)

// testStack wires real services over an in-memory database for handler tests
type testStack struct {
	db          *database.DB
	echo        *echo.Echo
	userRepo    repositories.UserRepositoryInterface
	ledgerRepo  repositories.LedgerRepositoryInterface
	tokens      services.TokenServiceInterface
	auth        services.AuthServiceInterface
	ingestion   services.IngestionServiceInterface
	query       services.QueryServiceInterface
	broadcaster *services.Broadcaster
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db := database.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := &noopMetrics{}

	userRepo := repositories.NewUserRepository(db.DB)
	ledgerRepo := repositories.NewLedgerRepository(db.DB)
	aggregator := services.NewAggregator(ledgerRepo)
	broadcaster := services.NewBroadcaster(16, metrics, logger)
	tokens := services.NewTokenService(&config.JWTConfig{
		Secret:        []byte("test-secret-key-for-handler-tests!!!"),
		TokenDuration: time.Hour,
		Issuer:        "fintrack-api",
	})
	passwords := services.NewPasswordService(4, 8)
	auth := services.NewAuthService(userRepo, passwords, tokens, logger)
	ingestion := services.NewIngestionService(
		userRepo,
		ledgerRepo,
		aggregator,
		broadcaster,
		metrics,
		services.RetryConfig{MaxAttempts: 3, Backoff: time.Millisecond},
		logger,
	)
	query := services.NewQueryService(userRepo, ledgerRepo, aggregator, logger)

	e := echo.New()
	e.Validator = NewValidator()

	return &testStack{
		db:          db,
		echo:        e,
		userRepo:    userRepo,
		ledgerRepo:  ledgerRepo,
		tokens:      tokens,
		auth:        auth,
		ingestion:   ingestion,
		query:       query,
		broadcaster: broadcaster,
	}
}

// noopMetrics discards all metric recordings. The prometheus recorder uses
// a global registry and cannot be constructed once per test.
type noopMetrics struct{}

func (m *noopMetrics) RecordIngest(string, time.Duration) {}
func (m *noopMetrics) RecordStorageRetry(string)          {}
func (m *noopMetrics) RecordNotification(string)          {}
func (m *noopMetrics) SetActiveSubscriptions(int)         {}
