package handlers

import (
	"errors"
	"net/http"

	apierrors "fintrack/internal/errors"
	"fintrack/internal/services"

	"github.com/labstack/echo/v4"
)

// DevHandler handles development-only endpoints. These are registered only
// when the environment is not production.
type DevHandler struct {
	ingestionService services.IngestionServiceInterface
	generator        services.TransactionGeneratorInterface
}

// NewDevHandler creates a new development handler
func NewDevHandler(ingestionService services.IngestionServiceInterface) *DevHandler {
	return &DevHandler{
		ingestionService: ingestionService,
		generator:        services.NewTransactionGenerator(),
	}
}

// Seed generates sample transactions for a user through the real ingestion
// path, so seeded data exercises sequencing, aggregation and notifications.
//
// Method: POST /api/dev/seed/:username
// Environment: Development only
//
// Query parameters:
//   - count: Number of transactions to generate (default: 25, max: 500)
//
// Error Responses:
//   - 404: Unknown username
//   - 500: Internal error
func (h *DevHandler) Seed(c echo.Context) error {
	username := c.Param("username")

	count := getIntParam(c, "count", 25)
	if count < 1 {
		count = 1
	}
	if count > 500 {
		count = 500
	}

	created := 0
	for _, sample := range h.generator.Generate(count) {
		_, err := h.ingestionService.Submit(c.Request().Context(), username, sample.Category, sample.Amount)
		if err != nil {
			if errors.Is(err, services.ErrUnknownUser) {
				return SendError(c, apierrors.UserNotFound)
			}
			continue
		}
		created++
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":              "sample data generated",
		"transactions_created": created,
		"username":             username,
	})
}
