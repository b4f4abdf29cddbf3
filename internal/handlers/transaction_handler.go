package handlers

import (
	"errors"
	"net/http"

	"fintrack/internal/dto"
	apierrors "fintrack/internal/errors"
	"fintrack/internal/services"

	"github.com/labstack/echo/v4"
)

// TransactionHandler handles transaction submission and query endpoints
type TransactionHandler struct {
	ingestionService services.IngestionServiceInterface
	queryService     services.QueryServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(
	ingestionService services.IngestionServiceInterface,
	queryService services.QueryServiceInterface,
) *TransactionHandler {
	return &TransactionHandler{
		ingestionService: ingestionService,
		queryService:     queryService,
	}
}

// GetAll returns the per-category totals for a user as a flat JSON object,
// for example {"Food": 20, "Transport": 9.5}.
//
// Method: GET /api/transactions/getall/:username
// Authentication: None
//
// Error Responses:
//   - 404: Unknown username
//   - 500: Internal error
func (h *TransactionHandler) GetAll(c echo.Context) error {
	username := c.Param("username")

	summary, err := h.queryService.Summarize(c.Request().Context(), username)
	if err != nil {
		if errors.Is(err, services.ErrUnknownUser) {
			return SendError(c, apierrors.UserNotFound)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, summary.ToNumbers())
}

// Submit appends a new transaction to the authenticated user's ledger.
//
// Method: POST /api/transactions
// Authentication: Required
// Body: {category, amount}
//
// Success Response: 201 Created with the persisted entry including its
// sequence number.
//
// Error Responses:
//   - 400: Invalid category or amount
//   - 401: Missing or invalid token
//   - 500: Internal error
//   - 503: Storage unavailable after retries
func (h *TransactionHandler) Submit(c echo.Context) error {
	username, err := getUsernameFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	var req dto.SubmitTransactionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	transaction, err := h.ingestionService.Submit(
		c.Request().Context(),
		username,
		req.Category,
		dto.AmountToDecimal(req.Amount),
	)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return SendError(c, apierrors.TransactionInvalidAmount, apierrors.WithDetails(err.Error()))
		case errors.Is(err, services.ErrUnknownUser):
			return SendError(c, apierrors.UserNotFound)
		case errors.Is(err, services.ErrStorageExhausted):
			return SendError(c, apierrors.SystemStorageExhausted)
		default:
			return SendSystemError(c, err)
		}
	}

	return c.JSON(http.StatusCreated, dto.NewTransactionResponse(transaction, username))
}

// List returns a page of a user's ledger in sequence order.
//
// Method: GET /api/transactions/list/:username
// Authentication: Required; users may only list their own ledger
//
// Query parameters:
//   - offset: Entries to skip (default: 0)
//   - limit: Page size (default: 50, max: 200)
//
// Error Responses:
//   - 401: Missing or invalid token, or listing another user's ledger
//   - 404: Unknown username
//   - 500: Internal error
func (h *TransactionHandler) List(c echo.Context) error {
	authUsername, err := getUsernameFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	username := c.Param("username")
	if username != authUsername {
		return SendError(c, apierrors.AuthInvalidCredentials,
			apierrors.WithMessage("Cannot access another user's transactions"))
	}

	offset := getIntParam(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	limit := getIntParam(c, "limit", 50)
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	transactions, total, err := h.queryService.List(c.Request().Context(), username, offset, limit)
	if err != nil {
		if errors.Is(err, services.ErrUnknownUser) {
			return SendError(c, apierrors.UserNotFound)
		}
		return SendSystemError(c, err)
	}

	responses := make([]*dto.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, dto.NewTransactionResponse(&transactions[i], username))
	}

	return c.JSON(http.StatusOK, dto.ListTransactionsResponse{
		Transactions: responses,
		Total:        total,
		Offset:       offset,
		Limit:        limit,
	})
}
