package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/models"
)

// SubmitTransactionRequest is the ingestion payload. Amount is a JSON number
// with at most two decimal places; sign is allowed (negative entries are
// compensating corrections).
type SubmitTransactionRequest struct {
	Category string  `json:"category" validate:"required,category"`
	Amount   float64 `json:"amount" validate:"required,txn_amount"`
}

// TransactionResponse is the wire form of a persisted ledger entry. It is
// also the payload of the push channel's ReceiveTransaction event; clients
// must tolerate additional fields.
type TransactionResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	Seq       uint64    `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTransactionResponse converts a ledger entry to its wire form
func NewTransactionResponse(tx *models.Transaction, username string) *TransactionResponse {
	return &TransactionResponse{
		ID:        tx.ID,
		Username:  username,
		Category:  tx.Category,
		Amount:    tx.Amount.InexactFloat64(),
		Seq:       tx.Seq,
		CreatedAt: tx.CreatedAt,
	}
}

// ListTransactionsResponse is a page of a user's ledger in append order
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
	Offset       int                    `json:"offset"`
	Limit        int                    `json:"limit"`
}

// AmountToDecimal converts a request amount to the ledger's fixed-point
// representation. Request validation guarantees at most two decimal places;
// rounding here only removes float binding noise.
func AmountToDecimal(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(models.AmountDecimalPlaces)
}
