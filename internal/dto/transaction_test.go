package dto

import (
	"testing"
	"time"

	"fintrack/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAmountToDecimal(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{12.50, "12.5"},
		{-5.25, "-5.25"},
		{100, "100"},
		{0.1, "0.1"},
		{19.99, "19.99"},
	}

	for _, tt := range tests {
		got := AmountToDecimal(tt.amount)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%v -> %s", tt.amount, got)
	}
}

func TestNewTransactionResponse(t *testing.T) {
	now := time.Now()
	txn := &models.Transaction{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Seq:       7,
		Category:  "Food",
		Amount:    decimal.NewFromFloat(12.50),
		CreatedAt: now,
	}

	resp := NewTransactionResponse(txn, "alice")

	assert.Equal(t, txn.ID, resp.ID)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "Food", resp.Category)
	assert.InDelta(t, 12.50, resp.Amount, 0.001)
	assert.Equal(t, uint64(7), resp.Seq)
	assert.Equal(t, now, resp.CreatedAt)
}
