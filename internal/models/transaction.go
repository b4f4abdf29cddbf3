package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// MaxCategoryLength bounds the category label column
	MaxCategoryLength = 50

	// AmountDecimalPlaces is the fixed-point scale for ledger amounts
	AmountDecimalPlaces = 2
)

var (
	ErrCategoryRequired = errors.New("transaction category is required")
	ErrCategoryTooLong  = errors.New("transaction category too long")
	ErrAmountZero       = errors.New("transaction amount cannot be zero")
	ErrAmountPrecision  = errors.New("transaction amount must have at most 2 decimal places")
)

// Transaction is a single immutable ledger entry. Rows are append-only:
// corrections are recorded as new compensating entries, never as updates.
// Seq is assigned at ingestion and is strictly increasing per user, which
// defines the ledger order used by listing and by notification delivery.
type Transaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_transactions_user_seq,priority:1" json:"user_id"`
	Seq       uint64          `gorm:"not null;uniqueIndex:idx_transactions_user_seq,priority:2" json:"seq"`
	Category  string          `gorm:"type:varchar(50);not null;index" json:"category"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"not null;index" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate hook for Transaction
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	return t.Validate()
}

// Validate validates the ledger entry fields
func (t *Transaction) Validate() error {
	if t.UserID == uuid.Nil {
		return errors.New("user ID is required")
	}

	if t.Category == "" {
		return ErrCategoryRequired
	}

	if len(t.Category) > MaxCategoryLength {
		return ErrCategoryTooLong
	}

	return ValidateAmount(t.Amount)
}

// IsCompensation reports whether this entry corrects an earlier one.
// Negative amounts are valid, they are how corrections are expressed.
func (t *Transaction) IsCompensation() bool {
	return t.Amount.IsNegative()
}

// TableName returns the table name for Transaction
func (t *Transaction) TableName() string {
	return "transactions"
}

// ValidateAmount rejects zero amounts and amounts that cannot be represented
// exactly with two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsZero() {
		return ErrAmountZero
	}

	if amount.Exponent() < -AmountDecimalPlaces {
		if !amount.Equal(amount.Round(AmountDecimalPlaces)) {
			return ErrAmountPrecision
		}
	}

	return nil
}
