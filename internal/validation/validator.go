package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/models"
)

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

// singleton instance of the validator
var instance *Validator

// GetValidator returns the singleton validator instance
func GetValidator() *Validator {
	if instance == nil {
		instance = NewValidator()
	}
	return instance
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("username", validateUsername)
	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("txn_amount", validateTransactionAmount)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Custom validation functions

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,64}$`)

// validateUsername validates that a username follows the expected format:
// 3-64 characters from [a-zA-Z0-9._-]
func validateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

// validateCategory validates that a category label is non-empty after
// trimming and fits the ledger column
func validateCategory(fl validator.FieldLevel) bool {
	category := strings.TrimSpace(fl.Field().String())
	if category == "" {
		return false
	}

	return len(category) <= models.MaxCategoryLength
}

// validateTransactionAmount validates that an amount is finite, non-zero and
// has at most 2 decimal places. Negative amounts pass: they are compensating
// ledger entries.
func validateTransactionAmount(fl validator.FieldLevel) bool {
	amount := fl.Field().Float()

	if amount == 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return false
	}

	// Check decimal places (at most 2)
	amountStr := fmt.Sprintf("%.10f", math.Abs(amount))
	parts := strings.Split(amountStr, ".")
	if len(parts) > 1 {
		decimal := strings.TrimRight(parts[1], "0")
		if len(decimal) > models.AmountDecimalPlaces {
			return false
		}
	}

	return true
}
