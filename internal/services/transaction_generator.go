package services

import (
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// SampleTransaction is a generated category and amount pair used to seed
// development environments.
type SampleTransaction struct {
	Category string
	Amount   decimal.Decimal
}

var sampleCategories = []string{
	"Food",
	"Groceries",
	"Transport",
	"Housing",
	"Utilities",
	"Entertainment",
	"Health",
	"Travel",
	"Shopping",
	"Subscriptions",
}

// TransactionGenerator produces randomized sample transactions. Amounts are
// rounded to cents; roughly one in ten entries is a negative compensation.
type TransactionGenerator struct {
	faker *gofakeit.Faker
}

// NewTransactionGenerator creates a generator seeded from crypto randomness.
func NewTransactionGenerator() TransactionGeneratorInterface {
	return &TransactionGenerator{faker: gofakeit.New(0)}
}

// Generate returns count sample transactions drawn from a fixed category set.
func (g *TransactionGenerator) Generate(count int) []SampleTransaction {
	if count <= 0 {
		return nil
	}

	samples := make([]SampleTransaction, 0, count)
	for i := 0; i < count; i++ {
		amount := decimal.NewFromFloat(g.faker.Float64Range(0.5, 500.0)).Round(2)
		if amount.IsZero() {
			amount = decimal.NewFromFloat(0.5)
		}
		if g.faker.Number(1, 10) == 1 {
			amount = amount.Neg()
		}

		samples = append(samples, SampleTransaction{
			Category: g.faker.RandomString(sampleCategories),
			Amount:   amount,
		})
	}

	return samples
}
