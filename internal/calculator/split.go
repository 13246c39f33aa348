package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/spendsplit/internal/models"
)

// Tolerance is the largest allowed difference between an expense amount and
// the sum of its splits.
const Tolerance = 0.01

var (
	ErrSplitMismatch = errors.New("split amounts must add up to the total expense amount")
	ErrNoSplitUsers  = errors.New("must have at least one participant")
	ErrPercentTotal  = errors.New("percentages must add up to 100")
)

var hundred = decimal.NewFromInt(100)

// Share is one participant's percentage of an expense.
type Share struct {
	UserID  string
	Percent float64
}

// ValidateSplitTotal checks that splits add up to amount within Tolerance.
func ValidateSplitTotal(amount float64, splits []models.Split) error {
	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(decimal.NewFromFloat(s.Amount))
	}
	diff := sum.Sub(decimal.NewFromFloat(amount)).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(Tolerance)) {
		return fmt.Errorf("%w: splits total %s, expense is %s",
			ErrSplitMismatch, sum.StringFixed(2), decimal.NewFromFloat(amount).StringFixed(2))
	}
	return nil
}

// EqualSplits divides amount equally between userIDs, in cents.
// Leftover cents go to the first participants so the splits always sum to the
// rounded amount. The payer's own split is marked paid.
func EqualSplits(amount float64, payerID string, userIDs []string) ([]models.Split, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoSplitUsers
	}

	cents := toCents(amount)
	n := int64(len(userIDs))
	base, rem := cents/n, cents%n

	splits := make([]models.Split, len(userIDs))
	for i, id := range userIDs {
		c := base
		if int64(i) < rem {
			c++
		}
		splits[i] = models.Split{UserID: id, Amount: fromCents(c), Paid: id == payerID}
	}
	return splits, nil
}

// PercentageSplits divides amount by percentage shares, which must add up to 100.
// Each share is floored to the cent and leftover cents go to the first participants.
// The payer's own split is marked paid.
func PercentageSplits(amount float64, payerID string, shares []Share) ([]models.Split, error) {
	if len(shares) == 0 {
		return nil, ErrNoSplitUsers
	}

	totalPct := decimal.Zero
	for _, s := range shares {
		if s.Percent < 0 {
			return nil, fmt.Errorf("negative percentage for %s", s.UserID)
		}
		totalPct = totalPct.Add(decimal.NewFromFloat(s.Percent))
	}
	if totalPct.Sub(hundred).Abs().GreaterThan(decimal.NewFromFloat(Tolerance)) {
		return nil, fmt.Errorf("%w: got %s", ErrPercentTotal, totalPct.String())
	}

	cents := toCents(amount)
	total := decimal.NewFromInt(cents)

	parts := make([]int64, len(shares))
	var assigned int64
	for i, s := range shares {
		parts[i] = total.Mul(decimal.NewFromFloat(s.Percent)).Div(hundred).Floor().IntPart()
		assigned += parts[i]
	}
	for i := 0; assigned < cents; i = (i + 1) % len(parts) {
		parts[i]++
		assigned++
	}

	splits := make([]models.Split, len(shares))
	for i, s := range shares {
		splits[i] = models.Split{UserID: s.UserID, Amount: fromCents(parts[i]), Paid: s.UserID == payerID}
	}
	return splits, nil
}

// ExactSplits takes caller-supplied amounts as they are, checks that they add
// up to amount and marks the payer's own split paid. Splits the caller already
// marked paid stay paid.
func ExactSplits(amount float64, payerID string, splits []models.Split) ([]models.Split, error) {
	if len(splits) == 0 {
		return nil, ErrNoSplitUsers
	}

	out := make([]models.Split, len(splits))
	for i, s := range splits {
		if s.Amount < 0 {
			return nil, fmt.Errorf("negative amount for %s", s.UserID)
		}
		out[i] = models.Split{UserID: s.UserID, Amount: s.Amount, Paid: s.Paid || s.UserID == payerID}
	}
	if err := ValidateSplitTotal(amount, out); err != nil {
		return nil, err
	}
	return out, nil
}

func toCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

func fromCents(c int64) float64 {
	return decimal.New(c, -2).InexactFloat64()
}
