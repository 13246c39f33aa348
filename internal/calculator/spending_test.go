package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/mmynk/spendsplit/internal/models"
)

func datedExpense(date time.Time, payer string, splits ...models.Split) *models.Expense {
	e := expense(payer, sumSplits(splits), splits...)
	e.Date = date
	return e
}

func TestMonthlySpending_AlwaysTwelveSortedBuckets(t *testing.T) {
	months := MonthlySpending("alice", nil, 2026, time.UTC)

	if len(months) != 12 {
		t.Fatalf("got %d buckets, want 12", len(months))
	}
	for i, m := range months {
		want := time.Date(2026, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC).UnixMilli()
		if m.Month != want {
			t.Errorf("bucket %d month = %d, want %d", i, m.Month, want)
		}
		if m.Total != 0 {
			t.Errorf("bucket %d total = %v, want 0", i, m.Total)
		}
		if i > 0 && months[i-1].Month >= m.Month {
			t.Errorf("bucket %d not ascending", i)
		}
	}
}

func TestMonthlySpending_OwnSplitsOnly(t *testing.T) {
	expenses := []*models.Expense{
		datedExpense(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), "alice", paid("alice", 25), owes("bob", 25)),
		datedExpense(time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC), "bob", owes("alice", 10), paid("bob", 10)),
		datedExpense(time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC), "bob", owes("carol", 10), paid("bob", 10)),
		datedExpense(time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC), "carol", owes("alice", 7.5), paid("carol", 7.5)),
		datedExpense(time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), "carol", owes("alice", 99), paid("carol", 1)),
		datedExpense(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), "carol", owes("alice", 99), paid("carol", 1)),
	}

	months := MonthlySpending("alice", expenses, 2026, time.UTC)

	want := map[int]float64{0: 35, 11: 7.5}
	for i, m := range months {
		if math.Abs(m.Total-want[i]) > 1e-9 {
			t.Errorf("month %d total = %v, want %v", i+1, m.Total, want[i])
		}
	}
}

func TestTotalSpent(t *testing.T) {
	since := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	expenses := []*models.Expense{
		datedExpense(time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC), "bob", owes("alice", 100), paid("bob", 1)),
		datedExpense(since, "bob", owes("alice", 12.5), paid("bob", 12.5)),
		datedExpense(time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC), "alice", paid("alice", 20), owes("bob", 20)),
		datedExpense(time.Date(2026, time.May, 3, 0, 0, 0, 0, time.UTC), "bob", owes("carol", 5)),
	}

	got := TotalSpent("alice", expenses, since)
	if math.Abs(got-32.5) > 1e-9 {
		t.Errorf("TotalSpent = %v, want 32.5", got)
	}
}

func TestStartOfYear(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	got := StartOfYear(time.Date(2026, time.October, 18, 9, 30, 0, 0, loc))
	want := time.Date(2026, time.January, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("StartOfYear = %v, want %v", got, want)
	}
}
