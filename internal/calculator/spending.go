package calculator

import (
	"time"

	"github.com/mmynk/spendsplit/internal/models"
)

// MonthTotal is the user's own spending in one calendar month.
type MonthTotal struct {
	Month int64 // month start, Unix milliseconds
	Total float64
}

// MonthlySpending buckets me's own split amounts by month for the given year.
// It always returns 12 entries, ascending by month, zero when nothing was spent.
// Expenses dated outside the year are ignored.
func MonthlySpending(me string, expenses []*models.Expense, year int, loc *time.Location) []MonthTotal {
	if loc == nil {
		loc = time.UTC
	}

	months := make([]MonthTotal, 12)
	for i := range months {
		months[i].Month = time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, loc).UnixMilli()
	}

	for _, e := range expenses {
		date := e.Date.In(loc)
		if date.Year() != year {
			continue
		}
		if s, ok := e.SplitFor(me); ok {
			months[date.Month()-1].Total += s.Amount
		}
	}

	return months
}

// TotalSpent sums me's own split amounts on expenses dated at or after since.
func TotalSpent(me string, expenses []*models.Expense, since time.Time) float64 {
	var total float64
	for _, e := range expenses {
		if e.Date.Before(since) {
			continue
		}
		if s, ok := e.SplitFor(me); ok {
			total += s.Amount
		}
	}
	return total
}

// StartOfYear returns midnight on January 1 of t's year in t's location.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}
