package models

import "time"

// SplitType records how an expense was divided when it was created.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitPercentage SplitType = "percentage"
	SplitExact      SplitType = "exact"
)

// DefaultCategory is used when an expense is created without a category.
const DefaultCategory = "Other"

// Expense represents a purchase paid by one user and shared between several.
// Expenses are never updated in place; they are created once and may be deleted
// by their creator or their payer.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is the human-readable label (e.g., "Dinner").
	Description string

	// Amount is the total paid. Always positive.
	Amount float64

	// Category is a free-form label. Defaults to DefaultCategory.
	Category string

	// Date is when the expense occurred.
	Date time.Time

	// PaidByUserID is the user who paid the full amount.
	PaidByUserID string

	// SplitType is the method used to compute Splits.
	SplitType SplitType

	// Splits are the owed shares. Their sum equals Amount within 0.01.
	Splits []Split

	// GroupID is empty for personal (one-on-one) expenses.
	GroupID string

	// CreatedBy is the user who recorded the expense.
	CreatedBy string
}

// Split is one user's owed share of an expense.
type Split struct {
	UserID string
	Amount float64
	// Paid marks the share as settled. A paid split never counts toward a balance.
	Paid bool
}

// SplitFor returns the split belonging to userID, if any.
func (e *Expense) SplitFor(userID string) (Split, bool) {
	for _, s := range e.Splits {
		if s.UserID == userID {
			return s, true
		}
	}
	return Split{}, false
}

// Involves reports whether userID paid the expense or has a split in it.
func (e *Expense) Involves(userID string) bool {
	if e.PaidByUserID == userID {
		return true
	}
	_, ok := e.SplitFor(userID)
	return ok
}

// Scope returns the scope the expense belongs to.
func (e *Expense) Scope() Scope {
	return Scope{GroupID: e.GroupID}
}

// CanDelete reports whether userID may delete the expense.
func (e *Expense) CanDelete(userID string) bool {
	return e.CreatedBy == userID || e.PaidByUserID == userID
}
