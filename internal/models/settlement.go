package models

import "time"

// Settlement represents a direct payment from one user to another that offsets
// an outstanding balance.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// Amount is the payment amount. Always positive; direction comes from the user fields.
	Amount float64

	// Note is an optional description for the settlement.
	Note string

	// Date is when the payment happened.
	Date time.Time

	// PaidByUserID is the user who paid (debtor settling up).
	PaidByUserID string

	// ReceivedByUserID is the user who received payment.
	ReceivedByUserID string

	// GroupID is empty for personal settlements.
	GroupID string

	// RelatedExpenseIDs lists the expenses this payment was meant to cover.
	// Informational only; balances never read it.
	RelatedExpenseIDs []string

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string
}

// Between reports whether the settlement is between a and b, in either direction.
func (s *Settlement) Between(a, b string) bool {
	return (s.PaidByUserID == a && s.ReceivedByUserID == b) ||
		(s.PaidByUserID == b && s.ReceivedByUserID == a)
}

// Involves reports whether userID paid or received the settlement.
func (s *Settlement) Involves(userID string) bool {
	return s.PaidByUserID == userID || s.ReceivedByUserID == userID
}
