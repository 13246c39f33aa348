// Package calculator reduces expenses and settlements into balances.
//
// Every function here is pure: it reads the records it is given, never
// mutates them and keeps no state between calls. Amounts are summed with
// plain float64 addition; callers that need cent-exact values round at the
// edge.
package calculator

import (
	"math"
	"sort"

	"github.com/mmynk/spendsplit/internal/models"
)

// Totals is the dashboard aggregate for one user across all personal expenses.
type Totals struct {
	YouOwe     float64 // total the user owes others
	YouAreOwed float64 // total others owe the user
	ByUser     *Ledger // per-counterparty breakdown
}

// Net returns YouAreOwed - YouOwe.
func (t Totals) Net() float64 {
	return t.YouAreOwed - t.YouOwe
}

// Counterparty is one entry of an outstanding-balance list.
type Counterparty struct {
	UserID string
	Amount float64 // always positive
}

// PairwiseBalance computes the personal-scope balance between me and other.
//
// Algorithm:
//   - Only personal expenses that involve both users count
//   - If me paid, other's unpaid split is owed to me
//   - If other paid, my unpaid split is owed by me
//   - A settlement from me to other reduces what I owe; from other to me it
//     reduces what I am owed
//
// Positive result: other owes me. Negative: I owe other.
func PairwiseBalance(me, other string, expenses []*models.Expense, settlements []*models.Settlement) float64 {
	var owedToMe, iOwe float64

	for _, e := range expenses {
		if e.GroupID != "" || !e.Involves(me) || !e.Involves(other) {
			continue
		}
		switch e.PaidByUserID {
		case me:
			if s, ok := e.SplitFor(other); ok && !s.Paid {
				owedToMe += s.Amount
			}
		case other:
			if s, ok := e.SplitFor(me); ok && !s.Paid {
				iOwe += s.Amount
			}
		}
	}

	for _, s := range settlements {
		if s.GroupID != "" || !s.Between(me, other) {
			continue
		}
		if s.PaidByUserID == me {
			iOwe -= s.Amount
		} else {
			owedToMe -= s.Amount
		}
	}

	return owedToMe - iOwe
}

// GlobalBalances aggregates every personal expense and settlement involving me
// into running totals and a per-counterparty ledger.
func GlobalBalances(me string, expenses []*models.Expense, settlements []*models.Settlement) Totals {
	totals := Totals{ByUser: NewLedger()}

	for _, e := range expenses {
		if e.GroupID != "" {
			continue
		}
		if e.PaidByUserID == me {
			for _, s := range e.Splits {
				// Own split and settled shares never count
				if s.UserID == me || s.Paid {
					continue
				}
				totals.YouAreOwed += s.Amount
				totals.ByUser.Entry(s.UserID).Owed += s.Amount
			}
			continue
		}
		if s, ok := e.SplitFor(me); ok && !s.Paid {
			totals.YouOwe += s.Amount
			totals.ByUser.Entry(e.PaidByUserID).Owing += s.Amount
		}
	}

	for _, s := range settlements {
		if s.GroupID != "" || !s.Involves(me) {
			continue
		}
		if s.PaidByUserID == me {
			totals.YouOwe -= s.Amount
			totals.ByUser.Entry(s.ReceivedByUserID).Owing -= s.Amount
		} else {
			totals.YouAreOwed -= s.Amount
			totals.ByUser.Entry(s.PaidByUserID).Owed -= s.Amount
		}
	}

	return totals
}

// GroupBalance computes me's net balance within one group.
// The caller passes only the group's expenses and settlements.
//
// Algorithm:
//   - If me paid, every other member's unpaid split is a credit
//   - Otherwise me's own unpaid split is a debit
//   - Settlements paid by me increase the net, settlements received decrease it
func GroupBalance(me string, expenses []*models.Expense, settlements []*models.Settlement) float64 {
	var balance float64

	for _, e := range expenses {
		if e.PaidByUserID == me {
			for _, s := range e.Splits {
				if s.UserID != me && !s.Paid {
					balance += s.Amount
				}
			}
			continue
		}
		if s, ok := e.SplitFor(me); ok && !s.Paid {
			balance -= s.Amount
		}
	}

	for _, s := range settlements {
		switch me {
		case s.PaidByUserID:
			balance += s.Amount
		case s.ReceivedByUserID:
			balance -= s.Amount
		}
	}

	return balance
}

// Outstanding splits a ledger into the counterparties the user owes and the
// ones who owe the user. Zero nets are dropped. Both lists are sorted by
// amount, largest first; ties keep first-seen order.
func Outstanding(l *Ledger) (youOwe, youAreOwedBy []Counterparty) {
	for _, id := range l.order {
		net := l.entries[id].Net()
		if net == 0 {
			continue
		}
		entry := Counterparty{UserID: id, Amount: math.Abs(net)}
		if net > 0 {
			youAreOwedBy = append(youAreOwedBy, entry)
		} else {
			youOwe = append(youOwe, entry)
		}
	}

	byAmount := func(list []Counterparty) func(i, j int) bool {
		return func(i, j int) bool { return list[i].Amount > list[j].Amount }
	}
	sort.SliceStable(youOwe, byAmount(youOwe))
	sort.SliceStable(youAreOwedBy, byAmount(youAreOwedBy))

	return youOwe, youAreOwedBy
}
