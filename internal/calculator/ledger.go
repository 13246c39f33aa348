package calculator

// Position is what one counterparty and the current user owe each other.
type Position struct {
	Owed  float64 // counterparty owes the current user
	Owing float64 // current user owes the counterparty
}

// Net returns Owed - Owing. Positive means the counterparty owes the current user.
func (p Position) Net() float64 {
	return p.Owed - p.Owing
}

// Ledger accumulates positions per counterparty.
// Iteration follows the order in which counterparties were first seen.
type Ledger struct {
	order   []string
	entries map[string]*Position
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*Position)}
}

// Entry returns the position for userID, inserting a zero position on first access.
func (l *Ledger) Entry(userID string) *Position {
	if p, ok := l.entries[userID]; ok {
		return p
	}
	p := &Position{}
	l.entries[userID] = p
	l.order = append(l.order, userID)
	return p
}

// Get returns the position for userID without inserting it.
func (l *Ledger) Get(userID string) (Position, bool) {
	p, ok := l.entries[userID]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// IDs returns counterparty IDs in first-seen order.
func (l *Ledger) IDs() []string {
	ids := make([]string, len(l.order))
	copy(ids, l.order)
	return ids
}

// Len returns the number of counterparties.
func (l *Ledger) Len() int {
	return len(l.order)
}
