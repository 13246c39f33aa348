package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/mmynk/spendsplit/internal/models"
)

func expense(payer string, amount float64, splits ...models.Split) *models.Expense {
	return &models.Expense{
		Description:  "test",
		Amount:       amount,
		PaidByUserID: payer,
		CreatedBy:    payer,
		SplitType:    models.SplitExact,
		Splits:       splits,
		Date:         time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
}

func owes(user string, amount float64) models.Split {
	return models.Split{UserID: user, Amount: amount}
}

func paid(user string, amount float64) models.Split {
	return models.Split{UserID: user, Amount: amount, Paid: true}
}

func settle(from, to string, amount float64) *models.Settlement {
	return &models.Settlement{PaidByUserID: from, ReceivedByUserID: to, Amount: amount}
}

func TestPairwiseBalance(t *testing.T) {
	tests := []struct {
		name        string
		expenses    []*models.Expense
		settlements []*models.Settlement
		want        float64
	}{
		{
			name:     "alice pays 100 split equally, bob owes 50",
			expenses: []*models.Expense{expense("alice", 100, paid("alice", 50), owes("bob", 50))},
			want:     50,
		},
		{
			name:        "bob settles 50 to alice",
			expenses:    []*models.Expense{expense("alice", 100, paid("alice", 50), owes("bob", 50))},
			settlements: []*models.Settlement{settle("bob", "alice", 50)},
			want:        0,
		},
		{
			name:     "bob pays, alice owes",
			expenses: []*models.Expense{expense("bob", 30, owes("alice", 20), paid("bob", 10))},
			want:     -20,
		},
		{
			name:     "paid split is ignored",
			expenses: []*models.Expense{expense("alice", 100, paid("alice", 50), paid("bob", 50))},
			want:     0,
		},
		{
			name: "group expense is ignored",
			expenses: []*models.Expense{
				func() *models.Expense {
					e := expense("alice", 100, paid("alice", 50), owes("bob", 50))
					e.GroupID = "g1"
					return e
				}(),
			},
			want: 0,
		},
		{
			name:     "expense not involving bob is ignored",
			expenses: []*models.Expense{expense("alice", 40, paid("alice", 20), owes("carol", 20))},
			want:     0,
		},
		{
			name: "expense paid by a third person is ignored",
			expenses: []*models.Expense{
				expense("carol", 30, owes("alice", 10), owes("bob", 10), paid("carol", 10)),
			},
			want: 0,
		},
		{
			name:        "alice pays bob back",
			expenses:    []*models.Expense{expense("bob", 60, owes("alice", 30), paid("bob", 30))},
			settlements: []*models.Settlement{settle("alice", "bob", 30)},
			want:        0,
		},
		{
			name:        "settlement with a third person is ignored",
			settlements: []*models.Settlement{settle("alice", "carol", 30)},
			want:        0,
		},
		{
			name: "group settlement is ignored",
			settlements: []*models.Settlement{
				{PaidByUserID: "bob", ReceivedByUserID: "alice", Amount: 10, GroupID: "g1"},
			},
			want: 0,
		},
		{
			name: "mixed directions net out",
			expenses: []*models.Expense{
				expense("alice", 100, paid("alice", 50), owes("bob", 50)),
				expense("bob", 40, owes("alice", 20), paid("bob", 20)),
			},
			settlements: []*models.Settlement{settle("bob", "alice", 10)},
			want:        20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PairwiseBalance("alice", "bob", tt.expenses, tt.settlements)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PairwiseBalance(alice, bob) = %v, want %v", got, tt.want)
			}

			// Antisymmetry
			reverse := PairwiseBalance("bob", "alice", tt.expenses, tt.settlements)
			if reverse != -got {
				t.Errorf("PairwiseBalance(bob, alice) = %v, want %v", reverse, -got)
			}

			// Same inputs, same answer
			if again := PairwiseBalance("alice", "bob", tt.expenses, tt.settlements); again != got {
				t.Errorf("second call = %v, first call = %v", again, got)
			}
		})
	}
}

func TestPairwiseBalance_SettlementShiftsByAmount(t *testing.T) {
	expenses := []*models.Expense{expense("alice", 90, paid("alice", 45), owes("bob", 45))}

	before := PairwiseBalance("alice", "bob", expenses, nil)
	after := PairwiseBalance("alice", "bob", expenses, []*models.Settlement{settle("bob", "alice", 25)})

	if math.Abs((before-after)-25) > 1e-9 {
		t.Errorf("settlement from bob to alice moved alice's balance by %v, want 25", before-after)
	}

	reverseBefore := PairwiseBalance("bob", "alice", expenses, nil)
	reverseAfter := PairwiseBalance("bob", "alice", expenses, []*models.Settlement{settle("bob", "alice", 25)})
	if math.Abs((reverseAfter-reverseBefore)-25) > 1e-9 {
		t.Errorf("settlement from bob to alice moved bob's balance by %v, want 25", reverseAfter-reverseBefore)
	}
}

func TestPairwiseBalance_DoesNotMutateInputs(t *testing.T) {
	e := expense("alice", 100, paid("alice", 50), owes("bob", 50))
	s := settle("bob", "alice", 20)

	PairwiseBalance("alice", "bob", []*models.Expense{e}, []*models.Settlement{s})

	if e.Splits[1].Amount != 50 || e.Splits[1].Paid {
		t.Errorf("expense split changed: %+v", e.Splits[1])
	}
	if s.Amount != 20 {
		t.Errorf("settlement amount changed: %v", s.Amount)
	}
}

func TestGlobalBalances(t *testing.T) {
	expenses := []*models.Expense{
		expense("alice", 100, paid("alice", 50), owes("bob", 50)),
		expense("alice", 90, paid("alice", 30), owes("bob", 30), owes("carol", 30)),
		expense("dave", 40, owes("alice", 20), paid("dave", 20)),
		expense("carol", 10, owes("bob", 10)),
	}
	settlements := []*models.Settlement{
		settle("carol", "alice", 30),
		settle("alice", "dave", 5),
		settle("bob", "carol", 100),
	}

	totals := GlobalBalances("alice", expenses, settlements)

	// owed: bob 80 + carol 30 - carol settled 30 = 80
	if math.Abs(totals.YouAreOwed-80) > 1e-9 {
		t.Errorf("YouAreOwed = %v, want 80", totals.YouAreOwed)
	}
	// owing: dave 20 - 5 = 15
	if math.Abs(totals.YouOwe-15) > 1e-9 {
		t.Errorf("YouOwe = %v, want 15", totals.YouOwe)
	}
	if math.Abs(totals.Net()-65) > 1e-9 {
		t.Errorf("Net = %v, want 65", totals.Net())
	}

	if got := totals.ByUser.IDs(); len(got) != 3 || got[0] != "bob" || got[1] != "carol" || got[2] != "dave" {
		t.Errorf("ByUser order = %v, want [bob carol dave]", got)
	}

	carol, ok := totals.ByUser.Get("carol")
	if !ok {
		t.Fatal("expected carol in ledger")
	}
	if carol.Net() != 0 {
		t.Errorf("carol net = %v, want 0", carol.Net())
	}
}

func TestGlobalBalances_ZeroNetStillCountsInTotals(t *testing.T) {
	expenses := []*models.Expense{
		expense("alice", 20, paid("alice", 10), owes("bob", 10)),
		expense("bob", 20, owes("alice", 10), paid("bob", 10)),
	}

	totals := GlobalBalances("alice", expenses, nil)
	if totals.YouOwe != 10 || totals.YouAreOwed != 10 {
		t.Errorf("totals = owe %v owed %v, want 10 and 10", totals.YouOwe, totals.YouAreOwed)
	}

	youOwe, owedBy := Outstanding(totals.ByUser)
	if len(youOwe) != 0 || len(owedBy) != 0 {
		t.Errorf("expected no outstanding entries, got %v and %v", youOwe, owedBy)
	}
}

func TestGroupBalance(t *testing.T) {
	tests := []struct {
		name        string
		me          string
		expenses    []*models.Expense
		settlements []*models.Settlement
		want        float64
	}{
		{
			name:     "payer of 90 split three ways is owed 60",
			me:       "alice",
			expenses: []*models.Expense{expense("alice", 90, owes("alice", 30), owes("bob", 30), owes("carol", 30))},
			want:     60,
		},
		{
			name:     "member owes own share",
			me:       "bob",
			expenses: []*models.Expense{expense("alice", 90, owes("alice", 30), owes("bob", 30), owes("carol", 30))},
			want:     -30,
		},
		{
			name:        "settlement paid by member raises balance",
			me:          "bob",
			expenses:    []*models.Expense{expense("alice", 90, owes("alice", 30), owes("bob", 30), owes("carol", 30))},
			settlements: []*models.Settlement{settle("bob", "alice", 30)},
			want:        0,
		},
		{
			name:        "settlement received by payer lowers balance",
			me:          "alice",
			expenses:    []*models.Expense{expense("alice", 90, owes("alice", 30), owes("bob", 30), owes("carol", 30))},
			settlements: []*models.Settlement{settle("bob", "alice", 30)},
			want:        30,
		},
		{
			name:        "settlement between others is ignored",
			me:          "alice",
			settlements: []*models.Settlement{settle("bob", "carol", 30)},
			want:        0,
		},
		{
			name:     "paid splits are ignored",
			me:       "alice",
			expenses: []*models.Expense{expense("alice", 90, paid("alice", 30), paid("bob", 30), owes("carol", 30))},
			want:     30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GroupBalance(tt.me, tt.expenses, tt.settlements)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("GroupBalance(%s) = %v, want %v", tt.me, got, tt.want)
			}
		})
	}
}

func TestOutstanding_SortsDescendingStable(t *testing.T) {
	l := NewLedger()
	l.Entry("bob").Owed += 10
	l.Entry("carol").Owing += 25
	l.Entry("dave").Owed += 40
	l.Entry("erin").Owed += 10
	l.Entry("frank").Owing += 5
	l.Entry("gina") // zero

	youOwe, owedBy := Outstanding(l)

	wantOwedBy := []Counterparty{{"dave", 40}, {"bob", 10}, {"erin", 10}}
	if len(owedBy) != len(wantOwedBy) {
		t.Fatalf("owedBy = %v, want %v", owedBy, wantOwedBy)
	}
	for i := range wantOwedBy {
		if owedBy[i] != wantOwedBy[i] {
			t.Errorf("owedBy[%d] = %v, want %v", i, owedBy[i], wantOwedBy[i])
		}
	}

	wantOwe := []Counterparty{{"carol", 25}, {"frank", 5}}
	if len(youOwe) != len(wantOwe) {
		t.Fatalf("youOwe = %v, want %v", youOwe, wantOwe)
	}
	for i := range wantOwe {
		if youOwe[i] != wantOwe[i] {
			t.Errorf("youOwe[%d] = %v, want %v", i, youOwe[i], wantOwe[i])
		}
	}
}

func TestLedger_EntryInsertsZeroOnce(t *testing.T) {
	l := NewLedger()
	if _, ok := l.Get("bob"); ok {
		t.Fatal("Get must not insert")
	}

	p := l.Entry("bob")
	if p.Owed != 0 || p.Owing != 0 {
		t.Errorf("new entry = %+v, want zero", *p)
	}
	p.Owed = 5
	if l.Entry("bob").Owed != 5 {
		t.Error("Entry must return the existing position")
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
}

func TestGlobalBalances_FloatDrift(t *testing.T) {
	var expenses []*models.Expense
	for i := 0; i < 1000; i++ {
		expenses = append(expenses, expense("alice", 0.2, paid("alice", 0.1), owes("bob", 0.1)))
	}

	totals := GlobalBalances("alice", expenses, nil)

	// Plain float summation drifts, but stays well inside a cent here.
	if math.Abs(totals.YouAreOwed-100) > 0.01 {
		t.Errorf("YouAreOwed = %v, want about 100", totals.YouAreOwed)
	}
}
