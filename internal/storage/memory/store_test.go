package memory

import (
	"context"
	"testing"

	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, New())
}

func TestStore_CopiesRecords(t *testing.T) {
	ctx := context.Background()
	s := New()

	e := &models.Expense{
		Description:  "Lunch",
		Amount:       20,
		PaidByUserID: "alice",
		Splits:       []models.Split{{UserID: "bob", Amount: 20}},
	}
	if err := s.CreateExpense(ctx, e); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	// Mutating the caller's copy must not reach the store
	e.Splits[0].Paid = true

	got, err := s.GetExpense(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.Splits[0].Paid {
		t.Error("store shares split slice with caller")
	}

	got.Splits[0].Amount = 999
	again, _ := s.GetExpense(ctx, e.ID)
	if again.Splits[0].Amount != 20 {
		t.Error("store shares split slice with reader")
	}
}
