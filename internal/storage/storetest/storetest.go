// Package storetest holds a behavioural test suite shared by every
// storage.Store implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage"
)

// Run exercises store against the storage.Store contract.
// The store must start empty.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	alice := &models.User{Name: "Alice", Email: "alice@example.com", ImageURL: "https://img/alice.png"}
	bob := &models.User{Name: "Bob", Email: "bob@example.com"}
	carol := &models.User{Name: "Carol", Email: "carol@example.com"}

	t.Run("CreateUser generates ID", func(t *testing.T) {
		for _, u := range []*models.User{alice, bob, carol} {
			if err := store.CreateUser(ctx, u); err != nil {
				t.Fatalf("CreateUser(%s) failed: %v", u.Name, err)
			}
			if u.ID == "" {
				t.Errorf("expected ID for %s", u.Name)
			}
		}
	})

	t.Run("CreateUser rejects duplicate email", func(t *testing.T) {
		err := store.CreateUser(ctx, &models.User{Name: "Alice 2", Email: "alice@example.com"})
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("GetUser round trip", func(t *testing.T) {
		got, err := store.GetUser(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if got.Name != "Alice" || got.Email != alice.Email || got.ImageURL != alice.ImageURL {
			t.Errorf("GetUser = %+v", got)
		}

		byEmail, err := store.GetUserByEmail(ctx, "bob@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if byEmail.ID != bob.ID {
			t.Errorf("GetUserByEmail ID = %s, want %s", byEmail.ID, bob.ID)
		}
	})

	t.Run("GetUser returns ErrNotFound", func(t *testing.T) {
		if _, err := store.GetUser(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetUsers omits missing", func(t *testing.T) {
		users, err := store.GetUsers(ctx, []string{alice.ID, "missing", carol.ID})
		if err != nil {
			t.Fatalf("GetUsers failed: %v", err)
		}
		if len(users) != 2 || users[alice.ID] == nil || users[carol.ID] == nil {
			t.Errorf("GetUsers = %v", users)
		}

		empty, err := store.GetUsers(ctx, nil)
		if err != nil || len(empty) != 0 {
			t.Errorf("GetUsers(nil) = %v, %v", empty, err)
		}
	})

	t.Run("ListUsers", func(t *testing.T) {
		users, err := store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 3 {
			t.Errorf("ListUsers returned %d users, want 3", len(users))
		}
	})

	group := &models.Group{
		Name:      "Roommates",
		CreatedBy: alice.ID,
		Members: []models.Member{
			{UserID: alice.ID, Role: models.RoleAdmin, JoinedAt: time.Unix(1700000000, 0)},
			{UserID: bob.ID, Role: models.RoleMember, JoinedAt: time.Unix(1700000000, 0)},
		},
	}

	t.Run("CreateGroup and GetGroup", func(t *testing.T) {
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Roommates" || got.CreatedBy != alice.ID {
			t.Errorf("GetGroup = %+v", got)
		}
		if len(got.Members) != 2 || got.Members[0].Role != models.RoleAdmin {
			t.Errorf("members = %+v", got.Members)
		}
		if _, err := store.GetGroup(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GroupsByMember", func(t *testing.T) {
		groups, err := store.GroupsByMember(ctx, bob.ID)
		if err != nil {
			t.Fatalf("GroupsByMember failed: %v", err)
		}
		if len(groups) != 1 || groups[0].ID != group.ID {
			t.Errorf("GroupsByMember(bob) = %v", groups)
		}
		none, err := store.GroupsByMember(ctx, carol.ID)
		if err != nil || len(none) != 0 {
			t.Errorf("GroupsByMember(carol) = %v, %v", none, err)
		}
	})

	jan := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)
	mar := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	personal := &models.Expense{
		Description:  "Dinner",
		Amount:       100,
		Category:     "Food",
		Date:         jan,
		PaidByUserID: alice.ID,
		SplitType:    models.SplitEqual,
		Splits: []models.Split{
			{UserID: alice.ID, Amount: 50, Paid: true},
			{UserID: bob.ID, Amount: 50},
		},
		CreatedBy: alice.ID,
	}
	grouped := &models.Expense{
		Description:  "Rent",
		Amount:       90,
		Category:     "Home",
		Date:         feb,
		PaidByUserID: bob.ID,
		SplitType:    models.SplitEqual,
		Splits: []models.Split{
			{UserID: alice.ID, Amount: 45},
			{UserID: bob.ID, Amount: 45, Paid: true},
		},
		GroupID:   group.ID,
		CreatedBy: bob.ID,
	}
	later := &models.Expense{
		Description:  "Taxi",
		Amount:       30,
		Category:     "Travel",
		Date:         mar,
		PaidByUserID: alice.ID,
		SplitType:    models.SplitExact,
		Splits: []models.Split{
			{UserID: carol.ID, Amount: 30},
		},
		CreatedBy: carol.ID,
	}

	t.Run("CreateExpense and GetExpense", func(t *testing.T) {
		for _, e := range []*models.Expense{personal, grouped, later} {
			if err := store.CreateExpense(ctx, e); err != nil {
				t.Fatalf("CreateExpense(%s) failed: %v", e.Description, err)
			}
			if e.ID == "" {
				t.Errorf("expected ID for %s", e.Description)
			}
		}

		got, err := store.GetExpense(ctx, personal.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Description != "Dinner" || got.Amount != 100 || got.Category != "Food" {
			t.Errorf("GetExpense = %+v", got)
		}
		if !got.Date.Equal(jan) {
			t.Errorf("date = %v, want %v", got.Date, jan)
		}
		if got.SplitType != models.SplitEqual || got.GroupID != "" || got.CreatedBy != alice.ID {
			t.Errorf("GetExpense = %+v", got)
		}
		if len(got.Splits) != 2 {
			t.Fatalf("splits = %+v", got.Splits)
		}
		if s, ok := got.SplitFor(bob.ID); !ok || s.Amount != 50 || s.Paid {
			t.Errorf("bob split = %+v", s)
		}
		if s, ok := got.SplitFor(alice.ID); !ok || !s.Paid {
			t.Errorf("alice split = %+v", s)
		}
	})

	t.Run("ExpensesByPayerAndScope", func(t *testing.T) {
		mine, err := store.ExpensesByPayerAndScope(ctx, alice.ID, models.Personal)
		if err != nil {
			t.Fatalf("ExpensesByPayerAndScope failed: %v", err)
		}
		if len(mine) != 2 || mine[0].ID != later.ID || mine[1].ID != personal.ID {
			t.Errorf("expected [Taxi Dinner], got %v", descriptions(mine))
		}

		bobGroup, err := store.ExpensesByPayerAndScope(ctx, bob.ID, models.InGroup(group.ID))
		if err != nil {
			t.Fatalf("ExpensesByPayerAndScope failed: %v", err)
		}
		if len(bobGroup) != 1 || bobGroup[0].ID != grouped.ID {
			t.Errorf("expected [Rent], got %v", descriptions(bobGroup))
		}

		bobPersonal, err := store.ExpensesByPayerAndScope(ctx, bob.ID, models.Personal)
		if err != nil || len(bobPersonal) != 0 {
			t.Errorf("expected none, got %v, %v", descriptions(bobPersonal), err)
		}
	})

	t.Run("ExpensesByScope", func(t *testing.T) {
		inGroup, err := store.ExpensesByScope(ctx, models.InGroup(group.ID))
		if err != nil {
			t.Fatalf("ExpensesByScope failed: %v", err)
		}
		if len(inGroup) != 1 || inGroup[0].ID != grouped.ID {
			t.Errorf("expected [Rent], got %v", descriptions(inGroup))
		}

		personalScope, err := store.ExpensesByScope(ctx, models.Personal)
		if err != nil {
			t.Fatalf("ExpensesByScope failed: %v", err)
		}
		if len(personalScope) != 2 {
			t.Errorf("expected 2 personal expenses, got %v", descriptions(personalScope))
		}
	})

	t.Run("ExpensesInDateRange", func(t *testing.T) {
		got, err := store.ExpensesInDateRange(ctx, feb, mar)
		if err != nil {
			t.Fatalf("ExpensesInDateRange failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != grouped.ID {
			t.Errorf("expected [Rent], got %v", descriptions(got))
		}

		all, err := store.ExpensesInDateRange(ctx, jan, mar.Add(time.Second))
		if err != nil {
			t.Fatalf("ExpensesInDateRange failed: %v", err)
		}
		if len(all) != 3 || all[0].ID != personal.ID || all[2].ID != later.ID {
			t.Errorf("expected oldest first, got %v", descriptions(all))
		}
	})

	s1 := &models.Settlement{
		Amount:            20,
		Note:              "cash",
		Date:              feb,
		PaidByUserID:      bob.ID,
		ReceivedByUserID:  alice.ID,
		RelatedExpenseIDs: []string{personal.ID},
		CreatedBy:         bob.ID,
	}
	s2 := &models.Settlement{
		Amount:           45,
		Date:             mar,
		PaidByUserID:     alice.ID,
		ReceivedByUserID: bob.ID,
		GroupID:          group.ID,
		CreatedBy:        alice.ID,
	}
	s3 := &models.Settlement{
		Amount:           5,
		Date:             mar,
		PaidByUserID:     carol.ID,
		ReceivedByUserID: alice.ID,
		CreatedBy:        carol.ID,
	}

	t.Run("CreateSettlement and SettlementsByScope", func(t *testing.T) {
		for _, s := range []*models.Settlement{s1, s2, s3} {
			if err := store.CreateSettlement(ctx, s); err != nil {
				t.Fatalf("CreateSettlement failed: %v", err)
			}
			if s.ID == "" {
				t.Error("expected settlement ID")
			}
		}

		between, err := store.SettlementsByScope(ctx, models.Personal, storage.BetweenUsers(alice.ID, bob.ID))
		if err != nil {
			t.Fatalf("SettlementsByScope failed: %v", err)
		}
		if len(between) != 1 || between[0].ID != s1.ID {
			t.Fatalf("expected [s1], got %d settlements", len(between))
		}
		if between[0].Note != "cash" || between[0].Amount != 20 || !between[0].Date.Equal(feb) {
			t.Errorf("settlement = %+v", between[0])
		}
		if len(between[0].RelatedExpenseIDs) != 1 || between[0].RelatedExpenseIDs[0] != personal.ID {
			t.Errorf("related = %v", between[0].RelatedExpenseIDs)
		}

		involving, err := store.SettlementsByScope(ctx, models.Personal, storage.Involving(alice.ID))
		if err != nil {
			t.Fatalf("SettlementsByScope failed: %v", err)
		}
		if len(involving) != 2 || involving[0].ID != s3.ID {
			t.Errorf("expected [s3 s1], got %d", len(involving))
		}

		inGroup, err := store.SettlementsByScope(ctx, models.InGroup(group.ID), nil)
		if err != nil {
			t.Fatalf("SettlementsByScope failed: %v", err)
		}
		if len(inGroup) != 1 || inGroup[0].ID != s2.ID {
			t.Errorf("expected [s2], got %d", len(inGroup))
		}
	})

	t.Run("DeleteExpense", func(t *testing.T) {
		if err := store.DeleteExpense(ctx, later.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, later.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteExpense(ctx, later.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := store.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}

func descriptions(expenses []*models.Expense) []string {
	out := make([]string, len(expenses))
	for i, e := range expenses {
		out[i] = e.Description
	}
	return out
}
