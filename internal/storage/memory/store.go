// Package memory provides an in-process implementation of storage.Store.
// Records are copied on the way in and on the way out, so callers can never
// alias stored state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps every record in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	users       map[string]*models.User
	expenses    map[string]*models.Expense
	settlements map[string]*models.Settlement
	groups      map[string]*models.Group
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]*models.User),
		expenses:    make(map[string]*models.Expense),
		settlements: make(map[string]*models.Settlement),
		groups:      make(map[string]*models.Group),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ==================== Users ====================

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user %s: %w", user.ID, storage.ErrAlreadyExists)
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("email %s: %w", user.Email, storage.ErrAlreadyExists)
		}
	}

	u := *user
	s.users[u.ID] = &u
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUsers(_ context.Context, userIDs []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string]*models.User, len(userIDs))
	for _, id := range userIDs {
		if u, ok := s.users[id]; ok {
			cp := *u
			users[id] = &cp
		}
	}
	return users, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, storage.ErrNotFound)
}

func (s *Store) ListUsers(context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// ==================== Expenses ====================

func (s *Store) CreateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now()
	}
	if _, exists := s.expenses[expense.ID]; exists {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrAlreadyExists)
	}
	s.expenses[expense.ID] = cloneExpense(expense)
	return nil
}

func (s *Store) GetExpense(_ context.Context, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return cloneExpense(e), nil
}

func (s *Store) DeleteExpense(_ context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[expenseID]; !ok {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	delete(s.expenses, expenseID)
	return nil
}

func (s *Store) ExpensesByPayerAndScope(_ context.Context, payerID string, scope models.Scope) ([]*models.Expense, error) {
	return s.selectExpenses(func(e *models.Expense) bool {
		return e.PaidByUserID == payerID && scope.Matches(e.GroupID)
	}, newestFirst), nil
}

func (s *Store) ExpensesByScope(_ context.Context, scope models.Scope) ([]*models.Expense, error) {
	return s.selectExpenses(func(e *models.Expense) bool {
		return scope.Matches(e.GroupID)
	}, newestFirst), nil
}

func (s *Store) ExpensesInDateRange(_ context.Context, start, end time.Time) ([]*models.Expense, error) {
	return s.selectExpenses(func(e *models.Expense) bool {
		return !e.Date.Before(start) && e.Date.Before(end)
	}, oldestFirst), nil
}

func (s *Store) selectExpenses(keep func(*models.Expense) bool, less func(a, b time.Time) bool) []*models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Expense
	for _, e := range s.expenses {
		if keep(e) {
			out = append(out, cloneExpense(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return less(out[i].Date, out[j].Date)
	})
	return out
}

// ==================== Settlements ====================

func (s *Store) CreateSettlement(_ context.Context, settlement *models.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.Date.IsZero() {
		settlement.Date = time.Now()
	}
	if _, exists := s.settlements[settlement.ID]; exists {
		return fmt.Errorf("settlement %s: %w", settlement.ID, storage.ErrAlreadyExists)
	}
	s.settlements[settlement.ID] = cloneSettlement(settlement)
	return nil
}

func (s *Store) SettlementsByScope(_ context.Context, scope models.Scope, filter storage.SettlementFilter) ([]*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Settlement
	for _, st := range s.settlements {
		if scope.Matches(st.GroupID) && filter.Match(st) {
			out = append(out, cloneSettlement(st))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// ==================== Groups ====================

func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if _, exists := s.groups[group.ID]; exists {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrAlreadyExists)
	}
	s.groups[group.ID] = cloneGroup(group)
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return cloneGroup(g), nil
}

func (s *Store) GroupsByMember(_ context.Context, userID string) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Group
	for _, g := range s.groups {
		if g.HasMember(userID) {
			out = append(out, cloneGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ==================== Helpers ====================

func newestFirst(a, b time.Time) bool { return a.After(b) }
func oldestFirst(a, b time.Time) bool { return a.Before(b) }

func cloneExpense(e *models.Expense) *models.Expense {
	cp := *e
	cp.Splits = append([]models.Split(nil), e.Splits...)
	return &cp
}

func cloneSettlement(st *models.Settlement) *models.Settlement {
	cp := *st
	cp.RelatedExpenseIDs = append([]string(nil), st.RelatedExpenseIDs...)
	return &cp
}

func cloneGroup(g *models.Group) *models.Group {
	cp := *g
	cp.Members = append([]models.Member(nil), g.Members...)
	return &cp
}
