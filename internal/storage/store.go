// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/spendsplit/internal/models"
)

var (
	// ErrNotFound is returned when an ID does not resolve to a record.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique key is already taken.
	ErrAlreadyExists = errors.New("already exists")
)

// SettlementFilter selects settlements by their two parties.
// A nil filter matches every settlement.
type SettlementFilter func(paidBy, receivedBy string) bool

// Involving matches settlements paid or received by userID.
func Involving(userID string) SettlementFilter {
	return func(paidBy, receivedBy string) bool {
		return paidBy == userID || receivedBy == userID
	}
}

// BetweenUsers matches settlements between a and b in either direction.
func BetweenUsers(a, b string) SettlementFilter {
	return func(paidBy, receivedBy string) bool {
		return (paidBy == a && receivedBy == b) || (paidBy == b && receivedBy == a)
	}
}

// Match applies the filter, treating nil as match-all.
func (f SettlementFilter) Match(s *models.Settlement) bool {
	return f == nil || f(s.PaidByUserID, s.ReceivedByUserID)
}

// Reader is the read-only view the ledger engine works against.
// Every method returns fully decoded records; callers never re-check their shape.
type Reader interface {
	// ExpensesByPayerAndScope returns expenses paid by payerID in the given scope,
	// newest first.
	ExpensesByPayerAndScope(ctx context.Context, payerID string, scope models.Scope) ([]*models.Expense, error)

	// ExpensesByScope returns every expense in the scope, newest first.
	ExpensesByScope(ctx context.Context, scope models.Scope) ([]*models.Expense, error)

	// ExpensesInDateRange returns expenses with start <= date < end, oldest first.
	ExpensesInDateRange(ctx context.Context, start, end time.Time) ([]*models.Expense, error)

	// SettlementsByScope returns settlements in the scope accepted by filter, newest first.
	SettlementsByScope(ctx context.Context, scope models.Scope, filter SettlementFilter) ([]*models.Settlement, error)

	// GetExpense retrieves an expense by ID. Returns ErrNotFound if missing.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// GetUser retrieves a user by ID. Returns ErrNotFound if missing.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// GetUsers retrieves several users keyed by ID. Missing users are omitted.
	GetUsers(ctx context.Context, userIDs []string) (map[string]*models.User, error)

	// GetUserByEmail retrieves a user by email. Returns ErrNotFound if missing.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// ListUsers returns every user.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// GetGroup retrieves a group with its members. Returns ErrNotFound if missing.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// GroupsByMember returns the groups userID belongs to.
	GroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)
}

// Writer holds the insert and delete operations. Each call is atomic in the
// backing store. Records are never updated in place.
type Writer interface {
	// CreateUser persists a new user. Returns ErrAlreadyExists for a taken email.
	CreateUser(ctx context.Context, user *models.User) error

	// CreateExpense persists a new expense with its splits.
	// The expense.ID field will be populated by the store if empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense. Returns ErrNotFound if missing.
	DeleteExpense(ctx context.Context, expenseID string) error

	// CreateSettlement persists a new settlement.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// CreateGroup persists a new group with its members.
	CreateGroup(ctx context.Context, group *models.Group) error
}

// Store defines the full storage contract.
// This abstraction allows swapping storage backends (memory, SQLite, MySQL, MongoDB)
// without changing the ledger engine.
type Store interface {
	Reader
	Writer

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
