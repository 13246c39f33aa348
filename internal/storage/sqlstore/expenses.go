package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage"
)

const expenseColumns = "id, description, amount, category, date, paid_by, split_type, group_id, created_by"

// CreateExpense inserts an expense and its splits in one transaction.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID,
		expense.Description,
		expense.Amount,
		expense.Category,
		expense.Date.UnixMilli(),
		expense.PaidByUserID,
		string(expense.SplitType),
		expense.GroupID,
		expense.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount, paid, position) VALUES (?, ?, ?, ?, ?)",
			expense.ID, split.UserID, split.Amount, split.Paid, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense with its splits.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
		expenseID,
	)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return expenses[0], nil
}

// DeleteExpense removes an expense. Splits go with it.
func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Splits first; SQLite only cascades with foreign keys on.
	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExpensesByPayerAndScope lists expenses paid by payerID in scope, newest first.
func (s *Store) ExpensesByPayerAndScope(ctx context.Context, payerID string, scope models.Scope) ([]*models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE paid_by = ? AND group_id = ? ORDER BY date DESC, id ASC",
		payerID, scope.GroupID,
	)
}

// ExpensesByScope lists every expense in scope, newest first.
func (s *Store) ExpensesByScope(ctx context.Context, scope models.Scope) ([]*models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY date DESC, id ASC",
		scope.GroupID,
	)
}

// ExpensesInDateRange lists expenses dated in [start, end), oldest first.
func (s *Store) ExpensesInDateRange(ctx context.Context, start, end time.Time) ([]*models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE date >= ? AND date < ? ORDER BY date ASC, id ASC",
		start.UnixMilli(), end.UnixMilli(),
	)
}

// queryExpenses runs an expense query, then loads splits for every row with
// one extra query. Rows are closed before the second query starts.
func (s *Store) queryExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		e := &models.Expense{}
		var (
			dateMs    int64
			splitType string
		)
		if err := rows.Scan(
			&e.ID, &e.Description, &e.Amount, &e.Category, &dateMs,
			&e.PaidByUserID, &splitType, &e.GroupID, &e.CreatedBy,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Date = time.UnixMilli(dateMs)
		e.SplitType = models.SplitType(splitType)
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	if len(expenses) == 0 {
		return expenses, nil
	}
	if err := s.loadSplits(ctx, byID); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) loadSplits(ctx context.Context, byID map[string]*models.Expense) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	return forEachChunk(ids, func(chunk []string) error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT expense_id, user_id, amount, paid FROM expense_splits WHERE expense_id IN ("+
				placeholders(len(chunk))+") ORDER BY expense_id, position",
			stringArgs(chunk)...,
		)
		if err != nil {
			return fmt.Errorf("failed to query splits: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				expenseID string
				split     models.Split
			)
			if err := rows.Scan(&expenseID, &split.UserID, &split.Amount, &split.Paid); err != nil {
				return fmt.Errorf("failed to scan split: %w", err)
			}
			if e, ok := byID[expenseID]; ok {
				e.Splits = append(e.Splits, split)
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate splits: %w", err)
		}
		return nil
	})
}
