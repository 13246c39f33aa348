package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage"
)

// CreateSettlement inserts a settlement and its related expense references.
func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.Date.IsZero() {
		settlement.Date = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settlements (id, amount, note, date, paid_by, received_by, group_id, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		settlement.ID,
		settlement.Amount,
		settlement.Note,
		settlement.Date.UnixMilli(),
		settlement.PaidByUserID,
		settlement.ReceivedByUserID,
		settlement.GroupID,
		settlement.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	for i, expenseID := range settlement.RelatedExpenseIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO settlement_expenses (settlement_id, expense_id, position) VALUES (?, ?, ?)",
			settlement.ID, expenseID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert related expense: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SettlementsByScope lists settlements in scope accepted by filter, newest first.
// The filter runs in Go after the scope query.
func (s *Store) SettlementsByScope(ctx context.Context, scope models.Scope, filter storage.SettlementFilter) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, note, date, paid_by, received_by, group_id, created_by
		FROM settlements
		WHERE group_id = ?
		ORDER BY date DESC, id ASC
	`, scope.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}

	var settlements []*models.Settlement
	byID := make(map[string]*models.Settlement)
	for rows.Next() {
		st := &models.Settlement{}
		var dateMs int64
		if err := rows.Scan(
			&st.ID, &st.Amount, &st.Note, &dateMs,
			&st.PaidByUserID, &st.ReceivedByUserID, &st.GroupID, &st.CreatedBy,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		st.Date = time.UnixMilli(dateMs)
		if !filter.Match(st) {
			continue
		}
		settlements = append(settlements, st)
		byID[st.ID] = st
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	rows.Close()

	if len(settlements) == 0 {
		return settlements, nil
	}
	if err := s.loadRelatedExpenses(ctx, byID); err != nil {
		return nil, err
	}
	return settlements, nil
}

func (s *Store) loadRelatedExpenses(ctx context.Context, byID map[string]*models.Settlement) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	return forEachChunk(ids, func(chunk []string) error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT settlement_id, expense_id FROM settlement_expenses WHERE settlement_id IN ("+
				placeholders(len(chunk))+") ORDER BY settlement_id, position",
			stringArgs(chunk)...,
		)
		if err != nil {
			return fmt.Errorf("failed to query related expenses: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var settlementID, expenseID string
			if err := rows.Scan(&settlementID, &expenseID); err != nil {
				return fmt.Errorf("failed to scan related expense: %w", err)
			}
			if st, ok := byID[settlementID]; ok {
				st.RelatedExpenseIDs = append(st.RelatedExpenseIDs, expenseID)
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate related expenses: %w", err)
		}
		return nil
	})
}
