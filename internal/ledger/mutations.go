package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/spendsplit/internal/calculator"
	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/notify"
	"github.com/mmynk/spendsplit/internal/storage"
)

// SplitInput is one participant of a new expense. Amount is read for exact
// splits, Percent for percentage splits; equal splits only need UserID.
// Paid records a share already settled outside the app. The payer's own
// share is always paid.
type SplitInput struct {
	UserID  string  `validate:"required"`
	Amount  float64 `validate:"gte=0"`
	Percent float64 `validate:"gte=0,lte=100"`
	Paid    bool
}

// CreateExpenseInput describes a new expense.
type CreateExpenseInput struct {
	Description string           `validate:"required,max=200"`
	Amount      float64          `validate:"gt=0"`
	Category    string           `validate:"max=50"`
	Date        time.Time
	// PaidByUserID defaults to the current user.
	PaidByUserID string
	SplitType    models.SplitType `validate:"required,oneof=equal percentage exact"`
	Splits       []SplitInput     `validate:"required,min=1,dive"`
	// GroupID is empty for a personal expense.
	GroupID string
}

// CreateSettlementInput describes a payment between two users.
type CreateSettlementInput struct {
	Amount            float64 `validate:"gt=0"`
	Note              string  `validate:"max=500"`
	Date              time.Time
	PaidByUserID      string   `validate:"required"`
	ReceivedByUserID  string   `validate:"required,nefield=PaidByUserID"`
	GroupID           string
	RelatedExpenseIDs []string `validate:"dive,required"`
}

// CreateGroupInput describes a new group. The current user is always added.
type CreateGroupInput struct {
	Name        string   `validate:"required,max=100"`
	Description string   `validate:"max=500"`
	MemberIDs   []string `validate:"dive,required"`
}

// CreateExpense validates input, builds the splits and stores the expense.
// Every split user other than the creator is notified.
func (e *Engine) CreateExpense(ctx context.Context, input CreateExpenseInput) (*models.Expense, error) {
	me, err := e.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	if err := e.validator.check(input); err != nil {
		return nil, err
	}

	payerID := input.PaidByUserID
	if payerID == "" {
		payerID = me.ID
	}

	participants := []string{payerID}
	seen := map[string]bool{payerID: true}
	splitSeen := make(map[string]bool, len(input.Splits))
	for _, s := range input.Splits {
		if splitSeen[s.UserID] {
			return nil, invalid("Splits", "user %s appears more than once", s.UserID)
		}
		splitSeen[s.UserID] = true
		if !seen[s.UserID] {
			seen[s.UserID] = true
			participants = append(participants, s.UserID)
		}
	}

	if input.GroupID != "" {
		group, err := e.store.GetGroup(ctx, input.GroupID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, invalid("GroupID", "group not found")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get group: %w", err)
		}
		if !group.HasMember(me.ID) {
			return nil, invalid("GroupID", "you are not a member of this group")
		}
		for _, id := range participants {
			if !group.HasMember(id) {
				return nil, invalid("Splits", "user %s is not a member of this group", id)
			}
		}
	}

	users, err := e.store.GetUsers(ctx, participants)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	for _, id := range participants {
		if _, ok := users[id]; !ok {
			return nil, invalid("Splits", "user %s does not exist", id)
		}
	}

	splits, err := buildSplits(input.Amount, payerID, input.SplitType, input.Splits)
	if err != nil {
		return nil, invalid("Splits", "%v", err)
	}
	if err := calculator.ValidateSplitTotal(input.Amount, splits); err != nil {
		return nil, invalid("Splits", "%v", err)
	}

	category := input.Category
	if category == "" {
		category = models.DefaultCategory
	}
	date := input.Date
	if date.IsZero() {
		date = e.now()
	}

	expense := &models.Expense{
		Description:  input.Description,
		Amount:       input.Amount,
		Category:     category,
		Date:         date,
		PaidByUserID: payerID,
		SplitType:    input.SplitType,
		Splits:       splits,
		GroupID:      input.GroupID,
		CreatedBy:    me.ID,
	}
	if err := e.store.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	for _, s := range expense.Splits {
		if s.UserID == me.ID {
			continue
		}
		e.sendNotice(ctx, notify.ExpenseAdded(users[s.UserID], me, expense, s.Amount))
	}

	return expense, nil
}

// DeleteExpense removes an expense. Only its creator or its payer may delete it.
func (e *Engine) DeleteExpense(ctx context.Context, expenseID string) error {
	me, err := e.currentUser(ctx)
	if err != nil {
		return err
	}

	expense, err := e.store.GetExpense(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		return notFound("expense", expenseID)
	}
	if err != nil {
		return fmt.Errorf("failed to get expense: %w", err)
	}

	if !expense.CanDelete(me.ID) {
		return fmt.Errorf("%w: only the creator or payer can delete expense %s", ErrForbidden, expenseID)
	}

	if err := e.store.DeleteExpense(ctx, expenseID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound("expense", expenseID)
		}
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// CreateSettlement records a payment in which the current user is one of the
// two parties. The other party is notified.
func (e *Engine) CreateSettlement(ctx context.Context, input CreateSettlementInput) (*models.Settlement, error) {
	me, err := e.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	input.Note = strings.TrimSpace(input.Note)
	if err := e.validator.check(input); err != nil {
		return nil, err
	}

	if input.PaidByUserID != me.ID && input.ReceivedByUserID != me.ID {
		return nil, fmt.Errorf("%w: you must be the payer or the receiver", ErrForbidden)
	}

	users, err := e.store.GetUsers(ctx, []string{input.PaidByUserID, input.ReceivedByUserID})
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	if _, ok := users[input.PaidByUserID]; !ok {
		return nil, invalid("PaidByUserID", "user %s does not exist", input.PaidByUserID)
	}
	if _, ok := users[input.ReceivedByUserID]; !ok {
		return nil, invalid("ReceivedByUserID", "user %s does not exist", input.ReceivedByUserID)
	}

	if input.GroupID != "" {
		group, err := e.store.GetGroup(ctx, input.GroupID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, invalid("GroupID", "group not found")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get group: %w", err)
		}
		if !group.HasMember(input.PaidByUserID) || !group.HasMember(input.ReceivedByUserID) {
			return nil, invalid("GroupID", "both users must be members of the group")
		}
	}

	date := input.Date
	if date.IsZero() {
		date = e.now()
	}

	settlement := &models.Settlement{
		Amount:            input.Amount,
		Note:              input.Note,
		Date:              date,
		PaidByUserID:      input.PaidByUserID,
		ReceivedByUserID:  input.ReceivedByUserID,
		GroupID:           input.GroupID,
		RelatedExpenseIDs: input.RelatedExpenseIDs,
		CreatedBy:         me.ID,
	}
	if err := e.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	otherID := settlement.ReceivedByUserID
	if otherID == me.ID {
		otherID = settlement.PaidByUserID
	}
	e.sendNotice(ctx, notify.SettlementRecorded(
		users[otherID], me,
		users[settlement.PaidByUserID], users[settlement.ReceivedByUserID],
		settlement,
	))

	return settlement, nil
}

// CreateGroup creates a group administered by the current user.
// Member IDs are deduplicated and must all exist.
func (e *Engine) CreateGroup(ctx context.Context, input CreateGroupInput) (*models.Group, error) {
	me, err := e.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := e.validator.check(input); err != nil {
		return nil, err
	}

	memberIDs := []string{me.ID}
	seen := map[string]bool{me.ID: true}
	for _, id := range input.MemberIDs {
		if !seen[id] {
			seen[id] = true
			memberIDs = append(memberIDs, id)
		}
	}

	users, err := e.store.GetUsers(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	joined := e.now()
	members := make([]models.Member, len(memberIDs))
	for i, id := range memberIDs {
		if _, ok := users[id]; !ok {
			return nil, invalid("MemberIDs", "user %s does not exist", id)
		}
		role := models.RoleMember
		if id == me.ID {
			role = models.RoleAdmin
		}
		members[i] = models.Member{UserID: id, Role: role, JoinedAt: joined}
	}

	group := &models.Group{
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   me.ID,
		Members:     members,
	}
	if err := e.store.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return group, nil
}

func buildSplits(amount float64, payerID string, splitType models.SplitType, in []SplitInput) ([]models.Split, error) {
	var (
		splits []models.Split
		err    error
	)
	switch splitType {
	case models.SplitEqual:
		ids := make([]string, len(in))
		for i, s := range in {
			ids[i] = s.UserID
		}
		splits, err = calculator.EqualSplits(amount, payerID, ids)
	case models.SplitPercentage:
		shares := make([]calculator.Share, len(in))
		for i, s := range in {
			shares[i] = calculator.Share{UserID: s.UserID, Percent: s.Percent}
		}
		splits, err = calculator.PercentageSplits(amount, payerID, shares)
	case models.SplitExact:
		exact := make([]models.Split, len(in))
		for i, s := range in {
			exact[i] = models.Split{UserID: s.UserID, Amount: s.Amount, Paid: s.Paid}
		}
		return calculator.ExactSplits(amount, payerID, exact)
	default:
		return nil, fmt.Errorf("unknown split type %q", splitType)
	}
	if err != nil {
		return nil, err
	}

	// Equal and percentage splits come back in input order.
	for i := range splits {
		splits[i].Paid = splits[i].Paid || in[i].Paid
	}
	return splits, nil
}

// sendNotice delivers msg, logging failures. A failed email never fails the write.
func (e *Engine) sendNotice(ctx context.Context, msg notify.Message) {
	if msg.To == "" {
		return
	}
	if err := e.sender.Send(ctx, msg); err != nil {
		slog.Warn("Failed to send notification", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}
