package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/spendsplit/internal/ledger"
	"github.com/mmynk/spendsplit/internal/models"
)

// LedgerServiceName is the fully-qualified name of the ledger service.
const LedgerServiceName = "spendsplit.v1.LedgerService"

// Ledger service procedure paths.
const (
	GetDashboardProcedure       = "/" + LedgerServiceName + "/GetDashboard"
	ListGroupsProcedure         = "/" + LedgerServiceName + "/ListGroups"
	GetMonthlySpendingProcedure = "/" + LedgerServiceName + "/GetMonthlySpending"
	GetTotalSpentProcedure      = "/" + LedgerServiceName + "/GetTotalSpent"
	GetExpensesBetweenProcedure = "/" + LedgerServiceName + "/GetExpensesBetween"
	GetContactsProcedure        = "/" + LedgerServiceName + "/GetContacts"
	GetGroupProcedure           = "/" + LedgerServiceName + "/GetGroup"
	CreateExpenseProcedure      = "/" + LedgerServiceName + "/CreateExpense"
	DeleteExpenseProcedure      = "/" + LedgerServiceName + "/DeleteExpense"
	CreateSettlementProcedure   = "/" + LedgerServiceName + "/CreateSettlement"
	CreateGroupProcedure        = "/" + LedgerServiceName + "/CreateGroup"
)

// LedgerService exposes the ledger engine over Connect.
type LedgerService struct {
	engine *ledger.Engine
}

// NewLedgerService creates a LedgerService backed by engine.
func NewLedgerService(engine *ledger.Engine) *LedgerService {
	return &LedgerService{engine: engine}
}

// NewLedgerServiceHandler builds an HTTP handler serving every ledger
// procedure. It returns the path prefix to mount the handler on.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)

	mux := http.NewServeMux()
	mux.Handle(GetDashboardProcedure, connect.NewUnaryHandler(GetDashboardProcedure, svc.GetDashboard, opts...))
	mux.Handle(ListGroupsProcedure, connect.NewUnaryHandler(ListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(GetMonthlySpendingProcedure, connect.NewUnaryHandler(GetMonthlySpendingProcedure, svc.GetMonthlySpending, opts...))
	mux.Handle(GetTotalSpentProcedure, connect.NewUnaryHandler(GetTotalSpentProcedure, svc.GetTotalSpent, opts...))
	mux.Handle(GetExpensesBetweenProcedure, connect.NewUnaryHandler(GetExpensesBetweenProcedure, svc.GetExpensesBetween, opts...))
	mux.Handle(GetContactsProcedure, connect.NewUnaryHandler(GetContactsProcedure, svc.GetContacts, opts...))
	mux.Handle(GetGroupProcedure, connect.NewUnaryHandler(GetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(CreateExpenseProcedure, connect.NewUnaryHandler(CreateExpenseProcedure, svc.CreateExpense, opts...))
	mux.Handle(DeleteExpenseProcedure, connect.NewUnaryHandler(DeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(CreateSettlementProcedure, connect.NewUnaryHandler(CreateSettlementProcedure, svc.CreateSettlement, opts...))
	mux.Handle(CreateGroupProcedure, connect.NewUnaryHandler(CreateGroupProcedure, svc.CreateGroup, opts...))

	return "/" + LedgerServiceName + "/", mux
}

// withCodec puts the JSON codec ahead of the caller's options.
func withCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

// GetDashboard returns the current user's personal balances.
func (s *LedgerService) GetDashboard(ctx context.Context, req *connect.Request[GetDashboardRequest]) (*connect.Response[GetDashboardResponse], error) {
	dashboard, err := s.engine.Dashboard(ctx)
	if err != nil {
		return nil, toConnectError("GetDashboard", err)
	}

	return connect.NewResponse(&GetDashboardResponse{
		YouOwe:       dashboard.YouOwe,
		YouAreOwed:   dashboard.YouAreOwed,
		TotalBalance: dashboard.TotalBalance,
		OweDetails: OweDetails{
			YouOwe:       toCounterparties(dashboard.OweDetails.YouOwe),
			YouAreOwedBy: toCounterparties(dashboard.OweDetails.YouAreOwedBy),
		},
	}), nil
}

// ListGroups returns the current user's groups with their balance in each.
func (s *LedgerService) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	groups, err := s.engine.Groups(ctx)
	if err != nil {
		return nil, toConnectError("ListGroups", err)
	}

	out := make([]GroupSummary, len(groups))
	for i, g := range groups {
		out[i] = GroupSummary{
			Group:       toGroup(g.Group),
			MemberCount: g.MemberCount,
			Balance:     g.Balance,
		}
	}
	return connect.NewResponse(&ListGroupsResponse{Groups: out}), nil
}

// GetMonthlySpending returns the twelve monthly totals of the current year.
func (s *LedgerService) GetMonthlySpending(ctx context.Context, req *connect.Request[GetMonthlySpendingRequest]) (*connect.Response[GetMonthlySpendingResponse], error) {
	months, err := s.engine.MonthlySpending(ctx)
	if err != nil {
		return nil, toConnectError("GetMonthlySpending", err)
	}
	return connect.NewResponse(&GetMonthlySpendingResponse{Months: toMonthTotals(months)}), nil
}

// GetTotalSpent returns the current user's year-to-date spending.
func (s *LedgerService) GetTotalSpent(ctx context.Context, req *connect.Request[GetTotalSpentRequest]) (*connect.Response[GetTotalSpentResponse], error) {
	total, err := s.engine.TotalSpent(ctx)
	if err != nil {
		return nil, toConnectError("GetTotalSpent", err)
	}
	return connect.NewResponse(&GetTotalSpentResponse{Total: total}), nil
}

// GetExpensesBetween returns the personal history with another user.
func (s *LedgerService) GetExpensesBetween(ctx context.Context, req *connect.Request[GetExpensesBetweenRequest]) (*connect.Response[GetExpensesBetweenResponse], error) {
	conv, err := s.engine.ExpensesBetween(ctx, req.Msg.OtherUserID)
	if err != nil {
		return nil, toConnectError("GetExpensesBetween", err)
	}

	return connect.NewResponse(&GetExpensesBetweenResponse{
		Expenses:    toExpenses(conv.Expenses),
		Settlements: toSettlements(conv.Settlements),
		OtherUser:   profileToUser(conv.OtherUser),
		Balance:     conv.Balance,
	}), nil
}

// GetContacts lists the users and groups the current user shares expenses with.
func (s *LedgerService) GetContacts(ctx context.Context, req *connect.Request[GetContactsRequest]) (*connect.Response[GetContactsResponse], error) {
	contacts, err := s.engine.Contacts(ctx)
	if err != nil {
		return nil, toConnectError("GetContacts", err)
	}

	users := make([]User, len(contacts.Users))
	for i, p := range contacts.Users {
		users[i] = profileToUser(p)
	}
	groups := make([]GroupContact, len(contacts.Groups))
	for i, g := range contacts.Groups {
		groups[i] = GroupContact{ID: g.ID, Name: g.Name, Description: g.Description, MemberCount: g.MemberCount}
	}
	return connect.NewResponse(&GetContactsResponse{Users: users, Groups: groups}), nil
}

// GetGroup returns a group with member balances and its history.
func (s *LedgerService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	detail, err := s.engine.GroupDetail(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetGroup", err)
	}

	members := make([]GroupMember, len(detail.Members))
	for i, m := range detail.Members {
		members[i] = GroupMember{
			User:    profileToUser(m.Profile),
			Role:    string(m.Role),
			Balance: m.Balance,
		}
	}
	return connect.NewResponse(&GetGroupResponse{
		Group:       toGroup(detail.Group),
		Members:     members,
		Expenses:    toExpenses(detail.Expenses),
		Settlements: toSettlements(detail.Settlements),
		Balance:     detail.Balance,
	}), nil
}

// CreateExpense records a new expense.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"amount", req.Msg.Amount,
		"split_type", req.Msg.SplitType,
		"splits_count", len(req.Msg.Splits),
		"group_id", req.Msg.GroupID,
	)

	expense, err := s.engine.CreateExpense(ctx, ledger.CreateExpenseInput{
		Description:  req.Msg.Description,
		Amount:       req.Msg.Amount,
		Category:     req.Msg.Category,
		Date:         fromMillis(req.Msg.Date),
		PaidByUserID: req.Msg.PaidByUserID,
		SplitType:    models.SplitType(req.Msg.SplitType),
		Splits:       toSplitInputs(req.Msg.Splits),
		GroupID:      req.Msg.GroupID,
	})
	if err != nil {
		return nil, toConnectError("CreateExpense", err)
	}

	slog.Info("Expense created", "expense_id", expense.ID)
	return connect.NewResponse(&CreateExpenseResponse{Expense: toExpense(expense)}), nil
}

// DeleteExpense removes an expense created or paid by the current user.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	if err := s.engine.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError("DeleteExpense", err)
	}

	slog.Info("Expense deleted", "expense_id", req.Msg.ExpenseID)
	return connect.NewResponse(&DeleteExpenseResponse{}), nil
}

// CreateSettlement records a payment between the current user and another.
func (s *LedgerService) CreateSettlement(ctx context.Context, req *connect.Request[CreateSettlementRequest]) (*connect.Response[CreateSettlementResponse], error) {
	slog.Info("CreateSettlement request received",
		"amount", req.Msg.Amount,
		"paid_by", req.Msg.PaidByUserID,
		"received_by", req.Msg.ReceivedByUserID,
		"group_id", req.Msg.GroupID,
	)

	settlement, err := s.engine.CreateSettlement(ctx, ledger.CreateSettlementInput{
		Amount:            req.Msg.Amount,
		Note:              req.Msg.Note,
		Date:              fromMillis(req.Msg.Date),
		PaidByUserID:      req.Msg.PaidByUserID,
		ReceivedByUserID:  req.Msg.ReceivedByUserID,
		GroupID:           req.Msg.GroupID,
		RelatedExpenseIDs: req.Msg.RelatedExpenseIDs,
	})
	if err != nil {
		return nil, toConnectError("CreateSettlement", err)
	}

	slog.Info("Settlement created", "settlement_id", settlement.ID)
	return connect.NewResponse(&CreateSettlementResponse{Settlement: toSettlement(settlement)}), nil
}

// CreateGroup creates a group owned by the current user.
func (s *LedgerService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIDs),
	)

	group, err := s.engine.CreateGroup(ctx, ledger.CreateGroupInput{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		MemberIDs:   req.Msg.MemberIDs,
	})
	if err != nil {
		return nil, toConnectError("CreateGroup", err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&CreateGroupResponse{Group: toGroup(group)}), nil
}
