package service

import (
	"time"

	"github.com/mmynk/spendsplit/internal/calculator"
	"github.com/mmynk/spendsplit/internal/ledger"
	"github.com/mmynk/spendsplit/internal/models"
)

// Timestamps on the wire are Unix milliseconds. Zero means unset.

// User is the public view of a user.
type User struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

type Split struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
	Paid   bool    `json:"paid"`
}

type Expense struct {
	ID           string  `json:"id"`
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
	Category     string  `json:"category"`
	Date         int64   `json:"date"`
	PaidByUserID string  `json:"paidByUserId"`
	SplitType    string  `json:"splitType"`
	Splits       []Split `json:"splits"`
	GroupID      string  `json:"groupId,omitempty"`
	CreatedBy    string  `json:"createdBy"`
}

type Settlement struct {
	ID                string   `json:"id"`
	Amount            float64  `json:"amount"`
	Note              string   `json:"note,omitempty"`
	Date              int64    `json:"date"`
	PaidByUserID      string   `json:"paidByUserId"`
	ReceivedByUserID  string   `json:"receivedByUserId"`
	GroupID           string   `json:"groupId,omitempty"`
	RelatedExpenseIDs []string `json:"relatedExpenseIds,omitempty"`
	CreatedBy         string   `json:"createdBy"`
}

type Member struct {
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	JoinedAt int64  `json:"joinedAt"`
}

type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	CreatedBy   string   `json:"createdBy"`
	Members     []Member `json:"members"`
}

type Counterparty struct {
	UserID   string  `json:"userId"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl,omitempty"`
	Amount   float64 `json:"amount"`
}

type OweDetails struct {
	YouOwe       []Counterparty `json:"youOwe"`
	YouAreOwedBy []Counterparty `json:"youAreOwedBy"`
}

type GroupSummary struct {
	Group       Group   `json:"group"`
	MemberCount int     `json:"memberCount"`
	Balance     float64 `json:"balance"`
}

type MonthTotal struct {
	Month int64   `json:"month"`
	Total float64 `json:"total"`
}

type GroupContact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MemberCount int    `json:"memberCount"`
}

type GroupMember struct {
	User
	Role    string  `json:"role"`
	Balance float64 `json:"balance"`
}

type SplitInput struct {
	UserID  string  `json:"userId"`
	Amount  float64 `json:"amount,omitempty"`
	Percent float64 `json:"percent,omitempty"`
	Paid    bool    `json:"paid,omitempty"`
}

// Requests and responses.

type GetDashboardRequest struct{}

type GetDashboardResponse struct {
	YouOwe       float64    `json:"youOwe"`
	YouAreOwed   float64    `json:"youAreOwed"`
	TotalBalance float64    `json:"totalBalance"`
	OweDetails   OweDetails `json:"oweDetails"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []GroupSummary `json:"groups"`
}

type GetMonthlySpendingRequest struct{}

type GetMonthlySpendingResponse struct {
	Months []MonthTotal `json:"months"`
}

type GetTotalSpentRequest struct{}

type GetTotalSpentResponse struct {
	Total float64 `json:"total"`
}

type GetExpensesBetweenRequest struct {
	OtherUserID string `json:"otherUserId"`
}

type GetExpensesBetweenResponse struct {
	Expenses    []Expense    `json:"expenses"`
	Settlements []Settlement `json:"settlements"`
	OtherUser   User         `json:"otherUser"`
	Balance     float64      `json:"balance"`
}

type GetContactsRequest struct{}

type GetContactsResponse struct {
	Users  []User         `json:"users"`
	Groups []GroupContact `json:"groups"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group       Group         `json:"group"`
	Members     []GroupMember `json:"members"`
	Expenses    []Expense     `json:"expenses"`
	Settlements []Settlement  `json:"settlements"`
	Balance     float64       `json:"balance"`
}

type CreateExpenseRequest struct {
	Description  string       `json:"description"`
	Amount       float64      `json:"amount"`
	Category     string       `json:"category,omitempty"`
	Date         int64        `json:"date,omitempty"`
	PaidByUserID string       `json:"paidByUserId,omitempty"`
	SplitType    string       `json:"splitType"`
	Splits       []SplitInput `json:"splits"`
	GroupID      string       `json:"groupId,omitempty"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type DeleteExpenseResponse struct{}

type CreateSettlementRequest struct {
	Amount            float64  `json:"amount"`
	Note              string   `json:"note,omitempty"`
	Date              int64    `json:"date,omitempty"`
	PaidByUserID      string   `json:"paidByUserId"`
	ReceivedByUserID  string   `json:"receivedByUserId"`
	GroupID           string   `json:"groupId,omitempty"`
	RelatedExpenseIDs []string `json:"relatedExpenseIds,omitempty"`
}

type CreateSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"memberIds,omitempty"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User User `json:"user"`
}

// Converters.

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func toUser(u *models.User) User {
	out := User{ID: u.ID, Name: u.Name, Email: u.Email}
	if u.ImageURL != "" {
		img := u.ImageURL
		out.ImageURL = &img
	}
	return out
}

func profileToUser(p ledger.Profile) User {
	return User{ID: p.ID, Name: p.Name, Email: p.Email, ImageURL: p.ImageURL}
}

func toExpense(e *models.Expense) Expense {
	splits := make([]Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = Split{UserID: s.UserID, Amount: s.Amount, Paid: s.Paid}
	}
	return Expense{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		Category:     e.Category,
		Date:         toMillis(e.Date),
		PaidByUserID: e.PaidByUserID,
		SplitType:    string(e.SplitType),
		Splits:       splits,
		GroupID:      e.GroupID,
		CreatedBy:    e.CreatedBy,
	}
}

func toExpenses(expenses []*models.Expense) []Expense {
	out := make([]Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toExpense(e)
	}
	return out
}

func toSettlement(s *models.Settlement) Settlement {
	return Settlement{
		ID:                s.ID,
		Amount:            s.Amount,
		Note:              s.Note,
		Date:              toMillis(s.Date),
		PaidByUserID:      s.PaidByUserID,
		ReceivedByUserID:  s.ReceivedByUserID,
		GroupID:           s.GroupID,
		RelatedExpenseIDs: s.RelatedExpenseIDs,
		CreatedBy:         s.CreatedBy,
	}
}

func toSettlements(settlements []*models.Settlement) []Settlement {
	out := make([]Settlement, len(settlements))
	for i, s := range settlements {
		out[i] = toSettlement(s)
	}
	return out
}

func toGroup(g *models.Group) Group {
	members := make([]Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = Member{UserID: m.UserID, Role: string(m.Role), JoinedAt: toMillis(m.JoinedAt)}
	}
	return Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		Members:     members,
	}
}

func toCounterparties(in []ledger.Counterparty) []Counterparty {
	out := make([]Counterparty, len(in))
	for i, c := range in {
		out[i] = Counterparty{UserID: c.UserID, Name: c.Name, ImageURL: c.ImageURL, Amount: c.Amount}
	}
	return out
}

func toMonthTotals(in []calculator.MonthTotal) []MonthTotal {
	out := make([]MonthTotal, len(in))
	for i, m := range in {
		out[i] = MonthTotal{Month: m.Month, Total: m.Total}
	}
	return out
}

func toSplitInputs(in []SplitInput) []ledger.SplitInput {
	out := make([]ledger.SplitInput, len(in))
	for i, s := range in {
		out[i] = ledger.SplitInput{UserID: s.UserID, Amount: s.Amount, Percent: s.Percent, Paid: s.Paid}
	}
	return out
}
