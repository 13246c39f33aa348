package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mmynk/spendsplit/internal/calculator"
	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage"
)

// unknownName is shown for counterparties whose user record is missing.
const unknownName = "Unknown"

// endOfTime bounds open-ended date range queries.
var endOfTime = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Counterparty is one line of the dashboard owe lists.
type Counterparty struct {
	UserID   string
	Name     string
	ImageURL *string
	Amount   float64 // always positive
}

// OweDetails splits counterparties by direction.
type OweDetails struct {
	YouOwe       []Counterparty
	YouAreOwedBy []Counterparty
}

// Dashboard is the personal-scope summary for the current user.
type Dashboard struct {
	YouOwe       float64
	YouAreOwed   float64
	TotalBalance float64 // YouAreOwed - YouOwe
	OweDetails   OweDetails
}

// GroupSummary is one of the current user's groups with their net balance in it.
type GroupSummary struct {
	Group       *models.Group
	MemberCount int
	Balance     float64
}

// Profile is the public view of a user.
type Profile struct {
	ID       string
	Name     string
	Email    string
	ImageURL *string
}

// Conversation is the personal history between the current user and one other.
type Conversation struct {
	Expenses    []*models.Expense    // newest first
	Settlements []*models.Settlement // newest first
	OtherUser   Profile
	Balance     float64 // positive: the other user owes the current user
}

// GroupContact is a group entry of the contacts list.
type GroupContact struct {
	ID          string
	Name        string
	Description string
	MemberCount int
}

// Contacts lists the people and groups the current user shares expenses with.
type Contacts struct {
	Users  []Profile
	Groups []GroupContact
}

// GroupMember is a resolved group member with their own net balance in the group.
type GroupMember struct {
	Profile
	Role    models.Role
	Balance float64
}

// GroupDetail is a full view of one group.
type GroupDetail struct {
	Group       *models.Group
	Members     []GroupMember
	Expenses    []*models.Expense    // newest first
	Settlements []*models.Settlement // newest first
	Balance     float64              // the current user's net balance
}

// Dashboard aggregates every personal expense and settlement involving the
// current user.
func (e *Engine) Dashboard(ctx context.Context) (*Dashboard, error) {
	me, err := e.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	expenses, err := e.store.ExpensesByScope(ctx, models.Personal)
	if err != nil {
		return nil, fmt.Errorf("failed to get personal expenses: %w", err)
	}
	settlements, err := e.store.SettlementsByScope(ctx, models.Personal, storage.Involving(me.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to get personal settlements: %w", err)
	}

	totals := calculator.GlobalBalances(me.ID, expenses, settlements)
	youOwe, youAreOwedBy := calculator.Outstanding(totals.ByUser)

	users, err := e.store.GetUsers(ctx, totals.ByUser.IDs())
	if err != nil {
		return nil, fmt.Errorf("failed to get counterparties: %w", err)
	}

	return &Dashboard{
		YouOwe:       totals.YouOwe,
		YouAreOwed:   totals.YouAreOwed,
		TotalBalance: totals.Net(),
		OweDetails: OweDetails{
			YouOwe:       counterparties(youOwe, users),
			YouAreOwedBy: counterparties(youAreOwedBy, users),
		},
	}, nil
}

// Groups lists every group the current user belongs to with their net balance.
func (e *Engine) Groups(ctx context.Context) ([]GroupSummary, error) {
	me, err := e.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := e.store.GroupsByMember(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups: %w", err)
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		scope := models.InGroup(g.ID)
		expenses, err := e.store.ExpensesByScope(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("failed to get expenses for group %s: %w", g.ID, err)
		}
		settlements, err := e.store.SettlementsByScope(ctx, scope, storage.Involving(me.ID))
		if err != nil {
			return nil, fmt.Errorf("failed to get settlements for group %s: %w", g.ID, err)
		}

		summaries = append(summaries, GroupSummary{
			Group:       g,
			MemberCount: len(g.Members),
			Balance:     calculator.GroupBalance(me.ID, expenses, settlements),
		})
	}
	return summaries, nil
}

// MonthlySpending returns the current user's own share of spending for each
// month of the current calendar year, January first.
func (e *Engine) MonthlySpending(ctx context.Context) ([]calculator.MonthTotal, error) {
	me, err := e.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	start := calculator.StartOfYear(e.clock())
	expenses, err := e.store.ExpensesInDateRange(ctx, start, start.AddDate(1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}

	return calculator.MonthlySpending(me.ID, expenses, start.Year(), e.loc), nil
}

// TotalSpent returns the current user's own share of every expense dated
// since January 1 of the current year.
func (e *Engine) TotalSpent(ctx context.Context) (float64, error) {
	me, err := e.currentUser(ctx)
	if err != nil {
		return 0, err
	}

	start := calculator.StartOfYear(e.clock())
	expenses, err := e.store.ExpensesInDateRange(ctx, start, endOfTime)
	if err != nil {
		return 0, fmt.Errorf("failed to get expenses: %w", err)
	}

	return calculator.TotalSpent(me.ID, expenses, start), nil
}

// ExpensesBetween returns the personal expenses and settlements shared by the
// current user and otherUserID, with the pairwise balance.
func (e *Engine) ExpensesBetween(ctx context.Context, otherUserID string) (*Conversation, error) {
	me, err := e.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if otherUserID == "" {
		return nil, invalid("UserID", "is required")
	}
	if otherUserID == me.ID {
		return nil, invalid("UserID", "cannot query yourself")
	}

	other, err := e.store.GetUser(ctx, otherUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFound("user", otherUserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	myPaid, err := e.store.ExpensesByPayerAndScope(ctx, me.ID, models.Personal)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses paid by current user: %w", err)
	}
	theirPaid, err := e.store.ExpensesByPayerAndScope(ctx, other.ID, models.Personal)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses paid by other user: %w", err)
	}

	var expenses []*models.Expense
	for _, ex := range append(myPaid, theirPaid...) {
		if ex.Involves(me.ID) && ex.Involves(other.ID) {
			expenses = append(expenses, ex)
		}
	}
	sortNewestFirst(expenses)

	settlements, err := e.store.SettlementsByScope(ctx, models.Personal, storage.BetweenUsers(me.ID, other.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to get settlements: %w", err)
	}

	return &Conversation{
		Expenses:    expenses,
		Settlements: settlements,
		OtherUser:   profile(other),
		Balance:     calculator.PairwiseBalance(me.ID, other.ID, expenses, settlements),
	}, nil
}

// Contacts lists everyone the current user shares a personal expense with and
// every group they belong to, both sorted by name.
func (e *Engine) Contacts(ctx context.Context) (*Contacts, error) {
	me, err := e.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	youPaid, err := e.store.ExpensesByPayerAndScope(ctx, me.ID, models.Personal)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses paid by current user: %w", err)
	}
	personal, err := e.store.ExpensesByScope(ctx, models.Personal)
	if err != nil {
		return nil, fmt.Errorf("failed to get personal expenses: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != me.ID && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	collect := func(ex *models.Expense) {
		add(ex.PaidByUserID)
		for _, s := range ex.Splits {
			add(s.UserID)
		}
	}
	for _, ex := range youPaid {
		collect(ex)
	}
	for _, ex := range personal {
		if ex.PaidByUserID == me.ID {
			continue
		}
		if _, ok := ex.SplitFor(me.ID); ok {
			collect(ex)
		}
	}

	users, err := e.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}

	contacts := &Contacts{Users: []Profile{}, Groups: []GroupContact{}}
	for _, id := range ids {
		// Contacts whose user record is gone are dropped
		if u, ok := users[id]; ok {
			contacts.Users = append(contacts.Users, profile(u))
		}
	}
	sort.SliceStable(contacts.Users, func(i, j int) bool {
		return contacts.Users[i].Name < contacts.Users[j].Name
	})

	groups, err := e.store.GroupsByMember(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups: %w", err)
	}
	for _, g := range groups {
		contacts.Groups = append(contacts.Groups, GroupContact{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			MemberCount: len(g.Members),
		})
	}
	sort.SliceStable(contacts.Groups, func(i, j int) bool {
		return contacts.Groups[i].Name < contacts.Groups[j].Name
	})

	return contacts, nil
}

// GroupDetail returns a group with its members, history and balances.
// Only members may view a group.
func (e *Engine) GroupDetail(ctx context.Context, groupID string) (*GroupDetail, error) {
	me, err := e.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	group, err := e.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if !group.HasMember(me.ID) {
		return nil, fmt.Errorf("%w: not a member of group %s", ErrForbidden, groupID)
	}

	scope := models.InGroup(group.ID)
	expenses, err := e.store.ExpensesByScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to get group expenses: %w", err)
	}
	settlements, err := e.store.SettlementsByScope(ctx, scope, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get group settlements: %w", err)
	}

	users, err := e.store.GetUsers(ctx, group.MemberIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}

	detail := &GroupDetail{
		Group:       group,
		Members:     make([]GroupMember, len(group.Members)),
		Expenses:    expenses,
		Settlements: settlements,
		Balance:     calculator.GroupBalance(me.ID, expenses, settlements),
	}
	for i, m := range group.Members {
		p := Profile{ID: m.UserID, Name: unknownName}
		if u, ok := users[m.UserID]; ok {
			p = profile(u)
		}
		detail.Members[i] = GroupMember{
			Profile: p,
			Role:    m.Role,
			Balance: calculator.GroupBalance(m.UserID, expenses, settlements),
		}
	}
	return detail, nil
}

func counterparties(list []calculator.Counterparty, users map[string]*models.User) []Counterparty {
	out := make([]Counterparty, len(list))
	for i, c := range list {
		out[i] = Counterparty{UserID: c.UserID, Name: unknownName, Amount: c.Amount}
		if u, ok := users[c.UserID]; ok {
			if u.Name != "" {
				out[i].Name = u.Name
			}
			out[i].ImageURL = imageURL(u)
		}
	}
	return out
}

func profile(u *models.User) Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, ImageURL: imageURL(u)}
}

func imageURL(u *models.User) *string {
	if u.ImageURL == "" {
		return nil
	}
	url := u.ImageURL
	return &url
}

func sortNewestFirst(expenses []*models.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Date.After(expenses[j].Date)
	})
}
