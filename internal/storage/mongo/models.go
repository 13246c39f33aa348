package mongo

import (
	"time"

	"github.com/mmynk/spendsplit/internal/models"
)

// ==================== User models ====================

type userModel struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	EmailLower   string `bson:"email_lower"`
	Name         string `bson:"name"`
	ImageURL     string `bson:"image_url,omitempty"`
	PasswordHash string `bson:"password_hash,omitempty"`
	CreatedAt    int64  `bson:"created_at"`
}

func toUserModel(u *models.User) *userModel {
	return &userModel{
		ID:           u.ID,
		Email:        u.Email,
		EmailLower:   normalizeEmail(u.Email),
		Name:         u.Name,
		ImageURL:     u.ImageURL,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func fromUserModel(m *userModel) *models.User {
	return &models.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		ImageURL:     m.ImageURL,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

// ==================== Expense models ====================

type expenseModel struct {
	ID          string       `bson:"_id"`
	Description string       `bson:"description"`
	Amount      float64      `bson:"amount"`
	Category    string       `bson:"category"`
	Date        time.Time    `bson:"date"`
	PaidBy      string       `bson:"paid_by"`
	SplitType   string       `bson:"split_type"`
	Splits      []splitModel `bson:"splits"`
	GroupID     string       `bson:"group_id"`
	CreatedBy   string       `bson:"created_by"`
}

type splitModel struct {
	UserID string  `bson:"user_id"`
	Amount float64 `bson:"amount"`
	Paid   bool    `bson:"paid"`
}

func toExpenseModel(e *models.Expense) *expenseModel {
	splits := make([]splitModel, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = splitModel{UserID: s.UserID, Amount: s.Amount, Paid: s.Paid}
	}
	return &expenseModel{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date.UTC(),
		PaidBy:      e.PaidByUserID,
		SplitType:   string(e.SplitType),
		Splits:      splits,
		GroupID:     e.GroupID,
		CreatedBy:   e.CreatedBy,
	}
}

func fromExpenseModel(m *expenseModel) *models.Expense {
	splits := make([]models.Split, len(m.Splits))
	for i, s := range m.Splits {
		splits[i] = models.Split{UserID: s.UserID, Amount: s.Amount, Paid: s.Paid}
	}
	return &models.Expense{
		ID:           m.ID,
		Description:  m.Description,
		Amount:       m.Amount,
		Category:     m.Category,
		Date:         m.Date,
		PaidByUserID: m.PaidBy,
		SplitType:    models.SplitType(m.SplitType),
		Splits:       splits,
		GroupID:      m.GroupID,
		CreatedBy:    m.CreatedBy,
	}
}

// ==================== Settlement models ====================

type settlementModel struct {
	ID                string    `bson:"_id"`
	Amount            float64   `bson:"amount"`
	Note              string    `bson:"note,omitempty"`
	Date              time.Time `bson:"date"`
	PaidBy            string    `bson:"paid_by"`
	ReceivedBy        string    `bson:"received_by"`
	GroupID           string    `bson:"group_id"`
	RelatedExpenseIDs []string  `bson:"related_expense_ids,omitempty"`
	CreatedBy         string    `bson:"created_by"`
}

func toSettlementModel(s *models.Settlement) *settlementModel {
	return &settlementModel{
		ID:                s.ID,
		Amount:            s.Amount,
		Note:              s.Note,
		Date:              s.Date.UTC(),
		PaidBy:            s.PaidByUserID,
		ReceivedBy:        s.ReceivedByUserID,
		GroupID:           s.GroupID,
		RelatedExpenseIDs: s.RelatedExpenseIDs,
		CreatedBy:         s.CreatedBy,
	}
}

func fromSettlementModel(m *settlementModel) *models.Settlement {
	return &models.Settlement{
		ID:                m.ID,
		Amount:            m.Amount,
		Note:              m.Note,
		Date:              m.Date,
		PaidByUserID:      m.PaidBy,
		ReceivedByUserID:  m.ReceivedBy,
		GroupID:           m.GroupID,
		RelatedExpenseIDs: m.RelatedExpenseIDs,
		CreatedBy:         m.CreatedBy,
	}
}

// ==================== Group models ====================

type groupModel struct {
	ID          string        `bson:"_id"`
	Name        string        `bson:"name"`
	Description string        `bson:"description,omitempty"`
	CreatedBy   string        `bson:"created_by"`
	Members     []memberModel `bson:"members"`
	// MemberIDs duplicates Members[].user_id for the membership index.
	MemberIDs []string `bson:"member_ids"`
}

type memberModel struct {
	UserID   string    `bson:"user_id"`
	Role     string    `bson:"role"`
	JoinedAt time.Time `bson:"joined_at"`
}

func toGroupModel(g *models.Group) *groupModel {
	members := make([]memberModel, len(g.Members))
	for i, m := range g.Members {
		joined := m.JoinedAt
		if joined.IsZero() {
			joined = now()
		}
		members[i] = memberModel{UserID: m.UserID, Role: string(m.Role), JoinedAt: joined.UTC()}
	}
	return &groupModel{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		Members:     members,
		MemberIDs:   g.MemberIDs(),
	}
}

func fromGroupModel(m *groupModel) *models.Group {
	members := make([]models.Member, len(m.Members))
	for i, mm := range m.Members {
		members[i] = models.Member{UserID: mm.UserID, Role: models.Role(mm.Role), JoinedAt: mm.JoinedAt}
	}
	return &models.Group{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedBy:   m.CreatedBy,
		Members:     members,
	}
}
