// Package mongo provides a MongoDB implementation of storage.Store.
// Splits and group members are embedded in their parent documents, so every
// write is a single-document insert.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage"
)

// Collection name constants.
const (
	colUsers       = "spendsplit_users"
	colExpenses    = "spendsplit_expenses"
	colSettlements = "spendsplit_settlements"
	colGroups      = "spendsplit_groups"
)

// compile-time interface check
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using the official MongoDB driver.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, selects database and creates indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("spendsplit/mongo: connect: %w", err)
	}

	s := New(client, database)
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// New wraps an existing client. Call Migrate before first use.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// Migrate creates indexes for all spendsplit collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, idx := range migrationIndexes() {
		if len(idx) == 0 {
			continue
		}
		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, idx)
		if err != nil {
			return fmt.Errorf("spendsplit/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("spendsplit/mongo: ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// ==================== Users ====================

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = now().Unix()
	}

	_, err := s.db.Collection(colUsers).InsertOne(ctx, toUserModel(user))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("email %s: %w", user.Email, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("spendsplit/mongo: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var m userModel
	err := s.db.Collection(colUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&m)
	if isNoDocuments(err) {
		return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("spendsplit/mongo: get user: %w", err)
	}
	return fromUserModel(&m), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var m userModel
	err := s.db.Collection(colUsers).FindOne(ctx, bson.M{"email_lower": normalizeEmail(email)}).Decode(&m)
	if isNoDocuments(err) {
		return nil, fmt.Errorf("user with email %s: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("spendsplit/mongo: get user by email: %w", err)
	}
	return fromUserModel(&m), nil
}

func (s *Store) GetUsers(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	var ms []userModel
	if err := s.find(ctx, colUsers, bson.M{"_id": bson.M{"$in": userIDs}}, nil, &ms); err != nil {
		return nil, fmt.Errorf("spendsplit/mongo: get users: %w", err)
	}
	for i := range ms {
		users[ms[i].ID] = fromUserModel(&ms[i])
	}
	return users, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	var ms []userModel
	if err := s.find(ctx, colUsers, bson.M{}, bson.D{{Key: "_id", Value: 1}}, &ms); err != nil {
		return nil, fmt.Errorf("spendsplit/mongo: list users: %w", err)
	}
	users := make([]*models.User, len(ms))
	for i := range ms {
		users[i] = fromUserModel(&ms[i])
	}
	return users, nil
}

// ==================== Expenses ====================

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Date.IsZero() {
		expense.Date = now()
	}

	if _, err := s.db.Collection(colExpenses).InsertOne(ctx, toExpenseModel(expense)); err != nil {
		return fmt.Errorf("spendsplit/mongo: create expense: %w", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	var m expenseModel
	err := s.db.Collection(colExpenses).FindOne(ctx, bson.M{"_id": expenseID}).Decode(&m)
	if isNoDocuments(err) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("spendsplit/mongo: get expense: %w", err)
	}
	return fromExpenseModel(&m), nil
}

func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.Collection(colExpenses).DeleteOne(ctx, bson.M{"_id": expenseID})
	if err != nil {
		return fmt.Errorf("spendsplit/mongo: delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ExpensesByPayerAndScope(ctx context.Context, payerID string, scope models.Scope) ([]*models.Expense, error) {
	return s.findExpenses(ctx, bson.M{"paid_by": payerID, "group_id": scope.GroupID}, newestFirst)
}

func (s *Store) ExpensesByScope(ctx context.Context, scope models.Scope) ([]*models.Expense, error) {
	return s.findExpenses(ctx, bson.M{"group_id": scope.GroupID}, newestFirst)
}

func (s *Store) ExpensesInDateRange(ctx context.Context, start, end time.Time) ([]*models.Expense, error) {
	filter := bson.M{"date": bson.M{"$gte": start.UTC(), "$lt": end.UTC()}}
	return s.findExpenses(ctx, filter, oldestFirst)
}

func (s *Store) findExpenses(ctx context.Context, filter bson.M, sort bson.D) ([]*models.Expense, error) {
	var ms []expenseModel
	if err := s.find(ctx, colExpenses, filter, sort, &ms); err != nil {
		return nil, fmt.Errorf("spendsplit/mongo: list expenses: %w", err)
	}
	expenses := make([]*models.Expense, len(ms))
	for i := range ms {
		expenses[i] = fromExpenseModel(&ms[i])
	}
	return expenses, nil
}

// ==================== Settlements ====================

func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.Date.IsZero() {
		settlement.Date = now()
	}

	if _, err := s.db.Collection(colSettlements).InsertOne(ctx, toSettlementModel(settlement)); err != nil {
		return fmt.Errorf("spendsplit/mongo: create settlement: %w", err)
	}
	return nil
}

func (s *Store) SettlementsByScope(ctx context.Context, scope models.Scope, filter storage.SettlementFilter) ([]*models.Settlement, error) {
	var ms []settlementModel
	if err := s.find(ctx, colSettlements, bson.M{"group_id": scope.GroupID}, newestFirst, &ms); err != nil {
		return nil, fmt.Errorf("spendsplit/mongo: list settlements: %w", err)
	}

	var settlements []*models.Settlement
	for i := range ms {
		st := fromSettlementModel(&ms[i])
		if filter.Match(st) {
			settlements = append(settlements, st)
		}
	}
	return settlements, nil
}

// ==================== Groups ====================

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}

	if _, err := s.db.Collection(colGroups).InsertOne(ctx, toGroupModel(group)); err != nil {
		return fmt.Errorf("spendsplit/mongo: create group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	var m groupModel
	err := s.db.Collection(colGroups).FindOne(ctx, bson.M{"_id": groupID}).Decode(&m)
	if isNoDocuments(err) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("spendsplit/mongo: get group: %w", err)
	}
	return fromGroupModel(&m), nil
}

func (s *Store) GroupsByMember(ctx context.Context, userID string) ([]*models.Group, error) {
	var ms []groupModel
	sort := bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	if err := s.find(ctx, colGroups, bson.M{"member_ids": userID}, sort, &ms); err != nil {
		return nil, fmt.Errorf("spendsplit/mongo: list groups: %w", err)
	}
	groups := make([]*models.Group, len(ms))
	for i := range ms {
		groups[i] = fromGroupModel(&ms[i])
	}
	return groups, nil
}

// ==================== Helpers ====================

var (
	newestFirst = bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}
	oldestFirst = bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}
)

func (s *Store) find(ctx context.Context, col string, filter bson.M, sort bson.D, out any) error {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cursor, err := s.db.Collection(col).Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func now() time.Time {
	return time.Now().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all spendsplit collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colUsers: {
			{
				Keys:    bson.D{{Key: "email_lower", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colExpenses: {
			{Keys: bson.D{{Key: "paid_by", Value: 1}, {Key: "group_id", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "date", Value: 1}}},
		},
		colSettlements: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		colGroups: {
			{Keys: bson.D{{Key: "member_ids", Value: 1}}},
		},
	}
}
