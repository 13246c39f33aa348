package sqlstore

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db, MySQL), mock
}

func TestMySQLMigrations(t *testing.T) {
	store, mock := newMockStore(t)
	for _, stmt := range mysqlSchema {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, runMigrations(store.db, MySQL))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_UnknownDialect(t *testing.T) {
	store, _ := newMockStore(t)
	assert.Error(t, runMigrations(store.db, Dialect("postgres")))
}

func TestOpenMySQL_RejectsBadDSN(t *testing.T) {
	_, err := OpenMySQL("user:pass@tcp(localhost:3306)/")
	assert.ErrorContains(t, err, "must name a database")

	_, err = OpenMySQL("not a dsn")
	assert.Error(t, err)
}

func TestMySQLStore_GetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE id = ?")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "image_url", "password_hash", "created_at"}))

	_, err := store.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_CreateUserDuplicate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WithArgs("u1", "alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := store.CreateUser(context.Background(), &models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_CreateExpenseWritesSplits(t *testing.T) {
	store, mock := newMockStore(t)
	date := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO expenses")).
		WithArgs("e1", "Dinner", 100.0, "Food", date.UnixMilli(), "u1", "equal", "g1", "u1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO expense_splits")).
		WithArgs("e1", "u1", 50.0, true, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO expense_splits")).
		WithArgs("e1", "u2", 50.0, false, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.CreateExpense(context.Background(), &models.Expense{
		ID:           "e1",
		Description:  "Dinner",
		Amount:       100,
		Category:     "Food",
		Date:         date,
		PaidByUserID: "u1",
		SplitType:    models.SplitEqual,
		Splits:       []models.Split{{UserID: "u1", Amount: 50, Paid: true}, {UserID: "u2", Amount: 50}},
		GroupID:      "g1",
		CreatedBy:    "u1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_DeleteMissingExpense(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM expense_splits WHERE expense_id = ?")).
		WithArgs("e404").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM expenses WHERE id = ?")).
		WithArgs("e404").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.DeleteExpense(context.Background(), "e404")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_SettlementFilterRunsAfterQuery(t *testing.T) {
	store, mock := newMockStore(t)
	when := time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC).UnixMilli()

	mock.ExpectQuery(regexp.QuoteMeta("FROM settlements")).
		WithArgs("").
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount", "note", "date", "paid_by", "received_by", "group_id", "created_by"}).
			AddRow("s1", 10.0, "", when, "u1", "u2", "", "u1").
			AddRow("s2", 15.0, "", when, "u3", "u4", "", "u3"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM settlement_expenses")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"settlement_id", "expense_id"}).AddRow("s1", "e1"))

	got, err := store.SettlementsByScope(context.Background(), models.Personal, storage.Involving("u2"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, []string{"e1"}, got[0].RelatedExpenseIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
