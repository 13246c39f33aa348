package sqlstore

import (
	"database/sql"
	"fmt"
)

// sqliteSchema sets up the SQLite tables. Statements run in order on startup.
// Personal expenses and settlements carry an empty group_id.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS user_groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS group_members (
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL,
    joined_at INTEGER NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (group_id, user_id),
    FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    amount REAL NOT NULL,
    category TEXT NOT NULL,
    date INTEGER NOT NULL,
    paid_by TEXT NOT NULL,
    split_type TEXT NOT NULL,
    group_id TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS expense_splits (
    expense_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    amount REAL NOT NULL,
    paid INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL,
    PRIMARY KEY (expense_id, user_id),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    amount REAL NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    date INTEGER NOT NULL,
    paid_by TEXT NOT NULL,
    received_by TEXT NOT NULL,
    group_id TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS settlement_expenses (
    settlement_id TEXT NOT NULL,
    expense_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (settlement_id, expense_id),
    FOREIGN KEY (settlement_id) REFERENCES settlements(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_paid_by_group ON expenses(paid_by, group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_group ON expenses(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_splits_user ON expense_splits(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_settlements_group ON settlements(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id)`,
}

// mysqlSchema mirrors sqliteSchema with MySQL column types and inline indexes.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(64) PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    name VARCHAR(255) NOT NULL,
    image_url TEXT NOT NULL,
    password_hash VARCHAR(255) NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS user_groups (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    description TEXT NOT NULL,
    created_by VARCHAR(64) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS group_members (
    group_id VARCHAR(64) NOT NULL,
    user_id VARCHAR(64) NOT NULL,
    role VARCHAR(16) NOT NULL,
    joined_at BIGINT NOT NULL,
    position INT NOT NULL,
    PRIMARY KEY (group_id, user_id),
    INDEX idx_group_members_user (user_id),
    FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS expenses (
    id VARCHAR(64) PRIMARY KEY,
    description TEXT NOT NULL,
    amount DOUBLE NOT NULL,
    category VARCHAR(255) NOT NULL,
    date BIGINT NOT NULL,
    paid_by VARCHAR(64) NOT NULL,
    split_type VARCHAR(16) NOT NULL,
    group_id VARCHAR(64) NOT NULL DEFAULT '',
    created_by VARCHAR(64) NOT NULL,
    INDEX idx_expenses_paid_by_group (paid_by, group_id),
    INDEX idx_expenses_group (group_id),
    INDEX idx_expenses_date (date)
)`,
	`CREATE TABLE IF NOT EXISTS expense_splits (
    expense_id VARCHAR(64) NOT NULL,
    user_id VARCHAR(64) NOT NULL,
    amount DOUBLE NOT NULL,
    paid BOOLEAN NOT NULL DEFAULT FALSE,
    position INT NOT NULL,
    PRIMARY KEY (expense_id, user_id),
    INDEX idx_expense_splits_user (user_id),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS settlements (
    id VARCHAR(64) PRIMARY KEY,
    amount DOUBLE NOT NULL,
    note TEXT NOT NULL,
    date BIGINT NOT NULL,
    paid_by VARCHAR(64) NOT NULL,
    received_by VARCHAR(64) NOT NULL,
    group_id VARCHAR(64) NOT NULL DEFAULT '',
    created_by VARCHAR(64) NOT NULL,
    INDEX idx_settlements_group (group_id)
)`,
	`CREATE TABLE IF NOT EXISTS settlement_expenses (
    settlement_id VARCHAR(64) NOT NULL,
    expense_id VARCHAR(64) NOT NULL,
    position INT NOT NULL,
    PRIMARY KEY (settlement_id, expense_id),
    FOREIGN KEY (settlement_id) REFERENCES settlements(id) ON DELETE CASCADE
)`,
}

// runMigrations executes the schema setup for the dialect.
func runMigrations(db *sql.DB, dialect Dialect) error {
	var schema []string
	switch dialect {
	case SQLite:
		schema = sqliteSchema
	case MySQL:
		schema = mysqlSchema
	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
