// Package models defines the core domain records for spendsplit.
//
// # Records
//
//   - User: identity record, read-only to the ledger engine
//   - Expense: a purchase paid by one user and split between several
//   - Split: one user's owed share of an expense
//   - Settlement: a direct payment between two users
//   - Group: a named set of members sharing expenses
//
// # Scope
//
// Expenses and settlements either belong to no group (personal, one-on-one)
// or to exactly one group. Scope captures that choice; the zero value is the
// personal scope.
//
// # Design Principles
//
//  1. Records reference each other by ID strings, never by pointer.
//  2. Records are decoded and checked once at the storage boundary. Code that
//     consumes them trusts their shape.
//  3. Balances are never stored. They are derived from expenses and
//     settlements on every query.
package models
