// Package storage persists the ledger. The SQLite store is the production
// backend; the memory store backs tests and the memory data backend.
package storage

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Record types used by the sync queue and the sheets mirror.
const (
	RecordTypeIncome  = "income"
	RecordTypeExpense = "expense"
)

// PendingSyncRecord identifies a ledger record waiting to be mirrored.
type PendingSyncRecord struct {
	RecordType string
	ID         string
	CreatedAt  time.Time
}

// LedgerStore is the persistence boundary for all ledger data.
type LedgerStore interface {
	// Users
	CreateUser(ctx context.Context, u core.User) error
	GetUser(ctx context.Context, id string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)

	// Incomes
	CreateIncome(ctx context.Context, in core.Income) error
	ListIncomes(ctx context.Context, userID string) ([]core.Income, error)
	ListIncomesByMonth(ctx context.Context, userID string, year, month int) ([]core.Income, error)
	DeleteIncome(ctx context.Context, userID, id string) error

	// Expenses
	CreateExpense(ctx context.Context, e core.Expense) error
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	ListExpensesByMonth(ctx context.Context, userID string, year, month int) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, userID, id string) error

	// Credit cards
	CreateCard(ctx context.Context, c core.CreditCard) error
	ListCards(ctx context.Context, userID string) ([]core.CreditCard, error)
	GetCard(ctx context.Context, userID, id string) (core.CreditCard, error)
	DeleteCard(ctx context.Context, userID, id string) error

	// Recurring templates
	CreateRecurringItem(ctx context.Context, item core.RecurringItem) error
	ListRecurringItems(ctx context.Context, userID string) ([]core.RecurringItem, error)
	GetRecurringItem(ctx context.Context, userID, id string) (core.RecurringItem, error)
	UpdateRecurringItem(ctx context.Context, item core.RecurringItem) error
	DeleteRecurringItem(ctx context.Context, userID, id string) error

	// Materialization. FindMaterialized lists template IDs already
	// materialized for the period; the Insert variants claim the
	// (user, template, period) slot and write the record in one
	// transaction, reporting false when another run got there first.
	FindMaterialized(ctx context.Context, userID string, year, month int) (map[string]bool, error)
	InsertMaterializedIncome(ctx context.Context, in core.Income, year, month int) (bool, error)
	InsertMaterializedExpense(ctx context.Context, e core.Expense, year, month int) (bool, error)

	// Budgets. UpsertBudget keeps the existing ID and creation time when a
	// budget for the period already exists.
	UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, userID string, year, month int) (core.Budget, error)

	// Sync queue for the sheets mirror
	ListPendingSync(ctx context.Context, limit int) ([]PendingSyncRecord, error)
	GetIncome(ctx context.Context, id string) (core.Income, error)
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	MarkSynced(ctx context.Context, recordType, id string) error
	MarkSyncError(ctx context.Context, recordType, id string) error

	Close() error
}
