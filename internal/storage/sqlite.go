package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements LedgerStore on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// SQLite allows one writer at a time; serialize access through a
	// single connection to avoid SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u core.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

const incomeColumns = `id, user_id, source, amount_cents, date, description, is_recurring, recurring_item_id, created_at`

func (s *SQLiteStore) CreateIncome(ctx context.Context, in core.Income) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO incomes (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.Source, in.Amount.Cents, in.Date.String(),
		in.Description, in.IsRecurring, in.RecurringItemID, in.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create income: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListIncomes(ctx context.Context, userID string) ([]core.Income, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE user_id = ? ORDER BY date DESC, created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()
	return scanIncomes(rows)
}

func (s *SQLiteStore) ListIncomesByMonth(ctx context.Context, userID string, year, month int) ([]core.Income, error) {
	first, last := core.MonthRange(year, month)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date, created_at`,
		userID, first.String(), last.String())
	if err != nil {
		return nil, fmt.Errorf("list incomes by month: %w", err)
	}
	defer rows.Close()
	return scanIncomes(rows)
}

func (s *SQLiteStore) GetIncome(ctx context.Context, id string) (core.Income, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE id = ?`, id)
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	defer rows.Close()
	incomes, err := scanIncomes(rows)
	if err != nil {
		return core.Income{}, err
	}
	if len(incomes) == 0 {
		return core.Income{}, core.ErrNotFound
	}
	return incomes[0], nil
}

func (s *SQLiteStore) DeleteIncome(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "incomes", userID, id)
}

func scanIncomes(rows *sql.Rows) ([]core.Income, error) {
	var incomes []core.Income
	for rows.Next() {
		var (
			in      core.Income
			dateStr string
		)
		if err := rows.Scan(&in.ID, &in.UserID, &in.Source, &in.Amount.Cents, &dateStr,
			&in.Description, &in.IsRecurring, &in.RecurringItemID, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		date, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("income %s: bad stored date %q", in.ID, dateStr)
		}
		in.Date = date
		incomes = append(incomes, in)
	}
	return incomes, rows.Err()
}

const expenseColumns = `id, user_id, category, amount_cents, date, description, payment_method, credit_card_id, is_recurring, recurring_item_id, created_at`

func (s *SQLiteStore) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Category, e.Amount.Cents, e.Date.String(), e.Description,
		string(e.PaymentMethod), e.CreditCardID, e.IsRecurring, e.RecurringItemID, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY date DESC, created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *SQLiteStore) ListExpensesByMonth(ctx context.Context, userID string, year, month int) ([]core.Expense, error) {
	first, last := core.MonthRange(year, month)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date, created_at`,
		userID, first.String(), last.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses by month: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	defer rows.Close()
	expenses, err := scanExpenses(rows)
	if err != nil {
		return core.Expense{}, err
	}
	if len(expenses) == 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return expenses[0], nil
}

func (s *SQLiteStore) DeleteExpense(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "expenses", userID, id)
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		var (
			e             core.Expense
			dateStr       string
			paymentMethod string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.Amount.Cents, &dateStr, &e.Description,
			&paymentMethod, &e.CreditCardID, &e.IsRecurring, &e.RecurringItemID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		date, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("expense %s: bad stored date %q", e.ID, dateStr)
		}
		e.Date = date
		e.PaymentMethod = core.PaymentMethod(paymentMethod)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *SQLiteStore) CreateCard(ctx context.Context, c core.CreditCard) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credit_cards (id, user_id, name, last_four_digits, card_type, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.LastFourDigits, c.CardType, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create credit card: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, last_four_digits, card_type, created_at FROM credit_cards WHERE user_id = ? ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	defer rows.Close()

	var cards []core.CreditCard
	for rows.Next() {
		var c core.CreditCard
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.LastFourDigits, &c.CardType, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *SQLiteStore) GetCard(ctx context.Context, userID, id string) (core.CreditCard, error) {
	var c core.CreditCard
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, last_four_digits, card_type, created_at FROM credit_cards WHERE user_id = ? AND id = ?`,
		userID, id).Scan(&c.ID, &c.UserID, &c.Name, &c.LastFourDigits, &c.CardType, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CreditCard{}, core.ErrNotFound
	}
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("get credit card: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) DeleteCard(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "credit_cards", userID, id)
}

const recurringColumns = `id, user_id, item_type, source, category, amount_cents, description, payment_method, credit_card_id, day_of_month, is_active, created_at`

func (s *SQLiteStore) CreateRecurringItem(ctx context.Context, item core.RecurringItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recurring_items (`+recurringColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, string(item.ItemType), item.Source, item.Category, item.Amount.Cents,
		item.Description, string(item.PaymentMethod), item.CreditCardID, item.DayOfMonth,
		item.IsActive, item.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create recurring item: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListRecurringItems(ctx context.Context, userID string) ([]core.RecurringItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_items WHERE user_id = ? ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring items: %w", err)
	}
	defer rows.Close()

	var items []core.RecurringItem
	for rows.Next() {
		item, err := scanRecurringItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) GetRecurringItem(ctx context.Context, userID, id string) (core.RecurringItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_items WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("get recurring item: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.RecurringItem{}, err
		}
		return core.RecurringItem{}, core.ErrNotFound
	}
	return scanRecurringItem(rows)
}

func (s *SQLiteStore) UpdateRecurringItem(ctx context.Context, item core.RecurringItem) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recurring_items SET item_type = ?, source = ?, category = ?, amount_cents = ?,
		 description = ?, payment_method = ?, credit_card_id = ?, day_of_month = ?, is_active = ?
		 WHERE user_id = ? AND id = ?`,
		string(item.ItemType), item.Source, item.Category, item.Amount.Cents, item.Description,
		string(item.PaymentMethod), item.CreditCardID, item.DayOfMonth, item.IsActive,
		item.UserID, item.ID)
	if err != nil {
		return fmt.Errorf("update recurring item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update recurring item: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteRecurringItem(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "recurring_items", userID, id)
}

func scanRecurringItem(rows *sql.Rows) (core.RecurringItem, error) {
	var (
		item          core.RecurringItem
		itemType      string
		paymentMethod string
	)
	if err := rows.Scan(&item.ID, &item.UserID, &itemType, &item.Source, &item.Category,
		&item.Amount.Cents, &item.Description, &paymentMethod, &item.CreditCardID,
		&item.DayOfMonth, &item.IsActive, &item.CreatedAt); err != nil {
		return core.RecurringItem{}, fmt.Errorf("scan recurring item: %w", err)
	}
	item.ItemType = core.ItemType(itemType)
	item.PaymentMethod = core.PaymentMethod(paymentMethod)
	return item, nil
}

func (s *SQLiteStore) FindMaterialized(ctx context.Context, userID string, year, month int) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT recurring_item_id FROM materializations WHERE user_id = ? AND year = ? AND month = ?`,
		userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("find materialized: %w", err)
	}
	defer rows.Close()

	materialized := make(map[string]bool)
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			return nil, fmt.Errorf("scan materialization: %w", err)
		}
		materialized[itemID] = true
	}
	return materialized, rows.Err()
}

func (s *SQLiteStore) InsertMaterializedIncome(ctx context.Context, in core.Income, year, month int) (bool, error) {
	return s.insertMaterialized(ctx, in.UserID, in.RecurringItemID, in.ID, year, month, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO incomes (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ID, in.UserID, in.Source, in.Amount.Cents, in.Date.String(),
			in.Description, in.IsRecurring, in.RecurringItemID, in.CreatedAt.UTC())
		return err
	})
}

func (s *SQLiteStore) InsertMaterializedExpense(ctx context.Context, e core.Expense, year, month int) (bool, error) {
	return s.insertMaterialized(ctx, e.UserID, e.RecurringItemID, e.ID, year, month, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.Category, e.Amount.Cents, e.Date.String(), e.Description,
			string(e.PaymentMethod), e.CreditCardID, e.IsRecurring, e.RecurringItemID, e.CreatedAt.UTC())
		return err
	})
}

// insertMaterialized claims the (user, template, period) slot and writes the
// record in one transaction. A conflicting claim means another run already
// materialized this slot; report false without an error.
func (s *SQLiteStore) insertMaterialized(ctx context.Context, userID, itemID, recordID string, year, month int, insertRecord func(tx *sql.Tx) error) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin materialization: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO materializations (user_id, recurring_item_id, year, month, record_id)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		userID, itemID, year, month, recordID)
	if err != nil {
		return false, fmt.Errorf("claim materialization: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim materialization: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := insertRecord(tx); err != nil {
		return false, fmt.Errorf("insert materialized record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit materialization: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	categoryJSON, err := json.Marshal(b.CategoryBudgets)
	if err != nil {
		return core.Budget{}, fmt.Errorf("marshal category budgets: %w", err)
	}

	// The conflict update leaves id and created_at alone so a re-saved
	// budget keeps its identity.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, month, year, total_budget_cents, category_budgets, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, month, year) DO UPDATE SET
		   total_budget_cents = excluded.total_budget_cents,
		   category_budgets = excluded.category_budgets`,
		b.ID, b.UserID, b.Month, b.Year, b.TotalBudget.Cents, string(categoryJSON), b.CreatedAt.UTC())
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	return s.GetBudget(ctx, b.UserID, b.Year, b.Month)
}

func (s *SQLiteStore) GetBudget(ctx context.Context, userID string, year, month int) (core.Budget, error) {
	var (
		b            core.Budget
		categoryJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, year, total_budget_cents, category_budgets, created_at
		 FROM budgets WHERE user_id = ? AND year = ? AND month = ?`,
		userID, year, month).Scan(&b.ID, &b.UserID, &b.Month, &b.Year, &b.TotalBudget.Cents, &categoryJSON, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	if err := json.Unmarshal([]byte(categoryJSON), &b.CategoryBudgets); err != nil {
		return core.Budget{}, fmt.Errorf("unmarshal category budgets: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) ListPendingSync(ctx context.Context, limit int) ([]PendingSyncRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT 'income' AS record_type, id, created_at FROM incomes WHERE sync_status = 'pending'
		 UNION ALL
		 SELECT 'expense', id, created_at FROM expenses WHERE sync_status = 'pending'
		 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncRecord
	for rows.Next() {
		var p PendingSyncRecord
		if err := rows.Scan(&p.RecordType, &p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync record: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (s *SQLiteStore) MarkSynced(ctx context.Context, recordType, id string) error {
	return s.setSyncStatus(ctx, recordType, id, "synced", time.Now().UTC())
}

func (s *SQLiteStore) MarkSyncError(ctx context.Context, recordType, id string) error {
	return s.setSyncStatus(ctx, recordType, id, "error", time.Now().UTC())
}

func (s *SQLiteStore) setSyncStatus(ctx context.Context, recordType, id, status string, at time.Time) error {
	table, err := syncTable(recordType)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET sync_status = ?, synced_at = ? WHERE id = ?`, status, at, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func syncTable(recordType string) (string, error) {
	switch recordType {
	case RecordTypeIncome:
		return "incomes", nil
	case RecordTypeExpense:
		return "expenses", nil
	default:
		return "", fmt.Errorf("unsupported record type: %s", recordType)
	}
}

func (s *SQLiteStore) deleteOwned(ctx context.Context, table, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
