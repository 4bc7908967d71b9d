package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
)

type materializationKey struct {
	userID string
	itemID string
	year   int
	month  int
}

type syncState struct {
	status string
	at     time.Time
}

// MemoryStore implements LedgerStore in process memory. It backs the memory
// data backend and the handler and service tests.
type MemoryStore struct {
	mu               sync.RWMutex
	users            map[string]core.User
	incomes          map[string]core.Income
	expenses         map[string]core.Expense
	cards            map[string]core.CreditCard
	recurring        map[string]core.RecurringItem
	budgets          map[string]core.Budget
	materializations map[materializationKey]string
	sync             map[string]syncState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:            make(map[string]core.User),
		incomes:          make(map[string]core.Income),
		expenses:         make(map[string]core.Expense),
		cards:            make(map[string]core.CreditCard),
		recurring:        make(map[string]core.RecurringItem),
		budgets:          make(map[string]core.Budget),
		materializations: make(map[materializationKey]string),
		sync:             make(map[string]syncState),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateUser(ctx context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: email %s already registered", u.Email)
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *MemoryStore) CreateIncome(ctx context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes[in.ID] = in
	s.sync[syncKey(RecordTypeIncome, in.ID)] = syncState{status: "pending"}
	return nil
}

func (s *MemoryStore) ListIncomes(ctx context.Context, userID string) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var incomes []core.Income
	for _, in := range s.incomes {
		if in.UserID == userID {
			incomes = append(incomes, in)
		}
	}
	sort.Slice(incomes, func(i, j int) bool {
		if !incomes[i].Date.Equal(incomes[j].Date.Time) {
			return incomes[i].Date.After(incomes[j].Date.Time)
		}
		return incomes[i].CreatedAt.After(incomes[j].CreatedAt)
	})
	return incomes, nil
}

func (s *MemoryStore) ListIncomesByMonth(ctx context.Context, userID string, year, month int) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var incomes []core.Income
	for _, in := range s.incomes {
		if in.UserID == userID && in.Date.Year() == year && in.Date.Month() == month {
			incomes = append(incomes, in)
		}
	}
	sort.Slice(incomes, func(i, j int) bool {
		if !incomes[i].Date.Equal(incomes[j].Date.Time) {
			return incomes[i].Date.Before(incomes[j].Date.Time)
		}
		return incomes[i].CreatedAt.Before(incomes[j].CreatedAt)
	})
	return incomes, nil
}

func (s *MemoryStore) GetIncome(ctx context.Context, id string) (core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.incomes[id]
	if !ok {
		return core.Income{}, core.ErrNotFound
	}
	return in, nil
}

func (s *MemoryStore) DeleteIncome(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes[id]
	if !ok || in.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.incomes, id)
	delete(s.sync, syncKey(RecordTypeIncome, id))
	return nil
}

func (s *MemoryStore) CreateExpense(ctx context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = e
	s.sync[syncKey(RecordTypeExpense, e.ID)] = syncState{status: "pending"}
	return nil
}

func (s *MemoryStore) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var expenses []core.Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			expenses = append(expenses, e)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date.Time) {
			return expenses[i].Date.After(expenses[j].Date.Time)
		}
		return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
	})
	return expenses, nil
}

func (s *MemoryStore) ListExpensesByMonth(ctx context.Context, userID string, year, month int) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var expenses []core.Expense
	for _, e := range s.expenses {
		if e.UserID == userID && e.Date.Year() == year && e.Date.Month() == month {
			expenses = append(expenses, e)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date.Time) {
			return expenses[i].Date.Before(expenses[j].Date.Time)
		}
		return expenses[i].CreatedAt.Before(expenses[j].CreatedAt)
	})
	return expenses, nil
}

func (s *MemoryStore) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) DeleteExpense(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.expenses, id)
	delete(s.sync, syncKey(RecordTypeExpense, id))
	return nil
}

func (s *MemoryStore) CreateCard(ctx context.Context, c core.CreditCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[c.ID] = c
	return nil
}

func (s *MemoryStore) ListCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cards []core.CreditCard
	for _, c := range s.cards {
		if c.UserID == userID {
			cards = append(cards, c)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].CreatedAt.Before(cards[j].CreatedAt) })
	return cards, nil
}

func (s *MemoryStore) GetCard(ctx context.Context, userID, id string) (core.CreditCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[id]
	if !ok || c.UserID != userID {
		return core.CreditCard{}, core.ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) DeleteCard(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok || c.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.cards, id)
	return nil
}

func (s *MemoryStore) CreateRecurringItem(ctx context.Context, item core.RecurringItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring[item.ID] = item
	return nil
}

func (s *MemoryStore) ListRecurringItems(ctx context.Context, userID string) ([]core.RecurringItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []core.RecurringItem
	for _, item := range s.recurring {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (s *MemoryStore) GetRecurringItem(ctx context.Context, userID, id string) (core.RecurringItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.recurring[id]
	if !ok || item.UserID != userID {
		return core.RecurringItem{}, core.ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) UpdateRecurringItem(ctx context.Context, item core.RecurringItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.recurring[item.ID]
	if !ok || existing.UserID != item.UserID {
		return core.ErrNotFound
	}
	item.CreatedAt = existing.CreatedAt
	s.recurring[item.ID] = item
	return nil
}

func (s *MemoryStore) DeleteRecurringItem(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.recurring[id]
	if !ok || item.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.recurring, id)
	return nil
}

func (s *MemoryStore) FindMaterialized(ctx context.Context, userID string, year, month int) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	materialized := make(map[string]bool)
	for key := range s.materializations {
		if key.userID == userID && key.year == year && key.month == month {
			materialized[key.itemID] = true
		}
	}
	return materialized, nil
}

func (s *MemoryStore) InsertMaterializedIncome(ctx context.Context, in core.Income, year, month int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := materializationKey{userID: in.UserID, itemID: in.RecurringItemID, year: year, month: month}
	if _, claimed := s.materializations[key]; claimed {
		return false, nil
	}
	s.materializations[key] = in.ID
	s.incomes[in.ID] = in
	s.sync[syncKey(RecordTypeIncome, in.ID)] = syncState{status: "pending"}
	return true, nil
}

func (s *MemoryStore) InsertMaterializedExpense(ctx context.Context, e core.Expense, year, month int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := materializationKey{userID: e.UserID, itemID: e.RecurringItemID, year: year, month: month}
	if _, claimed := s.materializations[key]; claimed {
		return false, nil
	}
	s.materializations[key] = e.ID
	s.expenses[e.ID] = e
	s.sync[syncKey(RecordTypeExpense, e.ID)] = syncState{status: "pending"}
	return true, nil
}

func budgetKey(userID string, year, month int) string {
	return fmt.Sprintf("%s/%04d-%02d", userID, year, month)
}

func (s *MemoryStore) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := budgetKey(b.UserID, b.Year, b.Month)
	if existing, ok := s.budgets[key]; ok {
		b.ID = existing.ID
		b.CreatedAt = existing.CreatedAt
	}
	s.budgets[key] = b
	return b, nil
}

func (s *MemoryStore) GetBudget(ctx context.Context, userID string, year, month int) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[budgetKey(userID, year, month)]
	if !ok {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func syncKey(recordType, id string) string {
	return recordType + "/" + id
}

func (s *MemoryStore) ListPendingSync(ctx context.Context, limit int) ([]PendingSyncRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []PendingSyncRecord
	for key, state := range s.sync {
		if state.status != "pending" {
			continue
		}
		recordType, id := splitSyncKey(key)
		created := time.Time{}
		switch recordType {
		case RecordTypeIncome:
			created = s.incomes[id].CreatedAt
		case RecordTypeExpense:
			created = s.expenses[id].CreatedAt
		}
		pending = append(pending, PendingSyncRecord{RecordType: recordType, ID: id, CreatedAt: created})
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func splitSyncKey(key string) (recordType, id string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

func (s *MemoryStore) MarkSynced(ctx context.Context, recordType, id string) error {
	return s.setSyncStatus(recordType, id, "synced")
}

func (s *MemoryStore) MarkSyncError(ctx context.Context, recordType, id string) error {
	return s.setSyncStatus(recordType, id, "error")
}

func (s *MemoryStore) setSyncStatus(recordType, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := syncKey(recordType, id)
	if _, ok := s.sync[key]; !ok {
		return core.ErrNotFound
	}
	s.sync[key] = syncState{status: status, at: time.Now().UTC()}
	return nil
}
