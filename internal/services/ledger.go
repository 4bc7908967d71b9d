// Package services holds the application logic between the HTTP layer and
// storage: ledger CRUD, recurring materialization, aggregation, and budget
// alerts.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// SyncPublisher notifies the mirror worker about new ledger records. A nil
// publisher disables mirroring.
type SyncPublisher interface {
	PublishRecordSync(ctx context.Context, recordType, id string) error
}

// LedgerService orchestrates record writes: validate, persist, then notify
// the mirror worker. Publish failures never fail the request.
type LedgerService struct {
	store     storage.LedgerStore
	publisher SyncPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewLedgerService(store storage.LedgerStore, publisher SyncPublisher, logger *log.Logger) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       time.Now,
	}
}

// CreateIncome validates and persists an income record.
func (s *LedgerService) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	in.ID = uuid.New().String()
	in.CreatedAt = s.now().UTC()
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}

	if err := s.store.CreateIncome(ctx, in); err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}

	s.publishSync(ctx, storage.RecordTypeIncome, in.ID)
	return in, nil
}

func (s *LedgerService) ListIncomes(ctx context.Context, userID string) ([]core.Income, error) {
	return s.store.ListIncomes(ctx, userID)
}

func (s *LedgerService) ListIncomesByMonth(ctx context.Context, userID string, year, month int) ([]core.Income, error) {
	return s.store.ListIncomesByMonth(ctx, userID, year, month)
}

// GetIncome fetches one income record scoped to its owner.
func (s *LedgerService) GetIncome(ctx context.Context, userID, id string) (core.Income, error) {
	in, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return core.Income{}, err
	}
	if in.UserID != userID {
		return core.Income{}, core.ErrNotFound
	}
	return in, nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, userID, id string) error {
	return s.store.DeleteIncome(ctx, userID, id)
}

// CreateExpense validates and persists an expense record. Card-paid expenses
// must reference a card owned by the same user.
func (s *LedgerService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = uuid.New().String()
	e.CreatedAt = s.now().UTC()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if e.PaymentMethod == core.PaymentCreditCard {
		if _, err := s.store.GetCard(ctx, e.UserID, e.CreditCardID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.Expense{}, fmt.Errorf("credit card %s: %w", e.CreditCardID, core.ErrNotFound)
			}
			return core.Expense{}, fmt.Errorf("check credit card: %w", err)
		}
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishSync(ctx, storage.RecordTypeExpense, e.ID)
	return e, nil
}

func (s *LedgerService) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, userID)
}

func (s *LedgerService) ListExpensesByMonth(ctx context.Context, userID string, year, month int) ([]core.Expense, error) {
	return s.store.ListExpensesByMonth(ctx, userID, year, month)
}

// GetExpense fetches one expense record scoped to its owner.
func (s *LedgerService) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if e.UserID != userID {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, userID, id string) error {
	return s.store.DeleteExpense(ctx, userID, id)
}

// CreateCard validates and persists a credit card.
func (s *LedgerService) CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	c.ID = uuid.New().String()
	c.CreatedAt = s.now().UTC()
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	if err := s.store.CreateCard(ctx, c); err != nil {
		return core.CreditCard{}, fmt.Errorf("save credit card: %w", err)
	}
	return c, nil
}

func (s *LedgerService) ListCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	return s.store.ListCards(ctx, userID)
}

// DeleteCard removes a card. Expenses that referenced it keep their
// credit_card_id; history is not rewritten.
func (s *LedgerService) DeleteCard(ctx context.Context, userID, id string) error {
	return s.store.DeleteCard(ctx, userID, id)
}

// CreateRecurringItem validates and persists a recurring template.
func (s *LedgerService) CreateRecurringItem(ctx context.Context, item core.RecurringItem) (core.RecurringItem, error) {
	item.ID = uuid.New().String()
	item.CreatedAt = s.now().UTC()
	item.IsActive = true
	if err := item.Validate(); err != nil {
		return core.RecurringItem{}, err
	}
	if err := s.validateRecurringCard(ctx, item); err != nil {
		return core.RecurringItem{}, err
	}
	if err := s.store.CreateRecurringItem(ctx, item); err != nil {
		return core.RecurringItem{}, fmt.Errorf("save recurring item: %w", err)
	}
	return item, nil
}

func (s *LedgerService) ListRecurringItems(ctx context.Context, userID string) ([]core.RecurringItem, error) {
	return s.store.ListRecurringItems(ctx, userID)
}

func (s *LedgerService) GetRecurringItem(ctx context.Context, userID, id string) (core.RecurringItem, error) {
	return s.store.GetRecurringItem(ctx, userID, id)
}

// UpdateRecurringItem replaces a template's fields. Existing materialized
// records keep their snapshot values; only future runs see the change.
func (s *LedgerService) UpdateRecurringItem(ctx context.Context, item core.RecurringItem) (core.RecurringItem, error) {
	if err := item.Validate(); err != nil {
		return core.RecurringItem{}, err
	}
	if err := s.validateRecurringCard(ctx, item); err != nil {
		return core.RecurringItem{}, err
	}
	if err := s.store.UpdateRecurringItem(ctx, item); err != nil {
		return core.RecurringItem{}, err
	}
	return s.store.GetRecurringItem(ctx, item.UserID, item.ID)
}

// DeleteRecurringItem removes a template. Records it materialized stay in
// the ledger.
func (s *LedgerService) DeleteRecurringItem(ctx context.Context, userID, id string) error {
	return s.store.DeleteRecurringItem(ctx, userID, id)
}

// SaveBudget validates and upserts the budget for a period, keeping the
// existing identity when one is already configured.
func (s *LedgerService) SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = uuid.New().String()
	b.CreatedAt = s.now().UTC()
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	saved, err := s.store.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return saved, nil
}

func (s *LedgerService) GetBudget(ctx context.Context, userID string, year, month int) (core.Budget, error) {
	return s.store.GetBudget(ctx, userID, year, month)
}

func (s *LedgerService) validateRecurringCard(ctx context.Context, item core.RecurringItem) error {
	if item.ItemType != core.ItemExpense || item.PaymentMethod != core.PaymentCreditCard {
		return nil
	}
	if _, err := s.store.GetCard(ctx, item.UserID, item.CreditCardID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("credit card %s: %w", item.CreditCardID, core.ErrNotFound)
		}
		return fmt.Errorf("check credit card: %w", err)
	}
	return nil
}

func (s *LedgerService) publishSync(ctx context.Context, recordType, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordSync(ctx, recordType, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldRecordType, recordType,
			log.FieldRecordID, id,
			log.FieldError, err)
	}
}
