package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Materializer turns recurring templates into concrete ledger records for a
// calendar month. Processing is idempotent per (user, template, period): the
// store's materialization claim guarantees at most one record even when runs
// race.
type Materializer struct {
	store     storage.LedgerStore
	publisher SyncPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewMaterializer(store storage.LedgerStore, publisher SyncPublisher, logger *log.Logger) *Materializer {
	return &Materializer{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentRecurring),
		now:       time.Now,
	}
}

// Process materializes every active template of the user for (month, year).
// Already-materialized and inactive templates are skipped; a failing template
// is logged and does not stop the rest. Records carry the template's values
// as of this run and are never retroactively updated.
func (m *Materializer) Process(ctx context.Context, userID string, month, year int) (core.MaterializationResult, error) {
	result := core.MaterializationResult{CreatedIDs: []string{}}

	if !core.ValidPeriod(month, year) {
		return result, core.ErrInvalidMonth
	}

	items, err := m.store.ListRecurringItems(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("list recurring items: %w", err)
	}

	materialized, err := m.store.FindMaterialized(ctx, userID, year, month)
	if err != nil {
		return result, fmt.Errorf("find materialized: %w", err)
	}

	m.logger.InfoContext(ctx, "Materializing recurring items",
		log.FieldUserID, userID,
		log.FieldMonth, month,
		log.FieldYear, year,
		log.FieldCount, len(items))

	for _, item := range items {
		if !item.IsActive || materialized[item.ID] {
			continue
		}

		created, recordID, recordType, err := m.materialize(ctx, item, month, year)
		if err != nil {
			m.logger.ErrorContext(ctx, "Failed to materialize recurring item",
				log.FieldItemID, item.ID,
				log.FieldError, err)
			continue
		}
		if !created {
			// Another run claimed this slot between FindMaterialized
			// and the insert.
			continue
		}

		result.CreatedCount++
		result.CreatedIDs = append(result.CreatedIDs, recordID)
		m.publishSync(ctx, recordType, recordID)

		m.logger.InfoContext(ctx, "Materialized recurring item",
			log.FieldItemID, item.ID,
			log.FieldRecordID, recordID,
			log.FieldAmount, item.Amount.Cents)
	}

	m.logger.InfoContext(ctx, "Recurring materialization complete",
		log.FieldUserID, userID,
		log.FieldCount, result.CreatedCount)

	return result, nil
}

func (m *Materializer) materialize(ctx context.Context, item core.RecurringItem, month, year int) (created bool, recordID, recordType string, err error) {
	day := core.ClampDay(year, month, item.DayOfMonth)
	date := core.NewDate(year, month, day)
	now := m.now().UTC()

	switch item.ItemType {
	case core.ItemIncome:
		in := core.Income{
			ID:              uuid.New().String(),
			UserID:          item.UserID,
			Source:          item.Source,
			Amount:          item.Amount,
			Date:            date,
			Description:     item.Description,
			IsRecurring:     true,
			RecurringItemID: item.ID,
			CreatedAt:       now,
		}
		created, err = m.store.InsertMaterializedIncome(ctx, in, year, month)
		return created, in.ID, storage.RecordTypeIncome, err

	case core.ItemExpense:
		e := core.Expense{
			ID:              uuid.New().String(),
			UserID:          item.UserID,
			Category:        item.Category,
			Amount:          item.Amount,
			Date:            date,
			Description:     item.Description,
			PaymentMethod:   item.PaymentMethod,
			CreditCardID:    item.CreditCardID,
			IsRecurring:     true,
			RecurringItemID: item.ID,
			CreatedAt:       now,
		}
		created, err = m.store.InsertMaterializedExpense(ctx, e, year, month)
		return created, e.ID, storage.RecordTypeExpense, err

	default:
		return false, "", "", fmt.Errorf("unknown item type: %s", item.ItemType)
	}
}

func (m *Materializer) publishSync(ctx context.Context, recordType, id string) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishRecordSync(ctx, recordType, id); err != nil {
		m.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldRecordType, recordType,
			log.FieldRecordID, id,
			log.FieldError, err)
	}
}
