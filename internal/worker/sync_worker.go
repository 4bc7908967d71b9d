package worker

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// SyncWorker mirrors ledger records from the store to the spreadsheet.
type SyncWorker struct {
	store     storage.LedgerStore
	appender  sheets.RecordAppender
	logger    *log.Logger
	batchSize int
}

func NewSyncWorker(store storage.LedgerStore, appender sheets.RecordAppender, logger *log.Logger, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		appender:  appender,
		logger:    logger.WithComponent(log.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single record sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		log.FieldRecordType, msg.RecordType,
		log.FieldRecordID, msg.ID)

	return w.syncRecord(ctx, msg.RecordType, msg.ID)
}

// ProcessPending mirrors records that never got a sync message. This is a
// backstop for lost AMQP deliveries and worker downtime.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize)
}

// StartupSyncCheck drains pending records at worker startup with a larger
// batch than the periodic backstop.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPendingBatch(ctx context.Context, limit int) error {
	pending, err := w.store.ListPendingSync(ctx, limit)
	if err != nil {
		return fmt.Errorf("list pending sync records: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending sync records", log.FieldCount, len(pending))

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.syncRecord(ctx, p.RecordType, p.ID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync record",
				log.FieldRecordType, p.RecordType,
				log.FieldRecordID, p.ID,
				log.FieldError, err)
		}
	}
	return nil
}

func (w *SyncWorker) syncRecord(ctx context.Context, recordType, id string) error {
	row, err := w.buildRow(ctx, recordType, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before the worker got to it; nothing to mirror.
			w.logger.WarnContext(ctx, "Record vanished before sync",
				log.FieldRecordType, recordType,
				log.FieldRecordID, id)
			return nil
		}
		return err
	}

	ref, err := w.appender.AppendRecord(ctx, row)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, recordType, id); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error",
				log.FieldRecordID, id, log.FieldError, markErr)
		}
		return fmt.Errorf("append record to sheet: %w", err)
	}

	if err := w.store.MarkSynced(ctx, recordType, id); err != nil {
		// The append succeeded; the record will be re-appended on the next
		// backstop pass, which is preferable to losing it.
		w.logger.ErrorContext(ctx, "Failed to mark record synced",
			log.FieldRecordID, id, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Synced record to spreadsheet",
		log.FieldRecordType, recordType,
		log.FieldRecordID, id,
		log.FieldSheetsRef, ref)

	return nil
}

func (w *SyncWorker) buildRow(ctx context.Context, recordType, id string) (sheets.Row, error) {
	switch recordType {
	case storage.RecordTypeIncome:
		in, err := w.store.GetIncome(ctx, id)
		if err != nil {
			return sheets.Row{}, fmt.Errorf("get income %s: %w", id, err)
		}
		return sheets.Row{
			RecordType:  recordType,
			RecordID:    in.ID,
			Date:        in.Date,
			Label:       in.Source,
			Description: in.Description,
			Amount:      in.Amount,
		}, nil
	case storage.RecordTypeExpense:
		e, err := w.store.GetExpense(ctx, id)
		if err != nil {
			return sheets.Row{}, fmt.Errorf("get expense %s: %w", id, err)
		}
		return sheets.Row{
			RecordType:    recordType,
			RecordID:      e.ID,
			Date:          e.Date,
			Label:         e.Category,
			Description:   e.Description,
			Amount:        e.Amount,
			PaymentMethod: string(e.PaymentMethod),
		}, nil
	default:
		return sheets.Row{}, fmt.Errorf("unknown record type: %s", recordType)
	}
}
