package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Row is one ledger record flattened for export. Label carries the expense
// category or the income source depending on RecordType.
type Row struct {
	RecordType    string
	RecordID      string
	Date          core.Date
	Label         string
	Description   string
	Amount        core.Money
	PaymentMethod string
}

// Ports for outbound adapters.
type RecordAppender interface {
	AppendRecord(ctx context.Context, row Row) (rowRef string, err error)
}
