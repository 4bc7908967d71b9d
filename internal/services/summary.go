package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Aggregator computes monthly summaries over the ledger. All sums are
// integer cents; a month without records yields a zero summary.
type Aggregator struct {
	store  storage.LedgerStore
	logger *log.Logger
}

func NewAggregator(store storage.LedgerStore, logger *log.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		logger: logger.WithComponent(log.ComponentAnalytics),
	}
}

// Summarize aggregates one user's records for (month, year).
func (a *Aggregator) Summarize(ctx context.Context, userID string, month, year int) (core.Summary, error) {
	if !core.ValidPeriod(month, year) {
		return core.Summary{}, core.ErrInvalidMonth
	}

	incomes, err := a.store.ListIncomesByMonth(ctx, userID, year, month)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := a.store.ListExpensesByMonth(ctx, userID, year, month)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list expenses: %w", err)
	}

	summary := core.NewSummary()
	for _, in := range incomes {
		summary.TotalIncome = summary.TotalIncome.Add(in.Amount)
		summary.IncomeBreakdown.Add(in.Source, in.Amount.Cents)
	}
	for _, e := range expenses {
		summary.TotalExpenses = summary.TotalExpenses.Add(e.Amount)
		summary.CategoryBreakdown.Add(e.Category, e.Amount.Cents)
		summary.PaymentBreakdown.Add(string(e.PaymentMethod), e.Amount.Cents)
	}
	summary.NetSavings = summary.TotalIncome.Sub(summary.TotalExpenses)

	return summary, nil
}
