package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// TrendService computes multi-month views of the ledger. The window is the
// N calendar months ending with the current month, oldest first; months are
// fetched concurrently but merged in calendar order so output stays
// deterministic.
type TrendService struct {
	store      storage.LedgerStore
	aggregator *Aggregator
	logger     *log.Logger
	now        func() time.Time
}

func NewTrendService(store storage.LedgerStore, aggregator *Aggregator, logger *log.Logger) *TrendService {
	return &TrendService{
		store:      store,
		aggregator: aggregator,
		logger:     logger.WithComponent(log.ComponentAnalytics),
		now:        time.Now,
	}
}

// Trends returns income, expense, and savings totals for each month of the
// window, oldest first. Months without records appear as zero points.
func (t *TrendService) Trends(ctx context.Context, userID string, months int) ([]core.TrendPoint, error) {
	periods, err := t.window(months)
	if err != nil {
		return nil, err
	}

	points := make([]core.TrendPoint, len(periods))
	g, gctx := errgroup.WithContext(ctx)
	for i, period := range periods {
		year, month := period[0], period[1]
		g.Go(func() error {
			summary, err := t.aggregator.Summarize(gctx, userID, month, year)
			if err != nil {
				return err
			}
			points[i] = core.TrendPoint{
				Month:     month,
				Year:      year,
				MonthName: core.MonthName(month),
				Income:    summary.TotalIncome,
				Expenses:  summary.TotalExpenses,
				Savings:   summary.NetSavings,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return points, nil
}

// CategoryTrends returns per-category spending for each month of the window.
// Categories are listed in first-observed order walking the window oldest to
// newest; a category absent in a month is simply omitted from that point.
func (t *TrendService) CategoryTrends(ctx context.Context, userID string, months int) (core.CategoryTrends, error) {
	periods, err := t.window(months)
	if err != nil {
		return core.CategoryTrends{}, err
	}

	monthly := make([][]core.Expense, len(periods))
	g, gctx := errgroup.WithContext(ctx)
	for i, period := range periods {
		year, month := period[0], period[1]
		g.Go(func() error {
			expenses, err := t.store.ListExpensesByMonth(gctx, userID, year, month)
			if err != nil {
				return err
			}
			monthly[i] = expenses
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.CategoryTrends{}, err
	}

	trends := core.CategoryTrends{
		Categories: []string{},
		Data:       make([]core.CategoryTrendPoint, 0, len(periods)),
	}
	seen := make(map[string]bool)
	for i, period := range periods {
		point := core.CategoryTrendPoint{
			MonthName: core.MonthName(period[1]),
			Year:      period[0],
			ByKey:     core.NewBreakdown(),
		}
		for _, e := range monthly[i] {
			point.ByKey.Add(e.Category, e.Amount.Cents)
			if !seen[e.Category] {
				seen[e.Category] = true
				trends.Categories = append(trends.Categories, e.Category)
			}
		}
		trends.Data = append(trends.Data, point)
	}

	return trends, nil
}

func (t *TrendService) window(months int) ([][2]int, error) {
	if months < 1 {
		return nil, core.NewValidationError("months", "must be at least 1")
	}
	now := t.now().UTC()
	return core.PreviousMonths(now.Year(), int(now.Month()), months), nil
}
