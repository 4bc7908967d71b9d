package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Spending thresholds as percentages of the configured budget.
const (
	warningThreshold = 80.0
	dangerThreshold  = 100.0
)

// AlertEvaluator checks a month's spending against its configured budget.
// The overall alert always precedes category alerts, and category alerts
// follow the budget's definition order, so output is stable across runs.
type AlertEvaluator struct {
	store  storage.LedgerStore
	logger *log.Logger
}

func NewAlertEvaluator(store storage.LedgerStore, logger *log.Logger) *AlertEvaluator {
	return &AlertEvaluator{
		store:  store,
		logger: logger.WithComponent(log.ComponentAnalytics),
	}
}

// Evaluate computes the alert report for (month, year). Without a configured
// budget it returns an empty report; a zero total budget produces zero
// percentage rather than a division error.
func (a *AlertEvaluator) Evaluate(ctx context.Context, userID string, month, year int) (core.AlertReport, error) {
	report := core.AlertReport{Alerts: []core.BudgetAlert{}}

	if !core.ValidPeriod(month, year) {
		return report, core.ErrInvalidMonth
	}

	budget, err := a.store.GetBudget(ctx, userID, year, month)
	if errors.Is(err, core.ErrNotFound) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("get budget: %w", err)
	}

	expenses, err := a.store.ListExpensesByMonth(ctx, userID, year, month)
	if err != nil {
		return report, fmt.Errorf("list expenses: %w", err)
	}

	totalSpent := core.Money{}
	spentByCategory := core.NewBreakdown()
	for _, e := range expenses {
		totalSpent = totalSpent.Add(e.Amount)
		spentByCategory.Add(e.Category, e.Amount.Cents)
	}

	// Thresholds compare the unrounded percentage; 79.95% displays as 80.0
	// but must not warn.
	pct := percentOf(totalSpent.Cents, budget.TotalBudget.Cents)

	report.TotalSpent = totalSpent
	report.Budget = budget.TotalBudget
	report.Percentage = round1(pct)

	if pct >= dangerThreshold {
		report.Alerts = append(report.Alerts, core.BudgetAlert{
			Type: core.AlertDanger,
			Message: fmt.Sprintf("You've exceeded your budget! Spent $%s of $%s",
				core.FormatCents(totalSpent.Cents), core.FormatCents(budget.TotalBudget.Cents)),
		})
	} else if pct >= warningThreshold {
		remaining := budget.TotalBudget.Sub(totalSpent)
		report.Alerts = append(report.Alerts, core.BudgetAlert{
			Type: core.AlertWarning,
			Message: fmt.Sprintf("You've used %.1f%% of your budget. $%s remaining.",
				pct, core.FormatCents(remaining.Cents)),
		})
	}

	for _, cb := range budget.CategoryBudgets.Entries() {
		if cb.Amount.Cents <= 0 {
			continue
		}
		spent, _ := spentByCategory.Get(cb.Category)
		pct := percentOf(spent.Cents, cb.Amount.Cents)

		if pct >= dangerThreshold {
			report.Alerts = append(report.Alerts, core.BudgetAlert{
				Type: core.AlertDanger,
				Message: fmt.Sprintf("%s: Budget exceeded! Spent $%s of $%s",
					cb.Category, core.FormatCents(spent.Cents), core.FormatCents(cb.Amount.Cents)),
			})
		} else if pct >= warningThreshold {
			remaining := cb.Amount.Sub(spent)
			report.Alerts = append(report.Alerts, core.BudgetAlert{
				Type: core.AlertWarning,
				Message: fmt.Sprintf("%s: %.1f%% used. $%s remaining.",
					cb.Category, pct, core.FormatCents(remaining.Cents)),
			})
		}
	}

	return report, nil
}

// percentOf returns spent as a percentage of budget, unrounded. A zero or
// negative budget yields zero.
func percentOf(spentCents, budgetCents int64) float64 {
	if budgetCents <= 0 {
		return 0
	}
	return float64(spentCents) / float64(budgetCents) * 100
}

// round1 rounds to one decimal for reporting.
func round1(pct float64) float64 {
	return math.Round(pct*10) / 10
}
