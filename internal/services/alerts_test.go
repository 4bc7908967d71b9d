package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func seedBudget(t *testing.T, store *storage.MemoryStore, totalCents int64, categories ...core.CategoryBudget) {
	t.Helper()
	_, err := store.UpsertBudget(context.Background(), core.Budget{
		ID:              "b1",
		UserID:          "u1",
		Month:           1,
		Year:            2025,
		TotalBudget:     core.Money{Cents: totalCents},
		CategoryBudgets: core.NewCategoryBudgets(categories...),
		CreatedAt:       time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}
}

func TestAlertEvaluator_NoBudgetConfigured(t *testing.T) {
	ctx := context.Background()
	eval := NewAlertEvaluator(storage.NewMemoryStore(), testLogger())

	report, err := eval.Evaluate(ctx, "u1", 1, 2025)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Alerts == nil {
		t.Fatal("Alerts = nil, want empty slice")
	}
	if len(report.Alerts) != 0 {
		t.Errorf("Alerts = %v, want empty", report.Alerts)
	}
	if report.Percentage != 0 || report.TotalSpent.Cents != 0 || report.Budget.Cents != 0 {
		t.Errorf("report = %+v, want all-zero fields", report)
	}
}

func TestAlertEvaluator_OverallThresholds(t *testing.T) {
	tests := []struct {
		name        string
		spentCents  int64
		wantAlerts  int
		wantType    string
		wantMessage string
		wantPct     float64
	}{
		{
			name:       "under warning threshold",
			spentCents: 100000, // 50%
			wantAlerts: 0,
			wantPct:    50.0,
		},
		{
			name:        "warning at 85 percent",
			spentCents:  170000,
			wantAlerts:  1,
			wantType:    core.AlertWarning,
			wantMessage: "You've used 85.0% of your budget. $300.00 remaining.",
			wantPct:     85.0,
		},
		{
			name:       "just under warning threshold stays silent",
			spentCents: 159900, // 79.95% reports as 80.0 but must not warn
			wantAlerts: 0,
			wantPct:    80.0,
		},
		{
			name:        "warning at exactly 80 percent",
			spentCents:  160000,
			wantAlerts:  1,
			wantType:    core.AlertWarning,
			wantMessage: "You've used 80.0% of your budget. $400.00 remaining.",
			wantPct:     80.0,
		},
		{
			name:        "danger at exactly 100 percent",
			spentCents:  200000,
			wantAlerts:  1,
			wantType:    core.AlertDanger,
			wantMessage: "You've exceeded your budget! Spent $2000.00 of $2000.00",
			wantPct:     100.0,
		},
		{
			name:        "danger when over budget",
			spentCents:  240000,
			wantAlerts:  1,
			wantType:    core.AlertDanger,
			wantMessage: "You've exceeded your budget! Spent $2400.00 of $2000.00",
			wantPct:     120.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			eval := NewAlertEvaluator(store, testLogger())

			seedBudget(t, store, 200000)
			seedExpense(t, store, "e1", "Other", tt.spentCents, core.PaymentCash, core.NewDate(2025, 1, 10))

			report, err := eval.Evaluate(ctx, "u1", 1, 2025)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if len(report.Alerts) != tt.wantAlerts {
				t.Fatalf("len(Alerts) = %d, want %d: %v", len(report.Alerts), tt.wantAlerts, report.Alerts)
			}
			if report.Percentage != tt.wantPct {
				t.Errorf("Percentage = %v, want %v", report.Percentage, tt.wantPct)
			}
			if tt.wantAlerts > 0 {
				if report.Alerts[0].Type != tt.wantType {
					t.Errorf("alert type = %s, want %s", report.Alerts[0].Type, tt.wantType)
				}
				if report.Alerts[0].Message != tt.wantMessage {
					t.Errorf("alert message = %q, want %q", report.Alerts[0].Message, tt.wantMessage)
				}
			}
		})
	}
}

func TestAlertEvaluator_CategoryAlertsFollowDefinitionOrder(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	eval := NewAlertEvaluator(store, testLogger())

	seedBudget(t, store, 1000000,
		core.CategoryBudget{Category: "Housing", Amount: core.Money{Cents: 100000}},
		core.CategoryBudget{Category: "Food & Dining", Amount: core.Money{Cents: 50000}},
		core.CategoryBudget{Category: "Travel", Amount: core.Money{Cents: 80000}},
	)
	// Housing exceeded, Food & Dining in warning range, Travel untouched.
	seedExpense(t, store, "e1", "Housing", 150000, core.PaymentCash, core.NewDate(2025, 1, 5))
	seedExpense(t, store, "e2", "Food & Dining", 45000, core.PaymentCash, core.NewDate(2025, 1, 8))

	report, err := eval.Evaluate(ctx, "u1", 1, 2025)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	// 195000 of 1000000 overall: no overall alert, only the two category alerts.
	if len(report.Alerts) != 2 {
		t.Fatalf("len(Alerts) = %d, want 2: %v", len(report.Alerts), report.Alerts)
	}
	if report.Alerts[0].Type != core.AlertDanger ||
		report.Alerts[0].Message != "Housing: Budget exceeded! Spent $1500.00 of $1000.00" {
		t.Errorf("Alerts[0] = %+v, want Housing danger", report.Alerts[0])
	}
	if report.Alerts[1].Type != core.AlertWarning ||
		report.Alerts[1].Message != "Food & Dining: 90.0% used. $50.00 remaining." {
		t.Errorf("Alerts[1] = %+v, want Food & Dining warning", report.Alerts[1])
	}
}

func TestAlertEvaluator_OverallAlertPrecedesCategoryAlerts(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	eval := NewAlertEvaluator(store, testLogger())

	seedBudget(t, store, 100000,
		core.CategoryBudget{Category: "Housing", Amount: core.Money{Cents: 50000}},
	)
	seedExpense(t, store, "e1", "Housing", 120000, core.PaymentCash, core.NewDate(2025, 1, 5))

	report, err := eval.Evaluate(ctx, "u1", 1, 2025)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(report.Alerts) != 2 {
		t.Fatalf("len(Alerts) = %d, want 2: %v", len(report.Alerts), report.Alerts)
	}
	if report.Alerts[0].Message != "You've exceeded your budget! Spent $1200.00 of $1000.00" {
		t.Errorf("Alerts[0] = %q, want overall danger first", report.Alerts[0].Message)
	}
	if report.Alerts[1].Message != "Housing: Budget exceeded! Spent $1200.00 of $500.00" {
		t.Errorf("Alerts[1] = %q, want Housing danger second", report.Alerts[1].Message)
	}
}

func TestAlertEvaluator_ZeroCategoryBudgetSkipped(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	eval := NewAlertEvaluator(store, testLogger())

	seedBudget(t, store, 1000000,
		core.CategoryBudget{Category: "Housing", Amount: core.Money{Cents: 0}},
	)
	seedExpense(t, store, "e1", "Housing", 50000, core.PaymentCash, core.NewDate(2025, 1, 5))

	report, err := eval.Evaluate(ctx, "u1", 1, 2025)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(report.Alerts) != 0 {
		t.Errorf("Alerts = %v, want none for zero category budget", report.Alerts)
	}
}

func TestAlertEvaluator_ZeroTotalBudget(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	eval := NewAlertEvaluator(store, testLogger())

	seedBudget(t, store, 0)
	seedExpense(t, store, "e1", "Other", 50000, core.PaymentCash, core.NewDate(2025, 1, 5))

	report, err := eval.Evaluate(ctx, "u1", 1, 2025)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Percentage != 0 {
		t.Errorf("Percentage = %v, want 0 for zero budget", report.Percentage)
	}
	if len(report.Alerts) != 0 {
		t.Errorf("Alerts = %v, want none", report.Alerts)
	}
}
