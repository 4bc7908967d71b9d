package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func seedRecurringExpense(t *testing.T, store *storage.MemoryStore, id string, day int) core.RecurringItem {
	t.Helper()
	item := core.RecurringItem{
		ID:            id,
		UserID:        "u1",
		ItemType:      core.ItemExpense,
		Category:      "Housing",
		Amount:        core.Money{Cents: 120000},
		PaymentMethod: core.PaymentCash,
		DayOfMonth:    day,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	if err := store.CreateRecurringItem(context.Background(), item); err != nil {
		t.Fatalf("CreateRecurringItem: %v", err)
	}
	return item
}

func TestMaterializer_ProcessIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	mat := NewMaterializer(store, nil, testLogger())

	seedRecurringExpense(t, store, "r1", 5)

	first, err := mat.Process(ctx, "u1", 1, 2025)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if first.CreatedCount != 1 {
		t.Fatalf("first run CreatedCount = %d, want 1", first.CreatedCount)
	}

	second, err := mat.Process(ctx, "u1", 1, 2025)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if second.CreatedCount != 0 {
		t.Errorf("second run CreatedCount = %d, want 0", second.CreatedCount)
	}
	if len(second.CreatedIDs) != 0 {
		t.Errorf("second run CreatedIDs = %v, want empty", second.CreatedIDs)
	}

	expenses, err := store.ListExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Errorf("stored expenses = %d, want 1 after two runs", len(expenses))
	}

	// A different month materializes again.
	third, err := mat.Process(ctx, "u1", 2, 2025)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if third.CreatedCount != 1 {
		t.Errorf("new month CreatedCount = %d, want 1", third.CreatedCount)
	}
}

func TestMaterializer_ClampsDayOfMonth(t *testing.T) {
	tests := []struct {
		name    string
		day     int
		month   int
		year    int
		wantDay int
	}{
		{name: "31 in april", day: 31, month: 4, year: 2025, wantDay: 30},
		{name: "31 in february", day: 31, month: 2, year: 2025, wantDay: 28},
		{name: "31 in leap february", day: 31, month: 2, year: 2024, wantDay: 29},
		{name: "15 fits everywhere", day: 15, month: 2, year: 2025, wantDay: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			mat := NewMaterializer(store, nil, testLogger())
			seedRecurringExpense(t, store, "r1", tt.day)

			result, err := mat.Process(ctx, "u1", tt.month, tt.year)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if result.CreatedCount != 1 {
				t.Fatalf("CreatedCount = %d, want 1", result.CreatedCount)
			}

			expenses, err := store.ListExpensesByMonth(ctx, "u1", tt.year, tt.month)
			if err != nil {
				t.Fatalf("ListExpensesByMonth: %v", err)
			}
			if len(expenses) != 1 {
				t.Fatalf("stored expenses = %d, want 1", len(expenses))
			}
			if got := expenses[0].Date.Day(); got != tt.wantDay {
				t.Errorf("materialized day = %d, want %d", got, tt.wantDay)
			}
		})
	}
}

func TestMaterializer_SkipsInactiveTemplates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	mat := NewMaterializer(store, nil, testLogger())

	item := seedRecurringExpense(t, store, "r1", 5)
	item.IsActive = false
	if err := store.UpdateRecurringItem(ctx, item); err != nil {
		t.Fatalf("UpdateRecurringItem: %v", err)
	}

	result, err := mat.Process(ctx, "u1", 1, 2025)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.CreatedCount != 0 {
		t.Errorf("CreatedCount = %d, want 0 for inactive template", result.CreatedCount)
	}
}

func TestMaterializer_RecordsSnapshotTemplateValues(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	mat := NewMaterializer(store, nil, testLogger())

	item := seedRecurringExpense(t, store, "r1", 5)
	if _, err := mat.Process(ctx, "u1", 1, 2025); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Changing the template must not touch the January record.
	item.Amount = core.Money{Cents: 999900}
	item.Category = "Travel"
	if err := store.UpdateRecurringItem(ctx, item); err != nil {
		t.Fatalf("UpdateRecurringItem: %v", err)
	}
	if _, err := mat.Process(ctx, "u1", 1, 2025); err != nil {
		t.Fatalf("Process: %v", err)
	}

	expenses, err := store.ListExpensesByMonth(ctx, "u1", 2025, 1)
	if err != nil {
		t.Fatalf("ListExpensesByMonth: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("stored expenses = %d, want 1", len(expenses))
	}
	if expenses[0].Amount.Cents != 120000 {
		t.Errorf("January amount = %d, want original 120000", expenses[0].Amount.Cents)
	}
	if expenses[0].Category != "Housing" {
		t.Errorf("January category = %s, want original Housing", expenses[0].Category)
	}

	// February picks up the new values.
	result, err := mat.Process(ctx, "u1", 2, 2025)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.CreatedCount != 1 {
		t.Fatalf("February CreatedCount = %d, want 1", result.CreatedCount)
	}
	february, err := store.ListExpensesByMonth(ctx, "u1", 2025, 2)
	if err != nil {
		t.Fatalf("ListExpensesByMonth: %v", err)
	}
	if february[0].Amount.Cents != 999900 {
		t.Errorf("February amount = %d, want updated 999900", february[0].Amount.Cents)
	}
}

func TestMaterializer_MixedItemTypes(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	publisher := &stubPublisher{}
	mat := NewMaterializer(store, publisher, testLogger())

	seedRecurringExpense(t, store, "r1", 1)
	income := core.RecurringItem{
		ID:         "r2",
		UserID:     "u1",
		ItemType:   core.ItemIncome,
		Source:     "Salary",
		Amount:     core.Money{Cents: 300000},
		DayOfMonth: 25,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if err := store.CreateRecurringItem(ctx, income); err != nil {
		t.Fatalf("CreateRecurringItem: %v", err)
	}

	result, err := mat.Process(ctx, "u1", 3, 2025)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.CreatedCount != 2 {
		t.Errorf("CreatedCount = %d, want 2", result.CreatedCount)
	}
	if len(result.CreatedIDs) != 2 {
		t.Errorf("CreatedIDs = %v, want 2 entries", result.CreatedIDs)
	}
	if len(publisher.published) != 2 {
		t.Errorf("published %d sync messages, want 2", len(publisher.published))
	}

	incomes, err := store.ListIncomesByMonth(ctx, "u1", 2025, 3)
	if err != nil {
		t.Fatalf("ListIncomesByMonth: %v", err)
	}
	if len(incomes) != 1 {
		t.Fatalf("materialized incomes = %d, want 1", len(incomes))
	}
	if !incomes[0].IsRecurring || incomes[0].RecurringItemID != "r2" {
		t.Errorf("income not linked to template: IsRecurring=%v RecurringItemID=%s",
			incomes[0].IsRecurring, incomes[0].RecurringItemID)
	}
	if incomes[0].Date.Day() != 25 {
		t.Errorf("income day = %d, want 25", incomes[0].Date.Day())
	}
}

func TestMaterializer_InvalidPeriod(t *testing.T) {
	ctx := context.Background()
	mat := NewMaterializer(storage.NewMemoryStore(), nil, testLogger())

	if _, err := mat.Process(ctx, "u1", 13, 2025); err == nil {
		t.Error("Process(month 13) = nil error, want error")
	}
	if _, err := mat.Process(ctx, "u1", 0, 2025); err == nil {
		t.Error("Process(month 0) = nil error, want error")
	}
}

func TestMaterializer_BrokenTemplateDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	mat := NewMaterializer(store, nil, testLogger())

	// Seed a template with a type the materializer cannot handle, bypassing
	// service-level validation, alongside a healthy one.
	broken := core.RecurringItem{
		ID:         "r-broken",
		UserID:     "u1",
		ItemType:   core.ItemType("bogus"),
		Amount:     core.Money{Cents: 5000},
		DayOfMonth: 3,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if err := store.CreateRecurringItem(ctx, broken); err != nil {
		t.Fatalf("CreateRecurringItem: %v", err)
	}
	seedRecurringExpense(t, store, "r-ok", 5)

	result, err := mat.Process(ctx, "u1", 1, 2025)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.CreatedCount != 1 {
		t.Errorf("CreatedCount = %d, want 1", result.CreatedCount)
	}
	if len(result.CreatedIDs) != 1 {
		t.Errorf("CreatedIDs = %v, want one ID", result.CreatedIDs)
	}

	expenses, err := store.ListExpensesByMonth(ctx, "u1", 2025, 1)
	if err != nil {
		t.Fatalf("ListExpensesByMonth: %v", err)
	}
	if len(expenses) != 1 || expenses[0].RecurringItemID != "r-ok" {
		t.Errorf("materialized expenses = %+v, want one from r-ok", expenses)
	}
}
