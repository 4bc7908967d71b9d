package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		UserID:        "u1",
		Category:      "Housing",
		Amount:        Money{Cents: 120000},
		Date:          NewDate(2025, 1, 5),
		PaymentMethod: PaymentCash,
	}

	tests := []struct {
		name    string
		mutate  func(e *Expense)
		wantErr bool
	}{
		{name: "valid cash expense", mutate: func(e *Expense) {}},
		{
			name: "valid card expense",
			mutate: func(e *Expense) {
				e.PaymentMethod = PaymentCreditCard
				e.CreditCardID = "card1"
			},
		},
		{name: "missing user", mutate: func(e *Expense) { e.UserID = "" }, wantErr: true},
		{name: "unknown category", mutate: func(e *Expense) { e.Category = "Groceries" }, wantErr: true},
		{name: "zero amount", mutate: func(e *Expense) { e.Amount = Money{} }, wantErr: true},
		{name: "zero date", mutate: func(e *Expense) { e.Date = Date{} }, wantErr: true},
		{
			name:    "cash with card id",
			mutate:  func(e *Expense) { e.CreditCardID = "card1" },
			wantErr: true,
		},
		{
			name:    "card without card id",
			mutate:  func(e *Expense) { e.PaymentMethod = PaymentCreditCard },
			wantErr: true,
		},
		{
			name:    "bad payment method",
			mutate:  func(e *Expense) { e.PaymentMethod = "cheque" },
			wantErr: true,
		},
		{
			name:    "description too long",
			mutate:  func(e *Expense) { e.Description = strings.Repeat("x", 501) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestIncomeValidate(t *testing.T) {
	valid := Income{
		UserID: "u1",
		Source: "Salary",
		Amount: Money{Cents: 300000},
		Date:   NewDate(2025, 1, 1),
	}

	tests := []struct {
		name    string
		mutate  func(i *Income)
		wantErr bool
	}{
		{name: "valid", mutate: func(i *Income) {}},
		{name: "missing source", mutate: func(i *Income) { i.Source = "" }, wantErr: true},
		{name: "blank source", mutate: func(i *Income) { i.Source = "   " }, wantErr: true},
		{name: "missing user", mutate: func(i *Income) { i.UserID = "" }, wantErr: true},
		{name: "negative amount", mutate: func(i *Income) { i.Amount = Money{Cents: -100} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := valid
			tt.mutate(&i)
			err := i.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestCreditCardValidate(t *testing.T) {
	valid := CreditCard{
		UserID:         "u1",
		Name:           "Everyday",
		LastFourDigits: "4242",
		CardType:       "Visa",
	}

	tests := []struct {
		name    string
		mutate  func(c *CreditCard)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *CreditCard) {}},
		{name: "three digits", mutate: func(c *CreditCard) { c.LastFourDigits = "424" }, wantErr: true},
		{name: "five digits", mutate: func(c *CreditCard) { c.LastFourDigits = "42424" }, wantErr: true},
		{name: "non numeric", mutate: func(c *CreditCard) { c.LastFourDigits = "42a2" }, wantErr: true},
		{name: "unknown type", mutate: func(c *CreditCard) { c.CardType = "Diners" }, wantErr: true},
		{name: "missing name", mutate: func(c *CreditCard) { c.Name = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestRecurringItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    RecurringItem
		wantErr bool
	}{
		{
			name: "valid income template",
			item: RecurringItem{
				UserID:     "u1",
				ItemType:   ItemIncome,
				Source:     "Salary",
				Amount:     Money{Cents: 300000},
				DayOfMonth: 1,
			},
		},
		{
			name: "valid expense template",
			item: RecurringItem{
				UserID:        "u1",
				ItemType:      ItemExpense,
				Category:      "Housing",
				Amount:        Money{Cents: 120000},
				PaymentMethod: PaymentCash,
				DayOfMonth:    31,
			},
		},
		{
			name: "income without source",
			item: RecurringItem{
				UserID:     "u1",
				ItemType:   ItemIncome,
				Amount:     Money{Cents: 100},
				DayOfMonth: 1,
			},
			wantErr: true,
		},
		{
			name: "expense without category",
			item: RecurringItem{
				UserID:        "u1",
				ItemType:      ItemExpense,
				Amount:        Money{Cents: 100},
				PaymentMethod: PaymentCash,
				DayOfMonth:    1,
			},
			wantErr: true,
		},
		{
			name: "bad item type",
			item: RecurringItem{
				UserID:     "u1",
				ItemType:   "transfer",
				Amount:     Money{Cents: 100},
				DayOfMonth: 1,
			},
			wantErr: true,
		},
		{
			name: "day zero",
			item: RecurringItem{
				UserID:     "u1",
				ItemType:   ItemIncome,
				Source:     "Salary",
				Amount:     Money{Cents: 100},
				DayOfMonth: 0,
			},
			wantErr: true,
		},
		{
			name: "day thirty-two",
			item: RecurringItem{
				UserID:     "u1",
				ItemType:   ItemIncome,
				Source:     "Salary",
				Amount:     Money{Cents: 100},
				DayOfMonth: 32,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{
		UserID:      "u1",
		Month:       1,
		Year:        2025,
		TotalBudget: Money{Cents: 200000},
		CategoryBudgets: NewCategoryBudgets(
			CategoryBudget{Category: "Housing", Amount: Money{Cents: 120000}},
		),
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	bad := valid
	bad.Month = 13
	if err := bad.Validate(); err == nil {
		t.Error("Validate() with month 13 = nil, want error")
	}

	bad = valid
	bad.CategoryBudgets = NewCategoryBudgets(
		CategoryBudget{Category: "Groceries", Amount: Money{Cents: 100}},
	)
	if err := bad.Validate(); err == nil {
		t.Error("Validate() with unknown category = nil, want error")
	}
}

func TestCategoryBudgetsJSONOrder(t *testing.T) {
	in := []byte(`{"Housing":1200.00,"Food & Dining":400,"Entertainment":150.50}`)
	var cb CategoryBudgets
	if err := json.Unmarshal(in, &cb); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	entries := cb.Entries()
	wantOrder := []string{"Housing", "Food & Dining", "Entertainment"}
	if len(entries) != len(wantOrder) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(wantOrder))
	}
	for i, want := range wantOrder {
		if entries[i].Category != want {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Category, want)
		}
	}

	out, err := json.Marshal(cb)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"Housing":1200.00,"Food & Dining":400.00,"Entertainment":150.50}`
	if string(out) != want {
		t.Errorf("Marshal = %s, want %s", out, want)
	}
}

func TestBreakdownOrder(t *testing.T) {
	b := NewBreakdown()
	b.Add("Housing", 120000)
	b.Add("Food & Dining", 20000)
	b.Add("Housing", 5000)

	wantKeys := []string{"Housing", "Food & Dining"}
	got := b.Keys()
	if len(got) != len(wantKeys) {
		t.Fatalf("Keys() = %v, want %v", got, wantKeys)
	}
	for i := range wantKeys {
		if got[i] != wantKeys[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], wantKeys[i])
		}
	}

	if sum, _ := b.Get("Housing"); sum.Cents != 125000 {
		t.Errorf("Get(Housing) = %d, want 125000", sum.Cents)
	}

	out, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"Housing":1250.00,"Food & Dining":200.00}`
	if string(out) != want {
		t.Errorf("Marshal = %s, want %s", out, want)
	}
}
