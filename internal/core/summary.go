package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Breakdown maps a categorical label (expense category, payment method, or
// income source) to a summed amount. Keys keep first-observed order so that
// repeated aggregation over the same records marshals byte-identically;
// plain map iteration order is not a reliable substitute.
type Breakdown struct {
	keys []string
	sums map[string]int64
}

// NewBreakdown returns an empty breakdown.
func NewBreakdown() *Breakdown {
	return &Breakdown{sums: make(map[string]int64)}
}

// Add accumulates cents under the given key, registering the key on first use.
func (b *Breakdown) Add(key string, cents int64) {
	if b.sums == nil {
		b.sums = make(map[string]int64)
	}
	if _, ok := b.sums[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.sums[key] += cents
}

// Get returns the summed amount for key and whether the key was observed.
func (b *Breakdown) Get(key string) (Money, bool) {
	if b == nil || b.sums == nil {
		return Money{}, false
	}
	cents, ok := b.sums[key]
	return Money{Cents: cents}, ok
}

// Keys returns labels in first-observed order.
func (b *Breakdown) Keys() []string {
	if b == nil {
		return nil
	}
	return b.keys
}

// Len returns the number of distinct labels.
func (b *Breakdown) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// MarshalJSON writes a JSON object with keys in first-observed order.
func (b *Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteString(FormatCents(b.sums[k]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Summary is the monthly aggregation result for one user and period.
// A month with zero records yields all-zero totals and empty breakdowns.
type Summary struct {
	TotalIncome       Money      `json:"total_income"`
	TotalExpenses     Money      `json:"total_expenses"`
	NetSavings        Money      `json:"net_savings"`
	CategoryBreakdown *Breakdown `json:"category_breakdown"`
	PaymentBreakdown  *Breakdown `json:"payment_breakdown"`
	IncomeBreakdown   *Breakdown `json:"income_breakdown"`
}

// NewSummary returns a zero summary with empty breakdowns.
func NewSummary() Summary {
	return Summary{
		CategoryBreakdown: NewBreakdown(),
		PaymentBreakdown:  NewBreakdown(),
		IncomeBreakdown:   NewBreakdown(),
	}
}

// TrendPoint is one month of the income/expense trend window.
type TrendPoint struct {
	Month     int    `json:"month"`
	Year      int    `json:"year"`
	MonthName string `json:"month_name"`
	Income    Money  `json:"income"`
	Expenses  Money  `json:"expenses"`
	Savings   Money  `json:"savings"`
}

// CategoryTrendPoint is one month of per-category spending. MonthName and
// Year are fixed fields; category keys follow in the window's first-observed
// order, with zero-spend categories absent.
type CategoryTrendPoint struct {
	MonthName string
	Year      int
	ByKey     *Breakdown
}

// MarshalJSON emits {"month_name":...,"year":...,"<category>":amount,...}
// with deterministic key order.
func (p CategoryTrendPoint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"month_name":%q,"year":%d`, p.MonthName, p.Year)
	for _, k := range p.ByKey.Keys() {
		amount, _ := p.ByKey.Get(k)
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteString(FormatCents(amount.Cents))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CategoryTrends is the per-category view over a trend window. Categories
// holds every category observed with nonzero spend anywhere in the window,
// in first-observed order walking months oldest to newest.
type CategoryTrends struct {
	Categories []string             `json:"categories"`
	Data       []CategoryTrendPoint `json:"data"`
}

// BudgetAlert is a single threshold-crossing notice.
type BudgetAlert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Alert severities.
const (
	AlertWarning = "warning"
	AlertDanger  = "danger"
)

// AlertReport is the budget evaluation result for one user and period.
// With no budget configured all fields are zero and Alerts is empty.
type AlertReport struct {
	Alerts     []BudgetAlert `json:"alerts"`
	Percentage float64       `json:"percentage"`
	TotalSpent Money         `json:"total_spent"`
	Budget     Money         `json:"budget"`
}

// MaterializationResult reports what one recurring-processing pass created.
type MaterializationResult struct {
	CreatedCount int      `json:"created_count"`
	CreatedIDs   []string `json:"created_ids"`
}
