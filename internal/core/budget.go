package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CategoryBudget is one per-category limit inside a budget.
type CategoryBudget struct {
	Category string
	Amount   Money
}

// CategoryBudgets holds per-category limits in the order the client defined
// them. Alert evaluation and JSON output both follow definition order, so a
// plain map would not do.
type CategoryBudgets struct {
	entries []CategoryBudget
}

// NewCategoryBudgets builds an ordered set from entries. A repeated category
// overwrites the earlier amount but keeps its original position.
func NewCategoryBudgets(entries ...CategoryBudget) CategoryBudgets {
	var cb CategoryBudgets
	for _, e := range entries {
		cb.Set(e.Category, e.Amount)
	}
	return cb
}

// Set assigns the limit for a category, appending it on first use.
func (cb *CategoryBudgets) Set(category string, amount Money) {
	for i := range cb.entries {
		if cb.entries[i].Category == category {
			cb.entries[i].Amount = amount
			return
		}
	}
	cb.entries = append(cb.entries, CategoryBudget{Category: category, Amount: amount})
}

// Get returns the limit for a category and whether one is defined.
func (cb CategoryBudgets) Get(category string) (Money, bool) {
	for _, e := range cb.entries {
		if e.Category == category {
			return e.Amount, true
		}
	}
	return Money{}, false
}

// Entries returns the limits in definition order.
func (cb CategoryBudgets) Entries() []CategoryBudget {
	return cb.entries
}

// Len returns the number of defined categories.
func (cb CategoryBudgets) Len() int {
	return len(cb.entries)
}

// MarshalJSON writes a JSON object with categories in definition order.
func (cb CategoryBudgets) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range cb.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(e.Category)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteString(FormatCents(e.Amount.Cents))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving the key order it appears in,
// which encoding/json map decoding would discard.
func (cb *CategoryBudgets) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("category_budgets: expected object, got %v", tok)
	}
	cb.entries = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("category_budgets: bad key %v", keyTok)
		}
		var amount Money
		if err := dec.Decode(&amount); err != nil {
			return fmt.Errorf("category_budgets[%s]: %w", key, err)
		}
		cb.Set(key, amount)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
