package core

import (
	"strings"
	"time"
)

// Payment methods accepted on expenses.
const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCreditCard PaymentMethod = "credit_card"
)

// Recurring item kinds.
const (
	ItemIncome  ItemType = "income"
	ItemExpense ItemType = "expense"
)

type (
	PaymentMethod string
	ItemType      string
)

// ExpenseCategories is the fixed category set; anything else must be "Other".
var ExpenseCategories = []string{
	"Housing",
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Healthcare",
	"Utilities",
	"Travel",
	"Education",
	"Personal Care",
	"Other",
}

// CardTypes enumerates accepted credit card networks.
var CardTypes = []string{"Visa", "Mastercard", "American Express", "Discover", "Other"}

// ValidCategory reports whether name is one of ExpenseCategories.
func ValidCategory(name string) bool {
	for _, c := range ExpenseCategories {
		if c == name {
			return true
		}
	}
	return false
}

// ValidCardType reports whether name is an accepted card network.
func ValidCardType(name string) bool {
	for _, c := range CardTypes {
		if c == name {
			return true
		}
	}
	return false
}

// User is the account owner every record is scoped to.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Income is a single inflow record. Immutable once created except via delete.
type Income struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Source          string    `json:"source"`
	Amount          Money     `json:"amount"`
	Date            Date      `json:"date"`
	Description     string    `json:"description"`
	IsRecurring     bool      `json:"is_recurring"`
	RecurringItemID string    `json:"recurring_item_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks an income record before persistence.
func (i Income) Validate() error {
	if strings.TrimSpace(i.UserID) == "" {
		return NewValidationError("user_id", "required")
	}
	if strings.TrimSpace(i.Source) == "" {
		return NewValidationError("source", "required")
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if len(i.Description) > 500 {
		return NewValidationError("description", "too long (max 500 characters)")
	}
	return nil
}

// Expense is a single outflow record.
type Expense struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Category        string        `json:"category"`
	Amount          Money         `json:"amount"`
	Date            Date          `json:"date"`
	Description     string        `json:"description"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	CreditCardID    string        `json:"credit_card_id,omitempty"`
	IsRecurring     bool          `json:"is_recurring"`
	RecurringItemID string        `json:"recurring_item_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Validate checks an expense record before persistence. Card ownership is a
// store-level check; here only the payment_method/credit_card_id pairing is
// enforced.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return NewValidationError("user_id", "required")
	}
	if !ValidCategory(e.Category) {
		return NewValidationError("category", "unknown category")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	switch e.PaymentMethod {
	case PaymentCash:
		if e.CreditCardID != "" {
			return NewValidationError("credit_card_id", "must be empty for cash payments")
		}
	case PaymentCreditCard:
		if e.CreditCardID == "" {
			return NewValidationError("credit_card_id", "required for credit card payments")
		}
	default:
		return NewValidationError("payment_method", "must be cash or credit_card")
	}
	if len(e.Description) > 500 {
		return NewValidationError("description", "too long (max 500 characters)")
	}
	return nil
}

// CreditCard is a payment instrument owned by a user. Deleting a card does
// not cascade to expenses that reference it.
type CreditCard struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	LastFourDigits string    `json:"last_four_digits"`
	CardType       string    `json:"card_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate checks a credit card record.
func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return NewValidationError("user_id", "required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "required")
	}
	if len(c.LastFourDigits) != 4 {
		return NewValidationError("last_four_digits", "must be exactly 4 digits")
	}
	for _, r := range c.LastFourDigits {
		if r < '0' || r > '9' {
			return NewValidationError("last_four_digits", "must be exactly 4 digits")
		}
	}
	if !ValidCardType(c.CardType) {
		return NewValidationError("card_type", "unknown card type")
	}
	return nil
}

// RecurringItem is a template for monthly materialization, not a transaction.
type RecurringItem struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	ItemType      ItemType      `json:"item_type"`
	Source        string        `json:"source,omitempty"`
	Category      string        `json:"category,omitempty"`
	Amount        Money         `json:"amount"`
	Description   string        `json:"description"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	CreditCardID  string        `json:"credit_card_id,omitempty"`
	DayOfMonth    int           `json:"day_of_month"`
	IsActive      bool          `json:"is_active"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Validate checks a recurring item template.
func (r RecurringItem) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return NewValidationError("user_id", "required")
	}
	switch r.ItemType {
	case ItemIncome:
		if strings.TrimSpace(r.Source) == "" {
			return NewValidationError("source", "required for income items")
		}
	case ItemExpense:
		if !ValidCategory(r.Category) {
			return NewValidationError("category", "unknown category")
		}
		switch r.PaymentMethod {
		case PaymentCash:
			if r.CreditCardID != "" {
				return NewValidationError("credit_card_id", "must be empty for cash payments")
			}
		case PaymentCreditCard:
			if r.CreditCardID == "" {
				return NewValidationError("credit_card_id", "required for credit card payments")
			}
		default:
			return NewValidationError("payment_method", "must be cash or credit_card")
		}
	default:
		return NewValidationError("item_type", "must be income or expense")
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	return nil
}

// Budget is the configured spending limit for one (user, month, year).
// At most one exists per period; saving again overwrites.
type Budget struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	TotalBudget     Money           `json:"total_budget"`
	CategoryBudgets CategoryBudgets `json:"category_budgets"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Validate checks a budget before upsert.
func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return NewValidationError("user_id", "required")
	}
	if !ValidPeriod(b.Month, b.Year) {
		return ErrInvalidMonth
	}
	if err := b.TotalBudget.Validate(); err != nil {
		return err
	}
	for _, cb := range b.CategoryBudgets.Entries() {
		if !ValidCategory(cb.Category) {
			return NewValidationError("category_budgets", "unknown category "+cb.Category)
		}
		if cb.Amount.Cents < 0 {
			return NewValidationError("category_budgets", "negative amount for "+cb.Category)
		}
	}
	return nil
}
