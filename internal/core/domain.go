package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Manual  Source = "manual"
	Receipt Source = "receipt"

	// CategoryOther is the catch-all bucket for categories outside the
	// known set.
	CategoryOther = "other"

	// DateLayout is the calendar-date format transactions carry.
	DateLayout = "2006-01-02"
)

type (
	TransactionType string

	// Source marks provenance: entered by hand or derived from a receipt.
	Source string

	// Transaction is a single recorded income or expense event. The JSON
	// names are the wire contract of the HTTP API and of stored records.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      float64         `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Date        string          `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
		Source      Source          `json:"source"`
		Vendor      string          `json:"vendor,omitempty"`
	}
)

var (
	ErrValidation      = errors.New("invalid transaction")
	ErrInvalidType     = fmt.Errorf("%w: type must be income or expense", ErrValidation)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	ErrMissingCategory = fmt.Errorf("%w: category is required", ErrValidation)
	ErrInvalidDate     = fmt.Errorf("%w: date must be formatted YYYY-MM-DD", ErrValidation)
)

var (
	incomeCategories  = []string{"salary", "freelance", "business", "investment", "gift", CategoryOther}
	expenseCategories = []string{"food", "transport", "shopping", "utilities", "healthcare", "entertainment", "education", CategoryOther}
)

// ExpenseCategories returns the bounded expense category set in stable order.
func ExpenseCategories() []string {
	return slices.Clone(expenseCategories)
}

// NormalizeCategory bounds a raw category to the known set for the
// transaction type. Unknown values collapse to "other"; empty input stays
// empty so required-field validation can reject it.
func NormalizeCategory(typ TransactionType, raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return ""
	}
	known := expenseCategories
	if typ == Income {
		known = incomeCategories
	}
	if !slices.Contains(known, c) {
		return CategoryOther
	}
	return c
}

// MonthKey returns the YYYY-MM bucket of a transaction date. Dates are
// stored as YYYY-MM-DD strings; anything shorter buckets as-is.
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// Validate applies the manual-entry rules. Receipt-derived transactions
// are synthesized field by field and skip this.
func (t Transaction) Validate() error {
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrMissingCategory
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	}
	if t.Date != "" {
		if _, err := time.Parse(DateLayout, t.Date); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// NewManual normalizes user input into a manual transaction ready to
// persist: the category is bounded to the known set, a missing date
// defaults to today, provenance is stamped. Caller-supplied identity is
// discarded; the ledger assigns ID and CreatedAt.
func NewManual(in Transaction, now time.Time) (Transaction, error) {
	t := in
	t.ID = ""
	t.CreatedAt = time.Time{}
	t.Category = NormalizeCategory(t.Type, t.Category)
	t.Description = strings.TrimSpace(t.Description)
	t.Date = strings.TrimSpace(t.Date)
	if t.Date == "" {
		t.Date = now.UTC().Format(DateLayout)
	}
	t.Source = Manual
	t.Vendor = ""
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}
