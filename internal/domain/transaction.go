package domain

import (
	"strings"
	"time"
)

// TransactionType says which direction money moved.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// ParseTransactionType normalizes and validates a transaction type string.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeIncome:
		return TypeIncome, true
	case TypeExpense:
		return TypeExpense, true
	}
	return "", false
}

// Category is the closed spending category set. It is defined once here and
// shared by the extraction prompt, the validation gate and the aggregator so
// the three can never drift apart.
type Category string

const (
	CategoryFoodDrink      Category = "Food & Drink"
	CategoryTransportation Category = "Transportation"
	CategoryShopping       Category = "Shopping"
	CategoryEntertainment  Category = "Entertainment"
	CategoryBillsUtilities Category = "Bills & Utilities"
	CategoryHealthcare     Category = "Healthcare"
	CategoryOther          Category = "Other"
)

// Categories returns the closed category set in its canonical order.
func Categories() []Category {
	return []Category{
		CategoryFoodDrink,
		CategoryTransportation,
		CategoryShopping,
		CategoryEntertainment,
		CategoryBillsUtilities,
		CategoryHealthcare,
		CategoryOther,
	}
}

// ParseCategory matches a string against the closed set, case-insensitively
// and ignoring surrounding whitespace. Unknown values report ok=false so the
// caller can decide whether to reject or default to CategoryOther.
func ParseCategory(s string) (Category, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range Categories() {
		if strings.ToUpper(string(c)) == norm {
			return c, true
		}
	}
	return CategoryOther, false
}

// Transaction is one recorded financial event.
type Transaction struct {
	ID       string          `json:"id,omitempty"`
	UserID   string          `json:"user_id,omitempty"`
	Amount   float64         `json:"amount"` // always positive; Type carries the sign
	Type     TransactionType `json:"type"`
	Category Category        `json:"category"`
	Merchant string          `json:"merchant"`
	Note     string          `json:"note"`
	Date     time.Time       `json:"date"` // calendar date, time-of-day ignored

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DateString renders the transaction date as YYYY-MM-DD, the only date
// format used on the wire and for daily grouping.
func (t Transaction) DateString() string {
	return t.Date.Format(time.DateOnly)
}
