// Package bigquery defines the persistence interfaces and row shapes for the
// transaction and user-settings tables. Handlers depend on the interfaces
// here; the BigQuery-backed implementation lives in internal/infra/bigquery.
package bigquery

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/spendvoice/spendvoice/internal/domain"
)

// TransactionStore provides transaction persistence. Implementations perform
// no category or date validation; rows are assumed to have passed the
// extraction or request validation gates already.
type TransactionStore interface {
	// InsertTransaction persists one transaction and returns its ID.
	InsertTransaction(ctx context.Context, tx domain.Transaction) (string, error)

	// QueryTransactionsByDateRange returns a user's transactions with
	// start <= date <= end, newest first.
	QueryTransactionsByDateRange(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error)

	// DeleteTransaction removes one transaction owned by the user.
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// SettingsStore provides per-user settings.
type SettingsStore interface {
	// MonthlyBudget returns the user's configured monthly budget, or the
	// default budget when the user has no settings row.
	MonthlyBudget(ctx context.Context, userID string) (float64, error)
}

// TransactionRow is the transactions table schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"`
	UserID        string `bigquery:"user_id"`

	Amount   float64 `bigquery:"amount"`
	Type     string  `bigquery:"type"`
	Category string  `bigquery:"category"`

	Merchant bigquery.NullString `bigquery:"merchant"`
	Note     bigquery.NullString `bigquery:"note"`

	Date civil.Date `bigquery:"date"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// UserSettingsRow is the user_settings table schema.
type UserSettingsRow struct {
	UserID        string    `bigquery:"user_id"`
	MonthlyBudget float64   `bigquery:"monthly_budget"`
	Currency      string    `bigquery:"currency"`
	UpdatedTS     time.Time `bigquery:"updated_ts"`
}

// RowFromTransaction maps a domain transaction onto the table schema.
func RowFromTransaction(tx domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        tx.Amount,
		Type:          string(tx.Type),
		Category:      string(tx.Category),
		Date:          civil.DateOf(tx.Date),
		CreatedTS:     tx.CreatedAt,
	}
	if tx.Merchant != "" {
		row.Merchant = bigquery.NullString{StringVal: tx.Merchant, Valid: true}
	}
	if tx.Note != "" {
		row.Note = bigquery.NullString{StringVal: tx.Note, Valid: true}
	}
	return row
}

// ToTransaction maps a table row back to the domain shape. Unknown stored
// categories collapse to Other so the aggregator always sees the closed set.
func (r *TransactionRow) ToTransaction() domain.Transaction {
	txType, _ := domain.ParseTransactionType(r.Type)
	category, _ := domain.ParseCategory(r.Category)

	return domain.Transaction{
		ID:        r.TransactionID,
		UserID:    r.UserID,
		Amount:    r.Amount,
		Type:      txType,
		Category:  category,
		Merchant:  r.Merchant.StringVal,
		Note:      r.Note.StringVal,
		Date:      r.Date.In(time.UTC),
		CreatedAt: r.CreatedTS,
	}
}
