// Package bigquery implements the transaction and settings stores on
// BigQuery. It assumes Application Default Credentials are configured.
package bigquery

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"

	bq "github.com/spendvoice/spendvoice/internal/bigquery"
)

// Re-export the shared interfaces so callers can depend on this package alone.
type TransactionStore = bq.TransactionStore
type SettingsStore = bq.SettingsStore

const (
	defaultDatasetID = "spendvoice"

	transactionsTable = "transactions"
	settingsTable     = "user_settings"

	// DefaultMonthlyBudget is used for users without a settings row.
	DefaultMonthlyBudget = 1000
)

// Store is the BigQuery-backed implementation of TransactionStore and
// SettingsStore, holding one shared client.
type Store struct {
	client  *bigquery.Client
	dataset string
}

// NewStore creates a Store. projectID defaults to the BIGQUERY_PROJECT
// environment variable, datasetID to "spendvoice".
func NewStore(ctx context.Context, projectID, datasetID string) (*Store, error) {
	if projectID == "" {
		projectID = os.Getenv("BIGQUERY_PROJECT")
	}
	if projectID == "" {
		return nil, fmt.Errorf("NewStore: no BigQuery project configured")
	}
	if datasetID == "" {
		datasetID = defaultDatasetID
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}

	return &Store{client: client, dataset: datasetID}, nil
}

// Close closes the shared BigQuery client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
