package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	bq "github.com/spendvoice/spendvoice/internal/bigquery"
	"github.com/spendvoice/spendvoice/internal/domain"
)

// InsertTransaction persists one transaction and returns its ID.
func (s *Store) InsertTransaction(ctx context.Context, tx domain.Transaction) (string, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	row := bq.RowFromTransaction(tx)

	inserter := s.client.Dataset(s.dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return "", fmt.Errorf("InsertTransaction: inserting row: %w", err)
	}

	return tx.ID, nil
}

// QueryTransactionsByDateRange returns a user's transactions in the window,
// newest first.
func (s *Store) QueryTransactionsByDateRange(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			amount,
			type,
			category,
			merchant,
			note,
			date,
			created_ts
		FROM %s.%s
		WHERE user_id = @user_id
		  AND date BETWEEN @start_date AND @end_date
		ORDER BY date DESC, created_ts DESC
	`, s.dataset, transactionsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: civil.DateOf(start)},
		{Name: "end_date", Value: civil.DateOf(end)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: running query: %w", err)
	}

	var result []domain.Transaction
	for {
		var row bq.TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: reading row: %w", err)
		}
		result = append(result, row.ToTransaction())
	}

	return result, nil
}

// DeleteTransaction removes one transaction owned by the user.
func (s *Store) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	q := s.client.Query(fmt.Sprintf(`
		DELETE FROM %s.%s
		WHERE transaction_id = @transaction_id
		  AND user_id = @user_id
	`, s.dataset, transactionsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: transactionID},
		{Name: "user_id", Value: userID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: running delete: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("DeleteTransaction: job error: %w", err)
	}

	return nil
}
