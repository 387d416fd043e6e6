package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	bq "github.com/spendvoice/spendvoice/internal/bigquery"
)

// MonthlyBudget returns the user's configured budget, falling back to
// DefaultMonthlyBudget when no settings row exists.
func (s *Store) MonthlyBudget(ctx context.Context, userID string) (float64, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT user_id, monthly_budget, currency, updated_ts
		FROM %s.%s
		WHERE user_id = @user_id
		LIMIT 1
	`, s.dataset, settingsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("MonthlyBudget: running query: %w", err)
	}

	var row bq.UserSettingsRow
	switch err := it.Next(&row); err {
	case nil:
		if row.MonthlyBudget <= 0 {
			return DefaultMonthlyBudget, nil
		}
		return row.MonthlyBudget, nil
	case iterator.Done:
		return DefaultMonthlyBudget, nil
	default:
		return 0, fmt.Errorf("MonthlyBudget: reading row: %w", err)
	}
}
