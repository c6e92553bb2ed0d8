package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
	"google.golang.org/api/iterator"
)

const (
	transactionsTable  = "transactions"
	subscriptionsTable = "subscriptions"
	fixedCostsTable    = "fixed_costs"
)

// tableRef returns the fully qualified, backquoted table name.
func tableRef(client *bigquery.Client, dataset, table string) string {
	return "`" + client.Project() + "." + dataset + "." + table + "`"
}

// InsertTransactionsWithClient inserts a batch of transactions into the dataset's transactions table.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset string, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([]*TransactionRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, NewTransactionRow(t))
	}

	inserter := client.Dataset(dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// QueryTransactionsWithClient returns the user's transactions with occurred_at
// inside period, both bounds inclusive.
func QueryTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset, userID string, period domain.Period) ([]domain.Transaction, error) {
	q := client.Query(`
		SELECT
			t.transaction_id,
			t.user_id,
			t.amount,
			t.kind,
			t.category,
			t.occurred_at,
			t.created_ts
		FROM ` + tableRef(client, dataset, transactionsTable) + ` t
		WHERE t.user_id = @user_id
		  AND t.occurred_at >= @from
		  AND t.occurred_at <= @to
		ORDER BY t.occurred_at, t.transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "from", Value: period.From.UTC()},
		{Name: "to", Value: period.To.UTC()},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: query read: %w", err)
	}

	var out []domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: iter next: %w", err)
		}
		t, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: %w", err)
		}
		out = append(out, t)
	}

	return out, nil
}
