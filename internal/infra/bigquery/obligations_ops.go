package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
	"google.golang.org/api/iterator"
)

// QueryActiveSubscriptionsWithClient returns the user's active subscriptions.
func QueryActiveSubscriptionsWithClient(ctx context.Context, client *bigquery.Client, dataset, userID string) ([]domain.Subscription, error) {
	q := client.Query(`
		SELECT
			subscription_id,
			user_id,
			name,
			amount,
			recurring,
			next_due_at,
			active
		FROM ` + tableRef(client, dataset, subscriptionsTable) + `
		WHERE user_id = @user_id
		  AND active = TRUE
		ORDER BY name, subscription_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryActiveSubscriptions: query read: %w", err)
	}

	var out []domain.Subscription
	for {
		var r SubscriptionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryActiveSubscriptions: iter next: %w", err)
		}
		s, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("QueryActiveSubscriptions: %w", err)
		}
		out = append(out, s)
	}

	return out, nil
}

// QueryActiveFixedCostsWithClient returns the user's active fixed costs.
func QueryActiveFixedCostsWithClient(ctx context.Context, client *bigquery.Client, dataset, userID string) ([]domain.FixedCost, error) {
	q := client.Query(`
		SELECT
			fixed_cost_id,
			user_id,
			name,
			amount,
			frequency,
			active
		FROM ` + tableRef(client, dataset, fixedCostsTable) + `
		WHERE user_id = @user_id
		  AND active = TRUE
		ORDER BY fixed_cost_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryActiveFixedCosts: query read: %w", err)
	}

	var out []domain.FixedCost
	for {
		var r FixedCostRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryActiveFixedCosts: iter next: %w", err)
		}
		f, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("QueryActiveFixedCosts: %w", err)
		}
		out = append(out, f)
	}

	return out, nil
}

// InsertSubscriptionsWithClient inserts a batch of subscriptions.
func InsertSubscriptionsWithClient(ctx context.Context, client *bigquery.Client, dataset string, subs []domain.Subscription) error {
	if len(subs) == 0 {
		return nil
	}

	rows := make([]*SubscriptionRow, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, NewSubscriptionRow(s))
	}

	if err := client.Dataset(dataset).Table(subscriptionsTable).Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertSubscriptions: inserting rows: %w", err)
	}
	return nil
}

// InsertFixedCostsWithClient inserts a batch of fixed costs.
func InsertFixedCostsWithClient(ctx context.Context, client *bigquery.Client, dataset string, costs []domain.FixedCost) error {
	if len(costs) == 0 {
		return nil
	}

	rows := make([]*FixedCostRow, 0, len(costs))
	for _, f := range costs {
		rows = append(rows, NewFixedCostRow(f))
	}

	if err := client.Dataset(dataset).Table(fixedCostsTable).Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertFixedCosts: inserting rows: %w", err)
	}
	return nil
}
