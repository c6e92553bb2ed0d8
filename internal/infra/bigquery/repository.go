// Package bigquery reads a user's financial records from BigQuery. Every
// query is parameterized on user_id.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
)

// Repository implements aggregator.Repository on top of a shared BigQuery client.
type Repository struct {
	client  *bigquery.Client
	dataset string
}

// NewRepository creates a repository over dataset in projectID.
func NewRepository(ctx context.Context, projectID, dataset string) (*Repository, error) {
	if projectID == "" || dataset == "" {
		return nil, fmt.Errorf("NewRepository: project and dataset are required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client, dataset: dataset}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// FindTransactions delegates to QueryTransactionsWithClient.
func (r *Repository) FindTransactions(ctx context.Context, userID string, period domain.Period) ([]domain.Transaction, error) {
	return QueryTransactionsWithClient(ctx, r.client, r.dataset, userID, period)
}

// FindActiveSubscriptions delegates to QueryActiveSubscriptionsWithClient.
func (r *Repository) FindActiveSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	return QueryActiveSubscriptionsWithClient(ctx, r.client, r.dataset, userID)
}

// FindActiveFixedCosts delegates to QueryActiveFixedCostsWithClient.
func (r *Repository) FindActiveFixedCosts(ctx context.Context, userID string) ([]domain.FixedCost, error) {
	return QueryActiveFixedCostsWithClient(ctx, r.client, r.dataset, userID)
}

// InsertTransactions delegates to InsertTransactionsWithClient.
func (r *Repository) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	return InsertTransactionsWithClient(ctx, r.client, r.dataset, txs)
}

// InsertSubscriptions delegates to InsertSubscriptionsWithClient.
func (r *Repository) InsertSubscriptions(ctx context.Context, subs []domain.Subscription) error {
	return InsertSubscriptionsWithClient(ctx, r.client, r.dataset, subs)
}

// InsertFixedCosts delegates to InsertFixedCostsWithClient.
func (r *Repository) InsertFixedCosts(ctx context.Context, costs []domain.FixedCost) error {
	return InsertFixedCostsWithClient(ctx, r.client, r.dataset, costs)
}

// Migrate applies the embedded schema migrations to the repository's dataset.
func (r *Repository) Migrate(ctx context.Context, appliedBy string) (int, error) {
	return MigrateWithClient(ctx, r.client, r.dataset, appliedBy)
}
