// Package infra opens the configured persistence backend behind one handle.
package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dvloznov/finance-insights/internal/aggregator"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/domain"
	infraBQ "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	infraFS "github.com/dvloznov/finance-insights/internal/infra/firestore"
	"github.com/dvloznov/finance-insights/internal/infra/sqlite"
)

// Dataset is a batch of records to load, as read from a seed file.
type Dataset struct {
	Transactions  []domain.Transaction  `json:"transactions"`
	Subscriptions []domain.Subscription `json:"subscriptions"`
	FixedCosts    []domain.FixedCost    `json:"fixed_costs"`
}

// ReadDataset decodes a JSON dataset and checks every record.
func ReadDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ds); err != nil {
		return nil, domain.ValidationError("invalid dataset: %v", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate rejects records the stores would refuse or misread.
func (ds *Dataset) Validate() error {
	for _, t := range ds.Transactions {
		if t.ID == "" || t.UserID == "" {
			return domain.ValidationError("transaction %q: id and user_id are required", t.ID)
		}
		if t.Amount.IsNegative() {
			return domain.ValidationError("transaction %s: amount must not be negative", t.ID)
		}
		if !domain.ValidKind(t.Kind) {
			return domain.ValidationError("transaction %s: unknown kind %q", t.ID, t.Kind)
		}
		if !domain.ValidCategory(t.Category) {
			return domain.ValidationError("transaction %s: unknown category %q", t.ID, t.Category)
		}
		if t.OccurredAt.IsZero() {
			return domain.ValidationError("transaction %s: occurred_at is required", t.ID)
		}
	}
	for _, s := range ds.Subscriptions {
		if s.ID == "" || s.UserID == "" {
			return domain.ValidationError("subscription %q: id and user_id are required", s.ID)
		}
		if s.Amount.IsNegative() {
			return domain.ValidationError("subscription %s: amount must not be negative", s.ID)
		}
	}
	for _, f := range ds.FixedCosts {
		if f.ID == "" || f.UserID == "" {
			return domain.ValidationError("fixed cost %q: id and user_id are required", f.ID)
		}
		if f.Amount.IsNegative() {
			return domain.ValidationError("fixed cost %s: amount must not be negative", f.ID)
		}
		if !domain.ValidFrequency(f.Frequency) {
			return domain.ValidationError("fixed cost %s: unknown frequency %q", f.ID, f.Frequency)
		}
	}
	return nil
}

// Backend is an opened store.
type Backend struct {
	Name       string
	Repository aggregator.Repository

	seed  func(ctx context.Context, ds *Dataset) error
	close func() error
}

// Seed writes ds to the backend.
func (b *Backend) Seed(ctx context.Context, ds *Dataset) error {
	if err := b.seed(ctx, ds); err != nil {
		return domain.PersistenceError("Seed "+b.Name, err)
	}
	return nil
}

// Close releases the backend's clients.
func (b *Backend) Close() error {
	return b.close()
}

// Open opens the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteBackend(store), nil

	case config.StoreBigQuery:
		repo, err := infraBQ.NewRepository(ctx, cfg.GCPProject, cfg.BQDataset)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Name:       config.StoreBigQuery,
			Repository: repo,
			seed: func(ctx context.Context, ds *Dataset) error {
				if err := repo.InsertTransactions(ctx, ds.Transactions); err != nil {
					return err
				}
				if err := repo.InsertSubscriptions(ctx, ds.Subscriptions); err != nil {
					return err
				}
				return repo.InsertFixedCosts(ctx, ds.FixedCosts)
			},
			close: repo.Close,
		}, nil

	case config.StoreFirestore:
		client, err := infraFS.NewClient(ctx, cfg.FirestoreProject, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Name:       config.StoreFirestore,
			Repository: client,
			seed: func(ctx context.Context, ds *Dataset) error {
				for _, t := range ds.Transactions {
					if err := client.CreateTransaction(ctx, t); err != nil {
						return fmt.Errorf("transaction %s: %w", t.ID, err)
					}
				}
				for _, s := range ds.Subscriptions {
					if err := client.CreateSubscription(ctx, s); err != nil {
						return fmt.Errorf("subscription %s: %w", s.ID, err)
					}
				}
				for _, f := range ds.FixedCosts {
					if err := client.CreateFixedCost(ctx, f); err != nil {
						return fmt.Errorf("fixed cost %s: %w", f.ID, err)
					}
				}
				return nil
			},
			close: client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// NewSQLiteBackend wraps an open SQLite store.
func NewSQLiteBackend(store *sqlite.Store) *Backend {
	return &Backend{
		Name:       config.StoreSQLite,
		Repository: store,
		seed: func(ctx context.Context, ds *Dataset) error {
			if err := store.InsertTransactions(ctx, ds.Transactions...); err != nil {
				return err
			}
			if err := store.InsertSubscriptions(ctx, ds.Subscriptions...); err != nil {
				return err
			}
			return store.InsertFixedCosts(ctx, ds.FixedCosts...)
		},
		close: store.Close,
	}
}
