// Package firestore stores a user's financial records in Cloud Firestore and
// exposes the Firebase Auth client of the same project.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/dvloznov/finance-insights/internal/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Collection names.
const (
	TransactionsCollection  = "insights-transactions"
	SubscriptionsCollection = "insights-subscriptions"
	FixedCostsCollection    = "insights-fixed-costs"
)

// Client wraps the Firestore and Auth clients of one Firebase project.
type Client struct {
	Firestore *firestore.Client
	Auth      *auth.Client
	projectID string
}

// NewClient initializes a Firebase app for projectID using Application
// Default Credentials, or credsPath when set.
func NewClient(ctx context.Context, projectID, credsPath string) (*Client, error) {
	conf := &firebase.Config{ProjectID: projectID}

	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		firestoreClient.Close()
		return nil, fmt.Errorf("failed to create Auth client: %w", err)
	}

	return &Client{
		Firestore: firestoreClient,
		Auth:      authClient,
		projectID: projectID,
	}, nil
}

// Close closes the Firestore client.
func (c *Client) Close() error {
	return c.Firestore.Close()
}

// FindTransactions returns the user's transactions inside period.
func (c *Client) FindTransactions(ctx context.Context, userID string, period domain.Period) ([]domain.Transaction, error) {
	iter := c.Firestore.Collection(TransactionsCollection).
		Where("userId", "==", userID).
		Where("occurredAt", ">=", period.From.UTC()).
		Where("occurredAt", "<=", period.To.UTC()).
		OrderBy("occurredAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var out []domain.Transaction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FindTransactions: iter next: %w", err)
		}

		var t Transaction
		if err := doc.DataTo(&t); err != nil {
			return nil, fmt.Errorf("FindTransactions: failed to parse transaction %s: %w", doc.Ref.ID, err)
		}
		tx, err := t.toDomain()
		if err != nil {
			return nil, fmt.Errorf("FindTransactions: %w", err)
		}
		out = append(out, tx)
	}

	return out, nil
}

// FindActiveSubscriptions returns the user's active subscriptions.
func (c *Client) FindActiveSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	iter := c.Firestore.Collection(SubscriptionsCollection).
		Where("userId", "==", userID).
		Where("active", "==", true).
		Documents(ctx)
	defer iter.Stop()

	var out []domain.Subscription
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FindActiveSubscriptions: iter next: %w", err)
		}

		var s Subscription
		if err := doc.DataTo(&s); err != nil {
			return nil, fmt.Errorf("FindActiveSubscriptions: failed to parse subscription %s: %w", doc.Ref.ID, err)
		}
		sub, err := s.toDomain()
		if err != nil {
			return nil, fmt.Errorf("FindActiveSubscriptions: %w", err)
		}
		out = append(out, sub)
	}

	return out, nil
}

// FindActiveFixedCosts returns the user's active fixed costs.
func (c *Client) FindActiveFixedCosts(ctx context.Context, userID string) ([]domain.FixedCost, error) {
	iter := c.Firestore.Collection(FixedCostsCollection).
		Where("userId", "==", userID).
		Where("active", "==", true).
		Documents(ctx)
	defer iter.Stop()

	var out []domain.FixedCost
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FindActiveFixedCosts: iter next: %w", err)
		}

		var f FixedCost
		if err := doc.DataTo(&f); err != nil {
			return nil, fmt.Errorf("FindActiveFixedCosts: failed to parse fixed cost %s: %w", doc.Ref.ID, err)
		}
		fc, err := f.toDomain()
		if err != nil {
			return nil, fmt.Errorf("FindActiveFixedCosts: %w", err)
		}
		out = append(out, fc)
	}

	return out, nil
}

// CreateTransaction stores t under its id.
func (c *Client) CreateTransaction(ctx context.Context, t domain.Transaction) error {
	_, err := c.Firestore.Collection(TransactionsCollection).Doc(t.ID).Set(ctx, newTransaction(t))
	return err
}

// CreateSubscription stores s under its id.
func (c *Client) CreateSubscription(ctx context.Context, s domain.Subscription) error {
	_, err := c.Firestore.Collection(SubscriptionsCollection).Doc(s.ID).Set(ctx, newSubscription(s))
	return err
}

// CreateFixedCost stores f under its id.
func (c *Client) CreateFixedCost(ctx context.Context, f domain.FixedCost) error {
	_, err := c.Firestore.Collection(FixedCostsCollection).Doc(f.ID).Set(ctx, newFixedCost(f))
	return err
}
