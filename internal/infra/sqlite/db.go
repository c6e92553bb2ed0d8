// Package sqlite is a local single-file store for transactions and
// obligations, used for development and the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store implements aggregator.Repository on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	if path == MemoryPath {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// FindTransactions returns the user's transactions inside period.
func (s *Store) FindTransactions(ctx context.Context, userID string, period domain.Period) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, kind, category, occurred_at
		FROM transactions
		WHERE user_id = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at, id`,
		userID, formatTime(period.From), formatTime(period.To),
	)
	if err != nil {
		return nil, fmt.Errorf("FindTransactions: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			t                  domain.Transaction
			amount, occurredAt string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &amount, &t.Kind, &t.Category, &occurredAt); err != nil {
			return nil, fmt.Errorf("FindTransactions: scan: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("FindTransactions: transaction %s amount: %w", t.ID, err)
		}
		if t.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, fmt.Errorf("FindTransactions: transaction %s timestamp: %w", t.ID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindTransactions: rows: %w", err)
	}
	return out, nil
}

// FindActiveSubscriptions returns the user's active subscriptions.
func (s *Store) FindActiveSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, amount, recurring, next_due_at, active
		FROM subscriptions
		WHERE user_id = ? AND active = 1
		ORDER BY name, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("FindActiveSubscriptions: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscription
	for rows.Next() {
		var (
			sub     domain.Subscription
			amount  string
			nextDue sql.NullString
		)
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Name, &amount, &sub.Recurring, &nextDue, &sub.Active); err != nil {
			return nil, fmt.Errorf("FindActiveSubscriptions: scan: %w", err)
		}
		if sub.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("FindActiveSubscriptions: subscription %s amount: %w", sub.ID, err)
		}
		if nextDue.Valid {
			if sub.NextDueAt, err = parseTime(nextDue.String); err != nil {
				return nil, fmt.Errorf("FindActiveSubscriptions: subscription %s due date: %w", sub.ID, err)
			}
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindActiveSubscriptions: rows: %w", err)
	}
	return out, nil
}

// FindActiveFixedCosts returns the user's active fixed costs.
func (s *Store) FindActiveFixedCosts(ctx context.Context, userID string) ([]domain.FixedCost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, amount, frequency, active
		FROM fixed_costs
		WHERE user_id = ? AND active = 1
		ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("FindActiveFixedCosts: query: %w", err)
	}
	defer rows.Close()

	var out []domain.FixedCost
	for rows.Next() {
		var (
			fc     domain.FixedCost
			amount string
		)
		if err := rows.Scan(&fc.ID, &fc.UserID, &fc.Name, &amount, &fc.Frequency, &fc.Active); err != nil {
			return nil, fmt.Errorf("FindActiveFixedCosts: scan: %w", err)
		}
		if fc.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("FindActiveFixedCosts: fixed cost %s amount: %w", fc.ID, err)
		}
		out = append(out, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindActiveFixedCosts: rows: %w", err)
	}
	return out, nil
}
