package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// InsertTransactions stores txs in a single transaction.
func (s *Store) InsertTransactions(ctx context.Context, txs ...domain.Transaction) error {
	return s.inTx(ctx, "InsertTransactions", func(tx *sql.Tx) error {
		for _, t := range txs {
			if !domain.ValidKind(t.Kind) {
				return domain.ValidationError("transaction %s: unknown kind %q", t.ID, t.Kind)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transactions (id, user_id, amount, kind, category, occurred_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				t.ID, t.UserID, t.Amount.String(), string(t.Kind), string(t.Category), formatTime(t.OccurredAt),
			)
			if err != nil {
				return fmt.Errorf("transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// InsertSubscriptions stores subs in a single transaction.
func (s *Store) InsertSubscriptions(ctx context.Context, subs ...domain.Subscription) error {
	return s.inTx(ctx, "InsertSubscriptions", func(tx *sql.Tx) error {
		for _, sub := range subs {
			var nextDue sql.NullString
			if !sub.NextDueAt.IsZero() {
				nextDue = sql.NullString{String: formatTime(sub.NextDueAt), Valid: true}
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO subscriptions (id, user_id, name, amount, recurring, next_due_at, active)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				sub.ID, sub.UserID, sub.Name, sub.Amount.String(), sub.Recurring, nextDue, sub.Active,
			)
			if err != nil {
				return fmt.Errorf("subscription %s: %w", sub.ID, err)
			}
		}
		return nil
	})
}

// InsertFixedCosts stores costs in a single transaction.
func (s *Store) InsertFixedCosts(ctx context.Context, costs ...domain.FixedCost) error {
	return s.inTx(ctx, "InsertFixedCosts", func(tx *sql.Tx) error {
		for _, fc := range costs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO fixed_costs (id, user_id, name, amount, frequency, active)
				VALUES (?, ?, ?, ?, ?, ?)`,
				fc.ID, fc.UserID, fc.Name, fc.Amount.String(), string(fc.Frequency), fc.Active,
			)
			if err != nil {
				return fmt.Errorf("fixed cost %s: %w", fc.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}
