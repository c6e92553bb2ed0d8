package sqlite

import "database/sql"

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('EXPENSE', 'DEPOSIT', 'INVESTMENT')),
		category TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		recurring INTEGER NOT NULL DEFAULT 1,
		next_due_at TEXT,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS fixed_costs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		frequency TEXT NOT NULL CHECK (frequency IN ('DAILY', 'WEEKLY', 'MONTHLY')),
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_occurred ON transactions(user_id, occurred_at);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id, active);
	CREATE INDEX IF NOT EXISTS idx_fixed_costs_user ON fixed_costs(user_id, active);
	`

	_, err := db.Exec(schema)
	return err
}
