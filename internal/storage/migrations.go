package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 6

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Accounts and categories",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					type TEXT NOT NULL DEFAULT 'other',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					color TEXT NOT NULL DEFAULT '',
					icon TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`INSERT INTO categories (name, color, icon) VALUES
					('Income', '#2e7d32', 'trending-up'),
					('Groceries', '#43a047', 'shopping-cart'),
					('Dining', '#ef6c00', 'utensils'),
					('Transport', '#1565c0', 'car'),
					('Shopping', '#8e24aa', 'shopping-bag'),
					('Entertainment', '#d81b60', 'film'),
					('Subscriptions', '#5e35b1', 'repeat'),
					('Utilities', '#00838f', 'zap'),
					('Housing', '#6d4c41', 'home'),
					('Health', '#c62828', 'heart'),
					('Insurance', '#37474f', 'shield'),
					('Travel', '#00acc1', 'plane'),
					('Education', '#3949ab', 'book'),
					('Fees', '#757575', 'file-text'),
					('Financial', '#455a64', 'dollar-sign'),
					('Other', '#9e9e9e', 'more-horizontal')`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Transactions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					account_id INTEGER REFERENCES accounts(id) ON DELETE SET NULL,
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					merchant TEXT,
					amount REAL NOT NULL,
					category TEXT,
					is_transfer INTEGER NOT NULL DEFAULT 0,
					billing_cycle TEXT,
					note TEXT NOT NULL DEFAULT '',
					raw_payload TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_date_amount ON transactions(date, amount)`,
				`CREATE INDEX idx_transactions_category ON transactions(category)`,
				`CREATE INDEX idx_transactions_account ON transactions(account_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "User preferences",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS user_preferences (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					instruction TEXT NOT NULL,
					source TEXT NOT NULL DEFAULT 'user' CHECK (source IN ('user', 'learned')),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
	{
		Version:     4,
		Description: "Liabilities",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS liabilities (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					type TEXT NOT NULL DEFAULT 'other',
					original_amount REAL NOT NULL DEFAULT 0,
					current_balance REAL NOT NULL DEFAULT 0,
					interest_rate REAL NOT NULL DEFAULT 0,
					monthly_payment REAL NOT NULL DEFAULT 0,
					exclude_from_net_worth INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
	{
		Version:     5,
		Description: "Liability payment rules and payments",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS liability_payment_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					liability_id INTEGER NOT NULL REFERENCES liabilities(id) ON DELETE CASCADE,
					merchant_match TEXT NOT NULL DEFAULT '',
					description_match TEXT NOT NULL DEFAULT '',
					account_id INTEGER REFERENCES accounts(id) ON DELETE SET NULL,
					description TEXT NOT NULL DEFAULT '',
					auto_apply INTEGER NOT NULL DEFAULT 0,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_payment_rules_liability ON liability_payment_rules(liability_id)`,

				`CREATE TABLE IF NOT EXISTS liability_payments (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					liability_id INTEGER NOT NULL REFERENCES liabilities(id) ON DELETE CASCADE,
					transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
					rule_id INTEGER REFERENCES liability_payment_rules(id) ON DELETE SET NULL,
					amount REAL NOT NULL,
					balance_before REAL NOT NULL,
					balance_after REAL NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending'
						CHECK (status IN ('pending', 'applied', 'reversed', 'skipped')),
					applied_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (liability_id, transaction_id)
				)`,
				`CREATE INDEX idx_liability_payments_liability ON liability_payments(liability_id)`,
				`CREATE INDEX idx_liability_payments_transaction ON liability_payments(transaction_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     6,
		Description: "Statement import records",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS statement_imports (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					file_name TEXT NOT NULL,
					format TEXT NOT NULL,
					account_id INTEGER REFERENCES accounts(id) ON DELETE SET NULL,
					imported INTEGER NOT NULL DEFAULT 0,
					duplicates INTEGER NOT NULL DEFAULT 0,
					date_from DATETIME,
					date_to DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the database's current schema version without
// applying anything.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
