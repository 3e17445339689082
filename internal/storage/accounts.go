package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/model"
)

// GetOrCreateAccount finds an account by name, creating it when absent.
func (s *SQLiteStorage) GetOrCreateAccount(ctx context.Context, name string, accountType model.AccountType) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getOrCreateAccountTx(ctx, s.db, name, accountType)
}

func (s *SQLiteStorage) getOrCreateAccountTx(ctx context.Context, q queryable, name string, accountType model.AccountType) (*model.Account, error) {
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if accountType == "" {
		accountType = model.AccountTypeOther
	}

	account, err := scanAccount(q.QueryRowContext(ctx,
		"SELECT id, name, type, created_at FROM accounts WHERE name = ?", name))
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	res, err := q.ExecContext(ctx,
		"INSERT INTO accounts (name, type) VALUES (?, ?)", name, string(accountType))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get account ID: %w", err)
	}

	account, err = scanAccount(q.QueryRowContext(ctx,
		"SELECT id, name, type, created_at FROM accounts WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("failed to read back account: %w", err)
	}
	return account, nil
}

// GetAccounts returns all accounts sorted by name.
func (s *SQLiteStorage) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getAccountsTx(ctx, s.db)
}

func (s *SQLiteStorage) getAccountsTx(ctx context.Context, q queryable) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, name, type, created_at FROM accounts ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		var accountType string
		if err := rows.Scan(&a.ID, &a.Name, &accountType, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Type = model.AccountType(accountType)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(row *sql.Row) (*model.Account, error) {
	var a model.Account
	var accountType string
	if err := row.Scan(&a.ID, &a.Name, &accountType, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Type = model.AccountType(accountType)
	return &a, nil
}
