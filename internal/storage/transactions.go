package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tally/internal/common"
	"tally/internal/model"
	"tally/internal/service"
)

const transactionColumns = `id, account_id, date, description, merchant, amount,
	category, is_transfer, billing_cycle, note, raw_payload, created_at, updated_at`

// CreateTransactions persists a batch of transactions in one transaction.
func (s *SQLiteStorage) CreateTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.createTransactionsTx(ctx, tx, transactions); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStorage) createTransactionsTx(ctx context.Context, q queryable, transactions []model.Transaction) error {
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO transactions (
			id, account_id, date, description, merchant, amount,
			category, is_transfer, billing_cycle, note, raw_payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		_, err = stmt.ExecContext(ctx,
			txn.ID,
			nullInt64(txn.AccountID),
			txn.Date,
			txn.Description,
			nullString(txn.Merchant),
			txn.Amount,
			nullString(txn.Category),
			txn.IsTransfer,
			nullCycle(txn.BillingCycle),
			txn.Note,
			txn.RawPayload,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	slog.Debug("persisted transactions", "count", len(transactions))
	return nil
}

// GetTransactions retrieves transactions matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getTransactionsTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) getTransactionsTx(ctx context.Context, q queryable, filter service.TransactionFilter) ([]model.Transaction, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: %v after %v", ErrInvalidDateRange, filter.StartDate, filter.EndDate)
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + transactionColumns + " FROM transactions WHERE 1=1")
	args := []any{}

	if filter.StartDate != nil {
		sb.WriteString(" AND date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		sb.WriteString(" AND date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.AccountID != nil {
		sb.WriteString(" AND account_id = ?")
		args = append(args, *filter.AccountID)
	}
	if filter.Category != nil {
		sb.WriteString(" AND category = ?")
		args = append(args, *filter.Category)
	}
	if filter.OnlyUncategorized {
		sb.WriteString(" AND (category IS NULL OR category = '')")
	}
	if filter.ExpensesOnly {
		sb.WriteString(" AND amount < 0")
	}

	sb.WriteString(" ORDER BY date DESC, id DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, filter.Offset)
		}
	}

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getTransactionByIDTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getTransactionByIDTx(ctx context.Context, q queryable, id string) (*model.Transaction, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	txn, err := scanTransactionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return txn, nil
}

// UpdateTransactionClassification records a classification outcome on a
// stored transaction.
func (s *SQLiteStorage) UpdateTransactionClassification(ctx context.Context, id string, result model.ClassificationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateTransactionClassificationTx(ctx, s.db, id, result)
}

func (s *SQLiteStorage) updateTransactionClassificationTx(ctx context.Context, q queryable, id string, result model.ClassificationResult) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, merchant = ?, is_transfer = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, nullString(result.Category), nullString(result.Merchant), result.IsTransfer, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction classification: %w", err)
	}
	return requireRowAffected(res, id)
}

// SetTransactionCategory updates only the category of a transaction.
func (s *SQLiteStorage) SetTransactionCategory(ctx context.Context, id, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setTransactionCategoryTx(ctx, s.db, id, category)
}

func (s *SQLiteStorage) setTransactionCategoryTx(ctx context.Context, q queryable, id, category string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE transactions SET category = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, nullString(category), id)
	if err != nil {
		return fmt.Errorf("failed to set transaction category: %w", err)
	}
	return requireRowAffected(res, id)
}

// SetTransactionNote updates the free-text note of a transaction.
func (s *SQLiteStorage) SetTransactionNote(ctx context.Context, id, note string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setTransactionNoteTx(ctx, s.db, id, note)
}

func (s *SQLiteStorage) setTransactionNoteTx(ctx context.Context, q queryable, id, note string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE transactions SET note = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, note, id)
	if err != nil {
		return fmt.Errorf("failed to set transaction note: %w", err)
	}
	return requireRowAffected(res, id)
}

// SetTransactionBillingCycle pins or clears a subscription billing-cycle
// override on a transaction.
func (s *SQLiteStorage) SetTransactionBillingCycle(ctx context.Context, id string, cycle *model.BillingCycle) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setTransactionBillingCycleTx(ctx, s.db, id, cycle)
}

func (s *SQLiteStorage) setTransactionBillingCycleTx(ctx context.Context, q queryable, id string, cycle *model.BillingCycle) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE transactions SET billing_cycle = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, nullCycle(cycle), id)
	if err != nil {
		return fmt.Errorf("failed to set billing cycle: %w", err)
	}
	return requireRowAffected(res, id)
}

// DeleteTransaction removes a transaction. Dependent liability payments are
// removed by the schema's cascade.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.deleteTransactionTx(ctx, s.db, id)
}

func (s *SQLiteStorage) deleteTransactionTx(ctx context.Context, q queryable, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRowAffected(res, id)
}

// CountTransactionsByDateAmount counts stored rows with the exact calendar
// date and signed amount. Description differences are deliberately ignored:
// the same underlying transaction arrives with different formatting
// depending on import source.
func (s *SQLiteStorage) CountTransactionsByDateAmount(ctx context.Context, date time.Time, amount float64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.countTransactionsByDateAmountTx(ctx, s.db, date, amount)
}

func (s *SQLiteStorage) countTransactionsByDateAmountTx(ctx context.Context, q queryable, date time.Time, amount float64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE date(date) = date(?) AND ROUND(amount, 2) = ROUND(?, 2)
	`, date, amount).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransactionFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

func scanTransactionRow(row *sql.Row) (*model.Transaction, error) {
	return scanTransactionFrom(row.Scan)
}

func scanTransactionFrom(scan func(...any) error) (*model.Transaction, error) {
	var (
		txn       model.Transaction
		accountID sql.NullInt64
		merchant  sql.NullString
		category  sql.NullString
		cycle     sql.NullString
	)

	if err := scan(
		&txn.ID,
		&accountID,
		&txn.Date,
		&txn.Description,
		&merchant,
		&txn.Amount,
		&category,
		&txn.IsTransfer,
		&cycle,
		&txn.Note,
		&txn.RawPayload,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if accountID.Valid {
		txn.AccountID = &accountID.Int64
	}
	txn.Merchant = merchant.String
	txn.Category = category.String
	if cycle.Valid && cycle.String != "" {
		c := model.BillingCycle(cycle.String)
		txn.BillingCycle = &c
	}
	return &txn, nil
}

func requireRowAffected(res sql.Result, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("row %v: %w", id, common.ErrNotFound)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullCycle(c *model.BillingCycle) any {
	if c == nil {
		return nil
	}
	return string(*c)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
