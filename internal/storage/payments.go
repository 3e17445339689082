package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/common"
	"tally/internal/model"
)

const paymentColumns = `id, liability_id, transaction_id, rule_id, amount,
	balance_before, balance_after, status, applied_at, created_at`

// CreateLiabilityPayment inserts a payment record. A transaction may fund at
// most one payment per liability; violating that returns ErrDuplicateEntry.
func (s *SQLiteStorage) CreateLiabilityPayment(ctx context.Context, payment *model.LiabilityPayment) (*model.LiabilityPayment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.createLiabilityPaymentTx(ctx, s.db, payment)
}

func (s *SQLiteStorage) createLiabilityPaymentTx(ctx context.Context, q queryable, payment *model.LiabilityPayment) (*model.LiabilityPayment, error) {
	if err := validatePayment(payment); err != nil {
		return nil, err
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO liability_payments (
			liability_id, transaction_id, rule_id, amount,
			balance_before, balance_after, status, applied_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		payment.LiabilityID,
		payment.TransactionID,
		nullInt64(payment.RuleID),
		payment.Amount,
		payment.BalanceBefore,
		payment.BalanceAfter,
		string(payment.Status),
		nullTime(payment.AppliedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("payment for liability %d and transaction %s already exists: %w",
				payment.LiabilityID, payment.TransactionID, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get payment ID: %w", err)
	}

	slog.Debug("created liability payment",
		"id", id,
		"liability_id", payment.LiabilityID,
		"transaction_id", payment.TransactionID,
		"status", payment.Status)
	return s.getLiabilityPaymentTx(ctx, q, id)
}

// GetLiabilityPayment retrieves one payment.
func (s *SQLiteStorage) GetLiabilityPayment(ctx context.Context, id int64) (*model.LiabilityPayment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getLiabilityPaymentTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getLiabilityPaymentTx(ctx context.Context, q queryable, id int64) (*model.LiabilityPayment, error) {
	row := q.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM liability_payments WHERE id = ?", id)
	p, err := scanPaymentFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return p, nil
}

// GetLiabilityPaymentByTransaction looks up the payment linking a liability
// and a transaction, if one exists.
func (s *SQLiteStorage) GetLiabilityPaymentByTransaction(ctx context.Context, liabilityID int64, transactionID string) (*model.LiabilityPayment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getLiabilityPaymentByTransactionTx(ctx, s.db, liabilityID, transactionID)
}

func (s *SQLiteStorage) getLiabilityPaymentByTransactionTx(ctx context.Context, q queryable, liabilityID int64, transactionID string) (*model.LiabilityPayment, error) {
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM liability_payments WHERE liability_id = ? AND transaction_id = ?",
		liabilityID, transactionID)
	p, err := scanPaymentFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment for liability %d and transaction %s: %w",
			liabilityID, transactionID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return p, nil
}

// GetLiabilityPayments lists payments, newest first. liabilityID 0 lists
// payments across all liabilities.
func (s *SQLiteStorage) GetLiabilityPayments(ctx context.Context, liabilityID int64) ([]model.LiabilityPayment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getLiabilityPaymentsTx(ctx, s.db, liabilityID)
}

func (s *SQLiteStorage) getLiabilityPaymentsTx(ctx context.Context, q queryable, liabilityID int64) ([]model.LiabilityPayment, error) {
	query := "SELECT " + paymentColumns + " FROM liability_payments"
	args := []any{}
	if liabilityID != 0 {
		query += " WHERE liability_id = ?"
		args = append(args, liabilityID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payments []model.LiabilityPayment
	for rows.Next() {
		p, err := scanPaymentFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}
	return payments, nil
}

// UpdateLiabilityPaymentStatus moves a payment to a new lifecycle state.
// balanceAfter and appliedAt are only written when non-nil. Legality of the
// transition is the caller's responsibility; pairing with a balance update
// must happen through one transaction.
func (s *SQLiteStorage) UpdateLiabilityPaymentStatus(ctx context.Context, id int64, status model.PaymentStatus, balanceAfter *float64, appliedAt *time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateLiabilityPaymentStatusTx(ctx, s.db, id, status, balanceAfter, appliedAt)
}

func (s *SQLiteStorage) updateLiabilityPaymentStatusTx(ctx context.Context, q queryable, id int64, status model.PaymentStatus, balanceAfter *float64, appliedAt *time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPayment, status)
	}

	res, err := q.ExecContext(ctx, `
		UPDATE liability_payments
		SET status = ?,
		    balance_after = COALESCE(?, balance_after),
		    applied_at = COALESCE(?, applied_at)
		WHERE id = ?
	`, string(status), nullFloat(balanceAfter), nullTime(appliedAt), id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return requireRowAffected(res, id)
}

func scanPaymentFrom(scan func(...any) error) (*model.LiabilityPayment, error) {
	var (
		p         model.LiabilityPayment
		ruleID    sql.NullInt64
		status    string
		appliedAt sql.NullTime
	)

	if err := scan(
		&p.ID,
		&p.LiabilityID,
		&p.TransactionID,
		&ruleID,
		&p.Amount,
		&p.BalanceBefore,
		&p.BalanceAfter,
		&status,
		&appliedAt,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}

	if ruleID.Valid {
		p.RuleID = &ruleID.Int64
	}
	p.Status = model.PaymentStatus(status)
	if appliedAt.Valid {
		p.AppliedAt = &appliedAt.Time
	}
	return &p, nil
}
