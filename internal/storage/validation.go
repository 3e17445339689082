// Package storage provides the SQLite persistence layer for the application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tally/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidLiability   = errors.New("invalid liability")
	ErrInvalidRule        = errors.New("invalid liability payment rule")
	ErrInvalidPayment     = errors.New("invalid liability payment")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i, txn := range transactions {
		if err := validateTransaction(&txn); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	return nil
}

// validateLiability validates a liability.
func validateLiability(liability *model.Liability) error {
	if liability == nil {
		return fmt.Errorf("%w: liability", ErrNilParameter)
	}
	if strings.TrimSpace(liability.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidLiability)
	}
	if liability.CurrentBalance < 0 {
		return fmt.Errorf("%w: balance cannot be negative", ErrInvalidLiability)
	}
	return nil
}

// validateRule validates a liability payment rule.
func validateRule(rule *model.LiabilityPaymentRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if rule.LiabilityID == 0 {
		return fmt.Errorf("%w: missing liability ID", ErrInvalidRule)
	}
	if !rule.IsUsable() {
		return fmt.Errorf("%w: at least one of merchant or description matcher must be set", ErrInvalidRule)
	}
	return nil
}

// validatePayment validates a liability payment.
func validatePayment(payment *model.LiabilityPayment) error {
	if payment == nil {
		return fmt.Errorf("%w: payment", ErrNilParameter)
	}
	if payment.LiabilityID == 0 {
		return fmt.Errorf("%w: missing liability ID", ErrInvalidPayment)
	}
	if payment.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction ID", ErrInvalidPayment)
	}
	if payment.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	if !payment.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPayment, payment.Status)
	}
	return nil
}
