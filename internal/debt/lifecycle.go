package debt

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"tally/internal/common"
	"tally/internal/model"
	"tally/internal/service"
)

// Manager owns payment creation and the lifecycle verbs. Every operation
// that touches both a payment row and a liability balance runs inside one
// storage transaction, so a payment is never observably half-applied.
type Manager struct {
	store   service.Storage
	matcher *Matcher
}

// NewManager creates a payment manager backed by the given store.
func NewManager(store service.Storage) *Manager {
	return &Manager{store: store, matcher: NewMatcher(store)}
}

// CreatePayment links txn to a liability. The payment amount is the
// transaction's absolute value; the balance snapshot is projected from the
// liability's current balance, floored at zero. With autoApply the payment
// is applied immediately and the liability balance moves in the same storage
// transaction; otherwise it is recorded pending and the balance is
// untouched. A second payment for the same (liability, transaction) pair
// fails with common.ErrDuplicateEntry.
func (m *Manager) CreatePayment(ctx context.Context, txn *model.Transaction, liabilityID int64, ruleID *int64, autoApply bool) (*model.LiabilityPayment, error) {
	if txn == nil {
		return nil, fmt.Errorf("%w: transaction is nil", common.ErrInvalidInput)
	}
	if !txn.IsExpense() {
		return nil, fmt.Errorf("%w: transaction %s is not an expense", common.ErrInvalidInput, txn.ID)
	}

	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	liability, err := tx.GetLiabilityByID(ctx, liabilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load liability %d: %w", liabilityID, err)
	}

	amount := math.Abs(txn.Amount)
	before := liability.CurrentBalance
	after := before - amount
	if after < 0 {
		after = 0
	}

	payment := &model.LiabilityPayment{
		LiabilityID:   liabilityID,
		TransactionID: txn.ID,
		RuleID:        ruleID,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Status:        model.PaymentStatusPending,
	}

	created, err := tx.CreateLiabilityPayment(ctx, payment)
	if err != nil {
		return nil, err
	}

	if autoApply {
		now := time.Now()
		if err := tx.UpdateLiabilityPaymentStatus(ctx, created.ID, model.PaymentStatusApplied, &after, &now); err != nil {
			return nil, fmt.Errorf("failed to apply payment: %w", err)
		}
		if err := tx.UpdateLiabilityBalance(ctx, liabilityID, after); err != nil {
			return nil, fmt.Errorf("failed to update liability balance: %w", err)
		}
		created.Status = model.PaymentStatusApplied
		created.AppliedAt = &now
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	slog.Info("liability payment created",
		"payment_id", created.ID,
		"liability", liability.Name,
		"transaction_id", txn.ID,
		"amount", amount,
		"status", created.Status)
	return created, nil
}

// Apply moves a pending payment to applied. The balance after is recomputed
// from the liability's current balance at approval time, not the projection
// made when the payment was created.
func (m *Manager) Apply(ctx context.Context, paymentID int64) (*model.LiabilityPayment, error) {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	payment, err := tx.GetLiabilityPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment %d: %w", paymentID, err)
	}
	if !payment.Status.CanTransitionTo(model.PaymentStatusApplied) {
		return nil, fmt.Errorf("cannot apply payment %d in status %q: %w", paymentID, payment.Status, common.ErrInvalidTransition)
	}

	liability, err := tx.GetLiabilityByID(ctx, payment.LiabilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load liability %d: %w", payment.LiabilityID, err)
	}

	after := liability.CurrentBalance - payment.Amount
	if after < 0 {
		after = 0
	}
	now := time.Now()

	if err := tx.UpdateLiabilityPaymentStatus(ctx, paymentID, model.PaymentStatusApplied, &after, &now); err != nil {
		return nil, fmt.Errorf("failed to apply payment: %w", err)
	}
	if err := tx.UpdateLiabilityBalance(ctx, payment.LiabilityID, after); err != nil {
		return nil, fmt.Errorf("failed to update liability balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment application: %w", err)
	}

	payment.Status = model.PaymentStatusApplied
	payment.BalanceAfter = after
	payment.AppliedAt = &now

	slog.Info("liability payment applied",
		"payment_id", paymentID,
		"liability", liability.Name,
		"balance_after", after)
	return payment, nil
}

// Skip dismisses a pending payment. The liability balance is untouched.
func (m *Manager) Skip(ctx context.Context, paymentID int64) (*model.LiabilityPayment, error) {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	payment, err := tx.GetLiabilityPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment %d: %w", paymentID, err)
	}
	if !payment.Status.CanTransitionTo(model.PaymentStatusSkipped) {
		return nil, fmt.Errorf("cannot skip payment %d in status %q: %w", paymentID, payment.Status, common.ErrInvalidTransition)
	}

	if err := tx.UpdateLiabilityPaymentStatus(ctx, paymentID, model.PaymentStatusSkipped, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to skip payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment skip: %w", err)
	}

	payment.Status = model.PaymentStatusSkipped
	return payment, nil
}

// Reverse undoes an applied payment: the payment amount is added back to the
// liability balance, with no recomputation and no ceiling. The row keeps its
// balance snapshot and application time for the audit trail.
func (m *Manager) Reverse(ctx context.Context, paymentID int64) (*model.LiabilityPayment, error) {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	payment, err := tx.GetLiabilityPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment %d: %w", paymentID, err)
	}
	if !payment.Status.CanTransitionTo(model.PaymentStatusReversed) {
		return nil, fmt.Errorf("cannot reverse payment %d in status %q: %w", paymentID, payment.Status, common.ErrInvalidTransition)
	}

	liability, err := tx.GetLiabilityByID(ctx, payment.LiabilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load liability %d: %w", payment.LiabilityID, err)
	}

	restored := liability.CurrentBalance + payment.Amount

	if err := tx.UpdateLiabilityPaymentStatus(ctx, paymentID, model.PaymentStatusReversed, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to reverse payment: %w", err)
	}
	if err := tx.UpdateLiabilityBalance(ctx, payment.LiabilityID, restored); err != nil {
		return nil, fmt.Errorf("failed to restore liability balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment reversal: %w", err)
	}

	payment.Status = model.PaymentStatusReversed

	slog.Info("liability payment reversed",
		"payment_id", paymentID,
		"liability", liability.Name,
		"balance_restored", restored)
	return payment, nil
}
