package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"tally/internal/common"
	"tally/internal/model"
)

func seedLiabilityAndTransaction(t *testing.T, store *SQLiteStorage) (*model.Liability, string) {
	t.Helper()
	ctx := context.Background()

	liability, err := store.CreateLiability(ctx, &model.Liability{
		Name:           "Car Loan",
		Type:           model.LiabilityTypeLoan,
		OriginalAmount: 18000,
		CurrentBalance: 9500,
		InterestRate:   6.2,
		MonthlyPayment: 425,
	})
	if err != nil {
		t.Fatalf("Failed to create liability: %v", err)
	}

	txn := model.Transaction{
		ID:          "loan-pay-1",
		Date:        time.Now(),
		Description: "AUTO LOAN PAYMENT",
		Amount:      -425.00,
	}
	if err := store.CreateTransactions(ctx, []model.Transaction{txn}); err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}
	return liability, txn.ID
}

func TestSQLiteStorage_CreateLiabilityPayment(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	liability, txnID := seedLiabilityAndTransaction(t, store)

	payment, err := store.CreateLiabilityPayment(ctx, &model.LiabilityPayment{
		LiabilityID:   liability.ID,
		TransactionID: txnID,
		Amount:        425,
		BalanceBefore: 9500,
		BalanceAfter:  9075,
		Status:        model.PaymentStatusPending,
	})
	if err != nil {
		t.Fatalf("Failed to create payment: %v", err)
	}
	if payment.ID == 0 {
		t.Error("Expected payment to receive an ID")
	}
	if payment.Status != model.PaymentStatusPending {
		t.Errorf("Expected pending status, got %q", payment.Status)
	}
	if payment.RuleID != nil {
		t.Errorf("Expected nil rule ID for manual link, got %v", *payment.RuleID)
	}

	// Same transaction against the same liability is refused.
	_, err = store.CreateLiabilityPayment(ctx, &model.LiabilityPayment{
		LiabilityID:   liability.ID,
		TransactionID: txnID,
		Amount:        425,
		BalanceBefore: 9500,
		BalanceAfter:  9075,
		Status:        model.PaymentStatusPending,
	})
	if !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("Expected ErrDuplicateEntry, got %v", err)
	}

	// The same transaction may pay a different liability.
	other, err := store.CreateLiability(ctx, &model.Liability{
		Name:           "Store Card",
		Type:           model.LiabilityTypeCreditCard,
		OriginalAmount: 2000,
		CurrentBalance: 600,
	})
	if err != nil {
		t.Fatalf("Failed to create second liability: %v", err)
	}
	if _, err := store.CreateLiabilityPayment(ctx, &model.LiabilityPayment{
		LiabilityID:   other.ID,
		TransactionID: txnID,
		Amount:        425,
		BalanceBefore: 600,
		BalanceAfter:  175,
		Status:        model.PaymentStatusPending,
	}); err != nil {
		t.Errorf("Expected cross-liability payment to succeed, got %v", err)
	}
}

func TestSQLiteStorage_GetLiabilityPaymentByTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	liability, txnID := seedLiabilityAndTransaction(t, store)

	_, err := store.GetLiabilityPaymentByTransaction(ctx, liability.ID, txnID)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound before linking, got %v", err)
	}

	created, err := store.CreateLiabilityPayment(ctx, &model.LiabilityPayment{
		LiabilityID:   liability.ID,
		TransactionID: txnID,
		Amount:        425,
		BalanceBefore: 9500,
		BalanceAfter:  9075,
		Status:        model.PaymentStatusPending,
	})
	if err != nil {
		t.Fatalf("Failed to create payment: %v", err)
	}

	found, err := store.GetLiabilityPaymentByTransaction(ctx, liability.ID, txnID)
	if err != nil {
		t.Fatalf("Failed to find payment: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("Expected payment %d, got %d", created.ID, found.ID)
	}
}

func TestSQLiteStorage_UpdateLiabilityPaymentStatus(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	liability, txnID := seedLiabilityAndTransaction(t, store)
	payment, err := store.CreateLiabilityPayment(ctx, &model.LiabilityPayment{
		LiabilityID:   liability.ID,
		TransactionID: txnID,
		Amount:        425,
		BalanceBefore: 9500,
		BalanceAfter:  9075,
		Status:        model.PaymentStatusPending,
	})
	if err != nil {
		t.Fatalf("Failed to create payment: %v", err)
	}

	applied := time.Now().UTC().Truncate(time.Second)
	newBalance := 9075.0
	if err := store.UpdateLiabilityPaymentStatus(ctx, payment.ID, model.PaymentStatusApplied, &newBalance, &applied); err != nil {
		t.Fatalf("Failed to apply payment: %v", err)
	}

	got, err := store.GetLiabilityPayment(ctx, payment.ID)
	if err != nil {
		t.Fatalf("Failed to get payment: %v", err)
	}
	if got.Status != model.PaymentStatusApplied {
		t.Errorf("Expected applied status, got %q", got.Status)
	}
	if got.BalanceAfter != 9075 {
		t.Errorf("Expected balance after 9075, got %v", got.BalanceAfter)
	}
	if got.AppliedAt == nil {
		t.Fatal("Expected applied_at to be set")
	}

	// Reversal passes nil for both optional fields; prior values stay.
	if err := store.UpdateLiabilityPaymentStatus(ctx, payment.ID, model.PaymentStatusReversed, nil, nil); err != nil {
		t.Fatalf("Failed to reverse payment: %v", err)
	}
	got, err = store.GetLiabilityPayment(ctx, payment.ID)
	if err != nil {
		t.Fatalf("Failed to get payment: %v", err)
	}
	if got.Status != model.PaymentStatusReversed {
		t.Errorf("Expected reversed status, got %q", got.Status)
	}
	if got.BalanceAfter != 9075 {
		t.Errorf("Expected balance after to survive nil update, got %v", got.BalanceAfter)
	}
	if got.AppliedAt == nil {
		t.Error("Expected applied_at to survive nil update")
	}

	// Unknown status and missing row are both rejected.
	if err := store.UpdateLiabilityPaymentStatus(ctx, payment.ID, "abandoned", nil, nil); err == nil {
		t.Error("Expected error for unknown status")
	}
	err = store.UpdateLiabilityPaymentStatus(ctx, payment.ID+999, model.PaymentStatusSkipped, nil, nil)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing payment, got %v", err)
	}
}

func TestSQLiteStorage_GetLiabilityPayments(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	liability, _ := seedLiabilityAndTransaction(t, store)
	other, err := store.CreateLiability(ctx, &model.Liability{
		Name:           "Mortgage",
		Type:           model.LiabilityTypeMortgage,
		OriginalAmount: 300000,
		CurrentBalance: 240000,
	})
	if err != nil {
		t.Fatalf("Failed to create second liability: %v", err)
	}

	txns := []model.Transaction{
		{ID: "pay-a", Date: time.Now().AddDate(0, -2, 0), Description: "LOAN PMT", Amount: -425},
		{ID: "pay-b", Date: time.Now().AddDate(0, -1, 0), Description: "LOAN PMT", Amount: -425},
		{ID: "pay-c", Date: time.Now(), Description: "MORTGAGE PMT", Amount: -1800},
	}
	if err := store.CreateTransactions(ctx, txns); err != nil {
		t.Fatalf("Failed to create transactions: %v", err)
	}

	for _, link := range []struct {
		liabilityID int64
		txnID       string
		amount      float64
	}{
		{liability.ID, "pay-a", 425},
		{liability.ID, "pay-b", 425},
		{other.ID, "pay-c", 1800},
	} {
		if _, err := store.CreateLiabilityPayment(ctx, &model.LiabilityPayment{
			LiabilityID:   link.liabilityID,
			TransactionID: link.txnID,
			Amount:        link.amount,
			Status:        model.PaymentStatusPending,
		}); err != nil {
			t.Fatalf("Failed to link %s: %v", link.txnID, err)
		}
	}

	loanPayments, err := store.GetLiabilityPayments(ctx, liability.ID)
	if err != nil {
		t.Fatalf("Failed to list loan payments: %v", err)
	}
	if len(loanPayments) != 2 {
		t.Errorf("Expected 2 loan payments, got %d", len(loanPayments))
	}

	all, err := store.GetLiabilityPayments(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list all payments: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 payments across liabilities, got %d", len(all))
	}
}
