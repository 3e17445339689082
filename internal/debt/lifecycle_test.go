package debt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/common"
	"tally/internal/model"
	"tally/internal/testutil"
)

// seedLoan persists a liability and an expense transaction the tests can
// link together.
func seedLoan(t *testing.T, db *testutil.TestDB, balance, amount float64) (*model.Liability, model.Transaction) {
	t.Helper()
	loan := db.MustCreateLiability(&model.Liability{
		Name: "Car Loan", Type: model.LiabilityTypeLoan, CurrentBalance: balance,
	})
	txn := testutil.NewTransaction("loan-pay-1", "CHASE AUTO LOAN PMT", -amount).Build()
	db.MustSaveTransactions(txn)
	return loan, txn
}

func getBalance(t *testing.T, db *testutil.TestDB, id int64) float64 {
	t.Helper()
	liability, err := db.Storage.GetLiabilityByID(context.Background(), id)
	require.NoError(t, err)
	return liability.CurrentBalance
}

func TestManager_CreatePayment_Pending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan, txn := seedLoan(t, db, 9500, 425)

	payment, err := manager.CreatePayment(ctx, &txn, loan.ID, nil, false)
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Equal(t, 425.0, payment.Amount)
	assert.Equal(t, 9500.0, payment.BalanceBefore)
	assert.Equal(t, 9075.0, payment.BalanceAfter)
	assert.Nil(t, payment.AppliedAt)

	// Pending never moves the liability.
	assert.Equal(t, 9500.0, getBalance(t, db, loan.ID))
}

func TestManager_CreatePayment_AutoApply(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan, txn := seedLoan(t, db, 9500, 425)

	payment, err := manager.CreatePayment(ctx, &txn, loan.ID, nil, true)
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusApplied, payment.Status)
	require.NotNil(t, payment.AppliedAt)
	assert.Equal(t, 9075.0, payment.BalanceAfter)
	assert.Equal(t, 9075.0, getBalance(t, db, loan.ID))
}

func TestManager_CreatePayment_BalanceFloorsAtZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan, txn := seedLoan(t, db, 300, 425)

	payment, err := manager.CreatePayment(ctx, &txn, loan.ID, nil, true)
	require.NoError(t, err)

	assert.Equal(t, 300.0, payment.BalanceBefore)
	assert.Zero(t, payment.BalanceAfter)
	assert.Zero(t, getBalance(t, db, loan.ID))
}

func TestManager_CreatePayment_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan, txn := seedLoan(t, db, 9500, 425)

	_, err := manager.CreatePayment(ctx, &txn, loan.ID, nil, false)
	require.NoError(t, err)

	_, err = manager.CreatePayment(ctx, &txn, loan.ID, nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestManager_CreatePayment_RejectsNonExpense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan := db.MustCreateLiability(&model.Liability{
		Name: "Visa", Type: model.LiabilityTypeCreditCard, CurrentBalance: 1000,
	})
	refund := testutil.NewTransaction("refund-1", "MERCHANT REFUND", 50).Build()
	db.MustSaveTransactions(refund)

	_, err := manager.CreatePayment(ctx, &refund, loan.ID, nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestManager_Apply_RecomputesFromCurrentBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan, txn := seedLoan(t, db, 9500, 425)

	payment, err := manager.CreatePayment(ctx, &txn, loan.ID, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 9075.0, payment.BalanceAfter, "projection at creation time")

	// The balance moves between creation and approval.
	require.NoError(t, db.Storage.UpdateLiabilityBalance(ctx, loan.ID, 9000))

	applied, err := manager.Apply(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusApplied, applied.Status)
	assert.Equal(t, 8575.0, applied.BalanceAfter, "recomputed from the balance at approval time")
	require.NotNil(t, applied.AppliedAt)
	assert.Equal(t, 8575.0, getBalance(t, db, loan.ID))
}

func TestManager_Apply_IllegalTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan, txn := seedLoan(t, db, 9500, 425)

	payment, err := manager.CreatePayment(ctx, &txn, loan.ID, nil, true)
	require.NoError(t, err)

	// Applying an applied payment fails and changes nothing.
	_, err = manager.Apply(ctx, payment.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "applied")
	assert.Equal(t, 9075.0, getBalance(t, db, loan.ID))

	stored, err := db.Storage.GetLiabilityPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusApplied, stored.Status)
}

func TestManager_Skip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan, txn := seedLoan(t, db, 9500, 425)

	payment, err := manager.CreatePayment(ctx, &txn, loan.ID, nil, false)
	require.NoError(t, err)

	skipped, err := manager.Skip(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSkipped, skipped.Status)
	assert.Equal(t, 9500.0, getBalance(t, db, loan.ID))

	// Skipped is terminal.
	_, err = manager.Apply(ctx, payment.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	_, err = manager.Skip(ctx, payment.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestManager_Reverse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan, txn := seedLoan(t, db, 9500, 425)

	payment, err := manager.CreatePayment(ctx, &txn, loan.ID, nil, true)
	require.NoError(t, err)
	require.Equal(t, 9075.0, getBalance(t, db, loan.ID))

	reversed, err := manager.Reverse(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusReversed, reversed.Status)
	assert.Equal(t, 9500.0, getBalance(t, db, loan.ID), "reversal restores the exact amount")

	// The audit snapshot of the application survives the reversal.
	stored, err := db.Storage.GetLiabilityPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, 9075.0, stored.BalanceAfter)
	assert.NotNil(t, stored.AppliedAt)

	// Reversed is terminal.
	_, err = manager.Reverse(ctx, payment.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestManager_Reverse_PendingFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan, txn := seedLoan(t, db, 9500, 425)

	payment, err := manager.CreatePayment(ctx, &txn, loan.ID, nil, false)
	require.NoError(t, err)

	_, err = manager.Reverse(ctx, payment.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "pending")
}

func TestManager_Verbs_MissingPayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	for _, verb := range []func(context.Context, int64) (*model.LiabilityPayment, error){
		manager.Apply, manager.Skip, manager.Reverse,
	} {
		_, err := verb(ctx, 404)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrNotFound)
	}
}
