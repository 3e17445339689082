package debt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/model"
	"tally/internal/testutil"
)

func TestManager_ProcessTransaction_FirstRuleWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loanA := db.MustCreateLiability(&model.Liability{
		Name: "Loan A", Type: model.LiabilityTypeLoan, CurrentBalance: 5000,
	})
	loanB := db.MustCreateLiability(&model.Liability{
		Name: "Loan B", Type: model.LiabilityTypeLoan, CurrentBalance: 5000,
	})
	db.MustCreateRule(&model.LiabilityPaymentRule{
		LiabilityID: loanA.ID, MerchantMatch: "LENDCO", Description: "A", IsActive: true,
	})
	db.MustCreateRule(&model.LiabilityPaymentRule{
		LiabilityID: loanB.ID, MerchantMatch: "LENDCO", Description: "B", IsActive: true,
	})

	txn := testutil.NewTransaction("p1", "LENDCO PAYMENT", -300).Build()
	db.MustSaveTransactions(txn)

	payment, err := manager.ProcessTransaction(ctx, txn, nil)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, loanA.ID, payment.LiabilityID, "only the first matching rule applies")

	// Exactly one link exists across all liabilities.
	all, err := db.Storage.GetLiabilityPayments(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestManager_ProcessTransaction_AutoApplyRule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan := db.MustCreateLiability(&model.Liability{
		Name: "Car Loan", Type: model.LiabilityTypeLoan, CurrentBalance: 9500,
	})
	rule := db.MustCreateRule(&model.LiabilityPaymentRule{
		LiabilityID: loan.ID, MerchantMatch: "CHASE AUTO", Description: "Auto", AutoApply: true, IsActive: true,
	})

	txn := testutil.NewTransaction("p1", "CHASE AUTO LOAN PMT", -425).Build()
	db.MustSaveTransactions(txn)

	payment, err := manager.ProcessTransaction(ctx, txn, nil)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, model.PaymentStatusApplied, payment.Status)
	require.NotNil(t, payment.RuleID)
	assert.Equal(t, rule.ID, *payment.RuleID)

	liability, err := db.Storage.GetLiabilityByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 9075.0, liability.CurrentBalance)
}

func TestManager_ProcessTransaction_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan := db.MustCreateLiability(&model.Liability{
		Name: "Car Loan", Type: model.LiabilityTypeLoan, CurrentBalance: 9500,
	})
	db.MustCreateRule(&model.LiabilityPaymentRule{
		LiabilityID: loan.ID, MerchantMatch: "CHASE AUTO", Description: "Auto", AutoApply: true, IsActive: true,
	})

	txn := testutil.NewTransaction("p1", "CHASE AUTO LOAN PMT", -425).Build()
	db.MustSaveTransactions(txn)

	first, err := manager.ProcessTransaction(ctx, txn, nil)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Re-processing the same transaction links nothing and moves nothing.
	second, err := manager.ProcessTransaction(ctx, txn, nil)
	require.NoError(t, err)
	assert.Nil(t, second)

	liability, err := db.Storage.GetLiabilityByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 9075.0, liability.CurrentBalance, "balance applied exactly once")

	payments, err := db.Storage.GetLiabilityPayments(ctx, loan.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestManager_ProcessTransaction_Proposal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan := db.MustCreateLiability(&model.Liability{
		Name: "Student Loan", Type: model.LiabilityTypeLoan, CurrentBalance: 18000,
	})

	txn := testutil.NewTransaction("p1", "NAVIENT WEB PMT", -210).Build()
	db.MustSaveTransactions(txn)

	payment, err := manager.ProcessTransaction(ctx, txn, &loan.ID)
	require.NoError(t, err)
	require.NotNil(t, payment)

	// Proposals are recorded pending with no rule attribution, awaiting
	// explicit approval.
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Nil(t, payment.RuleID)
	assert.Equal(t, loan.ID, payment.LiabilityID)

	liability, err := db.Storage.GetLiabilityByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 18000.0, liability.CurrentBalance)
}

func TestManager_ProcessTransaction_UnknownProposalDropped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	txn := testutil.NewTransaction("p1", "SOMEBANK PMT", -99).Build()
	db.MustSaveTransactions(txn)

	ghost := int64(999)
	payment, err := manager.ProcessTransaction(ctx, txn, &ghost)
	require.NoError(t, err, "a hallucinated liability id is dropped, not raised")
	assert.Nil(t, payment)
}

func TestManager_ProcessTransaction_RuleBeatsProposal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	ruled := db.MustCreateLiability(&model.Liability{
		Name: "Ruled Loan", Type: model.LiabilityTypeLoan, CurrentBalance: 5000,
	})
	proposed := db.MustCreateLiability(&model.Liability{
		Name: "Proposed Loan", Type: model.LiabilityTypeLoan, CurrentBalance: 5000,
	})
	db.MustCreateRule(&model.LiabilityPaymentRule{
		LiabilityID: ruled.ID, MerchantMatch: "LENDCO", Description: "rule", IsActive: true,
	})

	txn := testutil.NewTransaction("p1", "LENDCO PAYMENT", -300).Build()
	db.MustSaveTransactions(txn)

	payment, err := manager.ProcessTransaction(ctx, txn, &proposed.ID)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, ruled.ID, payment.LiabilityID)
}

func TestManager_ProcessTransaction_IgnoresIncome(t *testing.T) {
	db := testutil.SetupTestDB(t)
	manager := NewManager(db.Storage)
	ctx := context.Background()

	loan := db.MustCreateLiability(&model.Liability{
		Name: "Car Loan", Type: model.LiabilityTypeLoan, CurrentBalance: 9500,
	})
	db.MustCreateRule(&model.LiabilityPaymentRule{
		LiabilityID: loan.ID, MerchantMatch: "CHASE AUTO", Description: "Auto", IsActive: true,
	})

	deposit := testutil.NewTransaction("p1", "CHASE AUTO LOAN REBATE", 50).Build()
	db.MustSaveTransactions(deposit)

	payment, err := manager.ProcessTransaction(ctx, deposit, &loan.ID)
	require.NoError(t, err)
	assert.Nil(t, payment)
}
