package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/model"
	"tally/internal/service"
	"tally/internal/testutil"
)

// stubPaymentProcessor records what the import pipeline hands it and links
// transactions whose scripted liability is set.
type stubPaymentProcessor struct {
	proposals map[string]*int64
	link      map[string]bool
	mu        sync.Mutex
}

func newStubPaymentProcessor() *stubPaymentProcessor {
	return &stubPaymentProcessor{
		proposals: make(map[string]*int64),
		link:      make(map[string]bool),
	}
}

func (s *stubPaymentProcessor) ProcessTransaction(_ context.Context, txn model.Transaction, proposed *int64) (*model.LiabilityPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.proposals[txn.ID] = proposed
	if s.link[txn.ID] || proposed != nil {
		return &model.LiabilityPayment{TransactionID: txn.ID, Status: model.PaymentStatusPending}, nil
	}
	return nil, nil
}

func (s *stubPaymentProcessor) seen(txnID string) (*int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposed, ok := s.proposals[txnID]
	return proposed, ok
}

func TestEngine_Import_PersistsClassifiedRows(t *testing.T) {
	engine, db := newTestEngine(t, nil, nil)
	ctx := context.Background()

	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	parsed := []model.Transaction{
		testutil.NewTransaction("", "NETFLIX.COM 866-579-7172", -15.49).OnDate(base).Build(),
		testutil.NewTransaction("", "TRADER JOE'S #552", -84.12).OnDate(base.AddDate(0, 0, 3)).Build(),
		testutil.NewTransaction("", "MYSTERY VENDOR 9000", -12.00).OnDate(base.AddDate(0, 0, 5)).Build(),
	}

	summary, err := engine.Import(ctx, parsed, nil, "july.ofx", model.FormatOFX)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Imported)
	assert.Zero(t, summary.Duplicates)
	assert.Equal(t, 2, summary.Classified, "two of three descriptions match rules")

	stored, err := db.Storage.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 3)

	byDesc := make(map[string]model.Transaction)
	for _, txn := range stored {
		assert.NotEmpty(t, txn.ID, "pipeline mints IDs for rows that arrive without one")
		byDesc[txn.Description] = txn
	}
	assert.Equal(t, "Subscriptions", byDesc["NETFLIX.COM 866-579-7172"].Category)
	assert.Equal(t, "Netflix", byDesc["NETFLIX.COM 866-579-7172"].Merchant)
	assert.Equal(t, "Groceries", byDesc["TRADER JOE'S #552"].Category)
	assert.Equal(t, model.FallbackCategory, byDesc["MYSTERY VENDOR 9000"].Category)

	imports, err := db.Storage.GetStatementImports(ctx, 1)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, "july.ofx", imports[0].FileName)
	assert.Equal(t, model.FormatOFX, imports[0].Format)
	assert.Equal(t, 3, imports[0].Imported)
	assert.WithinDuration(t, base, imports[0].DateFrom, time.Hour)
	assert.WithinDuration(t, base.AddDate(0, 0, 5), imports[0].DateTo, time.Hour)
}

func TestEngine_Import_DuplicateGuard(t *testing.T) {
	engine, db := newTestEngine(t, nil, nil)
	ctx := context.Background()

	date := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	parsed := []model.Transaction{
		testutil.NewTransaction("", "COFFEE BAR", -4.50).OnDate(date).Build(),
		// Same day and amount with a different descriptor: still a duplicate.
		testutil.NewTransaction("", "CARD PURCHASE COFFEE B", -4.50).OnDate(date).Build(),
		testutil.NewTransaction("", "COFFEE BAR", -4.50).OnDate(date.AddDate(0, 0, 1)).Build(),
	}

	summary, err := engine.Import(ctx, parsed, nil, "week.csv", model.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Duplicates)

	// Re-importing the same file suppresses everything against storage.
	again, err := engine.Import(ctx, parsed, nil, "week.csv", model.FormatCSV)
	require.NoError(t, err)
	assert.Zero(t, again.Imported)
	assert.Equal(t, 3, again.Duplicates)

	stored, err := db.Storage.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestEngine_Import_AssignsAccount(t *testing.T) {
	engine, db := newTestEngine(t, nil, nil)
	ctx := context.Background()

	account, err := db.Storage.GetOrCreateAccount(ctx, "Checking", model.AccountTypeChecking)
	require.NoError(t, err)

	parsed := []model.Transaction{
		testutil.NewTransaction("", "GAS STATION", -40.00).Build(),
	}
	_, err = engine.Import(ctx, parsed, &account.ID, "gas.csv", model.FormatCSV)
	require.NoError(t, err)

	stored, err := db.Storage.GetTransactions(ctx, service.TransactionFilter{AccountID: &account.ID})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].AccountID)
	assert.Equal(t, account.ID, *stored[0].AccountID)
}

func TestEngine_Import_LinksLiabilityPayments(t *testing.T) {
	client := NewMockCompletionClient(`[
		{"index":1,"category":"Financial","merchant":"Chase Auto","confidence":0.9,"liabilityId":3},
		{"index":2,"category":"Dining","merchant":"Cafe","confidence":0.9},
		{"index":3,"category":"Income","merchant":"Payroll","confidence":0.99}
	]`)
	processor := newStubPaymentProcessor()
	engine, _ := newTestEngine(t, client, nil)
	engine.payments = processor

	parsed := []model.Transaction{
		testutil.NewTransaction("pay-1", "CHASE AUTO LOAN PMT", -425.00).Build(),
		testutil.NewTransaction("pay-2", "CAFE LUNA", -18.00).Build(),
		testutil.NewTransaction("pay-3", "ACME PAYROLL", 2500.00).Build(),
	}

	summary, err := engine.Import(context.Background(), parsed, nil, "mixed.ofx", model.FormatOFX)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Linked)

	proposed, ok := processor.seen("pay-1")
	require.True(t, ok)
	require.NotNil(t, proposed)
	assert.Equal(t, int64(3), *proposed)

	proposed, ok = processor.seen("pay-2")
	require.True(t, ok)
	assert.Nil(t, proposed)

	// Income never reaches the payment processor.
	_, ok = processor.seen("pay-3")
	assert.False(t, ok)
}

func TestEngine_Import_EmptyStatement(t *testing.T) {
	engine, db := newTestEngine(t, nil, nil)
	ctx := context.Background()

	summary, err := engine.Import(ctx, nil, nil, "empty.ofx", model.FormatOFX)
	require.NoError(t, err)
	assert.Zero(t, summary.Imported)
	assert.Zero(t, summary.Duplicates)

	// The attempt is still recorded for the audit trail.
	imports, err := db.Storage.GetStatementImports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Zero(t, imports[0].Imported)
}
