package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/common"
	"tally/internal/csvfile"
	"tally/internal/debt"
	"tally/internal/engine"
	"tally/internal/model"
	"tally/internal/ofx"
	"tally/internal/rules"
	"tally/internal/service"
	"tally/internal/testutil"
)

const testCSV = `Date,Description,Amount
2024-01-15,STARBUCKS STORE 123,-25.50
2024-01-16,PAYROLL DIRECT DEPOSIT,2500.00
2024-01-17,NETFLIX.COM,-15.49
`

const testOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-42.00
<FITID>2024011501
<NAME>TRADER JOES #552
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240131120000[0:GMT]
<TRNAMT>2500.00
<FITID>2024013101
<NAME>PAYROLL DEPOSIT
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func newImportTestEngine(t *testing.T) (*engine.Engine, service.Storage) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	classifier, err := rules.NewClassifier(nil)
	require.NoError(t, err)
	return engine.New(db.Storage, nil, classifier, debt.NewManager(db.Storage)), db.Storage
}

func writeStatement(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportFileCSV(t *testing.T) {
	eng, store := newImportTestEngine(t)
	path := writeStatement(t, "statement.csv", testCSV)

	summary, err := importFile(context.Background(), store, eng, path, "Checking", csvfile.DefaultMapping())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Imported)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 3, summary.Classified)

	txns, err := store.GetTransactions(context.Background(), service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 3)

	byDesc := make(map[string]model.Transaction)
	for _, txn := range txns {
		byDesc[txn.Description] = txn
	}
	assert.Equal(t, "Subscriptions", byDesc["NETFLIX.COM"].Category)
	assert.Equal(t, "Dining", byDesc["STARBUCKS STORE 123"].Category)
	assert.Equal(t, "Income", byDesc["PAYROLL DIRECT DEPOSIT"].Category)
}

func TestImportFileIsRerunnable(t *testing.T) {
	eng, store := newImportTestEngine(t)
	path := writeStatement(t, "statement.csv", testCSV)

	first, err := importFile(context.Background(), store, eng, path, "Checking", csvfile.DefaultMapping())
	require.NoError(t, err)
	require.Equal(t, 3, first.Imported)

	second, err := importFile(context.Background(), store, eng, path, "Checking", csvfile.DefaultMapping())
	require.NoError(t, err)

	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 3, second.Duplicates)

	txns, err := store.GetTransactions(context.Background(), service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txns, 3)
}

func TestImportFileOFXDetectsAccount(t *testing.T) {
	eng, store := newImportTestEngine(t)
	path := writeStatement(t, "january.qfx", testOFX)

	summary, err := importFile(context.Background(), store, eng, path, "", csvfile.DefaultMapping())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Imported)

	accounts, err := store.GetAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "1234567890", accounts[0].Name)
	assert.Equal(t, model.AccountTypeChecking, accounts[0].Type)

	txns, err := store.GetTransactions(context.Background(), service.TransactionFilter{AccountID: &accounts[0].ID})
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestImportFileRejectsUnknownExtension(t *testing.T) {
	eng, store := newImportTestEngine(t)
	path := writeStatement(t, "statement.txt", testCSV)

	_, err := importFile(context.Background(), store, eng, path, "", csvfile.DefaultMapping())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestResolveAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	t.Run("flag wins over detected", func(t *testing.T) {
		id, err := resolveAccount(ctx, db.Storage, "My Checking", []ofx.SourceAccount{{ID: "999", Type: model.AccountTypeCredit}})
		require.NoError(t, err)
		require.NotNil(t, id)

		accounts, err := db.Storage.GetAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, "My Checking", accounts[0].Name)
	})

	t.Run("single detected account used", func(t *testing.T) {
		id, err := resolveAccount(ctx, db.Storage, "", []ofx.SourceAccount{{ID: "4321", Type: model.AccountTypeCredit}})
		require.NoError(t, err)
		require.NotNil(t, id)
	})

	t.Run("ambiguous detection leaves account unset", func(t *testing.T) {
		id, err := resolveAccount(ctx, db.Storage, "", []ofx.SourceAccount{
			{ID: "1", Type: model.AccountTypeChecking},
			{ID: "2", Type: model.AccountTypeSavings},
		})
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("nothing known leaves account unset", func(t *testing.T) {
		id, err := resolveAccount(ctx, db.Storage, "", nil)
		require.NoError(t, err)
		assert.Nil(t, id)
	})
}
