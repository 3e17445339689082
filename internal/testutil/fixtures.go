package testutil

import (
	"fmt"
	"time"

	"tally/internal/model"
)

// TxnBuilder constructs transaction fixtures with a fluent API. The zero
// builder produces a valid uncategorized expense dated today.
type TxnBuilder struct {
	txn model.Transaction
}

// NewTransaction starts a builder for an expense with the given description
// and signed amount.
func NewTransaction(id, description string, amount float64) *TxnBuilder {
	return &TxnBuilder{txn: model.Transaction{
		ID:          id,
		Date:        time.Now(),
		Description: description,
		Amount:      amount,
	}}
}

// OnDate sets the transaction date.
func (b *TxnBuilder) OnDate(date time.Time) *TxnBuilder {
	b.txn.Date = date
	return b
}

// DaysAgo dates the transaction the given number of days before now.
func (b *TxnBuilder) DaysAgo(days int) *TxnBuilder {
	b.txn.Date = time.Now().AddDate(0, 0, -days)
	return b
}

// WithMerchant sets the cleaned merchant name.
func (b *TxnBuilder) WithMerchant(merchant string) *TxnBuilder {
	b.txn.Merchant = merchant
	return b
}

// WithCategory marks the transaction as already classified.
func (b *TxnBuilder) WithCategory(category string) *TxnBuilder {
	b.txn.Category = category
	return b
}

// WithAccount attaches the transaction to an account.
func (b *TxnBuilder) WithAccount(accountID int64) *TxnBuilder {
	b.txn.AccountID = &accountID
	return b
}

// AsTransfer flags the transaction as an internal transfer.
func (b *TxnBuilder) AsTransfer() *TxnBuilder {
	b.txn.IsTransfer = true
	return b
}

// WithBillingCycle sets an explicit billing-cycle override.
func (b *TxnBuilder) WithBillingCycle(cycle model.BillingCycle) *TxnBuilder {
	b.txn.BillingCycle = &cycle
	return b
}

// Build returns the assembled transaction.
func (b *TxnBuilder) Build() model.Transaction {
	return b.txn
}

// MonthlySeries builds count transactions for the same merchant spaced one
// month apart, ending at the most recent date. Useful for subscription
// detection tests.
func MonthlySeries(idPrefix, description string, amount float64, count int, last time.Time) []model.Transaction {
	txns := make([]model.Transaction, count)
	for i := 0; i < count; i++ {
		monthsBack := count - 1 - i
		txns[i] = NewTransaction(
			fmt.Sprintf("%s-%02d", idPrefix, i+1),
			description,
			amount,
		).OnDate(last.AddDate(0, -monthsBack, 0)).WithMerchant(description).Build()
	}
	return txns
}
