// Package model defines the domain types shared across the application.
package model

import (
	"strings"
	"time"
)

// Transaction is a single imported bank or card transaction. Amount is
// signed: expenses are negative, income and credits positive.
type Transaction struct {
	Date         time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ID           string
	Description  string // raw description as imported
	Merchant     string // cleaned display name, empty until classified
	Category     string // empty = uncategorized; otherwise a configured category name
	Note         string
	RawPayload   string // source fragment (OFX transaction, CSV row) as JSON
	BillingCycle *BillingCycle
	AccountID    *int64
	Amount       float64
	IsTransfer   bool
}

// IsExpense reports whether the transaction debits an account.
func (t *Transaction) IsExpense() bool {
	return t.Amount < 0
}

// DisplayName returns the merchant if one was assigned, otherwise the raw
// description.
func (t *Transaction) DisplayName() string {
	if t.Merchant != "" {
		return t.Merchant
	}
	return t.Description
}

// MatchesText reports whether the transaction's merchant or description
// contains the given substring, case-insensitively.
func (t *Transaction) MatchesText(substr string) bool {
	if substr == "" {
		return false
	}
	needle := strings.ToLower(substr)
	if strings.Contains(strings.ToLower(t.Merchant), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(t.Description), needle)
}
