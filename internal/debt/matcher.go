// Package debt links expense transactions to tracked liabilities and owns
// the payment lifecycle.
package debt

import (
	"context"
	"fmt"

	"tally/internal/common"
	"tally/internal/model"
	"tally/internal/service"
)

// Matcher evaluates payment recognition rules against transactions.
type Matcher struct {
	store service.Storage
}

// NewMatcher creates a matcher backed by the given store.
func NewMatcher(store service.Storage) *Matcher {
	return &Matcher{store: store}
}

// FindMatchingRules returns the active rules that recognize txn, in stored
// order. Non-expense transactions never match.
func (m *Matcher) FindMatchingRules(ctx context.Context, txn *model.Transaction) ([]model.LiabilityPaymentRule, error) {
	if txn == nil {
		return nil, fmt.Errorf("%w: transaction is nil", common.ErrInvalidInput)
	}
	if !txn.IsExpense() {
		return nil, nil
	}

	rules, err := m.store.GetLiabilityPaymentRules(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment rules: %w", err)
	}

	var matched []model.LiabilityPaymentRule
	for _, rule := range rules {
		if rule.Matches(txn) {
			matched = append(matched, rule)
		}
	}
	return matched, nil
}
