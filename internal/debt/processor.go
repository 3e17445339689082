package debt

import (
	"context"
	"errors"
	"log/slog"

	"tally/internal/common"
	"tally/internal/model"
)

// ProcessTransaction links one stored transaction to a liability, if
// anything recognizes it. The first matching active rule wins and no further
// rules are consulted; with no rule match, a classifier-proposed liability
// id creates a pending payment with no rule attribution. Returns nil with no
// error when there is nothing to link, including when the transaction is
// already linked to that liability, which makes re-processing idempotent.
func (m *Manager) ProcessTransaction(ctx context.Context, txn model.Transaction, proposedLiabilityID *int64) (*model.LiabilityPayment, error) {
	if !txn.IsExpense() {
		return nil, nil
	}

	rules, err := m.matcher.FindMatchingRules(ctx, &txn)
	if err != nil {
		return nil, err
	}

	if len(rules) > 0 {
		rule := rules[0]
		payment, err := m.CreatePayment(ctx, &txn, rule.LiabilityID, &rule.ID, rule.AutoApply)
		if err != nil {
			if errors.Is(err, common.ErrDuplicateEntry) {
				slog.Debug("transaction already linked",
					"transaction_id", txn.ID,
					"liability_id", rule.LiabilityID)
				return nil, nil
			}
			return nil, err
		}
		return payment, nil
	}

	if proposedLiabilityID == nil {
		return nil, nil
	}

	// AI proposals are recorded pending and never auto-applied; an id that
	// does not resolve to a tracked liability is dropped.
	if _, err := m.store.GetLiabilityByID(ctx, *proposedLiabilityID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			slog.Warn("ignoring proposal for unknown liability",
				"liability_id", *proposedLiabilityID,
				"transaction_id", txn.ID)
			return nil, nil
		}
		return nil, err
	}

	payment, err := m.CreatePayment(ctx, &txn, *proposedLiabilityID, nil, false)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}
