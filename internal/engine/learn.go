package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/common"
	"tally/internal/model"
)

// LearnFromCorrection records a manual recategorization and synthesizes a
// learned preference for the transaction's merchant, so future AI batches
// classify that merchant the user's way.
func (e *Engine) LearnFromCorrection(ctx context.Context, txnID, category string) error {
	cat, err := e.store.GetCategoryByName(ctx, category)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: %q", common.ErrUnknownCategory, category)
		}
		return fmt.Errorf("failed to look up category: %w", err)
	}

	txn, err := e.store.GetTransactionByID(ctx, txnID)
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}

	if err := e.store.SetTransactionCategory(ctx, txnID, cat.Name); err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	merchant := txn.DisplayName()
	instruction := model.LearnedInstruction(merchant, cat.Name)
	if _, err := e.store.UpsertPreferenceForMerchant(ctx, merchant, instruction, model.PreferenceSourceLearned); err != nil {
		return fmt.Errorf("failed to record learned preference: %w", err)
	}

	slog.Info("learned from correction",
		"transaction_id", txnID,
		"merchant", merchant,
		"category", cat.Name)
	return nil
}
