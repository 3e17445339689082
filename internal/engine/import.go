package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tally/internal/model"
)

// Import runs the statement pipeline over parsed transactions: duplicate
// guard, classification, persistence, liability linking, and the audit
// record. A canceled context between stages returns the summary of what was
// already persisted alongside the context error; committed rows and applied
// payments stay intact.
func (e *Engine) Import(ctx context.Context, parsed []model.Transaction, accountID *int64, fileName string, format model.StatementFormat) (*model.ImportSummary, error) {
	summary := &model.ImportSummary{}

	seen := make(map[string]bool)
	fresh := make([]model.Transaction, 0, len(parsed))
	for _, txn := range parsed {
		key := dedupeKey(txn.Date, txn.Amount)
		if seen[key] {
			summary.Duplicates++
			continue
		}
		seen[key] = true

		dup, err := IsDuplicate(ctx, e.store, txn.Date, txn.Amount)
		if err != nil {
			return nil, err
		}
		if dup {
			summary.Duplicates++
			continue
		}

		if txn.ID == "" {
			txn.ID = uuid.NewString()
		}
		if txn.AccountID == nil {
			txn.AccountID = accountID
		}
		fresh = append(fresh, txn)
	}

	slog.Info("importing statement",
		"file", fileName,
		"format", format,
		"parsed", len(parsed),
		"new", len(fresh),
		"duplicates", summary.Duplicates)

	var results []model.ClassificationResult
	if len(fresh) > 0 {
		results = e.Classify(ctx, fresh)
		for i := range fresh {
			fresh[i].Category = results[i].Category
			fresh[i].Merchant = results[i].Merchant
			fresh[i].IsTransfer = results[i].IsTransfer
			if results[i].Confidence > 0 {
				summary.Classified++
			}
		}

		if err := e.store.CreateTransactions(ctx, fresh); err != nil {
			return nil, fmt.Errorf("failed to persist transactions: %w", err)
		}
		summary.Imported = len(fresh)
	}

	if e.payments != nil {
		for i := range fresh {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			if !fresh[i].IsExpense() {
				continue
			}
			payment, err := e.payments.ProcessTransaction(ctx, fresh[i], results[i].LiabilityID)
			if err != nil {
				slog.Warn("liability linking failed",
					"transaction_id", fresh[i].ID,
					"error", err)
				continue
			}
			if payment != nil {
				summary.Linked++
			}
		}
	}

	record := &model.StatementImport{
		FileName:   fileName,
		Format:     format,
		AccountID:  accountID,
		Imported:   summary.Imported,
		Duplicates: summary.Duplicates,
	}
	for _, txn := range fresh {
		if record.DateFrom.IsZero() || txn.Date.Before(record.DateFrom) {
			record.DateFrom = txn.Date
		}
		if txn.Date.After(record.DateTo) {
			record.DateTo = txn.Date
		}
	}
	if _, err := e.store.RecordStatementImport(ctx, record); err != nil {
		slog.Warn("failed to record statement import", "file", fileName, "error", err)
	}

	return summary, nil
}
