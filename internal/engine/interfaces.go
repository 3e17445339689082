package engine

import (
	"context"

	"tally/internal/model"
)

// CompletionClient is the slice of the AI provider the engine needs. A nil
// client routes every batch through the rule classifier instead.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RuleClassifier produces deterministic classifications. It backs the
// fallback path and the no-AI configuration.
type RuleClassifier interface {
	Classify(description string, amount float64) model.RuleResult
}

// PaymentProcessor links stored expense transactions to liability payments.
type PaymentProcessor interface {
	ProcessTransaction(ctx context.Context, txn model.Transaction, proposedLiabilityID *int64) (*model.LiabilityPayment, error)
}
