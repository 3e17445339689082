package model

// ClassificationSource tags which path produced a classification result.
type ClassificationSource string

const (
	// SourceAI means the completion service classified the transaction.
	SourceAI ClassificationSource = "ai"
	// SourceRule means the deterministic rule classifier did.
	SourceRule ClassificationSource = "rule"
	// SourceFallback means neither path could place it and the safe default
	// was substituted.
	SourceFallback ClassificationSource = "fallback"
)

// ClassificationResult is the outcome of classifying one transaction.
// Category is always a currently configured category name or empty;
// Confidence 0 surfaces as "uncategorized" in listings. LiabilityID, when
// set, is the completion service proposing the transaction as a payment
// toward that debt.
type ClassificationResult struct {
	Category    string
	Merchant    string
	Source      ClassificationSource
	LiabilityID *int64
	Confidence  float64
	IsTransfer  bool
}

// RuleResult is what the deterministic classifier returns. It never carries
// transfer or liability information: that expressiveness belongs to the AI
// path alone.
type RuleResult struct {
	Category   string
	Merchant   string
	Confidence float64
}
