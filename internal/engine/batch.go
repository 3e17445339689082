package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/common"
	"tally/internal/llm"
	"tally/internal/model"
)

// batchItem is the loose shape of one element of the completion service's
// JSON array. Index is 1-based and refers to the numbered prompt.
type batchItem struct {
	LiabilityID *int64  `json:"liabilityId"`
	Category    string  `json:"category"`
	Merchant    string  `json:"merchant"`
	Index       int     `json:"index"`
	Confidence  float64 `json:"confidence"`
	IsTransfer  bool    `json:"isTransfer"`
}

// Classify categorizes the given transactions and returns exactly one result
// per input, in input order. It never fails: any provider or parse problem
// degrades to the rule classifier for the affected batch, and individually
// unusable items degrade to the fallback category.
func (e *Engine) Classify(ctx context.Context, txns []model.Transaction) []model.ClassificationResult {
	results := make([]model.ClassificationResult, 0, len(txns))

	for start := 0; start < len(txns); start += e.batchSize {
		end := start + e.batchSize
		if end > len(txns) {
			end = len(txns)
		}
		results = append(results, e.classifyBatch(ctx, txns[start:end])...)
		if e.progress != nil {
			e.progress(end, len(txns))
		}
	}

	return results
}

// classifyBatch classifies one batch through the completion service,
// degrading to rules when the service is absent or unusable.
func (e *Engine) classifyBatch(ctx context.Context, batch []model.Transaction) []model.ClassificationResult {
	if e.client == nil {
		return e.classifyWithRules(batch)
	}

	// Fetch fresh every batch: categories and preferences may change while a
	// long import is running.
	categories, err := e.store.GetCategories(ctx)
	if err != nil {
		slog.Warn("failed to load categories, classifying batch with rules", "error", err)
		return e.classifyWithRules(batch)
	}
	prefs, err := e.store.GetUserPreferences(ctx)
	if err != nil {
		slog.Warn("failed to load preferences, classifying batch with rules", "error", err)
		return e.classifyWithRules(batch)
	}
	paymentRules, err := e.store.GetLiabilityPaymentRules(ctx, true)
	if err != nil {
		slog.Warn("failed to load payment rules, classifying batch with rules", "error", err)
		return e.classifyWithRules(batch)
	}

	prompt := buildClassificationPrompt(batch, categories, prefs, paymentRules)

	var response string
	err = common.WithRetry(ctx, func() error {
		var callErr error
		response, callErr = e.client.Complete(ctx, prompt)
		return callErr
	}, e.retryOpts)
	if err != nil {
		slog.Warn("completion service failed, classifying batch with rules",
			"error", err,
			"batch_size", len(batch))
		return e.classifyWithRules(batch)
	}

	results, err := parseBatchResponse(response, batch, categories)
	if err != nil {
		slog.Warn("unusable completion response, classifying batch with rules",
			"error", err,
			"batch_size", len(batch))
		return e.classifyWithRules(batch)
	}

	return results
}

// classifyWithRules runs the deterministic classifier over a batch.
func (e *Engine) classifyWithRules(batch []model.Transaction) []model.ClassificationResult {
	results := make([]model.ClassificationResult, len(batch))
	for i, txn := range batch {
		rr := e.rules.Classify(txn.Description, txn.Amount)
		source := model.SourceRule
		if rr.Confidence == 0 {
			source = model.SourceFallback
		}
		results[i] = model.ClassificationResult{
			Category:   rr.Category,
			Merchant:   rr.Merchant,
			Confidence: rr.Confidence,
			Source:     source,
		}
	}
	return results
}

// parseBatchResponse decodes and validates the service's JSON array into one
// result per batch transaction. Items the service skipped, duplicated, or
// mis-indexed leave the fallback result in place for that row.
func parseBatchResponse(response string, batch []model.Transaction, categories []model.Category) ([]model.ClassificationResult, error) {
	arr, err := llm.ExtractJSONArray(response)
	if err != nil {
		return nil, err
	}

	var items []batchItem
	if err := json.Unmarshal([]byte(arr), &items); err != nil {
		return nil, fmt.Errorf("failed to decode classification items: %w", err)
	}

	canonical := make(map[string]string, len(categories))
	for _, cat := range categories {
		canonical[strings.ToLower(cat.Name)] = cat.Name
	}

	results := make([]model.ClassificationResult, len(batch))
	for i, txn := range batch {
		results[i] = fallbackResult(txn)
	}

	for _, item := range items {
		idx := item.Index - 1
		if idx < 0 || idx >= len(batch) {
			slog.Debug("completion item index out of range", "index", item.Index, "batch_size", len(batch))
			continue
		}
		results[idx] = resultFromItem(item, batch[idx], canonical)
	}

	return results, nil
}

// resultFromItem validates a single response item against the current
// category set and normalizes its fields.
func resultFromItem(item batchItem, txn model.Transaction, canonical map[string]string) model.ClassificationResult {
	category, known := canonical[strings.ToLower(strings.TrimSpace(item.Category))]
	confidence := item.Confidence
	if !known {
		category = model.FallbackCategory
		confidence = 0
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	merchant := strings.TrimSpace(item.Merchant)
	if merchant == "" {
		merchant = txn.Description
	}

	return model.ClassificationResult{
		Category:    category,
		Merchant:    merchant,
		Confidence:  confidence,
		IsTransfer:  item.IsTransfer,
		LiabilityID: item.LiabilityID,
		Source:      model.SourceAI,
	}
}

// fallbackResult is the safe default for a transaction the service did not
// usably classify.
func fallbackResult(txn model.Transaction) model.ClassificationResult {
	return model.ClassificationResult{
		Category:   model.FallbackCategory,
		Merchant:   txn.Description,
		Confidence: 0,
		Source:     model.SourceFallback,
	}
}
