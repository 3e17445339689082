// Package engine orchestrates transaction classification and the statement
// import pipeline.
package engine

import (
	"time"

	"tally/internal/service"
)

// Engine coordinates the AI and rule-based classification paths and drives
// statement imports end to end.
type Engine struct {
	store     service.Storage
	client    CompletionClient
	rules     RuleClassifier
	payments  PaymentProcessor
	progress  func(done, total int)
	batchSize int
	retryOpts service.RetryOptions
}

// Config holds tuning options for the classification engine.
type Config struct {
	BatchSize int
	Retry     service.RetryOptions
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize: 20,
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// New creates an engine with the default configuration. client may be nil,
// in which case every batch classifies through rules; payments may be nil to
// skip liability linking.
func New(store service.Storage, client CompletionClient, rules RuleClassifier, payments PaymentProcessor) *Engine {
	return NewWithConfig(store, client, rules, payments, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(store service.Storage, client CompletionClient, rules RuleClassifier, payments PaymentProcessor, config Config) *Engine {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Engine{
		store:     store,
		client:    client,
		rules:     rules,
		payments:  payments,
		batchSize: config.BatchSize,
		retryOpts: config.Retry,
	}
}

// SetProgress registers a callback invoked after each classified batch with
// the number of transactions processed so far and the total. A nil callback
// disables reporting.
func (e *Engine) SetProgress(fn func(done, total int)) {
	e.progress = fn
}
