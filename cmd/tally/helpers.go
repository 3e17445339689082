package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"tally/internal/common"
	"tally/internal/config"
	"tally/internal/debt"
	"tally/internal/engine"
	"tally/internal/llm"
	"tally/internal/rules"
	"tally/internal/service"
	"tally/internal/storage"
)

// initStorage opens the configured database and brings the schema up to date.
// Callers own the returned store and must Close it.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newCompletionClient builds the configured AI client. A missing or disabled
// provider yields (nil, nil) so classification degrades to rules alone.
func newCompletionClient() (llm.CompletionClient, error) {
	cfg := llm.Config{
		Provider:    viper.GetString("ai.provider"),
		APIKey:      viper.GetString("ai.api_key"),
		Model:       viper.GetString("ai.model"),
		MaxTokens:   viper.GetInt("ai.max_tokens"),
		Temperature: viper.GetFloat64("ai.temperature"),
		RateLimit:   viper.GetInt("ai.rate_limit"),
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		if errors.Is(err, common.ErrNoCompletionService) {
			slog.Info("no completion service configured, classifying with rules only",
				"provider", cfg.Provider)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	return client, nil
}

// newRuleClassifier loads the optional custom rule pack and builds the
// deterministic classifier on top of the built-in rules.
func newRuleClassifier() (*rules.Classifier, error) {
	var custom []rules.Rule
	if path := viper.GetString("rules.path"); path != "" {
		loaded, err := rules.LoadRules(config.ExpandPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to load custom rules: %w", err)
		}
		custom = loaded
	}
	return rules.NewClassifier(custom)
}

// newEngine wires a classification engine from the configured storage, AI
// client, rule pack, and debt manager. The returned cleanup func releases the
// AI client and must be called when the command finishes.
func newEngine(store service.Storage) (*engine.Engine, func(), error) {
	client, err := newCompletionClient()
	if err != nil {
		return nil, nil, err
	}

	classifier, err := newRuleClassifier()
	if err != nil {
		return nil, nil, err
	}

	cfg := engine.DefaultConfig()
	if batch := viper.GetInt("ai.batch_size"); batch > 0 {
		cfg.BatchSize = batch
	}
	if attempts := viper.GetInt("ai.max_retries"); attempts > 0 {
		cfg.Retry.MaxAttempts = attempts
	}
	if delay := viper.GetDuration("ai.retry_delay"); delay > 0 {
		cfg.Retry.InitialDelay = delay
	}

	cleanup := func() {}
	if client != nil {
		if closer, ok := client.(interface{ Close() error }); ok {
			cleanup = func() { _ = closer.Close() }
		}
	}

	eng := engine.NewWithConfig(store, client, classifier, debt.NewManager(store), cfg)
	return eng, cleanup, nil
}

// parseDateFlag parses an optional YYYY-MM-DD flag value. Empty means unset.
func parseDateFlag(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", common.ErrInvalidInput, name, value)
	}
	return &t, nil
}

// confirm prompts for a y/N answer on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var response string
	_, _ = fmt.Scanln(&response)
	return response == "y" || response == "Y" || response == "yes"
}
