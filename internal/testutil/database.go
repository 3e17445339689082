// Package testutil provides shared helpers for package tests: an in-memory
// database wired through the real migrations, and fluent builders for the
// domain fixtures tests construct repeatedly.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"tally/internal/model"
	"tally/internal/service"
	"tally/internal/storage"
)

// TestDB wraps a migrated in-memory store with lookup conveniences.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates an in-memory database, runs all migrations (which seed
// the default category set), and registers cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// MustCreateLiability creates a liability or fails the test.
func (db *TestDB) MustCreateLiability(liability *model.Liability) *model.Liability {
	db.t.Helper()
	created, err := db.Storage.CreateLiability(context.Background(), liability)
	if err != nil {
		db.t.Fatalf("failed to create liability %q: %v", liability.Name, err)
	}
	return created
}

// MustCreateRule creates a liability payment rule or fails the test.
func (db *TestDB) MustCreateRule(rule *model.LiabilityPaymentRule) *model.LiabilityPaymentRule {
	db.t.Helper()
	created, err := db.Storage.CreateLiabilityPaymentRule(context.Background(), rule)
	if err != nil {
		db.t.Fatalf("failed to create payment rule: %v", err)
	}
	return created
}

// MustSaveTransactions persists transactions or fails the test.
func (db *TestDB) MustSaveTransactions(txns ...model.Transaction) {
	db.t.Helper()
	if err := db.Storage.CreateTransactions(context.Background(), txns); err != nil {
		db.t.Fatalf("failed to save transactions: %v", err)
	}
}

// CategoryNames returns the names of all configured categories.
func (db *TestDB) CategoryNames() []string {
	db.t.Helper()
	cats, err := db.Storage.GetCategories(context.Background())
	if err != nil {
		db.t.Fatalf("failed to get categories: %v", err)
	}
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names
}

// WithTransaction runs fn inside a database transaction that is always rolled
// back, keeping the store pristine for the next assertion.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
