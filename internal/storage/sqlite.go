package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tally/internal/model"
	"tally/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// queryable abstracts over *sql.DB and *sql.Tx so query logic can run inside
// or outside an explicit transaction.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// SQLiteStorage implements service.Storage using a single SQLite file.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage opens (creating if necessary) the database at dbPath.
// WAL mode with a busy timeout and a single connection gives us the
// single-writer discipline the payment state machine relies on.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{tx: tx, storage: s}, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction. Every
// Storage method routes through the wrapped transaction so multi-step
// operations commit or roll back as one unit.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTransaction) CreateTransactions(ctx context.Context, transactions []model.Transaction) error {
	return t.storage.createTransactionsTx(ctx, t.tx, transactions)
}

func (t *sqliteTransaction) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	return t.storage.getTransactionsTx(ctx, t.tx, filter)
}

func (t *sqliteTransaction) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	return t.storage.getTransactionByIDTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) UpdateTransactionClassification(ctx context.Context, id string, result model.ClassificationResult) error {
	return t.storage.updateTransactionClassificationTx(ctx, t.tx, id, result)
}

func (t *sqliteTransaction) SetTransactionCategory(ctx context.Context, id, category string) error {
	return t.storage.setTransactionCategoryTx(ctx, t.tx, id, category)
}

func (t *sqliteTransaction) SetTransactionNote(ctx context.Context, id, note string) error {
	return t.storage.setTransactionNoteTx(ctx, t.tx, id, note)
}

func (t *sqliteTransaction) SetTransactionBillingCycle(ctx context.Context, id string, cycle *model.BillingCycle) error {
	return t.storage.setTransactionBillingCycleTx(ctx, t.tx, id, cycle)
}

func (t *sqliteTransaction) DeleteTransaction(ctx context.Context, id string) error {
	return t.storage.deleteTransactionTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) CountTransactionsByDateAmount(ctx context.Context, date time.Time, amount float64) (int, error) {
	return t.storage.countTransactionsByDateAmountTx(ctx, t.tx, date, amount)
}

func (t *sqliteTransaction) GetOrCreateAccount(ctx context.Context, name string, accountType model.AccountType) (*model.Account, error) {
	return t.storage.getOrCreateAccountTx(ctx, t.tx, name, accountType)
}

func (t *sqliteTransaction) GetAccounts(ctx context.Context) ([]model.Account, error) {
	return t.storage.getAccountsTx(ctx, t.tx)
}

func (t *sqliteTransaction) GetCategories(ctx context.Context) ([]model.Category, error) {
	return t.storage.getCategoriesTx(ctx, t.tx)
}

func (t *sqliteTransaction) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	return t.storage.getCategoryByNameTx(ctx, t.tx, name)
}

func (t *sqliteTransaction) CreateCategory(ctx context.Context, name, color, icon string) (*model.Category, error) {
	return t.storage.createCategoryTx(ctx, t.tx, name, color, icon)
}

func (t *sqliteTransaction) AddUserPreference(ctx context.Context, instruction string, source model.PreferenceSource) (*model.UserPreference, error) {
	return t.storage.addUserPreferenceTx(ctx, t.tx, instruction, source)
}

func (t *sqliteTransaction) GetUserPreferences(ctx context.Context) ([]model.UserPreference, error) {
	return t.storage.getUserPreferencesTx(ctx, t.tx)
}

func (t *sqliteTransaction) UpsertPreferenceForMerchant(ctx context.Context, merchant, instruction string, source model.PreferenceSource) (*model.UserPreference, error) {
	return t.storage.upsertPreferenceForMerchantTx(ctx, t.tx, merchant, instruction, source)
}

func (t *sqliteTransaction) DeleteUserPreference(ctx context.Context, id int64) error {
	return t.storage.deleteUserPreferenceTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) CreateLiability(ctx context.Context, liability *model.Liability) (*model.Liability, error) {
	return t.storage.createLiabilityTx(ctx, t.tx, liability)
}

func (t *sqliteTransaction) GetLiabilities(ctx context.Context) ([]model.Liability, error) {
	return t.storage.getLiabilitiesTx(ctx, t.tx)
}

func (t *sqliteTransaction) GetLiabilityByID(ctx context.Context, id int64) (*model.Liability, error) {
	return t.storage.getLiabilityByIDTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) UpdateLiabilityBalance(ctx context.Context, id int64, balance float64) error {
	return t.storage.updateLiabilityBalanceTx(ctx, t.tx, id, balance)
}

func (t *sqliteTransaction) CreateLiabilityPaymentRule(ctx context.Context, rule *model.LiabilityPaymentRule) (*model.LiabilityPaymentRule, error) {
	return t.storage.createLiabilityPaymentRuleTx(ctx, t.tx, rule)
}

func (t *sqliteTransaction) GetLiabilityPaymentRules(ctx context.Context, activeOnly bool) ([]model.LiabilityPaymentRule, error) {
	return t.storage.getLiabilityPaymentRulesTx(ctx, t.tx, activeOnly)
}

func (t *sqliteTransaction) SetLiabilityPaymentRuleActive(ctx context.Context, id int64, active bool) error {
	return t.storage.setLiabilityPaymentRuleActiveTx(ctx, t.tx, id, active)
}

func (t *sqliteTransaction) CreateLiabilityPayment(ctx context.Context, payment *model.LiabilityPayment) (*model.LiabilityPayment, error) {
	return t.storage.createLiabilityPaymentTx(ctx, t.tx, payment)
}

func (t *sqliteTransaction) GetLiabilityPayment(ctx context.Context, id int64) (*model.LiabilityPayment, error) {
	return t.storage.getLiabilityPaymentTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetLiabilityPaymentByTransaction(ctx context.Context, liabilityID int64, transactionID string) (*model.LiabilityPayment, error) {
	return t.storage.getLiabilityPaymentByTransactionTx(ctx, t.tx, liabilityID, transactionID)
}

func (t *sqliteTransaction) GetLiabilityPayments(ctx context.Context, liabilityID int64) ([]model.LiabilityPayment, error) {
	return t.storage.getLiabilityPaymentsTx(ctx, t.tx, liabilityID)
}

func (t *sqliteTransaction) UpdateLiabilityPaymentStatus(ctx context.Context, id int64, status model.PaymentStatus, balanceAfter *float64, appliedAt *time.Time) error {
	return t.storage.updateLiabilityPaymentStatusTx(ctx, t.tx, id, status, balanceAfter, appliedAt)
}

func (t *sqliteTransaction) RecordStatementImport(ctx context.Context, record *model.StatementImport) (*model.StatementImport, error) {
	return t.storage.recordStatementImportTx(ctx, t.tx, record)
}

func (t *sqliteTransaction) GetStatementImports(ctx context.Context, limit int) ([]model.StatementImport, error) {
	return t.storage.getStatementImportsTx(ctx, t.tx, limit)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
