// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"tally/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate         *time.Time
	EndDate           *time.Time
	AccountID         *int64
	Category          *string
	OnlyUncategorized bool
	ExpensesOnly      bool
	Limit             int
	Offset            int
}

// Storage defines the contract for the persistence layer. Reads are strongly
// consistent with prior writes on the same store.
type Storage interface {
	// Transaction operations
	CreateTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	UpdateTransactionClassification(ctx context.Context, id string, result model.ClassificationResult) error
	SetTransactionCategory(ctx context.Context, id, category string) error
	SetTransactionNote(ctx context.Context, id, note string) error
	SetTransactionBillingCycle(ctx context.Context, id string, cycle *model.BillingCycle) error
	DeleteTransaction(ctx context.Context, id string) error
	CountTransactionsByDateAmount(ctx context.Context, date time.Time, amount float64) (int, error)

	// Account operations
	GetOrCreateAccount(ctx context.Context, name string, accountType model.AccountType) (*model.Account, error)
	GetAccounts(ctx context.Context) ([]model.Account, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, name, color, icon string) (*model.Category, error)

	// Preference operations
	AddUserPreference(ctx context.Context, instruction string, source model.PreferenceSource) (*model.UserPreference, error)
	GetUserPreferences(ctx context.Context) ([]model.UserPreference, error)
	UpsertPreferenceForMerchant(ctx context.Context, merchant, instruction string, source model.PreferenceSource) (*model.UserPreference, error)
	DeleteUserPreference(ctx context.Context, id int64) error

	// Liability operations
	CreateLiability(ctx context.Context, liability *model.Liability) (*model.Liability, error)
	GetLiabilities(ctx context.Context) ([]model.Liability, error)
	GetLiabilityByID(ctx context.Context, id int64) (*model.Liability, error)
	UpdateLiabilityBalance(ctx context.Context, id int64, balance float64) error

	// Liability payment rule operations
	CreateLiabilityPaymentRule(ctx context.Context, rule *model.LiabilityPaymentRule) (*model.LiabilityPaymentRule, error)
	GetLiabilityPaymentRules(ctx context.Context, activeOnly bool) ([]model.LiabilityPaymentRule, error)
	SetLiabilityPaymentRuleActive(ctx context.Context, id int64, active bool) error

	// Liability payment operations
	CreateLiabilityPayment(ctx context.Context, payment *model.LiabilityPayment) (*model.LiabilityPayment, error)
	GetLiabilityPayment(ctx context.Context, id int64) (*model.LiabilityPayment, error)
	GetLiabilityPaymentByTransaction(ctx context.Context, liabilityID int64, transactionID string) (*model.LiabilityPayment, error)
	GetLiabilityPayments(ctx context.Context, liabilityID int64) ([]model.LiabilityPayment, error)
	UpdateLiabilityPaymentStatus(ctx context.Context, id int64, status model.PaymentStatus, balanceAfter *float64, appliedAt *time.Time) error

	// Statement import records
	RecordStatementImport(ctx context.Context, record *model.StatementImport) (*model.StatementImport, error)
	GetStatementImports(ctx context.Context, limit int) ([]model.StatementImport, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction. All Storage methods called
// through it participate in the same atomic unit.
type Transaction interface {
	Commit() error
	Rollback() error
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DateRange represents a time period with start and end dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// CategorySummary contains aggregated statistics for a category.
type CategorySummary struct {
	Count  int
	Amount float64
}

// ReportSummary aggregates a date range of classified transactions for
// export.
type ReportSummary struct {
	ByCategory    map[string]CategorySummary
	DateRange     DateRange
	TotalIncome   float64
	TotalExpenses float64
}
