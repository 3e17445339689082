package model

import "time"

// AccountType describes the kind of account a statement belongs to.
type AccountType string

const (
	// AccountTypeChecking is a checking account.
	AccountTypeChecking AccountType = "checking"
	// AccountTypeSavings is a savings account.
	AccountTypeSavings AccountType = "savings"
	// AccountTypeCredit is a credit card account.
	AccountTypeCredit AccountType = "credit"
	// AccountTypeOther covers anything else.
	AccountTypeOther AccountType = "other"
)

// Account identifies where transactions were imported from.
type Account struct {
	CreatedAt time.Time
	Name      string
	Type      AccountType
	ID        int64
}
