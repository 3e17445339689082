package model

import (
	"strings"
	"time"
)

// LiabilityType describes the kind of debt being tracked.
type LiabilityType string

const (
	// LiabilityTypeCreditCard is revolving credit card debt.
	LiabilityTypeCreditCard LiabilityType = "credit_card"
	// LiabilityTypeLoan is an installment loan (auto, personal, student).
	LiabilityTypeLoan LiabilityType = "loan"
	// LiabilityTypeMortgage is a home loan.
	LiabilityTypeMortgage LiabilityType = "mortgage"
	// LiabilityTypeOther covers anything else.
	LiabilityTypeOther LiabilityType = "other"
)

// Liability is a tracked debt. CurrentBalance only moves through the payment
// state machine: applied payments decrease it, reversals add the payment
// amount back.
type Liability struct {
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Name                string
	Type                LiabilityType
	ID                  int64
	OriginalAmount      float64
	CurrentBalance      float64
	InterestRate        float64 // annual percentage rate
	MonthlyPayment      float64
	ExcludeFromNetWorth bool
}

// LiabilityPaymentRule recognizes transactions as payments toward one
// liability. A rule is usable only when at least one of MerchantMatch or
// DescriptionMatch is set; AccountID, when set, additionally restricts the
// rule to one account. Rules are evaluated in insertion order and only the
// first match is applied per transaction.
type LiabilityPaymentRule struct {
	CreatedAt        time.Time
	MerchantMatch    string // substring, case-insensitive, empty = unset
	DescriptionMatch string // substring, case-insensitive, empty = unset
	Description      string // human-readable summary shown in prompts and listings
	ID               int64
	LiabilityID      int64
	AccountID        *int64
	AutoApply        bool
	IsActive         bool
}

// IsUsable reports whether the rule has at least one matcher set.
func (r *LiabilityPaymentRule) IsUsable() bool {
	return r.MerchantMatch != "" || r.DescriptionMatch != ""
}

// Matches reports whether the rule recognizes the transaction. Only expense
// transactions are eligible; the merchant-or-description must contain the
// merchant substring, or the description the description substring, and an
// account restriction voids the match on mismatch.
func (r *LiabilityPaymentRule) Matches(txn *Transaction) bool {
	if !r.IsUsable() || txn.Amount >= 0 {
		return false
	}
	if r.AccountID != nil {
		if txn.AccountID == nil || *txn.AccountID != *r.AccountID {
			return false
		}
	}
	if r.MerchantMatch != "" && txn.MatchesText(r.MerchantMatch) {
		return true
	}
	if r.DescriptionMatch != "" && containsFold(txn.Description, r.DescriptionMatch) {
		return true
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
