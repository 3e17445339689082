package model

import "time"

// PaymentStatus is the lifecycle state of a liability payment.
type PaymentStatus string

const (
	// PaymentStatusPending awaits user approval; the liability balance is
	// untouched.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusApplied has reduced the liability balance.
	PaymentStatusApplied PaymentStatus = "applied"
	// PaymentStatusReversed undid an applied payment, restoring the balance.
	PaymentStatusReversed PaymentStatus = "reversed"
	// PaymentStatusSkipped was dismissed while pending.
	PaymentStatusSkipped PaymentStatus = "skipped"
)

// CanTransitionTo reports whether the lifecycle permits moving to next.
// Legal edges: pending to applied, pending to skipped, applied to reversed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusApplied || next == PaymentStatusSkipped
	case PaymentStatusApplied:
		return next == PaymentStatusReversed
	default:
		return false
	}
}

// Valid reports whether s is one of the four lifecycle states.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApplied, PaymentStatusReversed, PaymentStatusSkipped:
		return true
	}
	return false
}

// LiabilityPayment records one transaction's application (or pending
// application) against a debt. A transaction funds at most one payment per
// liability. Amount is stored absolute; BalanceBefore/BalanceAfter snapshot
// the liability balance around the application.
type LiabilityPayment struct {
	CreatedAt     time.Time
	AppliedAt     *time.Time
	TransactionID string
	Status        PaymentStatus
	ID            int64
	LiabilityID   int64
	RuleID        *int64 // nil = linked manually or from an AI proposal
	Amount        float64
	BalanceBefore float64
	BalanceAfter  float64
}
