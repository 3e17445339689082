package model

import (
	"fmt"
	"time"
)

// BillingCycle is the inferred or user-set recurrence period of a
// subscription.
type BillingCycle string

const (
	// CycleMonthly bills every month.
	CycleMonthly BillingCycle = "monthly"
	// CycleQuarterly bills every three months.
	CycleQuarterly BillingCycle = "quarterly"
	// CycleAnnual bills once a year.
	CycleAnnual BillingCycle = "annual"
)

// ParseBillingCycle validates a user-supplied cycle string.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch BillingCycle(s) {
	case CycleMonthly, CycleQuarterly, CycleAnnual:
		return BillingCycle(s), nil
	}
	return "", fmt.Errorf("invalid billing cycle %q: want monthly, quarterly, or annual", s)
}

// MonthlyEquivalent converts a per-charge amount to its monthly cost.
func (c BillingCycle) MonthlyEquivalent(amount float64) float64 {
	switch c {
	case CycleQuarterly:
		return amount / 3
	case CycleAnnual:
		return amount / 12
	default:
		return amount
	}
}

// Subscription is a recurring charge inferred from transaction history. It is
// recomputed on every query and never persisted.
type Subscription struct {
	LastSeen        time.Time
	Merchant        string // shortest literal spelling among the merged variants
	Cycle           BillingCycle
	AverageAmount   float64 // mean absolute charge across variants
	MonthlyAmount   float64 // AverageAmount normalized by the cycle
	PaymentCount    int
	MonthsSpanned   int
	CycleOverridden bool // an explicit per-transaction override pinned the cycle
}
