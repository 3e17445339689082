package recurring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"tally/internal/model"
	"tally/internal/service"
)

const (
	// defaultWindowMonths bounds how far back a detection pass looks.
	defaultWindowMonths = 12
	// defaultLimit caps how many subscriptions a pass returns.
	defaultLimit = 30

	// monthlyThreshold and quarterlyThreshold form the payments-per-month
	// ladder. The ladder is a heuristic, not an exact period detector.
	monthlyThreshold   = 0.8
	quarterlyThreshold = 0.2
)

// Options bounds a detection pass. Zero values take the defaults.
type Options struct {
	Window int // months of history to scan
	Limit  int // maximum subscriptions returned
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = defaultWindowMonths
	}
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	return o
}

// paymentGroup accumulates the charges observed under one merchant spelling.
type paymentGroup struct {
	first    time.Time
	last     time.Time
	name     string
	total    float64
	count    int
	override *model.BillingCycle
}

// Detect scans expense transactions in the Subscriptions category and returns
// inferred subscriptions ranked by average charge, largest first.
func Detect(ctx context.Context, store service.Storage, opts Options) ([]model.Subscription, error) {
	opts = opts.withDefaults()

	category := model.SubscriptionCategory
	start := time.Now().AddDate(0, -opts.Window, 0)
	txns, err := store.GetTransactions(ctx, service.TransactionFilter{
		StartDate:    &start,
		Category:     &category,
		ExpensesOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription transactions: %w", err)
	}

	merged := mergeGroups(groupByLiteral(txns))

	subscriptions := make([]model.Subscription, 0, len(merged))
	for _, group := range merged {
		average := group.total / float64(group.count)
		cycle := inferCycle(group.count, group.first, group.last, group.override)
		subscriptions = append(subscriptions, model.Subscription{
			Merchant:        group.name,
			AverageAmount:   average,
			MonthlyAmount:   cycle.MonthlyEquivalent(average),
			Cycle:           cycle,
			CycleOverridden: group.override != nil,
			PaymentCount:    group.count,
			MonthsSpanned:   int(monthsSpanned(group.first, group.last)),
			LastSeen:        group.last,
		})
	}

	sort.Slice(subscriptions, func(i, j int) bool {
		if subscriptions[i].AverageAmount != subscriptions[j].AverageAmount {
			return subscriptions[i].AverageAmount > subscriptions[j].AverageAmount
		}
		return subscriptions[i].Merchant < subscriptions[j].Merchant
	})
	if len(subscriptions) > opts.Limit {
		subscriptions = subscriptions[:opts.Limit]
	}

	return subscriptions, nil
}

// groupByLiteral buckets transactions by their exact merchant-or-description
// spelling, before any normalization.
func groupByLiteral(txns []model.Transaction) map[string]*paymentGroup {
	groups := make(map[string]*paymentGroup)
	for _, txn := range txns {
		name := txn.DisplayName()
		group, ok := groups[name]
		if !ok {
			group = &paymentGroup{name: name, first: txn.Date, last: txn.Date}
			groups[name] = group
		}
		group.count++
		group.total += math.Abs(txn.Amount)
		if txn.Date.Before(group.first) {
			group.first = txn.Date
		}
		if txn.Date.After(group.last) {
			group.last = txn.Date
		}
		if group.override == nil && txn.BillingCycle != nil {
			group.override = txn.BillingCycle
		}
	}
	return groups
}

// mergeGroups folds literal groups that share a normalization key into one
// entity. The shortest spelling becomes the display name. Literals are
// processed in sorted order so merges are deterministic.
func mergeGroups(groups map[string]*paymentGroup) []*paymentGroup {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	byKey := make(map[string]*paymentGroup)
	var merged []*paymentGroup
	for _, name := range names {
		group := groups[name]
		key := NormalizeMerchant(name)
		existing, ok := byKey[key]
		if !ok {
			copied := *group
			byKey[key] = &copied
			merged = append(merged, &copied)
			continue
		}
		if len(group.name) < len(existing.name) {
			existing.name = group.name
		}
		existing.count += group.count
		existing.total += group.total
		if group.first.Before(existing.first) {
			existing.first = group.first
		}
		if group.last.After(existing.last) {
			existing.last = group.last
		}
		if existing.override == nil {
			existing.override = group.override
		}
	}
	return merged
}

// monthsSpanned measures first..last inclusively in ~30-day units. A single
// payment spans one month.
func monthsSpanned(first, last time.Time) float64 {
	days := last.Sub(first).Hours() / 24
	return days/30 + 1
}

// inferCycle classifies a group's billing cycle. An explicit user override
// wins outright; a single observed payment reads as annual; otherwise the
// payments-per-month ladder decides.
func inferCycle(count int, first, last time.Time, override *model.BillingCycle) model.BillingCycle {
	if override != nil {
		return *override
	}
	if count <= 1 {
		return model.CycleAnnual
	}

	perMonth := float64(count) / monthsSpanned(first, last)
	switch {
	case perMonth >= monthlyThreshold:
		return model.CycleMonthly
	case perMonth >= quarterlyThreshold:
		return model.CycleQuarterly
	default:
		return model.CycleAnnual
	}
}
