package model

import "time"

// Category is a configurable transaction category. The set is runtime data,
// not an enum: classification always validates against the currently stored
// names and falls back to FallbackCategory when a proposal is unknown.
type Category struct {
	CreatedAt time.Time
	Name      string
	Color     string
	Icon      string
	ID        int64
}

// FallbackCategory absorbs everything no classifier could place.
const FallbackCategory = "Other"

// SubscriptionCategory marks transactions the subscription detector scans.
const SubscriptionCategory = "Subscriptions"
