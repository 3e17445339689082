package engine

import (
	"context"
	"fmt"
	"time"

	"tally/internal/service"
)

// IsDuplicate reports whether a transaction with the same calendar date and
// amount is already stored. Descriptions are deliberately not compared: bank
// descriptor strings mutate between statement exports, and matching on them
// would let the same charge back in under a new spelling.
func IsDuplicate(ctx context.Context, store service.Storage, date time.Time, amount float64) (bool, error) {
	count, err := store.CountTransactionsByDateAmount(ctx, date, amount)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	return count > 0, nil
}

// dedupeKey collapses a transaction to the identity the duplicate guard
// uses, calendar day plus amount in cents, for suppressing repeats within a
// single statement file.
func dedupeKey(date time.Time, amount float64) string {
	return fmt.Sprintf("%s|%.2f", date.Format("2006-01-02"), amount)
}
