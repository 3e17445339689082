package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/testutil"
)

func TestIsDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	db.MustSaveTransactions(
		testutil.NewTransaction("txn-1", "SPOTIFY USA", -11.99).OnDate(date).Build(),
	)

	t.Run("same day and amount", func(t *testing.T) {
		dup, err := IsDuplicate(ctx, db.Storage, date, -11.99)
		require.NoError(t, err)
		assert.True(t, dup)
	})

	t.Run("description is not part of the identity", func(t *testing.T) {
		// A different time of day on the same date still collides.
		dup, err := IsDuplicate(ctx, db.Storage, date.Add(14*time.Hour), -11.99)
		require.NoError(t, err)
		assert.True(t, dup)
	})

	t.Run("different amount", func(t *testing.T) {
		dup, err := IsDuplicate(ctx, db.Storage, date, -12.99)
		require.NoError(t, err)
		assert.False(t, dup)
	})

	t.Run("different day", func(t *testing.T) {
		dup, err := IsDuplicate(ctx, db.Storage, date.AddDate(0, 0, 1), -11.99)
		require.NoError(t, err)
		assert.False(t, dup)
	})
}

func TestDedupeKey(t *testing.T) {
	base := time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, dedupeKey(base, -11.99), dedupeKey(base.Add(8*time.Hour), -11.99),
		"time of day does not split the key")
	assert.NotEqual(t, dedupeKey(base, -11.99), dedupeKey(base, -11.98))
	assert.NotEqual(t, dedupeKey(base, -11.99), dedupeKey(base.AddDate(0, 0, 1), -11.99))
}
