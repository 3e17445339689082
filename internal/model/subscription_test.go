package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillingCycle(t *testing.T) {
	for _, valid := range []string{"monthly", "quarterly", "annual"} {
		cycle, err := ParseBillingCycle(valid)
		require.NoError(t, err)
		assert.Equal(t, BillingCycle(valid), cycle)
	}

	_, err := ParseBillingCycle("weekly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid billing cycle")
}

func TestMonthlyEquivalent(t *testing.T) {
	assert.InDelta(t, 15.49, CycleMonthly.MonthlyEquivalent(15.49), 0.001)
	assert.InDelta(t, 30.0, CycleQuarterly.MonthlyEquivalent(90.0), 0.001)
	assert.InDelta(t, 10.0, CycleAnnual.MonthlyEquivalent(120.0), 0.001)
}
