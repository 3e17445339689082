package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestPaymentRuleMatches(t *testing.T) {
	expense := Transaction{Description: "CHASE CREDIT CRD EPAY", Merchant: "Chase", Amount: -250}

	tests := []struct {
		name string
		rule LiabilityPaymentRule
		txn  Transaction
		want bool
	}{
		{
			name: "merchant substring case-insensitive",
			rule: LiabilityPaymentRule{MerchantMatch: "chase", IsActive: true},
			txn:  expense,
			want: true,
		},
		{
			name: "merchant substring hits description too",
			rule: LiabilityPaymentRule{MerchantMatch: "EPAY"},
			txn:  Transaction{Description: "CHASE CREDIT CRD EPAY", Amount: -250},
			want: true,
		},
		{
			name: "description substring",
			rule: LiabilityPaymentRule{DescriptionMatch: "credit crd"},
			txn:  expense,
			want: true,
		},
		{
			name: "positive amount is never a payment",
			rule: LiabilityPaymentRule{MerchantMatch: "chase"},
			txn:  Transaction{Description: "CHASE CREDIT CRD EPAY", Merchant: "Chase", Amount: 250},
			want: false,
		},
		{
			name: "no matcher set is unusable",
			rule: LiabilityPaymentRule{},
			txn:  expense,
			want: false,
		},
		{
			name: "account restriction voids mismatch",
			rule: LiabilityPaymentRule{MerchantMatch: "chase", AccountID: ptr(int64(7))},
			txn:  Transaction{Description: "CHASE CREDIT CRD EPAY", Merchant: "Chase", Amount: -250, AccountID: ptr(int64(3))},
			want: false,
		},
		{
			name: "account restriction passes on match",
			rule: LiabilityPaymentRule{MerchantMatch: "chase", AccountID: ptr(int64(7))},
			txn:  Transaction{Description: "CHASE CREDIT CRD EPAY", Merchant: "Chase", Amount: -250, AccountID: ptr(int64(7))},
			want: true,
		},
		{
			name: "account restriction voids when transaction has no account",
			rule: LiabilityPaymentRule{MerchantMatch: "chase", AccountID: ptr(int64(7))},
			txn:  expense,
			want: false,
		},
		{
			name: "no substring hit",
			rule: LiabilityPaymentRule{MerchantMatch: "amex", DescriptionMatch: "autopay"},
			txn:  expense,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(&tt.txn))
		})
	}
}

func TestMerchantPreferencePrefix(t *testing.T) {
	assert.Equal(t, `"ROBINHOOD"`, MerchantPreferencePrefix("robinhood"))
	assert.Equal(t, `"NETFLIX"`, MerchantPreferencePrefix("  Netflix "))
	assert.Equal(t,
		`"SPOTIFY" transactions should be categorized as Subscriptions`,
		LearnedInstruction("Spotify", "Subscriptions"))
}
