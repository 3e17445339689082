package model

import (
	"fmt"
	"strings"
	"time"
)

// PreferenceSource records who authored a classification preference.
type PreferenceSource string

const (
	// PreferenceSourceUser marks preferences typed in by the user.
	PreferenceSourceUser PreferenceSource = "user"
	// PreferenceSourceLearned marks preferences synthesized from a manual
	// correction.
	PreferenceSourceLearned PreferenceSource = "learned"
)

// UserPreference is a natural-language instruction that steers AI
// classification. The instruction is opaque data: nothing in this codebase
// interprets its conditionals, that is delegated to the completion service.
type UserPreference struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Instruction string
	Source      PreferenceSource
	ID          int64
}

// MerchantPreferencePrefix returns the quoted-merchant prefix that keys
// learned preferences, e.g. `"NETFLIX"` for any spelling of netflix. Learned
// upserts match on this prefix so one merchant never accumulates conflicting
// directives.
func MerchantPreferencePrefix(merchant string) string {
	return fmt.Sprintf("%q", strings.ToUpper(strings.TrimSpace(merchant)))
}

// LearnedInstruction builds the instruction text synthesized when a user
// recategorizes a transaction.
func LearnedInstruction(merchant, category string) string {
	return fmt.Sprintf("%s transactions should be categorized as %s", MerchantPreferencePrefix(merchant), category)
}
