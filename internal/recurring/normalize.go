// Package recurring infers subscription charges from stored transaction
// history. Nothing here is persisted; every detection pass recomputes from a
// fresh snapshot.
package recurring

import (
	"strings"
	"unicode"
)

// suffixVocabulary lists corporate and billing tokens that carry no identity.
// Dropping them lets spelling variants of the same payee share a key.
var suffixVocabulary = map[string]bool{
	"INC":          true,
	"LLC":          true,
	"LTD":          true,
	"CO":           true,
	"CORP":         true,
	"COM":          true,
	"NET":          true,
	"ORG":          true,
	"WWW":          true,
	"MONTHLY":      true,
	"ANNUAL":       true,
	"ANNUALLY":     true,
	"SUBSCRIPTION": true,
	"RECURRING":    true,
	"PAYMENT":      true,
	"AUTOPAY":      true,
	"BILL":         true,
	"PLAN":         true,
	"MEMBERSHIP":   true,
}

// NormalizeMerchant reduces a merchant spelling to its clustering key:
// uppercase, non-alphanumerics become spaces, vocabulary tokens are dropped,
// and the remaining tokens are joined. "NETFLIX.COM", "Netflix Inc" and
// "NETFLIX SUBSCRIPTION" all reduce to "NETFLIX".
func NormalizeMerchant(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return ' '
	}, name)

	tokens := strings.Fields(cleaned)
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if suffixVocabulary[token] {
			continue
		}
		kept = append(kept, token)
	}

	// A name made entirely of vocabulary tokens keeps its own identity
	// rather than colliding with every other such name on an empty key.
	if len(kept) == 0 {
		kept = tokens
	}

	return strings.Join(kept, " ")
}
