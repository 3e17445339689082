// Package rules implements deterministic transaction classification: an
// ordered regex rule table used when no completion service is available, and
// a Bayesian suggester trained on the user's own classification history.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"tally/internal/model"
)

// Rule is one ordered classification rule. Pattern is matched
// case-insensitively against the transaction description; the first matching
// rule wins. Merchant, when set, becomes the cleaned display name.
type Rule struct {
	Name       string
	Pattern    string
	Category   string
	Merchant   string
	Confidence float64
}

type compiledRule struct {
	re *regexp.Regexp
	Rule
}

// Classifier matches descriptions against an ordered rule list. It is a pure
// function of its inputs and never fails: unmatched descriptions fall back to
// the Other category with confidence zero.
type Classifier struct {
	income []compiledRule
	rules  []compiledRule
}

// NewClassifier builds a classifier from custom rules prepended to the
// built-in defaults. Pass nil for defaults only.
func NewClassifier(custom []Rule) (*Classifier, error) {
	income, err := compileRules(incomeRules())
	if err != nil {
		return nil, err
	}

	ordered := make([]Rule, 0, len(custom)+40)
	ordered = append(ordered, custom...)
	ordered = append(ordered, defaultRules()...)

	rules, err := compileRules(ordered)
	if err != nil {
		return nil, err
	}

	return &Classifier{income: income, rules: rules}, nil
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		pattern := r.Pattern
		if !strings.HasPrefix(pattern, "(?i)") {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", r.Name, err)
		}
		compiled = append(compiled, compiledRule{re: re, Rule: r})
	}
	return compiled, nil
}

// Classify assigns a category to one transaction from its description and
// signed amount alone. Positive amounts are checked against income patterns
// before the ordered rule list; no match yields Other with confidence zero
// and the raw description as merchant.
func (c *Classifier) Classify(description string, amount float64) model.RuleResult {
	searchText := strings.ToLower(description)

	if amount > 0 {
		for _, r := range c.income {
			if r.re.MatchString(searchText) {
				return model.RuleResult{
					Category:   r.Category,
					Merchant:   merchantOr(r.Merchant, description),
					Confidence: r.Confidence,
				}
			}
		}
	}

	for _, r := range c.rules {
		if r.re.MatchString(searchText) {
			return model.RuleResult{
				Category:   r.Category,
				Merchant:   merchantOr(r.Merchant, description),
				Confidence: r.Confidence,
			}
		}
	}

	return model.RuleResult{
		Category:   model.FallbackCategory,
		Merchant:   description,
		Confidence: 0,
	}
}

// RuleCount returns the number of loaded expense rules.
func (c *Classifier) RuleCount() int {
	return len(c.rules)
}

func merchantOr(merchant, description string) string {
	if merchant != "" {
		return merchant
	}
	return description
}
