package engine

import (
	"fmt"
	"strings"

	"tally/internal/model"
)

// buildClassificationPrompt assembles the batch prompt: the numbered
// transactions, the allowed category set, the user's standing preferences,
// and the active debt payment rules, followed by the output contract.
func buildClassificationPrompt(txns []model.Transaction, categories []model.Category, prefs []model.UserPreference, rules []model.LiabilityPaymentRule) string {
	var sb strings.Builder

	sb.WriteString("Classify these bank transactions.\n\n")

	sb.WriteString("Transactions:\n")
	for i, txn := range txns {
		fmt.Fprintf(&sb, "%d. %s | %s | %.2f\n", i+1, txn.Date.Format("2006-01-02"), txn.Description, txn.Amount)
	}

	sb.WriteString("\nAllowed categories (use ONLY these exact names):\n")
	names := make([]string, len(categories))
	for i, cat := range categories {
		names[i] = cat.Name
	}
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString("\n")

	if len(prefs) > 0 {
		sb.WriteString("\nUser preferences. Honor every one of these, including any conditions they state (amount thresholds, days of week, and so on):\n")
		for _, pref := range prefs {
			fmt.Fprintf(&sb, "- %s\n", pref.Instruction)
		}
	}

	if len(rules) > 0 {
		sb.WriteString("\nActive debt payment rules. If a transaction is a payment matching one of these, set its liabilityId:\n")
		for _, rule := range rules {
			fmt.Fprintf(&sb, "- liabilityId %d: %s\n", rule.LiabilityID, rule.Description)
		}
	}

	sb.WriteString("\nFor each transaction give a category from the allowed list, a short " +
		"human merchant name, a confidence between 0 and 1, and whether it is a " +
		"transfer between the user's own accounts rather than real income or spending.\n")
	sb.WriteString("\nRespond with ONLY a JSON array, no prose and no code fences:\n")
	sb.WriteString(`[{"index":1,"category":"...","merchant":"...","confidence":0.95,"isTransfer":false,"liabilityId":null}]` + "\n")

	return sb.String()
}
