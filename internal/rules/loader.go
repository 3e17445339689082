package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rulesFile is the on-disk shape of a custom rules file.
type rulesFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Name       string  `yaml:"name"`
	Pattern    string  `yaml:"pattern"`
	Category   string  `yaml:"category"`
	Merchant   string  `yaml:"merchant"`
	Confidence float64 `yaml:"confidence"`
}

// LoadRules reads custom classification rules from a YAML file. Rules keep
// their file order and are evaluated before the built-in defaults. A missing
// path returns an empty slice so callers can treat the file as optional.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("could not parse rules file %s: %w", path, err)
	}

	rules := make([]Rule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		if entry.Pattern == "" {
			return nil, fmt.Errorf("rule %d in %s has no pattern", i+1, path)
		}
		if entry.Category == "" {
			return nil, fmt.Errorf("rule %d in %s has no category", i+1, path)
		}
		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("custom rule %d", i+1)
		}
		confidence := entry.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.8
		}
		rules = append(rules, Rule{
			Name:       name,
			Pattern:    entry.Pattern,
			Category:   entry.Category,
			Merchant:   entry.Merchant,
			Confidence: confidence,
		})
	}
	return rules, nil
}
