package rules

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jbrukh/bayesian"

	"tally/internal/model"
)

// Suggestion is one ranked category guess from the history classifier.
type Suggestion struct {
	Category string
	Score    float64
}

// HistoryClassifier suggests categories from the user's own classification
// history using naive Bayes over description terms. It complements the rule
// table: rules encode general knowledge, history encodes this user's habits.
type HistoryClassifier struct {
	cl      *bayesian.Classifier
	classes []bayesian.Class
}

// NewHistoryClassifier trains on already-categorized transactions. At least
// two distinct categories must be present; training on fewer is an error
// because a single-class model can only ever agree with itself.
func NewHistoryClassifier(transactions []model.Transaction) (*HistoryClassifier, error) {
	seen := make(map[string]bool)
	for _, txn := range transactions {
		if txn.Category != "" && txn.Category != model.FallbackCategory {
			seen[txn.Category] = true
		}
	}
	if len(seen) < 2 {
		return nil, fmt.Errorf("need at least 2 categories in history, have %d", len(seen))
	}

	classes := make([]bayesian.Class, 0, len(seen))
	for name := range seen {
		classes = append(classes, bayesian.Class(name))
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	cl := bayesian.NewClassifierTfIdf(classes...)
	for _, txn := range transactions {
		if txn.Category == "" || txn.Category == model.FallbackCategory {
			continue
		}
		cl.Learn(descriptionTerms(txn.Description), bayesian.Class(txn.Category))
	}
	cl.ConvertTermsFreqToTfIdf()

	return &HistoryClassifier{cl: cl, classes: classes}, nil
}

// Suggest returns up to limit category guesses for a description, best first.
// Candidates more than one standard deviation below the leader are cut.
func (h *HistoryClassifier) Suggest(description string, limit int) []Suggestion {
	terms := descriptionTerms(description)
	if len(terms) == 0 {
		return nil
	}

	scores, _, _ := h.cl.LogScores(terms)

	type pair struct {
		score float64
		pos   int
	}
	pairs := make([]pair, 0, len(scores))
	var mean float64
	for pos, score := range scores {
		pairs = append(pairs, pair{score, pos})
		mean += score
	}
	mean /= float64(len(scores))

	var stddev float64
	for _, p := range pairs {
		diff := p.score - mean
		stddev += diff * diff
	}
	stddev = math.Sqrt(stddev / float64(len(scores)-1))

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	if limit <= 0 || limit > len(pairs) {
		limit = len(pairs)
	}
	suggestions := make([]Suggestion, 0, limit)
	last := pairs[0].score
	for i := 0; i < limit; i++ {
		p := pairs[i]
		if math.Abs(p.score-last) > stddev {
			break
		}
		suggestions = append(suggestions, Suggestion{
			Category: string(h.classes[p.pos]),
			Score:    p.score,
		})
		last = p.score
	}
	return suggestions
}

// descriptionTerms lowercases and tokenizes a description for training and
// scoring. Punctuation common in card descriptions is treated as whitespace.
func descriptionTerms(description string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, description)
	return strings.Fields(cleaned)
}
