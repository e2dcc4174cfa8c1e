// Package scoring compares canonical field values and returns similarities in [0,1].
package scoring

import (
	"sort"
	"strings"

	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Method identifies how a field is compared
type Method string

const (
	MethodTokenSet Method = "token_set"
	MethodExact    Method = "exact"
)

// fieldMethods lists the comparison method per field. Fields missing from the
// table are compared as free text.
var fieldMethods = map[string]Method{
	fields.Name:    MethodTokenSet,
	fields.Surname: MethodTokenSet,
	fields.Address: MethodTokenSet,
	fields.City:    MethodTokenSet,
	fields.State:   MethodTokenSet,
	fields.Phone:   MethodExact,
	fields.DOB:     MethodExact,
	fields.Gender:  MethodExact,
	fields.Email:   MethodExact,
	fields.Pincode: MethodExact,
	fields.Age:     MethodExact,
}

// DefaultTokenThreshold is the minimum Levenshtein similarity for two
// different tokens to count as the same token.
const DefaultTokenThreshold = 0.75

// Scorer provides string and value comparison algorithms
type Scorer struct {
	tokenThreshold float64
	levenshtein    *metrics.Levenshtein
	jaroWinkler    *metrics.JaroWinkler
}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false

	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false

	return &Scorer{
		tokenThreshold: DefaultTokenThreshold,
		levenshtein:    lev,
		jaroWinkler:    jw,
	}
}

// MethodFor returns the comparison method used for field
func MethodFor(field string) Method {
	if m, ok := fieldMethods[field]; ok {
		return m
	}
	return MethodTokenSet
}

// Score compares two canonical values of field. ok is false when either value
// is empty, meaning the field takes no part in the comparison.
func (s *Scorer) Score(field, extracted, user string) (score float64, ok bool) {
	if strings.TrimSpace(extracted) == "" || strings.TrimSpace(user) == "" {
		return 0, false
	}

	switch MethodFor(field) {
	case MethodExact:
		return s.ExactMatch(extracted, user), true
	default:
		score = s.TokenSetRatio(extracted, user)
		if field == fields.Address {
			score = s.withAddressBonus(score, extracted, user)
		}
		return clamp(score), true
	}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return 0.0
}

// Levenshtein returns the normalized Levenshtein similarity of a and b
func (s *Scorer) Levenshtein(a, b string) float64 {
	return strutil.Similarity(a, b, s.levenshtein)
}

// JaroWinkler returns the Jaro-Winkler similarity of a and b
func (s *Scorer) JaroWinkler(a, b string) float64 {
	return strutil.Similarity(a, b, s.jaroWinkler)
}

// TokenSetRatio compares a and b as sets of whitespace separated tokens.
//
// Identical tokens pair first. Remaining tokens of the smaller set pair
// greedily with their most similar unpaired counterpart when the Levenshtein
// similarity reaches the token threshold. The result is the summed pair
// similarity divided by the size of the smaller set, so token order and extra
// tokens on either side do not lower the score.
func (s *Scorer) TokenSetRatio(a, b string) float64 {
	left, right := uniqueTokens(a), uniqueTokens(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	if len(left) > len(right) {
		left, right = right, left
	}

	paired := make(map[string]bool, len(right))
	rightSet := make(map[string]bool, len(right))
	for _, tok := range right {
		rightSet[tok] = true
	}

	total := 0.0
	unpaired := make([]string, 0, len(left))
	for _, tok := range left {
		if rightSet[tok] {
			paired[tok] = true
			total++
			continue
		}
		unpaired = append(unpaired, tok)
	}

	for _, tok := range unpaired {
		best, bestScore := "", 0.0
		for _, candidate := range right {
			if paired[candidate] {
				continue
			}
			if sim := s.Levenshtein(tok, candidate); sim > bestScore {
				best, bestScore = candidate, sim
			}
		}
		if best != "" && bestScore >= s.tokenThreshold {
			paired[best] = true
			total += bestScore
		}
	}

	return clamp(total / float64(len(left)))
}

// withAddressBonus rewards shared house numbers and broad token overlap on top
// of a non-zero base score. The bonus never exceeds 0.08.
func (s *Scorer) withAddressBonus(base float64, a, b string) float64 {
	if base <= 0 {
		return base
	}
	left, right := uniqueTokens(a), uniqueTokens(b)

	rightSet := make(map[string]bool, len(right))
	for _, tok := range right {
		rightSet[tok] = true
	}

	shared, sharedNumeric := 0, 0
	for _, tok := range left {
		if rightSet[tok] {
			shared++
			if hasDigit(tok) {
				sharedNumeric++
			}
		}
	}

	union := len(left) + len(right) - shared
	jaccard := 0.0
	if union > 0 {
		jaccard = float64(shared) / float64(union)
	}

	bonus := min(0.05, 0.02*float64(sharedNumeric)) + min(0.05, 0.05*jaccard)
	return clamp(base + min(0.08, bonus))
}

// WeightedScore calculates a weighted average of scores
func (s *Scorer) WeightedScore(scores map[string]float64, weights map[string]float64) float64 {
	totalWeight := 0.0
	weightedSum := 0.0
	for field, score := range scores {
		w, ok := weights[field]
		if !ok || w <= 0 {
			continue
		}
		weightedSum += score * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return clamp(weightedSum / totalWeight)
}

func uniqueTokens(s string) []string {
	tokens := strings.Fields(s)
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
