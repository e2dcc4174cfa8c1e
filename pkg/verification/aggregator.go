package verification

import (
	"fmt"
	"sort"
)

// Decision is the verdict derived from the overall score
type Decision string

const (
	DecisionMatch    Decision = "MATCH"
	DecisionReview   Decision = "REVIEW"
	DecisionMismatch Decision = "MISMATCH"
	// DecisionInsufficientData means no weighted field was present on both
	// sides, so nothing was compared.
	DecisionInsufficientData Decision = "INSUFFICIENT_DATA"
)

const NoteInsufficientData = "insufficient_data"

// Result is the outcome of comparing one document against a user record
type Result struct {
	FieldScores    map[string]float64 `json:"field_scores"`
	OverallScore   float64            `json:"overall_score"`
	Decision       Decision           `json:"decision"`
	Notes          []string           `json:"notes"`
	WeightsApplied map[string]float64 `json:"weights_applied"`
}

// Decide maps an overall score to a decision. Both thresholds are inclusive.
func Decide(score float64, t Thresholds) Decision {
	switch {
	case score >= t.Match:
		return DecisionMatch
	case score >= t.Review:
		return DecisionReview
	default:
		return DecisionMismatch
	}
}

// RenormalizeWeights restricts weights to the available fields and scales
// them to sum to 1. Fields without a positive weight are left out.
func RenormalizeWeights(available []string, weights map[string]float64) map[string]float64 {
	total := 0.0
	for _, field := range available {
		if w := weights[field]; w > 0 {
			total += w
		}
	}

	out := make(map[string]float64, len(available))
	if total == 0 {
		return out
	}
	for _, field := range available {
		if w := weights[field]; w > 0 {
			out[field] = w / total
		}
	}
	return out
}

// Aggregate combines per-field scores into a Result using cfg.
func Aggregate(fieldScores map[string]float64, cfg Config) Result {
	available := make([]string, 0, len(fieldScores))
	for field := range fieldScores {
		available = append(available, field)
	}
	sort.Strings(available)

	result := Result{
		FieldScores:    fieldScores,
		Notes:          []string{},
		WeightsApplied: RenormalizeWeights(available, cfg.Weights),
	}
	if result.FieldScores == nil {
		result.FieldScores = map[string]float64{}
	}

	if len(result.WeightsApplied) == 0 {
		result.Decision = DecisionInsufficientData
		result.Notes = append(result.Notes, NoteInsufficientData)
		return result
	}

	weightedSum, totalWeight := 0.0, 0.0
	for _, field := range available {
		w := cfg.Weights[field]
		if w <= 0 {
			continue
		}
		weightedSum += fieldScores[field] * w
		totalWeight += w
	}
	result.OverallScore = clamp(weightedSum / totalWeight)
	result.Decision = Decide(result.OverallScore, cfg.Thresholds)

	for _, field := range available {
		if _, weighted := result.WeightsApplied[field]; !weighted {
			continue
		}
		if score := fieldScores[field]; score < cfg.LowScoreThreshold {
			result.Notes = append(result.Notes, LowScoreNote(field, score))
		}
	}
	return result
}

// LowScoreNote formats the note attached to a field scoring below the
// low-score threshold.
func LowScoreNote(field string, score float64) string {
	return fmt.Sprintf("%s low_score(%.2f)", field, score)
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
