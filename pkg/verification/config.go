package verification

import (
	"fmt"
	"maps"
	"os"

	"github.com/Ramsey-B/iris/pkg/errors"
	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/Ramsey-B/iris/pkg/normalizers"
	"gopkg.in/yaml.v3"
)

// Thresholds are inclusive lower bounds on the overall score.
type Thresholds struct {
	Match  float64 `json:"match" yaml:"match"`
	Review float64 `json:"review" yaml:"review"`
}

// Config is the decision policy applied to every verification.
type Config struct {
	Weights           map[string]float64
	Thresholds        Thresholds
	LowScoreThreshold float64
	// AgeTolerance is the number of years a stated age may differ from the
	// age derived from the date of birth without a note.
	AgeTolerance     int
	DateOrder        normalizers.DateOrder
	BatchConcurrency int
}

// DefaultWeights returns the per-field weights used when none are supplied.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		fields.Name:    0.35,
		fields.DOB:     0.30,
		fields.Phone:   0.15,
		fields.Address: 0.15,
		fields.Gender:  0.05,
	}
}

// DefaultConfig returns the default decision policy.
func DefaultConfig() Config {
	return Config{
		Weights:           DefaultWeights(),
		Thresholds:        Thresholds{Match: 0.85, Review: 0.60},
		LowScoreThreshold: 0.6,
		AgeTolerance:      1,
		DateOrder:         normalizers.DayFirst,
		BatchConcurrency:  4,
	}
}

// WithWeights returns a copy of c using weights. Weight keys are resolved
// through the field alias table. Empty weights keep the current ones.
func (c Config) WithWeights(weights map[string]float64) Config {
	if len(weights) == 0 {
		return c
	}
	out := c
	out.Weights = make(map[string]float64, len(weights))
	for field, w := range weights {
		out.Weights[fields.Canonical(field)] = w
	}
	return out
}

// Validate reports the first invalid setting of c.
func (c Config) Validate() error {
	for field, w := range c.Weights {
		if w < 0 {
			return errors.NewVerificationErrorf("weight must not be negative, got %v", w).
				AddStage(errors.StageWeights).AddField(field)
		}
	}
	t := c.Thresholds
	if t.Review < 0 || t.Match > 1 || t.Review > t.Match {
		return errors.NewVerificationErrorf("thresholds must satisfy 0 <= review <= match <= 1, got review=%v match=%v", t.Review, t.Match).
			AddStage(errors.StageWeights)
	}
	if c.LowScoreThreshold < 0 || c.LowScoreThreshold > 1 {
		return errors.NewVerificationErrorf("low score threshold must be in [0,1], got %v", c.LowScoreThreshold).
			AddStage(errors.StageWeights)
	}
	if c.AgeTolerance < 0 {
		return errors.NewVerificationErrorf("age tolerance must not be negative, got %d", c.AgeTolerance).
			AddStage(errors.StageWeights)
	}
	return nil
}

// policyFile is the YAML shape of a decision policy file. Absent keys keep
// their default.
type policyFile struct {
	Weights           map[string]float64 `yaml:"weights"`
	Thresholds        *Thresholds        `yaml:"thresholds"`
	LowScoreThreshold *float64           `yaml:"low_score_threshold"`
	AgeTolerance      *int               `yaml:"age_tolerance"`
	DateOrder         *string            `yaml:"date_order"`
	BatchConcurrency  *int               `yaml:"batch_concurrency"`
}

// LoadConfigFile reads a YAML decision policy from path on top of base.
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read verification config %s: %w", path, err)
	}
	return ParseConfig(data, base)
}

// ParseConfig applies a YAML decision policy on top of base and validates the
// result.
func ParseConfig(data []byte, base Config) (Config, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return base, fmt.Errorf("failed to parse verification config: %w", err)
	}

	cfg := base
	cfg.Weights = maps.Clone(base.Weights)
	cfg = cfg.WithWeights(file.Weights)
	if file.Thresholds != nil {
		cfg.Thresholds = *file.Thresholds
	}
	if file.LowScoreThreshold != nil {
		cfg.LowScoreThreshold = *file.LowScoreThreshold
	}
	if file.AgeTolerance != nil {
		cfg.AgeTolerance = *file.AgeTolerance
	}
	if file.BatchConcurrency != nil {
		cfg.BatchConcurrency = *file.BatchConcurrency
	}
	if file.DateOrder != nil {
		order, err := normalizers.ParseDateOrder(*file.DateOrder)
		if err != nil {
			return base, err
		}
		cfg.DateOrder = order
	}

	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}
