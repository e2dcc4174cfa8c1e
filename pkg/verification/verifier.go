// Package verification compares document fields with applicant-entered data
// and turns the per-field similarities into a MATCH, REVIEW or MISMATCH
// decision.
package verification

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/iris/pkg/errors"
	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/Ramsey-B/iris/pkg/mapper"
	"github.com/Ramsey-B/iris/pkg/metrics"
	"github.com/Ramsey-B/iris/pkg/normalizers"
	"github.com/Ramsey-B/iris/pkg/scoring"
	"github.com/Ramsey-B/iris/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Options adjust a single verification
type Options struct {
	// Weights replace the configured weights for this call.
	Weights map[string]float64
	// ReferenceDate is the date ages are derived on. Zero skips the age check.
	ReferenceDate time.Time
	// Config replaces the verifier's policy for this call.
	Config *Config
}

// MappedResult is the outcome of mapping raw text and verifying the fields found
type MappedResult struct {
	Fields        mapper.ExtractedFieldSet `json:"fields"`
	MissingFields []string                 `json:"missing_fields"`
	Verification  Result                   `json:"verification"`
}

// Verifier maps and verifies documents. It holds no mutable state and is safe
// for concurrent use.
type Verifier struct {
	config Config
	mapper *mapper.Mapper
	scorer *scoring.Scorer
	logger ectologger.Logger
}

// NewVerifier creates a Verifier for the decision policy cfg.
func NewVerifier(cfg Config, logger ectologger.Logger) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := mapper.New(mapper.WithDateOrder(cfg.DateOrder))
	if err != nil {
		return nil, err
	}

	return &Verifier{
		config: cfg,
		mapper: m,
		scorer: scoring.NewScorer(),
		logger: logger,
	}, nil
}

// Config returns the verifier's decision policy.
func (v *Verifier) Config() Config {
	return v.config
}

// MapFields extracts fields from rawText, filtered by docType.
func (v *Verifier) MapFields(ctx context.Context, rawText string, docType mapper.DocumentType) mapper.ExtractedFieldSet {
	_, span := tracing.StartSpan(ctx, "verification.MapFields", attribute.String("document_type", string(docType)))
	defer span.End()

	extracted := v.mapper.MapFields(rawText, docType)
	for field, value := range extracted {
		metrics.RecordExtractedField(field, value.Source)
	}

	v.logger.WithContext(ctx).WithFields(map[string]any{
		"document_type": string(docType),
		"fields":        extracted.Fields(),
	}).Debug("Mapped document fields")

	return extracted
}

// Verify compares extracted document values with the user record. Keys on
// both sides may use any known field alias. Only an invalid policy is an
// error.
func (v *Verifier) Verify(ctx context.Context, extracted, user map[string]string, opts Options) (Result, error) {
	ctx, span := tracing.StartSpan(ctx, "verification.Verify")
	defer span.End()
	start := time.Now()

	result, err := v.verify(extracted, user, opts)
	if err != nil {
		tracing.RecordError(span, err)
		return Result{}, err
	}

	metrics.RecordVerification(string(result.Decision), result.OverallScore, result.FieldScores, time.Since(start).Seconds())
	for _, note := range result.Notes {
		metrics.RecordNote(noteKind(note))
	}

	span.SetAttributes(
		attribute.String("decision", string(result.Decision)),
		attribute.Float64("overall_score", result.OverallScore),
	)

	v.logger.WithContext(ctx).WithFields(map[string]any{
		"decision":      result.Decision,
		"overall_score": result.OverallScore,
		"fields":        sortedFields(result.FieldScores),
		"notes":         result.Notes,
	}).Debug("Verified document")

	return result, nil
}

// verify is Verify without metrics, spans or logs.
func (v *Verifier) verify(extracted, user map[string]string, opts Options) (Result, error) {
	cfg, err := v.resolveConfig(opts)
	if err != nil {
		return Result{}, err
	}

	normOpts := normalizers.Options{DateOrder: cfg.DateOrder}
	rawExtracted := fields.CanonicalizeRecord(extracted)
	rawUser := fields.CanonicalizeRecord(user)
	canonicalExtracted := normalizers.NormalizeRecord(rawExtracted, normOpts)
	canonicalUser := normalizers.NormalizeRecord(rawUser, normOpts)

	fieldScores := make(map[string]float64)
	for field, extractedValue := range canonicalExtracted {
		userValue, ok := canonicalUser[field]
		if !ok {
			continue
		}
		if score, ok := v.scorer.Score(field, extractedValue, userValue); ok {
			fieldScores[field] = score
		}
	}

	result := Aggregate(fieldScores, cfg)

	statedAge := rawExtracted[fields.Age]
	if strings.TrimSpace(statedAge) == "" {
		statedAge = rawUser[fields.Age]
	}
	dob := canonicalUser[fields.DOB]
	if dob == "" {
		dob = canonicalExtracted[fields.DOB]
	}
	result.Notes = append(result.Notes, AgeNotes(statedAge, dob, opts.ReferenceDate, cfg.AgeTolerance)...)

	return result, nil
}

// MapAndVerify maps rawText and verifies the fields found against user.
func (v *Verifier) MapAndVerify(ctx context.Context, rawText string, docType mapper.DocumentType, user map[string]string, opts Options) (MappedResult, error) {
	extracted := v.MapFields(ctx, rawText, docType)

	result, err := v.Verify(ctx, extracted.Values(), user, opts)
	if err != nil {
		return MappedResult{}, err
	}

	return MappedResult{
		Fields:        extracted,
		MissingFields: docType.MissingFields(extracted),
		Verification:  result,
	}, nil
}

func (v *Verifier) resolveConfig(opts Options) (Config, error) {
	cfg := v.config
	if opts.Config != nil {
		cfg = *opts.Config
	}
	cfg = cfg.WithWeights(opts.Weights)
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.WrapVerificationError(err)
	}
	return cfg, nil
}

// noteKind strips the arguments from a note, leaving a low-cardinality label.
func noteKind(note string) string {
	if i := strings.IndexByte(note, '('); i >= 0 {
		note = note[:i]
	}
	if i := strings.LastIndexByte(note, ' '); i >= 0 {
		note = note[i+1:]
	}
	return note
}

func sortedFields(scores map[string]float64) []string {
	out := make([]string, 0, len(scores))
	for field := range scores {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}
