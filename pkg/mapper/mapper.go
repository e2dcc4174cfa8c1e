// Package mapper extracts applicant fields from raw OCR text.
//
// Extraction runs in three passes. Dedicated per-field patterns are tried
// first and yield full confidence. Lines shaped like "label: value" whose
// label only resembles a known label are then picked up with reduced
// confidence. Finally pincode and state are derived from the address when
// the document did not label them. The result is projected down to the fields
// the document type is allowed to prove.
package mapper

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/Ramsey-B/iris/pkg/normalizers"
	"github.com/Ramsey-B/iris/pkg/scoring"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	SourcePattern = "pattern"
	SourceLabel   = "label"
	SourceDerived = "derived"
)

const (
	// PatternConfidence is assigned to values matched by a dedicated pattern.
	PatternConfidence = 1.0
	// DerivedConfidence is assigned to values derived from another field.
	DerivedConfidence = 0.8
	// DefaultLabelThreshold is the minimum Jaro-Winkler similarity between a
	// line label and a known label alias.
	DefaultLabelThreshold = 0.88

	labelConfidenceFactor = 0.7
	maxLabelWords         = 4
)

var (
	pincodeInText = regexp.MustCompile(`(?:^|[^\d])(\d{3}[ ]?\d{3})(?:[^\d]|$)`)
	stateTitle    = cases.Title(language.English)
)

// ExtractedField is a single value read off a document
type ExtractedField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// ExtractedFieldSet maps canonical field names to extracted values
type ExtractedFieldSet map[string]ExtractedField

// Values returns the plain field values of s.
func (s ExtractedFieldSet) Values() map[string]string {
	out := make(map[string]string, len(s))
	for field, v := range s {
		out[field] = v.Value
	}
	return out
}

// Fields returns the field names of s in sorted order.
func (s ExtractedFieldSet) Fields() []string {
	out := make([]string, 0, len(s))
	for field := range s {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// Mapper extracts fields from raw text. A Mapper is immutable once built and
// safe for concurrent use.
type Mapper struct {
	patterns       PatternSet
	scorer         *scoring.Scorer
	labelThreshold float64
	options        normalizers.Options
}

// Option configures a Mapper
type Option func(*Mapper) error

// WithPatterns appends extra patterns per field after the default ones.
func WithPatterns(table map[string][]string) Option {
	return func(m *Mapper) error {
		patterns, err := m.patterns.Extend(table)
		if err != nil {
			return err
		}
		m.patterns = patterns
		return nil
	}
}

// WithDateOrder sets how ambiguous numeric dates of birth are read.
func WithDateOrder(order normalizers.DateOrder) Option {
	return func(m *Mapper) error {
		m.options.DateOrder = order
		return nil
	}
}

// WithLabelThreshold overrides DefaultLabelThreshold.
func WithLabelThreshold(threshold float64) Option {
	return func(m *Mapper) error {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("label threshold must be in (0,1], got %v", threshold)
		}
		m.labelThreshold = threshold
		return nil
	}
}

// New builds a Mapper over the default pattern table.
func New(opts ...Option) (*Mapper, error) {
	patterns, err := CompilePatterns(DefaultPatterns)
	if err != nil {
		return nil, err
	}

	m := &Mapper{
		patterns:       patterns,
		scorer:         scoring.NewScorer(),
		labelThreshold: DefaultLabelThreshold,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

var defaultMapper = mustNew()

func mustNew() *Mapper {
	m, err := New()
	if err != nil {
		panic(err)
	}
	return m
}

// MapFields extracts fields from rawText with the default Mapper.
func MapFields(rawText string, docType DocumentType) ExtractedFieldSet {
	return defaultMapper.MapFields(rawText, docType)
}

// MapFields extracts the fields found in rawText and filters them by docType.
// Fields that cannot be found are absent; MapFields never fails.
func (m *Mapper) MapFields(rawText string, docType DocumentType) ExtractedFieldSet {
	text := strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(rawText)

	set := make(ExtractedFieldSet)
	m.matchPatterns(text, set)
	m.matchLabels(text, set)
	deriveFromAddress(set)

	return docType.Filter(set)
}

func (m *Mapper) matchPatterns(text string, set ExtractedFieldSet) {
	for _, field := range sortedKeys(m.patterns) {
		for _, re := range m.patterns[field] {
			match := re.FindStringSubmatch(text)
			if match == nil {
				continue
			}
			if value := cleanValue(field, match[1], m.options); value != "" {
				set[field] = ExtractedField{Value: value, Confidence: PatternConfidence, Source: SourcePattern}
				break
			}
		}
	}
}

// matchLabels assigns "label: value" lines whose label is close to a known
// alias. Lines naming a relative are ignored.
func (m *Mapper) matchLabels(text string, set ExtractedFieldSet) {
	aliasFields := sortedKeys(labelAliases)

	for _, line := range strings.Split(text, "\n") {
		label, value, ok := splitLabel(line)
		if !ok || isRelationLabel(label) {
			continue
		}

		bestField, bestScore := "", 0.0
		for _, field := range aliasFields {
			for _, alias := range labelAliases[field] {
				if sim := m.scorer.JaroWinkler(label, alias); sim > bestScore {
					bestField, bestScore = field, sim
				}
			}
		}
		if bestScore < m.labelThreshold {
			continue
		}
		if _, taken := set[bestField]; taken {
			continue
		}

		if cleaned := cleanValue(bestField, value, m.options); cleaned != "" {
			set[bestField] = ExtractedField{
				Value:      cleaned,
				Confidence: labelConfidenceFactor * bestScore,
				Source:     SourceLabel,
			}
		}
	}
}

// splitLabel splits a line at its first ':' or, failing that, its first '-'
// preceded by a digit-free label.
func splitLabel(line string) (label, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		idx = strings.Index(line, "-")
		if idx < 0 || strings.ContainsAny(line[:idx], "0123456789") {
			return "", "", false
		}
	}

	label = strings.ToLower(normalizers.CollapseWhitespace(strings.Trim(line[:idx], " \t.'")))
	value = strings.TrimSpace(line[idx+1:])
	if label == "" || value == "" || len(strings.Fields(label)) > maxLabelWords {
		return "", "", false
	}
	return label, value, true
}

func isRelationLabel(label string) bool {
	tokens := strings.FieldsFunc(label, func(r rune) bool { return r == ' ' || r == '\'' || r == '.' })
	for _, relation := range relationLabels {
		if strings.Contains(relation, "/") {
			if strings.Contains(label, relation) {
				return true
			}
			continue
		}
		if ectolinq.Contains(tokens, relation) {
			return true
		}
	}
	return false
}

// deriveFromAddress fills pincode and state from the address text when the
// document did not carry them separately.
func deriveFromAddress(set ExtractedFieldSet) {
	address, ok := set[fields.Address]
	if !ok {
		return
	}

	if _, found := set[fields.Pincode]; !found {
		if match := pincodeInText.FindStringSubmatch(address.Value); match != nil {
			set[fields.Pincode] = ExtractedField{
				Value:      normalizers.NormalizePincode(match[1]),
				Confidence: DerivedConfidence,
				Source:     SourceDerived,
			}
		}
	}

	if _, found := set[fields.State]; !found {
		if state := findState(address.Value); state != "" {
			set[fields.State] = ExtractedField{
				Value:      stateTitle.String(state),
				Confidence: DerivedConfidence,
				Source:     SourceDerived,
			}
		}
	}
}

func findState(address string) string {
	padded := " " + normalizers.NormalizeText(address) + " "
	for _, state := range indianStates {
		if strings.Contains(padded, " "+normalizers.NormalizeText(state)+" ") {
			return state
		}
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
