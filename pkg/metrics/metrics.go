// Package metrics provides Prometheus metrics for the iris service.
package metrics

import (
	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerificationsTotal tracks verifications by decision
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "verification",
			Name:      "decisions_total",
			Help:      "Total number of verifications by decision",
		},
		[]string{"decision"},
	)

	// VerificationDuration tracks time spent scoring a document
	VerificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "iris",
			Subsystem: "verification",
			Name:      "duration_seconds",
			Help:      "Duration of a single verification in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	// OverallScore tracks the distribution of overall scores
	OverallScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "iris",
			Subsystem: "verification",
			Name:      "overall_score",
			Help:      "Distribution of overall verification scores",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	// FieldScore tracks the distribution of per-field scores
	FieldScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iris",
			Subsystem: "verification",
			Name:      "field_score",
			Help:      "Distribution of per-field similarity scores",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
		[]string{"field"},
	)

	// VerificationNotesTotal tracks informational notes by kind
	VerificationNotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "verification",
			Name:      "notes_total",
			Help:      "Total number of verification notes by kind",
		},
		[]string{"kind"},
	)

	// FieldsExtractedTotal tracks fields read off documents
	FieldsExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "mapper",
			Name:      "fields_extracted_total",
			Help:      "Total number of fields extracted by field and source",
		},
		[]string{"field", "source"},
	)

	// BatchSize tracks the number of documents per batch verification
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "iris",
			Subsystem: "batch",
			Name:      "documents",
			Help:      "Number of documents per batch verification",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	// StreamMessagesTotal tracks stream messages by outcome
	StreamMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "stream",
			Name:      "messages_total",
			Help:      "Total number of stream messages processed by status",
		},
		[]string{"status"},
	)

	// StreamMessagesInFlight tracks messages currently being processed
	StreamMessagesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "iris",
			Subsystem: "stream",
			Name:      "messages_in_flight",
			Help:      "Number of stream messages currently being processed",
		},
	)
)

// Status label values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// FieldOther is the field label recorded for keys outside the field vocabulary.
const FieldOther = "other"

// FieldLabel bounds the field label to the known vocabulary.
func FieldLabel(field string) string {
	if fields.IsKnown(field) {
		return field
	}
	return FieldOther
}

// RecordVerification records the outcome of a single verification.
func RecordVerification(decision string, overall float64, fieldScores map[string]float64, seconds float64) {
	VerificationsTotal.WithLabelValues(decision).Inc()
	VerificationDuration.Observe(seconds)
	OverallScore.Observe(overall)
	for field, score := range fieldScores {
		FieldScore.WithLabelValues(FieldLabel(field)).Observe(score)
	}
}

// RecordNote records an informational verification note.
func RecordNote(kind string) {
	VerificationNotesTotal.WithLabelValues(kind).Inc()
}

// RecordExtractedField records a field read off a document.
func RecordExtractedField(field, source string) {
	FieldsExtractedTotal.WithLabelValues(FieldLabel(field), source).Inc()
}

// RecordStreamMessage records a processed stream message.
func RecordStreamMessage(status string) {
	StreamMessagesTotal.WithLabelValues(status).Inc()
}
