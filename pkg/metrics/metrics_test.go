package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordVerification(t *testing.T) {
	t.Run("should count decisions and observe scores", func(t *testing.T) {
		before := testutil.ToFloat64(VerificationsTotal.WithLabelValues("MATCH"))
		beforeFields := testutil.CollectAndCount(FieldScore)

		RecordVerification("MATCH", 0.92, map[string]float64{"name": 1, "dob": 0.8}, 0.01)

		assert.Equal(t, before+1, testutil.ToFloat64(VerificationsTotal.WithLabelValues("MATCH")))
		assert.GreaterOrEqual(t, testutil.CollectAndCount(FieldScore), beforeFields)
		assert.GreaterOrEqual(t, testutil.CollectAndCount(FieldScore), 2)
	})

	t.Run("should fold unknown fields into a single series", func(t *testing.T) {
		RecordVerification("MATCH", 1, map[string]float64{"warmup_key": 1}, 0.01)
		before := testutil.CollectAndCount(FieldScore)

		for i := 0; i < 50; i++ {
			RecordVerification("MATCH", 1, map[string]float64{fmt.Sprintf("junk_%d", i): 1}, 0.01)
		}

		assert.Equal(t, before, testutil.CollectAndCount(FieldScore))
	})
}

func TestFieldLabel(t *testing.T) {
	tests := []struct {
		field    string
		expected string
	}{
		{"name", "name"},
		{"phone", "phone"},
		{"favourite_colour", FieldOther},
		{"", FieldOther},
	}

	for _, tt := range tests {
		t.Run("should label "+tt.field, func(t *testing.T) {
			assert.Equal(t, tt.expected, FieldLabel(tt.field))
		})
	}
}

func TestCounters(t *testing.T) {
	tests := []struct {
		name    string
		record  func()
		counter func() float64
	}{
		{
			name:    "should count notes by kind",
			record:  func() { RecordNote("age_mismatch") },
			counter: func() float64 { return testutil.ToFloat64(VerificationNotesTotal.WithLabelValues("age_mismatch")) },
		},
		{
			name:    "should count extracted fields by source",
			record:  func() { RecordExtractedField("name", "pattern") },
			counter: func() float64 { return testutil.ToFloat64(FieldsExtractedTotal.WithLabelValues("name", "pattern")) },
		},
		{
			name:    "should count stream messages by status",
			record:  func() { RecordStreamMessage(StatusFailed) },
			counter: func() float64 { return testutil.ToFloat64(StreamMessagesTotal.WithLabelValues(StatusFailed)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.counter()
			tt.record()
			assert.Equal(t, before+1, tt.counter())
		})
	}
}
