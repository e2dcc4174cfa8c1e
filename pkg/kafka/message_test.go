package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Ramsey-B/iris/pkg/mapper"
	"github.com/Ramsey-B/iris/pkg/verification"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationMessage(t *testing.T) {
	msg := &VerificationMessage{
		RequestID:    "req-1",
		DocumentType: "aadhaar",
		Timestamp:    time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		DurationMs:   12,
		Fields: mapper.ExtractedFieldSet{
			"name": {Value: "Ramesh Kumar", Confidence: 1, Source: mapper.SourcePattern},
		},
		MissingFields: []string{"dob"},
		Verification: verification.Result{
			FieldScores:  map[string]float64{"name": 1},
			OverallScore: 1,
			Decision:     verification.DecisionMatch,
			Notes:        []string{},
		},
		TraceParent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	}

	t.Run("should serialize the verification payload", func(t *testing.T) {
		data, err := msg.ToJSON()
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "req-1", decoded["request_id"])
		assert.Equal(t, "MATCH", decoded["verification"].(map[string]any)["decision"])
		assert.NotContains(t, decoded, "TraceParent")
	})

	t.Run("should carry decision and trace headers", func(t *testing.T) {
		headers := msg.Headers()
		assert.Equal(t, "MATCH", headers.Decision)
		assert.Equal(t, msg.TraceParent, headers.TraceParent)
		assert.Len(t, headers.ToKafkaHeaders(), 4)
	})
}

func TestErrorMessage(t *testing.T) {
	t.Run("should embed a JSON payload as-is", func(t *testing.T) {
		msg := &ErrorMessage{Error: "boom", Payload: json.RawMessage(`{"raw_text":"x"}`)}
		data, err := msg.ToJSON()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"payload":{"raw_text":"x"}`)
	})

	t.Run("should quote a payload that is not JSON", func(t *testing.T) {
		msg := &ErrorMessage{Error: "boom", Payload: json.RawMessage("not json")}
		data, err := msg.ToJSON()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"payload":"not json"`)
	})
}

func TestHeaders(t *testing.T) {
	t.Run("should round trip through kafka headers", func(t *testing.T) {
		headers := MessageHeaders{
			RequestID:   "req-1",
			TraceParent: "00-abc-def-01",
			TraceState:  "vendor=1",
		}

		extracted := ExtractHeaders(headers.ToKafkaHeaders())
		assert.Equal(t, headers, extracted)
	})

	t.Run("should skip empty headers", func(t *testing.T) {
		headers := MessageHeaders{}
		assert.Empty(t, headers.ToKafkaHeaders())
	})
}

func TestToReceivedMessage(t *testing.T) {
	t.Run("should decode JSON payloads and headers", func(t *testing.T) {
		received := toReceivedMessage(kafkago.Message{
			Topic:   "verification-requests",
			Offset:  7,
			Value:   []byte(`{"raw_text":"Name: Ramesh"}`),
			Headers: []kafkago.Header{{Key: HeaderRequestID, Value: []byte("req-1")}},
		})

		assert.Equal(t, int64(7), received.Offset)
		assert.Equal(t, "req-1", received.Headers.RequestID)
		assert.Equal(t, "Name: Ramesh", received.Data["raw_text"])
	})

	t.Run("should leave data nil for invalid JSON", func(t *testing.T) {
		received := toReceivedMessage(kafkago.Message{Value: []byte("garbage")})
		assert.Nil(t, received.Data)
		assert.Equal(t, []byte("garbage"), received.Value)
	})
}

func TestConfig(t *testing.T) {
	t.Run("should default to verification topics", func(t *testing.T) {
		assert.Equal(t, "verification-requests", DefaultConsumerConfig().Topic)
		assert.Equal(t, "verification-results", DefaultProducerConfig().Topic)
		assert.Equal(t, "verification-errors", DefaultProducerConfig().ErrorTopic)
	})

	t.Run("should reject missing brokers", func(t *testing.T) {
		cfg := DefaultConsumerConfig()
		cfg.Brokers = nil
		_, err := NewConsumer(cfg, nil)
		assert.Error(t, err)

		pcfg := DefaultProducerConfig()
		pcfg.Brokers = nil
		_, err = NewProducer(pcfg, nil)
		assert.Error(t, err)
	})

	t.Run("should map compression names", func(t *testing.T) {
		assert.Equal(t, kafkago.Snappy, compressionCodec("snappy"))
		assert.Equal(t, kafkago.Compression(0), compressionCodec("none"))
	})
}
