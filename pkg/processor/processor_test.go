package processor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/Ramsey-B/iris/pkg/kafka"
	"github.com/Ramsey-B/iris/pkg/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPublisher struct {
	mu        sync.Mutex
	results   []*kafka.VerificationMessage
	failures  []*kafka.ErrorMessage
	resultErr error
}

func (m *memoryPublisher) PublishResult(_ context.Context, msg *kafka.VerificationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resultErr != nil {
		return m.resultErr
	}
	m.results = append(m.results, msg)
	return nil
}

func (m *memoryPublisher) PublishError(_ context.Context, msg *kafka.ErrorMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, msg)
	return nil
}

func newTestProcessor(t *testing.T, config ProcessorConfig) (*Processor, *memoryPublisher) {
	t.Helper()

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	verifier, err := verification.NewVerifier(verification.DefaultConfig(), logger)
	require.NoError(t, err)

	publisher := &memoryPublisher{}
	p, err := NewProcessor(config, verifier, publisher, logger)
	require.NoError(t, err)
	return p, publisher
}

func received(value string, data map[string]any) *kafka.ReceivedMessage {
	return &kafka.ReceivedMessage{
		Topic:  "verification-requests",
		Offset: 42,
		Value:  []byte(value),
		Data:   data,
	}
}

func TestProcessMessage(t *testing.T) {
	t.Run("should publish a verification result keyed by request id", func(t *testing.T) {
		p, publisher := newTestProcessor(t, DefaultProcessorConfig())

		msg := received(`{}`, map[string]any{
			"request_id": "req-1",
			"raw_text":   "Name: John Smith\nDOB: 01/02/1990",
			"user_record": map[string]any{
				"name": "John Smith",
				"dob":  map[string]any{"value": "1990-02-01", "confidence": 0.9},
			},
		})

		require.NoError(t, p.ProcessMessage(context.Background(), msg))
		require.Len(t, publisher.results, 1)

		out := publisher.results[0]
		assert.Equal(t, "req-1", out.RequestID)
		assert.Equal(t, verification.DecisionMatch, out.Verification.Decision)
		assert.Equal(t, map[string]float64{fields.Name: 1.0, fields.DOB: 1.0}, out.Verification.FieldScores)
		assert.Equal(t, int64(1), p.Stats().MessagesProcessed)
	})

	t.Run("should read values from nested envelopes", func(t *testing.T) {
		config := DefaultProcessorConfig()
		config.Paths = Paths{
			RawText:       "document.ocr.text",
			DocumentType:  "document.kind",
			UserRecord:    "applicant",
			ReferenceDate: "meta.as_of",
			RequestID:     "meta.id",
		}
		p, publisher := newTestProcessor(t, config)

		msg := received(`{}`, map[string]any{
			"meta":      map[string]any{"id": "req-2", "as_of": "2026-01-01"},
			"document":  map[string]any{"kind": "pan", "ocr": map[string]any{"text": "Name: John Smith\nDOB: 01/02/1990"}},
			"applicant": map[string]any{"name": "John Smith", "age": float64(35)},
		})

		require.NoError(t, p.ProcessMessage(context.Background(), msg))
		require.Len(t, publisher.results, 1)
		assert.Equal(t, "req-2", publisher.results[0].RequestID)
		assert.Equal(t, "pan", publisher.results[0].DocumentType)
		assert.Empty(t, publisher.results[0].Verification.Notes)
	})

	t.Run("should fall back to the message key for the request id", func(t *testing.T) {
		p, publisher := newTestProcessor(t, DefaultProcessorConfig())

		msg := received(`{}`, map[string]any{"raw_text": "Name: John Smith"})
		msg.Key = []byte("key-1")

		require.NoError(t, p.ProcessMessage(context.Background(), msg))
		assert.Equal(t, "key-1", publisher.results[0].RequestID)
	})

	t.Run("should route unknown document types to the error topic", func(t *testing.T) {
		p, publisher := newTestProcessor(t, DefaultProcessorConfig())

		msg := received(`{"raw_text":"x","document_type":"library_card"}`, map[string]any{
			"request_id":    "req-3",
			"raw_text":      "x",
			"document_type": "library_card",
		})

		assert.Error(t, p.ProcessMessage(context.Background(), msg))
		assert.Empty(t, publisher.results)
		require.Len(t, publisher.failures, 1)

		failure := publisher.failures[0]
		assert.Equal(t, "req-3", failure.RequestID)
		assert.Equal(t, "document_type", failure.Field)
		assert.Equal(t, int64(42), failure.Offset)
		assert.Equal(t, int64(1), p.Stats().MessagesFailed)
	})

	t.Run("should reject payloads that are not JSON objects", func(t *testing.T) {
		p, publisher := newTestProcessor(t, DefaultProcessorConfig())

		assert.Error(t, p.ProcessMessage(context.Background(), received("not json", nil)))
		require.Len(t, publisher.failures, 1)
		assert.Equal(t, "stream", publisher.failures[0].Stage)
	})

	t.Run("should reject malformed reference dates", func(t *testing.T) {
		p, publisher := newTestProcessor(t, DefaultProcessorConfig())

		msg := received(`{}`, map[string]any{"raw_text": "Name: John Smith", "reference_date": "01/01/2026"})
		assert.Error(t, p.ProcessMessage(context.Background(), msg))
		assert.Equal(t, "reference_date", publisher.failures[0].Stage)
	})

	t.Run("should report publish failures", func(t *testing.T) {
		p, publisher := newTestProcessor(t, DefaultProcessorConfig())
		publisher.resultErr = errors.New("broker down")

		msg := received(`{}`, map[string]any{"raw_text": "Name: John Smith"})
		assert.Error(t, p.ProcessMessage(context.Background(), msg))
		require.Len(t, publisher.failures, 1)
		assert.Contains(t, p.Stats().LastError, "broker down")
	})

	t.Run("should skip empty messages", func(t *testing.T) {
		p, publisher := newTestProcessor(t, DefaultProcessorConfig())

		assert.NoError(t, p.ProcessMessage(context.Background(), received("", nil)))
		assert.Empty(t, publisher.results)
		assert.Empty(t, publisher.failures)
		assert.Equal(t, int64(1), p.Stats().MessagesSkipped)
	})
}

func TestNewProcessor(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	t.Run("should reject invalid paths", func(t *testing.T) {
		config := DefaultProcessorConfig()
		config.Paths.UserRecord = "applicant.[["
		_, err := NewProcessor(config, nil, &memoryPublisher{}, logger)
		assert.Error(t, err)
	})

	t.Run("should require a raw text path", func(t *testing.T) {
		config := DefaultProcessorConfig()
		config.Paths.RawText = ""
		_, err := NewProcessor(config, nil, &memoryPublisher{}, logger)
		assert.Error(t, err)
	})
}

func TestEvaluator(t *testing.T) {
	e := NewEvaluator()
	data := map[string]any{
		"count": float64(25),
		"flag":  true,
		"list":  []any{"a"},
		"record": map[string]any{
			"name":  "John",
			"age":   float64(30),
			"phone": map[string]any{"value": "9876543210"},
		},
	}

	tests := []struct {
		name       string
		expression string
		expected   string
		wantErr    bool
	}{
		{"should render numbers without exponent", "count", "25", false},
		{"should render booleans", "flag", "true", false},
		{"should return empty for missing values", "missing", "", false},
		{"should reject non-scalar selections", "list", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EvaluateString(tt.expression, data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("should flatten records with wrapped values", func(t *testing.T) {
		record, err := e.EvaluateRecord("record", data)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"name": "John", "age": "30", "phone": "9876543210"}, record)
	})

	t.Run("should reject records that are not objects", func(t *testing.T) {
		_, err := e.EvaluateRecord("count", data)
		assert.Error(t, err)
	})
}
