package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/iris/pkg/mapper"
	"github.com/Ramsey-B/iris/pkg/verification"
)

const (
	HeaderRequestID    = "request_id"
	HeaderDocumentType = "document_type"
	HeaderDecision     = "decision"
	HeaderTraceParent  = "traceparent"
	HeaderTraceState   = "tracestate"
)

// VerificationMessage is published for every verified request.
type VerificationMessage struct {
	RequestID     string                   `json:"request_id"`
	DocumentType  string                   `json:"document_type"`
	Timestamp     time.Time                `json:"timestamp"`
	DurationMs    int64                    `json:"duration_ms"`
	Fields        mapper.ExtractedFieldSet `json:"fields"`
	MissingFields []string                 `json:"missing_fields"`
	Verification  verification.Result      `json:"verification"`

	TraceParent string `json:"-"`
	TraceState  string `json:"-"`
}

func (m *VerificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *VerificationMessage) Headers() MessageHeaders {
	return MessageHeaders{
		RequestID:    m.RequestID,
		DocumentType: m.DocumentType,
		Decision:     string(m.Verification.Decision),
		TraceParent:  m.TraceParent,
		TraceState:   m.TraceState,
	}
}

// ErrorMessage is published for requests that could not be verified. The
// original payload is carried so the request can be replayed.
type ErrorMessage struct {
	RequestID string          `json:"request_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Error     string          `json:"error"`
	Stage     string          `json:"stage,omitempty"`
	Field     string          `json:"field,omitempty"`
	Topic     string          `json:"topic"`
	Partition int             `json:"partition"`
	Offset    int64           `json:"offset"`
	Payload   json.RawMessage `json:"payload,omitempty"`

	TraceParent string `json:"-"`
	TraceState  string `json:"-"`
}

func (m *ErrorMessage) ToJSON() ([]byte, error) {
	if len(m.Payload) > 0 && !json.Valid(m.Payload) {
		raw, err := json.Marshal(string(m.Payload))
		if err != nil {
			return nil, err
		}
		clone := *m
		clone.Payload = raw
		return json.Marshal(&clone)
	}
	return json.Marshal(m)
}

func (m *ErrorMessage) Headers() MessageHeaders {
	return MessageHeaders{
		RequestID:   m.RequestID,
		TraceParent: m.TraceParent,
		TraceState:  m.TraceState,
	}
}

// MessageHeaders are the Kafka headers set on published messages
type MessageHeaders struct {
	RequestID    string
	DocumentType string
	Decision     string
	TraceParent  string
	TraceState   string
}

// ToKafkaHeaders returns the non-empty headers
func (h *MessageHeaders) ToKafkaHeaders() []Header {
	headers := make([]Header, 0, 5)

	if h.RequestID != "" {
		headers = append(headers, Header{Key: HeaderRequestID, Value: []byte(h.RequestID)})
	}
	if h.DocumentType != "" {
		headers = append(headers, Header{Key: HeaderDocumentType, Value: []byte(h.DocumentType)})
	}
	if h.Decision != "" {
		headers = append(headers, Header{Key: HeaderDecision, Value: []byte(h.Decision)})
	}
	if h.TraceParent != "" {
		headers = append(headers, Header{Key: HeaderTraceParent, Value: []byte(h.TraceParent)})
	}
	if h.TraceState != "" {
		headers = append(headers, Header{Key: HeaderTraceState, Value: []byte(h.TraceState)})
	}

	return headers
}

// Header represents a Kafka message header
type Header struct {
	Key   string
	Value []byte
}

// ExtractHeaders extracts MessageHeaders from Kafka headers
func ExtractHeaders(headers []Header) MessageHeaders {
	var mh MessageHeaders
	for _, h := range headers {
		switch h.Key {
		case HeaderRequestID:
			mh.RequestID = string(h.Value)
		case HeaderDocumentType:
			mh.DocumentType = string(h.Value)
		case HeaderDecision:
			mh.Decision = string(h.Value)
		case HeaderTraceParent:
			mh.TraceParent = string(h.Value)
		case HeaderTraceState:
			mh.TraceState = string(h.Value)
		}
	}
	return mh
}
