package processor

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	irisctx "github.com/Ramsey-B/iris/pkg/context"
	"github.com/Ramsey-B/iris/pkg/errors"
	"github.com/Ramsey-B/iris/pkg/kafka"
	"github.com/Ramsey-B/iris/pkg/mapper"
	"github.com/Ramsey-B/iris/pkg/metrics"
	"github.com/Ramsey-B/iris/pkg/normalizers"
	"github.com/Ramsey-B/iris/pkg/tracing"
	"github.com/Ramsey-B/iris/pkg/verification"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Paths are the JMESPath expressions that locate request values in a stream
// message.
type Paths struct {
	RawText       string
	DocumentType  string
	UserRecord    string
	ReferenceDate string
	RequestID     string
}

// ProcessorConfig configures the message processor
type ProcessorConfig struct {
	// ProcessTimeout bounds the verification of a single message
	ProcessTimeout time.Duration

	Paths Paths
}

// DefaultProcessorConfig returns a ProcessorConfig that reads the flat
// request envelope.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		ProcessTimeout: 30 * time.Second,
		Paths: Paths{
			RawText:       "raw_text",
			DocumentType:  "document_type",
			UserRecord:    "user_record",
			ReferenceDate: "reference_date",
			RequestID:     "request_id",
		},
	}
}

// Publisher delivers processor output. *kafka.Producer implements it.
type Publisher interface {
	PublishResult(ctx context.Context, msg *kafka.VerificationMessage) error
	PublishError(ctx context.Context, msg *kafka.ErrorMessage) error
}

// Processor verifies requests read from the stream and publishes the results
type Processor struct {
	config    ProcessorConfig
	verifier  *verification.Verifier
	publisher Publisher
	evaluator *Evaluator
	logger    ectologger.Logger

	messagesProcessed int64
	messagesFailed    int64
	messagesSkipped   int64
	lastError         string
	mu                sync.Mutex
}

// NewProcessor creates a processor. Every configured path is compiled up
// front so a bad expression fails at startup rather than per message.
func NewProcessor(config ProcessorConfig, verifier *verification.Verifier, publisher Publisher, logger ectologger.Logger) (*Processor, error) {
	if config.Paths.RawText == "" {
		return nil, fmt.Errorf("raw text path is required")
	}

	evaluator := NewEvaluator()
	for _, path := range []string{
		config.Paths.RawText,
		config.Paths.DocumentType,
		config.Paths.UserRecord,
		config.Paths.ReferenceDate,
		config.Paths.RequestID,
	} {
		if path == "" {
			continue
		}
		if err := evaluator.Compile(path); err != nil {
			return nil, fmt.Errorf("invalid stream path %q: %w", path, err)
		}
	}

	return &Processor{
		config:    config,
		verifier:  verifier,
		publisher: publisher,
		evaluator: evaluator,
		logger:    logger,
	}, nil
}

// Request is a verification request decoded from a stream message
type Request struct {
	RequestID     string
	RawText       string
	DocumentType  mapper.DocumentType
	UserRecord    map[string]string
	ReferenceDate time.Time
}

// Decode reads a Request out of a message payload using the configured paths
func (p *Processor) Decode(msg *kafka.ReceivedMessage) (Request, error) {
	if msg.Data == nil {
		return Request{}, errors.NewVerificationError("payload is not a JSON object").AddStage(errors.StageStream)
	}

	var req Request
	var err error

	req.RequestID, err = p.optionalString(p.config.Paths.RequestID, msg.Data)
	if err != nil {
		return Request{}, errors.WrapVerificationError(err).AddStage(errors.StageStream).AddField("request_id")
	}
	if req.RequestID == "" {
		req.RequestID = msg.Headers.RequestID
	}
	if req.RequestID == "" {
		req.RequestID = string(msg.Key)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	req.RawText, err = p.evaluator.EvaluateString(p.config.Paths.RawText, msg.Data)
	if err != nil {
		return req, errors.WrapVerificationError(err).AddStage(errors.StageStream).AddField("raw_text")
	}

	docType, err := p.optionalString(p.config.Paths.DocumentType, msg.Data)
	if err != nil {
		return req, errors.WrapVerificationError(err).AddStage(errors.StageStream).AddField("document_type")
	}
	if req.DocumentType, err = mapper.ParseDocumentType(docType); err != nil {
		return req, errors.WrapVerificationError(err).AddStage(errors.StageMapping).AddField("document_type")
	}

	if p.config.Paths.UserRecord != "" {
		req.UserRecord, err = p.evaluator.EvaluateRecord(p.config.Paths.UserRecord, msg.Data)
		if err != nil {
			return req, errors.WrapVerificationError(err).AddStage(errors.StageStream).AddField("user_record")
		}
	}

	reference, err := p.optionalString(p.config.Paths.ReferenceDate, msg.Data)
	if err != nil {
		return req, errors.WrapVerificationError(err).AddStage(errors.StageReference).AddField("reference_date")
	}
	if strings.TrimSpace(reference) != "" {
		date, ok := normalizers.ParseISODate(strings.TrimSpace(reference))
		if !ok {
			return req, errors.NewVerificationErrorf("reference date %q is not YYYY-MM-DD", reference).
				AddStage(errors.StageReference).AddField("reference_date")
		}
		req.ReferenceDate = date
	}

	return req, nil
}

func (p *Processor) optionalString(path string, data any) (string, error) {
	if path == "" {
		return "", nil
	}
	return p.evaluator.EvaluateString(path, data)
}

// ProcessMessage verifies one stream message and publishes the outcome.
// Requests that cannot be verified are published to the error topic; the
// returned error reports that failure to the caller.
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.ReceivedMessage) error {
	ctx = tracing.Extract(ctx, msg.Headers.TraceParent, msg.Headers.TraceState)
	ctx, span := tracing.StartSpan(ctx, "processor.ProcessMessage",
		attribute.String("messaging.source", msg.Topic),
		attribute.Int64("messaging.offset", msg.Offset),
	)
	defer span.End()

	if len(msg.Value) == 0 {
		p.recordSkipped()
		p.logger.WithContext(ctx).Debugf("Skipping empty message at offset %d", msg.Offset)
		return nil
	}

	metrics.StreamMessagesInFlight.Inc()
	defer metrics.StreamMessagesInFlight.Dec()

	if p.config.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.ProcessTimeout)
		defer cancel()
	}

	start := time.Now()
	req, err := p.Decode(msg)
	if req.RequestID != "" {
		ctx = irisctx.SetRequestID(ctx, req.RequestID)
		span.SetAttributes(attribute.String("request_id", req.RequestID))
	}
	if err != nil {
		tracing.RecordError(span, err)
		p.fail(ctx, msg, req.RequestID, err)
		return err
	}
	ctx = irisctx.SetDocumentType(ctx, string(req.DocumentType))

	result, err := p.verifier.MapAndVerify(ctx, req.RawText, req.DocumentType, req.UserRecord, verification.Options{ReferenceDate: req.ReferenceDate})
	if err != nil {
		tracing.RecordError(span, err)
		p.fail(ctx, msg, req.RequestID, err)
		return err
	}

	out := &kafka.VerificationMessage{
		RequestID:     req.RequestID,
		DocumentType:  string(req.DocumentType),
		Timestamp:     time.Now().UTC(),
		DurationMs:    time.Since(start).Milliseconds(),
		Fields:        result.Fields,
		MissingFields: result.MissingFields,
		Verification:  result.Verification,
		TraceParent:   tracing.GetTraceParent(ctx),
		TraceState:    tracing.GetTraceState(ctx),
	}

	if err := p.publisher.PublishResult(ctx, out); err != nil {
		err = fmt.Errorf("failed to publish verification result: %w", err)
		tracing.RecordError(span, err)
		p.fail(ctx, msg, req.RequestID, err)
		return err
	}

	p.recordProcessed()
	p.logger.WithContext(ctx).WithFields(map[string]any{
		"request_id":    req.RequestID,
		"decision":      result.Verification.Decision,
		"overall_score": result.Verification.OverallScore,
		"duration_ms":   out.DurationMs,
	}).Info("Verified stream message")

	return nil
}

func (p *Processor) fail(ctx context.Context, msg *kafka.ReceivedMessage, requestID string, err error) {
	p.recordFailed(err)

	errorMsg := &kafka.ErrorMessage{
		RequestID:   requestID,
		Timestamp:   time.Now().UTC(),
		Error:       err.Error(),
		Topic:       msg.Topic,
		Partition:   msg.Partition,
		Offset:      msg.Offset,
		Payload:     json.RawMessage(msg.Value),
		TraceParent: tracing.GetTraceParent(ctx),
		TraceState:  tracing.GetTraceState(ctx),
	}

	var verr *errors.VerificationError
	if stderrors.As(err, &verr) {
		errorMsg.Stage = verr.Stage
		errorMsg.Field = verr.Field
	}

	p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
		"request_id": requestID,
		"offset":     msg.Offset,
		"stage":      errorMsg.Stage,
	}).Warn("Failed to verify stream message")

	// The error topic is fed from a fresh context so a timed-out request is
	// still reported.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if pubErr := p.publisher.PublishError(pubCtx, errorMsg); pubErr != nil {
		p.logger.WithContext(ctx).WithError(pubErr).Error("Failed to publish verification error message")
	}
}

// MessageHandler returns a kafka.MessageHandler for use with the consumer
func (p *Processor) MessageHandler() kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.ReceivedMessage) error {
		return p.ProcessMessage(ctx, msg)
	}
}

func (p *Processor) recordProcessed() {
	metrics.RecordStreamMessage(metrics.StatusSuccess)
	p.mu.Lock()
	p.messagesProcessed++
	p.mu.Unlock()
}

func (p *Processor) recordFailed(err error) {
	metrics.RecordStreamMessage(metrics.StatusFailed)
	p.mu.Lock()
	p.messagesFailed++
	p.lastError = err.Error()
	p.mu.Unlock()
}

func (p *Processor) recordSkipped() {
	metrics.RecordStreamMessage(metrics.StatusSkipped)
	p.mu.Lock()
	p.messagesSkipped++
	p.mu.Unlock()
}

// Stats returns processor statistics
type Stats struct {
	MessagesProcessed int64  `json:"messages_processed"`
	MessagesFailed    int64  `json:"messages_failed"`
	MessagesSkipped   int64  `json:"messages_skipped"`
	LastError         string `json:"last_error,omitempty"`
}

func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		MessagesProcessed: p.messagesProcessed,
		MessagesFailed:    p.messagesFailed,
		MessagesSkipped:   p.messagesSkipped,
		LastError:         p.lastError,
	}
}
