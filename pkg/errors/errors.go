package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// Stages at which a verification request can be rejected.
const (
	StageRequest   = "request"
	StageMapping   = "mapping"
	StageWeights   = "weights"
	StageReference = "reference_date"
	StageStream    = "stream"
)

// VerificationError describes a rejected verification input. Mapping,
// normalization and scoring never fail, so every VerificationError is a
// client error.
type VerificationError struct {
	Field    string
	Stage    string
	Document string
	Message  string
	cause    error
}

func NewVerificationError(msg string) *VerificationError {
	return &VerificationError{Message: msg}
}

// NewVerificationErrorf creates a VerificationError with a formatted message.
// An error argument matched by %w is kept as the cause.
func NewVerificationErrorf(format string, args ...any) *VerificationError {
	wrapped := fmt.Errorf(format, args...)
	return &VerificationError{
		Message: wrapped.Error(),
		cause:   errors.Unwrap(wrapped),
	}
}

// WrapVerificationError returns err as a VerificationError, keeping err as the
// cause. nil stays nil.
func WrapVerificationError(err error) *VerificationError {
	if err == nil {
		return nil
	}

	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr
	}

	return &VerificationError{Message: err.Error(), cause: err}
}

func (e *VerificationError) Error() string {
	path := []string{}
	if e.Document != "" {
		path = append(path, fmt.Sprintf("document '%s'", e.Document))
	}
	if e.Stage != "" {
		path = append(path, fmt.Sprintf("stage '%s'", e.Stage))
	}
	if e.Field != "" {
		path = append(path, fmt.Sprintf("field '%s'", e.Field))
	}

	if len(path) == 0 {
		return e.Message
	}

	return strings.Join(path, " -> ") + ": " + e.Message
}

func (e *VerificationError) Unwrap() error {
	return e.cause
}

func (e *VerificationError) AddField(field string) *VerificationError {
	e.Field = field
	return e
}

func (e *VerificationError) AddStage(stage string) *VerificationError {
	e.Stage = stage
	return e
}

func (e *VerificationError) AddDocument(documentID string) *VerificationError {
	e.Document = documentID
	return e
}

func (e *VerificationError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadRequest, e.Error()).
		AddMetaValue("field", e.Field).
		AddMetaValue("stage", e.Stage).
		AddMetaValue("document_id", e.Document)
}

func IsVerificationError(err error) bool {
	var verr *VerificationError
	return errors.As(err, &verr)
}
