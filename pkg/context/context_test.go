package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	t.Run("should round trip request values", func(t *testing.T) {
		ctx := SetRequestID(context.Background(), "req-1")
		ctx = SetMethod(ctx, "POST")
		ctx = SetRoute(ctx, "/api/v1/verify")
		ctx = SetRemoteIP(ctx, "10.0.0.1")
		ctx = SetReferer(ctx, "https://example.org")
		ctx = SetDocumentID(ctx, "doc-1")
		ctx = SetDocumentType(ctx, "pan")

		assert.Equal(t, "req-1", GetRequestID(ctx))
		assert.Equal(t, "POST", GetMethod(ctx))
		assert.Equal(t, "/api/v1/verify", GetRoute(ctx))
		assert.Equal(t, "10.0.0.1", GetRemoteIP(ctx))
		assert.Equal(t, "https://example.org", GetReferer(ctx))
		assert.Equal(t, "doc-1", GetDocumentID(ctx))
		assert.Equal(t, "pan", GetDocumentType(ctx))
	})

	t.Run("should return empty values for a bare context", func(t *testing.T) {
		assert.Empty(t, GetRequestID(context.Background()))
		assert.Empty(t, LogFields(context.Background()))
	})

	t.Run("should collect log fields", func(t *testing.T) {
		ctx := SetRequestID(context.Background(), "req-1")
		ctx = SetDocumentID(ctx, "doc-1")

		assert.Equal(t, map[string]any{
			"X-Request-Id":  "req-1",
			"X-Document-Id": "doc-1",
		}, LogFields(ctx))
	})
}
