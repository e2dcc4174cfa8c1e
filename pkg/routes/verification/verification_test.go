package verification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/iris/pkg/middleware"
	"github.com/Ramsey-B/iris/pkg/verification"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	verifier, err := verification.NewVerifier(verification.DefaultConfig(), logger)
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	NewHandler(verifier).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func TestMapFieldsRoute(t *testing.T) {
	e := newTestServer(t)

	t.Run("should map labelled text", func(t *testing.T) {
		var res MapFieldsResponse
		rec := do(t, e, http.MethodPost, "/api/v1/map-fields", `{"raw_text":"Name: John Smith\nDOB: 01/02/1990","document_type":null}`, &res)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "John Smith", res.Fields["name"].Value)
		assert.Equal(t, 1.0, res.Fields["name"].Confidence)
		assert.Equal(t, "1990-02-01", res.Fields["dob"].Value)
	})

	t.Run("should filter by document type", func(t *testing.T) {
		var res MapFieldsResponse
		rec := do(t, e, http.MethodPost, "/api/v1/map-fields", `{"raw_text":"Name: John Smith\nDOB: 01/02/1990\nAddress: 12 Elm St","document_type":"dl"}`, &res)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, res.Fields, 1)
		assert.Equal(t, "12 Elm St", res.Fields["address"].Value)
	})

	t.Run("should reject unknown document types", func(t *testing.T) {
		var res middleware.ErrorResponse
		rec := do(t, e, http.MethodPost, "/api/v1/map-fields", `{"raw_text":"Name: John","document_type":"selfie"}`, &res)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "document_type", res.Meta["field"])
		assert.NotEmpty(t, res.Meta["supported"])
	})

	t.Run("should reject a missing raw text", func(t *testing.T) {
		rec := do(t, e, http.MethodPost, "/api/v1/map-fields", `{}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVerifyRoute(t *testing.T) {
	e := newTestServer(t)

	t.Run("should verify plain and extracted values", func(t *testing.T) {
		body := `{
			"extracted_fields": {"name": {"value": "John Smith", "confidence": 1.0}, "dob": "1990-02-01"},
			"user_record": {"full_name": "John Smith", "date_of_birth": "01/02/1990"}
		}`

		var res verification.Result
		rec := do(t, e, http.MethodPost, "/api/v1/verify", body, &res)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]float64{"name": 1.0, "dob": 1.0}, res.FieldScores)
		assert.Equal(t, verification.DecisionMatch, res.Decision)
	})

	t.Run("should report insufficient data", func(t *testing.T) {
		var res verification.Result
		rec := do(t, e, http.MethodPost, "/api/v1/verify", `{"extracted_fields":{"name":"John"},"user_record":{"dob":"1990-02-01"}}`, &res)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, verification.DecisionInsufficientData, res.Decision)
		assert.Equal(t, 0.0, res.OverallScore)
	})

	t.Run("should reject negative weights", func(t *testing.T) {
		rec := do(t, e, http.MethodPost, "/api/v1/verify", `{"extracted_fields":{"name":"John"},"user_record":{"name":"John"},"weights":{"name":-1}}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should reject malformed reference dates", func(t *testing.T) {
		rec := do(t, e, http.MethodPost, "/api/v1/verify", `{"extracted_fields":{"name":"John"},"user_record":{"name":"John"},"reference_date":"yesterday"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should note age mismatches against the reference date", func(t *testing.T) {
		body := `{"extracted_fields":{"dob":"1990-02-01","age":45},"user_record":{"dob":"1990-02-01"},"reference_date":"2026-10-16"}`

		var res verification.Result
		rec := do(t, e, http.MethodPost, "/api/v1/verify", body, &res)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, res.Notes, "age_mismatch(stated=45, derived=36)")
	})
}

func TestMapAndVerifyRoute(t *testing.T) {
	e := newTestServer(t)

	var res verification.MappedResult
	rec := do(t, e, http.MethodPost, "/api/v1/map-and-verify",
		`{"raw_text":"Name: John Smith\nDOB: 01/02/1990","user_record":{"name":"John Smith","dob":"1990-02-01"}}`, &res)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, res.Verification.OverallScore)
	assert.Equal(t, verification.DecisionMatch, res.Verification.Decision)
	assert.Equal(t, "John Smith", res.Fields["name"].Value)
}

func TestVerifyBatchRoute(t *testing.T) {
	e := newTestServer(t)

	t.Run("should key results by document id", func(t *testing.T) {
		body := `{
			"user_record": {"name": "John Smith", "address": "12 Elm Street"},
			"documents": [
				{"id": "pan", "raw_text": "Name: John Smith", "document_type": "pan"},
				{"id": "bill", "raw_text": "Address: 12 Elm St", "document_type": "utility_bill"}
			]
		}`

		var res BatchResponse
		rec := do(t, e, http.MethodPost, "/api/v1/verify/batch", body, &res)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, res.Results, 2)
		assert.Equal(t, verification.DecisionMatch, res.Results["pan"].Verification.Decision)
		assert.Equal(t, verification.DecisionMatch, res.Results["bill"].Verification.Decision)
	})

	t.Run("should reject an empty batch", func(t *testing.T) {
		rec := do(t, e, http.MethodPost, "/api/v1/verify/batch", `{"user_record":{"name":"x"},"documents":[]}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExampleRoute(t *testing.T) {
	e := newTestServer(t)

	var res verification.MappedResult
	rec := do(t, e, http.MethodGet, "/api/v1/verify/example", "", &res)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, verification.DecisionMatch, res.Verification.Decision)
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"name":"John","age":34,"dob":{"value":"1990-02-01","confidence":0.7},"email":null}`), &r)
	require.NoError(t, err)

	assert.Equal(t, Record{"name": "John", "age": "34", "dob": "1990-02-01", "email": ""}, r)

	assert.Error(t, json.Unmarshal([]byte(`{"name":["a"]}`), &r))
}
