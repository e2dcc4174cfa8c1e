package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/pkg/metrics"
	"github.com/Ramsey-B/iris/pkg/normalizers"
	"github.com/Ramsey-B/iris/pkg/routes/health"
	verificationroutes "github.com/Ramsey-B/iris/pkg/routes/verification"
	"github.com/Ramsey-B/iris/pkg/verification"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		AppName:            "iris-test",
		AppVersion:         "test",
		Port:               0,
		BodyLimit:          "2M",
		AllowOrigins:       []string{"*"},
		AllowMethods:       []string{"GET", "POST"},
		StartupMaxAttempts: 1,
		MetricsPath:        "/metrics",
		TraceExporter:      "none",
		DateOrder:          "day_first",
		BatchConcurrency:   2,
	}
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestLoadPolicy(t *testing.T) {
	t.Run("should apply date order and concurrency from the environment", func(t *testing.T) {
		cfg := testConfig()
		cfg.DateOrder = "month_first"

		policy, err := LoadPolicy(cfg)
		require.NoError(t, err)
		assert.Equal(t, normalizers.MonthFirst, policy.DateOrder)
		assert.Equal(t, 2, policy.BatchConcurrency)
	})

	t.Run("should reject unknown date orders", func(t *testing.T) {
		cfg := testConfig()
		cfg.DateOrder = "sideways"

		_, err := LoadPolicy(cfg)
		assert.Error(t, err)
	})

	t.Run("should read the policy file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  match: 0.9\n  review: 0.5\n"), 0o600))

		cfg := testConfig()
		cfg.VerificationConfigFile = path

		policy, err := LoadPolicy(cfg)
		require.NoError(t, err)
		assert.Equal(t, 0.9, policy.Thresholds.Match)
		assert.Equal(t, 0.5, policy.Thresholds.Review)
	})
}

func TestNewEcho(t *testing.T) {
	logger := testLogger()
	verifier, err := verification.NewVerifier(verification.DefaultConfig(), logger)
	require.NoError(t, err)

	checker := health.NewChecker("test")
	checker.AddCheck("verifier", VerifierCheck(verifier))
	e := NewEcho(testConfig(), verificationroutes.NewHandler(verifier), checker, logger)

	t.Run("should serve health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), health.StatusHealthy)
	})

	t.Run("should serve prometheus metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should serve the verification api", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/verify",
			strings.NewReader(`{"extracted_fields":{"name":"John Smith"},"user_record":{"name":"John Smith"}}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"MATCH"`)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestVerifierCheck(t *testing.T) {
	verifier, err := verification.NewVerifier(verification.DefaultConfig(), testLogger())
	require.NoError(t, err)
	check := VerifierCheck(verifier)

	t.Run("should pass for a working verifier", func(t *testing.T) {
		assert.NoError(t, check(context.Background()))
	})

	t.Run("should not record verification metrics", func(t *testing.T) {
		decisions := testutil.ToFloat64(metrics.VerificationsTotal.WithLabelValues(string(verification.DecisionMatch)))
		extracted := testutil.ToFloat64(metrics.FieldsExtractedTotal.WithLabelValues("name", "pattern"))

		for i := 0; i < 10; i++ {
			require.NoError(t, check(context.Background()))
		}

		assert.Equal(t, decisions, testutil.ToFloat64(metrics.VerificationsTotal.WithLabelValues(string(verification.DecisionMatch))))
		assert.Equal(t, extracted, testutil.ToFloat64(metrics.FieldsExtractedTotal.WithLabelValues("name", "pattern")))
	})

	t.Run("should fail on a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, check(ctx), context.Canceled)
	})
}

func TestNew(t *testing.T) {
	t.Run("should register kafka dependencies only when enabled", func(t *testing.T) {
		cfg := testConfig()
		s, err := New(cfg, testLogger())
		require.NoError(t, err)
		assert.NotNil(t, s.Echo())
		assert.Nil(t, s.consumer)
	})

	t.Run("should fail on an invalid policy file", func(t *testing.T) {
		cfg := testConfig()
		cfg.VerificationConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := New(cfg, testLogger())
		assert.Error(t, err)
	})
}
