package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestChecker(t *testing.T) {
	t.Run("should report healthy without failing checks", func(t *testing.T) {
		c := NewChecker("1.2.3")
		c.AddCheck("verifier", func(context.Context) error { return nil })
		e := echo.New()
		c.RegisterRoutes(e)

		rec := get(e, "/api/v1/health")
		require.Equal(t, http.StatusOK, rec.Code)

		var status HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, StatusHealthy, status.Status)
		assert.Equal(t, "1.2.3", status.Version)
		assert.Equal(t, StatusHealthy, status.Checks["verifier"].Status)
	})

	t.Run("should report unhealthy when a check fails", func(t *testing.T) {
		c := NewChecker("dev")
		c.AddCheck("kafka", func(context.Context) error { return errors.New("no brokers") })

		status := c.Run(context.Background())
		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Equal(t, "no brokers", status.Checks["kafka"].Message)

		e := echo.New()
		c.RegisterRoutes(e)
		assert.Equal(t, http.StatusServiceUnavailable, get(e, "/api/v1/health").Code)
	})

	t.Run("should follow readiness", func(t *testing.T) {
		c := NewChecker("dev")
		e := echo.New()
		c.RegisterRoutes(e)

		assert.Equal(t, http.StatusServiceUnavailable, get(e, "/api/v1/health/ready").Code)
		c.SetReady(true)
		assert.Equal(t, http.StatusOK, get(e, "/api/v1/health/ready").Code)
		assert.Equal(t, http.StatusOK, get(e, "/api/v1/health/live").Code)
	})
}
