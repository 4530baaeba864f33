package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (s stubChecker) CheckReadiness(context.Context) error {
	return s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s := NewServer(":0", testLogger())

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("all checkers pass", func(t *testing.T) {
		s := NewServer(":0", testLogger(), stubChecker{}, stubChecker{})

		rec := get(t, s, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("one failing checker makes the service unready", func(t *testing.T) {
		s := NewServer(":0", testLogger(), stubChecker{}, stubChecker{err: errors.New("kafka unreachable")})

		rec := get(t, s, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "kafka unreachable")
	})

	t.Run("no checkers means ready", func(t *testing.T) {
		s := NewServer(":0", testLogger())

		rec := get(t, s, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(":0", testLogger())

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	s := NewServer(":0", testLogger())

	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
