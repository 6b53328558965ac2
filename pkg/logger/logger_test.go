package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := log
	log = zap.New(core)
	t.Cleanup(func() { log = prev })
	return logs
}

func TestMiddlewareLogsByStatus(t *testing.T) {
	logs := observe(t)

	e := echo.New()
	e.Use(Middleware())
	e.GET("/ok", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("boom")
	})

	tests := []struct {
		path   string
		status int
		level  zapcore.Level
	}{
		{"/ok", http.StatusNoContent, zapcore.InfoLevel},
		{"/missing", http.StatusNotFound, zapcore.WarnLevel},
		{"/boom", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			logs.TakeAll()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(RequestIDHeader, "req-"+tt.path)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)

			access := logs.FilterMessage("HTTP Request").All()
			require.Len(t, access, 1)
			assert.Equal(t, tt.level, access[0].Level)
			assert.Equal(t, "req-"+tt.path, access[0].ContextMap()["request_id"])
			assert.EqualValues(t, tt.status, access[0].ContextMap()["status"])
		})
	}
}

func TestHandlerLoggersCarryRequestID(t *testing.T) {
	logs := observe(t)

	e := echo.New()
	e.Use(Middleware())
	e.GET("/", func(c echo.Context) error {
		FromEcho(c).Info("from echo")
		FromContext(c.Request().Context()).Info("from context")
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	e.ServeHTTP(httptest.NewRecorder(), req)

	for _, msg := range []string{"from echo", "from context"} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	observe(t)
	assert.Same(t, GetLogger(), FromContext(context.Background()))
}
