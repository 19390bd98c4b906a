package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	rr := httptest.NewRecorder()
	RecoveryMiddleware(zap.New(core))(handler).ServeHTTP(rr, httptest.NewRequest("GET", "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic", logs.All()[0].Message)
	assert.Equal(t, "/boom", logs.All()[0].ContextMap()["path"])
}

func TestRecoveryMiddleware_NoPanic(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	RecoveryMiddleware(zap.NewNop())(handler).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	NotFoundHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	MethodNotAllowedHandler().ServeHTTP(rr, httptest.NewRequest("PUT", "/api/cart", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
