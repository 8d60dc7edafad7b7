package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prasetyowira/qrtag/constant"
	appLogger "github.com/prasetyowira/qrtag/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_SetsRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = appLogger.RequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	RequestLogger()(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(constant.HeaderRequestID))
}

func TestRequestLogger_ReusesIncomingRequestID(t *testing.T) {
	incoming := uuid.New().String()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, incoming, appLogger.RequestID(r.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constant.HeaderRequestID, incoming)
	w := httptest.NewRecorder()
	RequestLogger()(next).ServeHTTP(w, req)

	assert.Equal(t, incoming, w.Header().Get(constant.HeaderRequestID))
}

func TestRequestLogger_LogsCompletionLevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	appLogger.SetLogger(zap.New(core))
	t.Cleanup(func() { appLogger.SetLogger(nil) })

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/x", nil)
	RequestLogger()(next).ServeHTTP(httptest.NewRecorder(), req)

	completed := logs.FilterMessage(constant.MsgRequestCompleted).All()
	require.Len(t, completed, 1)
	assert.Equal(t, zapcore.WarnLevel, completed[0].Level)
	fields := completed[0].ContextMap()
	assert.EqualValues(t, http.StatusNotFound, fields[constant.DataStatus])
	assert.EqualValues(t, len("missing"), fields[constant.DataSize])
}
