package errors

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"finhealth/internal/shared/testutil"
)

func TestErrorMiddleware_Handler(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		body      string
		wantCode  int
		wantLevel slog.Level
	}{
		{
			name:      "successful request",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusAccepted) },
			wantCode:  http.StatusAccepted,
			wantLevel: slog.LevelInfo,
		},
		{
			name:      "implicit ok",
			handler:   func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) },
			wantCode:  http.StatusOK,
			wantLevel: slog.LevelInfo,
		},
		{
			name:      "client error",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadRequest) },
			body:      `{"industry":"Mining"}`,
			wantCode:  http.StatusBadRequest,
			wantLevel: slog.LevelWarn,
		},
		{
			name:      "panic is recovered",
			handler:   func(w http.ResponseWriter, r *http.Request) { panic("boom") },
			wantCode:  http.StatusInternalServerError,
			wantLevel: slog.LevelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logHandler := testutil.NewTestLogger()
			m := NewErrorMiddleware(NewErrorHandler(logger, false), logger)

			req := httptest.NewRequest(http.MethodPost, "/api/actions/sample", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			m.Handler(tt.handler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			testutil.AssertLogContains(t, logHandler, tt.wantLevel, "http request")
		})
	}
}

func TestErrorMiddleware_RedactsAPIKey(t *testing.T) {
	logger, logHandler := testutil.NewTestLogger()
	m := NewErrorMiddleware(NewErrorHandler(logger, false), logger)

	req := httptest.NewRequest(http.MethodPost, "/api/actions/sample",
		strings.NewReader(`{"industry":"Mining","api_key":"super-secret"}`))
	req.Header.Set("Content-Type", "application/json")

	m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})).ServeHTTP(httptest.NewRecorder(), req)

	records := logHandler.GetRecordsByLevel(slog.LevelWarn)
	if assert.Len(t, records, 1) {
		body, _ := records[0].Attrs["request_body"].(string)
		assert.Contains(t, body, "[REDACTED]")
		assert.NotContains(t, body, "super-secret")
	}
}

func TestSanitizeRequestBody(t *testing.T) {
	assert.Equal(t, "not json", sanitizeRequestBody("not json"))
	assert.JSONEq(t, `{"apiKey":"[REDACTED]","industry":"Retail"}`,
		sanitizeRequestBody(`{"apiKey":"k","industry":"Retail"}`))
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, _ := testutil.NewTestLogger()
	h := RecoveryMiddleware(NewErrorHandler(logger, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), TypeInternal)
}
