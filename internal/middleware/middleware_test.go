package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/infrastructure"
	"finhealth/internal/shared/testutil"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestID(t *testing.T) {
	t.Run("generates an ID", func(t *testing.T) {
		var seen, traced string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = chimw.GetReqID(r.Context())
			traced = infrastructure.GetTraceID(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, traced)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("reuses inbound header", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestGetRequestIDFallsBackToTraceID(t *testing.T) {
	ctx := infrastructure.WithTraceID(context.Background(), "trace-1")
	assert.Equal(t, "trace-1", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestStructuredLogger(t *testing.T) {
	logger, handler := testutil.NewTestLogger()
	h := RequestID(StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/actions/sample", nil))

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "request completed")
	testutil.AssertLogAttr(t, handler, "status", int64(http.StatusAccepted))
	testutil.AssertLogAttr(t, handler, "path", "/api/actions/sample")
}

func TestRecoverer(t *testing.T) {
	logger, handler := testutil.NewTestLogger()
	h := RequestID(Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set(RequestIDHeader, "req-panic")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "/errors/internal", body["type"])
	assert.Equal(t, "req-panic", body["trace_id"])
	testutil.AssertLogContains(t, handler, slog.LevelError, "panic recovered")
}

func TestRateLimiter(t *testing.T) {
	logger, handler := testutil.NewTestLogger()
	rl := NewRateLimiter(0.001, 2, logger)
	h := rl.Handler(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/actions/sample", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			assert.Equal(t, "/errors/rate-limit", decodeProblem(t, rec)["type"])
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "rate limit exceeded")
}

func TestTimeout(t *testing.T) {
	logger, _ := testutil.NewTestLogger()

	t.Run("writes 504 when handler gives up", func(t *testing.T) {
		h := Timeout(10*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.Equal(t, "/errors/timeout", decodeProblem(t, rec)["type"])
	})

	t.Run("leaves fast responses alone", func(t *testing.T) {
		h := Timeout(time.Second, logger)(http.HandlerFunc(okHandler))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}})(http.HandlerFunc(okHandler))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantCode   int
	}{
		{"allowed origin", http.MethodGet, "http://localhost:5173", "http://localhost:5173", http.StatusOK},
		{"foreign origin", http.MethodGet, "http://evil.example", "", http.StatusOK},
		{"preflight", http.MethodOptions, "http://localhost:5173", "http://localhost:5173", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/state", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	sh := DefaultSecureHeaders()
	sh.ScoringOrigin = "http://localhost:8000"
	h := sh.Handler(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "connect-src 'self' ws: wss: http://localhost:8000")
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Permissions-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "plain HTTP gets no HSTS")

	t.Run("websocket upgrade untouched", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Upgrade", "websocket")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
	})
}

func TestAuditLog(t *testing.T) {
	logger, handler := testutil.NewTestLogger()
	r := chi.NewRouter()
	r.With(AuditLog(logger)).Post("/actions/{action}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	req := httptest.NewRequest(http.MethodPost, "/actions/sample", strings.NewReader("api_key=secret-key"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	testutil.AssertLogAttr(t, handler, "action", "sample")
	testutil.AssertLogAttr(t, handler, "status", int64(http.StatusSeeOther))
	for _, record := range handler.GetRecords() {
		for _, v := range record.Attrs {
			assert.NotContains(t, toString(v), "secret-key")
		}
	}
}

func TestAuditLogSkipsReads(t *testing.T) {
	logger, handler := testutil.NewTestLogger()
	h := AuditLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, handler.ContainsMessage("audit log"))
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		_, _ = w.Write(buf[:n])
	}))

	t.Run("declared length over limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(strings.Repeat("x", 32))))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		body := decodeProblem(t, rec)
		assert.Equal(t, "/errors/payload-too-large", body["type"])
		assert.Equal(t, float64(8), body["limit"])
	})

	t.Run("small body passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader("tiny")))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "tiny", rec.Body.String())
	})
}

func TestContentTypeValidator(t *testing.T) {
	h := ContentTypeValidator("application/json", "multipart/form-data")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		want        int
	}{
		{"json", http.MethodPost, "application/json; charset=utf-8", "{}", http.StatusOK},
		{"multipart", http.MethodPost, "multipart/form-data; boundary=x", "--x--", http.StatusOK},
		{"bodyless post", http.MethodPost, "", "", http.StatusOK},
		{"get skipped", http.MethodGet, "text/plain", "", http.StatusOK},
		{"text rejected", http.MethodPost, "text/plain", "hi", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/actions/sample", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
