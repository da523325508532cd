package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"validation", ErrValidation("api_key", "api_key is required"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"invalid request", InvalidRequestWithError(fmt.Errorf("bad json")), http.StatusBadRequest, "INVALID_REQUEST"},
		{"not found", NotFoundError("export format"), http.StatusNotFound, "NOT_FOUND"},
		{"language", LanguageNotFoundError("fr"), http.StatusNotFound, "LANGUAGE_NOT_FOUND"},
		{"export", ExportError("csv", fmt.Errorf("closed pipe")), http.StatusInternalServerError, "EXPORT_FAILED"},
		{"panic", ErrPanic("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.err.Message, tt.err.Error())
		})
	}
}

func TestAPIErrorRender(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, render.Render(rec, req, NewErrorResponse(ErrPayloadTooLarge)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"status_code":413,"error_code":"PAYLOAD_TOO_LARGE","message":"Request body exceeds maximum allowed size"}}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrServiceUnavailable)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("missing key noRisks")
	err := NewLocaleError("translation tables differ", cause).WithContext("language", "hi")

	assert.Equal(t, "[LOCALE] translation tables differ: missing key noRisks", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "hi", err.Context["language"])

	assert.Equal(t, "[CONFIG] bad panels", NewConfigError("bad panels", nil).Error())
	assert.Equal(t, ErrTypeConfig, NewConfigError("x", nil).Type)
}
