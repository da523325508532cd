package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	apierrors "finhealth/internal/errors"
	"finhealth/internal/validation"
	api "finhealth/pkg/contracts/api/v1"
)

// ClientLogHandler handles client-side logging requests
type ClientLogHandler struct {
	validator *validation.Validator
	logger    *slog.Logger
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(v *validation.Validator, logger *slog.Logger) *ClientLogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientLogHandler{
		validator: v,
		logger:    logger.With(slog.String("handler", "client_log")),
	}
}

// Handle processes POST /api/logs
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req api.ClientLogRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		var apiErr *apierrors.APIError
		if !errors.As(err, &apiErr) {
			apiErr = apierrors.InvalidRequestWithError(err)
		}
		apierrors.WriteError(w, apiErr)
		return
	}

	attrs := []slog.Attr{
		slog.String("client_source", req.Source),
		slog.String("timestamp", time.Now().Format(time.RFC3339)),
		slog.String("user_agent", r.UserAgent()),
	}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}

	h.logger.LogAttrs(r.Context(), clientLevel(req.Level), req.Message, attrs...)

	render.JSON(w, r, map[string]interface{}{
		"success": true,
	})
}

func clientLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
