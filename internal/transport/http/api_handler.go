package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "finhealth/internal/errors"
)

// APIHandler serves the JSON variants of the console: state, actions and language
type APIHandler struct {
	console *Console
	errors  *apierrors.ErrorHandler
	logger  *slog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(console *Console, errHandler *apierrors.ErrorHandler, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		console: console,
		errors:  errHandler,
		logger:  logger.With(slog.String("handler", "api")),
	}
}

// Routes returns the API routes, mounted under /api
func (h *APIHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/state", h.State)
	r.Post("/actions/{action}", h.Action)
	r.Post("/language/{code}", h.Language)
	return r
}

// State handles GET /api/state
func (h *APIHandler) State(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	render.JSON(w, r, h.console.State())
}

// Action handles POST /api/actions/{action}. Every dispatch answers 202; the
// outcome arrives through the state.
func (h *APIHandler) Action(w http.ResponseWriter, r *http.Request) {
	resp, err := h.console.Run(r, chi.URLParam(r, "action"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, resp)
}

// Language handles POST /api/language/{code}
func (h *APIHandler) Language(w http.ResponseWriter, r *http.Request) {
	resp, err := h.console.SetLanguage(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}
