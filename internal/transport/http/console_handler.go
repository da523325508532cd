package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "finhealth/internal/errors"
	"finhealth/internal/locale"
	"finhealth/internal/presenter"
	"finhealth/internal/validation"
	"finhealth/pkg/contracts"
	"finhealth/pkg/contracts/domain"
)

//go:embed templates/console.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// ConsoleHandler serves the console page and its form actions
type ConsoleHandler struct {
	console *Console
	errors  *apierrors.ErrorHandler
	tmpl    *template.Template
	static  http.Handler
	logger  *slog.Logger
}

// pageData is the console template input
type pageData struct {
	T          *locale.Catalog
	View       presenter.View
	Languages  []string
	Industries []domain.Industry
	Form       FormValues
	Accept     string
	Version    string
}

// NewConsoleHandler parses the embedded page template
func NewConsoleHandler(console *Console, errHandler *apierrors.ErrorHandler, logger *slog.Logger) (*ConsoleHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.New("console.html").
		Funcs(template.FuncMap{"upper": strings.ToUpper}).
		ParseFS(templateFS, "templates/console.html")
	if err != nil {
		return nil, fmt.Errorf("parse console template: %w", err)
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("open static assets: %w", err)
	}

	return &ConsoleHandler{
		console: console,
		errors:  errHandler,
		tmpl:    tmpl,
		static:  http.StripPrefix("/static/", http.FileServer(http.FS(static))),
		logger:  logger.With(slog.String("handler", "console")),
	}, nil
}

// Routes returns the page routes, mounted at the root
func (h *ConsoleHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Page)
	r.Post("/actions/{action}", h.Action)
	r.Post("/language/{code}", h.Language)
	r.Handle("/static/*", h.static)
	return r
}

// Page handles GET /
func (h *ConsoleHandler) Page(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		T:          h.console.Catalog(),
		View:       h.console.View(),
		Languages:  h.console.Languages(),
		Industries: domain.Industries(),
		Form:       h.console.Form(),
		Accept:     validation.AcceptAttribute(),
		Version:    contracts.Version,
	}

	// Rendered into a buffer so a template error still gets a problem response
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render console page",
			slog.String("error", err.Error()))
		h.errors.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// Action handles POST /actions/{action} and redirects back to the page
func (h *ConsoleHandler) Action(w http.ResponseWriter, r *http.Request) {
	if _, err := h.console.Run(r, chi.URLParam(r, "action")); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Language handles POST /language/{code} and redirects back to the page
func (h *ConsoleHandler) Language(w http.ResponseWriter, r *http.Request) {
	if _, err := h.console.SetLanguage(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
