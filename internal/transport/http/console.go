package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/render"

	apierrors "finhealth/internal/errors"
	"finhealth/internal/exporter"
	"finhealth/internal/infrastructure"
	"finhealth/internal/locale"
	"finhealth/internal/operations"
	"finhealth/internal/presenter"
	"finhealth/internal/validation"
	api "finhealth/pkg/contracts/api/v1"
	"finhealth/pkg/contracts/domain"
)

// Console actions, as they appear in /actions/{action} and /api/actions/{action}
const (
	ActionAnalyze      = "analyze"
	ActionSample       = "sample"
	ActionIntegrations = "integrations"
)

// multipartMemory is how much of an upload is held in memory before spilling to disk
const multipartMemory = 8 << 20

// ConsoleOptions configures request binding defaults
type ConsoleOptions struct {
	DefaultAPIKey   string
	DefaultIndustry domain.Industry
}

// FormValues are the inputs echoed back into the console form
type FormValues struct {
	Industry string
	APIKey   string
}

// Console binds console requests to the orchestrator and renders the current view.
// The page and the JSON API share it.
type Console struct {
	orch      *operations.Orchestrator
	locales   *locale.Store
	presenter *presenter.Presenter
	validator *validation.Validator
	uploads   *validation.UploadValidator
	opts      ConsoleOptions
	logger    *slog.Logger

	mu   sync.Mutex
	form FormValues
}

// NewConsole creates the console request service
func NewConsole(orch *operations.Orchestrator, locales *locale.Store, p *presenter.Presenter, v *validation.Validator, uploads *validation.UploadValidator, opts ConsoleOptions, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultIndustry == "" {
		opts.DefaultIndustry = domain.DefaultIndustry
	}
	return &Console{
		orch:      orch,
		locales:   locales,
		presenter: p,
		validator: v,
		uploads:   uploads,
		opts:      opts,
		logger:    infrastructure.WithComponent(logger, "console"),
		form: FormValues{
			Industry: string(opts.DefaultIndustry),
			APIKey:   opts.DefaultAPIKey,
		},
	}
}

// Run binds and dispatches one action. The returned response reports whether
// the action was skipped because no usable file was selected.
func (c *Console) Run(r *http.Request, action string) (api.AcceptedResponse, error) {
	ctx := r.Context()

	var (
		skipped bool
		err     error
	)
	switch action {
	case ActionAnalyze:
		skipped, err = c.analyze(r)
	case ActionSample:
		err = c.sample(r)
	case ActionIntegrations:
		err = c.integrations(r)
	default:
		return api.AcceptedResponse{}, apierrors.NotFoundError("action " + action)
	}
	if err != nil {
		return api.AcceptedResponse{}, mapDomainError(err)
	}

	resp := api.AcceptedResponse{
		Status:  "accepted",
		Action:  action,
		Version: c.orch.Store().Snapshot().Version,
		Skipped: skipped,
		TraceID: infrastructure.GetTraceID(ctx),
	}
	if skipped {
		resp.Status = "skipped"
	}

	c.logger.InfoContext(ctx, "Console action dispatched",
		slog.String("action", action),
		slog.Bool("skipped", skipped),
		slog.Uint64("version", resp.Version))
	return resp, nil
}

func (c *Console) analyze(r *http.Request) (bool, error) {
	if err := parseForm(r); err != nil {
		return false, err
	}
	req := api.AnalyzeRequest{
		Industry: r.FormValue("industry"),
		APIKey:   r.FormValue("api_key"),
	}
	if err := c.validator.Struct(&req); err != nil {
		return false, err
	}
	c.remember(req.Industry, req.APIKey)

	upload, err := c.readUpload(r)
	if err != nil {
		return false, err
	}

	err = c.orch.SubmitFile(r.Context(), upload, domain.Industry(req.Industry), c.apiKey(req.APIKey))
	if errors.Is(err, operations.ErrRequestSkipped) {
		return true, nil
	}
	return false, err
}

func (c *Console) sample(r *http.Request) error {
	var req api.AnalyzeSampleRequest
	err := decodeAction(r, &req, func(form url.Values) {
		req.Industry = form.Get("industry")
		req.APIKey = form.Get("api_key")
	})
	if err != nil {
		return err
	}
	if err := c.validator.Struct(&req); err != nil {
		return err
	}
	c.remember(req.Industry, req.APIKey)

	return c.orch.SubmitSample(r.Context(), domain.Industry(req.Industry), c.apiKey(req.APIKey))
}

func (c *Console) integrations(r *http.Request) error {
	var req api.IntegrationsRequest
	err := decodeAction(r, &req, func(form url.Values) {
		req.APIKey = form.Get("api_key")
	})
	if err != nil {
		return err
	}
	if err := c.validator.Struct(&req); err != nil {
		return err
	}
	c.remember("", req.APIKey)

	return c.orch.FetchIntegrations(r.Context(), c.apiKey(req.APIKey))
}

// readUpload returns the selected statement, or nil when there is none or it is
// not an allowed file type
func (c *Console) readUpload(r *http.Request) (*domain.Upload, error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apierrors.InvalidRequestWithError(err)
	}

	upload, err := c.uploads.Upload(file, header)
	if errors.Is(err, validation.ErrNoFile) || errors.Is(err, validation.ErrExtensionNotAllowed) {
		return nil, nil
	}
	return upload, err
}

// SetLanguage switches the active language and republishes the state
func (c *Console) SetLanguage(ctx context.Context, code string) (api.LanguageResponse, error) {
	req := api.LanguageRequest{Code: code}
	if err := c.validator.Struct(&req); err != nil {
		return api.LanguageResponse{}, apierrors.LanguageNotFoundError(code)
	}
	if err := c.locales.SetLanguage(code); err != nil {
		if errors.Is(err, locale.ErrUnsupportedLanguage) {
			return api.LanguageResponse{}, apierrors.LanguageNotFoundError(code)
		}
		return api.LanguageResponse{}, err
	}

	s := c.orch.Store().Touch(ctx)
	c.logger.InfoContext(ctx, "Language switched",
		slog.String("language", code),
		slog.Uint64("version", s.Version))

	return api.LanguageResponse{
		Language:  c.locales.Language(),
		Languages: c.locales.Languages(),
	}, nil
}

// View renders the current state in the active language
func (c *Console) View() presenter.View {
	return c.presenter.Present(c.orch.Store().Snapshot(), c.locales.Active())
}

// State returns the JSON state document
func (c *Console) State() api.StateResponse {
	s := c.orch.Store().Snapshot()
	view := c.presenter.Present(s, c.locales.Active())

	return api.StateResponse{
		Version:   s.Version,
		Language:  view.Language,
		Languages: c.locales.Languages(),
		Loading:   s.Loading,
		Error:     view.Error,
		Phases: api.PhasesResponse{
			Analyze:      string(s.Analyze.Phase),
			Integrations: string(s.Integration.Phase),
		},
		View: view,
	}
}

// Form returns the values to prefill the console form with
func (c *Console) Form() FormValues {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Catalog returns the active translation table
func (c *Console) Catalog() *locale.Catalog {
	return c.locales.Active()
}

// Languages lists the selectable languages
func (c *Console) Languages() []string {
	return c.locales.Languages()
}

func (c *Console) remember(industry, apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if industry != "" {
		c.form.Industry = industry
	}
	if apiKey != "" {
		c.form.APIKey = apiKey
	}
}

func (c *Console) apiKey(submitted string) string {
	if submitted != "" {
		return submitted
	}
	return c.opts.DefaultAPIKey
}

// parseForm parses urlencoded and multipart bodies alike
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apierrors.InvalidRequestWithError(err)
}

// decodeAction fills dst from a JSON body, or from the form through fromForm.
// An empty JSON body leaves dst zero.
func decodeAction(r *http.Request, dst interface{}, fromForm func(url.Values)) error {
	if render.GetRequestContentType(r) == render.ContentTypeJSON {
		if err := render.DecodeJSON(r.Body, dst); err != nil && !errors.Is(err, io.EOF) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return err
			}
			return apierrors.InvalidRequestWithError(err)
		}
		return nil
	}

	if err := parseForm(r); err != nil {
		return err
	}
	fromForm(r.Form)
	return nil
}

// mapDomainError turns package sentinels into API errors
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, operations.ErrInvalidIndustry):
		return apierrors.ErrInvalidIndustry
	case errors.Is(err, validation.ErrUploadTooLarge):
		return apierrors.NewWithDetails(apierrors.ErrPayloadTooLarge.StatusCode,
			apierrors.ErrPayloadTooLarge.ErrorCode, apierrors.ErrPayloadTooLarge.Message, err.Error())
	case errors.Is(err, exporter.ErrNothingToExport):
		return apierrors.NotFoundError("assessment")
	}
	return err
}
