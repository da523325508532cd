package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"finhealth/internal/config"
	apierrors "finhealth/internal/errors"
	"finhealth/internal/infrastructure"
	"finhealth/internal/locale"
	customMiddleware "finhealth/internal/middleware"
	"finhealth/internal/operations"
	"finhealth/internal/presenter"
	"finhealth/internal/scoring"
	"finhealth/internal/services"
	handlers "finhealth/internal/transport/http"
	"finhealth/internal/validation"
	ws "finhealth/internal/websocket"
	"finhealth/pkg/contracts"
	"finhealth/pkg/contracts/domain"
	"finhealth/pkg/contracts/events"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Services      *ServiceContainer

	listener    net.Listener
	unsubscribe func()
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Locales      *locale.Store
	State        *operations.Store
	Orchestrator *operations.Orchestrator
	Resolver     *scoring.Resolver
	Scoring      *scoring.Client
	Presenter    *presenter.Presenter
	Console      *handlers.Console
	Health       *services.HealthService
	WebSocket    *ws.Hub
	Metrics      *infrastructure.BusinessMetrics
	Errors       *apierrors.ErrorHandler
}

// NewApplication loads the configuration and builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apierrors.NewConfigError("failed to load configuration", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New builds the application from an explicit configuration and logger
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}

	locales, err := locale.New(a.Config.Console.DefaultLanguage)
	if err != nil {
		return apierrors.NewLocaleError("failed to load locale tables", err).
			WithContext("language", a.Config.Console.DefaultLanguage)
	}

	panels, err := presenter.PanelsByName(a.Config.Console.Panels)
	if err != nil {
		return apierrors.NewConfigError("failed to select panels", err)
	}

	resolver := scoring.NewResolver(a.Config.Scoring)
	client := scoring.NewClient(a.Config.Scoring, resolver, a.Logger, scoring.WithMetrics(metrics))

	state := operations.NewStore(operations.StoreOptions{
		DiscardStale: a.Config.Scoring.DiscardStale,
		Logger:       a.Logger,
		Metrics:      metrics,
	})
	orch := operations.NewOrchestrator(state, client, a.Logger, metrics)

	wsMetrics, err := ws.NewOTelMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to initialize WebSocket metrics: %w", err)
	}
	hub := ws.NewHub(a.Logger, wsMetrics)

	present := presenter.New(panels)
	console := handlers.NewConsole(
		orch,
		locales,
		present,
		validation.New(locales.Languages()),
		validation.NewUploadValidator(a.Config.Server.MaxUploadBytes, a.Logger),
		handlers.ConsoleOptions{
			DefaultAPIKey:   a.Config.Scoring.DefaultAPIKey,
			DefaultIndustry: domain.Industry(a.Config.Console.DefaultIndustry),
		},
		a.Logger,
	)

	a.Services = &ServiceContainer{
		Locales:      locales,
		State:        state,
		Orchestrator: orch,
		Resolver:     resolver,
		Scoring:      client,
		Presenter:    present,
		Console:      console,
		Health:       services.NewHealthService(locales, resolver, state, hub, a.Logger),
		WebSocket:    hub,
		Metrics:      metrics,
		Errors:       apierrors.NewErrorHandler(a.Logger, false),
	}

	a.unsubscribe = state.Subscribe(a.pushState)

	return nil
}

// pushState forwards a committed snapshot to every connected page. It runs under
// the store lock; BroadcastState never blocks.
func (a *Application) pushState(ctx context.Context, s operations.State) {
	catalog := a.Services.Locales.Active()
	msg := events.StateChanged{
		Version:  s.Version,
		Loading:  s.Loading,
		Language: catalog.Language(),
		Error:    s.Error.Resolve(catalog.Lookup),
	}
	if err := a.Services.WebSocket.BroadcastState(ctx, msg); err != nil {
		infrastructure.WithError(a.Logger, err).WarnContext(ctx, "State push failed",
			slog.Uint64("version", s.Version))
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	r.NotFound(a.Services.Errors.NotFound)
	r.MethodNotAllowed(a.Services.Errors.MethodNotAllowed)

	// Minimal middleware that leaves the ResponseWriter hijackable for /ws
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StripSlashes)

	wsHandler := ws.NewHandler(a.Services.WebSocket, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle(config.WebSocketEndpoint, wsHandler)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.With(apierrors.RecoveryMiddleware(a.Services.Errors)).
			Handle(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))
	}

	consoleHandler, err := handlers.NewConsoleHandler(a.Services.Console, a.Services.Errors, a.Logger)
	if err != nil {
		return err
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Services.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))

		secure := customMiddleware.DefaultSecureHeaders()
		secure.DevMode = a.Config.Telemetry.Environment == "development"
		r.Use(secure.Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(a.Services.Resolver.Middleware)
		r.Use(customMiddleware.BodyLimit(a.Config.Server.MaxUploadBytes))

		a.setupAPIRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AuditLog(a.Logger))
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))
			r.Use(customMiddleware.Compress(5))
			r.Mount("/", consoleHandler.Routes())
		})
	})

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)

			clientLog := handlers.NewClientLogHandler(validation.New(a.Services.Locales.Languages()), a.Logger)
			r.With(customMiddleware.ContentTypeValidator("application/json")).Post("/logs", clientLog.Handle)
		})

		r.Group(func(r chi.Router) {
			r.Use(apierrors.NewErrorMiddleware(a.Services.Errors, a.Logger).Handler)
			r.Use(customMiddleware.AuditLog(a.Logger))
			r.Mount("/export", handlers.NewExportHandler(a.Services.Console, a.Services.Errors, a.Logger).Routes())
			r.Mount("/", handlers.NewAPIHandler(a.Services.Console, a.Services.Errors, a.Logger).Routes())
		})
	})
}

// getCORSConfig returns the CORS configuration for the configured origins
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the hub and the HTTP server. A serve failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.String("scoring_endpoint", a.Services.Resolver.Default()))

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	a.Services.WebSocket.Start()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	address := a.Address()
	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", address))

	if a.Config.Console.OpenBrowser {
		go a.openWhenReady(ctx, address)
	}

	return nil
}

// Address returns the URL the console is served on
func (a *Application) Address() string {
	port := a.Config.Server.Port
	if a.listener != nil {
		if tcp, ok := a.listener.Addr().(*net.TCPAddr); ok {
			port = tcp.Port
		}
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Let dispatched operations commit before the hub goes away
	if err := a.Services.Orchestrator.Wait(shutdownCtx); err != nil {
		a.Logger.WarnContext(ctx, "Operations still running at shutdown", slog.String("error", err.Error()))
	}

	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.Services.WebSocket.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// openWhenReady polls the health endpoint and opens the console in a browser
func (a *Application) openWhenReady(ctx context.Context, address string) {
	healthURL, err := url.JoinPath(address, config.HealthEndpoint)
	if err != nil {
		return
	}

	const maxRetries = 10
	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		resp, err := http.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				if err := openBrowser(ctx, address); err != nil {
					a.Logger.WarnContext(ctx, "Failed to open browser",
						slog.String("error", err.Error()),
						slog.String("url", address))
					return
				}
				a.Logger.InfoContext(ctx, "Browser opened", slog.String("url", address))
				return
			}
		}

		time.Sleep(500 * time.Millisecond)
	}

	a.Logger.WarnContext(ctx, "Server did not become ready for browser opening",
		slog.String("url", address),
		slog.Int("max_retries", maxRetries))
}

// browserMethod represents a method to open the browser
type browserMethod struct {
	name string
	cmd  string
	args []string
}

// openBrowser tries each platform method until one starts
func openBrowser(ctx context.Context, address string) error {
	var lastErr error
	for _, method := range browserOpenMethods(address) {
		cmd := exec.CommandContext(ctx, method.cmd, method.args...)
		if err := cmd.Start(); err != nil {
			lastErr = err
			continue
		}
		go func() { _ = cmd.Wait() }()
		return nil
	}
	return fmt.Errorf("failed to open browser: %w", lastErr)
}

// browserOpenMethods returns platform-specific browser opening methods
func browserOpenMethods(address string) []browserMethod {
	switch runtime.GOOS {
	case "windows":
		return []browserMethod{
			{name: "rundll32", cmd: "rundll32", args: []string{"url.dll,FileProtocolHandler", address}},
			{name: "start_command", cmd: "cmd", args: []string{"/c", "start", "", address}},
		}
	case "darwin":
		return []browserMethod{
			{name: "open", cmd: "open", args: []string{address}},
		}
	default:
		return []browserMethod{
			{name: "xdg-open", cmd: "xdg-open", args: []string{address}},
			{name: "sensible-browser", cmd: "sensible-browser", args: []string{address}},
		}
	}
}
