package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dropoutlens/internal/config"
	"dropoutlens/internal/errors"
	"dropoutlens/internal/infrastructure"
	customMiddleware "dropoutlens/internal/middleware"
	"dropoutlens/internal/pipeline"
	"dropoutlens/internal/services"
	handlers "dropoutlens/internal/transport/http"
	"dropoutlens/internal/validation"
	ws "dropoutlens/internal/websocket"
	"dropoutlens/pkg/contracts"
)

// AppName is the human readable application name
const AppName = "Dropout Lens"

// Application represents the main application container
type Application struct {
	Config          *config.Config
	Router          *chi.Mux
	Server          *http.Server
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	Pipeline        *pipeline.Pipeline
	AnalysisService *services.AnalysisService
	HealthService   *services.HealthService
	WebSocketHub    *ws.Hub
	ErrorHandler    *errors.ErrorHandler
}

// NewApplication loads configuration and creates a new application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.NewConfigError("failed to load configuration", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewApplicationWithConfig(cfg, logger)
}

// NewApplicationWithConfig wires every component from an already loaded
// configuration
func NewApplicationWithConfig(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("workbook", cfg.Dataset.Path),
		slog.String("sheet", cfg.Dataset.Sheet))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromTelemetry(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  errors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	pipelineMetrics, err := infrastructure.NewPipelineMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	a.Pipeline = pipeline.New(pipeline.ConfigFrom(a.Config), a.OTelProviders.Tracer, pipelineMetrics, a.Logger)
	a.AnalysisService = services.NewAnalysisService(a.Pipeline, a.Config.Clustering.DefaultK, a.Logger)
	a.HealthService = services.NewHealthService(a.AnalysisService, a.Logger)

	wsMetrics, err := ws.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(ws.HubConfigFrom(a.Config), a.AnalysisService, a.ErrorHandler, wsMetrics, a.Logger)
	a.WebSocketHub.Start()

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// Safe for websocket upgrades: neither wraps the ResponseWriter
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := handlers.NewWebSocketHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.Recoverer(a.Logger)).Handle("/ws/clusters", wsHandler)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → headers → limits → Timeout
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.Config.Security))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		r.Use(customMiddleware.StripSlashes)
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		a.setupAPIRoutes(r)
		a.setupChartRoutes(r)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/charts/elbow", http.StatusTemporaryRedirect)
		})
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		a.ErrorHandler.HandleError(w, r, errors.NotFoundError(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		a.ErrorHandler.HandleError(w, r, errors.MethodNotAllowedError(r.Method, r.URL.Path))
	})

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)

		analysisHandler := handlers.NewAnalysisHandler(a.AnalysisService, a.WebSocketHub, a.Logger, a.ErrorHandler)
		analysisHandler.RegisterRoutes(r)
	})
}

// setupChartRoutes configures the ECharts pages
func (a *Application) setupChartRoutes(r chi.Router) {
	chartHandler := handlers.NewChartHandler(a.AnalysisService, a.Logger, a.ErrorHandler)
	r.Route("/charts", func(r chi.Router) {
		r.Use(customMiddleware.Compress(5))
		r.Mount("/", chartHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server and warms the dataset in the background
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	go a.warmDataset(ctx)

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// warmDataset loads the workbook once so the first dashboard request does
// not pay for it. Failures are logged and retried on the next request.
func (a *Application) warmDataset(ctx context.Context) {
	prep, err := a.AnalysisService.Dataset(ctx)
	if err != nil {
		a.Logger.WarnContext(ctx, "Dataset warm-up failed", slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "Dataset warmed",
		slog.String("version", prep.Version),
		slog.Int("records", len(prep.Records)))
}

// performStartupHealthCheck reports configuration problems that would
// only surface on the first request
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	info, err := validation.NewWorkbookValidator(a.Logger).ValidateWorkbook(a.Config.Dataset.Path)
	if err != nil {
		return err
	}

	a.Logger.InfoContext(ctx, "Startup health check passed",
		slog.String("workbook", a.Config.Dataset.Path),
		slog.Int64("size_bytes", info.Size()))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the server fails
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
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.ErrorContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(ctx)
}
