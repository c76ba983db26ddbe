package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sourzer/sourzer-web/internal"
	"github.com/sourzer/sourzer-web/internal/apiclient"
	"github.com/sourzer/sourzer-web/internal/audit"
	"github.com/sourzer/sourzer-web/internal/content"
	"github.com/sourzer/sourzer-web/internal/csrf"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/form"
	"github.com/sourzer/sourzer-web/internal/handler"
	"github.com/sourzer/sourzer-web/internal/metrics"
	"github.com/sourzer/sourzer-web/internal/middleware"
	"github.com/sourzer/sourzer-web/internal/repository"
	"github.com/sourzer/sourzer-web/internal/service"
	"github.com/sourzer/sourzer-web/internal/session"
	"github.com/sourzer/sourzer-web/internal/storage"
	"github.com/sourzer/sourzer-web/web"
)

const (
	// submissionRetention is how long Postgres keeps submission records.
	submissionRetention = 90 * 24 * time.Hour
	sweepInterval       = time.Minute
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	isSecure := !cfg.IsDevelopment()

	site, err := content.Load()
	if err != nil {
		return fmt.Errorf("site content failed to load: %w", err)
	}

	// ==========================================================================
	// Remote API and services
	// ==========================================================================

	api, err := apiclient.New(apiclient.Config{
		BaseURL:        cfg.APIBaseURL,
		WaitlistURL:    cfg.WaitlistURL,
		Timeout:        cfg.APITimeout,
		MaxRetries:     cfg.APIMaxRetries,
		RetryBaseDelay: cfg.APIRetryBaseDelay,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("api client initialization failed: %w", err)
	}

	blogService := service.NewBlogService(api, logger)
	categories := service.NewCategoryStore(api, logger)
	unsubscribe := categories.Subscribe(func(list []domain.BlogCategory) {
		logger.Debug("blog categories changed", "count", len(list))
	})
	defer unsubscribe()
	if _, err := categories.Refresh(ctx); err != nil {
		// The admin retries on first use; public pages never need categories.
		logger.Warn("initial category load failed", "error", err)
	}

	waitlistService := service.NewWaitlistService(api, cfg.WaitlistCountryCode, cfg.WaitlistRegChannel, logger)

	creds, err := service.NewAdminCredentials(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		return fmt.Errorf("admin credentials invalid: %w", err)
	}
	authService := service.NewAuthService(creds, logger)

	// ==========================================================================
	// Storage
	// ==========================================================================

	var (
		store        storage.Storage
		localHandler http.Handler
	)
	switch cfg.StorageProvider {
	case "r2":
		r2, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("r2 storage initialization failed: %w", err)
		}
		store = r2
	default:
		local, err := storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("local storage initialization failed: %w", err)
		}
		store = local
		localHandler = local.Handler()
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	uploadService := service.NewUploadService(store, service.NewImagingProcessor(), logger)

	// ==========================================================================
	// Submission log
	// ==========================================================================

	var (
		sink     audit.Sink
		pruneLog *repository.Submissions
	)
	if cfg.DatabaseUrl != "" {
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		if err := internal.RunMigrations(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		pruneLog = repository.NewSubmissions(db)
		sink = pruneLog
		logger.Info("Database ready")
	} else {
		sink = audit.NewMemorySink(200, logger)
		logger.Info("No DATABASE_URL, keeping submission log in memory")
	}
	recorder := audit.NewRecorder(sink, audit.DefaultQueueSize, logger)
	observers := []form.Observer{metrics.FormObserver{}, recorder}

	// ==========================================================================
	// HTTP layer
	// ==========================================================================

	renderer, err := handler.NewRenderer(handler.RendererConfig{
		FS:           web.Templates(),
		TemplatesDir: "web/templates",
		Logger:       logger,
		IsDev:        cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	sessions, err := session.NewCookieStore([]byte(cfg.SessionSecret), cfg.SessionTTL, isSecure)
	if err != nil {
		return fmt.Errorf("session store initialization failed: %w", err)
	}
	guard := middleware.NewAuthGuard(sessions, logger)

	limiter := middleware.NewFormRateLimiter(cfg.LoginRateLimit, logger)
	defer limiter.Stop()

	publicHandler := handler.NewPublicHandler(blogService, site, renderer, logger)
	authHandler := handler.NewAuthHandler(handler.AuthHandlerConfig{
		AuthService: authService,
		Sessions:    sessions,
		Limiter:     limiter,
		ClientIP:    middleware.ClientIP,
		Site:        site,
		Renderer:    renderer,
		Observers:   observers,
		FormTTL:     cfg.FormInstanceTTL,
		HomePath:    "/admin/blogs",
		Logger:      logger,
	})
	waitlistHandler := handler.NewWaitlistHandler(waitlistService, site, renderer, observers, cfg.FormInstanceTTL, logger)
	adminHandler := handler.NewAdminHandler(handler.AdminHandlerConfig{
		BlogService: blogService,
		Categories:  categories,
		Uploads:     uploadService,
		Site:        site,
		Renderer:    renderer,
		Observers:   observers,
		FormTTL:     cfg.FormInstanceTTL,
		Logger:      logger,
	})
	submissionsHandler := handler.NewSubmissionsHandler(recorder, site, renderer, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.NewSecurityHeadersMiddleware(isSecure).Handler)
	r.Use(middleware.NewRequestLoggingMiddleware(logger).Handler)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.With(middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword).Handler).
		Handle("/metrics", promhttp.Handler())

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	if localHandler != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", localHandler))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Stack(csrf.NewProtect(isSecure, logger).Handler, guard.WithSession))

		publicHandler.RegisterRoutes(r)
		waitlistHandler.RegisterRoutes(r, limiter.LimitWaitlist, limiter.LimitLookup)
		authHandler.RegisterRoutes(r, guard.RedirectIfAuthenticated, limiter.LimitLogin)
		adminHandler.RegisterRoutes(r, guard.RequireSession)
		submissionsHandler.RegisterRoutes(r, guard.RequireSession)
		r.NotFound(publicHandler.NotFound)
	})

	// ==========================================================================
	// Background work
	// ==========================================================================

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recorder.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := renderer.Watch(gctx); err != nil {
			logger.Warn("template hot reload disabled", "error", err)
		}
		return nil
	})

	var registries []handler.FormRegistry
	registries = append(registries, authHandler.Registries()...)
	registries = append(registries, waitlistHandler.Registries()...)
	registries = append(registries, adminHandler.Registries()...)
	for _, reg := range registries {
		g.Go(func() error {
			reg.Run(gctx, sweepInterval)
			return nil
		})
	}

	if pruneLog != nil {
		g.Go(func() error {
			pruneSubmissions(gctx, pruneLog, logger)
			return nil
		})
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// pruneSubmissions deletes old submission records once a day.
func pruneSubmissions(ctx context.Context, log *repository.Submissions, logger *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		n, err := log.Prune(ctx, time.Now().Add(-submissionRetention))
		if err != nil && ctx.Err() == nil {
			logger.Warn("submission log prune failed", "error", err)
		} else if n > 0 {
			logger.Info("submission log pruned", "deleted", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
