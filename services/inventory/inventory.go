// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package inventory assembles the inventory service.
//
// Open builds every component from a config.Config: the store, the stock
// and auth services, the assistant and its LLM client, the chatbot, the
// notifier, the analytics job and the mailer. Serve runs the HTTP API
// together with the notification scheduler, the analytics cron and the
// optional Discord bot until its context is canceled. The CLI commands
// share Open so every entry point is wired the same way.
//
// # Enterprise Integration
//
// extensions.ServiceOptions replaces the session validator and the audit
// trail:
//
//	opts := &extensions.ServiceOptions{
//	    AuthProvider: ssoProvider,
//	    AuditLogger:  complianceAudit,
//	}
//	app, err := inventory.Open(ctx, cfg, opts)
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/pkg/logging"
	"github.com/AleutianAI/AleutianInventory/services/discordbot"
	"github.com/AleutianAI/AleutianInventory/services/inventory/analytics"
	"github.com/AleutianAI/AleutianInventory/services/inventory/assistant"
	"github.com/AleutianAI/AleutianInventory/services/inventory/auth"
	"github.com/AleutianAI/AleutianInventory/services/inventory/chatbot"
	"github.com/AleutianAI/AleutianInventory/services/inventory/config"
	"github.com/AleutianAI/AleutianInventory/services/inventory/mailer"
	"github.com/AleutianAI/AleutianInventory/services/inventory/middleware"
	"github.com/AleutianAI/AleutianInventory/services/inventory/notify"
	"github.com/AleutianAI/AleutianInventory/services/inventory/observability"
	"github.com/AleutianAI/AleutianInventory/services/inventory/routes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/stock"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
	"github.com/AleutianAI/AleutianInventory/services/inventory/telemetry"
	"github.com/AleutianAI/AleutianInventory/services/llm"
)

const (
	serviceName     = "inventory-service"
	shutdownTimeout = 10 * time.Second
)

// =============================================================================
// App
// =============================================================================

// App holds the assembled components. Fields are read-only after Open.
//
// # Thread Safety
//
// Every component is safe for concurrent use. Close must be called once,
// after Serve has returned.
type App struct {
	Config   config.Config
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	Store     *storage.Store
	Audit     extensions.AuditLogger
	LLM       llm.LLMClient
	Assistant *assistant.Assistant
	Stock     *stock.Service

	// Auth and AuthProvider are nil when SECRET_KEY is unset, unless
	// ServiceOptions supplied a provider.
	Auth         *auth.Service
	AuthProvider extensions.AuthProvider

	Pending         *chatbot.PendingStore
	Bot             *chatbot.Bot
	Notifier        *notify.Notifier
	NotifyScheduler *notify.Scheduler
	Analyzer        *analytics.Analyzer
	Mailer          mailer.Mailer
	Reporter        *analytics.Reporter

	closers []func()
}

// Open builds the components described by cfg. It does not migrate the
// database or start any background work.
//
// # Description
//
// Initialization order:
//  1. Tracing (OTLP gRPC, stdout, or none)
//  2. Prometheus registry with Go and process collectors
//  3. Database connection
//  4. Audit trail (opts, InfluxDB when configured, or no-op)
//  5. LLM client, rate limited and instrumented; failures leave the
//     assistant on its fallback texts
//  6. Domain services, chatbot pending store, notifier, analytics
//  7. Mailer (SMTP when configured, otherwise a logging no-op)
//
// # Inputs
//
//   - cfg: loaded configuration. Only DATABASE_URL is required here;
//     Serve additionally validates SECRET_KEY.
//   - opts: extension overrides. May be nil.
//
// # Outputs
//
//   - *App: ready components. Call Close when done.
//   - error: on tracing, database, pending store or mailer failures.
func Open(ctx context.Context, cfg config.Config, opts *extensions.ServiceOptions) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	shutdownTracer, err := initTracer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	a.closers = append(a.closers, func() { shutdownTracer(context.Background()) })

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = observability.NewMetrics(a.Registry)

	a.Store, err = storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if err := a.Store.Close(); err != nil {
			slog.Warn("database close", "error", err)
		}
	})

	a.Audit = a.openAudit(opts)
	a.closers = append(a.closers, func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Audit.Flush(flushCtx); err != nil {
			slog.Warn("audit flush", "error", err)
		}
	})

	a.LLM = a.openLLM(ctx)
	a.Assistant = assistant.New(a.LLM)
	a.Stock = stock.NewService(a.Store, a.Audit, a.Metrics)

	if cfg.SecretKey != "" {
		issuer, err := auth.NewTokenIssuer(cfg.SecretKey, cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		a.Auth = auth.NewService(a.Store, issuer)
		a.AuthProvider = auth.NewJWTProvider(issuer)
	}
	if opts != nil && opts.AuthProvider != nil {
		a.AuthProvider = opts.AuthProvider
	}

	a.Pending, err = chatbot.OpenPendingStore(slog.Default())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = a.Pending.Close() })
	a.Bot = chatbot.NewBot(a.Stock, a.Assistant, a.Pending, a.Metrics)

	a.Notifier = notify.New(a.Store, a.Assistant, a.Metrics)
	a.NotifyScheduler = notify.NewScheduler(a.Notifier, cfg.NotifyInterval)
	a.Analyzer = analytics.NewAnalyzer(a.Store, a.Assistant, a.Metrics, analytics.Options{
		WindowDays:  cfg.AnalyticsWindowDays,
		Concurrency: cfg.AnalyticsConcurrency,
	})

	a.Mailer, err = openMailer(cfg)
	if err != nil {
		return nil, err
	}
	a.Reporter = analytics.NewReporter(a.Store, a.Mailer)
	return a, nil
}

func (a *App) openAudit(opts *extensions.ServiceOptions) extensions.AuditLogger {
	if opts != nil && opts.AuditLogger != nil {
		return opts.AuditLogger
	}
	cfg := a.Config
	if cfg.InfluxURL == "" || cfg.InfluxToken == "" {
		return &extensions.NopAuditLogger{}
	}
	influx := telemetry.NewInfluxAuditLogger(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	a.closers = append(a.closers, influx.Close)
	slog.Info("stock audit trail enabled", "backend", "influxdb", "bucket", cfg.InfluxBucket)
	return influx
}

// openLLM returns nil when no backend is usable.
func (a *App) openLLM(ctx context.Context) llm.LLMClient {
	cfg := a.Config
	client, backend, err := llm.New(ctx, llm.Config{
		Backend:       cfg.LLMBackend,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
		RateLimit:     cfg.LLMRateLimit,
		Burst:         cfg.LLMBurst,
	})
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		slog.Info("LLM backend not configured, using built-in texts", "backend", backend)
		return nil
	case err != nil:
		slog.Warn("LLM backend unavailable, using built-in texts", "backend", backend, "error", err)
		return nil
	}
	slog.Info("LLM backend ready", "backend", backend)
	return llm.NewInstrumented(client, a.Metrics.LLMObserver(backend))
}

func openMailer(cfg config.Config) (mailer.Mailer, error) {
	if !cfg.MailConfigured() {
		return mailer.NopMailer{}, nil
	}
	m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.MailServer,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailDefaultSender,
		UseTLS:   cfg.MailUseTLS,
		UseSSL:   cfg.MailUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("configure mailer: %w", err)
	}
	return m, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// =============================================================================
// HTTP
// =============================================================================

// Router builds the Gin engine with tracing, request logging and every
// route.
//
// # Limitations
//
//   - Requires AuthProvider and Auth; Serve checks the configuration
//     first.
func (a *App) Router() *gin.Engine {
	if a.Config.GinMode != "" {
		gin.SetMode(a.Config.GinMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.RequestLogger(a.Metrics))

	routes.SetupRoutes(router, routes.Deps{
		Store:           a.Store,
		Stock:           a.Stock,
		Auth:            a.Auth,
		AuthProvider:    a.AuthProvider,
		Assistant:       a.Assistant,
		Notifier:        a.Notifier,
		NotifyScheduler: a.NotifyScheduler,
		Bot:             a.Bot,
		Analyzer:        a.Analyzer,
		Reporter:        a.Reporter,
		Gatherer:        a.Registry,
		SecureCookie:    a.Config.GinMode == gin.ReleaseMode,
	})
	return router
}

// Serve migrates the database and runs the HTTP server, the notification
// scheduler, the analytics cron and, when a token is configured, the
// Discord bot. It returns when ctx is canceled and everything has
// stopped, or when the HTTP server fails.
//
// # Examples
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := app.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
func (a *App) Serve(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return err
	}
	if a.Auth == nil || a.AuthProvider == nil {
		return errors.New("authentication is not configured")
	}
	if err := a.Store.Migrate(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	// Schedulers start before the listener; an early return must not
	// leave the port bound.
	var sched *analytics.Scheduler
	if a.Config.AnalyticsEnabled {
		var err error
		sched, err = analytics.NewScheduler(gctx, a.Config.AnalyticsCron, a.RunAnalyticsJob)
		if err != nil {
			return err
		}
	}
	if a.Config.NotifyEnabled {
		if err := a.NotifyScheduler.Start(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			a.NotifyScheduler.Stop()
			return nil
		})
	}
	if sched != nil {
		sched.Start()
		g.Go(func() error {
			<-gctx.Done()
			<-sched.Stop().Done()
			return nil
		})
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		slog.Info("starting inventory server", "port", a.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down inventory server")
		return srv.Shutdown(shutdownCtx)
	})

	if a.Config.DiscordToken != "" {
		g.Go(func() error {
			if err := a.RunDiscord(gctx); err != nil {
				slog.Error("discord bot stopped", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// RunDiscord serves the Discord bot until ctx is canceled.
func (a *App) RunDiscord(ctx context.Context) error {
	bot, err := discordbot.New(discordbot.Config{
		Token:   a.Config.DiscordToken,
		GuildID: a.Config.DiscordGuild,
	}, a.Bot, a.Pending, a.Store, a.LLM)
	if err != nil {
		return err
	}
	return bot.Run(ctx)
}

// RunAnalyticsJob is the scheduled job: score every product, then mail
// the results when outgoing mail is configured.
func (a *App) RunAnalyticsJob(ctx context.Context) error {
	run, err := a.Analyzer.Run(ctx)
	if err != nil {
		return err
	}
	if !a.Config.MailConfigured() {
		return nil
	}
	n, err := a.Reporter.Send(ctx, run.Results, run.RunDate)
	switch {
	case errors.Is(err, analytics.ErrNoRecipients):
		slog.Warn("analytics report not sent: no user has an email address")
		return nil
	case err != nil:
		return err
	}
	slog.Info("analytics report sent", "recipients", n, "run_id", run.ID)
	return nil
}

// NewLogger builds the process logger from cfg and installs it as the
// slog default. quiet drops console output; the log file, when LOG_DIR
// is set, still receives every record.
func NewLogger(cfg config.Config, quiet bool) *logging.Logger {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		LogDir:  cfg.LogDir,
		Service: serviceName,
		JSON:    cfg.LogJSON,
		Quiet:   quiet,
	})
	logger.InstallDefault()
	return logger
}
