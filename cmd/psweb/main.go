package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/psweb/psweb/internal/app"
	"github.com/psweb/psweb/internal/embarcacoes"
	"github.com/psweb/psweb/internal/fiscais"
	"github.com/psweb/psweb/internal/identity"
	"github.com/psweb/psweb/internal/observability"
	"github.com/psweb/psweb/internal/platform/db"
	"github.com/psweb/psweb/internal/ps"
	"github.com/psweb/psweb/internal/shared"
	"github.com/psweb/psweb/report"
)

// auditComMetricas couples the audit trail with the transition counter so
// every recorded lifecycle action also shows up in /metrics.
type auditComMetricas struct {
	inner   *shared.AuditLogger
	metrics *observability.Metrics
}

func (a auditComMetricas) Record(ctx context.Context, log shared.AuditLog) error {
	a.metrics.ContarTransicao(log.Action)
	return a.inner.Record(ctx, log)
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "psweb_sessao", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	identityRepo := identity.NewRepository(dbpool)
	identityService := identity.NewService(identityRepo)
	identityMiddleware := identity.Middleware{Service: identityService, Logger: logger}
	authHandler := identity.NewHandler(logger, identityService, sessionManager, csrfManager)

	metrics := observability.NewMetrics()
	auditLogger := auditComMetricas{inner: shared.NewAuditLogger(dbpool), metrics: metrics}

	embarcacoesRepo := embarcacoes.NewRepository(dbpool)
	embarcacoesService := embarcacoes.NewService(embarcacoesRepo)
	embarcacoesHandler := embarcacoes.NewHandler(logger, embarcacoesService)

	fiscaisRepo := fiscais.NewRepository(dbpool)
	fiscaisService := fiscais.NewService(fiscaisRepo)
	fiscaisHandler := fiscais.NewHandler(logger, fiscaisService)

	reportClient := report.NewClient(cfg.GotenbergURL, cfg.DocTimeout)
	gerador := report.NewGerador(reportClient, cfg.DocsDir)
	reportHandler := report.NewHandler(reportClient, cfg.DocsDir, logger)

	psRepo := ps.NewRepository(dbpool)
	psService := ps.NewService(psRepo, embarcacoesService, fiscaisService, gerador, auditLogger)
	psHandler := ps.NewHandler(logger, psService)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Identity:           identityMiddleware,
		AuthHandler:        authHandler,
		PSHandler:          psHandler,
		EmbarcacoesHandler: embarcacoesHandler,
		FiscaisHandler:     fiscaisHandler,
		ReportHandler:      reportHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
