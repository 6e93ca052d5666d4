package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"evaladmin/internal/auth"
	"evaladmin/internal/bootstrap"
	"evaladmin/internal/config"
	"evaladmin/internal/handler"
	"evaladmin/internal/httpmiddleware"
	"evaladmin/internal/imageproxy"
	"evaladmin/internal/logging"
	"evaladmin/internal/metrics"
	"evaladmin/internal/queue"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	app, err := bootstrap.Open(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("closing backends", zap.Error(err))
		}
	}()

	if err := app.Service.Watch(ctx); err != nil {
		logger.Warn("history cache invalidation disabled", zap.Error(err))
	}

	// The in-memory queue is only visible to this process.
	if _, inProcess := app.Queue.(*queue.InMemory); inProcess {
		go func() {
			if err := bootstrap.Consume(ctx, app.Queue, app.Service, logger); err != nil {
				logger.Error("in-process consumer stopped", zap.Error(err))
			}
		}()
	}

	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set; admin login is disabled")
	}

	health := map[string]handler.HealthCheck{}
	if app.Redis != nil {
		health["redis"] = app.Redis.Healthy
	}
	if app.DB != nil {
		health["db"] = func(ctx context.Context) bool { return app.DB.Client.PingContext(ctx) == nil }
	}

	h := handler.New(handler.Config{
		Service: app.Service,
		Admin:   auth.Admin{Email: cfg.AdminEmail, PasswordHash: cfg.AdminPasswordHash},
		Tokens: handler.Tokens{
			Issuer:     cfg.JWTIssuer,
			SigningKey: cfg.JWTSigningKey,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
		Proxy:         imageproxy.New(cfg.ImageHosts, cfg.ImageMaxBytes, 10*time.Second),
		Log:           logger,
		MaxImageBytes: cfg.ImageMaxBytes,
		Health:        health,
	})

	r := gin.New()
	r.Use(httpmiddleware.Recovery(logger))
	r.Use(httpmiddleware.AccessLog(logger, m, "/healthz", "/metrics"))
	r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("docstore", cfg.DocstoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
	return nil
}
