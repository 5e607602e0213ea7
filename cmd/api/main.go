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
	"go.uber.org/zap"

	"github.com/LJTian/NewsSpectrum/internal/api"
	"github.com/LJTian/NewsSpectrum/internal/app"
	"github.com/LJTian/NewsSpectrum/internal/config"
	"github.com/LJTian/NewsSpectrum/internal/logger"
	"github.com/LJTian/NewsSpectrum/internal/scheduler"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl.Info("config loaded", cfg.Fields()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := app.Build(ctx, cfg, nil, zl)
	if err != nil {
		zl.Fatal("init pipeline failed", zap.Error(err))
	}
	defer func() { _ = p.Store.Close() }()

	s, err := scheduler.New(cfg.CronSpec, p.Orchestrator, zl.Named("cron"))
	if err != nil {
		zl.Fatal("init scheduler failed", zap.Error(err))
	}
	s.Start()
	defer s.Stop()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(zl.Named("http")))
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(ctx, p.Store, p.Orchestrator, p.Catalog, p.Registry.Enabled, zl.Named("api"))
	apiServer.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zl.Info("starting api server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server exit", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("server shutdown", zap.Error(err))
	}
}
