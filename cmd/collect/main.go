package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/LJTian/NewsSpectrum/internal/app"
	"github.com/LJTian/NewsSpectrum/internal/config"
	"github.com/LJTian/NewsSpectrum/internal/logger"
	"github.com/LJTian/NewsSpectrum/internal/model"
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发采集。
// 可选参数为分类，例如 `collect politics`，默认 all
func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	category := model.CategoryAll
	if len(os.Args) > 1 {
		c, ok := model.ParseCategory(os.Args[1])
		if !ok {
			zl.Fatal("unknown category", zap.String("category", os.Args[1]))
		}
		category = c
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := app.Build(ctx, cfg, nil, zl)
	if err != nil {
		zl.Fatal("init pipeline failed", zap.Error(err))
	}
	defer func() { _ = p.Store.Close() }()

	// 只执行一轮采集任务后退出
	rep, err := p.Orchestrator.Run(ctx, category)
	if err != nil {
		zl.Fatal("fetch cycle failed", zap.Error(err))
	}
	for _, f := range rep.Failures {
		zl.Warn("source failed", zap.String("source", f.SourceID), zap.String("kind", string(f.Kind)), zap.String("error", f.Message))
	}
	zl.Info("collect done",
		zap.Int("admitted", rep.Admitted),
		zap.Int("inserted", rep.Inserted),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed_sources", len(rep.Failures)))
}
