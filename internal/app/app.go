// Package app 把配置装配成完整的采集流水线，供 cmd 下的入口共用。
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/LJTian/NewsSpectrum/internal/catalog"
	"github.com/LJTian/NewsSpectrum/internal/classifier"
	"github.com/LJTian/NewsSpectrum/internal/collector"
	"github.com/LJTian/NewsSpectrum/internal/config"
	"github.com/LJTian/NewsSpectrum/internal/fetcher"
	"github.com/LJTian/NewsSpectrum/internal/keywords"
	"github.com/LJTian/NewsSpectrum/internal/processor"
	"github.com/LJTian/NewsSpectrum/internal/quota"
	"github.com/LJTian/NewsSpectrum/internal/scheduler"
	"github.com/LJTian/NewsSpectrum/internal/storage"
)

type Pipeline struct {
	Catalog      *catalog.Catalog
	Registry     *collector.Registry
	Orchestrator *scheduler.Orchestrator
	Store        *storage.Store
}

// Limits 目录中显式配置的单源上限优先于 SOURCE_ITEM_CAP
func Limits(cfg *config.Config, cat *catalog.Catalog) quota.Limits {
	limits := quota.DefaultLimits(cat.ItemCaps())
	if cfg.SourceItemCap > 0 {
		limits.DefaultSourceCap = cfg.SourceItemCap
	}
	if cfg.BiasItemCap > 0 {
		limits.BiasCap = cfg.BiasItemCap
	}
	return limits
}

// Build 打开存储、同步数据源表并构造编排器。store 为 nil 时由 Build 负责打开
func Build(ctx context.Context, cfg *config.Config, store *storage.Store, log *zap.Logger) (*Pipeline, error) {
	cls, err := classifier.Load(cfg.ClassifierTables)
	if err != nil {
		return nil, fmt.Errorf("load classifier tables: %w", err)
	}

	if store == nil {
		store, err = storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, log.Named("storage"))
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
	}

	cat := catalog.Default()
	engine := fetcher.NewEngine(log.Named("fetcher"), fetcher.Options{
		HostRPS:   cfg.HostRPS,
		HostBurst: cfg.HostBurst,
	})
	reg := collector.NewRegistry(cat, engine, cls, collector.Options{
		EnableRSS:        cfg.EnableRSS,
		EnableNewsAPI:    cfg.EnableNewsAPI,
		EnableGNews:      cfg.EnableGNews,
		EnableTheNewsAPI: cfg.EnableTheNewsAPI,
		NewsAPIKey:       cfg.NewsAPIKey,
		GNewsAPIKey:      cfg.GNewsAPIKey,
		TheNewsAPIKey:    cfg.TheNewsAPIKey,
		PageSize:         cfg.APIPageSize,
	}, log.Named("collector"))

	if err := store.EnsureSources(ctx, cat.All(), reg.EnabledSet()); err != nil {
		// 数据源表只用于展示统计，失败不影响采集
		log.Warn("sync sources table failed", zap.Error(err))
	}

	n := processor.NewNormalizer(cls, keywords.New(log.Named("keywords")), cfg.KeywordLimit, log.Named("processor"))
	orch := scheduler.NewOrchestrator(reg, n, Limits(cfg, cat), store, cfg.MaxConcurrentFetches, log.Named("scheduler"))

	return &Pipeline{
		Catalog:      cat,
		Registry:     reg,
		Orchestrator: orch,
		Store:        store,
	}, nil
}
