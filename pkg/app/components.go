// Package app собирает компоненты mcp-s3 из конфигурации.
//
// Правило: entry points (cmd/) только инициализируют и оркестрируют,
// вся сборка живёт здесь и переиспользуется командами serve/query/inspect.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ilkoid/mcp-s3/internal/metrics"
	"github.com/ilkoid/mcp-s3/pkg/config"
	"github.com/ilkoid/mcp-s3/pkg/fuzzy"
	"github.com/ilkoid/mcp-s3/pkg/lookup"
	"github.com/ilkoid/mcp-s3/pkg/s3storage"
	"github.com/ilkoid/mcp-s3/pkg/tools"
	"github.com/ilkoid/mcp-s3/pkg/tools/std"
	"github.com/ilkoid/mcp-s3/pkg/utils"
)

// Components — собранное приложение.
type Components struct {
	Config   *config.AppConfig
	Lister   s3storage.Lister
	Service  *lookup.Service
	Registry *tools.Registry
	Metrics  *prometheus.Registry
}

// ListerFactory создаёт источник ключей. В тестах подменяется моком.
type ListerFactory func(ctx context.Context, cfg config.S3Config) (s3storage.Lister, error)

// InitializeConfig находит и загружает config.yaml.
func InitializeConfig(flagValue string) (*config.AppConfig, string, error) {
	cfgPath := config.FindPath(flagValue)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// Initialize создаёт клиента хранилища, сервис поиска и реестр инструментов.
func Initialize(ctx context.Context, cfg *config.AppConfig) (*Components, error) {
	return InitializeWith(ctx, cfg, s3storage.NewLister)
}

// InitializeWith — Initialize с явной фабрикой листинга.
func InitializeWith(ctx context.Context, cfg *config.AppConfig, newLister ListerFactory) (*Components, error) {
	lister, err := newLister(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage client: %w", cfg.S3.Driver, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(reg)

	scorer, err := fuzzy.ParseScorer(cfg.Lookup.Scorer)
	if err != nil {
		return nil, err
	}

	svc := lookup.NewService(lister, lookup.Config{
		Bucket: cfg.S3.Bucket,
		Prefix: cfg.S3.Prefix,
		Limit:  cfg.Lookup.Limit,
		Scorer: scorer,
	}, lookup.WithRecorder(recorder))

	registry := tools.NewRegistry()
	if err := registry.Register(std.NewSimilarFilesTool(svc)); err != nil {
		return nil, fmt.Errorf("failed to register tool: %w", err)
	}

	utils.Info("Components initialized",
		"driver", cfg.S3.Driver,
		"endpoint", cfg.S3.Endpoint,
		"bucket", cfg.S3.Bucket,
		"prefix", cfg.S3.Prefix,
		"profile", cfg.S3.Profile,
		"limit", svc.Config().Limit,
		"scorer", scorer)

	return &Components{
		Config:   cfg,
		Lister:   lister,
		Service:  svc,
		Registry: registry,
		Metrics:  reg,
	}, nil
}
