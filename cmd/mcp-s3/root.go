package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ilkoid/mcp-s3/pkg/app"
	"github.com/ilkoid/mcp-s3/pkg/config"
	"github.com/ilkoid/mcp-s3/pkg/utils"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "mcp-s3",
	Short:        "Tool server that finds S3 keys similar to a query",
	Long:         "mcp-s3 serves the get_similar_file_names tool over stdio. It lists keys under a configured bucket and prefix and returns the closest fuzzy matches.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default: ./config.yaml or next to the binary)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
}

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// loadConfig загружает конфиг и применяет флаги командной строки.
func loadConfig() (*config.AppConfig, error) {
	cfg, _, err := app.InitializeConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = version
	}
	return cfg, nil
}

// setup загружает конфиг, поднимает логгер и собирает компоненты.
//
// interactive выключает лог в stderr, если не задан log.file:
// вывод интерактивных команд занимает терминал.
func setup(ctx context.Context, interactive bool) (*app.Components, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	opts := utils.LoggerOptions{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Format:  cfg.Log.Format,
		Discard: interactive,
	}
	if err := utils.InitLogger(opts); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	comps, err := app.Initialize(ctx, cfg)
	if err != nil {
		utils.Error("initialization failed", "error", err)
		return nil, err
	}
	return comps, nil
}
