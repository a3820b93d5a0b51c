package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/clash-tables/internal/app"
	"github.com/riskibarqy/clash-tables/internal/config"
	"github.com/riskibarqy/clash-tables/internal/observability"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	f, fs, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if f.verbosity < 0 || f.verbosity > 2 {
		fmt.Fprintf(os.Stderr, "invalid verbosity %d: valid values are 0, 1, 2\n", f.verbosity)
		return 1
	}

	envFile, envLoaded := config.LoadDotEnv(f.envFile)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	f.apply(fs, &cfg)
	if fs.Changed("verbosity") {
		cfg.LogLevel = logging.LevelFromVerbosity(f.verbosity)
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()
	if envLoaded {
		logger.Debug("env file loaded", "path", envFile)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		logger.Error("load settings", "error", err)
		return 1
	}

	shutdown, err := observability.Start(cfg, logger)
	if err != nil {
		logger.Error("start observability", "error", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("shutdown observability", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scraper, err := app.NewScraper(ctx, cfg, settings, logger)
	if err != nil {
		logger.Error("build scraper", "error", err)
		return 1
	}
	defer func() {
		if err := scraper.Close(); err != nil {
			logger.Error("close scraper", "error", err)
		}
	}()

	if _, err := scraper.Run(ctx); err != nil {
		logger.Warn("scrape interrupted", "error", err)
	}
	return 0
}
