package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"hkholiday/internal/config"
	appLog "hkholiday/internal/log"
	"hkholiday/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	outDir     string
	statutory  bool
	serve      bool
	debug      bool
}

func main() {
	flags := parseFlags()

	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("hkholiday starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI -out overrides the configured output directory.
	if flags.outDir != "" {
		conf.OutputDir = flags.outDir
	}

	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"horizon_years", conf.HorizonYears,
		"output_dir", conf.OutputDir,
		"cache_dir", conf.CacheDir,
		"source_count", len(conf.Sources),
		"statutory", flags.statutory,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, conf, flags.statutory); err != nil {
		appLog.Error("pipeline failed", err)
		os.Exit(1)
	}

	if flags.serve {
		if err := web.ListenAndServe(ctx, conf.Listen, conf.OutputDir); err != nil {
			appLog.Error("preview server failed", err)
			os.Exit(1)
		}
		return
	}

	appLog.Info("hkholiday done")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./hkholiday.yaml", "Path to config file")
	flag.StringVar(&cfg.outDir, "out", "", "Output directory (overrides config if set)")
	flag.BoolVar(&cfg.statutory, "statutory", true, "Cross-reference statutory holidays")
	flag.BoolVar(&cfg.serve, "serve", false, "Serve the generated output for preview after the run")
	flag.BoolVar(&cfg.debug, "debug", false, "Verbose logging")

	flag.Parse()

	return cfg
}
