package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"caldash/internal/capture"
	"caldash/internal/config"
	appLog "caldash/internal/log"
	"caldash/internal/provider"
	"caldash/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	snapshot   bool
	debug      bool
}

func main() {
	appLog.Info("caldash starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"palette_size", conf.PaletteSize,
		"grid_collapse_hour", conf.GridCollapseHour,
		"feed_count", len(conf.Feeds),
		"ics_count", len(conf.ICS),
		"once", flags.once,
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

	cacheDir := "/var/lib/caldash/source-cache"
	if flags.debug {
		cacheDir = "./cache/source-cache"
	}
	prov := provider.New(conf, cacheDir)

	if flags.once {
		payload := prov.FetchEvents(ctx)
		appLog.Info("one-shot fetch completed", "events", len(payload.Events), "errors", len(payload.Errors))
		if flags.snapshot {
			// A snapshot needs a live server to render against.
			appLog.Warn("snapshot requires the server; ignoring -snapshot with -once")
		}
		return
	}

	server := web.NewServer(conf, flags.configPath, prov, flags.debug)

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	// Periodic refresh (and optional snapshot) driven by cron.
	sched := cron.New()
	_, err = sched.AddFunc(conf.RefreshCron, func() {
		refreshCtx, refreshCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer refreshCancel()

		payload := prov.FetchEvents(refreshCtx)
		server.InvalidateEvents()
		appLog.Info("scheduled refresh completed", "events", len(payload.Events), "errors", len(payload.Errors))

		if flags.snapshot {
			runSnapshot(refreshCtx, conf, flags.debug)
		}
	})
	if err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
	appLog.Info("caldash exiting")
}

func runSnapshot(ctx context.Context, conf *config.Config, debug bool) {
	outPath := conf.SnapshotPath
	if outPath == "" {
		outPath = web.DefaultSnapshotPath
	}
	if debug {
		outPath = "./cache/preview.png"
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		appLog.Error("snapshot dir create failed", err, "path", outPath)
		return
	}

	err := capture.SnapshotPNG(ctx, capture.Options{
		URL:        "http://" + conf.Listen + "/",
		OutputPath: outPath,
	})
	if err != nil {
		appLog.Error("snapshot capture failed", err, "path", outPath)
		return
	}
	appLog.Info("snapshot written", "path", outPath)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/caldash/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one provider fetch and exit")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture a dashboard PNG after each scheduled refresh")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug logging and relative cache/preview paths")

	flag.Parse()

	return cfg
}
