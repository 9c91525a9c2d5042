package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"

	"dialcal/internal/config"
	"dialcal/internal/event"
	"dialcal/internal/ics"
	appLog "dialcal/internal/log"
	"dialcal/internal/settings"
	"dialcal/internal/store"
	"dialcal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	dataDir    string
	once       bool
}

func main() {
	appLog.Info("dialcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.dataDir != "" {
		conf.DataDir = flags.dataDir
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"data_dir", conf.DataDir,
		"sweep", conf.SweepCron,
		"ics_count", len(conf.ICS),
		"once", flags.once,
	)

	blobs := store.New(conf.DataDir)
	settingsStore := settings.New(blobs)
	svc := event.New(blobs, settingsStore)

	var importer *ics.Importer
	if len(conf.ICS) > 0 {
		fetcher := ics.NewFetcher(filepath.Join(conf.DataDir, "ics-cache"))
		importer = ics.NewImporter(fetcher, svc, blobs, conf.DefaultEventColor)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	maintain := func() {
		if err := svc.Sweep(); err != nil {
			appLog.Error("retention sweep failed", err)
		}
		if importer != nil {
			if _, err := importer.Refresh(ctx, icsSources(conf)); err != nil {
				appLog.Error("ics refresh failed", err)
			}
		}
	}

	if flags.once {
		maintain()
		appLog.Info("dialcal single run complete")
		return
	}

	// Run the maintenance cycle once at startup, then on the schedule.
	maintain()

	sched := cron.New()
	if _, err := sched.AddFunc(conf.SweepCron, maintain); err != nil {
		appLog.Error("invalid sweep schedule", err, "sweep", conf.SweepCron)
		os.Exit(1)
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	server := web.NewServer(conf, svc, settingsStore, importer)
	if err := web.StartServer(ctx, conf, server); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("dialcal exiting")
}

func icsSources(conf *config.Config) []ics.Source {
	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.Name
		}
		sources = append(sources, ics.Source{ID: id, URL: c.URL})
	}
	return sources
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/dialcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.dataDir, "data-dir", "", "Data directory (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one sweep+import cycle and exit")

	flag.Parse()

	return cfg
}
