package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memcell/internal/infra/buildinfo"
	"github.com/yndnr/memcell/internal/infra/confloader"
	"github.com/yndnr/memcell/internal/infra/shutdown"
	"github.com/yndnr/memcell/internal/server/config"
	"github.com/yndnr/memcell/internal/telemetry/logger"
)

// shutdownTimeout bounds the time spent draining listeners on exit.
const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:            "memcell-server",
		Usage:           "In-memory cache server speaking the memcached binary protocol",
		HideVersion:     true,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"MEMCELL_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "binary protocol listen address (overrides server.memcache.addr)",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP listen address, empty to disable (overrides server.http.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides log.level)",
			},
			&cli.BoolFlag{
				Name:  "version",
				Usage: "print version information and exit",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if c.Bool("version") {
		fmt.Fprintln(c.App.Writer, buildinfo.String())
		return nil
	}

	configFile := c.String("config")
	overrides := flagOverrides(c)

	cfg, origins, err := loadConfig(configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting memcell-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile,
	)
	for _, key := range sortedKeys(origins) {
		log.Debug("config value set", "key", key, "source", origins[key])
	}

	d := newDaemon(cfg, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.start(ctx); err != nil {
		_ = d.stop(context.Background())
		return err
	}

	handler := shutdown.NewHandler(shutdownTimeout, log)
	d.register(handler)

	if configFile != "" {
		w, err := watchLogLevel(configFile, overrides, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			handler.OnShutdown("config-watcher", func(context.Context) error {
				return w.Close()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := handler.Wait(c.Context); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// flagOverrides maps explicitly set flags to config paths.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("addr") {
		overrides["server.memcache.addr"] = c.String("addr")
	}
	if c.IsSet("http-addr") {
		overrides["server.http.addr"] = c.String("http-addr")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	return overrides
}

// loadConfig loads configuration from defaults, file, environment and
// overrides, in that order, and validates the result. The returned map
// names the source of every non-default key.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, map[string]string, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader.Origins(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// initLogger builds the process logger and installs it as the default.
func initLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}

// watchLogLevel reloads the config file on change and applies its log
// level. Other settings need a restart.
func watchLogLevel(configFile string, overrides map[string]any, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Add(configFile); err != nil {
		_ = w.Close()
		return nil, err
	}

	w.OnChange(func(path string) {
		cfg, _, err := loadConfig(path, overrides)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "file", path, "error", err)
			return
		}
		before := logger.Level()
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("ignoring log level change", "error", err)
			return
		}
		if after := logger.Level(); after != before {
			log.Info("log level changed", "from", before, "to", after)
		}
	})
	w.Start(context.Background())
	return w, nil
}
