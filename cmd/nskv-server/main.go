// Command nskv-server is an in-memory, RESP2 speaking store for local
// development and end-to-end tests of nskv clients. It implements the
// strings, hashes, sets, sorted sets, JSON documents, SCAN and MULTI/EXEC
// commands the client layer uses.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/yndnr/nskv/internal/config"
	"github.com/yndnr/nskv/internal/core/command"
	"github.com/yndnr/nskv/internal/infra/buildinfo"
	"github.com/yndnr/nskv/internal/infra/confloader"
	"github.com/yndnr/nskv/internal/infra/shutdown"
	"github.com/yndnr/nskv/internal/server/redisserver"
	"github.com/yndnr/nskv/internal/storage/memory"
	"github.com/yndnr/nskv/internal/telemetry/logger"
	"github.com/yndnr/nskv/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "path to configuration file")
		showVersion = flag.Bool("version", false, "show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("nskv-server " + buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile, nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)
	log.Info("starting nskv-server", "version", buildinfo.Version, "config", *configFile)
	log.Debug("effective config", "config", config.Flatten(config.Sanitize(cfg)))

	engine := command.New(memory.New())

	reg := metric.NewRegistry()
	if err := reg.Register(metric.NewKeyspaceCollector(engine.Store().Len)); err != nil {
		return fmt.Errorf("register keyspace collector: %w", err)
	}

	srv := redisserver.New(redisserver.Config{
		Addr:         cfg.Server.Addr,
		Password:     cfg.Server.Password,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    cfg.Server.RateLimit,
	}, engine, log, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sh := shutdown.NewHandler(shutdownTimeout, log)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start redis server: %w", err)
	}
	sh.OnShutdown("redis server", srv.Shutdown)

	if cfg.Server.MetricsAddr != "" {
		ms := newMetricsServer(cfg.Server.MetricsAddr, reg)
		go func() {
			log.Info("metrics server listening", "address", cfg.Server.MetricsAddr)
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
				sh.Trigger()
			}
		}()
		sh.OnShutdown("metrics server", ms.Shutdown)
	}

	if *configFile != "" {
		w, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config watch disabled", "error", err)
		} else {
			sh.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := sh.Wait(ctx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func newMetricsServer(addr string, reg *metric.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// watchConfig re-applies the log level when the config file changes. Other
// settings need a restart.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}
	w.OnChange(func(p string) {
		cfg, err := config.Load(p, nil)
		if err != nil {
			log.Warn("config reload rejected", "path", p, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}
