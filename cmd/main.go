package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/oscrouter/internal/adapters/eventlog"
	"github.com/okian/oscrouter/internal/adapters/http/api"
	"github.com/okian/oscrouter/internal/adapters/http/swagger"
	"github.com/okian/oscrouter/internal/adapters/repository"
	app "github.com/okian/oscrouter/internal/app"
	"github.com/okian/oscrouter/internal/config"
	"github.com/okian/oscrouter/pkg/logger"
	"github.com/okian/oscrouter/pkg/metrics"
)

// HTTP server timeout constants. WriteTimeout is zero so the log stream can
// stay open.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// We collect our own system metrics on a custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "oscrouter exited", logger.Error(err))
		os.Exit(1)
	}
}

// run serves the admin API and, when configured, the OSC router until ctx is
// cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	router, err := newRouter(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := router.Stop(); err != nil {
			log.Warn(context.Background(), "router stop reported errors", logger.Error(err))
		}
	}()

	if cfg.Autostart {
		// A failed autostart leaves the admin API up so an operator can fix
		// the port and start again.
		if err := router.Start(ctx, cfg.OSCPort); err != nil {
			log.Error(ctx, "osc autostart failed", logger.Int("port", cfg.OSCPort), logger.Error(err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// Requests inherit gctx so long-lived handlers such as the log stream
	// return when shutdown starts instead of holding Shutdown open.
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, router),
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

// newRouter builds the router from configuration.
func newRouter(cfg *config.Config, log logger.Logger) (*app.Router, error) {
	routes, err := cfg.Endpoints()
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(log.Named("router")),
		app.WithRoutingTable(repository.NewMemoryTable(repository.WithRoutes(routes))),
		app.WithEventLog(eventlog.New(eventlog.WithCapacity(cfg.EventLogSize))),
		app.WithBindHost(cfg.OSCHost),
		app.WithListenPort(cfg.OSCPort),
		app.WithDefaultDestPort(cfg.DefaultDestPort),
		app.WithQueueSize(cfg.QueueSize),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithRestartDelay(cfg.RestartDelay()),
		app.WithCorrelatedStations(cfg.CorrelatedStations...),
		app.WithRateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst),
	), nil
}

// newHandler wires docs and admin routes onto a fresh mux router.
func newHandler(ctx context.Context, router *app.Router) http.Handler {
	r := mux.NewRouter()
	swagger.Register(ctx, r)
	api.NewServer(router, router).Register(ctx, r)
	return r
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
