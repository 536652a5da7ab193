package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/askdesk/internal/adapters/http/api"
	"github.com/okian/askdesk/internal/adapters/http/site"
	"github.com/okian/askdesk/internal/adapters/http/swagger"
	service "github.com/okian/askdesk/internal/app"
	"github.com/okian/askdesk/pkg/logger"
	"github.com/okian/askdesk/pkg/metrics"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// NewServeCmd creates the 'serve' command that runs the HTTP server.
func NewServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Open the configured store, seed it when empty and serve the ask,
browse, admin and docs routes until SIGINT or SIGTERM.`,
		Example: `  # Default sqlite store on :9080
  askdesk serve

  # In-memory store with admin routes enabled
  ASKDESK_STORE_DRIVER=memory ASKDESK_ADMIN_TOKEN=secret askdesk serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg.Addr, cfg.AdminToken, func(ctx context.Context) (*service.Service, func(), error) {
				seedOpts, err := seedOption(cfg)
				if err != nil {
					return nil, nil, err
				}
				return startService(ctx, cfg, seedOpts...)
			})
		},
	}
}

func runServe(ctx context.Context, addr, adminToken string, start func(context.Context) (*service.Service, func(), error)) error {
	log := logger.Get()

	svc, stopService, err := start(ctx)
	if err != nil {
		return err
	}
	defer stopService()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithAdminToken(adminToken)).Register(ctx, mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("%w: %w", api.ErrServe, err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
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

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

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

// updateServiceMetrics refreshes gauges from GetStats. GetStats already
// updates queue length and entry count.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if workers, ok := stats["logWorkers"].(int); ok {
		metrics.UpdateLogWorkers(workers)
	}
	if size, ok := stats["logQueueSize"].(int); ok {
		metrics.UpdateLogQueueCapacity(size)
	}
}
