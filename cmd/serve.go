package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/api"
	"github.com/rnwolfe/devlog/internal/config"
	"github.com/rnwolfe/devlog/internal/jobs"
	"github.com/rnwolfe/devlog/internal/logging"
	"github.com/rnwolfe/devlog/internal/tracker"
	httptransport "github.com/rnwolfe/devlog/internal/transport/http"
	"github.com/rnwolfe/devlog/internal/version"
)

const shutdownTimeout = 15 * time.Second

var (
	serveAddr    string
	serveNoSweep bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the devlog HTTP API",
	Long: `Serve the JSON API, Prometheus metrics on /metrics, and the nightly
streak sweep. Stops cleanly on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
	serveCmd.Flags().BoolVar(&serveNoSweep, "no-sweep", false, "Do not schedule the nightly streak sweep")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := tracker.OptionsFromConfig(cfg, log)
	if err != nil {
		return err
	}
	backend, err := tracker.OpenBackend(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Database.Driver, err)
	}
	t := tracker.New(backend, opts)
	defer t.Close()

	if cfg.Streak.SweepEnabled() && !serveNoSweep {
		sched := jobs.NewScheduler(t, t.Location(), log)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
		log.WithField("next_run", sched.Next().Format(time.RFC3339)).Info("nightly streak sweep scheduled")
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}, newServeHandler(t, log))

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.Server.Addr,
			"version":  version.UserAgent(),
			"driver":   cfg.Database.Driver,
			"timezone": t.Location().String(),
			"policy":   string(t.Policy()),
		}).Info("devlog listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newServeHandler mounts the API and /metrics behind request logging.
func newServeHandler(t *tracker.Tracker, log logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()
	api.NewHandler(t, log).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	return httptransport.WithLogging(log, mux)
}
