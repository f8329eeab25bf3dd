package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/qualitygate/qualitygate/internal/engine"
	"github.com/qualitygate/qualitygate/internal/learning"
	"github.com/qualitygate/qualitygate/internal/logger"
	"github.com/qualitygate/qualitygate/internal/metrics"
	"github.com/qualitygate/qualitygate/internal/packs"
	"github.com/qualitygate/qualitygate/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the classification engine as a long-lived HTTP service",
	Long: `Start an HTTP server that classifies inputs over a JSON API, keeps the
caches warm across requests, adapts pattern weights in the background,
and reloads pattern packs when they change on disk.

Endpoints:
  POST /api/v1/classify
  GET  /api/v1/status
  GET  /healthz
  GET  /metrics

  qualitygate serve
  qualitygate serve --addr 127.0.0.1:9000`,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config: 127.0.0.1:8710)")
	rootCmd.AddCommand(serveCmd)
}

func serveCommand(cmd *cobra.Command, args []string) error {
	// Metrics are a serve-mode concern; one-shot hooks don't scrape. The
	// queue is only known after the app is built, so the dropped-samples
	// gauge binds late. Scrapes start after ListenAndServe.
	registry := prometheus.NewRegistry()
	var queue *learning.Queue
	metricSet := metrics.New(registry, func() float64 {
		if queue == nil {
			return 0
		}
		return float64(queue.Dropped())
	})

	a, err := newApp(engine.WithMetrics(metricSet))
	if err != nil {
		return err
	}
	defer a.close()
	queue = a.engine.Queue()
	eng := a.engine

	addr := a.cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	var adjuster *learning.Adjuster
	if a.cfg.LearningEnabled {
		adjuster = learning.NewAdjuster(eng.Store(), queue,
			learning.WithPublishHook(metricSet.AddWeightsPublished))
		// close flushes through this adjuster and logs queue drops on
		// shutdown.
		a.adjuster = adjuster
		adjuster.Start()
		defer adjuster.Stop()
	}

	reload := func() error {
		defs, _, err := packs.LoadDir(a.cfg.PacksDir, packs.Default())
		if err != nil {
			return err
		}
		version, excluded, err := eng.ReloadPatterns(defs)
		if err != nil {
			return err
		}
		for _, ex := range excluded {
			_ = a.log.Log(logger.Event{
				Kind:   logger.KindPatternExcluded,
				Detail: fmt.Sprintf("pattern %q excluded: %v", ex.ID, ex.Err),
			})
		}
		_ = a.log.Log(logger.Event{
			Kind:    logger.KindReload,
			Version: version,
			Detail:  fmt.Sprintf("pattern set reloaded, %d patterns", countPatterns(eng)),
		})
		return nil
	}

	warnf := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, "[QualityGate] warning: "+format+"\n", args...)
	}
	watcher, err := packs.Watch(a.cfg.PacksDir, reload, warnf)
	if err != nil {
		// Serve without hot reload rather than refusing to start.
		warnf("pack watching disabled: %v", err)
	} else {
		defer func() { _ = watcher.Close() }()
	}

	srv := server.New(eng, adjuster, registry, a.log)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("QualityGate listening on %s\n", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		fmt.Printf("\nReceived %v, shutting down\n", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(ctx)
	}
}

func countPatterns(eng *engine.Engine) int {
	return eng.Store().Snapshot().Len()
}
