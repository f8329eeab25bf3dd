package cli

import (
	"fmt"
	"os"

	"github.com/qualitygate/qualitygate/internal/config"
	"github.com/qualitygate/qualitygate/internal/engine"
	"github.com/qualitygate/qualitygate/internal/learning"
	"github.com/qualitygate/qualitygate/internal/logger"
	"github.com/qualitygate/qualitygate/internal/packs"
	"github.com/qualitygate/qualitygate/internal/pattern"
)

// app bundles the pieces every command needs: resolved config, a loaded
// engine, the event log, and an adjuster for flushing learning samples.
// Serve mode installs its own adjuster (with metrics hooks) before close;
// one-shot commands get one lazily at close time.
type app struct {
	cfg      *config.Config
	engine   *engine.Engine
	adjuster *learning.Adjuster
	log      *logger.EventLogger
}

// newApp loads config and patterns and assembles an engine. One-shot
// commands call this per invocation; serve mode calls it once and passes
// extra options (metrics wiring).
func newApp(extraOpts ...engine.Option) (*app, error) {
	cfg, err := config.Load(configPath, logPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	eventLog, err := logger.New(cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}

	defs, _, err := packs.LoadDir(cfg.PacksDir, packs.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "[QualityGate] warning: packs load failed: %v\n", err)
		defs = packs.Default()
	}

	store := pattern.NewStore()
	_, excluded, err := store.Load(defs)
	if err != nil {
		_ = eventLog.Close()
		return nil, fmt.Errorf("pattern load failed: %w", err)
	}
	for _, ex := range excluded {
		_ = eventLog.Log(logger.Event{
			Kind:   logger.KindPatternExcluded,
			Detail: fmt.Sprintf("pattern %q excluded: %v", ex.ID, ex.Err),
		})
	}

	queue := learning.NewQueue(cfg.QueueCapacity)
	opts := []engine.Option{
		engine.WithBudget(cfg.Budget),
		engine.WithCacheCapacity(cfg.MaxCacheEntries),
		engine.WithMaxEvalLen(cfg.MaxInputLen),
		engine.WithQueue(queue),
		engine.WithWarnf(func(format string, args ...any) {
			_ = eventLog.Log(logger.Event{
				Kind:   logger.KindWarning,
				Detail: fmt.Sprintf(format, args...),
			})
		}),
	}
	opts = append(opts, extraOpts...)
	eng, err := engine.New(store, opts...)
	if err != nil {
		_ = eventLog.Close()
		return nil, fmt.Errorf("engine init failed: %w", err)
	}

	return &app{cfg: cfg, engine: eng, log: eventLog}, nil
}

// close flushes pending learning samples and releases the log. One-shot
// hosts have no background adjuster, so the flush happens here.
func (a *app) close() {
	if a.adjuster == nil && a.cfg.LearningEnabled {
		a.adjuster = learning.NewAdjuster(a.engine.Store(), a.engine.Queue())
	}
	if a.adjuster != nil {
		a.adjuster.RunOnce()
	}
	if dropped := a.engine.Queue().Dropped(); dropped > 0 {
		_ = a.log.Log(logger.Event{
			Kind:   logger.KindSamplesDropped,
			Detail: fmt.Sprintf("%d learning samples dropped", dropped),
		})
	}
	_ = a.log.Close()
}
