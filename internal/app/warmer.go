package app

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/openreel/gateway/internal/feed"
)

// readinessProbe reports whether the backend video directory is answering.
type readinessProbe interface {
	Ready(ctx context.Context) bool
}

// homeWarmer keeps the home feed view fresh. On every tick it probes the
// directory, records the observed readiness, and feeds the (ready, tag)
// pair into the view; the view itself decides whether that means a
// re-fetch. The cached readiness also backs the health endpoint so probes
// never reach the actor directly.
type homeWarmer struct {
	view     *feed.View
	probe    readinessProbe
	interval time.Duration
	tag      string
	logger   *slog.Logger

	ready atomic.Bool
}

func newHomeWarmer(view *feed.View, probe readinessProbe, interval time.Duration, tag string, logger *slog.Logger) *homeWarmer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &homeWarmer{
		view:     view,
		probe:    probe,
		interval: interval,
		tag:      tag,
		logger:   logger,
	}
}

// Ready returns the directory readiness observed on the last tick.
func (w *homeWarmer) Ready() bool {
	return w.ready.Load()
}

// State exposes the warmed view for the home endpoint.
func (w *homeWarmer) State() feed.FetchState {
	return w.view.State()
}

// Run ticks until ctx is canceled. The first tick happens immediately so
// the home feed starts loading as soon as the server is up.
func (w *homeWarmer) Run(ctx context.Context) {
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *homeWarmer) tick(ctx context.Context) {
	ready := false
	if w.probe != nil {
		ready = w.probe.Ready(ctx)
	}

	if w.ready.Swap(ready) != ready {
		w.logger.Info("video directory readiness changed", "ready", ready)
	}

	w.view.Refresh(ctx, ready, w.tag)
}
