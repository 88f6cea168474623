package mirror

import (
	"context"

	"github.com/openreel/gateway/internal/feed"
	"github.com/openreel/gateway/internal/logging"
)

// Tap decorates a feed fetcher and enqueues a mirror job for every video in
// a successful load. It sits between the loader and the cache so cache hits
// do not re-enqueue the same videos.
type Tap struct {
	base   feed.Fetcher
	mirror *Mirror
}

// NewTap wraps base. A nil mirror passes loads through untouched.
func NewTap(base feed.Fetcher, mirror *Mirror) *Tap {
	return &Tap{base: base, mirror: mirror}
}

// Load delegates to the wrapped fetcher and schedules mirroring for the
// videos it returned. Enqueue failures never affect the load result.
func (t *Tap) Load(ctx context.Context, tag string) feed.FetchState {
	if t == nil || t.base == nil {
		return feed.Loaded(nil)
	}

	state := t.base.Load(ctx, tag)
	if t.mirror == nil || state.Phase != feed.PhaseLoaded {
		return state
	}

	logger := logging.FromContext(ctx)
	for _, video := range state.Videos {
		if err := t.mirror.Enqueue(ctx, video); err != nil {
			logger.Debug("skip thumbnail mirror enqueue", "videoId", video.VideoID, "error", err)
		}
	}

	return state
}

var _ feed.Fetcher = (*Tap)(nil)
