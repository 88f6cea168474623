package feed

import (
	"context"
	"sync"

	"github.com/openreel/gateway/internal/logging"
)

type viewKey struct {
	ready bool
	tag   string
}

// View owns the fetch lifecycle for one rendered feed. It re-fetches only
// when its (ready, tag) key changes, publishes Loading while a fetch is in
// flight, and stamps each fetch with a generation so a superseded fetch
// can never overwrite a newer one's result.
type View struct {
	fetcher Fetcher

	mu         sync.Mutex
	state      FetchState
	key        viewKey
	hasKey     bool
	generation uint64
}

// NewView builds an idle view over the given fetcher.
func NewView(fetcher Fetcher) *View {
	return &View{fetcher: fetcher, state: Idle()}
}

// State returns the last published fetch state.
func (v *View) State() FetchState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Refresh applies a signal update. An unchanged (ready, tag) key leaves
// the current state standing. A not-ready key resolves immediately to an
// empty collection; a ready key publishes Loading and fetches in the
// background. The returned state is whatever was published.
func (v *View) Refresh(ctx context.Context, ready bool, tag string) FetchState {
	v.mu.Lock()

	key := viewKey{ready: ready, tag: tag}
	if v.hasKey && v.key == key {
		state := v.state
		v.mu.Unlock()
		return state
	}

	v.key = key
	v.hasKey = true
	v.generation++
	generation := v.generation

	if !ready {
		v.state = Loaded(nil)
		state := v.state
		v.mu.Unlock()
		return state
	}

	v.state = Loading()
	v.mu.Unlock()

	go v.fetch(ctx, generation, tag)

	return Loading()
}

func (v *View) fetch(ctx context.Context, generation uint64, tag string) {
	state := v.fetcher.Load(ctx, tag)

	v.mu.Lock()
	defer v.mu.Unlock()

	if generation != v.generation {
		logging.FromContext(ctx).Debug("discarding superseded feed fetch", "tag", tag)
		return
	}
	v.state = state
}
