package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/openreel/gateway/internal/actor"
	"github.com/openreel/gateway/internal/logging"
	"github.com/openreel/gateway/internal/models"
)

// Directory is the slice of the actor surface the loader consumes.
type Directory interface {
	ListVideosByTag(ctx context.Context, tag string) ([]models.VideoSummary, error)
	SearchVideos(ctx context.Context, query string, filters actor.SearchFilters) ([]models.VideoSummary, error)
}

// Fetcher loads the feed for a tag.
type Fetcher interface {
	Load(ctx context.Context, tag string) FetchState
}

// Loader resolves a video collection for an optional tag. Per-query
// failures degrade to an empty collection so one bad tag never blanks the
// page; only a panic escaping the load surfaces as Failed.
type Loader struct {
	directory Directory
}

// NewLoader builds a loader over the given directory. A nil directory is
// allowed and resolves every load to an empty collection.
func NewLoader(directory Directory) *Loader {
	return &Loader{directory: directory}
}

// IsSentinelTag reports whether the tag means "no filter". Exactly the
// two spellings "all" and "All" are sentinels; any other casing is a real
// tag.
func IsSentinelTag(tag string) bool {
	return tag == "all" || tag == "All"
}

// Load fetches the collection for tag, sorted newest first. An empty tag
// or a sentinel tag loads the unfiltered directory.
func (l *Loader) Load(ctx context.Context, tag string) (state FetchState) {
	ctx, span := logging.StartSpan(ctx, "feed.load")
	logger := logging.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("feed load panic: %v", r)
			logger.Error("feed load panicked", "tag", tag, "panic", r)
			span.Fail(err)
			state = Failed(fmt.Sprint(r))
		}
	}()

	if l == nil || l.directory == nil {
		span.End()
		return Loaded(nil)
	}

	var (
		videos []models.VideoSummary
		err    error
	)

	if tag != "" && !IsSentinelTag(tag) {
		videos, err = l.directory.ListVideosByTag(ctx, strings.ToLower(tag))
		if err != nil {
			logger.Warn("tag query failed, serving empty feed", "tag", tag, "error", err)
			span.End()
			return Loaded(nil)
		}
	} else {
		videos, err = l.directory.SearchVideos(ctx, "", actor.SearchFilters{})
		if err != nil {
			if errors.Is(err, actor.ErrUnsupported) {
				logger.Info("directory search unsupported, serving empty feed")
			} else {
				logger.Warn("directory search failed, serving empty feed", "error", err)
			}
			span.End()
			return Loaded(nil)
		}
	}

	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].TimestampSeconds > videos[j].TimestampSeconds
	})

	span.End()
	return Loaded(videos)
}
