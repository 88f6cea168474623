package handlers

import (
	"net/http"
	"time"

	"github.com/openreel/gateway/internal/display"
	"github.com/openreel/gateway/internal/feed"
	"github.com/openreel/gateway/internal/logging"
)

// VideoHandler serves the video directory endpoints. Fetch outcomes are
// returned with their lifecycle phase so the client shell can render
// loading and failure states; the HTTP status stays 200 either way.
type VideoHandler struct {
	Fetcher  FeedFetcher
	HomeFeed HomeFeed
	Display  display.Resolver
	NowFunc  func() time.Time
}

// List handles GET /api/v1/videos requests. An absent tag loads the whole
// directory.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if h.Fetcher == nil {
		logging.FromContext(ctx).Error("feed fetcher unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video directory unavailable"})
		return
	}

	tag := r.URL.Query().Get("tag")
	if tag == "" {
		tag = "all"
	}

	state := h.Fetcher.Load(ctx, tag)
	respondJSON(ctx, w, http.StatusOK, h.feedPayload(state))
}

// Home handles GET /api/v1/videos/home requests. It serves the continuously
// warmed home collection without blocking on the backend.
func (h VideoHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if h.HomeFeed == nil {
		logging.FromContext(ctx).Error("home feed unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video directory unavailable"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, h.feedPayload(h.HomeFeed.State()))
}

func (h VideoHandler) feedPayload(state feed.FetchState) feedResponse {
	resp := feedResponse{
		Phase:  state.Phase.String(),
		Videos: []videoItem{},
	}

	if state.Phase == feed.PhaseFailed {
		resp.Message = state.Message
		return resp
	}

	now := h.now()
	for _, video := range state.Videos {
		resp.Videos = append(resp.Videos, videoItem{
			VideoID:      video.VideoID,
			Title:        video.Title,
			Uploader:     video.Uploader.String(),
			Timestamp:    video.TimestampSeconds,
			PostedAgo:    display.RelativeTime(video.TimestampSeconds, now),
			Views:        video.Views,
			ViewsCompact: display.CompactCount(video.Views),
			ThumbnailURL: h.Display.ThumbnailURL(video),
		})
	}

	return resp
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type videoItem struct {
	VideoID      string `json:"video_id,omitempty"`
	Title        string `json:"title"`
	Uploader     string `json:"uploader"`
	Timestamp    int64  `json:"timestamp"`
	PostedAgo    string `json:"posted_ago"`
	Views        int64  `json:"views"`
	ViewsCompact string `json:"views_compact"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type feedResponse struct {
	Phase   string      `json:"phase"`
	Message string      `json:"message,omitempty"`
	Videos  []videoItem `json:"videos"`
}
