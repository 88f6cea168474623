package display

import (
	"fmt"
	"strings"

	"github.com/openreel/gateway/internal/models"
)

// FallbackThumbnail is served when neither a playback ID nor a usable
// storage reference is available.
const FallbackThumbnail = "/static/thumbnail-placeholder.png"

const (
	defaultPlaybackDomain    = "stream.openreel.dev"
	defaultIPFSGatewayDomain = "ipfs.io"
)

// Resolver derives displayable thumbnail URLs for directory entries.
type Resolver struct {
	// PlaybackDomain hosts playback-ID derived stills.
	PlaybackDomain string
	// IPFSGatewayDomain serves ipfs: storage references over HTTP.
	IPFSGatewayDomain string
}

// ThumbnailURL picks the best available source for a video's thumbnail:
// the playback still when a video ID is present, the IPFS gateway for
// ipfs: storage references, and the static fallback otherwise.
func (r Resolver) ThumbnailURL(video models.VideoSummary) string {
	if video.VideoID != "" {
		return fmt.Sprintf("https://%s/%s/thumbnail.jpg", r.playbackDomain(), video.VideoID)
	}

	if url, ok := r.IPFSSourceURL(video.StorageRef); ok {
		return url
	}

	return FallbackThumbnail
}

// IPFSSourceURL resolves an ipfs: storage reference to a gateway URL.
// It reports false for references this resolver cannot serve.
func (r Resolver) IPFSSourceURL(storageRef string) (string, bool) {
	ref, ok := strings.CutPrefix(storageRef, "ipfs:")
	if !ok {
		return "", false
	}
	ref = strings.TrimLeft(ref, "/")
	if ref == "" {
		return "", false
	}
	return fmt.Sprintf("https://%s/ipfs/%s", r.gatewayDomain(), ref), true
}

func (r Resolver) playbackDomain() string {
	if r.PlaybackDomain != "" {
		return r.PlaybackDomain
	}
	return defaultPlaybackDomain
}

func (r Resolver) gatewayDomain() string {
	if r.IPFSGatewayDomain != "" {
		return r.IPFSGatewayDomain
	}
	return defaultIPFSGatewayDomain
}
