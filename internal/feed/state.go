package feed

import "github.com/openreel/gateway/internal/models"

// Phase names the stage of a fetch lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

// String renders the phase for logs and API payloads.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FetchState is the observable outcome of a feed load. Videos is only
// meaningful while Loaded, Message only while Failed.
type FetchState struct {
	Phase   Phase
	Videos  []models.VideoSummary
	Message string
}

// Idle is the state before any load has been requested.
func Idle() FetchState {
	return FetchState{Phase: PhaseIdle}
}

// Loading marks a fetch in flight.
func Loading() FetchState {
	return FetchState{Phase: PhaseLoading}
}

// Loaded wraps a resolved collection. A nil slice normalizes to an empty
// one so consumers always see a collection, never absence.
func Loaded(videos []models.VideoSummary) FetchState {
	if videos == nil {
		videos = []models.VideoSummary{}
	}
	return FetchState{Phase: PhaseLoaded, Videos: videos}
}

// Failed carries the message of a fetch that blew up outright.
func Failed(message string) FetchState {
	return FetchState{Phase: PhaseFailed, Message: message}
}
