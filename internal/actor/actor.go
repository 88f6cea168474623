package actor

import "errors"

// ErrUnsupported indicates the actor does not expose the requested
// operation. Callers are expected to fall back rather than fail.
var ErrUnsupported = errors.New("actor: operation not supported")

// SearchFilters narrows a directory search. The zero value applies no
// filtering.
type SearchFilters struct {
	Uploader string `json:"uploader,omitempty"`
	Tag      string `json:"tag,omitempty"`
}
