package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/openreel/gateway/internal/logging"
	"github.com/openreel/gateway/internal/models"
)

const codeMethodNotFound = "method_not_found"

// Client talks to the ledger actor proxy over its HTTP call envelope.
type Client struct {
	http *resty.Client
}

// NewClient configures a client for the actor proxy at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{http: httpClient}
}

type callRequest struct {
	Method string `json:"method"`
	Args   any    `json:"args"`
}

type callError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type callResponse struct {
	OK  json.RawMessage `json:"ok"`
	Err *callError      `json:"err"`
}

type listVideosArgs struct {
	Tag string `json:"tag"`
}

type searchVideosArgs struct {
	Query   string        `json:"query"`
	Filters SearchFilters `json:"filters"`
}

// ListVideosByTag fetches the directory entries carrying the given tag.
func (c *Client) ListVideosByTag(ctx context.Context, tag string) ([]models.VideoSummary, error) {
	ctx, span := logging.StartSpan(ctx, "actor.list_videos_by_tag")

	raw, err := c.call(ctx, "list_videos_by_tag", listVideosArgs{Tag: tag})
	if err != nil {
		span.Fail(err)
		return nil, err
	}

	videos, err := decodeVideos(raw)
	if err != nil {
		span.Fail(err)
		return nil, err
	}

	span.End()
	return videos, nil
}

// SearchVideos runs a directory search. An empty query with zero filters
// returns the unfiltered directory contents.
func (c *Client) SearchVideos(ctx context.Context, query string, filters SearchFilters) ([]models.VideoSummary, error) {
	ctx, span := logging.StartSpan(ctx, "actor.search_videos")

	raw, err := c.call(ctx, "search_videos", searchVideosArgs{Query: query, Filters: filters})
	if err != nil {
		span.Fail(err)
		return nil, err
	}

	videos, err := decodeVideos(raw)
	if err != nil {
		span.Fail(err)
		return nil, err
	}

	span.End()
	return videos, nil
}

// Ready reports whether the actor proxy answers its status endpoint
// affirmatively.
func (c *Client) Ready(ctx context.Context) bool {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/v1/status")
	if err != nil || resp.StatusCode() != http.StatusOK {
		return false
	}

	var status struct {
		Ready bool `json:"ready"`
	}
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return false
	}
	return status.Ready
}

func (c *Client) call(ctx context.Context, method string, args any) (json.RawMessage, error) {
	reqBody := callRequest{Method: method, Args: args}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&reqBody).
		Post("/v1/call")
	if err != nil {
		return nil, fmt.Errorf("actor call %s: %w", method, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("actor call %s: unexpected status %d", method, resp.StatusCode())
	}

	var envelope callResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("actor call %s: decode envelope: %w", method, err)
	}

	if envelope.Err != nil {
		if envelope.Err.Code == codeMethodNotFound {
			return nil, fmt.Errorf("actor call %s: %w", method, ErrUnsupported)
		}
		return nil, fmt.Errorf("actor call %s: %s (%s)", method, envelope.Err.Message, envelope.Err.Code)
	}

	return envelope.OK, nil
}
