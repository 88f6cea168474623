package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/openreel/gateway/internal/display"
	"github.com/openreel/gateway/internal/feed"
	"github.com/openreel/gateway/internal/models"
	"github.com/openreel/gateway/internal/repositories"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type gatewayStub struct {
	mu       sync.Mutex
	requests []string
	status   int
	body     string
	mime     string
}

func (g *gatewayStub) client() *resty.Client {
	client := resty.New()
	client.SetTransport(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		g.mu.Lock()
		g.requests = append(g.requests, req.URL.String())
		g.mu.Unlock()

		status := g.status
		if status == 0 {
			status = http.StatusOK
		}
		header := http.Header{}
		if g.mime != "" {
			header.Set("Content-Type", g.mime)
		}
		return &http.Response{
			StatusCode: status,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(g.body)),
			Request:    req,
		}, nil
	}))
	return client
}

func (g *gatewayStub) requestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type objectStoreStub struct {
	mu    sync.Mutex
	saved map[string][]byte
	mimes map[string]string
	err   error
}

func (s *objectStoreStub) Save(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	_ = ctx
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string][]byte)
		s.mimes = make(map[string]string)
	}
	s.saved[key] = data
	s.mimes[key] = contentType
	return fmt.Sprintf("https://cdn.openreel.dev/%s", key), nil
}

func (s *objectStoreStub) savedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.saved))
	for key := range s.saved {
		keys = append(keys, key)
	}
	return keys
}

type recorderStub struct {
	mu       sync.Mutex
	existing map[string]models.MirroredThumbnail
	records  []models.MirroredThumbnail
}

func (r *recorderStub) Record(ctx context.Context, mirror models.MirroredThumbnail) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, mirror)
	return nil
}

func (r *recorderStub) Find(ctx context.Context, videoID string) (models.MirroredThumbnail, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if mirror, ok := r.existing[videoID]; ok {
		return mirror, nil
	}
	return models.MirroredThumbnail{}, repositories.ErrNotFound
}

func (r *recorderStub) recorded() []models.MirroredThumbnail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.MirroredThumbnail(nil), r.records...)
}

func testResolver() display.Resolver {
	return display.Resolver{IPFSGatewayDomain: "gateway.test"}
}

func newTestMirror(gateway *gatewayStub, store *objectStoreStub, recorder *recorderStub) *Mirror {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(gateway.client(), testResolver(), store, recorder, Config{QueueSize: 4, Workers: 1}, logger)
}

func shutdownMirror(t *testing.T, m *Mirror) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown mirror: %v", err)
	}
}

func TestMirrorSuccess(t *testing.T) {
	gateway := &gatewayStub{body: "png-bytes", mime: "image/png"}
	store := &objectStoreStub{}
	recorder := &recorderStub{}
	m := newTestMirror(gateway, store, recorder)
	defer shutdownMirror(t, m)

	video := models.VideoSummary{VideoID: "vid-1", StorageRef: "ipfs:QmHash"}
	if err := m.Enqueue(context.Background(), video); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForCondition(t, func() bool { return len(recorder.recorded()) > 0 }, time.Second)

	records := recorder.recorded()
	if records[0].Status != models.MirrorStatusReady {
		t.Fatalf("expected ready record, got %+v", records[0])
	}
	if records[0].VideoID != "vid-1" {
		t.Fatalf("expected record keyed by playback id, got %s", records[0].VideoID)
	}
	if records[0].SizeBytes != int64(len("png-bytes")) {
		t.Fatalf("unexpected mirrored size: %d", records[0].SizeBytes)
	}
	if records[0].ObjectURL != "https://cdn.openreel.dev/thumbnails/vid-1.png" {
		t.Fatalf("unexpected object url: %s", records[0].ObjectURL)
	}

	gateway.mu.Lock()
	requested := append([]string(nil), gateway.requests...)
	gateway.mu.Unlock()
	if len(requested) != 1 || requested[0] != "https://gateway.test/ipfs/QmHash" {
		t.Fatalf("unexpected gateway requests: %v", requested)
	}

	store.mu.Lock()
	mime := store.mimes["thumbnails/vid-1.png"]
	store.mu.Unlock()
	if mime != "image/png" {
		t.Fatalf("expected content type to reach the store, got %q", mime)
	}
}

func TestMirrorKeysByStorageRefWithoutPlaybackID(t *testing.T) {
	gateway := &gatewayStub{body: "jpg-bytes", mime: "image/jpeg"}
	store := &objectStoreStub{}
	recorder := &recorderStub{}
	m := newTestMirror(gateway, store, recorder)
	defer shutdownMirror(t, m)

	video := models.VideoSummary{StorageRef: "ipfs://QmNoPlayback"}
	if err := m.Enqueue(context.Background(), video); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForCondition(t, func() bool { return len(recorder.recorded()) > 0 }, time.Second)

	records := recorder.recorded()
	if records[0].VideoID != "ipfs://QmNoPlayback" {
		t.Fatalf("expected record keyed by storage ref, got %s", records[0].VideoID)
	}

	keys := store.savedKeys()
	if len(keys) != 1 || keys[0] != "thumbnails/QmNoPlayback.jpg" {
		t.Fatalf("unexpected object keys: %v", keys)
	}
}

func TestMirrorSkipsNonIPFSRefs(t *testing.T) {
	gateway := &gatewayStub{body: "bytes", mime: "image/jpeg"}
	store := &objectStoreStub{}
	recorder := &recorderStub{}
	m := newTestMirror(gateway, store, recorder)
	defer shutdownMirror(t, m)

	skipped := []models.VideoSummary{
		{VideoID: "vid-2", StorageRef: "s3://bucket/object"},
		{VideoID: "vid-3"},
	}
	for _, video := range skipped {
		if err := m.Enqueue(context.Background(), video); err != nil {
			t.Fatalf("enqueue %s: %v", video.VideoID, err)
		}
	}

	marker := models.VideoSummary{VideoID: "vid-4", StorageRef: "ipfs:QmMarker"}
	if err := m.Enqueue(context.Background(), marker); err != nil {
		t.Fatalf("enqueue marker: %v", err)
	}

	waitForCondition(t, func() bool { return len(recorder.recorded()) > 0 }, time.Second)

	records := recorder.recorded()
	if len(records) != 1 || records[0].VideoID != "vid-4" {
		t.Fatalf("expected only the ipfs video to be mirrored, got %+v", records)
	}
}

func TestMirrorSkipsAlreadyMirrored(t *testing.T) {
	gateway := &gatewayStub{body: "bytes", mime: "image/jpeg"}
	store := &objectStoreStub{}
	recorder := &recorderStub{
		existing: map[string]models.MirroredThumbnail{
			"vid-5": {VideoID: "vid-5", Status: models.MirrorStatusReady},
		},
	}
	m := newTestMirror(gateway, store, recorder)
	defer shutdownMirror(t, m)

	if err := m.Enqueue(context.Background(), models.VideoSummary{VideoID: "vid-5", StorageRef: "ipfs:QmSeen"}); err != nil {
		t.Fatalf("enqueue mirrored: %v", err)
	}
	if err := m.Enqueue(context.Background(), models.VideoSummary{VideoID: "vid-6", StorageRef: "ipfs:QmFresh"}); err != nil {
		t.Fatalf("enqueue fresh: %v", err)
	}

	waitForCondition(t, func() bool { return len(recorder.recorded()) > 0 }, time.Second)

	records := recorder.recorded()
	if len(records) != 1 || records[0].VideoID != "vid-6" {
		t.Fatalf("expected only the fresh video to be mirrored, got %+v", records)
	}

	gateway.mu.Lock()
	requested := append([]string(nil), gateway.requests...)
	gateway.mu.Unlock()
	for _, url := range requested {
		if strings.Contains(url, "QmSeen") {
			t.Fatalf("expected no fetch for the already-mirrored video, got %v", requested)
		}
	}
}

func TestMirrorRecordsFetchFailure(t *testing.T) {
	gateway := &gatewayStub{status: http.StatusNotFound}
	store := &objectStoreStub{}
	recorder := &recorderStub{}
	m := newTestMirror(gateway, store, recorder)
	defer shutdownMirror(t, m)

	if err := m.Enqueue(context.Background(), models.VideoSummary{VideoID: "vid-7", StorageRef: "ipfs:QmGone"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForCondition(t, func() bool { return len(recorder.recorded()) > 0 }, time.Second)

	records := recorder.recorded()
	if records[0].Status != models.MirrorStatusFailed {
		t.Fatalf("expected failed record, got %+v", records[0])
	}
	if len(store.savedKeys()) != 0 {
		t.Fatalf("expected nothing stored on fetch failure, got %v", store.savedKeys())
	}
}

func TestMirrorRecordsStoreFailure(t *testing.T) {
	gateway := &gatewayStub{body: "bytes", mime: "image/jpeg"}
	store := &objectStoreStub{err: errors.New("bucket unavailable")}
	recorder := &recorderStub{}
	m := newTestMirror(gateway, store, recorder)
	defer shutdownMirror(t, m)

	if err := m.Enqueue(context.Background(), models.VideoSummary{VideoID: "vid-8", StorageRef: "ipfs:QmStuck"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForCondition(t, func() bool { return len(recorder.recorded()) > 0 }, time.Second)

	records := recorder.recorded()
	if records[0].Status != models.MirrorStatusFailed {
		t.Fatalf("expected failed record, got %+v", records[0])
	}
}

func TestMirrorRejectsEnqueueAfterShutdown(t *testing.T) {
	gateway := &gatewayStub{}
	m := newTestMirror(gateway, &objectStoreStub{}, &recorderStub{})
	shutdownMirror(t, m)

	err := m.Enqueue(context.Background(), models.VideoSummary{VideoID: "vid-9", StorageRef: "ipfs:QmLate"})
	if !errors.Is(err, errMirrorClosed) {
		t.Fatalf("expected errMirrorClosed, got %v", err)
	}
}

type fetcherFunc func(ctx context.Context, tag string) feed.FetchState

func (f fetcherFunc) Load(ctx context.Context, tag string) feed.FetchState {
	return f(ctx, tag)
}

func TestTapEnqueuesLoadedVideos(t *testing.T) {
	gateway := &gatewayStub{body: "bytes", mime: "image/jpeg"}
	store := &objectStoreStub{}
	recorder := &recorderStub{}
	m := newTestMirror(gateway, store, recorder)
	defer shutdownMirror(t, m)

	videos := []models.VideoSummary{
		{VideoID: "vid-10", StorageRef: "ipfs:QmTapped"},
		{VideoID: "vid-11", StorageRef: "s3://bucket/other"},
	}
	tap := NewTap(fetcherFunc(func(ctx context.Context, tag string) feed.FetchState {
		return feed.Loaded(videos)
	}), m)

	state := tap.Load(context.Background(), "comedy")
	if state.Phase != feed.PhaseLoaded || len(state.Videos) != 2 {
		t.Fatalf("expected pass-through load, got %+v", state)
	}

	waitForCondition(t, func() bool { return len(recorder.recorded()) > 0 }, time.Second)

	records := recorder.recorded()
	if len(records) != 1 || records[0].VideoID != "vid-10" {
		t.Fatalf("expected only the ipfs video to be enqueued, got %+v", records)
	}
}

func TestTapPassesThroughFailures(t *testing.T) {
	gateway := &gatewayStub{}
	m := newTestMirror(gateway, &objectStoreStub{}, &recorderStub{})
	defer shutdownMirror(t, m)

	tap := NewTap(fetcherFunc(func(ctx context.Context, tag string) feed.FetchState {
		return feed.Failed("backend exploded")
	}), m)

	state := tap.Load(context.Background(), "comedy")
	if state.Phase != feed.PhaseFailed || state.Message != "backend exploded" {
		t.Fatalf("expected failure to pass through, got %+v", state)
	}

	if gateway.requestCount() != 0 {
		t.Fatalf("expected no gateway traffic for failed loads")
	}
}

func waitForCondition(t *testing.T, predicate func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if predicate() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
