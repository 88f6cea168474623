package mirror

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/openreel/gateway/internal/display"
	"github.com/openreel/gateway/internal/models"
	"github.com/openreel/gateway/internal/repositories"
)

// ObjectStore persists fetched thumbnail bytes and returns a public location.
type ObjectStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// Recorder tracks which videos already have a mirrored thumbnail.
type Recorder interface {
	Record(ctx context.Context, mirror models.MirroredThumbnail) error
	Find(ctx context.Context, videoID string) (models.MirroredThumbnail, error)
}

// Config controls the concurrency characteristics of the mirror.
type Config struct {
	QueueSize int
	Workers   int
}

// Mirror copies IPFS-hosted thumbnails into object storage in the background
// so repeat visitors are not at the mercy of public gateway latency. A video
// is mirrored at most once; failures are recorded and never retried
// automatically.
type Mirror struct {
	http     *resty.Client
	resolver display.Resolver
	store    ObjectStore
	recorder Recorder
	logger   *slog.Logger

	jobs   chan mirrorJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type mirrorJob struct {
	video models.VideoSummary
}

var errMirrorClosed = errors.New("thumbnail mirror closed")

const fetchTimeout = 2 * time.Minute

// New constructs a background worker pool that mirrors thumbnails.
func New(httpClient *resty.Client, resolver display.Resolver, store ObjectStore, recorder Recorder, cfg Config, logger *slog.Logger) *Mirror {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if httpClient == nil {
		httpClient = resty.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Mirror{
		http:     httpClient,
		resolver: resolver,
		store:    store,
		recorder: recorder,
		logger:   logger,
		jobs:     make(chan mirrorJob, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	m.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go m.worker()
	}

	return m
}

// Enqueue schedules a mirror job for the video. Videos whose storage
// reference is not an ipfs: reference are skipped without error.
func (m *Mirror) Enqueue(ctx context.Context, video models.VideoSummary) error {
	if !strings.HasPrefix(video.StorageRef, "ipfs:") {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return errMirrorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return errMirrorClosed
	case m.jobs <- mirrorJob{video: video}:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (m *Mirror) Shutdown(ctx context.Context) error {
	m.once.Do(func() {
		m.cancel()
		close(m.jobs)
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (m *Mirror) worker() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case job, ok := <-m.jobs:
			if !ok {
				return
			}
			m.handleJob(job)
		}
	}
}

func (m *Mirror) handleJob(job mirrorJob) {
	if m.store == nil || m.recorder == nil {
		m.logger.Error("thumbnail mirror missing dependencies", "hasStore", m.store != nil, "hasRecorder", m.recorder != nil)
		return
	}

	video := job.video
	sourceURL, ok := m.resolver.IPFSSourceURL(video.StorageRef)
	if !ok {
		return
	}

	id := mirrorIdentity(video)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if _, err := m.recorder.Find(ctx, id); err == nil {
		m.logger.Debug("thumbnail already mirrored", "videoId", id)
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		m.logger.Warn("mirror lookup failed, mirroring anyway", "videoId", id, "error", err)
	}

	resp, err := m.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(sourceURL)
	if err != nil {
		m.logger.Error("fetch thumbnail", "videoId", id, "url", sourceURL, "error", err)
		m.recordFailure(id)
		return
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		m.logger.Error("fetch thumbnail", "videoId", id, "url", sourceURL, "status", resp.StatusCode())
		m.recordFailure(id)
		return
	}

	contentType := resp.Header().Get("Content-Type")
	counted := &countingReader{r: body}

	location, err := m.store.Save(ctx, objectKey(video, contentType), contentType, counted)
	if err != nil {
		m.logger.Error("store thumbnail", "videoId", id, "error", err)
		m.recordFailure(id)
		return
	}

	if err := m.recordSuccess(id, location, counted.n); err != nil {
		m.logger.Error("record mirrored thumbnail", "videoId", id, "error", err)
	}
}

func (m *Mirror) recordFailure(videoID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := models.MirroredThumbnail{
		VideoID:    videoID,
		Status:     models.MirrorStatusFailed,
		MirroredAt: time.Now().UTC(),
	}
	if err := m.recorder.Record(ctx, record); err != nil {
		m.logger.Error("record mirror failure", "videoId", videoID, "error", err)
	}
}

func (m *Mirror) recordSuccess(videoID, location string, size int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.recorder.Record(ctx, models.MirroredThumbnail{
		VideoID:    videoID,
		ObjectURL:  location,
		SizeBytes:  size,
		Status:     models.MirrorStatusReady,
		MirroredAt: time.Now().UTC(),
	})
}

// mirrorIdentity keys mirror records: the playback ID when present,
// otherwise the storage reference itself.
func mirrorIdentity(video models.VideoSummary) string {
	if video.VideoID != "" {
		return video.VideoID
	}
	return video.StorageRef
}

func objectKey(video models.VideoSummary, contentType string) string {
	name := video.VideoID
	if name == "" {
		name = strings.TrimLeft(strings.TrimPrefix(video.StorageRef, "ipfs:"), "/")
	}
	return path.Join("thumbnails", name+extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return ".png"
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp"
	case strings.HasPrefix(contentType, "image/gif"):
		return ".gif"
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg"
	default:
		return ""
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
