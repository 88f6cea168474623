package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openreel/gateway/internal/db"
	"github.com/openreel/gateway/internal/models"
)

// PostgresMirrorRepository records which thumbnails have been mirrored
// into the object store so repeats are skipped.
type PostgresMirrorRepository struct {
	pool db.Pool
}

// NewPostgresMirrorRepository constructs a mirror repository backed by PostgreSQL.
func NewPostgresMirrorRepository(pool db.Pool) *PostgresMirrorRepository {
	return &PostgresMirrorRepository{pool: pool}
}

// Record stores or updates the mirror outcome for a video.
func (r *PostgresMirrorRepository) Record(ctx context.Context, mirror models.MirroredThumbnail) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO mirrored_thumbnails (video_id, object_url, size_bytes, status, mirrored_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (video_id)
        DO UPDATE SET object_url = EXCLUDED.object_url,
                      size_bytes = EXCLUDED.size_bytes,
                      status = EXCLUDED.status,
                      mirrored_at = EXCLUDED.mirrored_at
    `, mirror.VideoID, mirror.ObjectURL, mirror.SizeBytes, mirror.Status, mirror.MirroredAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert mirrored thumbnail: %w", err)
	}

	return nil
}

// Find loads the mirror record for a video.
func (r *PostgresMirrorRepository) Find(ctx context.Context, videoID string) (models.MirroredThumbnail, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.MirroredThumbnail{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT video_id, object_url, size_bytes, status, mirrored_at
        FROM mirrored_thumbnails
        WHERE video_id = $1
    `, videoID)

	var mirror models.MirroredThumbnail
	if err := row.Scan(&mirror.VideoID, &mirror.ObjectURL, &mirror.SizeBytes, &mirror.Status, &mirror.MirroredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MirroredThumbnail{}, ErrNotFound
		}
		return models.MirroredThumbnail{}, fmt.Errorf("select mirrored thumbnail: %w", err)
	}

	mirror.MirroredAt = mirror.MirroredAt.UTC()
	return mirror, nil
}
