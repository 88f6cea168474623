package actor

import (
	"encoding/json"
	"fmt"

	"github.com/openreel/gateway/internal/models"
)

// wireVideo is the directory record as the actor serializes it. The ledger
// encodes wide integers as either JSON numbers or decimal strings, so the
// numeric fields pass through json.Number.
type wireVideo struct {
	VideoID    string      `json:"video_id"`
	Title      string      `json:"title"`
	Uploader   string      `json:"uploader"`
	Timestamp  json.Number `json:"timestamp"`
	StorageRef string      `json:"storage_ref"`
	Views      json.Number `json:"views"`
}

func decodeVideos(raw json.RawMessage) ([]models.VideoSummary, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var records []wireVideo
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode video records: %w", err)
	}

	videos := make([]models.VideoSummary, 0, len(records))
	for i, record := range records {
		video, err := record.toSummary()
		if err != nil {
			return nil, fmt.Errorf("video record %d: %w", i, err)
		}
		videos = append(videos, video)
	}

	return videos, nil
}

// toSummary validates and converts one wire record. An empty video_id is
// legal: ledger-only uploads have no hosted playback asset yet and are
// rendered from their storage reference.
func (w wireVideo) toSummary() (models.VideoSummary, error) {
	timestamp, err := coerceInt64(w.Timestamp, "timestamp")
	if err != nil {
		return models.VideoSummary{}, err
	}
	views, err := coerceInt64(w.Views, "views")
	if err != nil {
		return models.VideoSummary{}, err
	}

	return models.VideoSummary{
		VideoID:          w.VideoID,
		Title:            w.Title,
		Uploader:         models.Principal(w.Uploader),
		TimestampSeconds: timestamp,
		StorageRef:       w.StorageRef,
		Views:            views,
	}, nil
}

func coerceInt64(n json.Number, field string) (int64, error) {
	if n == "" {
		return 0, nil
	}
	value, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("coerce %s %q: %w", field, n.String(), err)
	}
	return value, nil
}
