package database

import (
	"fmt"
	"time"

	"github.com/openvideos/yt-commons/app/shard"
)

var _ VideoRepository = (*SQLVideoRepository)(nil)

// SQLVideoRepository handles database operations for videos.
type SQLVideoRepository struct {
	db *DB
}

func NewVideoRepository(db *DB) *SQLVideoRepository {
	return &SQLVideoRepository{db: db}
}

// UpsertVideos writes the batch inside one transaction so a page of harvest
// results is never partially recorded.
func (r *SQLVideoRepository) UpsertVideos(batch []Video) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return wrapStorageErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO videos (video_id, channel_id, title, published_at, duration_seconds, license, cataloged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (video_id) DO UPDATE SET
			title = excluded.title,
			published_at = excluded.published_at,
			duration_seconds = excluded.duration_seconds,
			license = excluded.license
	`)
	if err != nil {
		return wrapStorageErr("failed to prepare upsert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, v := range batch {
		if _, err := stmt.Exec(v.VideoID, v.ChannelID, v.Title, v.PublishedAt, v.DurationSeconds, v.License, now); err != nil {
			return wrapStorageErr(fmt.Sprintf("failed to upsert video %s", v.VideoID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapStorageErr("failed to commit video batch", err)
	}

	return nil
}

func (r *SQLVideoRepository) ListAllVideos() ([]Video, error) {
	rows, err := r.db.Query(`
		SELECT video_id, channel_id, title, published_at, duration_seconds, license, cataloged_at
		FROM videos
		ORDER BY video_id
	`)
	if err != nil {
		return nil, wrapStorageErr("failed to list videos", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.VideoID, &v.ChannelID, &v.Title, &v.PublishedAt, &v.DurationSeconds, &v.License, &v.CatalogedAt); err != nil {
			return nil, wrapStorageErr("failed to scan video", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageErr("failed to list videos", err)
	}

	return videos, nil
}

// ListVideosForShard returns the shard's videos ordered by video_id. Shard
// membership is computed in memory: it is a pure function of the id, so the
// store needs no knowledge of the partition.
func (r *SQLVideoRepository) ListVideosForShard(shardIndex, shardCount int) ([]Video, error) {
	if err := shard.Validate(shardIndex, shardCount); err != nil {
		return nil, err
	}

	all, err := r.ListAllVideos()
	if err != nil {
		return nil, err
	}

	var videos []Video
	for _, v := range all {
		if shard.Of(v.VideoID, shardCount) == shardIndex {
			videos = append(videos, v)
		}
	}

	return videos, nil
}

func (r *SQLVideoRepository) ListChannelVideoIDs(channelID string) ([]string, error) {
	rows, err := r.db.Query(`SELECT video_id FROM videos WHERE channel_id = ? ORDER BY video_id`, channelID)
	if err != nil {
		return nil, wrapStorageErr(fmt.Sprintf("failed to list channel %s videos", channelID), err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapStorageErr("failed to scan video id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageErr(fmt.Sprintf("failed to list channel %s videos", channelID), err)
	}

	return ids, nil
}

func (r *SQLVideoRepository) GetVideoCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM videos`).Scan(&count); err != nil {
		return 0, wrapStorageErr("failed to count videos", err)
	}
	return count, nil
}

func (r *SQLVideoRepository) GetStats() (*Stats, error) {
	var s Stats
	err := r.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM channels),
			(SELECT COUNT(*) FROM channels WHERE completed = 1),
			(SELECT COUNT(*) FROM videos),
			(SELECT COALESCE(SUM(duration_seconds), 0) FROM videos)
	`).Scan(&s.TotalChannels, &s.CompletedChannels, &s.TotalVideos, &s.TotalDurationSeconds)
	if err != nil {
		return nil, wrapStorageErr("failed to compute stats", err)
	}

	return &s, nil
}
