package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openvideos/yt-commons/app/database"
	"github.com/openvideos/yt-commons/app/youtube"
)

// RecentLister returns the newest upload ids for a channel without spending
// API quota.
type RecentLister interface {
	RecentVideoIDs(ctx context.Context, channelID string) ([]string, error)
}

// Refresher picks up new uploads on completed channels. The channel feed only
// exposes recent entries, so a full re-harvest is never needed for channels
// that are polled regularly.
type Refresher struct {
	channelRepo database.ChannelRepository
	videoRepo   database.VideoRepository
	lister      RecentLister
	source      MetadataSource
}

func NewRefresher(channelRepo database.ChannelRepository, videoRepo database.VideoRepository, lister RecentLister, source MetadataSource) *Refresher {
	return &Refresher{
		channelRepo: channelRepo,
		videoRepo:   videoRepo,
		lister:      lister,
		source:      source,
	}
}

// Refresh scans every completed channel's feed and catalogs Creative Commons
// uploads that are not stored yet.
func (r *Refresher) Refresh(ctx context.Context) (*Summary, error) {
	channels, err := r.channelRepo.ListCompletedChannels()
	if err != nil {
		return nil, err
	}

	summary := &Summary{}

	for _, channel := range channels {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		upserted, err := r.refreshChannel(ctx, channel.ChannelID)
		summary.VideosUpserted += upserted

		switch {
		case err == nil:
			summary.ChannelsCompleted++
		case errors.Is(err, youtube.ErrQuotaExhausted):
			slog.Warn("API quota exhausted, stopping refresh", "channel_id", channel.ChannelID)
			return summary, youtube.ErrQuotaExhausted
		case errors.Is(err, database.ErrStorageUnavailable), errors.Is(err, context.Canceled):
			return summary, err
		default:
			summary.ChannelsFailed++
			slog.Error("Channel refresh failed", "channel_id", channel.ChannelID, "error", err)
		}
	}

	slog.Info("Catalog refresh completed", "channels", len(channels), "videos", summary.VideosUpserted)
	return summary, nil
}

func (r *Refresher) refreshChannel(ctx context.Context, channelID string) (int, error) {
	recentIDs, err := r.lister.RecentVideoIDs(ctx, channelID)
	if err != nil {
		return 0, &HarvestError{ChannelID: channelID, Err: err}
	}
	if len(recentIDs) == 0 {
		return 0, nil
	}

	existingIDs, err := r.videoRepo.ListChannelVideoIDs(channelID)
	if err != nil {
		return 0, err
	}
	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	newIDs := make([]string, 0, len(recentIDs))
	for _, id := range recentIDs {
		if !existing[id] {
			newIDs = append(newIDs, id)
		}
	}
	if len(newIDs) == 0 {
		return 0, nil
	}

	infos, err := r.source.VideosByID(ctx, newIDs)
	if err != nil {
		return 0, &HarvestError{ChannelID: channelID, Err: err}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	batch := make([]database.Video, 0, len(infos))
	for _, info := range infos {
		if info.License != youtube.LicenseCreativeCommons {
			continue
		}
		batch = append(batch, database.Video{
			VideoID:         info.VideoID,
			ChannelID:       info.ChannelID,
			Title:           info.Title,
			PublishedAt:     info.PublishedAt,
			DurationSeconds: info.DurationSeconds,
			License:         info.License,
			CatalogedAt:     now,
		})
	}

	if len(batch) == 0 {
		return 0, nil
	}
	if err := r.videoRepo.UpsertVideos(batch); err != nil {
		return 0, err
	}

	slog.Info("New videos cataloged from channel feed", "channel_id", channelID, "videos", len(batch))
	return len(batch), nil
}
