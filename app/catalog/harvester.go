package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openvideos/yt-commons/app/database"
	"github.com/openvideos/yt-commons/app/youtube"
)

const defaultMaxRetries = 3

// MetadataSource is the slice of the YouTube Data API the catalog needs.
type MetadataSource interface {
	ResolveChannels(ctx context.Context, channelIDs []string) ([]youtube.ChannelInfo, error)
	VideosPage(ctx context.Context, channelID, pageToken string) (*youtube.VideoPage, error)
	VideosByID(ctx context.Context, videoIDs []string) ([]youtube.VideoInfo, error)
	Exhausted() bool
}

// HarvestError marks a single channel whose harvest failed. Other channels
// keep processing.
type HarvestError struct {
	ChannelID string
	Err       error
}

func (e *HarvestError) Error() string {
	return fmt.Sprintf("harvest channel %s: %v", e.ChannelID, e.Err)
}

func (e *HarvestError) Unwrap() error {
	return e.Err
}

// Summary reports the outcome of a catalog run.
type Summary struct {
	ChannelsCompleted int
	ChannelsSuspended int
	ChannelsFailed    int
	VideosUpserted    int
}

// Harvester drains incomplete channels page by page, persisting each page
// before advancing so an interrupted run loses at most the page in flight.
type Harvester struct {
	channelRepo database.ChannelRepository
	videoRepo   database.VideoRepository
	source      MetadataSource
	maxRetries  int
	backoffUnit time.Duration
}

func NewHarvester(channelRepo database.ChannelRepository, videoRepo database.VideoRepository, source MetadataSource) *Harvester {
	return &Harvester{
		channelRepo: channelRepo,
		videoRepo:   videoRepo,
		source:      source,
		maxRetries:  defaultMaxRetries,
		backoffUnit: time.Second,
	}
}

// Run processes every incomplete channel in channel id order. It returns
// youtube.ErrQuotaExhausted when the key pool runs dry mid-run; the summary
// is valid in that case and the remaining channels stay incomplete.
func (h *Harvester) Run(ctx context.Context) (*Summary, error) {
	channels, err := h.channelRepo.ListIncompleteChannels()
	if err != nil {
		return nil, err
	}

	if len(channels) == 0 {
		slog.Info("No incomplete channels to harvest")
		return &Summary{}, nil
	}

	summary := &Summary{}

	for i, channel := range channels {
		if err := ctx.Err(); err != nil {
			summary.ChannelsSuspended += len(channels) - i
			return summary, err
		}
		if h.source.Exhausted() {
			summary.ChannelsSuspended += len(channels) - i
			return summary, youtube.ErrQuotaExhausted
		}

		upserted, err := h.harvestChannel(ctx, channel.ChannelID)
		summary.VideosUpserted += upserted

		switch {
		case err == nil:
			summary.ChannelsCompleted++
			slog.Info("Channel harvest completed", "channel_id", channel.ChannelID, "videos", upserted)
		case errors.Is(err, youtube.ErrQuotaExhausted):
			summary.ChannelsSuspended += len(channels) - i
			slog.Warn("API quota exhausted, suspending harvest", "channel_id", channel.ChannelID)
			return summary, youtube.ErrQuotaExhausted
		case errors.Is(err, database.ErrStorageUnavailable), errors.Is(err, context.Canceled):
			summary.ChannelsSuspended += len(channels) - i
			return summary, err
		default:
			summary.ChannelsFailed++
			slog.Error("Channel harvest failed", "channel_id", channel.ChannelID, "error", err)
		}
	}

	return summary, nil
}

// harvestChannel pages through the channel's uploads and upserts every
// Creative Commons video not already cataloged. The completed flag is the
// last write, after the final page has committed.
func (h *Harvester) harvestChannel(ctx context.Context, channelID string) (int, error) {
	existingIDs, err := h.videoRepo.ListChannelVideoIDs(channelID)
	if err != nil {
		return 0, err
	}

	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	upserted := 0
	pageToken := ""

	for {
		page, err := h.fetchPage(ctx, channelID, pageToken)
		if err != nil {
			return upserted, &HarvestError{ChannelID: channelID, Err: err}
		}

		batch := make([]database.Video, 0, len(page.Videos))
		now := time.Now().UTC().Format(time.RFC3339)
		for _, info := range page.Videos {
			if existing[info.VideoID] {
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

		if len(batch) > 0 {
			if err := h.videoRepo.UpsertVideos(batch); err != nil {
				return upserted, err
			}
			upserted += len(batch)
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if err := h.channelRepo.MarkChannelCompleted(channelID); err != nil {
		return upserted, err
	}

	return upserted, nil
}

// fetchPage retries transient failures with capped exponential backoff.
// Quota exhaustion and missing channels are not transient and surface
// immediately.
func (h *Harvester) fetchPage(ctx context.Context, channelID, pageToken string) (*youtube.VideoPage, error) {
	var lastErr error

	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * h.backoffUnit
			if delay > 30*h.backoffUnit {
				delay = 30 * h.backoffUnit
			}
			slog.Warn("Retrying video page fetch", "channel_id", channelID, "attempt", attempt, "delay", delay.String())
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		page, err := h.source.VideosPage(ctx, channelID, pageToken)
		if err == nil {
			return page, nil
		}
		if errors.Is(err, youtube.ErrQuotaExhausted) || errors.Is(err, youtube.ErrChannelNotFound) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fetch videos page after %d retries: %w", h.maxRetries, lastErr)
}
