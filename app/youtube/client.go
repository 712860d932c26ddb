// Package youtube wraps the YouTube Data API v3 behind the narrow surface
// the pipeline needs: channel resolution and paginated listing of
// Creative-Commons-licensed uploads, under a rotating pool of API keys.
package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// LicenseCreativeCommons is the license tag the Data API reports for
// CC-BY-licensed videos. The harvester records nothing else.
const LicenseCreativeCommons = "creativeCommon"

// pageSize is the playlistItems maximum, which also bounds detail batches.
const pageSize = 50

// ChannelInfo is normalized channel metadata.
type ChannelInfo struct {
	ChannelID   string
	Title       string
	Description string
}

// VideoInfo is a normalized video metadata item.
type VideoInfo struct {
	VideoID         string
	ChannelID       string
	Title           string
	PublishedAt     string
	DurationSeconds int64
	License         string
}

// VideoPage is one page of CC videos plus the continuation token; an empty
// NextPageToken means the channel has no further pages.
type VideoPage struct {
	Videos        []VideoInfo
	NextPageToken string
}

// Client calls the Data API with whichever key the ring currently holds,
// cycling to the next key when the service reports quota exhaustion.
type Client struct {
	ring *KeyRing

	mu       sync.Mutex
	services map[string]*yt.Service // per key, built lazily
	uploads  map[string]string      // channel id -> uploads playlist id
}

func NewClient(ring *KeyRing) *Client {
	return &Client{
		ring:     ring,
		services: make(map[string]*yt.Service),
		uploads:  make(map[string]string),
	}
}

// Exhausted reports whether no usable API key remains.
func (c *Client) Exhausted() bool {
	return c.ring.AllExhausted()
}

// ResolveChannels fetches display metadata for the given channel ids.
// Unknown ids are silently absent from the result.
func (c *Client) ResolveChannels(ctx context.Context, channelIDs []string) ([]ChannelInfo, error) {
	var channels []ChannelInfo

	for start := 0; start < len(channelIDs); start += pageSize {
		end := min(start+pageSize, len(channelIDs))

		var resp *yt.ChannelListResponse
		err := c.call(ctx, func(svc *yt.Service) error {
			var callErr error
			resp, callErr = svc.Channels.List([]string{"snippet"}).
				Id(channelIDs[start:end]...).
				MaxResults(pageSize).
				Context(ctx).
				Do()
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("channels.list: %w", err)
		}

		for _, item := range resp.Items {
			channels = append(channels, ChannelInfo{
				ChannelID:   item.Id,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
			})
		}
	}

	return channels, nil
}

// VideosPage returns one page of the channel's CC-licensed uploads. The page
// walks the channel's uploads playlist; non-CC items are filtered out, so a
// page may be empty while NextPageToken still points at further uploads.
func (c *Client) VideosPage(ctx context.Context, channelID, pageToken string) (*VideoPage, error) {
	playlistID, err := c.uploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var resp *yt.PlaylistItemListResponse
	err = c.call(ctx, func(svc *yt.Service) error {
		call := svc.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var callErr error
		resp, callErr = call.Do()
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("playlistItems.list %s: %w", channelID, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		ids = append(ids, item.ContentDetails.VideoId)
	}

	videos, err := c.VideosByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	page := &VideoPage{NextPageToken: resp.NextPageToken}
	for _, v := range videos {
		if v.License != LicenseCreativeCommons {
			continue
		}
		page.Videos = append(page.Videos, v)
	}

	return page, nil
}

// VideosByID hydrates full metadata for the given video ids, batched at the
// API maximum.
func (c *Client) VideosByID(ctx context.Context, videoIDs []string) ([]VideoInfo, error) {
	var videos []VideoInfo

	for start := 0; start < len(videoIDs); start += pageSize {
		end := min(start+pageSize, len(videoIDs))

		var resp *yt.VideoListResponse
		err := c.call(ctx, func(svc *yt.Service) error {
			var callErr error
			resp, callErr = svc.Videos.List([]string{"snippet", "contentDetails", "status"}).
				Id(videoIDs[start:end]...).
				MaxResults(pageSize).
				Context(ctx).
				Do()
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("videos.list: %w", err)
		}

		for _, item := range resp.Items {
			seconds, err := parseISODuration(item.ContentDetails.Duration)
			if err != nil {
				slog.Warn("Unparseable video duration", "video_id", item.Id, "duration", item.ContentDetails.Duration)
			}
			videos = append(videos, VideoInfo{
				VideoID:         item.Id,
				ChannelID:       item.Snippet.ChannelId,
				Title:           item.Snippet.Title,
				PublishedAt:     item.Snippet.PublishedAt,
				DurationSeconds: seconds,
				License:         item.Status.License,
			})
		}
	}

	return videos, nil
}

// uploadsPlaylistID resolves and caches the uploads playlist for a channel.
func (c *Client) uploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	c.mu.Lock()
	if id, ok := c.uploads[channelID]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	var resp *yt.ChannelListResponse
	err := c.call(ctx, func(svc *yt.Service) error {
		var callErr error
		resp, callErr = svc.Channels.List([]string{"contentDetails"}).
			Id(channelID).
			Context(ctx).
			Do()
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("channels.list %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	id := resp.Items[0].ContentDetails.RelatedPlaylists.Uploads

	c.mu.Lock()
	c.uploads[channelID] = id
	c.mu.Unlock()

	return id, nil
}

// call runs fn with the current key's service. On a quota error it reports
// the key and retries the same call with the next key; when the ring is
// empty it returns ErrQuotaExhausted.
func (c *Client) call(ctx context.Context, fn func(svc *yt.Service) error) error {
	for {
		key, err := c.ring.AcquireKey()
		if err != nil {
			return err
		}

		svc, err := c.service(ctx, key)
		if err != nil {
			return err
		}

		if err := fn(svc); err != nil {
			if IsQuotaError(err) {
				c.ring.ReportQuotaExhausted(key)
				continue
			}
			return err
		}
		return nil
	}
}

func (c *Client) service(ctx context.Context, key string) (*yt.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if svc, ok := c.services[key]; ok {
		return svc, nil
	}

	svc, err := yt.NewService(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	c.services[key] = svc

	return svc, nil
}
