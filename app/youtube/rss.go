package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const rssFeedURLTemplate = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// RSSLister reads a channel's upload feed. The feed only carries the ~15
// most recent uploads and no license information, so it is a quota-free way
// to spot new video ids, not a replacement for the Data API.
type RSSLister struct {
	parser       *gofeed.Parser
	feedTemplate string
}

func NewRSSLister() *RSSLister {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 30 * time.Second}
	return &RSSLister{parser: parser, feedTemplate: rssFeedURLTemplate}
}

// RecentVideoIDs returns the ids of the channel's most recent uploads,
// newest first.
func (r *RSSLister) RecentVideoIDs(ctx context.Context, channelID string) ([]string, error) {
	feedURL := fmt.Sprintf(r.feedTemplate, channelID)

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch upload feed %s: %w", channelID, err)
	}

	ids := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if id := videoIDFromGUID(item.GUID); id != "" {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// videoIDFromGUID extracts the video id from a feed entry id of the form
// "yt:video:VIDEOID".
func videoIDFromGUID(guid string) string {
	const prefix = "yt:video:"
	if strings.HasPrefix(guid, prefix) {
		return strings.TrimPrefix(guid, prefix)
	}
	return ""
}
