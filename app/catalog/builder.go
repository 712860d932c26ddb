package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/openvideos/yt-commons/app/database"
)

// Builder seeds the catalog with channel rows from a configured id list.
// Re-running refreshes titles and descriptions without touching harvest
// progress.
type Builder struct {
	channelRepo database.ChannelRepository
	source      MetadataSource
}

func NewBuilder(channelRepo database.ChannelRepository, source MetadataSource) *Builder {
	return &Builder{channelRepo: channelRepo, source: source}
}

// Build resolves the given channel ids against the API and upserts one row
// per resolved channel. Ids the API does not know are logged and skipped.
func (b *Builder) Build(ctx context.Context, channelIDs []string) (int, error) {
	if len(channelIDs) == 0 {
		return 0, nil
	}

	infos, err := b.source.ResolveChannels(ctx, channelIDs)
	if err != nil {
		return 0, err
	}

	resolved := make(map[string]bool, len(infos))
	now := time.Now().UTC().Format(time.RFC3339)
	upserted := 0

	for _, info := range infos {
		resolved[info.ChannelID] = true
		err := b.channelRepo.UpsertChannel(database.Channel{
			ChannelID:   info.ChannelID,
			Title:       info.Title,
			Description: info.Description,
			CreatedAt:   now,
		})
		if err != nil {
			return upserted, err
		}
		upserted++
	}

	for _, id := range channelIDs {
		if !resolved[id] {
			slog.Warn("Channel not found, skipping", "channel_id", id)
		}
	}

	slog.Info("Catalog channels updated", "requested", len(channelIDs), "upserted", upserted)
	return upserted, nil
}
