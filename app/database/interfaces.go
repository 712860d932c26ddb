package database

type ChannelRepository interface {
	// UpsertChannel inserts the channel if absent, otherwise refreshes its
	// display metadata. The completed flag is never touched.
	UpsertChannel(channel Channel) error
	GetChannel(channelID string) (*Channel, error)
	GetChannelCount() (int, error)

	// ListIncompleteChannels returns channels with completed = false, ordered
	// by channel_id, as a snapshot of call time.
	ListIncompleteChannels() ([]Channel, error)
	ListCompletedChannels() ([]Channel, error)

	// MarkChannelCompleted flips completed to true. Idempotent; must be the
	// last write of a channel's harvest.
	MarkChannelCompleted(channelID string) error
}

type VideoRepository interface {
	// UpsertVideos writes a batch of videos in a single transaction: either
	// the whole batch commits or none of it does.
	UpsertVideos(batch []Video) error

	ListAllVideos() ([]Video, error)
	ListVideosForShard(shardIndex, shardCount int) ([]Video, error)
	ListChannelVideoIDs(channelID string) ([]string, error)
	GetVideoCount() (int, error)

	GetStats() (*Stats, error)
}
