package database

// Channel is a YouTube content publisher tracked by the catalog. Completed
// flips to true exactly once, after the harvester has seen the channel's last
// page; it never reverts.
type Channel struct {
	ChannelID   string
	Title       string
	Description string
	Completed   bool
	CreatedAt   string // RFC 3339
}

// Video is a single cataloged media item. Rows are created by the harvester
// and only ever change through idempotent re-upserts keyed on VideoID.
type Video struct {
	VideoID         string
	ChannelID       string
	Title           string
	PublishedAt     string // RFC 3339, opaque to the pipeline
	DurationSeconds int64
	License         string
	CatalogedAt     string // RFC 3339
}

// Stats is the aggregate reduction over the catalog.
type Stats struct {
	TotalChannels        int
	CompletedChannels    int
	TotalVideos          int
	TotalDurationSeconds int64
}

// AvgChannelSeconds is the mean cataloged duration per completed channel.
// Zero when no channel has completed.
func (s Stats) AvgChannelSeconds() float64 {
	if s.CompletedChannels == 0 {
		return 0
	}
	return float64(s.TotalDurationSeconds) / float64(s.CompletedChannels)
}

// AvgVideoSeconds is the mean duration per video. Zero on an empty catalog.
func (s Stats) AvgVideoSeconds() float64 {
	if s.TotalVideos == 0 {
		return 0
	}
	return float64(s.TotalDurationSeconds) / float64(s.TotalVideos)
}
