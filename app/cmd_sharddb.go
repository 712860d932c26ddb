package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/openvideos/yt-commons/app/cfg"
	"github.com/openvideos/yt-commons/app/database"
	"github.com/openvideos/yt-commons/app/shard"
)

const shardUpsertBatchSize = 500

type shardDBCommand struct {
	cfg.StoreOptions
	OutputDir  string `long:"output-dir" env:"OUTPUT_DIR" default:"./shards" description:"Directory to create the shard databases in (must not exist)"`
	ShardCount int    `long:"shard-count" env:"SHARD_COUNT" default:"2" description:"Number of shard databases to create"`
}

func registerShardDBCommand(parser *flags.Parser) {
	parser.AddCommand("shard-db", "Split the catalog into per-shard databases",
		"Creates one database per shard. Channels are copied to every shard; each video lands only in the database of its shard, so the shard databases can be distributed to independent worker machines.",
		&shardDBCommand{})
}

func (c *shardDBCommand) Execute(_ []string) error {
	if err := shard.Validate(0, c.ShardCount); err != nil {
		return err
	}
	if _, err := os.Stat(c.OutputDir); err == nil {
		return fmt.Errorf("output directory %s already exists", c.OutputDir)
	}
	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	src, err := database.Open(c.DBPath)
	if err != nil {
		return err
	}
	defer src.Close()

	srcChannels := database.NewChannelRepository(src)
	incomplete, err := srcChannels.ListIncompleteChannels()
	if err != nil {
		return err
	}
	completed, err := srcChannels.ListCompletedChannels()
	if err != nil {
		return err
	}

	videos, err := database.NewVideoRepository(src).ListAllVideos()
	if err != nil {
		return err
	}

	for i := 0; i < c.ShardCount; i++ {
		if err := c.writeShard(i, incomplete, completed, videos); err != nil {
			return fmt.Errorf("write shard %d: %w", i, err)
		}
	}

	fmt.Printf("Created %d shard databases in %s\n", c.ShardCount, c.OutputDir)
	return nil
}

func (c *shardDBCommand) writeShard(index int, incomplete, completed []database.Channel, videos []database.Video) error {
	path := filepath.Join(c.OutputDir, fmt.Sprintf("catalog-shard-%d.db", index))
	db, err := database.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	channelRepo := database.NewChannelRepository(db)
	for _, channel := range incomplete {
		if err := channelRepo.UpsertChannel(channel); err != nil {
			return err
		}
	}
	for _, channel := range completed {
		if err := channelRepo.UpsertChannel(channel); err != nil {
			return err
		}
		if err := channelRepo.MarkChannelCompleted(channel.ChannelID); err != nil {
			return err
		}
	}

	videoRepo := database.NewVideoRepository(db)
	batch := make([]database.Video, 0, shardUpsertBatchSize)
	for _, video := range videos {
		if shard.Of(video.VideoID, c.ShardCount) != index {
			continue
		}
		batch = append(batch, video)
		if len(batch) == shardUpsertBatchSize {
			if err := videoRepo.UpsertVideos(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := videoRepo.UpsertVideos(batch); err != nil {
			return err
		}
	}

	return nil
}
