package main

import (
	"fmt"
	"sort"

	"github.com/jessevdk/go-flags"
	"github.com/openvideos/yt-commons/app/acquire"
	"github.com/openvideos/yt-commons/app/cfg"
	"github.com/openvideos/yt-commons/app/database"
	"github.com/openvideos/yt-commons/app/shard"
	"github.com/openvideos/yt-commons/app/transcribe"
)

type acquireCommand struct {
	cfg.StoreOptions
	cfg.StorageOptions
	cfg.ShardOptions
	cfg.WorkerOptions
}

type transcribeCommand struct {
	cfg.StorageOptions
	cfg.WorkerOptions
	cfg.WhisperOptions
}

type acquireTranscribeCommand struct {
	cfg.StoreOptions
	cfg.StorageOptions
	cfg.ShardOptions
	cfg.WorkerOptions
	cfg.WhisperOptions
}

func registerAcquireCommands(parser *flags.Parser) {
	parser.AddCommand("acquire", "Download audio for this shard's cataloged videos",
		"Lists the videos assigned to this shard and downloads their audio tracks into the sharded audio tree.",
		&acquireCommand{})
	parser.AddCommand("transcribe", "Transcribe audio files already on disk",
		"Scans the audio tree and writes a transcript for every audio file that does not have one yet. The audio files are left in place.",
		&transcribeCommand{})
	parser.AddCommand("acquire-and-transcribe", "Download, transcribe and clean up in one pass",
		"Drains this shard's videos end to end: download audio, write the transcript, then delete the audio. A rerun skips videos whose transcript already exists.",
		&acquireTranscribeCommand{})
}

func (c *acquireCommand) Execute(_ []string) error {
	ids, err := shardVideoIDs(c.DBPath, c.ShardIndex, c.ShardCount)
	if err != nil {
		return err
	}

	pool := acquire.NewPool(acquire.NewYtdlpDownloader(), nil, acquire.Options{
		Mode:      acquire.ModeDownload,
		Workers:   c.Workers,
		AudioRoot: c.AudioDir,
		Overwrite: c.Overwrite,
		MaxVideos: c.MaxVideos,
	})

	summary, err := pool.Run(appCtx, ids)
	if summary != nil {
		printRunSummary(summary)
	}
	return err
}

func (c *transcribeCommand) Execute(_ []string) error {
	existing, err := acquire.ExistingVideoIDs(c.AudioDir, acquire.AudioExt)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(existing))
	for id := range existing {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pool := acquire.NewPool(nil, newTranscriber(c.WhisperOptions), acquire.Options{
		Mode:           acquire.ModeTranscribe,
		Workers:        c.Workers,
		AudioRoot:      c.AudioDir,
		TranscriptRoot: c.TranscriptDir,
		Overwrite:      c.Overwrite,
		MaxVideos:      c.MaxVideos,
	})

	summary, err := pool.Run(appCtx, ids)
	if summary != nil {
		printRunSummary(summary)
	}
	return err
}

func (c *acquireTranscribeCommand) Execute(_ []string) error {
	ids, err := shardVideoIDs(c.DBPath, c.ShardIndex, c.ShardCount)
	if err != nil {
		return err
	}

	pool := acquire.NewPool(acquire.NewYtdlpDownloader(), newTranscriber(c.WhisperOptions), acquire.Options{
		Mode:           acquire.ModeDownloadTranscribe,
		Workers:        c.Workers,
		AudioRoot:      c.AudioDir,
		TranscriptRoot: c.TranscriptDir,
		Overwrite:      c.Overwrite,
		KeepAudio:      c.KeepAudio,
		MaxVideos:      c.MaxVideos,
	})

	summary, err := pool.Run(appCtx, ids)
	if summary != nil {
		printRunSummary(summary)
	}
	return err
}

// shardVideoIDs validates the shard selection before opening the store, so
// bad indices fail before any work starts.
func shardVideoIDs(dbPath string, shardIndex, shardCount int) ([]string, error) {
	if err := shard.Validate(shardIndex, shardCount); err != nil {
		return nil, err
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	videos, err := database.NewVideoRepository(db).ListVideosForShard(shardIndex, shardCount)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(videos))
	for i, video := range videos {
		ids[i] = video.VideoID
	}
	return ids, nil
}

func newTranscriber(opts cfg.WhisperOptions) *transcribe.WhisperCLI {
	return transcribe.NewWhisperCLI(transcribe.Options{
		ModelSize:   opts.ModelSize,
		Device:      opts.Device,
		ComputeType: opts.ComputeType,
		Threads:     opts.Threads,
	})
}

func printRunSummary(summary *acquire.RunSummary) {
	fmt.Printf("Videos succeeded: %d\n", summary.Succeeded)
	fmt.Printf("Videos skipped:   %d\n", summary.Skipped)
	fmt.Printf("Videos failed:    %d\n", summary.Failed)
}
