package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/openvideos/yt-commons/app/cfg"
	"github.com/openvideos/yt-commons/app/database"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type statsCommand struct {
	cfg.StoreOptions
}

func registerStatsCommand(parser *flags.Parser) {
	parser.AddCommand("stats", "Print catalog statistics",
		"Prints channel and video counts plus total and average durations for the catalog.",
		&statsCommand{})
}

func (c *statsCommand) Execute(_ []string) error {
	db, err := database.Open(c.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := database.NewVideoRepository(db).GetStats()
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Printf("Channels Completed: %d/%d\n", stats.CompletedChannels, stats.TotalChannels)
	p.Printf("Total Videos: %d\n", stats.TotalVideos)
	p.Printf("Total Duration: %.1f hours\n", float64(stats.TotalDurationSeconds)/3600)
	p.Printf("Average Channel Duration: %.1f hours\n", stats.AvgChannelSeconds()/3600)
	p.Printf("Average Video Duration: %.1f minutes\n", stats.AvgVideoSeconds()/60)
	return nil
}
