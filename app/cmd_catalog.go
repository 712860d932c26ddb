package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jessevdk/go-flags"
	"github.com/openvideos/yt-commons/app/catalog"
	"github.com/openvideos/yt-commons/app/cfg"
	"github.com/openvideos/yt-commons/app/database"
	"github.com/openvideos/yt-commons/app/youtube"
)

type catalogBuildCommand struct {
	cfg.StoreOptions
	cfg.APIKeyOptions
	cfg.ChannelsOptions
}

type catalogFillCommand struct {
	cfg.StoreOptions
	cfg.APIKeyOptions
}

type catalogRefreshCommand struct {
	cfg.StoreOptions
	cfg.APIKeyOptions
}

func registerCatalogCommands(parser *flags.Parser) {
	parser.AddCommand("catalog-build", "Register channels in the catalog",
		"Resolves the configured channel ids against the YouTube Data API and upserts one catalog row per channel.",
		&catalogBuildCommand{})
	parser.AddCommand("catalog-fill", "Harvest video metadata for incomplete channels",
		"Pages through each incomplete channel's uploads and catalogs its Creative Commons videos. Safe to re-run; it continues where the previous run stopped.",
		&catalogFillCommand{})
	parser.AddCommand("catalog-refresh", "Catalog new uploads on completed channels",
		"Polls each completed channel's public feed and catalogs recent Creative Commons uploads without a full re-harvest.",
		&catalogRefreshCommand{})
}

// Execute registers channels given as positional ids, or, when none are
// given, the entries of the channels file.
func (c *catalogBuildCommand) Execute(args []string) error {
	channelIDs := args
	if len(channelIDs) == 0 {
		channels, err := cfg.LoadChannels(c.ChannelsFile)
		if err != nil {
			return err
		}
		channelIDs = channels.ChannelIDs()
	}

	db, err := database.Open(c.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := newAPIClient(c.APIKeys)
	if err != nil {
		return err
	}

	builder := catalog.NewBuilder(database.NewChannelRepository(db), client)
	upserted, err := builder.Build(appCtx, channelIDs)
	if err != nil {
		return err
	}

	fmt.Printf("Channels registered: %d/%d\n", upserted, len(channelIDs))
	return nil
}

func (c *catalogFillCommand) Execute(_ []string) error {
	db, err := database.Open(c.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := newAPIClient(c.APIKeys)
	if err != nil {
		return err
	}

	harvester := catalog.NewHarvester(database.NewChannelRepository(db), database.NewVideoRepository(db), client)
	summary, err := harvester.Run(appCtx)
	if summary != nil {
		printHarvestSummary(summary)
	}

	// Quota exhaustion is expected on large catalogs; the next run resumes.
	if errors.Is(err, youtube.ErrQuotaExhausted) {
		slog.Warn("Run stopped early: all API keys exhausted")
		return nil
	}
	return err
}

func (c *catalogRefreshCommand) Execute(_ []string) error {
	db, err := database.Open(c.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := newAPIClient(c.APIKeys)
	if err != nil {
		return err
	}

	refresher := catalog.NewRefresher(database.NewChannelRepository(db), database.NewVideoRepository(db),
		youtube.NewRSSLister(), client)
	summary, err := refresher.Refresh(appCtx)
	if summary != nil {
		printHarvestSummary(summary)
	}

	if errors.Is(err, youtube.ErrQuotaExhausted) {
		slog.Warn("Run stopped early: all API keys exhausted")
		return nil
	}
	return err
}

func newAPIClient(keys []string) (*youtube.Client, error) {
	ring, err := youtube.NewKeyRing(keys)
	if err != nil {
		return nil, err
	}
	return youtube.NewClient(ring), nil
}

func printHarvestSummary(summary *catalog.Summary) {
	fmt.Printf("Channels completed: %d\n", summary.ChannelsCompleted)
	fmt.Printf("Channels suspended: %d\n", summary.ChannelsSuspended)
	fmt.Printf("Channels failed:    %d\n", summary.ChannelsFailed)
	fmt.Printf("Videos cataloged:   %d\n", summary.VideosUpserted)
}
