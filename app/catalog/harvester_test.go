package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/openvideos/yt-commons/app/database"
	"github.com/openvideos/yt-commons/app/youtube"
)

// fakeSource serves canned video pages keyed by channel id and page token.
type fakeSource struct {
	channels  map[string]youtube.ChannelInfo
	pages     map[string]map[string]*youtube.VideoPage
	videos    map[string]youtube.VideoInfo
	pageErrs  map[string]error
	exhausted bool
}

func (f *fakeSource) ResolveChannels(_ context.Context, channelIDs []string) ([]youtube.ChannelInfo, error) {
	var infos []youtube.ChannelInfo
	for _, id := range channelIDs {
		if info, ok := f.channels[id]; ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (f *fakeSource) VideosPage(_ context.Context, channelID, pageToken string) (*youtube.VideoPage, error) {
	key := channelID + "/" + pageToken
	if err, ok := f.pageErrs[key]; ok {
		if errors.Is(err, youtube.ErrQuotaExhausted) {
			f.exhausted = true
		}
		return nil, err
	}
	pages, ok := f.pages[channelID]
	if !ok {
		return nil, youtube.ErrChannelNotFound
	}
	page, ok := pages[pageToken]
	if !ok {
		return nil, fmt.Errorf("unexpected page token %q", pageToken)
	}
	return page, nil
}

func (f *fakeSource) VideosByID(_ context.Context, videoIDs []string) ([]youtube.VideoInfo, error) {
	var infos []youtube.VideoInfo
	for _, id := range videoIDs {
		if info, ok := f.videos[id]; ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (f *fakeSource) Exhausted() bool {
	return f.exhausted
}

func openTestRepos(t *testing.T) (*database.SQLChannelRepository, *database.SQLVideoRepository) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return database.NewChannelRepository(db), database.NewVideoRepository(db)
}

func ccVideo(videoID, channelID string) youtube.VideoInfo {
	return youtube.VideoInfo{
		VideoID:         videoID,
		ChannelID:       channelID,
		Title:           "Video " + videoID,
		PublishedAt:     "2024-01-01T00:00:00Z",
		DurationSeconds: 60,
		License:         youtube.LicenseCreativeCommons,
	}
}

func seedChannel(t *testing.T, repo *database.SQLChannelRepository, channelID string, completed bool) {
	t.Helper()
	err := repo.UpsertChannel(database.Channel{ChannelID: channelID, Title: "Channel " + channelID})
	if err != nil {
		t.Fatalf("failed to seed channel: %v", err)
	}
	if completed {
		if err := repo.MarkChannelCompleted(channelID); err != nil {
			t.Fatalf("failed to complete channel: %v", err)
		}
	}
}

func TestHarvesterCompletesMultiPageChannel(t *testing.T) {
	channelRepo, videoRepo := openTestRepos(t)
	seedChannel(t, channelRepo, "UC01", false)

	source := &fakeSource{
		pages: map[string]map[string]*youtube.VideoPage{
			"UC01": {
				"": {
					Videos:        []youtube.VideoInfo{ccVideo("vid01", "UC01"), ccVideo("vid02", "UC01")},
					NextPageToken: "page2",
				},
				"page2": {
					Videos: []youtube.VideoInfo{ccVideo("vid03", "UC01")},
				},
			},
		},
	}

	harvester := NewHarvester(channelRepo, videoRepo, source)
	summary, err := harvester.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.ChannelsCompleted != 1 {
		t.Errorf("expected 1 completed channel, got %d", summary.ChannelsCompleted)
	}
	if summary.VideosUpserted != 3 {
		t.Errorf("expected 3 upserted videos, got %d", summary.VideosUpserted)
	}

	channel, err := channelRepo.GetChannel("UC01")
	if err != nil {
		t.Fatalf("failed to get channel: %v", err)
	}
	if !channel.Completed {
		t.Error("expected channel to be marked completed")
	}

	count, err := videoRepo.GetVideoCount()
	if err != nil {
		t.Fatalf("failed to count videos: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 stored videos, got %d", count)
	}
}

func TestHarvesterCompletesEmptyChannel(t *testing.T) {
	channelRepo, videoRepo := openTestRepos(t)
	seedChannel(t, channelRepo, "UC01", false)

	source := &fakeSource{
		pages: map[string]map[string]*youtube.VideoPage{
			"UC01": {"": {}},
		},
	}

	harvester := NewHarvester(channelRepo, videoRepo, source)
	summary, err := harvester.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.ChannelsCompleted != 1 || summary.VideosUpserted != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	channel, err := channelRepo.GetChannel("UC01")
	if err != nil {
		t.Fatalf("failed to get channel: %v", err)
	}
	if !channel.Completed {
		t.Error("expected empty channel to be marked completed")
	}
}

func TestHarvesterSkipsAlreadyCatalogedVideos(t *testing.T) {
	channelRepo, videoRepo := openTestRepos(t)
	seedChannel(t, channelRepo, "UC01", false)

	existing := ccVideo("vid01", "UC01")
	err := videoRepo.UpsertVideos([]database.Video{{
		VideoID:         existing.VideoID,
		ChannelID:       existing.ChannelID,
		Title:           "Earlier Title",
		PublishedAt:     existing.PublishedAt,
		DurationSeconds: existing.DurationSeconds,
		License:         existing.License,
		CatalogedAt:     "2023-01-01T00:00:00Z",
	}})
	if err != nil {
		t.Fatalf("failed to seed video: %v", err)
	}

	source := &fakeSource{
		pages: map[string]map[string]*youtube.VideoPage{
			"UC01": {
				"": {Videos: []youtube.VideoInfo{existing, ccVideo("vid02", "UC01")}},
			},
		},
	}

	harvester := NewHarvester(channelRepo, videoRepo, source)
	summary, err := harvester.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.VideosUpserted != 1 {
		t.Errorf("expected 1 new video, got %d", summary.VideosUpserted)
	}

	videos, err := videoRepo.ListAllVideos()
	if err != nil {
		t.Fatalf("failed to list videos: %v", err)
	}
	for _, video := range videos {
		if video.VideoID == "vid01" && video.Title != "Earlier Title" {
			t.Errorf("already cataloged video was rewritten: %q", video.Title)
		}
	}
}

func TestHarvesterSuspendsOnQuotaExhaustion(t *testing.T) {
	channelRepo, videoRepo := openTestRepos(t)
	seedChannel(t, channelRepo, "UC01", false)
	seedChannel(t, channelRepo, "UC02", false)

	source := &fakeSource{
		pages: map[string]map[string]*youtube.VideoPage{
			"UC01": {
				"": {
					Videos:        []youtube.VideoInfo{ccVideo("vid01", "UC01")},
					NextPageToken: "page2",
				},
			},
		},
		pageErrs: map[string]error{
			"UC01/page2": youtube.ErrQuotaExhausted,
		},
	}

	harvester := NewHarvester(channelRepo, videoRepo, source)
	summary, err := harvester.Run(context.Background())
	if !errors.Is(err, youtube.ErrQuotaExhausted) {
		t.Fatalf("expected quota exhausted error, got %v", err)
	}

	// Both the interrupted channel and the never-started one stay pending.
	if summary.ChannelsSuspended != 2 {
		t.Errorf("expected 2 suspended channels, got %d", summary.ChannelsSuspended)
	}
	if summary.ChannelsCompleted != 0 {
		t.Errorf("expected 0 completed channels, got %d", summary.ChannelsCompleted)
	}

	// The page written before the quota ran out is kept.
	if summary.VideosUpserted != 1 {
		t.Errorf("expected 1 upserted video, got %d", summary.VideosUpserted)
	}

	channel, err := channelRepo.GetChannel("UC01")
	if err != nil {
		t.Fatalf("failed to get channel: %v", err)
	}
	if channel.Completed {
		t.Error("interrupted channel must not be marked completed")
	}
}

func TestHarvesterContinuesAfterChannelFailure(t *testing.T) {
	channelRepo, videoRepo := openTestRepos(t)
	seedChannel(t, channelRepo, "UC01", false)
	seedChannel(t, channelRepo, "UC02", false)

	source := &fakeSource{
		pages: map[string]map[string]*youtube.VideoPage{
			"UC02": {
				"": {Videos: []youtube.VideoInfo{ccVideo("vid01", "UC02")}},
			},
		},
		pageErrs: map[string]error{
			"UC01/": youtube.ErrChannelNotFound,
		},
	}

	harvester := NewHarvester(channelRepo, videoRepo, source)
	summary, err := harvester.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.ChannelsFailed != 1 {
		t.Errorf("expected 1 failed channel, got %d", summary.ChannelsFailed)
	}
	if summary.ChannelsCompleted != 1 {
		t.Errorf("expected 1 completed channel, got %d", summary.ChannelsCompleted)
	}
	if summary.VideosUpserted != 1 {
		t.Errorf("expected 1 upserted video, got %d", summary.VideosUpserted)
	}
}

func TestHarvesterRetriesTransientPageErrors(t *testing.T) {
	channelRepo, videoRepo := openTestRepos(t)
	seedChannel(t, channelRepo, "UC01", false)

	source := &transientSource{
		failuresLeft: 2,
		page: &youtube.VideoPage{
			Videos: []youtube.VideoInfo{ccVideo("vid01", "UC01")},
		},
	}

	harvester := NewHarvester(channelRepo, videoRepo, source)
	harvester.backoffUnit = time.Millisecond
	summary, err := harvester.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ChannelsCompleted != 1 || summary.VideosUpserted != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if source.calls != 3 {
		t.Errorf("expected 3 page calls, got %d", source.calls)
	}
}

// transientSource fails the first failuresLeft page fetches, then succeeds.
type transientSource struct {
	failuresLeft int
	calls        int
	page         *youtube.VideoPage
}

func (s *transientSource) ResolveChannels(context.Context, []string) ([]youtube.ChannelInfo, error) {
	return nil, nil
}

func (s *transientSource) VideosPage(context.Context, string, string) (*youtube.VideoPage, error) {
	s.calls++
	if s.failuresLeft > 0 {
		s.failuresLeft--
		return nil, errors.New("transient network error")
	}
	return s.page, nil
}

func (s *transientSource) VideosByID(context.Context, []string) ([]youtube.VideoInfo, error) {
	return nil, nil
}

func (s *transientSource) Exhausted() bool {
	return false
}

func TestBuilderUpsertsResolvedChannels(t *testing.T) {
	channelRepo, _ := openTestRepos(t)

	source := &fakeSource{
		channels: map[string]youtube.ChannelInfo{
			"UC01": {ChannelID: "UC01", Title: "First", Description: "d1"},
			"UC02": {ChannelID: "UC02", Title: "Second", Description: "d2"},
		},
	}

	builder := NewBuilder(channelRepo, source)
	upserted, err := builder.Build(context.Background(), []string{"UC01", "UC02", "UCmissing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upserted != 2 {
		t.Errorf("expected 2 upserted channels, got %d", upserted)
	}

	count, err := channelRepo.GetChannelCount()
	if err != nil {
		t.Fatalf("failed to count channels: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 stored channels, got %d", count)
	}
}

func TestBuilderPreservesHarvestProgress(t *testing.T) {
	channelRepo, _ := openTestRepos(t)
	seedChannel(t, channelRepo, "UC01", true)

	source := &fakeSource{
		channels: map[string]youtube.ChannelInfo{
			"UC01": {ChannelID: "UC01", Title: "Renamed"},
		},
	}

	builder := NewBuilder(channelRepo, source)
	if _, err := builder.Build(context.Background(), []string{"UC01"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	channel, err := channelRepo.GetChannel("UC01")
	if err != nil {
		t.Fatalf("failed to get channel: %v", err)
	}
	if !channel.Completed {
		t.Error("rebuild must not reset the completed flag")
	}
	if channel.Title != "Renamed" {
		t.Errorf("expected refreshed title, got %q", channel.Title)
	}
}

type fakeLister struct {
	ids map[string][]string
}

func (l *fakeLister) RecentVideoIDs(_ context.Context, channelID string) ([]string, error) {
	return l.ids[channelID], nil
}

func TestRefresherCatalogsNewUploads(t *testing.T) {
	channelRepo, videoRepo := openTestRepos(t)
	seedChannel(t, channelRepo, "UC01", true)

	existing := ccVideo("vid01", "UC01")
	err := videoRepo.UpsertVideos([]database.Video{{
		VideoID:     existing.VideoID,
		ChannelID:   existing.ChannelID,
		Title:       existing.Title,
		License:     existing.License,
		CatalogedAt: "2024-01-01T00:00:00Z",
	}})
	if err != nil {
		t.Fatalf("failed to seed video: %v", err)
	}

	nonCC := ccVideo("vid03", "UC01")
	nonCC.License = "youtube"

	source := &fakeSource{
		videos: map[string]youtube.VideoInfo{
			"vid02": ccVideo("vid02", "UC01"),
			"vid03": nonCC,
		},
	}
	lister := &fakeLister{ids: map[string][]string{
		"UC01": {"vid01", "vid02", "vid03"},
	}}

	refresher := NewRefresher(channelRepo, videoRepo, lister, source)
	summary, err := refresher.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// vid01 is already stored and vid03 carries the standard license.
	if summary.VideosUpserted != 1 {
		t.Errorf("expected 1 new video, got %d", summary.VideosUpserted)
	}

	ids, err := videoRepo.ListChannelVideoIDs("UC01")
	if err != nil {
		t.Fatalf("failed to list ids: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 stored videos, got %d", len(ids))
	}
}

// failingVideoRepo fails every batch write the way a dead store does.
type failingVideoRepo struct {
	*database.SQLVideoRepository
}

func (r *failingVideoRepo) UpsertVideos([]database.Video) error {
	return fmt.Errorf("failed to upsert video batch: %w", database.ErrStorageUnavailable)
}

func TestHarvesterAbortsWhenStoreDies(t *testing.T) {
	channelRepo, videoRepo := openTestRepos(t)
	seedChannel(t, channelRepo, "UC01", false)
	seedChannel(t, channelRepo, "UC02", false)

	source := &fakeSource{
		pages: map[string]map[string]*youtube.VideoPage{
			"UC01": {"": {Videos: []youtube.VideoInfo{ccVideo("vid01", "UC01")}}},
			"UC02": {"": {Videos: []youtube.VideoInfo{ccVideo("vid02", "UC02")}}},
		},
	}

	harvester := NewHarvester(channelRepo, &failingVideoRepo{videoRepo}, source)
	summary, err := harvester.Run(context.Background())
	if !errors.Is(err, database.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable error, got %v", err)
	}

	// A dead store aborts the run; it is not a per-channel failure and the
	// remaining channels are never attempted.
	if summary.ChannelsFailed != 0 {
		t.Errorf("storage failure counted as channel failure: %+v", summary)
	}
	if summary.ChannelsSuspended != 2 {
		t.Errorf("expected 2 suspended channels, got %d", summary.ChannelsSuspended)
	}

	channel, err := channelRepo.GetChannel("UC01")
	if err != nil {
		t.Fatalf("failed to get channel: %v", err)
	}
	if channel.Completed {
		t.Error("channel must not complete when its page write failed")
	}
}
