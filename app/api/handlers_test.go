package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/openvideos/yt-commons/app/database"
)

func newTestServer(t *testing.T) (*httptest.Server, *database.SQLChannelRepository, *database.SQLVideoRepository) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	channelRepo := database.NewChannelRepository(db)
	videoRepo := database.NewVideoRepository(db)

	srv := httptest.NewServer(NewServer(NewHandler(channelRepo, videoRepo, "test")))
	t.Cleanup(srv.Close)

	return srv, channelRepo, videoRepo
}

func getJSON(t *testing.T, url string) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return body
}

func TestGetHealth(t *testing.T) {
	srv, channelRepo, _ := newTestServer(t)

	err := channelRepo.UpsertChannel(database.Channel{ChannelID: "UC01", Title: "Channel"})
	if err != nil {
		t.Fatalf("failed to seed channel: %v", err)
	}

	body := getJSON(t, srv.URL+"/health")
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if body["channels"] != float64(1) {
		t.Errorf("channels = %v, want 1", body["channels"])
	}
}

func TestGetStats(t *testing.T) {
	srv, channelRepo, videoRepo := newTestServer(t)

	if err := channelRepo.UpsertChannel(database.Channel{ChannelID: "UC01"}); err != nil {
		t.Fatalf("failed to seed channel: %v", err)
	}
	if err := channelRepo.MarkChannelCompleted("UC01"); err != nil {
		t.Fatalf("failed to complete channel: %v", err)
	}
	err := videoRepo.UpsertVideos([]database.Video{
		{VideoID: "vid01", ChannelID: "UC01", License: "creativeCommon", DurationSeconds: 120},
		{VideoID: "vid02", ChannelID: "UC01", License: "creativeCommon", DurationSeconds: 60},
	})
	if err != nil {
		t.Fatalf("failed to seed videos: %v", err)
	}

	body := getJSON(t, srv.URL+"/stats")
	if body["total_videos"] != float64(2) {
		t.Errorf("total_videos = %v, want 2", body["total_videos"])
	}
	if body["total_duration_seconds"] != float64(180) {
		t.Errorf("total_duration_seconds = %v, want 180", body["total_duration_seconds"])
	}
	if body["avg_video_seconds"] != float64(90) {
		t.Errorf("avg_video_seconds = %v, want 90", body["avg_video_seconds"])
	}
}

func TestGetStatsEmptyCatalog(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := getJSON(t, srv.URL+"/stats")
	if body["total_videos"] != float64(0) {
		t.Errorf("total_videos = %v, want 0", body["total_videos"])
	}
	if body["avg_video_seconds"] != float64(0) {
		t.Errorf("avg_video_seconds = %v, want 0", body["avg_video_seconds"])
	}
}
