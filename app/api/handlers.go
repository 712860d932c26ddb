package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openvideos/yt-commons/app/database"
)

type Handler struct {
	channelRepo database.ChannelRepository
	videoRepo   database.VideoRepository
	version     string
}

func NewHandler(channelRepo database.ChannelRepository, videoRepo database.VideoRepository, version string) *Handler {
	return &Handler{
		channelRepo: channelRepo,
		videoRepo:   videoRepo,
		version:     version,
	}
}

func (h *Handler) GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "yt-commons",
		"version": h.version,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	channelCount, err := h.channelRepo.GetChannelCount()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "Database error"})
		return
	}
	videoCount, err := h.videoRepo.GetVideoCount()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"channels": channelCount,
		"videos":   videoCount,
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.videoRepo.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_channels":         stats.TotalChannels,
		"completed_channels":     stats.CompletedChannels,
		"total_videos":           stats.TotalVideos,
		"total_duration_seconds": stats.TotalDurationSeconds,
		"avg_channel_seconds":    stats.AvgChannelSeconds(),
		"avg_video_seconds":      stats.AvgVideoSeconds(),
	})
}
