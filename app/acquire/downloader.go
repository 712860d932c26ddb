package acquire

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultYtdlpPath    = "yt-dlp"
	defaultYtdlpTimeout = 30 * time.Minute
	defaultRateLimit    = "1M"
)

// Downloader fetches a video's audio track into destPath. The destination
// either appears complete or not at all.
type Downloader interface {
	Download(ctx context.Context, videoID, destPath string) error
}

// YtdlpDownloader shells out to yt-dlp for the audio stream. Downloads go to
// a .part file next to the target and are renamed into place on success, so
// an interrupted download never masquerades as a finished one.
type YtdlpDownloader struct {
	// Path is the yt-dlp executable. Defaults to "yt-dlp".
	Path string

	// Timeout bounds a single download. Defaults to 30 minutes.
	Timeout time.Duration

	// RateLimit is passed to yt-dlp's --limit-rate. Defaults to "1M".
	RateLimit string
}

func NewYtdlpDownloader() *YtdlpDownloader {
	return &YtdlpDownloader{
		Path:      defaultYtdlpPath,
		Timeout:   defaultYtdlpTimeout,
		RateLimit: defaultRateLimit,
	}
}

func (d *YtdlpDownloader) Download(ctx context.Context, videoID, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create audio directory: %w", err)
	}

	tmpPath := destPath + ".part"

	timeout := d.Timeout
	if timeout == 0 {
		timeout = defaultYtdlpTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"--quiet",
		"--no-warnings",
		"--no-progress",
		"-f", "bestaudio[ext=m4a]/bestaudio",
		"--limit-rate", d.rateLimit(),
		"-o", tmpPath,
		"https://www.youtube.com/watch?v=" + videoID,
	}

	cmd := exec.CommandContext(cmdCtx, d.path(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(tmpPath)
		if cmdCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("download %s: timed out after %s", videoID, timeout)
		}
		if cmdCtx.Err() == context.Canceled {
			return context.Canceled
		}
		errMsg := strings.TrimSpace(stderr.String())
		return fmt.Errorf("download %s: yt-dlp failed: %w: %s", videoID, err, errMsg)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize download %s: %w", videoID, err)
	}

	return nil
}

func (d *YtdlpDownloader) path() string {
	if d.Path != "" {
		return d.Path
	}
	return defaultYtdlpPath
}

func (d *YtdlpDownloader) rateLimit() string {
	if d.RateLimit != "" {
		return d.RateLimit
	}
	return defaultRateLimit
}
