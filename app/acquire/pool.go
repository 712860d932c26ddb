package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/openvideos/yt-commons/app/shard"
)

const (
	AudioExt      = ".m4a"
	TranscriptExt = ".txt"
)

// Mode selects which stages of the pipeline a run performs.
type Mode int

const (
	// ModeDownload fetches audio and keeps it.
	ModeDownload Mode = iota
	// ModeTranscribe transcribes audio that is already on disk.
	ModeTranscribe
	// ModeDownloadTranscribe fetches audio, transcribes it and deletes the
	// audio afterwards.
	ModeDownloadTranscribe
)

func (m Mode) String() string {
	switch m {
	case ModeDownload:
		return "download"
	case ModeTranscribe:
		return "transcribe"
	case ModeDownloadTranscribe:
		return "download+transcribe"
	default:
		return "unknown"
	}
}

// Transcriber converts an audio file into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Options configures a pool run.
type Options struct {
	Mode           Mode
	Workers        int
	AudioRoot      string
	TranscriptRoot string

	// Overwrite reprocesses videos whose target file already exists.
	Overwrite bool

	// KeepAudio retains audio files after transcription.
	KeepAudio bool

	// MaxVideos caps how many videos a run processes. Zero means no cap.
	MaxVideos int
}

// RunSummary counts per-video outcomes of a pool run.
type RunSummary struct {
	Succeeded int
	Skipped   int
	Failed    int
}

// Pool processes videos concurrently. Each video is independent; one failing
// never stops the others, and a rerun picks up exactly where the last run
// left off because finished targets are skipped.
type Pool struct {
	downloader  Downloader
	transcriber Transcriber
	opts        Options

	mu      sync.Mutex
	summary RunSummary
}

func NewPool(downloader Downloader, transcriber Transcriber, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pool{downloader: downloader, transcriber: transcriber, opts: opts}
}

// Run processes the given video ids and reports the outcome counts. Context
// cancellation stops the run after in-flight videos finish.
func (p *Pool) Run(ctx context.Context, videoIDs []string) (*RunSummary, error) {
	if err := p.ensureRoots(); err != nil {
		return nil, err
	}

	if p.opts.MaxVideos > 0 && len(videoIDs) > p.opts.MaxVideos {
		videoIDs = videoIDs[:p.opts.MaxVideos]
	}

	slog.Info("Starting acquisition run", "mode", p.opts.Mode.String(), "videos", len(videoIDs), "workers", p.opts.Workers)

	jobs := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go p.worker(ctx, i, jobs, &wg)
	}

feed:
	for _, id := range videoIDs {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	p.mu.Lock()
	summary := p.summary
	p.mu.Unlock()

	slog.Info("Acquisition run finished", "succeeded", summary.Succeeded, "skipped", summary.Skipped, "failed", summary.Failed)

	if err := ctx.Err(); err != nil {
		return &summary, err
	}
	return &summary, nil
}

// ensureRoots creates the output directories before any worker starts. An
// unwritable root would fail every single video, so it aborts the run instead.
func (p *Pool) ensureRoots() error {
	if p.opts.Mode == ModeDownload || p.opts.Mode == ModeDownloadTranscribe {
		if err := os.MkdirAll(p.opts.AudioRoot, 0755); err != nil {
			return fmt.Errorf("create audio directory: %w", err)
		}
	}
	if p.opts.Mode == ModeTranscribe || p.opts.Mode == ModeDownloadTranscribe {
		if err := os.MkdirAll(p.opts.TranscriptRoot, 0755); err != nil {
			return fmt.Errorf("create transcript directory: %w", err)
		}
	}
	return nil
}

func (p *Pool) worker(ctx context.Context, workerID int, jobs <-chan string, wg *sync.WaitGroup) {
	defer wg.Done()

	for videoID := range jobs {
		skipped, err := p.process(ctx, videoID)

		p.mu.Lock()
		switch {
		case err != nil:
			p.summary.Failed++
		case skipped:
			p.summary.Skipped++
		default:
			p.summary.Succeeded++
		}
		p.mu.Unlock()

		if err != nil && ctx.Err() == nil {
			slog.Error("Video processing failed", "worker_id", workerID, "video_id", videoID, "error", err)
		}
	}
}

// process runs the configured stages for one video. It returns skipped=true
// when the target file already exists and overwrite is off.
func (p *Pool) process(ctx context.Context, videoID string) (skipped bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	audioPath := shard.Path(p.opts.AudioRoot, videoID, AudioExt)

	switch p.opts.Mode {
	case ModeDownload:
		if fileExists(audioPath) && !p.opts.Overwrite {
			return true, nil
		}
		return false, p.downloader.Download(ctx, videoID, audioPath)

	case ModeTranscribe:
		transcriptPath := shard.Path(p.opts.TranscriptRoot, videoID, TranscriptExt)
		if fileExists(transcriptPath) && !p.opts.Overwrite {
			return true, nil
		}
		if !fileExists(audioPath) {
			return false, fmt.Errorf("audio file missing for %s", videoID)
		}
		return false, p.transcribe(ctx, videoID, audioPath, transcriptPath)

	case ModeDownloadTranscribe:
		transcriptPath := shard.Path(p.opts.TranscriptRoot, videoID, TranscriptExt)
		if fileExists(transcriptPath) && !p.opts.Overwrite {
			return true, nil
		}
		if !fileExists(audioPath) || p.opts.Overwrite {
			if err := p.downloader.Download(ctx, videoID, audioPath); err != nil {
				return false, err
			}
		}
		if err := p.transcribe(ctx, videoID, audioPath, transcriptPath); err != nil {
			return false, err
		}
		// Only the combined mode treats audio as an intermediate artifact.
		// Transcribing a pre-existing audio library never deletes it.
		if !p.opts.KeepAudio {
			if err := os.Remove(audioPath); err != nil {
				slog.Warn("Failed to remove audio file", "video_id", videoID, "error", err)
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown mode %d", p.opts.Mode)
	}
}

func (p *Pool) transcribe(ctx context.Context, videoID, audioPath, transcriptPath string) error {
	text, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("transcribe %s: %w", videoID, err)
	}

	if err := writeFileAtomic(transcriptPath, []byte(text)); err != nil {
		return fmt.Errorf("write transcript %s: %w", videoID, err)
	}

	return nil
}
