package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultWhisperPath    = "whisper-ctranslate2"
	defaultWhisperTimeout = 60 * time.Minute
	defaultModelSize      = "base"
	defaultDevice         = "auto"
	defaultComputeType    = "default"
)

// Options configures the speech recognition subprocess.
type Options struct {
	// ModelSize selects the Whisper model, e.g. "tiny", "base", "small",
	// "medium", "large-v3". Defaults to "base".
	ModelSize string

	// Device is "cpu", "cuda" or "auto". Defaults to "auto".
	Device string

	// ComputeType is the ctranslate2 quantization, e.g. "int8", "float16".
	// Defaults to "default".
	ComputeType string

	// Threads is the CPU thread count per worker. Zero leaves the choice to
	// the subprocess.
	Threads int

	// Path is the whisper-ctranslate2 executable. Defaults to
	// "whisper-ctranslate2".
	Path string

	// Timeout bounds a single transcription. Defaults to 60 minutes.
	Timeout time.Duration
}

// WhisperCLI transcribes audio files by shelling out to whisper-ctranslate2.
type WhisperCLI struct {
	opts Options
}

func NewWhisperCLI(opts Options) *WhisperCLI {
	if opts.ModelSize == "" {
		opts.ModelSize = defaultModelSize
	}
	if opts.Device == "" {
		opts.Device = defaultDevice
	}
	if opts.ComputeType == "" {
		opts.ComputeType = defaultComputeType
	}
	if opts.Path == "" {
		opts.Path = defaultWhisperPath
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultWhisperTimeout
	}
	return &WhisperCLI{opts: opts}
}

// Transcribe runs the model over audioPath and returns the plain transcript
// text. The subprocess writes into a private temp directory which is removed
// afterwards, whatever the outcome.
func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	outputDir, err := os.MkdirTemp("", "whisper-*")
	if err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	defer os.RemoveAll(outputDir)

	cmdCtx, cancel := context.WithTimeout(ctx, w.opts.Timeout)
	defer cancel()

	args := []string{
		"--model", w.opts.ModelSize,
		"--device", w.opts.Device,
		"--compute_type", w.opts.ComputeType,
		"--output_format", "txt",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if w.opts.Threads > 0 {
		args = append(args, "--threads", strconv.Itoa(w.opts.Threads))
	}
	args = append(args, audioPath)

	cmd := exec.CommandContext(cmdCtx, w.opts.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("transcription timed out after %s", w.opts.Timeout)
		}
		if cmdCtx.Err() == context.Canceled {
			return "", context.Canceled
		}
		return "", fmt.Errorf("whisper failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	transcriptPath := filepath.Join(outputDir, stem+".txt")

	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", fmt.Errorf("read transcript output: %w", err)
	}

	return string(data), nil
}
