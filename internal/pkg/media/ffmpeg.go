package media

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

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// Frame is one extracted video frame, written to a temp file.
// The consumer owns the file and must remove it when done.
type Frame struct {
	Index     int
	Timestamp float64
	Path      string
}

// Config holds configuration for the ffmpeg engine.
type Config struct {
	FFmpegPath  string // ffmpeg binary, defaults to "ffmpeg" on PATH
	FFprobePath string // ffprobe binary, defaults to "ffprobe" on PATH
	TempDir     string // directory for extracted frames and audio tracks
	FrameWidth  int    // classifier input width
	FrameHeight int    // classifier input height
	Timeout     time.Duration
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		TempDir:     os.TempDir(),
		FrameWidth:  224,
		FrameHeight: 224,
		Timeout:     60 * time.Second,
	}
}

// FFmpeg drives ffmpeg/ffprobe subprocesses to probe media, extract frames
// at given timestamps, and downmix audio for transcription.
type FFmpeg struct {
	config Config
	log    *log.Helper
}

// NewFFmpeg creates a new FFmpeg engine.
func NewFFmpeg(config Config, logger log.Logger) *FFmpeg {
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	if config.FFprobePath == "" {
		config.FFprobePath = "ffprobe"
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.FrameWidth <= 0 {
		config.FrameWidth = 224
	}
	if config.FrameHeight <= 0 {
		config.FrameHeight = 224
	}
	return &FFmpeg{
		config: config,
		log:    log.NewHelper(logger),
	}
}

// Duration probes the media file and returns its duration in seconds.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.config.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparsable duration: %w", err)
	}
	return duration, nil
}

// ExtractFrames decodes one frame per timestamp, scaled to the configured
// classifier input size, and writes each to a PNG under TempDir. Timestamps
// that cannot be decoded are skipped with a warning so one broken seek does
// not void the whole sample set.
func (f *FFmpeg) ExtractFrames(ctx context.Context, path string, timestamps []float64) ([]Frame, error) {
	framePrefix := fmt.Sprintf("frame_%s", uuid.NewString())
	scale := fmt.Sprintf("scale=%d:%d", f.config.FrameWidth, f.config.FrameHeight)

	frames := make([]Frame, 0, len(timestamps))
	for i, ts := range timestamps {
		outPath := filepath.Join(f.config.TempDir, fmt.Sprintf("%s_%03d.png", framePrefix, i))

		if err := f.extractFrame(ctx, path, ts, scale, outPath); err != nil {
			f.log.Warnf("frame extraction at %.2fs failed: %v", ts, err)
			continue
		}

		frames = append(frames, Frame{
			Index:     i,
			Timestamp: ts,
			Path:      outPath,
		})
	}

	if len(frames) == 0 && len(timestamps) > 0 {
		return nil, fmt.Errorf("no frames could be extracted from %s", filepath.Base(path))
	}
	return frames, nil
}

func (f *FFmpeg) extractFrame(ctx context.Context, path string, ts float64, scale, outPath string) error {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.config.FFmpegPath,
		"-v", "error",
		"-ss", strconv.FormatFloat(ts, 'f', 2, 64),
		"-i", path,
		"-frames:v", "1",
		"-vf", scale,
		"-y",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	if info, err := os.Stat(outPath); err != nil || info.Size() == 0 {
		os.Remove(outPath)
		return fmt.Errorf("ffmpeg produced no frame at %.2fs", ts)
	}
	return nil
}

// ExtractAudio downmixes the media's audio track to a mono 16 kHz PCM WAV
// file suitable for the transcription engine. The caller owns the file.
func (f *FFmpeg) ExtractAudio(ctx context.Context, path string) (string, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	audioPath := filepath.Join(f.config.TempDir, fmt.Sprintf("audio_%s.wav", uuid.NewString()))

	cmd := exec.CommandContext(ctx, f.config.FFmpegPath,
		"-v", "error",
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-y",
		audioPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(audioPath)
		return "", fmt.Errorf("ffmpeg audio extraction failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return audioPath, nil
}

func (f *FFmpeg) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.config.Timeout)
}
