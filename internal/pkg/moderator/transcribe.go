package moderator

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// TranscriptionConfig holds configuration for the transcription adapter.
type TranscriptionConfig struct {
	Timeout time.Duration
}

// DefaultTranscriptionConfig returns default configuration.
func DefaultTranscriptionConfig() TranscriptionConfig {
	return TranscriptionConfig{Timeout: 3 * time.Minute}
}

// TranscriptionAdapter extracts a media file's audio track and hands it to
// the speech-to-text engine. Transcription is best-effort for moderation:
// every failure path yields an empty segment list, meaning "no spoken
// content to check", never an error.
type TranscriptionAdapter struct {
	config      TranscriptionConfig
	engine      MediaEngine
	transcriber Transcriber
	log         *log.Helper
}

// NewTranscriptionAdapter creates a new TranscriptionAdapter.
func NewTranscriptionAdapter(config TranscriptionConfig, engine MediaEngine, transcriber Transcriber, logger log.Logger) *TranscriptionAdapter {
	return &TranscriptionAdapter{
		config:      config,
		engine:      engine,
		transcriber: transcriber,
		log:         log.NewHelper(logger),
	}
}

// TranscribeForModeration returns validated, non-blank transcript segments
// for the media file, or an empty slice when anything fails.
func (a *TranscriptionAdapter) TranscribeForModeration(ctx context.Context, path string) []TranscriptSegment {
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	audioPath, err := a.engine.ExtractAudio(ctx, path)
	if err != nil {
		a.log.Warnf("audio extraction failed, skipping audio check: %v", err)
		return nil
	}
	defer os.Remove(audioPath)

	segments, err := a.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		a.log.Warnf("transcription failed, skipping audio check: %v", err)
		return nil
	}

	valid := make([]TranscriptSegment, 0, len(segments))
	for _, seg := range segments {
		if seg.End <= seg.Start || strings.TrimSpace(seg.Text) == "" {
			continue
		}
		valid = append(valid, seg)
	}

	a.log.Debugf("transcribed %d segments (%d valid) from %s", len(segments), len(valid), path)
	return valid
}
