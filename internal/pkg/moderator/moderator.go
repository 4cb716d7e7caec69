// Package moderator implements the multi-modal moderation pipeline: frame
// sampling and visual classification, audio transcription hand-off,
// lexicon-based text scanning, and the fusion of those signals into a
// single verdict.
package moderator

import (
	"context"

	"mediamod/internal/pkg/media"
)

// CategoryScores holds independent per-category probabilities (or, for the
// threshold policy, per-category cutoffs). Scores are not mutually
// exclusive.
type CategoryScores struct {
	Porn   float64 `json:"porn"`
	Sexy   float64 `json:"sexy"`
	Hentai float64 `json:"hentai"`
}

// ExceedsAny reports whether any category score strictly exceeds the
// corresponding threshold. A score exactly at the cutoff does not trigger.
func (s CategoryScores) ExceedsAny(thresholds CategoryScores) bool {
	return s.Porn > thresholds.Porn ||
		s.Sexy > thresholds.Sexy ||
		s.Hentai > thresholds.Hentai
}

// TranscriptSegment is one time-stamped span of transcribed speech.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// MediaEngine is the transcoding/frame-extraction engine boundary.
type MediaEngine interface {
	// Duration returns the media duration in seconds.
	Duration(ctx context.Context, path string) (float64, error)
	// ExtractFrames decodes one size-normalized frame per timestamp.
	ExtractFrames(ctx context.Context, path string, timestamps []float64) ([]media.Frame, error)
	// ExtractAudio produces a downmixed mono PCM audio track.
	ExtractAudio(ctx context.Context, path string) (string, error)
}

// ImageClassifier scores one encoded image, returning per-category
// probabilities keyed by lowercased category name.
type ImageClassifier interface {
	Classify(ctx context.Context, image []byte) (map[string]float64, error)
}

// Transcriber converts an extracted audio track into timed text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]TranscriptSegment, error)
}
