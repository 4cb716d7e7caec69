package moderator

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"mediamod/internal/pkg/hash"
	"mediamod/internal/pkg/media"

	"github.com/go-kratos/kratos/v2/log"
)

// VisualViolation records one sampled frame whose scores exceeded the
// active thresholds.
type VisualViolation struct {
	FrameIndex         int            `json:"frameIndex"`
	ExactTimestamp     float64        `json:"exactTimestamp"`
	FormattedTimestamp string         `json:"formattedTimestamp"`
	EstimatedDuration  string         `json:"estimatedDuration"`
	Scores             CategoryScores `json:"scores"`
}

// VisualResult is the outcome of the visual moderation stage. Err is set
// when media-level extraction failed entirely; callers treat that as
// "unknown, not violating".
type VisualResult struct {
	Flagged            bool              `json:"flagged"`
	Violations         []VisualViolation `json:"violations"`
	TotalFramesChecked int               `json:"totalFramesChecked"`
	VideoDuration      float64           `json:"videoDurationSeconds"`
	Confidence         float64           `json:"confidence"`
	Err                string            `json:"error,omitempty"`
}

// VisualConfig holds configuration for the visual moderation stage.
type VisualConfig struct {
	// FrameDedupDistance is the pHash Hamming distance at or below which a
	// frame reuses the previous frame's scores instead of re-running
	// inference. Negative disables dedup.
	FrameDedupDistance int
	Timeout            time.Duration
}

// DefaultVisualConfig returns default configuration.
func DefaultVisualConfig() VisualConfig {
	return VisualConfig{
		FrameDedupDistance: 4,
		Timeout:            3 * time.Minute,
	}
}

// VisualModerator orchestrates frame sampling, extraction, and
// classification over one media file.
type VisualModerator struct {
	config     VisualConfig
	engine     MediaEngine
	classifier ImageClassifier
	sampler    *FrameSampler
	hasher     *hash.PerceptualHasher
	log        *log.Helper
}

// NewVisualModerator creates a new VisualModerator.
func NewVisualModerator(config VisualConfig, engine MediaEngine, classifier ImageClassifier, logger log.Logger) *VisualModerator {
	return &VisualModerator{
		config:     config,
		engine:     engine,
		classifier: classifier,
		sampler:    NewFrameSampler(),
		hasher:     hash.NewPerceptualHasher(),
		log:        log.NewHelper(logger),
	}
}

// Moderate runs the visual stage over one media file. It never returns an
// error: engine-level failures produce a result with Err set so the other
// modalities still run.
func (m *VisualModerator) Moderate(ctx context.Context, path string, level StrictnessLevel) *VisualResult {
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}

	duration, err := m.engine.Duration(ctx, path)
	if err != nil {
		m.log.Warnf("visual moderation failed to probe media: %v", err)
		return &VisualResult{Violations: []VisualViolation{}, Err: err.Error()}
	}

	timestamps := m.sampler.Sample(duration)
	if len(timestamps) == 0 {
		return &VisualResult{
			Violations:    []VisualViolation{},
			VideoDuration: round2(duration),
		}
	}

	frames, err := m.engine.ExtractFrames(ctx, path, timestamps)
	if err != nil {
		m.log.Warnf("visual moderation failed to extract frames: %v", err)
		return &VisualResult{Violations: []VisualViolation{}, Err: err.Error()}
	}

	thresholds := ThresholdsFor(level)
	violations := make([]VisualViolation, 0)

	// Frames are classified one at a time to bound peak inference load,
	// and each frame's file is removed no matter how scoring went.
	var prevHash *hash.ImageHash
	var prevScores map[string]float64
	for _, frame := range frames {
		scores, err := m.scoreFrame(ctx, frame, &prevHash, &prevScores)
		if err != nil {
			m.log.Warnf("frame %d at %.2fs could not be scored: %v", frame.Index, frame.Timestamp, err)
			continue
		}

		frameScores := CategoryScores{
			Porn:   scores["porn"],
			Sexy:   scores["sexy"],
			Hentai: scores["hentai"],
		}
		if frameScores.ExceedsAny(thresholds) {
			violations = append(violations, VisualViolation{
				FrameIndex:         frame.Index,
				ExactTimestamp:     round2(frame.Timestamp),
				FormattedTimestamp: FormatTimestamp(frame.Timestamp),
				EstimatedDuration:  "~1-2 seconds",
				Scores: CategoryScores{
					Porn:   round2(frameScores.Porn),
					Sexy:   round2(frameScores.Sexy),
					Hentai: round2(frameScores.Hentai),
				},
			})
		}
	}

	result := &VisualResult{
		Flagged:            len(violations) > 0,
		Violations:         violations,
		TotalFramesChecked: len(frames),
		VideoDuration:      round2(duration),
	}
	if result.TotalFramesChecked > 0 {
		result.Confidence = float64(len(violations)) / float64(result.TotalFramesChecked)
	}
	return result
}

// scoreFrame reads, optionally dedups, and classifies one frame. The frame
// file is always removed before returning.
func (m *VisualModerator) scoreFrame(ctx context.Context, frame media.Frame, prevHash **hash.ImageHash, prevScores *map[string]float64) (map[string]float64, error) {
	defer os.Remove(frame.Path)

	imageData, err := os.ReadFile(frame.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}

	var frameHash *hash.ImageHash
	if m.config.FrameDedupDistance >= 0 {
		frameHash, _ = m.hasher.ComputePHashFromBytes(imageData)
		if frameHash != nil && *prevHash != nil && *prevScores != nil &&
			hash.Distance((*prevHash).Hash, frameHash.Hash) <= m.config.FrameDedupDistance {
			*prevHash = frameHash
			return *prevScores, nil
		}
	}

	scores, err := m.classifier.Classify(ctx, imageData)
	if err != nil {
		return nil, err
	}
	if frameHash != nil {
		*prevHash = frameHash
		*prevScores = scores
	}
	return scores, nil
}

// FormatTimestamp renders a timestamp in seconds as "M:SS.cc" past one
// minute, or "S.ccs" below it.
func FormatTimestamp(seconds float64) string {
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	centis := int(math.Floor(math.Mod(seconds, 1) * 100))

	if mins > 0 {
		return fmt.Sprintf("%d:%02d.%02d", mins, secs, centis)
	}
	return fmt.Sprintf("%d.%02ds", secs, centis)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
