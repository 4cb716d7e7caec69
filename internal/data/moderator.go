package data

import (
	"context"

	"mediamod/internal/biz"
	"mediamod/internal/conf"
	"mediamod/internal/pkg/media"
	"mediamod/internal/pkg/moderator"
	"mediamod/internal/pkg/nsfw"
	"mediamod/internal/pkg/whisper"

	"github.com/go-kratos/kratos/v2/log"
)

// NewMediaEngine creates the ffmpeg-backed media engine.
func NewMediaEngine(c *conf.Bootstrap, logger log.Logger) moderator.MediaEngine {
	cfg := media.DefaultConfig()
	if v := c.Moderation.FFmpeg.FFmpegPath; v != "" {
		cfg.FFmpegPath = v
	}
	if v := c.Moderation.FFmpeg.FFprobePath; v != "" {
		cfg.FFprobePath = v
	}
	if v := c.Moderation.FFmpeg.TempDir; v != "" {
		cfg.TempDir = v
	}
	if v := c.Moderation.FFmpeg.Timeout.AsDuration(); v > 0 {
		cfg.Timeout = v
	}
	return media.NewFFmpeg(cfg, logger)
}

// NewImageClassifier creates the HTTP client for the image classifier
// engine.
func NewImageClassifier(c *conf.Bootstrap) moderator.ImageClassifier {
	return nsfw.NewClient(nsfw.Config{
		BaseURL: c.Moderation.Classifier.BaseURL,
		Timeout: c.Moderation.Classifier.Timeout.AsDuration(),
	})
}

// whisperTranscriber adapts the whisper client to the moderation
// transcriber boundary.
type whisperTranscriber struct {
	client *whisper.Client
}

func (t *whisperTranscriber) Transcribe(ctx context.Context, audioPath string) ([]moderator.TranscriptSegment, error) {
	segments, err := t.client.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	out := make([]moderator.TranscriptSegment, len(segments))
	for i, seg := range segments {
		out[i] = moderator.TranscriptSegment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return out, nil
}

// NewTranscriber creates the HTTP client for the transcription engine.
func NewTranscriber(c *conf.Bootstrap) moderator.Transcriber {
	return &whisperTranscriber{client: whisper.NewClient(whisper.Config{
		BaseURL:   c.Moderation.Whisper.BaseURL,
		Timeout:   c.Moderation.Whisper.Timeout.AsDuration(),
		Language:  c.Moderation.Whisper.Language,
		Translate: c.Moderation.Whisper.Translate,
	})}
}

// NewTextModerator creates the lexicon matcher and loads the persisted
// lexicon into it. A failed initial load leaves the filters empty; the
// admin rebuild endpoint recovers once the database is reachable.
func NewTextModerator(data *Data, repo biz.BadWordRepo, logger log.Logger) *moderator.TextModerator {
	helper := log.NewHelper(logger)
	tm := moderator.NewTextModerator(data.rdb, moderator.DefaultTextModeratorConfig())

	ctx := context.Background()
	words, err := repo.List(ctx)
	if err != nil {
		helper.Warnf("failed to load lexicon, text filters start empty: %v", err)
		return tm
	}
	if err := tm.RebuildFilters(ctx, words); err != nil {
		helper.Warnf("failed to build text filters: %v", err)
		return tm
	}
	helper.Infof("loaded %d lexicon words", len(words))
	return tm
}

// NewTextStage exposes the text moderator at the usecase boundary.
func NewTextStage(tm *moderator.TextModerator) biz.TextStage {
	return tm
}

// NewVisualStage creates the visual moderation stage.
func NewVisualStage(c *conf.Bootstrap, engine moderator.MediaEngine, classifier moderator.ImageClassifier, logger log.Logger) biz.VisualStage {
	cfg := moderator.DefaultVisualConfig()
	if v := c.Moderation.Visual.FrameDedupDistance; v != 0 {
		cfg.FrameDedupDistance = v
	}
	if v := c.Moderation.Visual.Timeout.AsDuration(); v > 0 {
		cfg.Timeout = v
	}
	return moderator.NewVisualModerator(cfg, engine, classifier, logger)
}

// NewTranscriptionStage creates the audio transcription stage.
func NewTranscriptionStage(c *conf.Bootstrap, engine moderator.MediaEngine, transcriber moderator.Transcriber, logger log.Logger) biz.TranscriptionStage {
	cfg := moderator.DefaultTranscriptionConfig()
	if v := c.Moderation.Whisper.Timeout.AsDuration(); v > 0 {
		cfg.Timeout = v
	}
	return moderator.NewTranscriptionAdapter(cfg, engine, transcriber, logger)
}

// NewFuser creates the fusion stage with any configured weight overrides.
func NewFuser(c *conf.Bootstrap) *moderator.Fuser {
	cfg := moderator.DefaultFusionConfig()
	if v := c.Moderation.Fusion.VisualWeight; v > 0 {
		cfg.VisualWeight = v
	}
	if v := c.Moderation.Fusion.TextWeight; v > 0 {
		cfg.TextWeight = v
	}
	return moderator.NewFuser(cfg)
}
