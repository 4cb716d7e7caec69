package biz

import (
	"context"
	"strings"

	"mediamod/internal/pkg/hash"
	"mediamod/internal/pkg/moderator"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoContent is returned when a request carries neither a media file
// nor literal text.
var ErrNoContent = errors.BadRequest("NO_CONTENT", "no media file or text provided")

// VisualStage judges the sampled frames of one media file.
type VisualStage interface {
	Moderate(ctx context.Context, path string, level moderator.StrictnessLevel) *moderator.VisualResult
}

// TranscriptionStage turns a media file's audio into transcript segments.
type TranscriptionStage interface {
	TranscribeForModeration(ctx context.Context, path string) []moderator.TranscriptSegment
}

// TextStage judges transcript segments and literal text against the
// lexicon.
type TextStage interface {
	ModerateSegments(ctx context.Context, segments []moderator.TranscriptSegment) *moderator.TextResult
	ModerateLiteral(ctx context.Context, text string) *moderator.TextViolation
}

// ModerationInput is one moderation request after transport decoding. A
// request may carry a media file, literal text, or both.
type ModerationInput struct {
	FilePath   string
	Text       string
	Strictness moderator.StrictnessLevel
	CheckAudio bool
}

// ModerationUsecase runs the full pipeline: content hashing and cache
// lookup, then the visual, audio-text, and literal-text stages fanned out
// concurrently, joined by fusion.
type ModerationUsecase struct {
	visual        VisualStage
	transcription TranscriptionStage
	text          TextStage
	fuser         *moderator.Fuser
	cache         ResultCacheRepo
	log           *log.Helper
}

// NewModerationUsecase creates a new ModerationUsecase.
func NewModerationUsecase(
	visual VisualStage,
	transcription TranscriptionStage,
	text TextStage,
	fuser *moderator.Fuser,
	cache ResultCacheRepo,
	logger log.Logger,
) *ModerationUsecase {
	return &ModerationUsecase{
		visual:        visual,
		transcription: transcription,
		text:          text,
		fuser:         fuser,
		cache:         cache,
		log:           log.NewHelper(logger),
	}
}

// Moderate runs all applicable stages for the input and returns the fused
// result. Identical content under the same strictness level is answered
// from the cache without re-running any engine.
func (uc *ModerationUsecase) Moderate(ctx context.Context, input ModerationInput) (*moderator.Result, error) {
	hasFile := input.FilePath != ""
	hasText := strings.TrimSpace(input.Text) != ""
	if !hasFile && !hasText {
		return nil, ErrNoContent
	}

	contentHash, err := uc.contentHash(input)
	if err != nil {
		return nil, err
	}

	if cached, err := uc.cache.Get(ctx, contentHash, input.Strictness); err != nil {
		uc.log.Warnf("result cache lookup failed: %v", err)
	} else if cached != nil {
		uc.log.Debugf("cache hit for %s", contentHash)
		return cached, nil
	}

	var (
		visualResult  *moderator.VisualResult
		audioResult   *moderator.TextResult
		literalResult *moderator.LiteralTextResult
	)

	// The visual and audio paths are independent of each other and run
	// concurrently. The stages absorb their own engine failures, so the
	// group never fails.
	g, gctx := errgroup.WithContext(ctx)
	if hasFile {
		g.Go(func() error {
			visualResult = uc.visual.Moderate(gctx, input.FilePath, input.Strictness)
			return nil
		})
		if input.CheckAudio {
			g.Go(func() error {
				segments := uc.transcription.TranscribeForModeration(gctx, input.FilePath)
				audioResult = uc.text.ModerateSegments(gctx, segments)
				return nil
			})
		}
	}
	if hasText {
		g.Go(func() error {
			literalResult = &moderator.LiteralTextResult{}
			if violation := uc.text.ModerateLiteral(gctx, input.Text); violation != nil {
				literalResult.Flagged = true
				literalResult.Violation = violation
			}
			return nil
		})
	}
	_ = g.Wait()

	result := uc.fuser.Fuse(visualResult, audioResult, literalResult)

	if err := uc.cache.Put(ctx, contentHash, input.Strictness, result); err != nil {
		uc.log.Warnf("failed to cache moderation result: %v", err)
	}
	return result, nil
}

// ModerateVisual runs only the visual stage, uncached.
func (uc *ModerationUsecase) ModerateVisual(ctx context.Context, path string, level moderator.StrictnessLevel) *moderator.VisualResult {
	return uc.visual.Moderate(ctx, path, level)
}

// ModerateText runs only the literal-text stage, uncached.
func (uc *ModerationUsecase) ModerateText(ctx context.Context, text string) (*moderator.LiteralTextResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoContent
	}
	result := &moderator.LiteralTextResult{}
	if violation := uc.text.ModerateLiteral(ctx, text); violation != nil {
		result.Flagged = true
		result.Violation = violation
	}
	return result, nil
}

// UnsafeReport renders the violation detail for a flagged result.
func (uc *ModerationUsecase) UnsafeReport(result *moderator.Result, level moderator.StrictnessLevel) *moderator.UnsafeReport {
	return uc.fuser.BuildUnsafeReport(result, level)
}

// SafeReport summarizes a clean result.
func (uc *ModerationUsecase) SafeReport(result *moderator.Result) *moderator.SafeReport {
	return uc.fuser.BuildSafeReport(result)
}

// contentHash keys the cache by the file's raw bytes, the literal text,
// or both. The verdict depends on every signal the request carries, so
// the same file with different literal text must not share an entry.
func (uc *ModerationUsecase) contentHash(input ModerationInput) (string, error) {
	if input.FilePath == "" {
		return hash.HashTextSha256(input.Text), nil
	}

	fileHash, err := hash.HashFileSha256(input.FilePath)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input.Text) == "" {
		return fileHash, nil
	}
	return hash.HashTextSha256(fileHash + "\n" + input.Text), nil
}
