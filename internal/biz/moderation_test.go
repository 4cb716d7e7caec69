package biz

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"mediamod/internal/pkg/moderator"

	"github.com/go-kratos/kratos/v2/log"
)

type stubVisual struct {
	mu     sync.Mutex
	calls  int
	result *moderator.VisualResult
}

func (s *stubVisual) Moderate(ctx context.Context, path string, level moderator.StrictnessLevel) *moderator.VisualResult {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.result
}

type stubTranscription struct {
	mu       sync.Mutex
	calls    int
	segments []moderator.TranscriptSegment
}

func (s *stubTranscription) TranscribeForModeration(ctx context.Context, path string) []moderator.TranscriptSegment {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.segments
}

type stubText struct {
	mu        sync.Mutex
	violation *moderator.TextViolation
}

func (s *stubText) ModerateSegments(ctx context.Context, segments []moderator.TranscriptSegment) *moderator.TextResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := &moderator.TextResult{Violations: []moderator.TextViolation{}, TotalSegmentsChecked: len(segments)}
	if s.violation != nil && len(segments) > 0 {
		result.Flagged = true
		result.Violations = append(result.Violations, *s.violation)
	}
	return result
}

func (s *stubText) ModerateLiteral(ctx context.Context, text string) *moderator.TextViolation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violation
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*moderator.Result
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*moderator.Result)}
}

func (c *memoryCache) Get(ctx context.Context, contentHash string, level moderator.StrictnessLevel) (*moderator.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[string(level)+":"+contentHash], nil
}

func (c *memoryCache) Put(ctx context.Context, contentHash string, level moderator.StrictnessLevel, result *moderator.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[string(level)+":"+contentHash] = result
	return nil
}

func writeTempMedia(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp media: %v", err)
	}
	return path
}

func newTestUsecase(visual *stubVisual, transcription *stubTranscription, text TextStage, cache ResultCacheRepo) *ModerationUsecase {
	return NewModerationUsecase(visual, transcription, text, moderator.NewFuser(moderator.DefaultFusionConfig()), cache, log.DefaultLogger)
}

func TestModerateNoContent(t *testing.T) {
	uc := newTestUsecase(&stubVisual{}, &stubTranscription{}, &stubText{}, newMemoryCache())

	if _, err := uc.Moderate(context.Background(), ModerationInput{Text: "   "}); err == nil {
		t.Fatal("expected an error for empty input")
	} else if !ErrNoContent.Is(err) {
		t.Errorf("got %v, want ErrNoContent", err)
	}
}

func TestModerateCacheHitSkipsStages(t *testing.T) {
	visual := &stubVisual{result: &moderator.VisualResult{Flagged: true, Confidence: 0.4, TotalFramesChecked: 8}}
	transcription := &stubTranscription{segments: []moderator.TranscriptSegment{{Start: 0, End: 1, Text: "hi"}}}
	uc := newTestUsecase(visual, transcription, &stubText{}, newMemoryCache())

	path := writeTempMedia(t, "media bytes")
	input := ModerationInput{FilePath: path, Strictness: moderator.StrictnessModerate, CheckAudio: true}

	first, err := uc.Moderate(context.Background(), input)
	if err != nil {
		t.Fatalf("first moderation failed: %v", err)
	}
	second, err := uc.Moderate(context.Background(), input)
	if err != nil {
		t.Fatalf("second moderation failed: %v", err)
	}

	if visual.calls != 1 || transcription.calls != 1 {
		t.Errorf("stages ran %d/%d times, want 1/1 (second call should hit the cache)", visual.calls, transcription.calls)
	}
	if first.Flagged != second.Flagged || first.Confidence != second.Confidence {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
}

func TestModerateStrictnessSplitsCacheEntries(t *testing.T) {
	visual := &stubVisual{result: &moderator.VisualResult{TotalFramesChecked: 8}}
	uc := newTestUsecase(visual, &stubTranscription{}, &stubText{}, newMemoryCache())

	path := writeTempMedia(t, "media bytes")
	if _, err := uc.Moderate(context.Background(), ModerationInput{FilePath: path, Strictness: moderator.StrictnessStrict}); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Moderate(context.Background(), ModerationInput{FilePath: path, Strictness: moderator.StrictnessLenient}); err != nil {
		t.Fatal(err)
	}

	if visual.calls != 2 {
		t.Errorf("visual stage ran %d times, want 2 (different strictness levels must not share entries)", visual.calls)
	}
}

// literalMatcher flags only one specific literal text, so tests can send
// the same file with different texts through the pipeline.
type literalMatcher struct {
	stubText
	profane string
}

func (s *literalMatcher) ModerateLiteral(ctx context.Context, text string) *moderator.TextViolation {
	if text != s.profane {
		return nil
	}
	return &moderator.TextViolation{
		OriginalText:  text,
		CleanedText:   "censored",
		DetectedWords: []string{"profane"},
		FlagReason:    moderator.FlagReasonProfanity,
	}
}

func TestModerateLiteralTextSplitsCacheEntries(t *testing.T) {
	visual := &stubVisual{result: &moderator.VisualResult{TotalFramesChecked: 8}}
	text := &literalMatcher{profane: "some profane text"}
	uc := newTestUsecase(visual, &stubTranscription{}, text, newMemoryCache())

	path := writeTempMedia(t, "media bytes")
	clean, err := uc.Moderate(context.Background(), ModerationInput{
		FilePath: path, Text: "hello world", Strictness: moderator.StrictnessModerate,
	})
	if err != nil {
		t.Fatal(err)
	}
	if clean.Flagged {
		t.Fatal("clean text should not flag")
	}

	profane, err := uc.Moderate(context.Background(), ModerationInput{
		FilePath: path, Text: "some profane text", Strictness: moderator.StrictnessModerate,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !profane.Flagged {
		t.Error("profane literal text was answered from the clean request's cache entry")
	}
	if visual.calls != 2 {
		t.Errorf("visual stage ran %d times, want 2 (same file with different text must not share entries)", visual.calls)
	}

	// Identical file and text still hit the cache.
	if _, err := uc.Moderate(context.Background(), ModerationInput{
		FilePath: path, Text: "some profane text", Strictness: moderator.StrictnessModerate,
	}); err != nil {
		t.Fatal(err)
	}
	if visual.calls != 2 {
		t.Errorf("visual stage ran %d times after repeat request, want 2", visual.calls)
	}
}

func TestModerateLiteralTextOnly(t *testing.T) {
	text := &stubText{violation: &moderator.TextViolation{
		OriginalText:  "damn",
		CleanedText:   "****",
		DetectedWords: []string{"damn"},
		FlagReason:    moderator.FlagReasonProfanity,
	}}
	visual := &stubVisual{}
	uc := newTestUsecase(visual, &stubTranscription{}, text, newMemoryCache())

	result, err := uc.Moderate(context.Background(), ModerationInput{Text: "damn", Strictness: moderator.StrictnessModerate})
	if err != nil {
		t.Fatalf("moderation failed: %v", err)
	}
	if !result.Flagged {
		t.Error("expected a flagged result")
	}
	if result.Visual != nil {
		t.Error("no file was provided, visual block should be nil")
	}
	if result.LiteralText == nil || !result.LiteralText.Flagged {
		t.Errorf("LiteralText = %+v, want flagged", result.LiteralText)
	}
	if visual.calls != 0 {
		t.Errorf("visual stage ran %d times without a file", visual.calls)
	}
}

func TestModerateAudioOnlyWhenRequested(t *testing.T) {
	transcription := &stubTranscription{}
	uc := newTestUsecase(&stubVisual{result: &moderator.VisualResult{}}, transcription, &stubText{}, newMemoryCache())

	path := writeTempMedia(t, "media bytes")
	if _, err := uc.Moderate(context.Background(), ModerationInput{FilePath: path, Strictness: moderator.StrictnessModerate}); err != nil {
		t.Fatal(err)
	}
	if transcription.calls != 0 {
		t.Errorf("transcription ran %d times without check_audio", transcription.calls)
	}
}

func TestModerateText(t *testing.T) {
	uc := newTestUsecase(&stubVisual{}, &stubTranscription{}, &stubText{}, newMemoryCache())

	result, err := uc.ModerateText(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("ModerateText failed: %v", err)
	}
	if result.Flagged {
		t.Error("clean text flagged")
	}

	if _, err := uc.ModerateText(context.Background(), ""); err == nil {
		t.Error("expected an error for empty text")
	}
}
