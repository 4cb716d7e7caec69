package moderator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"mediamod/internal/pkg/bloom"
	"mediamod/internal/pkg/filter"
	"mediamod/internal/pkg/hash"
	"mediamod/internal/pkg/redis"
)

// FlagReasonProfanity is the reason attached to lexicon-based violations.
const FlagReasonProfanity = "profanity"

// TextViolation records one flagged piece of text, either a transcript
// segment (with timing) or a bare literal string.
type TextViolation struct {
	Start         float64  `json:"start,omitempty"`
	End           float64  `json:"end,omitempty"`
	OriginalText  string   `json:"originalText"`
	CleanedText   string   `json:"cleanedText"`
	DetectedWords []string `json:"detectedWords"`
	FlagReason    string   `json:"flagReason"`
}

// TextResult is the outcome of moderating a set of transcript segments.
type TextResult struct {
	Flagged              bool            `json:"flagged"`
	Violations           []TextViolation `json:"violations"`
	TotalSegmentsChecked int             `json:"totalSegmentsChecked"`
}

// BadWord represents a lexicon entry with metadata.
type BadWord struct {
	Word      string
	Category  string
	NsfwScore float64
}

// TextModeratorConfig holds configuration for TextModerator.
type TextModeratorConfig struct {
	BloomBits          uint
	BloomHashFunctions uint
	BloomKey           string
}

// DefaultTextModeratorConfig returns default configuration.
func DefaultTextModeratorConfig() TextModeratorConfig {
	return TextModeratorConfig{
		BloomBits:          1024 * 1024 * 8, // 8 million bits = 1MB
		BloomHashFunctions: 5,
		BloomKey:           "mediamod:bloom:badwords",
	}
}

// TextModerator scans text against the profanity lexicon. The same matcher
// serves both transcript segments and literal text so both are judged
// identically. A Redis-backed bloom filter over lexicon tokens prefilters
// segments that cannot match.
type TextModerator struct {
	bloomFilter *bloom.Filter
	ahoCorasick *filter.AhoCorasick
	mu          sync.RWMutex
}

// NewTextModerator creates a new TextModerator. redisCache can be nil, in
// which case the bloom prefilter is disabled and every text runs through
// the automaton.
func NewTextModerator(redisCache redis.Cache, config TextModeratorConfig) *TextModerator {
	tm := &TextModerator{
		ahoCorasick: filter.NewAhoCorasick(),
	}
	if redisCache != nil {
		tm.bloomFilter = bloom.NewBloomFilter(redisCache, config.BloomKey, config.BloomBits, config.BloomHashFunctions)
	}
	return tm
}

// RebuildFilters rebuilds the automaton and bloom filter from the word list.
func (tm *TextModerator) RebuildFilters(ctx context.Context, words []BadWord) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	patterns := make([]filter.PatternInfo, len(words))
	for i, w := range words {
		patterns[i] = filter.PatternInfo{
			Word:      w.Word,
			Category:  w.Category,
			NsfwScore: w.NsfwScore,
		}
	}
	tm.ahoCorasick.Build(patterns)

	for _, w := range words {
		if err := tm.addToBloom(ctx, w.Word); err != nil {
			return err
		}
	}
	return nil
}

// AddWord adds a single word to the filters.
func (tm *TextModerator) AddWord(ctx context.Context, word BadWord) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.ahoCorasick.AddPattern(filter.PatternInfo{
		Word:      word.Word,
		Category:  word.Category,
		NsfwScore: word.NsfwScore,
	})
	return tm.addToBloom(ctx, word.Word)
}

// addToBloom stores the normalized phrase plus its constituent tokens, so
// the per-token prefilter can recognize multi-word lexicon entries.
func (tm *TextModerator) addToBloom(ctx context.Context, word string) error {
	if tm.bloomFilter == nil {
		return nil
	}

	normalized := filter.NormalizeText(word)
	if err := tm.bloomFilter.AddWithCtx(ctx, hash.FastHash(normalized)); err != nil {
		return err
	}

	for _, token := range tokenize(normalized) {
		if err := tm.bloomFilter.AddWithCtx(ctx, hash.FastHash(token)); err != nil {
			return err
		}
	}
	return nil
}

// ModerateSegments runs the lexicon over time-stamped transcript segments.
// Empty input yields an unflagged zero-count result, never an error.
func (tm *TextModerator) ModerateSegments(ctx context.Context, segments []TranscriptSegment) *TextResult {
	result := &TextResult{
		Violations:           make([]TextViolation, 0),
		TotalSegmentsChecked: len(segments),
	}

	for _, seg := range segments {
		violation := tm.ModerateLiteral(ctx, seg.Text)
		if violation == nil {
			continue
		}
		violation.Start = seg.Start
		violation.End = seg.End
		result.Violations = append(result.Violations, *violation)
	}

	result.Flagged = len(result.Violations) > 0
	return result
}

// ModerateLiteral runs the lexicon over a single string. Returns nil when
// the text is clean.
func (tm *TextModerator) ModerateLiteral(ctx context.Context, text string) *TextViolation {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if !tm.mightMatch(ctx, text) {
		return nil
	}

	matches := tm.ahoCorasick.Search(text)
	if len(matches) == 0 {
		return nil
	}

	detected := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for i, m := range matches {
		word := m.Word
		if word == "" {
			word = fmt.Sprintf("term_%d", i)
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		detected = append(detected, word)
	}

	return &TextViolation{
		OriginalText:  text,
		CleanedText:   filter.CensorMatches(text, matches),
		DetectedWords: detected,
		FlagReason:    FlagReasonProfanity,
	}
}

// mightMatch is the bloom prefilter: when no token of the text is a known
// lexicon token, the automaton is skipped. The prefilter works at token
// granularity, so a lexicon word embedded inside a longer word can be
// passed over; transcript text arrives word-separated, which keeps that
// acceptable. Errors and a missing bloom filter fall through to the
// automaton.
func (tm *TextModerator) mightMatch(ctx context.Context, text string) bool {
	if tm.bloomFilter == nil {
		return true
	}

	normalized := filter.NormalizeText(text)
	if exists, err := tm.bloomFilter.ExistsWithCtx(ctx, hash.FastHash(normalized)); err != nil {
		return true
	} else if exists {
		return true
	}

	for _, token := range tokenize(normalized) {
		exists, err := tm.bloomFilter.ExistsWithCtx(ctx, hash.FastHash(token))
		if err != nil || exists {
			return true
		}
	}
	return false
}

// tokenize splits text into words.
func tokenize(text string) []string {
	words := make([]string, 0)
	current := strings.Builder{}

	for _, r := range text {
		if isWordChar(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}

	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

func isWordChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' ||
		r >= 0x80 // Unicode characters
}
