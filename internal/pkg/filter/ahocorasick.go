package filter

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Match represents a lexicon match found by the Aho-Corasick automaton.
// Start and End are rune offsets into the original (un-normalized) text,
// so the span can be censored in place.
type Match struct {
	Word      string
	Start     int
	End       int
	Category  string
	NsfwScore float64
}

// PatternInfo stores metadata about a pattern.
type PatternInfo struct {
	Word      string
	Category  string
	NsfwScore float64
}

// patternEntry carries a pattern plus its normalized rune length,
// which is needed to recover the match start position.
type patternEntry struct {
	PatternInfo
	runeLen int
}

// ahoCorasickNode represents a node in the Aho-Corasick automaton.
type ahoCorasickNode struct {
	children    map[rune]*ahoCorasickNode
	failLink    *ahoCorasickNode
	output      []patternEntry
	isEndOfWord bool
}

// AhoCorasick implements the Aho-Corasick string matching algorithm over
// normalized text (lowercased, diacritics stripped, leetspeak folded).
type AhoCorasick struct {
	root *ahoCorasickNode
	mu   sync.RWMutex
}

// NewAhoCorasick creates a new Aho-Corasick automaton.
func NewAhoCorasick() *AhoCorasick {
	return &AhoCorasick{
		root: newAhoCorasickNode(),
	}
}

func newAhoCorasickNode() *ahoCorasickNode {
	return &ahoCorasickNode{
		children: make(map[rune]*ahoCorasickNode),
		output:   make([]patternEntry, 0),
	}
}

// Build builds the automaton from a list of patterns, replacing any
// previously built automaton.
func (ac *AhoCorasick) Build(patterns []PatternInfo) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.root = newAhoCorasickNode()

	for _, pattern := range patterns {
		ac.addPattern(pattern)
	}

	ac.buildFailLinks()
}

// AddPattern adds a single pattern and rebuilds fail links.
func (ac *AhoCorasick) AddPattern(pattern PatternInfo) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.addPattern(pattern)
	ac.buildFailLinks()
}

func (ac *AhoCorasick) addPattern(pattern PatternInfo) {
	node := ac.root
	normalized, _ := normalizeIndexed(pattern.Word)
	if len(normalized) == 0 {
		return
	}

	for _, char := range normalized {
		if _, ok := node.children[char]; !ok {
			node.children[char] = newAhoCorasickNode()
		}
		node = node.children[char]
	}

	node.isEndOfWord = true
	node.output = append(node.output, patternEntry{PatternInfo: pattern, runeLen: len(normalized)})
}

// buildFailLinks builds the fail links for the automaton using BFS.
func (ac *AhoCorasick) buildFailLinks() {
	for _, child := range ac.root.children {
		child.failLink = ac.root
	}

	queue := make([]*ahoCorasickNode, 0, len(ac.root.children))
	for _, child := range ac.root.children {
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for char, child := range current.children {
			queue = append(queue, child)

			// Find the longest proper suffix that is also a prefix
			failNode := current.failLink
			for failNode != nil && failNode.children[char] == nil {
				failNode = failNode.failLink
			}

			if failNode == nil {
				child.failLink = ac.root
			} else {
				child.failLink = failNode.children[char]
				child.output = append(child.output, child.failLink.output...)
			}
		}
	}
}

// Search finds all pattern occurrences in text. Match spans reference the
// original text so they stay valid for censoring even when normalization
// drops runes.
func (ac *AhoCorasick) Search(text string) []Match {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	matches := make([]Match, 0)
	normalized, idx := normalizeIndexed(text)
	node := ac.root

	for i, char := range normalized {
		for node != nil && node.children[char] == nil {
			node = node.failLink
		}

		if node == nil {
			node = ac.root
		} else {
			node = node.children[char]
		}

		for _, entry := range node.output {
			start := i - entry.runeLen + 1
			if start < 0 {
				start = 0
			}
			matches = append(matches, Match{
				Word:      entry.Word,
				Start:     idx[start],
				End:       idx[i] + 1,
				Category:  entry.Category,
				NsfwScore: entry.NsfwScore,
			})
		}
	}

	return matches
}

// HasMatch checks if any pattern matches the text (faster than Search).
func (ac *AhoCorasick) HasMatch(text string) bool {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	normalized, _ := normalizeIndexed(text)
	node := ac.root

	for _, char := range normalized {
		for node != nil && node.children[char] == nil {
			node = node.failLink
		}

		if node == nil {
			node = ac.root
		} else {
			node = node.children[char]
		}

		if len(node.output) > 0 {
			return true
		}
	}

	return false
}

// CensorMatches masks every matched span in text with asterisks and
// returns the rewritten string.
func CensorMatches(text string, matches []Match) string {
	if len(matches) == 0 {
		return text
	}

	runes := []rune(text)
	for _, m := range matches {
		for i := m.Start; i < m.End && i < len(runes); i++ {
			runes[i] = '*'
		}
	}
	return string(runes)
}

// leetMap folds common leetspeak substitutions back to letters.
var leetMap = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'8': 'b',
	'@': 'a',
	'$': 's',
}

// normalizeIndexed normalizes text rune by rune and returns the normalized
// runes plus, for each normalized rune, the rune index in the original
// text it came from. Normalization: unicode decomposition with combining
// marks removed, lowercasing, and leetspeak folding.
func normalizeIndexed(text string) ([]rune, []int) {
	normalized := make([]rune, 0, len(text))
	idx := make([]int, 0, len(text))

	pos := 0
	for _, r := range text {
		for _, d := range norm.NFD.String(string(r)) {
			if unicode.Is(unicode.Mn, d) {
				continue
			}
			d = unicode.ToLower(d)
			if replacement, ok := leetMap[d]; ok {
				d = replacement
			}
			normalized = append(normalized, d)
			idx = append(idx, pos)
		}
		pos++
	}

	return normalized, idx
}

// NormalizeText normalizes text for matching.
// - Converts to lowercase
// - Removes diacritics
// - Normalizes unicode
// - Handles leetspeak
func NormalizeText(text string) string {
	normalized, _ := normalizeIndexed(text)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		b.WriteRune(r)
	}
	return b.String()
}
