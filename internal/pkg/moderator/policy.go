package moderator

import "strings"

// StrictnessLevel selects how sensitive the visual thresholds are.
type StrictnessLevel string

const (
	StrictnessStrict   StrictnessLevel = "strict"
	StrictnessModerate StrictnessLevel = "moderate"
	StrictnessLenient  StrictnessLevel = "lenient"
)

// ParseStrictness maps a level token to a StrictnessLevel. Matching is
// case-insensitive; unknown or empty tokens fall back to moderate.
func ParseStrictness(s string) StrictnessLevel {
	switch StrictnessLevel(strings.ToLower(strings.TrimSpace(s))) {
	case StrictnessStrict:
		return StrictnessStrict
	case StrictnessLenient:
		return StrictnessLenient
	default:
		return StrictnessModerate
	}
}

// strictnessThresholds holds the per-level category cutoffs. Stricter
// levels use lower cutoffs, so strict < moderate < lenient per category.
var strictnessThresholds = map[StrictnessLevel]CategoryScores{
	StrictnessStrict:   {Porn: 0.4, Sexy: 0.6, Hentai: 0.5},
	StrictnessModerate: {Porn: 0.6, Sexy: 0.8, Hentai: 0.7},
	StrictnessLenient:  {Porn: 0.8, Sexy: 0.9, Hentai: 0.85},
}

// ThresholdsFor returns the per-category cutoffs for a strictness level.
// Unknown levels fall back to moderate.
func ThresholdsFor(level StrictnessLevel) CategoryScores {
	if t, ok := strictnessThresholds[level]; ok {
		return t
	}
	return strictnessThresholds[StrictnessModerate]
}
