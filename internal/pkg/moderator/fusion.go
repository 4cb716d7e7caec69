package moderator

import (
	"fmt"
	"math"
)

// LiteralTextResult is the outcome of moderating the bare literal text of
// a request, with no timing information.
type LiteralTextResult struct {
	Flagged   bool           `json:"flagged"`
	Violation *TextViolation `json:"violation,omitempty"`
}

// Result is the fused verdict over all modalities. It is the unit stored
// in and returned from the result cache. Signals that were not checked
// for a request are nil.
type Result struct {
	Flagged     bool               `json:"flagged"`
	Confidence  float64            `json:"confidence"`
	Visual      *VisualResult      `json:"visual,omitempty"`
	AudioText   *TextResult        `json:"audioText,omitempty"`
	LiteralText *LiteralTextResult `json:"literalText,omitempty"`
}

// FusionConfig holds the fusion policy constants. The weights are
// empirical tuning knobs, not learned values.
type FusionConfig struct {
	// VisualWeight and TextWeight blend the per-modality confidences.
	// Visual evidence is treated as the primary signal.
	VisualWeight float64
	TextWeight   float64

	// FlaggedTextConfidence is the confidence assigned to the text signal
	// when any text modality flags; BaselineConfidence is assigned to an
	// unflagged signal.
	FlaggedTextConfidence float64
	BaselineConfidence    float64

	// VisualViolationSeconds and AudioViolationSeconds estimate the
	// attributable duration of a single violation of each kind.
	VisualViolationSeconds float64
	AudioViolationSeconds  float64
}

// DefaultFusionConfig returns default configuration.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		VisualWeight:           0.7,
		TextWeight:             0.3,
		FlaggedTextConfidence:  0.9,
		BaselineConfidence:     0.1,
		VisualViolationSeconds: 1.5,
		AudioViolationSeconds:  2.0,
	}
}

// Fuser combines the independent modality results into one verdict and
// builds the user-facing report.
type Fuser struct {
	config FusionConfig
}

// NewFuser creates a new Fuser.
func NewFuser(config FusionConfig) *Fuser {
	return &Fuser{config: config}
}

// Fuse joins the three modality results. Any of them may be nil when the
// request did not carry that modality; a nil signal counts as unflagged.
func (f *Fuser) Fuse(visual *VisualResult, audioText *TextResult, literal *LiteralTextResult) *Result {
	visualFlagged := visual != nil && visual.Flagged
	audioFlagged := audioText != nil && audioText.Flagged
	literalFlagged := literal != nil && literal.Flagged

	visualConf := f.config.BaselineConfidence
	if visualFlagged {
		visualConf = visual.Confidence
	}
	textConf := f.config.BaselineConfidence
	if audioFlagged || literalFlagged {
		textConf = f.config.FlaggedTextConfidence
	}

	confidence := f.config.VisualWeight*visualConf + f.config.TextWeight*textConf

	return &Result{
		Flagged:     visualFlagged || audioFlagged || literalFlagged,
		Confidence:  round2(confidence),
		Visual:      visual,
		AudioText:   audioText,
		LiteralText: literal,
	}
}

// ViolationSummary aggregates per-signal violation counts and the time
// statistics of the unsafe report.
type ViolationSummary struct {
	VisualViolations    int    `json:"visualViolations"`
	AudioViolations     int    `json:"audioViolations"`
	TextViolations      int    `json:"textViolations"`
	TotalViolations     int    `json:"totalViolations"`
	TotalViolationTime  string `json:"totalViolationTime,omitempty"`
	ViolationPercentage int    `json:"violationPercentage,omitempty"`
}

// VisualIssue pairs one flagged frame with human-readable issue labels.
type VisualIssue struct {
	FrameIndex         int            `json:"frameIndex"`
	FormattedTimestamp string         `json:"formattedTimestamp"`
	EstimatedDuration  string         `json:"estimatedDuration"`
	Issues             []string       `json:"issues"`
	Scores             CategoryScores `json:"scores"`
}

// VisualReport is the visual detail block of the unsafe report.
type VisualReport struct {
	Violations         []VisualIssue `json:"violations"`
	TotalFramesChecked int           `json:"totalFramesChecked"`
}

// AudioReport is the audio-transcript detail block of the unsafe report.
type AudioReport struct {
	Violations           []TextViolation `json:"violations"`
	TotalSegmentsChecked int             `json:"totalSegmentsChecked"`
}

// UnsafeReport shows only the signals that actually flagged. Blocks for
// unchecked or clean signals are omitted.
type UnsafeReport struct {
	Flagged    bool             `json:"flagged"`
	Confidence float64          `json:"confidence"`
	Visual     *VisualReport    `json:"visual,omitempty"`
	Audio      *AudioReport     `json:"audio,omitempty"`
	Text       *TextViolation   `json:"text,omitempty"`
	Summary    ViolationSummary `json:"violationSummary"`
}

// SafeReport summarizes what was checked without violation detail. A
// stage that soft-failed is marked check_failed so a clean verdict is
// distinguishable from a check that never ran.
type SafeReport struct {
	Flagged         bool              `json:"flagged"`
	Confidence      float64           `json:"confidence"`
	ContentTypes    map[string]string `json:"contentTypes"`
	FramesChecked   int               `json:"framesChecked"`
	SegmentsChecked int               `json:"segmentsChecked"`
	VisualError     string            `json:"visualError,omitempty"`
}

const (
	contentChecked     = "checked"
	contentNotProvided = "not_provided"
	contentCheckFailed = "check_failed"
)

// BuildUnsafeReport renders the violation detail for a flagged result.
// level is the strictness the request was judged under; the thresholds
// are re-checked per category to label which kind of content tripped.
func (f *Fuser) BuildUnsafeReport(result *Result, level StrictnessLevel) *UnsafeReport {
	report := &UnsafeReport{
		Flagged:    result.Flagged,
		Confidence: result.Confidence,
	}
	thresholds := ThresholdsFor(level)

	visualCount := 0
	audioCount := 0
	var duration float64

	if v := result.Visual; v != nil {
		duration = v.VideoDuration
		if v.Flagged {
			visualCount = len(v.Violations)
			block := &VisualReport{
				Violations:         make([]VisualIssue, 0, len(v.Violations)),
				TotalFramesChecked: v.TotalFramesChecked,
			}
			for _, violation := range v.Violations {
				block.Violations = append(block.Violations, VisualIssue{
					FrameIndex:         violation.FrameIndex,
					FormattedTimestamp: violation.FormattedTimestamp,
					EstimatedDuration:  violation.EstimatedDuration,
					Issues:             issueLabels(violation.Scores, thresholds),
					Scores:             violation.Scores,
				})
			}
			report.Visual = block
		}
	}

	if a := result.AudioText; a != nil && a.Flagged {
		audioCount = len(a.Violations)
		report.Audio = &AudioReport{
			Violations:           a.Violations,
			TotalSegmentsChecked: a.TotalSegmentsChecked,
		}
	}

	textCount := 0
	if l := result.LiteralText; l != nil && l.Flagged {
		textCount = 1
		report.Text = l.Violation
	}

	report.Summary = ViolationSummary{
		VisualViolations: visualCount,
		AudioViolations:  audioCount,
		TextViolations:   textCount,
		TotalViolations:  visualCount + audioCount + textCount,
	}
	if duration > 0 && visualCount+audioCount > 0 {
		violationTime := float64(visualCount)*f.config.VisualViolationSeconds +
			float64(audioCount)*f.config.AudioViolationSeconds
		report.Summary.TotalViolationTime = formatSeconds(violationTime)
		report.Summary.ViolationPercentage = int(math.Round(violationTime / duration * 100))
	}
	return report
}

// BuildSafeReport summarizes which content types were checked for a clean
// result.
func (f *Fuser) BuildSafeReport(result *Result) *SafeReport {
	report := &SafeReport{
		Flagged:    result.Flagged,
		Confidence: result.Confidence,
		ContentTypes: map[string]string{
			"video": contentNotProvided,
			"audio": contentNotProvided,
			"text":  contentNotProvided,
		},
	}
	if v := result.Visual; v != nil {
		if v.Err != "" {
			report.ContentTypes["video"] = contentCheckFailed
			report.VisualError = v.Err
		} else {
			report.ContentTypes["video"] = contentChecked
			report.FramesChecked = v.TotalFramesChecked
		}
	}
	if a := result.AudioText; a != nil {
		report.ContentTypes["audio"] = contentChecked
		report.SegmentsChecked = a.TotalSegmentsChecked
	}
	if result.LiteralText != nil {
		report.ContentTypes["text"] = contentChecked
	}
	return report
}

// issueLabels names each category whose score exceeded its cutoff.
func issueLabels(scores, thresholds CategoryScores) []string {
	labels := make([]string, 0, 3)
	if scores.Porn > thresholds.Porn {
		labels = append(labels, fmt.Sprintf("explicit content (%d%% confidence)", percent(scores.Porn)))
	}
	if scores.Sexy > thresholds.Sexy {
		labels = append(labels, fmt.Sprintf("suggestive content (%d%% confidence)", percent(scores.Sexy)))
	}
	if scores.Hentai > thresholds.Hentai {
		labels = append(labels, fmt.Sprintf("animated explicit content (%d%% confidence)", percent(scores.Hentai)))
	}
	return labels
}

func percent(score float64) int {
	return int(math.Round(score * 100))
}

// formatSeconds renders a duration for display, dropping a trailing ".0".
func formatSeconds(seconds float64) string {
	if seconds == math.Trunc(seconds) {
		return fmt.Sprintf("%ds", int(seconds))
	}
	return fmt.Sprintf("%.1fs", seconds)
}
