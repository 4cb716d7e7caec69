package moderator

import (
	"math"
	"testing"
)

func TestFuseTruthTable(t *testing.T) {
	f := NewFuser(DefaultFusionConfig())

	for _, visualFlagged := range []bool{false, true} {
		for _, audioFlagged := range []bool{false, true} {
			for _, literalFlagged := range []bool{false, true} {
				visual := &VisualResult{Flagged: visualFlagged, Confidence: 0.5}
				audio := &TextResult{Flagged: audioFlagged}
				literal := &LiteralTextResult{Flagged: literalFlagged}

				result := f.Fuse(visual, audio, literal)
				want := visualFlagged || audioFlagged || literalFlagged
				if result.Flagged != want {
					t.Errorf("Fuse(v=%v a=%v l=%v).Flagged = %v, want %v",
						visualFlagged, audioFlagged, literalFlagged, result.Flagged, want)
				}
			}
		}
	}
}

func TestFuseConfidence(t *testing.T) {
	f := NewFuser(DefaultFusionConfig())

	tests := []struct {
		name    string
		visual  *VisualResult
		audio   *TextResult
		literal *LiteralTextResult
		want    float64
	}{
		{
			name:   "all unflagged hits the baseline",
			visual: &VisualResult{},
			audio:  &TextResult{},
			want:   0.1, // 0.7*0.1 + 0.3*0.1
		},
		{
			name:   "visual only",
			visual: &VisualResult{Flagged: true, Confidence: 0.5},
			audio:  &TextResult{},
			want:   0.38, // 0.7*0.5 + 0.3*0.1
		},
		{
			name:   "text only",
			visual: &VisualResult{},
			audio:  &TextResult{Flagged: true},
			want:   0.34, // 0.7*0.1 + 0.3*0.9
		},
		{
			name:    "literal text counts as the text signal",
			visual:  &VisualResult{},
			literal: &LiteralTextResult{Flagged: true},
			want:    0.34,
		},
		{
			name:   "both at full visual confidence",
			visual: &VisualResult{Flagged: true, Confidence: 1.0},
			audio:  &TextResult{Flagged: true},
			want:   0.97, // 0.7*1.0 + 0.3*0.9
		},
		{
			name: "nil signals count as unflagged",
			want: 0.1,
		},
	}

	for _, tt := range tests {
		result := f.Fuse(tt.visual, tt.audio, tt.literal)
		if math.Abs(result.Confidence-tt.want) > 1e-9 {
			t.Errorf("%s: Confidence = %v, want %v", tt.name, result.Confidence, tt.want)
		}
		if result.Confidence < 0.1 || result.Confidence > 1.0 {
			t.Errorf("%s: Confidence %v outside [0.1, 1.0]", tt.name, result.Confidence)
		}
	}
}

func TestBuildUnsafeReportViolationSummary(t *testing.T) {
	f := NewFuser(DefaultFusionConfig())

	visual := &VisualResult{
		Flagged: true,
		Violations: []VisualViolation{
			{FrameIndex: 1, FormattedTimestamp: "12.50s", EstimatedDuration: "~1-2 seconds", Scores: CategoryScores{Porn: 0.9}},
			{FrameIndex: 5, FormattedTimestamp: "55.00s", EstimatedDuration: "~1-2 seconds", Scores: CategoryScores{Sexy: 0.85, Hentai: 0.75}},
		},
		TotalFramesChecked: 10,
		VideoDuration:      100,
		Confidence:         0.2,
	}
	audio := &TextResult{
		Flagged: true,
		Violations: []TextViolation{
			{Start: 3, End: 5, OriginalText: "well damn", CleanedText: "well ****", DetectedWords: []string{"damn"}, FlagReason: FlagReasonProfanity},
		},
		TotalSegmentsChecked: 4,
	}

	result := f.Fuse(visual, audio, nil)
	report := f.BuildUnsafeReport(result, StrictnessModerate)

	if report.Summary.VisualViolations != 2 || report.Summary.AudioViolations != 1 {
		t.Errorf("counts = %d visual / %d audio, want 2 / 1",
			report.Summary.VisualViolations, report.Summary.AudioViolations)
	}
	if report.Summary.TotalViolations != 3 {
		t.Errorf("TotalViolations = %d, want 3", report.Summary.TotalViolations)
	}
	// 2 * 1.5s + 1 * 2s = 5s over a 100s video.
	if report.Summary.TotalViolationTime != "5s" {
		t.Errorf("TotalViolationTime = %q, want \"5s\"", report.Summary.TotalViolationTime)
	}
	if report.Summary.ViolationPercentage != 5 {
		t.Errorf("ViolationPercentage = %d, want 5", report.Summary.ViolationPercentage)
	}
	if report.Text != nil {
		t.Error("literal text block present though not checked")
	}

	if len(report.Visual.Violations) != 2 {
		t.Fatalf("visual block has %d violations, want 2", len(report.Visual.Violations))
	}
	first := report.Visual.Violations[0]
	if len(first.Issues) != 1 || first.Issues[0] != "explicit content (90% confidence)" {
		t.Errorf("first frame issues = %v", first.Issues)
	}
	second := report.Visual.Violations[1]
	if len(second.Issues) != 2 {
		t.Errorf("second frame issues = %v, want suggestive and animated labels", second.Issues)
	}
}

func TestBuildUnsafeReportOmitsCleanSignals(t *testing.T) {
	f := NewFuser(DefaultFusionConfig())

	literal := &LiteralTextResult{
		Flagged:   true,
		Violation: &TextViolation{OriginalText: "damn", CleanedText: "****", DetectedWords: []string{"damn"}, FlagReason: FlagReasonProfanity},
	}
	result := f.Fuse(&VisualResult{TotalFramesChecked: 8, VideoDuration: 30}, nil, literal)
	report := f.BuildUnsafeReport(result, StrictnessModerate)

	if report.Visual != nil {
		t.Error("unflagged visual signal should be omitted from the report")
	}
	if report.Audio != nil {
		t.Error("unchecked audio signal should be omitted from the report")
	}
	if report.Text == nil {
		t.Fatal("flagged literal text missing from the report")
	}
	if report.Summary.TotalViolations != 1 {
		t.Errorf("TotalViolations = %d, want 1", report.Summary.TotalViolations)
	}
	if report.Summary.TotalViolationTime != "" {
		t.Errorf("literal-only violations carry no time estimate, got %q", report.Summary.TotalViolationTime)
	}
}

func TestBuildSafeReport(t *testing.T) {
	f := NewFuser(DefaultFusionConfig())

	// Text-only request: no file was provided.
	literal := &LiteralTextResult{}
	result := f.Fuse(nil, nil, literal)
	report := f.BuildSafeReport(result)

	if report.Flagged {
		t.Error("safe report marked flagged")
	}
	if report.ContentTypes["video"] != "not_provided" {
		t.Errorf("contentTypes.video = %q, want not_provided", report.ContentTypes["video"])
	}
	if report.ContentTypes["text"] != "checked" {
		t.Errorf("contentTypes.text = %q, want checked", report.ContentTypes["text"])
	}

	// Full media request.
	result = f.Fuse(&VisualResult{TotalFramesChecked: 12}, &TextResult{TotalSegmentsChecked: 6}, nil)
	report = f.BuildSafeReport(result)
	if report.ContentTypes["video"] != "checked" || report.ContentTypes["audio"] != "checked" {
		t.Errorf("contentTypes = %v, want video and audio checked", report.ContentTypes)
	}
	if report.FramesChecked != 12 || report.SegmentsChecked != 6 {
		t.Errorf("counts = %d frames / %d segments, want 12 / 6", report.FramesChecked, report.SegmentsChecked)
	}
}

func TestBuildSafeReportVisualCheckFailed(t *testing.T) {
	f := NewFuser(DefaultFusionConfig())

	// A soft-failed visual stage is unflagged but did not actually run.
	visual := &VisualResult{Violations: []VisualViolation{}, Err: "ffprobe failed"}
	report := f.BuildSafeReport(f.Fuse(visual, nil, &LiteralTextResult{}))

	if report.Flagged {
		t.Error("soft-failed visual stage must not flag")
	}
	if report.ContentTypes["video"] != "check_failed" {
		t.Errorf("contentTypes.video = %q, want check_failed", report.ContentTypes["video"])
	}
	if report.VisualError == "" {
		t.Error("expected the stage error to surface in the report")
	}
	if report.FramesChecked != 0 {
		t.Errorf("FramesChecked = %d, want 0", report.FramesChecked)
	}
}
