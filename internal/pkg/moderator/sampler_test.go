package moderator

import (
	"math"
	"testing"
)

func TestSampleCount(t *testing.T) {
	tests := []struct {
		duration float64
		want     int
	}{
		{5, 8},    // short clips still get the floor
		{79, 8},   // ceil(79/10) = 8
		{100, 10}, // one frame per ten seconds
		{155, 16},
		{200, 20},
		{3600, 20}, // long videos are capped
	}

	s := NewSeededFrameSampler(1)
	for _, tt := range tests {
		got := s.Sample(tt.duration)
		if len(got) != tt.want {
			t.Errorf("Sample(%v) returned %d timestamps, want %d", tt.duration, len(got), tt.want)
		}
	}
}

func TestSampleNonPositiveDuration(t *testing.T) {
	s := NewSeededFrameSampler(1)
	if got := s.Sample(0); len(got) != 0 {
		t.Errorf("Sample(0) = %v, want empty", got)
	}
	if got := s.Sample(-3); len(got) != 0 {
		t.Errorf("Sample(-3) = %v, want empty", got)
	}
}

func TestSampleStratified(t *testing.T) {
	const duration = 100.0
	s := NewSeededFrameSampler(42)

	timestamps := s.Sample(duration)
	if len(timestamps) == 0 {
		t.Fatal("expected timestamps")
	}

	width := duration / float64(len(timestamps))
	for i, ts := range timestamps {
		lo := float64(i) * width
		hi := float64(i+1) * width
		if ts < lo || ts >= hi {
			t.Errorf("timestamp %d = %v outside its segment [%v, %v)", i, ts, lo, hi)
		}
		if ts < 0 || ts > duration {
			t.Errorf("timestamp %d = %v outside media duration", i, ts)
		}
	}
}

func TestSampleVariesAcrossSeeds(t *testing.T) {
	a := NewSeededFrameSampler(1).Sample(100)
	b := NewSeededFrameSampler(2).Sample(100)

	same := true
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical sample points")
	}
}
