package moderator

import (
	"math"
	"math/rand"
	"time"
)

const (
	minSampleFrames = 8
	maxSampleFrames = 20
	secondsPerFrame = 10.0
)

// FrameSampler chooses a stratified-random set of timestamps across a
// media duration. The duration is split into equal-width segments with one
// uniform draw per segment, so coverage is even but sample points are not
// predictable across calls. Fixed offsets would let uploaders hide content
// between known sample points.
type FrameSampler struct {
	seed func() int64
}

// NewFrameSampler creates a sampler seeded from the clock on every call.
func NewFrameSampler() *FrameSampler {
	return &FrameSampler{seed: func() int64 { return time.Now().UnixNano() }}
}

// NewSeededFrameSampler creates a sampler with a fixed seed for tests.
func NewSeededFrameSampler(seed int64) *FrameSampler {
	return &FrameSampler{seed: func() int64 { return seed }}
}

// Sample returns sorted sample timestamps for a media duration. The target
// count is ceil(duration/10) clamped to [8, 20]. Non-positive durations
// yield an empty sample set.
func (s *FrameSampler) Sample(durationSeconds float64) []float64 {
	if durationSeconds <= 0 {
		return nil
	}

	count := int(math.Ceil(durationSeconds / secondsPerFrame))
	if count < minSampleFrames {
		count = minSampleFrames
	}
	if count > maxSampleFrames {
		count = maxSampleFrames
	}

	rng := rand.New(rand.NewSource(s.seed()))
	segmentWidth := durationSeconds / float64(count)

	timestamps := make([]float64, count)
	for i := 0; i < count; i++ {
		timestamps[i] = (float64(i) + rng.Float64()) * segmentWidth
	}
	return timestamps
}
