package biz

import (
	"context"

	"mediamod/internal/pkg/moderator"
)

// ResultCacheRepo stores fused moderation results keyed by content hash
// and strictness level. Identical bytes judged under the same level
// always resolve to the same entry, so repeat uploads skip extraction,
// transcription, and inference entirely.
type ResultCacheRepo interface {
	// Get returns the cached result, or (nil, nil) on a miss.
	Get(ctx context.Context, contentHash string, level moderator.StrictnessLevel) (*moderator.Result, error)
	Put(ctx context.Context, contentHash string, level moderator.StrictnessLevel, result *moderator.Result) error
}
