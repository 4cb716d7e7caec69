package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mediamod/internal/biz"
	"mediamod/internal/conf"
	"mediamod/internal/pkg/moderator"
	pkgredis "mediamod/internal/pkg/redis"

	"github.com/go-kratos/kratos/v2/log"
)

const defaultResultTTL = 24 * time.Hour

type resultCacheRepo struct {
	data *Data
	ttl  time.Duration
	log  *log.Helper
}

// NewResultCacheRepo creates the Redis-backed moderation result cache.
// Entries expire after the configured TTL so renamed or re-encoded
// uploads do not pin stale verdicts forever.
func NewResultCacheRepo(c *conf.Bootstrap, data *Data, logger log.Logger) biz.ResultCacheRepo {
	ttl := c.Moderation.Cache.TTL.AsDuration()
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	return &resultCacheRepo{
		data: data,
		ttl:  ttl,
		log:  log.NewHelper(logger),
	}
}

func (r *resultCacheRepo) Get(ctx context.Context, contentHash string, level moderator.StrictnessLevel) (*moderator.Result, error) {
	raw, err := r.data.rdb.GetBytes(ctx, cacheKey(contentHash, level))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var result moderator.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("corrupt cache entry for %s: %w", contentHash, err)
	}
	return &result, nil
}

func (r *resultCacheRepo) Put(ctx context.Context, contentHash string, level moderator.StrictnessLevel, result *moderator.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.data.rdb.SetBytes(ctx, cacheKey(contentHash, level), raw, r.ttl)
}

func cacheKey(contentHash string, level moderator.StrictnessLevel) string {
	return fmt.Sprintf("mediamod:result:%s:%s", level, contentHash)
}
