package data

import (
	"context"

	"mediamod/internal/conf"
	pkgredis "mediamod/internal/pkg/redis"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewPgxPool,
	NewRedisCache,
	NewBadWordRepo,
	NewResultCacheRepo,
	NewMediaEngine,
	NewImageClassifier,
	NewTranscriber,
	NewTextModerator,
	NewTextStage,
	NewVisualStage,
	NewTranscriptionStage,
	NewFuser,
)

// Data holds the shared storage clients.
type Data struct {
	pg  *pgxpool.Pool
	rdb pkgredis.Cache
	log *log.Helper
}

// NewData creates the shared storage clients and runs migrations. The
// returned cleanup closes them.
func NewData(c *conf.Bootstrap, pg *pgxpool.Pool, rdb pkgredis.Cache, logger log.Logger) (*Data, func(), error) {
	d := &Data{
		pg:  pg,
		rdb: rdb,
		log: log.NewHelper(logger),
	}

	if err := Migrate(c.Data.Database.Source); err != nil {
		pg.Close()
		return nil, nil, err
	}

	cleanup := func() {
		d.log.Info("closing the data resources")
		pg.Close()
	}
	return d, cleanup, nil
}

// NewPgxPool creates the Postgres connection pool.
func NewPgxPool(c *conf.Bootstrap) (*pgxpool.Pool, error) {
	return pgxpool.New(context.Background(), c.Data.Database.Source)
}

// NewRedisCache creates the Redis client wrapper.
func NewRedisCache(c *conf.Bootstrap) pkgredis.Cache {
	return pkgredis.NewFromClient(redis.NewClient(&redis.Options{
		Addr:         c.Data.Redis.Addr,
		Password:     c.Data.Redis.Password,
		DB:           c.Data.Redis.DB,
		DialTimeout:  c.Data.Redis.DialTimeout.AsDuration(),
		ReadTimeout:  c.Data.Redis.ReadTimeout.AsDuration(),
		WriteTimeout: c.Data.Redis.WriteTimeout.AsDuration(),
	}))
}
