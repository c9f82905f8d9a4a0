package videos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"quotereel/internal/pkg/logger"
)

const (
	cacheKeyPrefix = "quotereel:artifact:"
	cacheTTL       = 24 * time.Hour
)

// Cache is the artifact cache consulted for persist-mode requests:
// a Redis lookaside in front of the durable Postgres store. Any backend
// failure degrades to a forced miss — the cache never fails a job.
type Cache struct {
	store *Store
	rdb   *redis.Client
	log   *logger.Logger
}

func NewCache(store *Store, rdb *redis.Client, log *logger.Logger) *Cache {
	return &Cache{store: store, rdb: rdb, log: log.WithComponent("artifact-cache")}
}

// Lookup returns the artifact for a hash, or nil on miss. Store errors
// are logged and reported as misses.
func (c *Cache) Lookup(ctx context.Context, hash string) *Artifact {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, cacheKeyPrefix+hash).Bytes()
		if err == nil {
			var a Artifact
			if err := json.Unmarshal(raw, &a); err == nil {
				return &a
			}
			// Poisoned entry; drop it and fall through to Postgres.
			_ = c.rdb.Del(ctx, cacheKeyPrefix+hash).Err()
		} else if err != redis.Nil {
			c.log.Warn("redis lookup failed, falling back to store",
				"hash", hash, "error", err.Error())
		}
	}

	a, err := c.store.Get(ctx, hash)
	if err != nil {
		c.log.Warn("artifact store lookup failed, treating as miss",
			"hash", hash, "error", err.Error())
		return nil
	}
	if a == nil {
		return nil
	}

	c.fillRedis(ctx, a)
	return a
}

// Record persists the artifact and warms the lookaside. The Postgres
// write failing is a MetadataPersistFailure: logged, never surfaced.
func (c *Cache) Record(ctx context.Context, a *Artifact) {
	if err := c.store.Record(ctx, a); err != nil {
		c.log.Error("artifact metadata persist failed",
			"hash", a.Hash, "error", err.Error())
		return
	}
	c.fillRedis(ctx, a)
}

func (c *Cache) fillRedis(ctx context.Context, a *Artifact) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+a.Hash, raw, cacheTTL).Err(); err != nil {
		c.log.Warn("redis cache fill failed", "hash", a.Hash, "error", err.Error())
	}
}
