package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/causalmap-backend/internal/platform/envutil"
	"github.com/yungbote/causalmap-backend/internal/platform/logger"
)

// VersionCache remembers the last audited graph fingerprint per
// (user, pillar). A hit lets audit runs skip recomputation for unchanged
// graphs. Strictly best effort: any cache failure reads as a miss.
type VersionCache interface {
	Get(ctx context.Context, userID uuid.UUID, pillarKey string) (string, bool)
	Put(ctx context.Context, userID uuid.UUID, pillarKey, graphVersion string) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
	Close() error
}

type versionCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewVersionCache(log *logger.Logger) (VersionCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := envutil.String("REDIS_VERSION_CACHE_PREFIX", "graphver")
	ttl := envutil.Duration("REDIS_VERSION_CACHE_TTL", 24*time.Hour)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &versionCache{
		log:    log.With("service", "RedisVersionCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (c *versionCache) key(userID uuid.UUID, pillarKey string) string {
	pillarKey = strings.TrimSpace(pillarKey)
	if pillarKey == "" {
		pillarKey = "_full"
	}
	return c.prefix + ":" + userID.String() + ":" + pillarKey
}

func (c *versionCache) Get(ctx context.Context, userID uuid.UUID, pillarKey string) (string, bool) {
	if c == nil || c.rdb == nil || userID == uuid.Nil {
		return "", false
	}
	val, err := c.rdb.Get(ctx, c.key(userID, pillarKey)).Result()
	if err != nil {
		if err != goredis.Nil && c.log != nil {
			c.log.Warn("version cache get failed", "error", err)
		}
		return "", false
	}
	val = strings.TrimSpace(val)
	return val, val != ""
}

func (c *versionCache) Put(ctx context.Context, userID uuid.UUID, pillarKey, graphVersion string) error {
	if c == nil || c.rdb == nil || userID == uuid.Nil {
		return nil
	}
	graphVersion = strings.TrimSpace(graphVersion)
	if graphVersion == "" {
		return nil
	}
	if err := c.rdb.Set(ctx, c.key(userID, pillarKey), graphVersion, c.ttl).Err(); err != nil {
		if c.log != nil {
			c.log.Warn("version cache put failed", "error", err)
		}
		return err
	}
	return nil
}

// Invalidate drops all cached fingerprints for a user, the full-graph
// entry included.
func (c *versionCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if c == nil || c.rdb == nil || userID == uuid.Nil {
		return nil
	}
	pattern := c.prefix + ":" + userID.String() + ":*"
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		if c.log != nil {
			c.log.Warn("version cache scan failed", "error", err)
		}
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *versionCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
