package cache

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/collection"

	"obsidian-debug/internal/logic/diagnose"
)

const defaultMemoryLimit = 10000

// MemoryReportCache 进程内 LRU，未配置 Redis 时使用
type MemoryReportCache struct {
	cache *collection.Cache
}

func NewMemoryReportCache(ttl time.Duration, limit int) (*MemoryReportCache, error) {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	if limit <= 0 {
		limit = defaultMemoryLimit
	}
	c, err := collection.NewCache(ttl, collection.WithLimit(limit), collection.WithName("report"))
	if err != nil {
		return nil, err
	}
	return &MemoryReportCache{cache: c}, nil
}

func (c *MemoryReportCache) Get(_ context.Context, signature string) (*diagnose.Report, error) {
	v, ok := c.cache.Get(signature)
	if !ok {
		return nil, nil
	}
	r, _ := v.(*diagnose.Report)
	return r, nil
}

func (c *MemoryReportCache) Set(_ context.Context, r *diagnose.Report) error {
	if r == nil || r.Signature == "" {
		return nil
	}
	c.cache.Set(r.Signature, r)
	return nil
}
