package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeromicro/go-zero/core/jsonx"

	"obsidian-debug/internal/logic/diagnose"
)

const defaultReportTTL = 24 * time.Hour

// RedisReportCache 按交易签名缓存诊断报告。
// 已确认交易的结果不会再变，TTL 只用于控制内存占用。
type RedisReportCache struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisReportCache(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisReportCache {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &RedisReportCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisReportCache) key(signature string) string {
	return fmt.Sprintf("%s:%s", c.prefix, signature)
}

// Get 未命中返回 nil, nil
func (c *RedisReportCache) Get(ctx context.Context, signature string) (*diagnose.Report, error) {
	val, err := c.rdb.Get(ctx, c.key(signature)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var r diagnose.Report
	if err := jsonx.Unmarshal(val, &r); err != nil {
		// 结构升级后旧数据无法解析，当作未命中
		_ = c.rdb.Del(ctx, c.key(signature)).Err()
		return nil, nil
	}
	return &r, nil
}

func (c *RedisReportCache) Set(ctx context.Context, r *diagnose.Report) error {
	if r == nil || r.Signature == "" {
		return nil
	}
	data, err := jsonx.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return c.rdb.Set(ctx, c.key(r.Signature), data, c.ttl).Err()
}
