// internal/service/loyalty/infrastructure/cache_adapter.go
package infrastructure

import (
	"context"
	"time"

	"promohub/internal/pkg/redis"
)

// PromoCacheAdapter 用共享 Redis 客户端实现验证缓存端口。
type PromoCacheAdapter struct {
	client *redis.Client
}

func NewPromoCacheAdapter(client *redis.Client) *PromoCacheAdapter {
	return &PromoCacheAdapter{client: client}
}

func (a *PromoCacheAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	return a.client.Get(ctx, key)
}

func (a *PromoCacheAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return a.client.Set(ctx, key, value, ttl)
}
