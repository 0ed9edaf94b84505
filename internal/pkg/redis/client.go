// internal/pkg/redis/client.go
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client 封装 go-redis，只暴露平台需要的 KV 语义。
type Client struct {
	rdb *goredis.Client
}

func NewClient(addr, password string, db int) *Client {
	return &Client{
		rdb: goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// NewClientFromRedis 用一个已构造的 go-redis 客户端包装，测试用得上。
func NewClientFromRedis(rdb *goredis.Client) *Client {
	return &Client{rdb: rdb}
}

// Get 读取 key，不存在时返回 (nil, nil)。
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set 写入 key，ttl <= 0 表示不过期。
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetClient 暴露底层客户端，个别调用方需要 pipeline 等高级能力。
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}
