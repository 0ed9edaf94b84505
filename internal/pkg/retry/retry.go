// internal/pkg/retry/retry.go
package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Policy 描述一次有界指数退避重试。
type Policy struct {
	MaxAttempts int           // 最大尝试次数（含第一次）
	BaseDelay   time.Duration // 第一次失败后的等待时间
	MaxDelay    time.Duration // 退避上限
}

// DefaultPolicy 对应 broker 连接/发布的默认策略：10 次、100ms 起步、封顶 30s。
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 10, BaseDelay: 100 * time.Millisecond, MaxDelay: 30 * time.Second}
}

// Do 按策略反复执行 fn，直到成功、尝试耗尽或上下文取消。
// 返回的错误携带最后一次失败的原因。
func Do(ctx context.Context, p Policy, fn func() error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	delay := p.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return errors.Wrapf(lastErr, "retry: giving up after %d attempts", p.MaxAttempts)
}
