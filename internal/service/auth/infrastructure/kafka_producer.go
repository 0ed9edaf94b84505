// internal/service/auth/infrastructure/kafka_producer.go
package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"promohub/internal/pkg/logger"
	"promohub/internal/pkg/mq"
	"promohub/internal/pkg/retry"
	"promohub/internal/service/auth/domain"
)

var publishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "auth_event_publish_failures_total",
	Help: "Lifecycle event publishes that exhausted all retries, by event kind.",
}, []string{"kind"})

// LifecycleProducer 把用户生命周期事件写进 Kafka，每种事件一个 topic。
// 传输层失败按有界指数退避重试；重试耗尽返回错误并打点，绝不无声丢弃。
type LifecycleProducer struct {
	writers map[domain.EventKind]*kafka.Writer
	policy  retry.Policy
}

// NewLifecycleProducer 为每种事件各建一个 writer。
func NewLifecycleProducer(brokers []string, maxRetries int) *LifecycleProducer {
	policy := retry.DefaultPolicy()
	if maxRetries > 0 {
		policy.MaxAttempts = maxRetries
	}
	return &LifecycleProducer{
		writers: map[domain.EventKind]*kafka.Writer{
			domain.EventRegistration: mq.NewKafkaWriter(brokers, domain.EventRegistration.Topic()),
			domain.EventDelete:       mq.NewKafkaWriter(brokers, domain.EventDelete.Topic()),
		},
		policy: policy,
	}
}

func (p *LifecycleProducer) Publish(ctx context.Context, kind domain.EventKind, snapshot domain.UserSnapshot) error {
	writer, ok := p.writers[kind]
	if !ok {
		return errors.Wrapf(domain.ErrUnknownEventKind, "kind %q", kind)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "marshal user snapshot")
	}

	err = retry.Do(ctx, p.policy, func() error {
		return mq.ProduceMessage(ctx, writer, []byte(snapshot.UUID), payload)
	})
	if err != nil {
		publishFailuresTotal.WithLabelValues(string(kind)).Inc()
		return errors.Wrapf(err, "publish %s event for user %s", kind, snapshot.UUID)
	}

	logger.Ctx(ctx).Info().
		Str("kind", string(kind)).
		Str("user_uuid", snapshot.UUID).
		Msg("lifecycle event published")
	return nil
}

// Close 关闭全部 writer，进程退出前调用。
func (p *LifecycleProducer) Close() error {
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
