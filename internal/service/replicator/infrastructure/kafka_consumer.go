// internal/service/replicator/infrastructure/kafka_consumer.go
package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"promohub/internal/pkg/errsink"
	"promohub/internal/pkg/logger"
	"promohub/internal/pkg/mq"
	"promohub/internal/pkg/retry"
	"promohub/internal/service/replicator/application"
	"promohub/internal/service/replicator/domain"
)

var (
	eventsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replicator_events_applied_total",
		Help: "Lifecycle events applied to the local read model, by topic.",
	}, []string{"topic"})
	malformedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "replicator_malformed_messages_total",
		Help: "Messages dropped by the poison-message policy.",
	})
	reconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replicator_reconnects_total",
		Help: "Consumer reconnects after a transport failure, by topic.",
	}, []string{"topic"})
)

// 消费状态机：DISCONNECTED → CONNECTING → CONSUMING，
// 传输故障回到 DISCONNECTED 并退避重连。
type consumerState int

const (
	stateDisconnected consumerState = iota
	stateConnecting
	stateConsuming
)

// ConsumerAdapter 是驱动适配器：每个生命周期队列一条长驻消费循环，
// 拉到消息交给应用服务，本地写提交之后才提交 offset。
type ConsumerAdapter struct {
	brokers []string
	groupID string
	service *application.ReplicatorService
	sink    errsink.Sink
	policy  retry.Policy
}

func NewConsumerAdapter(brokers []string, groupID string, service *application.ReplicatorService, sink errsink.Sink, maxRetries int) *ConsumerAdapter {
	policy := retry.DefaultPolicy()
	if maxRetries > 0 {
		policy.MaxAttempts = maxRetries
	}
	return &ConsumerAdapter{
		brokers: brokers,
		groupID: groupID,
		service: service,
		sink:    sink,
		policy:  policy,
	}
}

// Run 监听两条队列直到上下文取消。任何一条循环出错整个 Run 返回，
// 交给进程层决定重启。
func (a *ConsumerAdapter) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range []string{domain.TopicRegistration, domain.TopicDelete} {
		topic := topic
		g.Go(func() error { return a.consumeLoop(gctx, topic) })
	}
	return g.Wait()
}

// consumeLoop 驱动单个 topic 的状态机。
// 初次建连失败且退避耗尽时返回错误——进程不允许以半初始化状态运行。
func (a *ConsumerAdapter) consumeLoop(ctx context.Context, topic string) error {
	state := stateDisconnected
	var reader *kafka.Reader
	firstConnect := true

	for {
		if err := ctx.Err(); err != nil {
			if reader != nil {
				reader.Close()
			}
			return err
		}

		switch state {
		case stateDisconnected:
			state = stateConnecting

		case stateConnecting:
			r, err := a.connect(ctx, topic)
			if err != nil {
				if firstConnect {
					// 启动期建连失败是致命的
					return err
				}
				a.sink.Capture(ctx, "replicator.reconnect", err)
				continue
			}
			reader = r
			firstConnect = false
			state = stateConsuming
			logger.Ctx(ctx).Info().Str("topic", topic).Msg("consumer attached to queue")

		case stateConsuming:
			msg, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					reader.Close()
					return ctx.Err()
				}
				// 传输故障：回到 DISCONNECTED，broker 会重投未确认的消息
				logger.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("fetch failed, reconnecting")
				reconnectsTotal.WithLabelValues(topic).Inc()
				reader.Close()
				reader = nil
				state = stateDisconnected
				continue
			}

			if err := a.processMessage(ctx, topic, msg); err != nil {
				// 本地写失败：不提交 offset，消息会被重投
				a.sink.Capture(ctx, "replicator.apply", err)
				time.Sleep(time.Second)
				continue
			}

			if err := reader.CommitMessages(ctx, msg); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("commit failed")
			}
		}
	}
}

// connect 带退避地建立 reader 并验证到 broker 的连通性。
func (a *ConsumerAdapter) connect(ctx context.Context, topic string) (*kafka.Reader, error) {
	var reader *kafka.Reader
	err := retry.Do(ctx, a.policy, func() error {
		conn, err := kafka.DialContext(ctx, "tcp", a.brokers[0])
		if err != nil {
			return err
		}
		conn.Close()
		reader = mq.NewKafkaReader(a.brokers, topic, a.groupID)
		return nil
	})
	return reader, err
}

// processMessage 反序列化并应用一条消息。
// 畸形载荷走毒消息策略：上报之后返回 nil 让 offset 被提交，
// 否则这条消息会永远堵住队列。
func (a *ConsumerAdapter) processMessage(parentCtx context.Context, topic string, msg kafka.Message) error {
	carrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := otel.GetTextMapPropagator().Extract(parentCtx, &carrier)

	var event domain.UserLifecycleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		a.dropPoison(ctx, topic, err)
		return nil
	}

	if err := a.service.Apply(ctx, &event); err != nil {
		if errors.Is(err, domain.ErrMalformedEvent) {
			a.dropPoison(ctx, topic, err)
			return nil
		}
		return err
	}

	eventsAppliedTotal.WithLabelValues(topic).Inc()
	return nil
}

// dropPoison 上报是强制行为，不是一条可选的日志。
func (a *ConsumerAdapter) dropPoison(ctx context.Context, topic string, err error) {
	malformedTotal.Inc()
	a.sink.Capture(ctx, "replicator.malformed."+topic, err)
}
