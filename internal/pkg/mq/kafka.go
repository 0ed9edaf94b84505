// internal/pkg/mq/kafka.go
package mq

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// NewKafkaWriter 创建一个指向单个 topic 的生产者。
// RequireAll + 同步写保证消息在 broker 落盘副本后才返回，对应持久化投递。
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

// NewKafkaReader 创建一个消费组 reader。
// 手动提交 offset（由调用方在处理成功后 CommitMessages），QueueCapacity 压到 1
// 避免在本地缓冲大量未处理消息。
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:       brokers,
		Topic:         topic,
		GroupID:       groupID,
		QueueCapacity: 1,
		MinBytes:      1,
		MaxBytes:      10e6,
	})
}

// ProduceMessage 注入追踪上下文后同步写一条消息。
func ProduceMessage(ctx context.Context, writer *kafka.Writer, key, value []byte) error {
	msg := kafka.Message{
		Key:   key,
		Value: value,
	}

	carrier := KafkaHeaderCarrier(msg.Headers)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	msg.Headers = carrier

	return writer.WriteMessages(ctx, msg)
}
