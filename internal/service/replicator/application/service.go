// internal/service/replicator/application/service.go
package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"promohub/internal/pkg/logger"
	"promohub/internal/service/replicator/domain"
)

// ReplicatorService 把生命周期事件应用到本地用户读模型。
// 幂等：同一个事件应用两次和应用一次的结果完全一样。
type ReplicatorService struct {
	replicas domain.ReplicaRepository
	tracer   trace.Tracer
}

func NewReplicatorService(replicas domain.ReplicaRepository, tracer trace.Tracer) *ReplicatorService {
	return &ReplicatorService{replicas: replicas, tracer: tracer}
}

// Apply 校验并落库一条事件。校验失败返回 ErrMalformedEvent，
// 由消费适配器决定毒消息策略。
func (s *ReplicatorService) Apply(ctx context.Context, event *domain.UserLifecycleEvent) error {
	ctx, span := s.tracer.Start(ctx, "replicator.Apply")
	defer span.End()

	if err := event.Validate(); err != nil {
		return err
	}
	span.SetAttributes(
		attribute.String("user.uuid", event.UUID),
		attribute.Bool("user.is_active", event.IsActive),
	)

	if err := s.replicas.Upsert(ctx, event); err != nil {
		return err
	}
	logger.Ctx(ctx).Info().
		Str("user_uuid", event.UUID).
		Bool("is_active", event.IsActive).
		Msg("replica user upserted")
	return nil
}
