// internal/service/loyalty/application/access_service.go
package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"promohub/internal/service/loyalty/domain"
)

// AccessService 回答“这个用户（直接或经由分组）是否被授予了这个促销码”。
// 没有授权记录就是没有权限，这是设计而不是错误。
type AccessService struct {
	accessRepo domain.AccessRepository
	tracer     trace.Tracer
}

func NewAccessService(accessRepo domain.AccessRepository, tracer trace.Tracer) *AccessService {
	return &AccessService{accessRepo: accessRepo, tracer: tracer}
}

// IsAvailable 无副作用。promoCodeID 必须指向已存在的码，由调用方保证。
func (s *AccessService) IsAvailable(ctx context.Context, promoCodeID uint, userUUID string, groupIDs []uint) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "access.IsAvailable")
	defer span.End()
	span.SetAttributes(
		attribute.Int("promo.id", int(promoCodeID)),
		attribute.String("user.uuid", userUUID),
	)

	return s.accessRepo.IsAvailable(ctx, promoCodeID, userUUID, groupIDs)
}
