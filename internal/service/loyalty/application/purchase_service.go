// internal/service/loyalty/application/purchase_service.go
package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"promohub/internal/pkg/retry"
	"promohub/internal/service/loyalty/domain"
)

var (
	redemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loyalty_redemptions_total",
		Help: "Promo code redemptions, by outcome.",
	}, []string{"outcome"})
	cancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_cancellations_total",
		Help: "Purchase cancellations that actually flipped a purchase.",
	})
)

// PurchaseService 是兑换引擎：算价、落库、扣减次数、幂等取消。
type PurchaseService struct {
	tariffRepo  domain.TariffRepository
	redemptions domain.RedemptionRepository
	validator   *PromoCodeService
	tracer      trace.Tracer
}

func NewPurchaseService(
	tariffRepo domain.TariffRepository,
	redemptions domain.RedemptionRepository,
	validator *PromoCodeService,
	tracer trace.Tracer,
) *PurchaseService {
	return &PurchaseService{
		tariffRepo:  tariffRepo,
		redemptions: redemptions,
		validator:   validator,
		tracer:      tracer,
	}
}

// Apply 只计算促销后的价格，不产生任何持久化副作用。
func (s *PurchaseService) Apply(ctx context.Context, userUUID, code string, tariffID uint) (*RedemptionResult, error) {
	ctx, span := s.tracer.Start(ctx, "purchase.Apply")
	defer span.End()

	tariff, promo, err := s.resolve(ctx, userUUID, code, tariffID)
	if err != nil {
		return nil, err
	}
	final, err := promo.FinalAmount(tariff.Price)
	if err != nil {
		return nil, err
	}
	return &RedemptionResult{
		DiscountKind:  promo.Kind,
		DiscountValue: promo.Value,
		FinalAmount:   final,
	}, nil
}

// Redeem 执行一次完整兑换：校验、算价、写购买记录并扣减一次剩余次数。
// 记录写入和计数器扣减在存储层同一个事务里完成；
// 剩余次数归零时并发兑换最多成功一次，其余得到 ErrUsageLimitReached。
func (s *PurchaseService) Redeem(ctx context.Context, userUUID, code string, tariffID uint) (*RedemptionResult, error) {
	ctx, span := s.tracer.Start(ctx, "purchase.Redeem")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.uuid", userUUID),
		attribute.String("promo.code", code),
		attribute.Int("tariff.id", int(tariffID)),
	)

	tariff, promo, err := s.resolve(ctx, userUUID, code, tariffID)
	if err != nil {
		redemptionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	final, err := promo.FinalAmount(tariff.Price)
	if err != nil {
		return nil, err
	}

	purchase := &domain.Purchase{
		UserUUID:     userUUID,
		TariffID:     tariffID,
		PromoCodeID:  &promo.ID,
		Amount:       final,
		IsSuccessful: true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.redemptions.Redeem(ctx, purchase); err != nil {
		if errors.Is(err, domain.ErrUsageLimitReached) {
			redemptionsTotal.WithLabelValues("exhausted").Inc()
		} else {
			redemptionsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	redemptionsTotal.WithLabelValues("success").Inc()
	return &RedemptionResult{
		DiscountKind:  promo.Kind,
		DiscountValue: promo.Value,
		FinalAmount:   final,
		PurchaseID:    purchase.ID,
	}, nil
}

// Cancel 取消一次兑换。归属校验失败按不存在处理；
// 重复取消是无操作的成功，不是错误。
func (s *PurchaseService) Cancel(ctx context.Context, purchaseID uint, userUUID string) error {
	ctx, span := s.tracer.Start(ctx, "purchase.Cancel")
	defer span.End()

	err := s.redemptions.Cancel(ctx, purchaseID, userUUID)
	if err == nil {
		cancellationsTotal.Inc()
	}
	if errors.Is(err, domain.ErrAlreadyCancelled) {
		return nil
	}
	return err
}

// resolve 加载资费并验证促销码，两个校验的错误原样向上传。
func (s *PurchaseService) resolve(ctx context.Context, userUUID, code string, tariffID uint) (*domain.Tariff, *domain.PromoCode, error) {
	var tariff *domain.Tariff
	err := retry.Do(ctx, readRetry, func() error {
		var e error
		tariff, e = s.tariffRepo.FindByID(ctx, tariffID)
		return e
	})
	if err != nil {
		return nil, nil, err
	}
	if tariff == nil || tariff.IsDeleted {
		return nil, nil, domain.ErrTariffNotFound
	}

	promo, err := s.validator.Validate(ctx, code, userUUID)
	if err != nil {
		return nil, nil, err
	}
	return tariff, promo, nil
}
