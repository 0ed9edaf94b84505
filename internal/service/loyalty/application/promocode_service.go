// internal/service/loyalty/application/promocode_service.go
package application

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"promohub/internal/pkg/logger"
	"promohub/internal/pkg/retry"
	"promohub/internal/service/loyalty/domain"
)

// PromoCache 是验证结果缓存的出站端口。
type PromoCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// PromoCodeService 编排缓存、存储和权限判定，回答
// “促销码 X 此刻能否被用户 Y 使用”。
type PromoCodeService struct {
	cache      PromoCache
	promoRepo  domain.PromoCodeRepository
	userRepo   domain.UserReadModelRepository
	access     *AccessService
	defaultTTL time.Duration
	tracer     trace.Tracer
}

func NewPromoCodeService(
	cache PromoCache,
	promoRepo domain.PromoCodeRepository,
	userRepo domain.UserReadModelRepository,
	access *AccessService,
	defaultTTL time.Duration,
	tracer trace.Tracer,
) *PromoCodeService {
	return &PromoCodeService{
		cache:      cache,
		promoRepo:  promoRepo,
		userRepo:   userRepo,
		access:     access,
		defaultTTL: defaultTTL,
		tracer:     tracer,
	}
}

const promoCacheKeyPrefix = "promocode:"

// 存储读路径的瞬时故障重试策略。写路径不重试，避免歧义失败后重复写入。
var readRetry = retry.Policy{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}

// Validate 校验促销码对指定用户是否可用，成功时返回促销码。
// 命中缓存会短路所有后续检查；缓存里只有资格事实，不含剩余次数。
func (s *PromoCodeService) Validate(ctx context.Context, code, userUUID string) (*domain.PromoCode, error) {
	ctx, span := s.tracer.Start(ctx, "promocode.Validate")
	defer span.End()
	span.SetAttributes(
		attribute.String("promo.code", code),
		attribute.String("user.uuid", userUUID),
	)

	// 1. 缓存命中直接返回
	if cached := s.lookupCache(ctx, code); cached != nil {
		span.AddEvent("cache hit")
		return cached, nil
	}

	// 2. 加载促销码；缺失、停用、软删除一律视为不存在
	var promo *domain.PromoCode
	err := retry.Do(ctx, readRetry, func() error {
		var e error
		promo, e = s.promoRepo.FindByCode(ctx, code)
		return e
	})
	if err != nil {
		return nil, err
	}
	if promo == nil || !promo.IsVisible() {
		return nil, domain.ErrPromoCodeNotFound
	}

	// 3. 用户必须存在于本地读模型（不查认证服务）
	var user *domain.User
	err = retry.Do(ctx, readRetry, func() error {
		var e error
		user, e = s.userRepo.FindByUUID(ctx, userUUID)
		return e
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	// 4. 权限判定
	ok, err := s.access.IsAvailable(ctx, promo.ID, user.UUID, user.GroupIDs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	// 5. 过期检查
	if promo.IsExpired(time.Now()) {
		return nil, domain.ErrExpired
	}

	// 6. 缓存资格事实后返回。缓存失败只降级，不影响结果。
	s.storeCache(ctx, promo)
	return promo, nil
}

// ListActiveForUser 返回该用户当前可用的全部促销码。
// 用户不存在返回 ErrUserNotFound。
func (s *PromoCodeService) ListActiveForUser(ctx context.Context, userUUID string) ([]ActivePromo, error) {
	ctx, span := s.tracer.Start(ctx, "promocode.ListActiveForUser")
	defer span.End()

	user, err := s.userRepo.FindByUUID(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	promos, err := s.promoRepo.ListActive(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	result := make([]ActivePromo, 0, len(promos))
	for _, promo := range promos {
		ok, err := s.access.IsAvailable(ctx, promo.ID, user.UUID, user.GroupIDs)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		result = append(result, ActivePromo{
			Code:           promo.Code,
			DiscountKind:   promo.Kind,
			DiscountValue:  promo.Value,
			ExpirationDate: promo.ExpirationDate,
		})
	}
	return result, nil
}

func (s *PromoCodeService) lookupCache(ctx context.Context, code string) *domain.PromoCode {
	b, err := s.cache.Get(ctx, promoCacheKeyPrefix+code)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("promo cache read failed, falling through to store")
		return nil
	}
	if b == nil {
		return nil
	}
	var entry cachedPromo
	if err := json.Unmarshal(b, &entry); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("promo cache entry corrupted, ignoring")
		return nil
	}
	return &domain.PromoCode{
		ID:             entry.ID,
		Code:           entry.Code,
		Kind:           entry.Kind,
		Value:          entry.Value,
		ExpirationDate: entry.ExpirationDate,
		IsActive:       true,
	}
}

func (s *PromoCodeService) storeCache(ctx context.Context, promo *domain.PromoCode) {
	entry := cachedPromo{
		ID:             promo.ID,
		Code:           promo.Code,
		Kind:           promo.Kind,
		Value:          promo.Value,
		ExpirationDate: promo.ExpirationDate,
	}
	b, err := json.Marshal(entry)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("marshal promo cache entry")
		return
	}

	ttl := s.defaultTTL
	if until := promo.TTLUntilExpiry(time.Now()); until > 0 && until < ttl {
		ttl = until
	}
	if err := s.cache.Set(ctx, promoCacheKeyPrefix+promo.Code, b, ttl); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("promo cache write failed")
	}
}
