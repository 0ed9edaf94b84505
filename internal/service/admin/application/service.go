// internal/service/admin/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"promohub/internal/service/loyalty/domain"
)

// AdminService 提供管理端用例：促销码、资费、分组的维护，
// 以及权益的授予和回收。它直接复用 loyalty 侧的仓储端口。
type AdminService struct {
	promoRepo  domain.PromoCodeRepository
	tariffRepo domain.TariffRepository
	accessRepo domain.AccessRepository
	groupRepo  domain.GroupRepository
	tracer     trace.Tracer
}

func NewAdminService(
	promoRepo domain.PromoCodeRepository,
	tariffRepo domain.TariffRepository,
	accessRepo domain.AccessRepository,
	groupRepo domain.GroupRepository,
	tracer trace.Tracer,
) *AdminService {
	return &AdminService{
		promoRepo:  promoRepo,
		tariffRepo: tariffRepo,
		accessRepo: accessRepo,
		groupRepo:  groupRepo,
		tracer:     tracer,
	}
}

// CreatePromoCodeParams 是建码参数。Kind 必须是合法的折扣类型。
type CreatePromoCodeParams struct {
	Code           string
	Kind           domain.DiscountKind
	Value          float64
	NumUses        int
	ExpirationDate *time.Time
}

func (s *AdminService) CreatePromoCode(ctx context.Context, params CreatePromoCodeParams) (*domain.PromoCode, error) {
	ctx, span := s.tracer.Start(ctx, "admin.CreatePromoCode")
	defer span.End()

	if !params.Kind.Valid() {
		return nil, domain.ErrUnknownDiscountKind
	}
	if params.NumUses <= 0 {
		params.NumUses = 1
	}

	promo := &domain.PromoCode{
		Code:           params.Code,
		Kind:           params.Kind,
		Value:          params.Value,
		NumUses:        params.NumUses,
		IsActive:       true,
		CreationDate:   time.Now().UTC(),
		ExpirationDate: params.ExpirationDate,
	}
	if err := s.promoRepo.Create(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

func (s *AdminService) DeletePromoCode(ctx context.Context, id uint) error {
	ctx, span := s.tracer.Start(ctx, "admin.DeletePromoCode")
	defer span.End()
	return s.promoRepo.SoftDelete(ctx, id)
}

func (s *AdminService) CreateTariff(ctx context.Context, name string, price float64, description string) (*domain.Tariff, error) {
	ctx, span := s.tracer.Start(ctx, "admin.CreateTariff")
	defer span.End()

	tariff := &domain.Tariff{Name: name, Price: price, Description: description}
	if err := s.tariffRepo.Create(ctx, tariff); err != nil {
		return nil, err
	}
	return tariff, nil
}

func (s *AdminService) DeleteTariff(ctx context.Context, id uint) error {
	ctx, span := s.tracer.Start(ctx, "admin.DeleteTariff")
	defer span.End()
	return s.tariffRepo.SoftDelete(ctx, id)
}

// GrantAccess 把促销码授予一组用户和分组。
// 目标促销码必须存在且未删除。
func (s *AdminService) GrantAccess(ctx context.Context, promoCodeID uint, userUUIDs []string, groupIDs []uint) error {
	ctx, span := s.tracer.Start(ctx, "admin.GrantAccess")
	defer span.End()

	promo, err := s.promoRepo.FindByID(ctx, promoCodeID)
	if err != nil {
		return err
	}
	if promo == nil || promo.IsDeleted {
		return domain.ErrPromoCodeNotFound
	}
	return s.accessRepo.Grant(ctx, promoCodeID, userUUIDs, groupIDs)
}

// RevokeAccess 收回促销码的全部授权。
func (s *AdminService) RevokeAccess(ctx context.Context, promoCodeID uint) error {
	ctx, span := s.tracer.Start(ctx, "admin.RevokeAccess")
	defer span.End()
	return s.accessRepo.Revoke(ctx, promoCodeID)
}

func (s *AdminService) CreateGroup(ctx context.Context, name, description string) (*domain.Group, error) {
	ctx, span := s.tracer.Start(ctx, "admin.CreateGroup")
	defer span.End()

	group := &domain.Group{Name: name, Description: description}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *AdminService) AssignUserToGroup(ctx context.Context, groupID uint, userUUID string) error {
	ctx, span := s.tracer.Start(ctx, "admin.AssignUserToGroup")
	defer span.End()
	return s.groupRepo.AssignUser(ctx, groupID, userUUID)
}

func (s *AdminService) RemoveUserFromGroup(ctx context.Context, groupID uint, userUUID string) error {
	ctx, span := s.tracer.Start(ctx, "admin.RemoveUserFromGroup")
	defer span.End()
	return s.groupRepo.RemoveUser(ctx, groupID, userUUID)
}
