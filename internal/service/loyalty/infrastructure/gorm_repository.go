// internal/service/loyalty/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"promohub/internal/service/loyalty/domain"
)

// GormPromoCodeRepository 是 domain.PromoCodeRepository 的 GORM 实现。
// 查不到返回 (nil, nil)，业务语义（NotFound 等）由应用层决定。
type GormPromoCodeRepository struct {
	db *gorm.DB
}

func NewGormPromoCodeRepository(db *gorm.DB) *GormPromoCodeRepository {
	return &GormPromoCodeRepository{db: db}
}

func (r *GormPromoCodeRepository) FindByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	var m PromoCodeModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToDomainPromoCode(&m), nil
}

func (r *GormPromoCodeRepository) FindByID(ctx context.Context, id uint) (*domain.PromoCode, error) {
	var m PromoCodeModel
	err := r.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToDomainPromoCode(&m), nil
}

func (r *GormPromoCodeRepository) ListActive(ctx context.Context, now time.Time) ([]*domain.PromoCode, error) {
	y, mo, d := now.UTC().Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)

	var models []PromoCodeModel
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_deleted = ? AND num_uses > 0", true, false).
		Where("expiration_date IS NULL OR expiration_date >= ?", today).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	promos := make([]*domain.PromoCode, 0, len(models))
	for i := range models {
		promos = append(promos, ToDomainPromoCode(&models[i]))
	}
	return promos, nil
}

func (r *GormPromoCodeRepository) Create(ctx context.Context, promo *domain.PromoCode) error {
	m := FromDomainPromoCode(promo)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	promo.ID = m.ID
	return nil
}

func (r *GormPromoCodeRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&PromoCodeModel{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

// GormTariffRepository 是 domain.TariffRepository 的 GORM 实现。
type GormTariffRepository struct {
	db *gorm.DB
}

func NewGormTariffRepository(db *gorm.DB) *GormTariffRepository {
	return &GormTariffRepository{db: db}
}

func (r *GormTariffRepository) FindByID(ctx context.Context, id uint) (*domain.Tariff, error) {
	var m TariffModel
	err := r.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToDomainTariff(&m), nil
}

func (r *GormTariffRepository) Create(ctx context.Context, tariff *domain.Tariff) error {
	m := &TariffModel{
		Name:        tariff.Name,
		Price:       tariff.Price,
		Description: tariff.Description,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	tariff.ID = m.ID
	return nil
}

func (r *GormTariffRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&TariffModel{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

// GormUserReadModelRepository 只读访问 replica_users。
type GormUserReadModelRepository struct {
	db *gorm.DB
}

func NewGormUserReadModelRepository(db *gorm.DB) *GormUserReadModelRepository {
	return &GormUserReadModelRepository{db: db}
}

func (r *GormUserReadModelRepository) FindByUUID(ctx context.Context, uuid string) (*domain.User, error) {
	var m ReplicaUserModel
	err := r.db.WithContext(ctx).Preload("Groups").Where("uuid = ?", uuid).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToDomainUser(&m), nil
}

// GormAccessRepository 是 domain.AccessRepository 的 GORM 实现。
type GormAccessRepository struct {
	db *gorm.DB
}

func NewGormAccessRepository(db *gorm.DB) *GormAccessRepository {
	return &GormAccessRepository{db: db}
}

// IsAvailable 判断授权记录的用户集包含该用户，或分组集与该用户的分组有交集。
func (r *GormAccessRepository) IsAvailable(ctx context.Context, promoCodeID uint, userUUID string, groupIDs []uint) (bool, error) {
	q := r.db.WithContext(ctx).Table("promo_access").
		Where("promo_access.promo_code_id = ?", promoCodeID)

	userClause := "EXISTS (SELECT 1 FROM promo_access_users pau WHERE pau.promo_access_id = promo_access.id AND pau.user_uuid = ?)"
	groupClause := "EXISTS (SELECT 1 FROM promo_access_groups pag WHERE pag.promo_access_id = promo_access.id AND pag.group_id IN ?)"

	if len(groupIDs) > 0 {
		q = q.Where(userClause+" OR "+groupClause, userUUID, groupIDs)
	} else {
		q = q.Where(userClause, userUUID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Grant 为促销码追加一条授权记录。
func (r *GormAccessRepository) Grant(ctx context.Context, promoCodeID uint, userUUIDs []string, groupIDs []uint) error {
	access := &PromoAccessModel{PromoCodeID: promoCodeID}
	for _, u := range userUUIDs {
		access.Users = append(access.Users, ReplicaUserModel{UUID: u})
	}
	for _, g := range groupIDs {
		access.Groups = append(access.Groups, GroupModel{ID: g})
	}
	return r.db.WithContext(ctx).Create(access).Error
}

// Revoke 删除促销码的全部授权记录及其关联。
func (r *GormAccessRepository) Revoke(ctx context.Context, promoCodeID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var accesses []PromoAccessModel
		if err := tx.Where("promo_code_id = ?", promoCodeID).Find(&accesses).Error; err != nil {
			return err
		}
		for i := range accesses {
			if err := tx.Model(&accesses[i]).Association("Users").Clear(); err != nil {
				return err
			}
			if err := tx.Model(&accesses[i]).Association("Groups").Clear(); err != nil {
				return err
			}
		}
		return tx.Where("promo_code_id = ?", promoCodeID).Delete(&PromoAccessModel{}).Error
	})
}

// GormGroupRepository 管理分组与成员关系。
type GormGroupRepository struct {
	db *gorm.DB
}

func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

func (r *GormGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	m := &GroupModel{Name: group.Name, Description: group.Description}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	group.ID = m.ID
	return nil
}

func (r *GormGroupRepository) AssignUser(ctx context.Context, groupID uint, userUUID string) error {
	user := ReplicaUserModel{UUID: userUUID}
	return r.db.WithContext(ctx).
		Model(&user).
		Association("Groups").
		Append(&GroupModel{ID: groupID})
}

func (r *GormGroupRepository) RemoveUser(ctx context.Context, groupID uint, userUUID string) error {
	user := ReplicaUserModel{UUID: userUUID}
	return r.db.WithContext(ctx).
		Model(&user).
		Association("Groups").
		Delete(&GroupModel{ID: groupID})
}

// GormRedemptionRepository 实现兑换的原子落库与幂等取消。
type GormRedemptionRepository struct {
	db *gorm.DB
}

func NewGormRedemptionRepository(db *gorm.DB) *GormRedemptionRepository {
	return &GormRedemptionRepository{db: db}
}

// Redeem 在同一个事务里完成“条件扣减剩余次数 + 写入购买记录”。
// 扣减是单条条件 UPDATE，RowsAffected 为 0 说明次数已耗尽；
// 并发兑换同一个码时数据库保证只有一个请求能扣到最后一次。
func (r *GormRedemptionRepository) Redeem(ctx context.Context, purchase *domain.Purchase) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if purchase.PromoCodeID != nil {
			res := tx.Model(&PromoCodeModel{}).
				Where("id = ? AND num_uses > 0", *purchase.PromoCodeID).
				UpdateColumn("num_uses", gorm.Expr("num_uses - 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrUsageLimitReached
			}
		}

		m := &PurchaseModel{
			UserUUID:     purchase.UserUUID,
			TariffID:     purchase.TariffID,
			PromoCodeID:  purchase.PromoCodeID,
			Amount:       purchase.Amount,
			IsSuccessful: purchase.IsSuccessful,
			CreatedAt:    purchase.CreatedAt,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		purchase.ID = m.ID
		return nil
	})
}

func (r *GormRedemptionRepository) FindPurchase(ctx context.Context, purchaseID uint) (*domain.Purchase, error) {
	var m PurchaseModel
	err := r.db.WithContext(ctx).First(&m, purchaseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToDomainPurchase(&m), nil
}

// Cancel 把购买记录翻成不成功并把剩余次数还回一个。
// 翻转是条件 UPDATE（只翻 is_successful = true 的行），
// 只有真的翻转了才归还次数，所以重复取消不会重复归还。
func (r *GormRedemptionRepository) Cancel(ctx context.Context, purchaseID uint, userUUID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m PurchaseModel
		err := tx.First(&m, purchaseID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPurchaseNotFound
		}
		if err != nil {
			return err
		}
		// 归属校验失败按不存在处理，避免泄露别人的购买记录
		if m.UserUUID != userUUID {
			return domain.ErrPurchaseNotFound
		}

		res := tx.Model(&PurchaseModel{}).
			Where("id = ? AND is_successful = ?", purchaseID, true).
			Update("is_successful", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyCancelled
		}

		if m.PromoCodeID != nil {
			return tx.Model(&PromoCodeModel{}).
				Where("id = ?", *m.PromoCodeID).
				UpdateColumn("num_uses", gorm.Expr("num_uses + 1")).Error
		}
		return nil
	})
}
