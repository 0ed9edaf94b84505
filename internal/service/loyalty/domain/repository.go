// internal/service/loyalty/domain/repository.go
package domain

import (
	"context"
	"time"
)

// PromoCodeRepository 是促销码数据的持久化接口。
type PromoCodeRepository interface {
	FindByCode(ctx context.Context, code string) (*PromoCode, error)
	FindByID(ctx context.Context, id uint) (*PromoCode, error)
	ListActive(ctx context.Context, now time.Time) ([]*PromoCode, error)
	Create(ctx context.Context, promo *PromoCode) error
	SoftDelete(ctx context.Context, id uint) error
}

// TariffRepository 管理资费方案。
type TariffRepository interface {
	FindByID(ctx context.Context, id uint) (*Tariff, error)
	Create(ctx context.Context, tariff *Tariff) error
	SoftDelete(ctx context.Context, id uint) error
}

// UserReadModelRepository 只读访问复制过来的用户副本（含分组）。
// 写入方只有 sync-worker，这里不暴露任何修改方法。
type UserReadModelRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*User, error)
}

// AccessRepository 维护促销码的授权集合（用户集 + 分组集）。
// 一条授权记录都没有意味着没有任何人可用，而不是所有人可用。
type AccessRepository interface {
	IsAvailable(ctx context.Context, promoCodeID uint, userUUID string, groupIDs []uint) (bool, error)
	Grant(ctx context.Context, promoCodeID uint, userUUIDs []string, groupIDs []uint) error
	Revoke(ctx context.Context, promoCodeID uint) error
}

// GroupRepository 管理本地分组及成员关系（管理端使用）。
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	AssignUser(ctx context.Context, groupID uint, userUUID string) error
	RemoveUser(ctx context.Context, groupID uint, userUUID string) error
}

// RedemptionRepository 负责兑换的原子落库与幂等取消。
// Redeem 必须把“检查剩余次数并扣减”和“写入购买记录”放进同一个事务，
// 剩余次数的扣减只能用条件更新实现。
type RedemptionRepository interface {
	Redeem(ctx context.Context, purchase *Purchase) error
	FindPurchase(ctx context.Context, purchaseID uint) (*Purchase, error)
	Cancel(ctx context.Context, purchaseID uint, userUUID string) error
}
