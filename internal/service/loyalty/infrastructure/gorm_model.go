// internal/service/loyalty/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// PromoCodeModel 对应 promo_codes 表。
// NumUses 只允许通过条件 UPDATE 修改，见 GormRedemptionRepository。
type PromoCodeModel struct {
	ID             uint       `gorm:"primaryKey"`
	Code           string     `gorm:"size:255;uniqueIndex"`
	DiscountType   string     `gorm:"size:15;default:FIXED"`
	Discount       float64    `gorm:"type:decimal(10,2)"`
	NumUses        int        `gorm:"default:1"`
	IsActive       bool       `gorm:"default:true"`
	IsDeleted      bool       `gorm:"default:false"`
	CreationDate   time.Time  `gorm:"autoCreateTime"`
	ExpirationDate *time.Time `gorm:"type:date"`
}

func (PromoCodeModel) TableName() string { return "promo_codes" }

// TariffModel 对应 tariffs 表。
type TariffModel struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:255;index"`
	Price       float64 `gorm:"type:decimal(10,2)"`
	Description string  `gorm:"size:255"`
	IsDeleted   bool    `gorm:"default:false"`
}

func (TariffModel) TableName() string { return "tariffs" }

// PurchaseModel 对应 purchases 表，是兑换的持久记录。
type PurchaseModel struct {
	ID           uint   `gorm:"primaryKey"`
	UserUUID     string `gorm:"size:36;index"`
	TariffID     uint
	PromoCodeID  *uint
	Amount       float64 `gorm:"type:decimal(10,2)"`
	IsSuccessful bool    `gorm:"default:true"`
	CreatedAt    time.Time
}

func (PurchaseModel) TableName() string { return "purchases" }

// GroupModel 对应 groups 表。
type GroupModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:255;uniqueIndex"`
	Description string `gorm:"size:255"`
}

func (GroupModel) TableName() string { return "groups" }

// ReplicaUserModel 对应 replica_users 表：认证侧用户的本地只读副本。
// 唯一写入方是 sync-worker。
type ReplicaUserModel struct {
	UUID     string `gorm:"primaryKey;size:36"`
	Email    string `gorm:"size:255;index"`
	IsActive bool
	Groups   []GroupModel `gorm:"many2many:replica_user_groups;joinForeignKey:UserUUID;joinReferences:GroupID"`
}

func (ReplicaUserModel) TableName() string { return "replica_users" }

// PromoAccessModel 对应 promo_access 表：一条记录把一个促销码授予
// 一组用户和一组分组。没有记录就是没有人可用。
type PromoAccessModel struct {
	ID          uint `gorm:"primaryKey"`
	PromoCodeID uint `gorm:"index"`
	Users       []ReplicaUserModel `gorm:"many2many:promo_access_users;joinForeignKey:PromoAccessID;joinReferences:UserUUID"`
	Groups      []GroupModel       `gorm:"many2many:promo_access_groups;joinForeignKey:PromoAccessID;joinReferences:GroupID"`
}

func (PromoAccessModel) TableName() string { return "promo_access" }

// AutoMigrate 建出 loyalty 侧的全部表，服务启动和测试都走这里。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&GroupModel{},
		&ReplicaUserModel{},
		&PromoCodeModel{},
		&TariffModel{},
		&PurchaseModel{},
		&PromoAccessModel{},
	)
}
