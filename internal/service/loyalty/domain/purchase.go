// internal/service/loyalty/domain/purchase.go
package domain

import "time"

// Tariff 是可购买的资费方案。软删除后对兑换不可见。
type Tariff struct {
	ID          uint
	Name        string
	Price       float64
	Description string
	IsDeleted   bool
}

// Purchase 是一次兑换的持久记录。
// 取消兑换不会删除行，只是把 IsSuccessful 翻成 false，保留历史。
type Purchase struct {
	ID           uint
	UserUUID     string
	TariffID     uint
	PromoCodeID  *uint
	Amount       float64
	IsSuccessful bool
	CreatedAt    time.Time
}
