// internal/service/loyalty/application/dto.go
package application

import (
	"time"

	"promohub/internal/service/loyalty/domain"
)

// RedemptionResult 是应用/兑换促销码的对外结果。
type RedemptionResult struct {
	DiscountKind  domain.DiscountKind `json:"discount_type"`
	DiscountValue float64             `json:"discount_value"`
	FinalAmount   float64             `json:"final_amount"`
	PurchaseID    uint                `json:"purchase_id,omitempty"`
}

// ActivePromo 是用户可用促销码列表里的一项。
type ActivePromo struct {
	Code           string              `json:"code"`
	DiscountKind   domain.DiscountKind `json:"discount_type"`
	DiscountValue  float64             `json:"discount_value"`
	ExpirationDate *time.Time          `json:"expiration_date,omitempty"`
}

// cachedPromo 是写进缓存的“资格事实”。
// 故意不含剩余次数：次数只能在兑换事务内从存储层读取。
type cachedPromo struct {
	ID             uint                `json:"id"`
	Code           string              `json:"code"`
	Kind           domain.DiscountKind `json:"kind"`
	Value          float64             `json:"value"`
	ExpirationDate *time.Time          `json:"expiration_date,omitempty"`
}
