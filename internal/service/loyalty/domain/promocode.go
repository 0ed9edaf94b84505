// internal/service/loyalty/domain/promocode.go
package domain

import "time"

// DiscountKind 是促销折扣的封闭枚举。
// 折扣金额只在 FinalAmount 一处计算，switch 必须穷尽所有分支。
type DiscountKind string

const (
	DiscountFixed      DiscountKind = "FIXED"      // 固定金额减免
	DiscountPercentage DiscountKind = "PERCENTAGE" // 按百分比减免
	DiscountTrial      DiscountKind = "TRIAL"      // 试用，最终价恒为 0
)

// Valid 判断枚举值是否合法，反序列化入口用。
func (k DiscountKind) Valid() bool {
	switch k {
	case DiscountFixed, DiscountPercentage, DiscountTrial:
		return true
	}
	return false
}

// PromoCode 是促销码聚合根。
// NumUses 是共享的剩余次数计数器，只允许存储层以条件更新的方式修改。
type PromoCode struct {
	ID             uint
	Code           string
	Kind           DiscountKind
	Value          float64
	NumUses        int
	IsActive       bool
	IsDeleted      bool
	CreationDate   time.Time
	ExpirationDate *time.Time
}

// IsVisible 表示该码还能被查到：激活且未被软删除。
func (p *PromoCode) IsVisible() bool {
	return p.IsActive && !p.IsDeleted
}

// IsExpired 判断过期。过期日期按自然日比较：
// 过期日等于昨天则失效，等于今天仍然有效。
func (p *PromoCode) IsExpired(now time.Time) bool {
	if p.ExpirationDate == nil {
		return false
	}
	today := truncateToDay(now)
	return p.ExpirationDate.Before(today)
}

// TTLUntilExpiry 返回距离过期日结束还剩多久；无过期日返回 0。
// 验证缓存用它约束条目寿命，保证缓存不会活过促销码本身。
func (p *PromoCode) TTLUntilExpiry(now time.Time) time.Duration {
	if p.ExpirationDate == nil {
		return 0
	}
	endOfDay := truncateToDay(*p.ExpirationDate).Add(24 * time.Hour)
	d := endOfDay.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// FinalAmount 根据折扣类型计算最终价格，向下取整到 0，永不为负。
func (p *PromoCode) FinalAmount(price float64) (float64, error) {
	var final float64
	switch p.Kind {
	case DiscountPercentage:
		final = price * (1 - p.Value/100)
	case DiscountFixed:
		final = price - p.Value
	case DiscountTrial:
		return 0, nil
	default:
		return 0, ErrUnknownDiscountKind
	}
	if final < 0 {
		final = 0
	}
	return final, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
