// internal/service/loyalty/domain/errors.go
package domain

import "github.com/pkg/errors"

// 业务结果错误：调用方用 errors.Is 区分，不重试。
var (
	ErrPromoCodeNotFound   = errors.New("promo code not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrForbidden           = errors.New("promo code not available for this user")
	ErrExpired             = errors.New("promo code expired")
	ErrUsageLimitReached   = errors.New("promo code usage limit reached")
	ErrTariffNotFound      = errors.New("tariff not found")
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrAlreadyCancelled    = errors.New("purchase already cancelled")
	ErrUnknownDiscountKind = errors.New("unknown discount kind")
)
