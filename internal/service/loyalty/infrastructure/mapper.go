// internal/service/loyalty/infrastructure/mapper.go
package infrastructure

import (
	"promohub/internal/service/loyalty/domain"
)

// ToDomainPromoCode 将数据库模型转换为领域模型。
func ToDomainPromoCode(m *PromoCodeModel) *domain.PromoCode {
	if m == nil {
		return nil
	}
	return &domain.PromoCode{
		ID:             m.ID,
		Code:           m.Code,
		Kind:           domain.DiscountKind(m.DiscountType),
		Value:          m.Discount,
		NumUses:        m.NumUses,
		IsActive:       m.IsActive,
		IsDeleted:      m.IsDeleted,
		CreationDate:   m.CreationDate,
		ExpirationDate: m.ExpirationDate,
	}
}

// FromDomainPromoCode 将领域模型转换为数据库模型（插入用）。
func FromDomainPromoCode(p *domain.PromoCode) *PromoCodeModel {
	if p == nil {
		return nil
	}
	return &PromoCodeModel{
		ID:             p.ID,
		Code:           p.Code,
		DiscountType:   string(p.Kind),
		Discount:       p.Value,
		NumUses:        p.NumUses,
		IsActive:       p.IsActive,
		IsDeleted:      p.IsDeleted,
		CreationDate:   p.CreationDate,
		ExpirationDate: p.ExpirationDate,
	}
}

func ToDomainTariff(m *TariffModel) *domain.Tariff {
	if m == nil {
		return nil
	}
	return &domain.Tariff{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		Description: m.Description,
		IsDeleted:   m.IsDeleted,
	}
}

func ToDomainPurchase(m *PurchaseModel) *domain.Purchase {
	if m == nil {
		return nil
	}
	return &domain.Purchase{
		ID:           m.ID,
		UserUUID:     m.UserUUID,
		TariffID:     m.TariffID,
		PromoCodeID:  m.PromoCodeID,
		Amount:       m.Amount,
		IsSuccessful: m.IsSuccessful,
		CreatedAt:    m.CreatedAt,
	}
}

func ToDomainUser(m *ReplicaUserModel) *domain.User {
	if m == nil {
		return nil
	}
	groupIDs := make([]uint, 0, len(m.Groups))
	for _, g := range m.Groups {
		groupIDs = append(groupIDs, g.ID)
	}
	return &domain.User{
		UUID:     m.UUID,
		Email:    m.Email,
		IsActive: m.IsActive,
		GroupIDs: groupIDs,
	}
}
