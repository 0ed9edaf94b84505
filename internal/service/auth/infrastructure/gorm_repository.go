// internal/service/auth/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"promohub/internal/service/auth/domain"
)

// GormUserRepository 是 domain.UserRepository 的 GORM 实现。
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	m := &AuthUserModel{
		UUID:         user.UUID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PasswordHash: user.PasswordHash,
		Active:       user.Active,
		CreatedAt:    user.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *GormUserRepository) FindByUUID(ctx context.Context, uuid string) (*domain.User, error) {
	var m AuthUserModel
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainUser(&m), nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m AuthUserModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainUser(&m), nil
}

// Deactivate 只翻 active 标记，账号行永远保留。
func (r *GormUserRepository) Deactivate(ctx context.Context, uuid string) error {
	return r.db.WithContext(ctx).Model(&AuthUserModel{}).
		Where("uuid = ?", uuid).
		Update("active", false).Error
}

func (r *GormUserRepository) AppendAuthRecord(ctx context.Context, record *domain.AuthenticationRecord) error {
	m := &AuthHistoryModel{
		UserUUID:  record.UserUUID,
		ClientID:  record.ClientID,
		CreatedAt: record.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	record.ID = m.ID
	return nil
}

func (r *GormUserRepository) AuthHistory(ctx context.Context, userUUID string, limit int) ([]*domain.AuthenticationRecord, error) {
	var models []AuthHistoryModel
	err := r.db.WithContext(ctx).
		Where("user_uuid = ?", userUUID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]*domain.AuthenticationRecord, 0, len(models))
	for i := range models {
		m := &models[i]
		records = append(records, &domain.AuthenticationRecord{
			ID:        m.ID,
			UserUUID:  m.UserUUID,
			ClientID:  m.ClientID,
			CreatedAt: m.CreatedAt,
		})
	}
	return records, nil
}

func toDomainUser(m *AuthUserModel) *domain.User {
	return &domain.User{
		UUID:         m.UUID,
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PasswordHash: m.PasswordHash,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
	}
}
