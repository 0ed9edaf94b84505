// internal/service/replicator/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loyalty "promohub/internal/service/loyalty/infrastructure"
	"promohub/internal/service/replicator/domain"
)

// GormReplicaRepository 写 loyalty 侧的 replica_users 表。
// 读模型的表结构由 loyalty 包拥有，这里只复用模型做 upsert。
type GormReplicaRepository struct {
	db *gorm.DB
}

func NewGormReplicaRepository(db *gorm.DB) *GormReplicaRepository {
	return &GormReplicaRepository{db: db}
}

// Upsert 以 uuid 为冲突键：冲突时只更新 email 和 is_active。
func (r *GormReplicaRepository) Upsert(ctx context.Context, event *domain.UserLifecycleEvent) error {
	row := &loyalty.ReplicaUserModel{
		UUID:     event.UUID,
		Email:    event.Email,
		IsActive: event.IsActive,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "is_active"}),
	}).Create(row).Error
}
