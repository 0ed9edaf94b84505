package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	loyalty "promohub/internal/service/loyalty/infrastructure"
	"promohub/internal/service/replicator/application"
	"promohub/internal/service/replicator/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")
	require.NoError(t, loyalty.AutoMigrate(db), "failed to migrate tables")
	return db
}

func countReplicas(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&loyalty.ReplicaUserModel{}).Count(&n).Error)
	return n
}

func TestUpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReplicaRepository(db)
	ctx := context.Background()

	event := &domain.UserLifecycleEvent{UUID: "u-1", Email: "ada@example.com", IsActive: true}
	require.NoError(t, repo.Upsert(ctx, event))
	require.NoError(t, repo.Upsert(ctx, event))

	assert.Equal(t, int64(1), countReplicas(t, db))

	var row loyalty.ReplicaUserModel
	require.NoError(t, db.First(&row, "uuid = ?", "u-1").Error)
	assert.Equal(t, "ada@example.com", row.Email)
	assert.True(t, row.IsActive)
}

func TestUpsertUpdatesExistingRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReplicaRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.UserLifecycleEvent{UUID: "u-1", Email: "ada@example.com", IsActive: true}))
	// delete 事件是同一条 upsert 路径，只是 is_active 翻成 false
	require.NoError(t, repo.Upsert(ctx, &domain.UserLifecycleEvent{UUID: "u-1", Email: "ada@new.example.com", IsActive: false}))

	var row loyalty.ReplicaUserModel
	require.NoError(t, db.First(&row, "uuid = ?", "u-1").Error)
	assert.Equal(t, "ada@new.example.com", row.Email)
	assert.False(t, row.IsActive)
	assert.Equal(t, int64(1), countReplicas(t, db))
}

func TestApplyRejectsMalformedEvent(t *testing.T) {
	db := setupTestDB(t)
	svc := application.NewReplicatorService(NewGormReplicaRepository(db), otel.Tracer("test"))

	err := svc.Apply(context.Background(), &domain.UserLifecycleEvent{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
	assert.Equal(t, int64(0), countReplicas(t, db))
}

func TestApplyWritesReplica(t *testing.T) {
	db := setupTestDB(t)
	svc := application.NewReplicatorService(NewGormReplicaRepository(db), otel.Tracer("test"))

	err := svc.Apply(context.Background(), &domain.UserLifecycleEvent{UUID: "u-2", Email: "bob@example.com", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countReplicas(t, db))
}
