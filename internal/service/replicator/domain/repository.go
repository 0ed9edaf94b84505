// internal/service/replicator/domain/repository.go
package domain

import "context"

// ReplicaRepository 是本地用户读模型的写入端口。
// Upsert 以 uuid 为自然键：不存在则插入，存在则更新 email 和 is_active。
// 重复应用同一个事件必须是无操作。
type ReplicaRepository interface {
	Upsert(ctx context.Context, event *UserLifecycleEvent) error
}
