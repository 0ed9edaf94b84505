// internal/service/auth/domain/repository.go
package domain

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidPassword  = errors.New("invalid credentials")
	ErrUserDeactivated  = errors.New("user is deactivated")
	ErrUnknownEventKind = errors.New("unknown event kind")
)

// UserRepository 持久化用户与登录历史。
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByUUID(ctx context.Context, uuid string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Deactivate(ctx context.Context, uuid string) error
	AppendAuthRecord(ctx context.Context, record *AuthenticationRecord) error
	AuthHistory(ctx context.Context, userUUID string, limit int) ([]*AuthenticationRecord, error)
}

// EventPublisher 是向消息总线发布生命周期事件的出站端口。
// 实现必须在存储提交之后才发布，且不允许无声丢弃。
type EventPublisher interface {
	Publish(ctx context.Context, kind EventKind, snapshot UserSnapshot) error
}

// PasswordHasher 把口令散列当作不透明能力，具体算法不在这里决定。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
