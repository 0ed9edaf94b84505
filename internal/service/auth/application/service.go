// internal/service/auth/application/service.go
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"promohub/internal/pkg/errsink"
	"promohub/internal/service/auth/domain"
)

// UserService 实现用户生命周期用例：注册、登录、注销、历史查询。
// 每个生命周期变更在存储提交之后恰好发布一条事件——绝不提前，
// 否则提交失败时会对外广播一个不存在的用户。
type UserService struct {
	users     domain.UserRepository
	publisher domain.EventPublisher
	hasher    domain.PasswordHasher
	sink      errsink.Sink
	tracer    trace.Tracer
}

func NewUserService(
	users domain.UserRepository,
	publisher domain.EventPublisher,
	hasher domain.PasswordHasher,
	sink errsink.Sink,
	tracer trace.Tracer,
) *UserService {
	return &UserService{users: users, publisher: publisher, hasher: hasher, sink: sink, tracer: tracer}
}

// Register 创建用户并发布 registration 事件。
// 发布失败不回滚注册：重试已经在发布器内部做完，这里只上报。
func (s *UserService) Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer span.End()
	span.SetAttributes(attribute.String("user.email", email))

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		UUID:         uuid.NewString(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publishLifecycle(ctx, domain.EventRegistration, user)
	return user, nil
}

// Deactivate 软删除用户并发布 delete 事件。
func (s *UserService) Deactivate(ctx context.Context, userUUID string) error {
	ctx, span := s.tracer.Start(ctx, "auth.Deactivate")
	defer span.End()

	user, err := s.users.FindByUUID(ctx, userUUID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	if err := s.users.Deactivate(ctx, userUUID); err != nil {
		return err
	}
	user.Active = false

	s.publishLifecycle(ctx, domain.EventDelete, user)
	return nil
}

// Login 校验口令并追加一行登录历史。
func (s *UserService) Login(ctx context.Context, email, password, clientID string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.Active {
		return nil, domain.ErrUserDeactivated
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidPassword
	}

	record := &domain.AuthenticationRecord{
		UserUUID:  user.UUID,
		ClientID:  clientID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.AppendAuthRecord(ctx, record); err != nil {
		return nil, err
	}
	return user, nil
}

// AuthHistory 返回最近的登录记录。
func (s *UserService) AuthHistory(ctx context.Context, userUUID string, limit int) ([]*domain.AuthenticationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.users.AuthHistory(ctx, userUUID, limit)
}

// publishLifecycle 发布用户快照。发布器内部带有界退避重试；
// 重试耗尽属于需要告警的故障，但不能影响已经提交的业务结果。
func (s *UserService) publishLifecycle(ctx context.Context, kind domain.EventKind, user *domain.User) {
	snapshot := domain.UserSnapshot{
		UUID:     user.UUID,
		Email:    user.Email,
		IsActive: user.Active,
	}
	if err := s.publisher.Publish(ctx, kind, snapshot); err != nil {
		s.sink.Capture(ctx, "auth.publish."+string(kind), err)
	}
}
