package application

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"promohub/internal/service/auth/domain"
)

type memoryUserRepo struct {
	byEmail map[string]*domain.User
	byUUID  map[string]*domain.User
	records []*domain.AuthenticationRecord
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byEmail: map[string]*domain.User{}, byUUID: map[string]*domain.User{}}
}

func (r *memoryUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.byEmail[user.Email] = user
	r.byUUID[user.UUID] = user
	return nil
}

func (r *memoryUserRepo) FindByUUID(ctx context.Context, uuid string) (*domain.User, error) {
	return r.byUUID[uuid], nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.byEmail[email], nil
}

func (r *memoryUserRepo) Deactivate(ctx context.Context, uuid string) error {
	if u := r.byUUID[uuid]; u != nil {
		u.Active = false
	}
	return nil
}

func (r *memoryUserRepo) AppendAuthRecord(ctx context.Context, record *domain.AuthenticationRecord) error {
	r.records = append(r.records, record)
	return nil
}

func (r *memoryUserRepo) AuthHistory(ctx context.Context, userUUID string, limit int) ([]*domain.AuthenticationRecord, error) {
	var out []*domain.AuthenticationRecord
	for _, rec := range r.records {
		if rec.UserUUID == userUUID {
			out = append(out, rec)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type publishedEvent struct {
	kind     domain.EventKind
	snapshot domain.UserSnapshot
}

type recordingPublisher struct {
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, kind domain.EventKind, snapshot domain.UserSnapshot) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{kind: kind, snapshot: snapshot})
	return nil
}

type recordingSink struct {
	captured []string
}

func (s *recordingSink) Capture(ctx context.Context, component string, err error) {
	s.captured = append(s.captured, component)
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func newUserService(t *testing.T) (*UserService, *memoryUserRepo, *recordingPublisher, *recordingSink) {
	t.Helper()

	repo := newMemoryUserRepo()
	publisher := &recordingPublisher{}
	sink := &recordingSink{}
	svc := NewUserService(repo, publisher, plainHasher{}, sink, otel.Tracer("test"))
	return svc, repo, publisher, sink
}

func TestRegisterPublishesRegistrationEvent(t *testing.T) {
	svc, repo, publisher, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "ada@example.com", "s3cret", "Ada", "Lovelace")
	require.NoError(t, err)
	require.NotEmpty(t, user.UUID)
	assert.True(t, user.Active)
	assert.Equal(t, "hashed:s3cret", repo.byEmail["ada@example.com"].PasswordHash)

	require.Len(t, publisher.events, 1)
	ev := publisher.events[0]
	assert.Equal(t, domain.EventRegistration, ev.kind)
	assert.Equal(t, user.UUID, ev.snapshot.UUID)
	assert.Equal(t, "ada@example.com", ev.snapshot.Email)
	assert.True(t, ev.snapshot.IsActive)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, publisher, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@example.com", "s3cret", "Ada", "Lovelace")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ada@example.com", "other", "Another", "Ada")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.Len(t, publisher.events, 1)
}

func TestRegisterSurvivesPublishFailure(t *testing.T) {
	svc, repo, publisher, sink := newUserService(t)
	publisher.err = errors.New("broker unreachable")
	ctx := context.Background()

	// 发布失败上报错误收集器，但注册本身已提交、必须成功
	user, err := svc.Register(ctx, "ada@example.com", "s3cret", "Ada", "Lovelace")
	require.NoError(t, err)
	assert.NotNil(t, repo.byUUID[user.UUID])
	require.Len(t, sink.captured, 1)
	assert.Equal(t, "auth.publish.registration", sink.captured[0])
}

func TestDeactivatePublishesDeleteEvent(t *testing.T) {
	svc, repo, publisher, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "ada@example.com", "s3cret", "Ada", "Lovelace")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, user.UUID))
	assert.False(t, repo.byUUID[user.UUID].Active)

	require.Len(t, publisher.events, 2)
	ev := publisher.events[1]
	assert.Equal(t, domain.EventDelete, ev.kind)
	assert.Equal(t, user.UUID, ev.snapshot.UUID)
	assert.False(t, ev.snapshot.IsActive)
}

func TestDeactivateUnknownUser(t *testing.T) {
	svc, _, _, _ := newUserService(t)
	err := svc.Deactivate(context.Background(), "no-such-uuid")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLogin(t *testing.T) {
	svc, repo, _, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "ada@example.com", "s3cret", "Ada", "Lovelace")
	require.NoError(t, err)

	got, err := svc.Login(ctx, "ada@example.com", "s3cret", "cli-1")
	require.NoError(t, err)
	assert.Equal(t, user.UUID, got.UUID)
	require.Len(t, repo.records, 1)
	assert.Equal(t, "cli-1", repo.records[0].ClientID)

	_, err = svc.Login(ctx, "ada@example.com", "wrong", "cli-1")
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.Login(ctx, "nobody@example.com", "s3cret", "cli-1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, svc.Deactivate(ctx, user.UUID))
	_, err = svc.Login(ctx, "ada@example.com", "s3cret", "cli-1")
	assert.ErrorIs(t, err, domain.ErrUserDeactivated)
}

func TestAuthHistoryLimit(t *testing.T) {
	svc, _, _, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "ada@example.com", "s3cret", "Ada", "Lovelace")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, "ada@example.com", "s3cret", "cli-1")
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	records, err := svc.AuthHistory(ctx, user.UUID, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
