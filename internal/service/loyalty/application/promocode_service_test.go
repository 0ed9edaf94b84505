package application

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"promohub/internal/service/loyalty/domain"
)

type fakeCache struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

type fakePromoRepo struct {
	promos map[string]*domain.PromoCode
	calls  int
}

func (r *fakePromoRepo) FindByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	r.calls++
	return r.promos[code], nil
}

func (r *fakePromoRepo) FindByID(ctx context.Context, id uint) (*domain.PromoCode, error) {
	for _, p := range r.promos {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePromoRepo) ListActive(ctx context.Context, now time.Time) ([]*domain.PromoCode, error) {
	var out []*domain.PromoCode
	for _, p := range r.promos {
		if p.IsVisible() && !p.IsExpired(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePromoRepo) Create(ctx context.Context, promo *domain.PromoCode) error { return nil }
func (r *fakePromoRepo) SoftDelete(ctx context.Context, id uint) error             { return nil }

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) FindByUUID(ctx context.Context, uuid string) (*domain.User, error) {
	return r.users[uuid], nil
}

type fakeAccessRepo struct {
	allowed map[uint]bool
}

func (r *fakeAccessRepo) IsAvailable(ctx context.Context, promoCodeID uint, userUUID string, groupIDs []uint) (bool, error) {
	return r.allowed[promoCodeID], nil
}

func (r *fakeAccessRepo) Grant(ctx context.Context, promoCodeID uint, userUUIDs []string, groupIDs []uint) error {
	r.allowed[promoCodeID] = true
	return nil
}

func (r *fakeAccessRepo) Revoke(ctx context.Context, promoCodeID uint) error {
	delete(r.allowed, promoCodeID)
	return nil
}

const (
	testUserUUID = "9f2c1f6a-7a44-4b8e-8f9a-1b2c3d4e5f60"
	testCode     = "SAVE10"
)

func newValidator(t *testing.T, cache *fakeCache, promos *fakePromoRepo, users *fakeUserRepo, access *fakeAccessRepo) *PromoCodeService {
	t.Helper()
	tracer := otel.Tracer("test")
	return NewPromoCodeService(cache, promos, users, NewAccessService(access, tracer), 5*time.Minute, tracer)
}

func validFixture() (*fakeCache, *fakePromoRepo, *fakeUserRepo, *fakeAccessRepo) {
	promo := &domain.PromoCode{
		ID:       1,
		Code:     testCode,
		Kind:     domain.DiscountPercentage,
		Value:    10,
		NumUses:  5,
		IsActive: true,
	}
	return newFakeCache(),
		&fakePromoRepo{promos: map[string]*domain.PromoCode{testCode: promo}},
		&fakeUserRepo{users: map[string]*domain.User{testUserUUID: {UUID: testUserUUID, IsActive: true}}},
		&fakeAccessRepo{allowed: map[uint]bool{1: true}}
}

func TestValidateSuccessAndCachesResult(t *testing.T) {
	cache, promos, users, access := validFixture()
	svc := newValidator(t, cache, promos, users, access)

	promo, err := svc.Validate(context.Background(), testCode, testUserUUID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), promo.ID)
	assert.Equal(t, domain.DiscountPercentage, promo.Kind)

	// 无过期日的码用默认 TTL 缓存
	assert.Contains(t, cache.entries, "promocode:"+testCode)
	assert.Equal(t, 5*time.Minute, cache.ttls["promocode:"+testCode])
}

func TestValidateCacheHitShortCircuitsStore(t *testing.T) {
	cache, promos, users, access := validFixture()
	svc := newValidator(t, cache, promos, users, access)

	_, err := svc.Validate(context.Background(), testCode, testUserUUID)
	require.NoError(t, err)
	require.Equal(t, 1, promos.calls)

	// 第二次命中缓存，存储不再被触达
	promo, err := svc.Validate(context.Background(), testCode, testUserUUID)
	require.NoError(t, err)
	assert.Equal(t, testCode, promo.Code)
	assert.Equal(t, 1, promos.calls)
}

func TestValidateCacheStoresEligibilityOnly(t *testing.T) {
	cache, promos, users, access := validFixture()
	svc := newValidator(t, cache, promos, users, access)

	_, err := svc.Validate(context.Background(), testCode, testUserUUID)
	require.NoError(t, err)

	// 缓存命中返回的聚合不得携带剩余次数
	promo, err := svc.Validate(context.Background(), testCode, testUserUUID)
	require.NoError(t, err)
	assert.Zero(t, promo.NumUses)
}

func TestValidateRejections(t *testing.T) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)

	tests := []struct {
		name    string
		mutate  func(cache *fakeCache, promos *fakePromoRepo, users *fakeUserRepo, access *fakeAccessRepo)
		wantErr error
	}{
		{
			name: "unknown code",
			mutate: func(_ *fakeCache, promos *fakePromoRepo, _ *fakeUserRepo, _ *fakeAccessRepo) {
				delete(promos.promos, testCode)
			},
			wantErr: domain.ErrPromoCodeNotFound,
		},
		{
			name: "deactivated code",
			mutate: func(_ *fakeCache, promos *fakePromoRepo, _ *fakeUserRepo, _ *fakeAccessRepo) {
				promos.promos[testCode].IsActive = false
			},
			wantErr: domain.ErrPromoCodeNotFound,
		},
		{
			name: "soft-deleted code",
			mutate: func(_ *fakeCache, promos *fakePromoRepo, _ *fakeUserRepo, _ *fakeAccessRepo) {
				promos.promos[testCode].IsDeleted = true
			},
			wantErr: domain.ErrPromoCodeNotFound,
		},
		{
			name: "unknown user",
			mutate: func(_ *fakeCache, _ *fakePromoRepo, users *fakeUserRepo, _ *fakeAccessRepo) {
				delete(users.users, testUserUUID)
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name: "no entitlement",
			mutate: func(_ *fakeCache, _ *fakePromoRepo, _ *fakeUserRepo, access *fakeAccessRepo) {
				access.allowed[1] = false
			},
			wantErr: domain.ErrForbidden,
		},
		{
			name: "expired yesterday",
			mutate: func(_ *fakeCache, promos *fakePromoRepo, _ *fakeUserRepo, _ *fakeAccessRepo) {
				promos.promos[testCode].ExpirationDate = &yesterday
			},
			wantErr: domain.ErrExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, promos, users, access := validFixture()
			tt.mutate(cache, promos, users, access)
			svc := newValidator(t, cache, promos, users, access)

			_, err := svc.Validate(context.Background(), testCode, testUserUUID)
			assert.ErrorIs(t, err, tt.wantErr)
			// 失败不落缓存
			assert.Empty(t, cache.entries)
		})
	}
}

func TestValidateExpiringTodayStillValid(t *testing.T) {
	cache, promos, users, access := validFixture()
	today := time.Now().UTC()
	promos.promos[testCode].ExpirationDate = &today
	svc := newValidator(t, cache, promos, users, access)

	_, err := svc.Validate(context.Background(), testCode, testUserUUID)
	require.NoError(t, err)

	// 缓存 TTL 被过期日收窄，不会活过促销码本身
	assert.LessOrEqual(t, cache.ttls["promocode:"+testCode], 24*time.Hour)
}

func TestValidateCacheFailureDegradesToStore(t *testing.T) {
	cache, promos, users, access := validFixture()
	cache.getErr = errors.New("redis down")
	svc := newValidator(t, cache, promos, users, access)

	promo, err := svc.Validate(context.Background(), testCode, testUserUUID)
	require.NoError(t, err)
	assert.Equal(t, testCode, promo.Code)
	assert.Equal(t, 1, promos.calls)
}

func TestListActiveForUser(t *testing.T) {
	cache, promos, users, access := validFixture()
	promos.promos["HIDDEN"] = &domain.PromoCode{ID: 2, Code: "HIDDEN", Kind: domain.DiscountFixed, Value: 5, IsActive: true}
	svc := newValidator(t, cache, promos, users, access)

	out, err := svc.ListActiveForUser(context.Background(), testUserUUID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, testCode, out[0].Code)

	_, err = svc.ListActiveForUser(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
