package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"promohub/internal/service/loyalty/domain"
)

type fakeTariffRepo struct {
	tariffs map[uint]*domain.Tariff
}

func (r *fakeTariffRepo) FindByID(ctx context.Context, id uint) (*domain.Tariff, error) {
	return r.tariffs[id], nil
}
func (r *fakeTariffRepo) Create(ctx context.Context, tariff *domain.Tariff) error { return nil }
func (r *fakeTariffRepo) SoftDelete(ctx context.Context, id uint) error           { return nil }

// fakeRedemptionRepo 在内存里模拟条件扣减和幂等取消。
type fakeRedemptionRepo struct {
	remaining map[uint]int
	purchases map[uint]*domain.Purchase
	nextID    uint
}

func newFakeRedemptionRepo(remaining map[uint]int) *fakeRedemptionRepo {
	return &fakeRedemptionRepo{remaining: remaining, purchases: map[uint]*domain.Purchase{}, nextID: 1}
}

func (r *fakeRedemptionRepo) Redeem(ctx context.Context, purchase *domain.Purchase) error {
	id := *purchase.PromoCodeID
	if r.remaining[id] <= 0 {
		return domain.ErrUsageLimitReached
	}
	r.remaining[id]--
	purchase.ID = r.nextID
	r.nextID++
	cp := *purchase
	r.purchases[purchase.ID] = &cp
	return nil
}

func (r *fakeRedemptionRepo) FindPurchase(ctx context.Context, purchaseID uint) (*domain.Purchase, error) {
	return r.purchases[purchaseID], nil
}

func (r *fakeRedemptionRepo) Cancel(ctx context.Context, purchaseID uint, userUUID string) error {
	p, ok := r.purchases[purchaseID]
	if !ok || p.UserUUID != userUUID {
		return domain.ErrPurchaseNotFound
	}
	if !p.IsSuccessful {
		return domain.ErrAlreadyCancelled
	}
	p.IsSuccessful = false
	r.remaining[*p.PromoCodeID]++
	return nil
}

func newPurchaseFixture(t *testing.T, kind domain.DiscountKind, value float64, remaining int) (*PurchaseService, *fakeRedemptionRepo) {
	t.Helper()

	cache, promos, users, access := validFixture()
	promo := promos.promos[testCode]
	promo.Kind = kind
	promo.Value = value

	tracer := otel.Tracer("test")
	validator := NewPromoCodeService(cache, promos, users, NewAccessService(access, tracer), time.Minute, tracer)
	redemptions := newFakeRedemptionRepo(map[uint]int{promo.ID: remaining})
	tariffs := &fakeTariffRepo{tariffs: map[uint]*domain.Tariff{7: {ID: 7, Name: "Pro", Price: 100}}}
	return NewPurchaseService(tariffs, redemptions, validator, tracer), redemptions
}

func TestApplyComputesPriceWithoutSideEffects(t *testing.T) {
	svc, redemptions := newPurchaseFixture(t, domain.DiscountPercentage, 10, 5)

	res, err := svc.Apply(context.Background(), testUserUUID, testCode, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.DiscountPercentage, res.DiscountKind)
	assert.Equal(t, 10.0, res.DiscountValue)
	assert.Equal(t, 90.0, res.FinalAmount)
	assert.Zero(t, res.PurchaseID)
	assert.Empty(t, redemptions.purchases)
}

func TestRedeemDecrementsCounter(t *testing.T) {
	svc, redemptions := newPurchaseFixture(t, domain.DiscountPercentage, 10, 5)

	res, err := svc.Redeem(context.Background(), testUserUUID, testCode, 7)
	require.NoError(t, err)
	assert.Equal(t, 90.0, res.FinalAmount)
	assert.NotZero(t, res.PurchaseID)
	assert.Equal(t, 4, redemptions.remaining[1])
}

func TestRedeemExhaustedCode(t *testing.T) {
	svc, redemptions := newPurchaseFixture(t, domain.DiscountFixed, 30, 1)

	_, err := svc.Redeem(context.Background(), testUserUUID, testCode, 7)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), testUserUUID, testCode, 7)
	assert.ErrorIs(t, err, domain.ErrUsageLimitReached)
	assert.Equal(t, 0, redemptions.remaining[1])
}

func TestRedeemUnknownTariff(t *testing.T) {
	svc, _ := newPurchaseFixture(t, domain.DiscountPercentage, 10, 5)

	_, err := svc.Redeem(context.Background(), testUserUUID, testCode, 99)
	assert.ErrorIs(t, err, domain.ErrTariffNotFound)
}

func TestRedeemTrialIsFree(t *testing.T) {
	svc, _ := newPurchaseFixture(t, domain.DiscountTrial, 0, 1)

	res, err := svc.Redeem(context.Background(), testUserUUID, testCode, 7)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.FinalAmount)
}

func TestCancelRestoresCounterOnce(t *testing.T) {
	svc, redemptions := newPurchaseFixture(t, domain.DiscountPercentage, 10, 5)

	res, err := svc.Redeem(context.Background(), testUserUUID, testCode, 7)
	require.NoError(t, err)
	require.Equal(t, 4, redemptions.remaining[1])

	require.NoError(t, svc.Cancel(context.Background(), res.PurchaseID, testUserUUID))
	assert.Equal(t, 5, redemptions.remaining[1])

	// 重复取消是无操作成功，计数器不会被还回两次
	require.NoError(t, svc.Cancel(context.Background(), res.PurchaseID, testUserUUID))
	assert.Equal(t, 5, redemptions.remaining[1])
}

func TestCancelWrongOwner(t *testing.T) {
	svc, _ := newPurchaseFixture(t, domain.DiscountPercentage, 10, 5)

	res, err := svc.Redeem(context.Background(), testUserUUID, testCode, 7)
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), res.PurchaseID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrPurchaseNotFound)
}
