package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ecobhandu-be/models"
	"ecobhandu-be/store/memstore"
)

type rewardFixture struct {
	*taskFixture
	wallets *memstore.Wallets
	claims  *memstore.Claims
	rewards *RewardService
}

func newRewardFixture(t *testing.T) *rewardFixture {
	t.Helper()
	f := &rewardFixture{
		taskFixture: newTaskFixture(t),
		wallets:     memstore.NewWallets(),
		claims:      &memstore.Claims{},
	}
	f.rewards = NewRewardService(f.reports, f.wallets, f.claims, zap.NewNop())
	return f
}

// earn gives volunteer v the given number of resolved and in-progress reports.
func (f *rewardFixture) earn(t *testing.T, v primitive.ObjectID, resolved, inProgress int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < resolved+inProgress; i++ {
		id := f.newReport(t)
		_, err := f.tasks.Start(ctx, id, v.Hex())
		require.NoError(t, err)
		if i < resolved {
			_, err = f.tasks.UpdateStatus(ctx, id, string(models.Resolved), "")
			require.NoError(t, err)
		}
	}
}

func TestRewardService_Catalog(t *testing.T) {
	f := newRewardFixture(t)

	catalog := f.rewards.Catalog()
	require.Len(t, catalog, 4)
	assert.Equal(t, "water-bottle", catalog[0].ID)

	catalog[0].Cost = 0
	assert.Equal(t, int64(120), models.Rewards[0].Cost)
}

func TestRewardService_ClaimDeductsBalance(t *testing.T) {
	ctx := context.Background()
	f := newRewardFixture(t)
	v := primitive.NewObjectID()
	f.earn(t, v, 13, 0)

	bal, err := f.rewards.Balance(ctx, v.Hex())
	require.NoError(t, err)
	assert.Equal(t, &models.Balance{EcoPoints: 130, Spent: 0, Available: 130}, bal)

	claim, err := f.rewards.Claim(ctx, v.Hex(), "water-bottle")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPending, claim.Status)
	assert.Equal(t, int64(120), claim.Cost)
	assert.Equal(t, "Reusable Bottle", claim.Title)

	bal, err = f.rewards.Balance(ctx, v.Hex())
	require.NoError(t, err)
	assert.Equal(t, &models.Balance{EcoPoints: 130, Spent: 120, Available: 10}, bal)

	_, err = f.rewards.Claim(ctx, v.Hex(), "water-bottle")
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Equal(t, KindInsufficientPoints, KindOf(err))

	claims, err := f.rewards.ListClaims(ctx, v.Hex(), 0)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, claim.ID, claims[0].ID)
}

func TestRewardService_ClaimValidation(t *testing.T) {
	ctx := context.Background()
	f := newRewardFixture(t)
	v := primitive.NewObjectID().Hex()

	_, err := f.rewards.Claim(ctx, "", "tree")
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = f.rewards.Claim(ctx, v, "")
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = f.rewards.Claim(ctx, "bad", "tree")
	assert.ErrorIs(t, err, ErrInvalidUserID)
	_, err = f.rewards.Claim(ctx, v, "yacht")
	assert.ErrorIs(t, err, ErrRewardNotFound)

	_, err = f.rewards.Claim(ctx, v, "tree")
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	claims, err := f.rewards.ListClaims(ctx, v, 0)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestRewardService_AvailableNeverNegative(t *testing.T) {
	ctx := context.Background()
	f := newRewardFixture(t)
	v := primitive.NewObjectID()
	f.wallets.Put(models.Wallet{UserID: v, Spent: 500, Version: 3})
	f.earn(t, v, 1, 1)

	bal, err := f.rewards.Balance(ctx, v.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(15), bal.EcoPoints)
	assert.Equal(t, int64(500), bal.Spent)
	assert.Equal(t, int64(0), bal.Available)
}

func TestRewardService_ClaimRetriesOnWalletRace(t *testing.T) {
	ctx := context.Background()
	f := newRewardFixture(t)
	v := primitive.NewObjectID()
	f.earn(t, v, 40, 0)

	// A competing claim lands between the balance read and the debit.
	f.wallets.BeforeDebit = func() {
		require.NoError(t, f.wallets.Debit(ctx, v, 120, 0, f.rewards.now()))
	}

	claim, err := f.rewards.Claim(ctx, v.Hex(), "tshirt")
	require.NoError(t, err)
	assert.Equal(t, "tshirt", claim.RewardID)

	w, err := f.wallets.Get(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, int64(320), w.Spent)
	assert.Equal(t, int64(2), w.Version)
}

func TestRewardService_ConcurrentClaimsCannotOverspend(t *testing.T) {
	ctx := context.Background()
	f := newRewardFixture(t)
	v := primitive.NewObjectID()
	f.earn(t, v, 30, 0) // 300 points

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.rewards.Claim(ctx, v.Hex(), "water-bottle")
		}()
	}
	wg.Wait()

	bal, err := f.rewards.Balance(ctx, v.Hex())
	require.NoError(t, err)
	assert.LessOrEqual(t, bal.Spent, bal.EcoPoints)

	claims, err := f.rewards.ListClaims(ctx, v.Hex(), 0)
	require.NoError(t, err)
	assert.Equal(t, bal.Spent, int64(len(claims))*120)
}

func TestRewardService_ClaimAtExactBalanceHasOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newRewardFixture(t)
	v := primitive.NewObjectID()
	f.earn(t, v, 12, 0) // 120 points, one water bottle

	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.rewards.Claim(ctx, v.Hex(), "water-bottle")
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var won int
	for err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientPoints)
	}
	assert.Equal(t, 1, won)

	bal, err := f.rewards.Balance(ctx, v.Hex())
	require.NoError(t, err)
	assert.Equal(t, &models.Balance{EcoPoints: 120, Spent: 120, Available: 0}, bal)

	claims, err := f.rewards.ListClaims(ctx, v.Hex(), 0)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestRewardService_FailedClaimInsertRefunds(t *testing.T) {
	ctx := context.Background()
	f := newRewardFixture(t)
	v := primitive.NewObjectID()
	f.earn(t, v, 13, 0)
	f.claims.FailInsert = errStoreDown

	_, err := f.rewards.Claim(ctx, v.Hex(), "water-bottle")
	require.ErrorIs(t, err, errStoreDown)

	bal, err := f.rewards.Balance(ctx, v.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(130), bal.Available)

	f.claims.FailInsert = nil
	claims, err := f.rewards.ListClaims(ctx, v.Hex(), 0)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestRewardService_ListClaimsOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	f := newRewardFixture(t)
	v := primitive.NewObjectID()
	f.earn(t, v, 80, 0)

	for _, id := range []string{"water-bottle", "tshirt", "tree"} {
		_, err := f.rewards.Claim(ctx, v.Hex(), id)
		require.NoError(t, err)
	}

	claims, err := f.rewards.ListClaims(ctx, v.Hex(), 2)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, "tree", claims[0].RewardID)
	assert.Equal(t, "tshirt", claims[1].RewardID)

	_, err = f.rewards.ListClaims(ctx, v.Hex(), -1)
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = f.rewards.ListClaims(ctx, "bad", 0)
	assert.ErrorIs(t, err, ErrInvalidUserID)
}
