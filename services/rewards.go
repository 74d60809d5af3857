package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ecobhandu-be/metrics"
	"ecobhandu-be/models"
	"ecobhandu-be/store"
)

// claimAttempts bounds how often a claim re-reads the wallet after losing a race.
const claimAttempts = 3

type RewardService struct {
	counter AssignmentCounter
	wallets WalletRepository
	claims  ClaimRepository
	log     *zap.Logger
	now     func() time.Time
}

func NewRewardService(counter AssignmentCounter, wallets WalletRepository, claims ClaimRepository, log *zap.Logger) *RewardService {
	return &RewardService{
		counter: counter,
		wallets: wallets,
		claims:  claims,
		log:     log,
		now:     time.Now,
	}
}

func (s *RewardService) Catalog() []models.Reward {
	out := make([]models.Reward, len(models.Rewards))
	copy(out, models.Rewards)
	return out
}

// Balance returns the user's earned, spent and available points.
func (s *RewardService) Balance(ctx context.Context, userID string) (*models.Balance, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	b, _, err := s.balance(ctx, uid)
	return b, err
}

func (s *RewardService) balance(ctx context.Context, uid primitive.ObjectID) (*models.Balance, *models.Wallet, error) {
	resolved, inProgress, err := s.counter.CountAssignedByStatus(ctx, uid)
	if err != nil {
		return nil, nil, fmt.Errorf("count assigned reports: %w", err)
	}
	wallet, err := s.wallets.Get(ctx, uid)
	if err != nil {
		return nil, nil, fmt.Errorf("get wallet: %w", err)
	}

	earned := models.EcoPoints(resolved, inProgress)
	available := earned - wallet.Spent
	if available < 0 {
		available = 0
	}
	return &models.Balance{EcoPoints: earned, Spent: wallet.Spent, Available: available}, wallet, nil
}

// Claim redeems rewardID for userID. The wallet is debited with a
// compare-and-swap on its version before the claim is written, so concurrent
// claims cannot spend the same points twice.
func (s *RewardService) Claim(ctx context.Context, userID, rewardID string) (*models.RewardClaim, error) {
	if userID == "" || rewardID == "" {
		return nil, validation("userId and rewardId are required")
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	reward, ok := models.FindReward(rewardID)
	if !ok {
		return nil, ErrRewardNotFound
	}

	claim, err := s.claim(ctx, uid, reward)
	metrics.RecordClaim(reward.ID, err)
	return claim, err
}

func (s *RewardService) claim(ctx context.Context, uid primitive.ObjectID, reward models.Reward) (*models.RewardClaim, error) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		bal, wallet, err := s.balance(ctx, uid)
		if err != nil {
			return nil, err
		}
		if bal.Available < reward.Cost {
			return nil, ErrInsufficientPoints
		}

		now := s.now()
		err = s.wallets.Debit(ctx, uid, reward.Cost, wallet.Version, now)
		if errors.Is(err, store.ErrConflict) {
			s.log.Debug("wallet changed during claim, retrying",
				zap.String("user_id", uid.Hex()), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("debit wallet: %w", err)
		}

		claim := &models.RewardClaim{
			UserID:    uid,
			RewardID:  reward.ID,
			Title:     reward.Title,
			Cost:      reward.Cost,
			Sponsor:   reward.Sponsor,
			Status:    models.ClaimPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.claims.Insert(ctx, claim); err != nil {
			if cerr := s.wallets.Credit(ctx, uid, reward.Cost, s.now()); cerr != nil {
				s.log.Error("failed to refund wallet after claim insert failure",
					zap.String("user_id", uid.Hex()),
					zap.Int64("amount", reward.Cost),
					zap.Error(cerr))
			}
			return nil, fmt.Errorf("insert claim: %w", err)
		}

		s.log.Info("reward claimed",
			zap.String("user_id", uid.Hex()),
			zap.String("reward_id", reward.ID),
			zap.Int64("cost", reward.Cost))
		return claim, nil
	}
	return nil, conflict("Balance changed while claiming, please retry")
}

// ListClaims returns the user's claims newest first.
func (s *RewardService) ListClaims(ctx context.Context, userID string, limit int) ([]models.RewardClaim, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	if limit < 0 {
		return nil, validation("Limit must be positive")
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	claims, err := s.claims.ListByUser(ctx, uid, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}
