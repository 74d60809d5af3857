package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecobhandu-be/models"
)

type WalletStore struct {
	col *mongo.Collection
}

func NewWalletStore(db *mongo.Database) *WalletStore {
	return &WalletStore{col: db.Collection(WalletsCollection)}
}

// Get returns the user's wallet. A user who never claimed gets a zero wallet
// with version 0.
func (s *WalletStore) Get(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	var w models.Wallet
	if err := s.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&w); err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			return &models.Wallet{UserID: userID}, nil
		}
		return nil, err
	}
	return &w, nil
}

// Debit adds amount to the wallet's spend only if the wallet is still at
// version. A first debit upserts the row; the unique userId index turns a
// racing first debit into ErrConflict.
func (s *WalletStore) Debit(ctx context.Context, userID primitive.ObjectID, amount, version int64, at time.Time) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"userId": userID, "version": version},
		bson.M{
			"$inc": bson.M{"spent": amount, "version": 1},
			"$set": bson.M{"updatedAt": at},
		},
		options.Update().SetUpsert(version == 0),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConflict
	}
	return nil
}

// Credit returns amount to the wallet, used to undo a debit whose claim could
// not be stored.
func (s *WalletStore) Credit(ctx context.Context, userID primitive.ObjectID, amount int64, at time.Time) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$inc": bson.M{"spent": -amount, "version": 1},
			"$set": bson.M{"updatedAt": at},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
