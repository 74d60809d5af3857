package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecobhandu-be/models"
)

type ClaimStore struct {
	col *mongo.Collection
}

func NewClaimStore(db *mongo.Database) *ClaimStore {
	return &ClaimStore{col: db.Collection(ClaimsCollection)}
}

func (s *ClaimStore) Insert(ctx context.Context, c *models.RewardClaim) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, c)
	return translate(err)
}

// ListByUser returns the user's claims, newest first.
func (s *ClaimStore) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.RewardClaim, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	claims := make([]models.RewardClaim, 0)
	if err := cursor.All(ctx, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}
