package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Points awarded per assigned report, recomputed on every read.
const (
	PointsPerResolved   = 10
	PointsPerInProgress = 5
)

// EcoPoints computes a volunteer's earned points from their assigned report counts.
func EcoPoints(resolved, inProgress int64) int64 {
	return PointsPerResolved*resolved + PointsPerInProgress*inProgress
}

type Reward struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	Sponsor     string `json:"sponsor"`
}

// Rewards is the server-defined catalog.
var Rewards = []Reward{
	{ID: "water-bottle", Title: "Reusable Bottle", Description: "Eco-friendly stainless bottle", Cost: 120, Sponsor: "GreenCo"},
	{ID: "tshirt", Title: "Eco Tee", Description: "Organic cotton volunteer t-shirt", Cost: 200, Sponsor: "EarthWear"},
	{ID: "voucher", Title: "Local Cafe Voucher", Description: "Free sustainable coffee voucher", Cost: 300, Sponsor: "BeanCycle"},
	{ID: "tree", Title: "Tree Planting Slot", Description: "Sponsor a sapling planting", Cost: 450, Sponsor: "PlantMore"},
}

// FindReward looks up a catalog entry by id.
func FindReward(id string) (Reward, bool) {
	for _, r := range Rewards {
		if r.ID == id {
			return r, true
		}
	}
	return Reward{}, false
}

// ClaimStatus enum
type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "pending"
	ClaimDelivered ClaimStatus = "delivered"
)

type RewardClaim struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	RewardID  string             `bson:"rewardId" json:"rewardId"`
	Title     string             `bson:"title" json:"title"`
	Cost      int64              `bson:"cost" json:"cost"`
	Sponsor   string             `bson:"sponsor" json:"sponsor"`
	Status    ClaimStatus        `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Wallet is the version-stamped spend row for a user. Every write bumps Version,
// so a debit can be made conditional on the version that was read.
type Wallet struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Spent     int64              `bson:"spent" json:"spent"`
	Version   int64              `bson:"version" json:"version"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Balance is a user's derived point position.
type Balance struct {
	EcoPoints int64 `json:"ecoPoints"`
	Spent     int64 `json:"spent"`
	Available int64 `json:"available"`
}

// VolunteerStats summarises a volunteer's assigned tasks.
type VolunteerStats struct {
	TasksCompleted int64 `json:"tasksCompleted"`
	InProgress     int64 `json:"inProgress"`
	EcoPoints      int64 `json:"ecoPoints"`
}
