package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecobhandu-be/models"
)

// ReportRepository persists reports. Implementations return store.ErrNotFound
// when nothing matches.
type ReportRepository interface {
	Insert(ctx context.Context, r *models.Report) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	List(ctx context.Context, f models.ReportFilter) ([]models.Report, error)
	Transition(ctx context.Context, id primitive.ObjectID, t models.ReportTransition) (*models.Report, error)
	ToggleUpvote(ctx context.Context, id, userID primitive.ObjectID, at time.Time) (bool, int, error)
	AddComment(ctx context.Context, id primitive.ObjectID, c models.Comment) error
	DeleteOwned(ctx context.Context, id, ownerID primitive.ObjectID) error
	Stats(ctx context.Context) (*models.ReportStats, error)
	AssignmentCounter
}

// AssignmentCounter counts a volunteer's resolved and in-progress reports.
type AssignmentCounter interface {
	CountAssignedByStatus(ctx context.Context, volunteerID primitive.ObjectID) (resolved, inProgress int64, err error)
}

type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	IncrementReports(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type ClaimRepository interface {
	Insert(ctx context.Context, c *models.RewardClaim) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.RewardClaim, error)
}

// WalletRepository keeps the version-stamped spend row. Debit returns
// store.ErrConflict when the wallet is no longer at version.
type WalletRepository interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)
	Debit(ctx context.Context, userID primitive.ObjectID, amount, version int64, at time.Time) error
	Credit(ctx context.Context, userID primitive.ObjectID, amount int64, at time.Time) error
}

// Publisher fans report events out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev models.ReportEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.ReportEvent) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
