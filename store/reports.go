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

const topCategories = 10

type ReportStore struct {
	col *mongo.Collection
}

func NewReportStore(db *mongo.Database) *ReportStore {
	return &ReportStore{col: db.Collection(ReportsCollection)}
}

// Insert stores r and sets its ID.
func (s *ReportStore) Insert(ctx context.Context, r *models.Report) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, r)
	return translate(err)
}

func (s *ReportStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var r models.Report
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// List returns reports matching every set filter, newest first.
func (s *ReportStore) List(ctx context.Context, f models.ReportFilter) ([]models.Report, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Severity != "" {
		filter["severity"] = f.Severity
	}
	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := make([]models.Report, 0)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// Transition applies t in a single conditional write and returns the updated
// report. ErrNotFound means either no such report or a condition did not hold.
func (s *ReportStore) Transition(ctx context.Context, id primitive.ObjectID, t models.ReportTransition) (*models.Report, error) {
	set := bson.M{
		"status":    t.Status,
		"updatedAt": t.At,
	}
	if t.AssignTo != nil {
		set["assignedTo"] = *t.AssignTo
	}
	if t.ResolvedAt != nil {
		set["resolvedAt"] = *t.ResolvedAt
	}
	if t.Resolution != nil {
		set["resolvedBy"] = t.Resolution.By
		set["resolutionNotes"] = t.Resolution.Notes
		set["resolvedImage"] = t.Resolution.Image
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Report
	err := s.col.FindOneAndUpdate(ctx, transitionFilter(id, t), bson.M{"$set": set}, opts).Decode(&r)
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func transitionFilter(id primitive.ObjectID, t models.ReportTransition) bson.M {
	filter := bson.M{"_id": id}
	if len(t.From) > 0 {
		filter["status"] = bson.M{"$in": t.From}
	}

	var and []bson.M
	if t.RequireAssigned {
		and = append(and, bson.M{"assignedTo": bson.M{"$ne": nil}})
	}
	if len(t.Assignees) > 0 {
		or := make([]bson.M, 0, len(t.Assignees))
		for _, a := range t.Assignees {
			if a == nil {
				or = append(or, bson.M{"assignedTo": nil})
			} else {
				or = append(or, bson.M{"assignedTo": *a})
			}
		}
		and = append(and, bson.M{"$or": or})
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

// ToggleUpvote adds userID to the report's upvoters, or removes it when
// already present. Each branch is a conditional update that recomputes the
// counter from the set, so a drifted counter is repaired on the next toggle.
func (s *ReportStore) ToggleUpvote(ctx context.Context, id, userID primitive.ObjectID, at time.Time) (bool, int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"upvotes": 1})
	voters := bson.M{"$ifNull": bson.A{"$upvotedBy", bson.A{}}}
	recount := bson.D{{Key: "$set", Value: bson.M{"upvotes": bson.M{"$size": "$upvotedBy"}}}}

	for attempt := 0; attempt < 3; attempt++ {
		var r models.Report
		err := s.col.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "upvotedBy": bson.M{"$ne": userID}},
			mongo.Pipeline{
				{{Key: "$set", Value: bson.M{
					"upvotedBy": bson.M{"$setUnion": bson.A{voters, bson.A{userID}}},
					"updatedAt": at,
				}}},
				recount,
			}, opts).Decode(&r)
		if err == nil {
			return true, r.Upvotes, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return false, 0, err
		}

		err = s.col.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "upvotedBy": userID},
			mongo.Pipeline{
				{{Key: "$set", Value: bson.M{
					"upvotedBy": bson.M{"$setDifference": bson.A{voters, bson.A{userID}}},
					"updatedAt": at,
				}}},
				recount,
			}, opts).Decode(&r)
		if err == nil {
			return false, r.Upvotes, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return false, 0, err
		}

		n, err := s.col.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return false, 0, err
		}
		if n == 0 {
			return false, 0, ErrNotFound
		}
	}
	return false, 0, ErrConflict
}

func (s *ReportStore) AddComment(ctx context.Context, id primitive.ObjectID, c models.Comment) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"comments": c},
			"$set":  bson.M{"updatedAt": c.CreatedAt},
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

// DeleteOwned deletes the report only when ownerID owns it.
func (s *ReportStore) DeleteOwned(ctx context.Context, id, ownerID primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id, "userId": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats computes every summary in one $facet aggregation.
func (s *ReportStore) Stats(ctx context.Context) (*models.ReportStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"total": bson.A{bson.M{"$count": "count"}},
			"byStatus": bson.A{
				bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
			"bySeverity": bson.A{
				bson.M{"$group": bson.M{"_id": "$severity", "count": bson.M{"$sum": 1}}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
			"byCategory": bson.A{
				bson.M{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
				bson.M{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
				bson.M{"$limit": topCategories},
			},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var facets []struct {
		Total []struct {
			Count int64 `bson:"count"`
		} `bson:"total"`
		ByStatus   []models.GroupCount `bson:"byStatus"`
		BySeverity []models.GroupCount `bson:"bySeverity"`
		ByCategory []models.GroupCount `bson:"byCategory"`
	}
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, err
	}

	stats := &models.ReportStats{
		ByStatus:      []models.GroupCount{},
		BySeverity:    []models.GroupCount{},
		TopCategories: []models.GroupCount{},
	}
	if len(facets) == 0 {
		return stats, nil
	}
	f := facets[0]
	if len(f.Total) > 0 {
		stats.Total = f.Total[0].Count
	}
	if f.ByStatus != nil {
		stats.ByStatus = f.ByStatus
	}
	if f.BySeverity != nil {
		stats.BySeverity = f.BySeverity
	}
	if f.ByCategory != nil {
		stats.TopCategories = f.ByCategory
	}
	return stats, nil
}

// CountAssignedByStatus counts the volunteer's assigned reports that are
// resolved and in progress.
func (s *ReportStore) CountAssignedByStatus(ctx context.Context, volunteerID primitive.ObjectID) (int64, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"assignedTo": volunteerID,
			"status":     bson.M{"$in": bson.A{models.Resolved, models.InProgress}},
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var groups []models.GroupCount
	if err := cursor.All(ctx, &groups); err != nil {
		return 0, 0, err
	}

	var resolved, inProgress int64
	for _, g := range groups {
		switch models.ReportStatus(g.Name) {
		case models.Resolved:
			resolved = g.Count
		case models.InProgress:
			inProgress = g.Count
		}
	}
	return resolved, inProgress, nil
}
