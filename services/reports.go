package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ecobhandu-be/metrics"
	"ecobhandu-be/models"
	"ecobhandu-be/store"
)

// DefaultListLimit applies when a list request does not name a limit.
const DefaultListLimit = 50

type ReportService struct {
	reports ReportRepository
	users   UserRepository
	events  Publisher
	log     *zap.Logger
	now     func() time.Time
}

func NewReportService(reports ReportRepository, users UserRepository, events Publisher, log *zap.Logger) *ReportService {
	return &ReportService{
		reports: reports,
		users:   users,
		events:  publisherOrNop(events),
		log:     log,
		now:     time.Now,
	}
}

type CreateReportInput struct {
	UserID      string
	UserName    string
	UserEmail   string
	Category    string
	Description string
	Severity    string
	IsUrgent    *bool
	Location    string
	Latitude    *float64
	Longitude   *float64
	Image       *string
}

// Create validates and stores a new Pending, unassigned report and bumps the
// owner's report counter.
func (s *ReportService) Create(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	category := strings.TrimSpace(in.Category)
	description := strings.TrimSpace(in.Description)
	location := strings.TrimSpace(in.Location)
	if in.UserID == "" || category == "" || description == "" || location == "" || in.Latitude == nil && in.Longitude == nil {
		return nil, validation("Required fields: userId, category, description, location, coordinates")
	}
	if in.Latitude == nil || in.Longitude == nil {
		return nil, validation("Coordinates must include latitude and longitude")
	}
	if err := validateCoordinates(*in.Latitude, *in.Longitude); err != nil {
		return nil, err
	}

	severity := models.Minor
	if in.Severity != "" {
		severity = models.Severity(in.Severity)
		if !severity.Valid() {
			return nil, validation("Invalid severity")
		}
	}

	userID, err := primitive.ObjectIDFromHex(in.UserID)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := s.now()
	report := &models.Report{
		UserID:      userID,
		UserName:    firstNonEmpty(in.UserName, user.Name),
		UserEmail:   firstNonEmpty(in.UserEmail, user.Email),
		Category:    category,
		Description: description,
		Severity:    severity,
		IsUrgent:    in.IsUrgent != nil && *in.IsUrgent,
		Location:    location,
		Coordinates: models.Coordinates{Latitude: *in.Latitude, Longitude: *in.Longitude},
		Image:       nonEmpty(in.Image),
		Status:      models.Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
		UpvotedBy:   []primitive.ObjectID{},
		Comments:    []models.Comment{},
	}

	if err := s.reports.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	if err := s.users.IncrementReports(ctx, userID, now); err != nil {
		s.log.Warn("failed to update user report count",
			zap.String("user_id", userID.Hex()), zap.Error(err))
	}

	metrics.RecordReportCreated(string(severity))
	s.events.Publish(ctx, models.ReportEvent{
		Type:     models.EventReportCreated,
		ReportID: report.ID.Hex(),
		Status:   report.Status,
		ActorID:  userID.Hex(),
		At:       now,
	})
	s.log.Info("report created",
		zap.String("report_id", report.ID.Hex()), zap.String("user_id", userID.Hex()))
	return report, nil
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return validation("Coordinates must be finite numbers")
	}
	if lat < -90 || lat > 90 {
		return validation("Latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return validation("Longitude must be between -180 and 180")
	}
	return nil
}

type ListReportsInput struct {
	Status   string
	Category string
	Severity string
	UserID   string
	Limit    int
}

// List returns reports matching every given filter, newest first.
func (s *ReportService) List(ctx context.Context, in ListReportsInput) ([]models.Report, error) {
	f := models.ReportFilter{
		Status:   models.ReportStatus(in.Status),
		Category: in.Category,
		Severity: models.Severity(in.Severity),
		Limit:    DefaultListLimit,
	}
	if in.Limit < 0 {
		return nil, validation("Limit must be positive")
	}
	if in.Limit > 0 {
		f.Limit = int64(in.Limit)
	}
	if in.UserID != "" {
		id, err := primitive.ObjectIDFromHex(in.UserID)
		if err != nil {
			return nil, ErrInvalidUserID
		}
		f.UserID = &id
	}

	reports, err := s.reports.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Get returns one report. Malformed ids are reported as not found.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	reportID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	return s.find(ctx, reportID)
}

func (s *ReportService) find(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	r, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return r, nil
}

type UpvoteResult struct {
	Upvoted bool `json:"upvoted"`
	Upvotes int  `json:"upvotes"`
}

// Upvote toggles userID's upvote on the report.
func (s *ReportService) Upvote(ctx context.Context, id, userID string) (*UpvoteResult, error) {
	reportID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	now := s.now()
	upvoted, count, err := s.reports.ToggleUpvote(ctx, reportID, uid, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		if errors.Is(err, store.ErrConflict) {
			return nil, conflict("Report changed while upvoting, please retry")
		}
		return nil, fmt.Errorf("toggle upvote: %w", err)
	}

	s.events.Publish(ctx, models.ReportEvent{
		Type:     models.EventReportUpvoted,
		ReportID: id,
		ActorID:  userID,
		At:       now,
	})
	return &UpvoteResult{Upvoted: upvoted, Upvotes: count}, nil
}

// AddComment appends an immutable comment to the report.
func (s *ReportService) AddComment(ctx context.Context, id, userID, userName, text string) (*models.Comment, error) {
	reportID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	text = strings.TrimSpace(text)
	if userID == "" || text == "" {
		return nil, validation("userId and comment are required")
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	c := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    uid,
		UserName:  strings.TrimSpace(userName),
		Comment:   text,
		CreatedAt: s.now(),
	}
	if err := s.reports.AddComment(ctx, reportID, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("add comment: %w", err)
	}

	s.events.Publish(ctx, models.ReportEvent{
		Type:     models.EventReportCommented,
		ReportID: id,
		ActorID:  userID,
		At:       c.CreatedAt,
	})
	return &c, nil
}

func (s *ReportService) Stats(ctx context.Context) (*models.ReportStats, error) {
	stats, err := s.reports.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}
	return stats, nil
}

// Delete removes the report when userID owns it.
func (s *ReportService) Delete(ctx context.Context, id, userID string) error {
	reportID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrReportNotFound
	}
	if userID == "" {
		return validation("userId is required")
	}
	// A malformed requester id cannot own the report, but a missing report
	// is still reported as missing.
	uid, err := primitive.ObjectIDFromHex(userID)
	if err == nil {
		err = s.reports.DeleteOwned(ctx, reportID, uid)
	} else {
		err = store.ErrNotFound
	}
	if errors.Is(err, store.ErrNotFound) {
		if _, ferr := s.find(ctx, reportID); ferr != nil {
			return ferr
		}
		return ErrNotReportOwner
	}
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	s.events.Publish(ctx, models.ReportEvent{
		Type:     models.EventReportDeleted,
		ReportID: id,
		ActorID:  userID,
		At:       s.now(),
	})
	s.log.Info("report deleted", zap.String("report_id", id), zap.String("user_id", userID))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
