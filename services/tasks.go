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

var openStatuses = []models.ReportStatus{models.Pending, models.InProgress}

// TaskService drives the volunteer workflow:
//
//	Unclaimed (Pending, no assignee)
//	  -> Reserved (Pending, assignee V)
//	  -> Active (In Progress, assignee V)
//	  -> Resolved | Rejected
//
// Every transition is a single conditional write, so two volunteers racing
// for the same report cannot both win.
type TaskService struct {
	reports ReportRepository
	events  Publisher
	allowed map[models.ReportStatus]bool
	log     *zap.Logger
	now     func() time.Time
}

// NewTaskService creates the workflow service. allowedTargets is the set of
// statuses UpdateStatus accepts; Resolve is not restricted by it.
func NewTaskService(reports ReportRepository, events Publisher, allowedTargets []models.ReportStatus, log *zap.Logger) *TaskService {
	allowed := make(map[models.ReportStatus]bool, len(allowedTargets))
	for _, s := range allowedTargets {
		allowed[s] = true
	}
	return &TaskService{
		reports: reports,
		events:  publisherOrNop(events),
		allowed: allowed,
		log:     log,
		now:     time.Now,
	}
}

// UpdateStatus moves a report to status. With assignedTo set, a Pending target
// reserves the report for that volunteer and an In Progress target starts it.
func (s *TaskService) UpdateStatus(ctx context.Context, id, status, assignedTo string) (*models.Report, error) {
	target := models.ReportStatus(status)
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}
	if !s.allowed[target] {
		return nil, validation("Status %q cannot be set through a status update", status)
	}
	reportID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReportNotFound
	}

	now := s.now()
	t := models.ReportTransition{
		From:   openStatuses,
		Status: target,
		At:     now,
	}

	if assignedTo != "" {
		volunteer, err := primitive.ObjectIDFromHex(assignedTo)
		if err != nil {
			return nil, validation("Invalid assignedTo")
		}
		t.Assignees = []*primitive.ObjectID{nil, &volunteer}
		t.AssignTo = &volunteer
		if target == models.Pending {
			// Reservation: the report must not have been started yet.
			t.From = []models.ReportStatus{models.Pending}
		}
	} else if target == models.InProgress {
		t.RequireAssigned = true
	}

	if target == models.Resolved {
		t.ResolvedAt = &now
	}

	r, err := s.apply(ctx, reportID, t)
	metrics.RecordTransition(status, err)
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, models.ReportEvent{
		Type:     models.EventReportStatus,
		ReportID: id,
		Status:   r.Status,
		ActorID:  assignedTo,
		At:       now,
	})
	s.log.Info("report status updated",
		zap.String("report_id", id),
		zap.String("status", status),
		zap.String("assigned_to", assignedTo))
	return r, nil
}

// Reserve claims an unassigned Pending report for volunteerID.
func (s *TaskService) Reserve(ctx context.Context, id, volunteerID string) (*models.Report, error) {
	if volunteerID == "" {
		return nil, validation("assignedTo is required")
	}
	return s.UpdateStatus(ctx, id, string(models.Pending), volunteerID)
}

// Start moves a report the volunteer holds (or an unclaimed one) to In Progress.
func (s *TaskService) Start(ctx context.Context, id, volunteerID string) (*models.Report, error) {
	if volunteerID == "" {
		return nil, validation("assignedTo is required")
	}
	return s.UpdateStatus(ctx, id, string(models.InProgress), volunteerID)
}

// Reject closes an open report without resolution.
func (s *TaskService) Reject(ctx context.Context, id string) (*models.Report, error) {
	return s.UpdateStatus(ctx, id, string(models.Rejected), "")
}

type ResolveInput struct {
	ReportID string
	UserID   string
	Image    *string
	Notes    *string
}

// Resolve marks the report resolved by UserID with optional after-photo and
// notes. It is the only path that records who resolved a report.
func (s *TaskService) Resolve(ctx context.Context, in ResolveInput) (*models.Report, error) {
	reportID, err := primitive.ObjectIDFromHex(in.ReportID)
	if err != nil {
		return nil, ErrReportNotFound
	}
	if in.UserID == "" {
		return nil, ErrInvalidUserID
	}
	userID, err := primitive.ObjectIDFromHex(in.UserID)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	now := s.now()
	r, err := s.apply(ctx, reportID, models.ReportTransition{
		Status:     models.Resolved,
		ResolvedAt: &now,
		Resolution: &models.Resolution{
			By:    userID,
			Notes: nonEmpty(in.Notes),
			Image: nonEmpty(in.Image),
		},
		At: now,
	})
	metrics.RecordTransition(string(models.Resolved), err)
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, models.ReportEvent{
		Type:     models.EventReportResolved,
		ReportID: in.ReportID,
		Status:   r.Status,
		ActorID:  in.UserID,
		At:       now,
	})
	s.log.Info("report resolved", zap.String("report_id", in.ReportID), zap.String("user_id", in.UserID))
	return r, nil
}

// apply runs the conditional write and, when it does not match, reads the
// report back to explain why.
func (s *TaskService) apply(ctx context.Context, id primitive.ObjectID, t models.ReportTransition) (*models.Report, error) {
	r, err := s.reports.Transition(ctx, id, t)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("transition report: %w", err)
	}

	current, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	switch {
	case current.Status.Terminal() && len(t.From) > 0:
		return nil, conflict("Report is already %s", current.Status)
	case t.RequireAssigned && current.AssignedTo == nil:
		return nil, validation("assignedTo is required to start an unassigned report")
	case t.AssignTo != nil && current.AssignedTo != nil && *current.AssignedTo != *t.AssignTo:
		return nil, ErrAlreadyAssigned
	case t.AssignTo != nil && t.Status == models.Pending && current.Status == models.InProgress:
		return nil, conflict("Report is already in progress")
	}
	return nil, conflict("Report was modified concurrently, please refresh and retry")
}

// VolunteerStats reports the volunteer's completed and in-progress task counts
// and the eco-points derived from them.
func (s *TaskService) VolunteerStats(ctx context.Context, volunteerID string) (*models.VolunteerStats, error) {
	id, err := primitive.ObjectIDFromHex(volunteerID)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	resolved, inProgress, err := s.reports.CountAssignedByStatus(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count assigned reports: %w", err)
	}
	return &models.VolunteerStats{
		TasksCompleted: resolved,
		InProgress:     inProgress,
		EcoPoints:      models.EcoPoints(resolved, inProgress),
	}, nil
}
