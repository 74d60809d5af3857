package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resolution carries the fields only Resolve sets.
type Resolution struct {
	By    primitive.ObjectID
	Notes *string
	Image *string
}

// ReportTransition is a conditional status write. The write applies only when
// the report's current state satisfies every condition, so a check and its
// update happen as one operation in the store.
type ReportTransition struct {
	// From lists the statuses the report may currently be in. Empty means any.
	From []ReportStatus
	// Assignees lists the acceptable current assignees. A nil entry matches an
	// unassigned report. Empty means any.
	Assignees []*primitive.ObjectID
	// RequireAssigned rejects reports that have no assignee.
	RequireAssigned bool

	Status     ReportStatus
	AssignTo   *primitive.ObjectID
	ResolvedAt *time.Time
	Resolution *Resolution
	At         time.Time
}

// Matches reports whether r satisfies the transition's conditions.
func (t ReportTransition) Matches(r *Report) bool {
	if len(t.From) > 0 {
		ok := false
		for _, s := range t.From {
			if r.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if t.RequireAssigned && r.AssignedTo == nil {
		return false
	}
	if len(t.Assignees) > 0 {
		ok := false
		for _, a := range t.Assignees {
			if a == nil && r.AssignedTo == nil {
				ok = true
			} else if a != nil && r.AssignedTo != nil && *a == *r.AssignedTo {
				ok = true
			}
			if ok {
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Apply writes the transition's fields onto r.
func (t ReportTransition) Apply(r *Report) {
	r.Status = t.Status
	r.UpdatedAt = t.At
	if t.AssignTo != nil {
		id := *t.AssignTo
		r.AssignedTo = &id
	}
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		r.ResolvedAt = &at
	}
	if t.Resolution != nil {
		by := t.Resolution.By
		r.ResolvedBy = &by
		r.ResolutionNotes = t.Resolution.Notes
		r.ResolvedImage = t.Resolution.Image
	}
}
