package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Severity enum
type Severity string

const (
	Minor    Severity = "Minor"
	Major    Severity = "Major"
	Critical Severity = "Critical"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case Minor, Major, Critical:
		return true
	}
	return false
}

// ReportStatus enum
type ReportStatus string

const (
	Pending    ReportStatus = "Pending"
	InProgress ReportStatus = "In Progress"
	Resolved   ReportStatus = "Resolved"
	Rejected   ReportStatus = "Rejected"
)

// AllStatuses lists every report status in lifecycle order.
var AllStatuses = []ReportStatus{Pending, InProgress, Resolved, Rejected}

func (s ReportStatus) Valid() bool {
	switch s {
	case Pending, InProgress, Resolved, Rejected:
		return true
	}
	return false
}

// Terminal reports whether no further workflow transition is allowed from s.
func (s ReportStatus) Terminal() bool {
	return s == Resolved || s == Rejected
}

type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	UserName  string             `bson:"userName" json:"userName"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Report is an environmental issue submitted by a citizen.
//
// Nullable fields are pointers without omitempty so that they are stored as
// explicit nulls; the workflow filters on assignedTo being null.
type Report struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	UserID          primitive.ObjectID   `bson:"userId" json:"userId"`
	UserName        string               `bson:"userName" json:"userName"`
	UserEmail       string               `bson:"userEmail" json:"userEmail"`
	Category        string               `bson:"category" json:"category"`
	Description     string               `bson:"description" json:"description"`
	Severity        Severity             `bson:"severity" json:"severity"`
	IsUrgent        bool                 `bson:"isUrgent" json:"isUrgent"`
	Location        string               `bson:"location" json:"location"`
	Coordinates     Coordinates          `bson:"coordinates" json:"coordinates"`
	Image           *string              `bson:"image" json:"image"`
	Status          ReportStatus         `bson:"status" json:"status"`
	AssignedTo      *primitive.ObjectID  `bson:"assignedTo" json:"assignedTo"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
	ResolvedAt      *time.Time           `bson:"resolvedAt" json:"resolvedAt"`
	ResolvedBy      *primitive.ObjectID  `bson:"resolvedBy" json:"resolvedBy"`
	ResolutionNotes *string              `bson:"resolutionNotes" json:"resolutionNotes"`
	ResolvedImage   *string              `bson:"resolvedImage" json:"resolvedImage"`
	Upvotes         int                  `bson:"upvotes" json:"upvotes"`
	UpvotedBy       []primitive.ObjectID `bson:"upvotedBy" json:"upvotedBy"`
	Comments        []Comment            `bson:"comments" json:"comments"`
}

// HasUpvote reports whether userID is in the report's upvotedBy set.
func (r *Report) HasUpvote(userID primitive.ObjectID) bool {
	for _, id := range r.UpvotedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ReportFilter holds the optional conjunctive filters for listing reports.
type ReportFilter struct {
	Status   ReportStatus
	Category string
	Severity Severity
	UserID   *primitive.ObjectID
	Limit    int64
}

// GroupCount is one bucket of a grouped count.
type GroupCount struct {
	Name  string `bson:"_id" json:"_id"`
	Count int64  `bson:"count" json:"count"`
}

// ReportStats is the aggregate summary over all reports.
type ReportStats struct {
	Total         int64        `json:"total"`
	ByStatus      []GroupCount `json:"byStatus"`
	BySeverity    []GroupCount `json:"bySeverity"`
	TopCategories []GroupCount `json:"topCategories"`
}
