package models

import "time"

// EventType enum
type EventType string

const (
	EventReportCreated   EventType = "report.created"
	EventReportStatus    EventType = "report.status"
	EventReportResolved  EventType = "report.resolved"
	EventReportUpvoted   EventType = "report.upvoted"
	EventReportCommented EventType = "report.commented"
	EventReportDeleted   EventType = "report.deleted"
)

// ReportEvent is pushed to subscribers whenever a report changes.
type ReportEvent struct {
	Type     EventType    `json:"type"`
	ReportID string       `json:"reportId"`
	Status   ReportStatus `json:"status,omitempty"`
	ActorID  string       `json:"actorId,omitempty"`
	At       time.Time    `json:"at"`
}
