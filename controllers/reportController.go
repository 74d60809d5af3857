package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecobhandu-be/services"
)

type ReportController struct {
	reports *services.ReportService
	tasks   *services.TaskService
	log     *zap.Logger
}

func NewReportController(reports *services.ReportService, tasks *services.TaskService, log *zap.Logger) *ReportController {
	return &ReportController{reports: reports, tasks: tasks, log: log}
}

// actorID returns the authenticated user when there is one, otherwise the id
// named in the request.
func actorID(c *gin.Context, requested string) string {
	if uid := c.GetString("user_id"); uid != "" {
		return uid
	}
	return requested
}

type coordinatesInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateReport handles the submission of a new report
func (rc *ReportController) CreateReport(c *gin.Context) {
	var input struct {
		UserID      string            `json:"userId"`
		UserName    string            `json:"userName"`
		UserEmail   string            `json:"userEmail"`
		Category    string            `json:"category"`
		Description string            `json:"description"`
		Severity    string            `json:"severity" binding:"omitempty,severity"`
		IsUrgent    *bool             `json:"isUrgent"`
		Location    string            `json:"location"`
		Coordinates *coordinatesInput `json:"coordinates"`
		Image       *string           `json:"image"`
	}
	if err := bindJSON(c, &input); err != nil {
		respondBindError(c, err)
		return
	}

	in := services.CreateReportInput{
		UserID:      actorID(c, input.UserID),
		UserName:    input.UserName,
		UserEmail:   input.UserEmail,
		Category:    input.Category,
		Description: input.Description,
		Severity:    input.Severity,
		IsUrgent:    input.IsUrgent,
		Location:    input.Location,
		Image:       input.Image,
	}
	if input.Coordinates != nil {
		in.Latitude = input.Coordinates.Latitude
		in.Longitude = input.Coordinates.Longitude
	}

	report, err := rc.reports.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      report.ID.Hex(),
		"message": "Report submitted successfully",
		"report":  report,
	})
}

// ListReports returns reports matching the query filters, newest first
func (rc *ReportController) ListReports(c *gin.Context) {
	var query struct {
		Status   string `form:"status" binding:"omitempty,reportstatus"`
		Category string `form:"category"`
		Severity string `form:"severity" binding:"omitempty,severity"`
		UserID   string `form:"userId"`
		Limit    int    `form:"limit" binding:"omitempty,min=1"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	reports, err := rc.reports.List(c.Request.Context(), services.ListReportsInput{
		Status:   query.Status,
		Category: query.Category,
		Severity: query.Severity,
		UserID:   query.UserID,
		Limit:    query.Limit,
	})
	if err != nil {
		respondError(c, rc.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(reports),
		"reports": reports,
	})
}

// GetReport returns a single report
func (rc *ReportController) GetReport(c *gin.Context) {
	report, err := rc.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// UpdateStatus moves a report through the volunteer workflow
func (rc *ReportController) UpdateStatus(c *gin.Context) {
	var input struct {
		Status     string `json:"status" binding:"required,reportstatus"`
		AssignedTo string `json:"assignedTo"`
	}
	if err := bindJSON(c, &input); err != nil {
		respondBindError(c, err)
		return
	}

	report, err := rc.tasks.UpdateStatus(c.Request.Context(), c.Param("id"), input.Status, input.AssignedTo)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Report status updated successfully",
		"report":  report,
	})
}

// ResolveReport marks a report resolved with an optional after photo and notes
func (rc *ReportController) ResolveReport(c *gin.Context) {
	var input struct {
		UserID string  `json:"userId"`
		Image  *string `json:"image"`
		Notes  *string `json:"notes"`
	}
	if err := bindJSON(c, &input); err != nil {
		respondBindError(c, err)
		return
	}

	report, err := rc.tasks.Resolve(c.Request.Context(), services.ResolveInput{
		ReportID: c.Param("id"),
		UserID:   actorID(c, input.UserID),
		Image:    input.Image,
		Notes:    input.Notes,
	})
	if err != nil {
		respondError(c, rc.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Report resolved successfully",
		"report":  report,
	})
}

// UpvoteReport toggles the caller's upvote
func (rc *ReportController) UpvoteReport(c *gin.Context) {
	var input struct {
		UserID string `json:"userId"`
	}
	if err := bindJSON(c, &input); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := rc.reports.Upvote(c.Request.Context(), c.Param("id"), actorID(c, input.UserID))
	if err != nil {
		respondError(c, rc.log, err)
		return
	}

	message := "Upvote removed"
	if res.Upvoted {
		message = "Report upvoted"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"upvoted": res.Upvoted,
		"upvotes": res.Upvotes,
	})
}

// AddComment appends a comment to a report
func (rc *ReportController) AddComment(c *gin.Context) {
	var input struct {
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
		Comment  string `json:"comment"`
	}
	if err := bindJSON(c, &input); err != nil {
		respondBindError(c, err)
		return
	}

	comment, err := rc.reports.AddComment(c.Request.Context(), c.Param("id"), actorID(c, input.UserID), input.UserName, input.Comment)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// Stats returns the aggregate report summary
func (rc *ReportController) Stats(c *gin.Context) {
	stats, err := rc.reports.Stats(c.Request.Context())
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DeleteReport removes a report owned by the caller
func (rc *ReportController) DeleteReport(c *gin.Context) {
	var input struct {
		UserID string `json:"userId"`
	}
	if err := bindJSON(c, &input); err != nil {
		respondBindError(c, err)
		return
	}
	userID := actorID(c, input.UserID)
	if userID == "" {
		userID = c.Query("userId")
	}

	if err := rc.reports.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, rc.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Report deleted successfully"})
}
