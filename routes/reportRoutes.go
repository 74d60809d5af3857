package routes

import (
	"github.com/gin-gonic/gin"

	"ecobhandu-be/middlewares"
)

// ReportRoutes sets up the report and workflow routes
func ReportRoutes(r *gin.RouterGroup, d Deps) {
	limiter := middlewares.ReportRateLimiter(d.RateCounter, d.RateLimit, d.RateWindow, d.Log)

	reports := r.Group("/reports", middlewares.OptionalAuth(d.Tokens))
	{
		reports.POST("", limiter, d.Reports.CreateReport)
		reports.POST("/create", limiter, d.Reports.CreateReport)
		reports.GET("", d.Reports.ListReports)
		reports.GET("/stats/summary", d.Reports.Stats)
		reports.GET("/:id", d.Reports.GetReport)
		reports.PATCH("/:id/status", d.Reports.UpdateStatus)
		reports.PATCH("/:id/resolve", d.Reports.ResolveReport)
		reports.POST("/:id/upvote", d.Reports.UpvoteReport)
		reports.POST("/:id/comment", d.Reports.AddComment)
		reports.DELETE("/:id", d.Reports.DeleteReport)
	}
}
