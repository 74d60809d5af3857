package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecobhandu-be/controllers"
	"ecobhandu-be/middlewares"
)

// Deps carries everything the route tables need.
type Deps struct {
	Auth       *controllers.AuthController
	Reports    *controllers.ReportController
	Volunteers *controllers.VolunteerController
	Rewards    *controllers.RewardController
	Events     *controllers.EventController

	Tokens      middlewares.TokenParser
	RateCounter middlewares.RateCounter
	RateLimit   int64
	RateWindow  time.Duration
	Timeout     time.Duration
	Log         *zap.Logger
}

// Register mounts every /api route on r.
func Register(r *gin.Engine, d Deps) {
	api := r.Group("/api")

	// The event stream is long-lived and stays outside the request timeout.
	if d.Events != nil {
		api.GET("/reports/events", d.Events.Stream)
	}

	bounded := api.Group("", middlewares.RequestTimeout(d.Timeout))
	AuthRoutes(bounded, d)
	ReportRoutes(bounded, d)
	VolunteerRoutes(bounded, d)
	RewardRoutes(bounded, d)
}
