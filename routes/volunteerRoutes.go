package routes

import (
	"github.com/gin-gonic/gin"
)

// VolunteerRoutes sets up the volunteer routes
func VolunteerRoutes(r *gin.RouterGroup, d Deps) {
	volunteers := r.Group("/volunteers")
	{
		volunteers.GET("/:id/stats", d.Volunteers.Stats)
	}
}
