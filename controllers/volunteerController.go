package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecobhandu-be/services"
)

type VolunteerController struct {
	tasks *services.TaskService
	log   *zap.Logger
}

func NewVolunteerController(tasks *services.TaskService, log *zap.Logger) *VolunteerController {
	return &VolunteerController{tasks: tasks, log: log}
}

// Stats returns a volunteer's task counts and eco-points
func (vc *VolunteerController) Stats(c *gin.Context) {
	stats, err := vc.tasks.VolunteerStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
