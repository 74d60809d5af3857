package routes

import (
	"github.com/gin-gonic/gin"

	"ecobhandu-be/middlewares"
)

// RewardRoutes sets up the reward catalog and claim routes
func RewardRoutes(r *gin.RouterGroup, d Deps) {
	rewards := r.Group("/rewards", middlewares.OptionalAuth(d.Tokens))
	{
		rewards.GET("", d.Rewards.Catalog)
		rewards.GET("/balance", d.Rewards.Balance)
		rewards.GET("/claims", d.Rewards.ListClaims)
		rewards.POST("/claim", d.Rewards.Claim)
	}
}
