package routes

import (
	"github.com/gin-gonic/gin"

	"ecobhandu-be/middlewares"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.RouterGroup, d Deps) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", d.Auth.Signup)
		auth.POST("/signin", d.Auth.Signin)
		auth.POST("/signout", d.Auth.Signout)
		auth.GET("/me", middlewares.AuthMiddleware(d.Tokens, d.Log), d.Auth.Me)
	}
}
