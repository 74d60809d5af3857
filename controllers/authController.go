package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecobhandu-be/models"
	"ecobhandu-be/services"
)

const authCookie = "auth_token"

// CookieOptions controls how the session cookie is written.
type CookieOptions struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

type AuthController struct {
	auth   *services.AuthService
	cookie CookieOptions
	log    *zap.Logger
}

func NewAuthController(auth *services.AuthService, cookie CookieOptions, log *zap.Logger) *AuthController {
	return &AuthController{auth: auth, cookie: cookie, log: log}
}

func userResponse(u *models.User) gin.H {
	return gin.H{
		"id":    u.ID.Hex(),
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}

// Signup handles account registration
func (ac *AuthController) Signup(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := ac.auth.Signup(c.Request.Context(), services.SignupInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		respondError(c, ac.log, err)
		return
	}

	c.JSON(http.StatusCreated, userResponse(user))
}

// Signin verifies credentials and sets the session cookie
func (ac *AuthController) Signin(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	user, token, err := ac.auth.Signin(c.Request.Context(), services.SigninInput{
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		respondError(c, ac.log, err)
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		MaxAge:   int(ac.cookie.MaxAge.Seconds()),
		Path:     "/",
		Domain:   ac.cookie.Domain,
		Secure:   ac.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	resp := userResponse(user)
	resp["token"] = token
	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.auth.Me(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Signout clears the session cookie
func (ac *AuthController) Signout(c *gin.Context) {
	c.SetCookie(authCookie, "", -1, "/", ac.cookie.Domain, ac.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
