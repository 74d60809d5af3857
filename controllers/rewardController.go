package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecobhandu-be/services"
)

type RewardController struct {
	rewards *services.RewardService
	log     *zap.Logger
}

func NewRewardController(rewards *services.RewardService, log *zap.Logger) *RewardController {
	return &RewardController{rewards: rewards, log: log}
}

// Catalog lists the rewards that can be claimed
func (rc *RewardController) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rewards": rc.rewards.Catalog()})
}

// Balance returns the user's earned, spent and available points
func (rc *RewardController) Balance(c *gin.Context) {
	balance, err := rc.rewards.Balance(c.Request.Context(), actorID(c, c.Query("userId")))
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// ListClaims returns the user's claims, newest first
func (rc *RewardController) ListClaims(c *gin.Context) {
	var query struct {
		UserID string `form:"userId"`
		Limit  int    `form:"limit" binding:"omitempty,min=1"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	claims, err := rc.rewards.ListClaims(c.Request.Context(), actorID(c, query.UserID), query.Limit)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

// Claim redeems a reward against the user's available points
func (rc *RewardController) Claim(c *gin.Context) {
	var input struct {
		UserID   string `json:"userId"`
		RewardID string `json:"rewardId"`
	}
	if err := bindJSON(c, &input); err != nil {
		respondBindError(c, err)
		return
	}

	claim, err := rc.rewards.Claim(c.Request.Context(), actorID(c, input.UserID), input.RewardID)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Reward claimed",
		"claim":   claim,
	})
}
