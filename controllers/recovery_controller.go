// File: /controllers/recovery_controller.go
package controllers

import (
	"errors"
	"github.com/gin-gonic/gin"
	"net/http"
	"squadrun-api/services"
)

// RecoveryController surfaces sessions left active by an unclean shutdown
// and the three ways out: resume, end, dismiss.
type RecoveryController struct {
	recovery *services.RecoveryService
}

func NewRecoveryController(recovery *services.RecoveryService) *RecoveryController {
	return &RecoveryController{recovery: recovery}
}

func (rc *RecoveryController) CheckInterrupted(c *gin.Context) {
	userID := c.GetString("user_id")

	session := rc.recovery.CheckInterrupted(c.Request.Context(), userID)
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"interrupted": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"interrupted": true, "session": session})
}

func (rc *RecoveryController) ResumeInterrupted(c *gin.Context) {
	userID := c.GetString("user_id")

	session, err := rc.recovery.Resume(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoInterrupted):
			c.JSON(http.StatusNotFound, gin.H{"error": "No interrupted session"})
		case errors.Is(err, services.ErrAlreadyTracking):
			c.JSON(http.StatusConflict, gin.H{"error": "A session is already being tracked"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resume session"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session resumed", "session": session})
}

func (rc *RecoveryController) EndInterrupted(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := rc.recovery.End(c.Request.Context(), userID); err != nil {
		if errors.Is(err, services.ErrNoInterrupted) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No interrupted session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Interrupted session ended"})
}

func (rc *RecoveryController) DismissInterrupted(c *gin.Context) {
	userID := c.GetString("user_id")

	rc.recovery.Dismiss(userID)
	c.JSON(http.StatusOK, gin.H{"message": "Prompt dismissed"})
}
