// File: /controllers/session_controller.go
package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"net/http"
	"squadrun-api/models"
	"squadrun-api/repositories"
	"time"
)

// SessionController is the session-creation collaborator: it persists the
// session document before the tracker ever sees it, and serves the read
// paths other participants' screens use.
type SessionController struct {
	db   *gorm.DB
	repo *repositories.SessionRepository
}

func NewSessionController(db *gorm.DB, repo *repositories.SessionRepository) *SessionController {
	return &SessionController{db: db, repo: repo}
}

type CreateSessionRequest struct {
	SquadID string `json:"squad_id" binding:"required"`
	Title   string `json:"title"`
}

func (sc *SessionController) CreateSession(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Only squad members can start a squad session
	var membership models.SquadMember
	if err := sc.db.Where("squad_id = ? AND user_id = ?", req.SquadID, userID).First(&membership).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this squad"})
		return
	}

	title := req.Title
	if title == "" {
		title = "Squad run " + time.Now().Format("Jan 2")
	}

	session := models.Session{
		ID:               uuid.New().String(),
		SquadID:          req.SquadID,
		CreatorID:        userID,
		Title:            title,
		Status:           models.SessionStatusActive,
		StartTime:        time.Now(),
		ParticipantIDs:   models.StringSlice{userID},
		ParticipantCount: 1,
	}

	if err := sc.db.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (sc *SessionController) GetSession(c *gin.Context) {
	sessionID := c.Param("id")

	session, err := sc.repo.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetRoutePoints returns a participant's persisted track in order
func (sc *SessionController) GetRoutePoints(c *gin.Context) {
	sessionID := c.Param("id")
	participantID := c.Query("user_id")
	if participantID == "" {
		participantID = c.GetString("user_id")
	}

	points, err := sc.repo.RoutePoints(c.Request.Context(), sessionID, participantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch route points"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(points), "points": points})
}

// GetParticipants returns per-participant aggregates and liveness for a session
func (sc *SessionController) GetParticipants(c *gin.Context) {
	sessionID := c.Param("id")

	var stats []models.ParticipantStats
	if err := sc.db.Where("session_id = ?", sessionID).Find(&stats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch participants"})
		return
	}

	heartbeats, err := sc.repo.SessionHeartbeats(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch heartbeats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats, "heartbeats": heartbeats})
}

// GetActiveSquadSessions lists a squad's running or paused sessions
func (sc *SessionController) GetActiveSquadSessions(c *gin.Context) {
	squadID := c.Param("id")

	sessions, err := sc.repo.ActiveSessionsBySquad(c.Request.Context(), squadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch active sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}
