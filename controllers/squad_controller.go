// File: /controllers/squad_controller.go
package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"net/http"
	"squadrun-api/models"
	"squadrun-api/utils"
	"time"
)

type SquadController struct {
	db *gorm.DB
}

func NewSquadController(db *gorm.DB) *SquadController {
	return &SquadController{db: db}
}

type CreateSquadRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (sc *SquadController) GetSquads(c *gin.Context) {
	userID := c.GetString("user_id")

	var memberships []models.SquadMember
	if err := sc.db.Preload("Squad").Preload("Squad.Creator").
		Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch squads"})
		return
	}

	squads := make([]models.Squad, 0, len(memberships))
	for _, membership := range memberships {
		squads = append(squads, membership.Squad)
	}

	c.JSON(http.StatusOK, squads)
}

func (sc *SquadController) CreateSquad(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateSquadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	squad := models.Squad{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Description:  req.Description,
		CreatorID:    userID,
		MembersCount: 1,
	}

	if err := sc.db.Create(&squad).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create squad"})
		return
	}

	// Creator joins as admin
	member := models.SquadMember{
		SquadID:  squad.ID,
		UserID:   userID,
		Role:     "admin",
		JoinedAt: time.Now(),
	}
	if err := sc.db.Create(&member).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join created squad"})
		return
	}

	utils.SendCreated(c, "Squad created", squad)
}

func (sc *SquadController) GetSquad(c *gin.Context) {
	squadID := c.Param("id")

	var squad models.Squad
	if err := sc.db.Preload("Creator").Preload("Members").Preload("Members.User").
		First(&squad, "id = ?", squadID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Squad not found"})
		return
	}

	c.JSON(http.StatusOK, squad)
}

func (sc *SquadController) JoinSquad(c *gin.Context) {
	userID := c.GetString("user_id")
	squadID := c.Param("id")

	var squad models.Squad
	if err := sc.db.First(&squad, "id = ?", squadID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Squad not found"})
		return
	}

	var existing models.SquadMember
	if err := sc.db.Where("squad_id = ? AND user_id = ?", squadID, userID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Already a member of this squad"})
		return
	}

	member := models.SquadMember{
		SquadID:  squadID,
		UserID:   userID,
		Role:     "member",
		JoinedAt: time.Now(),
	}
	if err := sc.db.Create(&member).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join squad"})
		return
	}

	sc.db.Model(&squad).UpdateColumn("members_count", gorm.Expr("members_count + ?", 1))

	c.JSON(http.StatusOK, gin.H{"message": "Joined squad successfully"})
}

func (sc *SquadController) LeaveSquad(c *gin.Context) {
	userID := c.GetString("user_id")
	squadID := c.Param("id")

	result := sc.db.Where("squad_id = ? AND user_id = ?", squadID, userID).Delete(&models.SquadMember{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave squad"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not a member of this squad"})
		return
	}

	sc.db.Model(&models.Squad{}).Where("id = ?", squadID).
		UpdateColumn("members_count", gorm.Expr("members_count - ?", 1))

	c.JSON(http.StatusOK, gin.H{"message": "Left squad successfully"})
}
