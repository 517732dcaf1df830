// File: /controllers/tracking_controller.go
package controllers

import (
	"errors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"net/http"
	"squadrun-api/models"
	"squadrun-api/services"
	"squadrun-api/utils"
	"time"
)

// TrackingController exposes the tracker's lifecycle commands and the sample
// ingest endpoints the mobile client feeds while running.
type TrackingController struct {
	db      *gorm.DB
	tracker *services.Tracker
	feed    *services.DeviceFeed
	mailer  *services.SummaryMailer
}

func NewTrackingController(db *gorm.DB, tracker *services.Tracker, feed *services.DeviceFeed, mailer *services.SummaryMailer) *TrackingController {
	return &TrackingController{
		db:      db,
		tracker: tracker,
		feed:    feed,
		mailer:  mailer,
	}
}

type StartTrackingRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Latitude and longitude are pointers so 0 (equator, prime meridian) still
// binds; range checks happen against the dereferenced values.
type SampleRequest struct {
	Latitude  *float64  `json:"latitude" binding:"required"`
	Longitude *float64  `json:"longitude" binding:"required"`
	Speed     *float64  `json:"speed"`
	Timestamp time.Time `json:"timestamp"`
}

type HeartRateRequest struct {
	BPM int `json:"bpm" binding:"required,min=20,max=250"`
}

func (tc *TrackingController) StartTracking(c *gin.Context) {
	userID := c.GetString("user_id")

	var req StartTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var session models.Session
	if err := tc.db.First(&session, "id = ?", req.SessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	if !session.IsUnfinished() {
		c.JSON(http.StatusConflict, gin.H{"error": "Session has already ended"})
		return
	}

	if err := tc.tracker.Start(c.Request.Context(), &session, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyTracking):
			c.JSON(http.StatusConflict, gin.H{"error": "A session is already being tracked"})
		case errors.Is(err, services.ErrSessionNotPersisted):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Session is not persisted"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start tracking"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tracking started", "session": session})
}

func (tc *TrackingController) PauseTracking(c *gin.Context) {
	if err := tc.tracker.Pause(c.Request.Context()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Tracking is not active"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tracking paused"})
}

func (tc *TrackingController) ResumeTracking(c *gin.Context) {
	if err := tc.tracker.Resume(c.Request.Context()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Tracking is not paused"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tracking resumed"})
}

func (tc *TrackingController) StopTracking(c *gin.Context) {
	userID := c.GetString("user_id")

	session := tc.tracker.CurrentSession()
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Nothing to stop"})
		return
	}

	// Snapshot the final numbers before Stop clears local state.
	metrics := tc.tracker.LiveMetrics()

	err := tc.tracker.Stop(c.Request.Context())
	if err != nil && !errors.Is(err, services.ErrEndWriteFailed) {
		c.JSON(http.StatusConflict, gin.H{"error": "No session is being tracked"})
		return
	}

	tc.updateUserStatistics(userID, metrics.Distance, metrics.Duration)

	// Advisory: summary email, never blocks the response.
	if tc.mailer != nil {
		var user models.User
		if dbErr := tc.db.First(&user, "id = ?", userID).Error; dbErr == nil {
			sessionCopy := *session
			go tc.mailer.SendSessionSummary(user.Email, user.Name, &sessionCopy, metrics)
		}
	}

	response := gin.H{
		"message":  "Tracking stopped",
		"distance": metrics.Distance,
		"duration": metrics.Duration,
	}
	if errors.Is(err, services.ErrEndWriteFailed) {
		// Session ended locally; the remote mirror will catch up via recovery.
		response["warning"] = "Session ended locally but could not be closed remotely"
	}

	c.JSON(http.StatusOK, response)
}

// IngestSample receives one GPS reading from the device and offers it to the
// location stream
func (tc *TrackingController) IngestSample(c *gin.Context) {
	var req SampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !utils.IsValidCoordinate(*req.Latitude, *req.Longitude) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}

	sample := models.LocationSample{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Speed:     -1,
		Timestamp: req.Timestamp,
	}
	if req.Speed != nil && *req.Speed >= 0 {
		sample.Speed = *req.Speed
	}

	if !tc.feed.Push(sample) {
		c.JSON(http.StatusConflict, gin.H{"error": "Location updates are not being accepted"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Sample accepted"})
}

// IngestHeartRate receives one heart-rate reading from the device
func (tc *TrackingController) IngestHeartRate(c *gin.Context) {
	var req HeartRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !tc.feed.PushHeartRate(models.HeartRateSample{BPM: req.BPM, Timestamp: time.Now()}) {
		c.JSON(http.StatusConflict, gin.H{"error": "Heart rate updates are not being accepted"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Heart rate accepted"})
}

// GetLiveMetrics returns the tracker's current counters
func (tc *TrackingController) GetLiveMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, tc.tracker.LiveMetrics())
}

// GetLiveRoute returns the full in-memory route for rendering
func (tc *TrackingController) GetLiveRoute(c *gin.Context) {
	route := tc.tracker.Route()
	c.JSON(http.StatusOK, gin.H{"count": len(route), "points": route})
}

func (tc *TrackingController) updateUserStatistics(userID string, distance float64, duration int) {
	tc.db.Model(&models.User{}).Where("id = ?", userID).UpdateColumns(map[string]interface{}{
		"runs_count":     gorm.Expr("runs_count + ?", 1),
		"total_distance": gorm.Expr("total_distance + ?", distance),
		"total_duration": gorm.Expr("total_duration + ?", duration),
	})
}
