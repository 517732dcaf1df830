// File: /routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"squadrun-api/config"
	"squadrun-api/controllers"
	"squadrun-api/middleware"
	"squadrun-api/repositories"
	"squadrun-api/services"
)

// Dependencies carries the long-lived services the controllers share
type Dependencies struct {
	DB       *gorm.DB
	Config   *config.Config
	Repo     *repositories.SessionRepository
	Tracker  *services.Tracker
	Feed     *services.DeviceFeed
	Recovery *services.RecoveryService
	Hub      *services.LiveHub
	Mailer   *services.SummaryMailer
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	// Controllers
	authController := controllers.NewAuthController(deps.DB, deps.Config.JWTSecret)
	userController := controllers.NewUserController(deps.DB)
	squadController := controllers.NewSquadController(deps.DB)
	sessionController := controllers.NewSessionController(deps.DB, deps.Repo)
	trackingController := controllers.NewTrackingController(deps.DB, deps.Tracker, deps.Feed, deps.Mailer)
	recoveryController := controllers.NewRecoveryController(deps.Recovery)
	streamController := controllers.NewStreamController(deps.Hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.POST("/register", authController.Register)
		auth.POST("/logout", authController.Logout)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.Config.JWTSecret))
	{
		// User routes
		users := protected.Group("/users")
		{
			users.GET("/profile", userController.GetProfile)
			users.PUT("/profile", userController.UpdateProfile)
			users.GET("/statistics", userController.GetStatistics)
		}

		// Squad routes
		squads := protected.Group("/squads")
		{
			squads.GET("/", squadController.GetSquads)
			squads.POST("/", squadController.CreateSquad)
			squads.GET("/:id", squadController.GetSquad)
			squads.POST("/:id/join", squadController.JoinSquad)
			squads.DELETE("/:id/leave", squadController.LeaveSquad)
			squads.GET("/:id/sessions/active", sessionController.GetActiveSquadSessions)
		}

		// Session routes
		sessions := protected.Group("/sessions")
		{
			sessions.POST("/", sessionController.CreateSession)
			sessions.GET("/:id", sessionController.GetSession)
			sessions.GET("/:id/route", sessionController.GetRoutePoints)
			sessions.GET("/:id/participants", sessionController.GetParticipants)
			sessions.GET("/:id/live", streamController.LiveSession)
		}

		// Tracking lifecycle and live state
		tracking := protected.Group("/tracking")
		{
			tracking.POST("/start", trackingController.StartTracking)
			tracking.PUT("/pause", trackingController.PauseTracking)
			tracking.PUT("/resume", trackingController.ResumeTracking)
			tracking.PUT("/stop", trackingController.StopTracking)
			tracking.GET("/metrics", trackingController.GetLiveMetrics)
			tracking.GET("/route", trackingController.GetLiveRoute)

			// Device feeds take the bulk of the traffic while a run is live
			ingest := tracking.Group("/")
			ingest.Use(middleware.RateLimit(deps.Config.IngestPerMinute, deps.Config.IngestBurst))
			{
				ingest.POST("/samples", trackingController.IngestSample)
				ingest.POST("/heart-rate", trackingController.IngestHeartRate)
			}
		}

		// Recovery of interrupted sessions
		recovery := protected.Group("/recovery")
		{
			recovery.GET("/interrupted", recoveryController.CheckInterrupted)
			recovery.POST("/resume", recoveryController.ResumeInterrupted)
			recovery.POST("/end", recoveryController.EndInterrupted)
			recovery.POST("/dismiss", recoveryController.DismissInterrupted)
		}
	}
}

// SetupCORS configures cross-origin headers for the mobile clients
func SetupCORS(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}
