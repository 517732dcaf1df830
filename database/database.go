// File: /database/database.go
package database

import (
	"fmt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"squadrun-api/models"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Auto migrate all models
	err := db.AutoMigrate(
		&models.User{},
		&models.Squad{},
		&models.SquadMember{},
		&models.Session{},
		&models.RoutePointRecord{},
		&models.ParticipantStats{},
		&models.ParticipantHeartbeat{},
	)

	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Add custom indexes for better query performance
	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	// Recovery path: unfinished sessions per user, newest first
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_creator_status_start ON sessions(creator_id, status, start_time DESC)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for sessions recovery lookup: %v\n", err)
	}

	// Squad map screen: active sessions per squad
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_squad_status ON sessions(squad_id, status)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for sessions squad lookup: %v\n", err)
	}

	// Route read-back in arrival order
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_route_points_session_user_ts ON route_points(session_id, user_id, timestamp)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for route_points read-back: %v\n", err)
	}

	// Stale-heartbeat sweep
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_heartbeats_live_updated ON participant_heartbeats(is_live, updated_at)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for participant_heartbeats sweep: %v\n", err)
	}

	return nil
}
