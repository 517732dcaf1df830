// File: /repositories/session_repository.go
package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"squadrun-api/models"
)

// SessionRepository is the MySQL-backed remote session store. Session rows
// are shared with other participants, so every mutation here is a field-level
// update or an additive insert, never a whole-row overwrite.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// RoutePoints returns one participant's persisted track in sequence order
func (r *SessionRepository) RoutePoints(ctx context.Context, sessionID, userID string) ([]models.RoutePointRecord, error) {
	var points []models.RoutePointRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Order("seq ASC").
		Find(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}

// UnfinishedSessionsByUser finds sessions still marked active or paused that
// the user created or participated in, newest first
func (r *SessionRepository) UnfinishedSessionsByUser(ctx context.Context, userID string) ([]models.Session, error) {
	participated := r.db.Model(&models.ParticipantStats{}).
		Select("session_id").
		Where("user_id = ?", userID)

	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{models.SessionStatusActive, models.SessionStatusPaused}).
		Where("creator_id = ? OR id IN (?)", userID, participated).
		Order("start_time DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// ActiveSessionsBySquad lists a squad's running or paused sessions with their
// participant stats, for the squad map screen
func (r *SessionRepository) ActiveSessionsBySquad(ctx context.Context, squadID string) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Preload("Stats").
		Where("squad_id = ? AND status IN ?", squadID, []string{models.SessionStatusActive, models.SessionStatusPaused}).
		Order("start_time DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// MarkParticipantTracking additively joins the user to the session's
// participant list; only the participant fields are written
func (r *SessionRepository) MarkParticipantTracking(ctx context.Context, sessionID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, "id = ?", sessionID).Error; err != nil {
			return err
		}

		if session.ParticipantIDs.Contains(userID) {
			return nil
		}

		participants := append(session.ParticipantIDs, userID)
		return tx.Model(&models.Session{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
			"participant_ids":   participants,
			"participant_count": len(participants),
			"updated_at":        time.Now(),
		}).Error
	})
}

func (r *SessionRepository) SetSessionStatus(ctx context.Context, sessionID, status string) error {
	return r.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}).Error
}

// EndSession marks the session ended with its final duration and distance
func (r *SessionRepository) EndSession(ctx context.Context, sessionID string, duration int, distance float64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
		"status":     models.SessionStatusEnded,
		"end_time":   &now,
		"duration":   duration,
		"distance":   distance,
		"updated_at": now,
	}).Error
}

// AppendRoutePoints persists a batch. The unique (session_id, user_id, seq)
// key plus ON CONFLICT ignore makes redelivery after a failed flush harmless.
func (r *SessionRepository) AppendRoutePoints(ctx context.Context, points []models.RoutePointRecord) error {
	if len(points) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&points).Error
}

// UpsertParticipantStats writes the per-participant aggregate for one flush
func (r *SessionRepository) UpsertParticipantStats(ctx context.Context, stats models.ParticipantStats) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"distance", "duration", "average_speed", "max_speed",
				"heart_rate", "max_heart_rate", "last_update",
			}),
		}).
		Create(&stats).Error
}

// UpsertHeartbeat refreshes the participant's liveness record
func (r *SessionRepository) UpsertHeartbeat(ctx context.Context, heartbeat models.ParticipantHeartbeat) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"latitude", "longitude", "heart_rate", "is_live", "updated_at",
			}),
		}).
		Create(&heartbeat).Error
}

// SessionHeartbeats returns the liveness records for all participants of a
// session, for viewers rendering presence
func (r *SessionRepository) SessionHeartbeats(ctx context.Context, sessionID string) ([]models.ParticipantHeartbeat, error) {
	var heartbeats []models.ParticipantHeartbeat
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Find(&heartbeats).Error
	if err != nil {
		return nil, err
	}
	return heartbeats, nil
}

// MarkStaleHeartbeatsOffline flips heartbeats not refreshed within staleAfter
// to offline so viewers can tell a dead participant from a slow one
func (r *SessionRepository) MarkStaleHeartbeatsOffline(ctx context.Context, staleAfter time.Duration) (int64, error) {
	cutoff := time.Now().Add(-staleAfter)
	result := r.db.WithContext(ctx).Model(&models.ParticipantHeartbeat{}).
		Where("is_live = ? AND updated_at < ?", true, cutoff).
		Update("is_live", false)
	return result.RowsAffected, result.Error
}
