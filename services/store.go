// File: /services/store.go
package services

import (
	"context"

	"squadrun-api/models"
)

// SessionStore is the remote session store as seen by the tracking core.
// Implementations must keep every mutation field-level or additive: session
// documents are shared with other participants and collaborators, so no call
// here may overwrite sibling fields wholesale.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// RoutePoints returns a participant's persisted track in sequence order
	RoutePoints(ctx context.Context, sessionID, userID string) ([]models.RoutePointRecord, error)

	// UnfinishedSessionsByUser returns sessions still marked active or paused
	// that the user created or participated in
	UnfinishedSessionsByUser(ctx context.Context, userID string) ([]models.Session, error)

	// MarkParticipantTracking records that the participant is actively
	// tracking, additively joining the session's participant list
	MarkParticipantTracking(ctx context.Context, sessionID, userID string) error

	SetSessionStatus(ctx context.Context, sessionID, status string) error

	// EndSession marks the session ended with its final duration and distance
	EndSession(ctx context.Context, sessionID string, duration int, distance float64) error

	// AppendRoutePoints persists a batch; it must tolerate redelivery of
	// already-persisted sequence numbers without duplicating points
	AppendRoutePoints(ctx context.Context, points []models.RoutePointRecord) error

	UpsertParticipantStats(ctx context.Context, stats models.ParticipantStats) error

	UpsertHeartbeat(ctx context.Context, heartbeat models.ParticipantHeartbeat) error
}
