// File: /services/recovery_service.go
package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"squadrun-api/models"
)

// RecoveryService finds sessions a user left active or paused after an
// unclean termination (crash, OS kill, battery death) and offers
// resume-or-terminate semantics. It never starts tracking on its own.
type RecoveryService struct {
	store   SessionStore
	tracker *Tracker

	mu          sync.Mutex
	interrupted map[string]*models.Session
}

func NewRecoveryService(store SessionStore, tracker *Tracker) *RecoveryService {
	return &RecoveryService{
		store:       store,
		tracker:     tracker,
		interrupted: map[string]*models.Session{},
	}
}

// CheckInterrupted queries for the user's unfinished sessions. Query failures
// surface as "nothing found" so a flaky store never blocks app startup. When
// the store yields more than one (a data-integrity condition session creation
// should prevent), only the most recently started is surfaced.
func (r *RecoveryService) CheckInterrupted(ctx context.Context, userID string) *models.Session {
	sessions, err := r.store.UnfinishedSessionsByUser(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("interrupted-session query failed")
		return nil
	}
	if len(sessions) == 0 {
		r.mu.Lock()
		delete(r.interrupted, userID)
		r.mu.Unlock()
		return nil
	}

	newest := sessions[0]
	for _, session := range sessions[1:] {
		if session.StartTime.After(newest.StartTime) {
			newest = session
		}
	}
	if len(sessions) > 1 {
		log.Warn().Str("user_id", userID).Int("count", len(sessions)).Msg("multiple unfinished sessions, surfacing newest")
	}

	r.mu.Lock()
	r.interrupted[userID] = &newest
	r.mu.Unlock()
	return &newest
}

// Resume hands the interrupted session back to the tracker, which pre-loads
// the persisted route so the visible track continues where it left off
func (r *RecoveryService) Resume(ctx context.Context, userID string) (*models.Session, error) {
	r.mu.Lock()
	session := r.interrupted[userID]
	r.mu.Unlock()
	if session == nil {
		return nil, ErrNoInterrupted
	}

	if err := r.tracker.Start(ctx, session, userID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	delete(r.interrupted, userID)
	r.mu.Unlock()
	return session, nil
}

// End terminates the interrupted session remotely. There is nothing local to
// tear down, so this bypasses the tracker entirely.
func (r *RecoveryService) End(ctx context.Context, userID string) error {
	r.mu.Lock()
	session := r.interrupted[userID]
	r.mu.Unlock()
	if session == nil {
		return ErrNoInterrupted
	}

	if err := r.store.EndSession(ctx, session.ID, session.Duration, session.Distance); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.interrupted, userID)
	r.mu.Unlock()
	log.Info().Str("session_id", session.ID).Msg("interrupted session ended without resuming")
	return nil
}

// Dismiss clears only the local prompt; the session stays active remotely
// and will be offered again on the next check
func (r *RecoveryService) Dismiss(userID string) {
	r.mu.Lock()
	delete(r.interrupted, userID)
	r.mu.Unlock()
}
