// File: /jobs/heartbeat_cleanup_job.go
package jobs

import (
	"context"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"squadrun-api/repositories"
	"time"
)

// HeartbeatCleanupJob periodically flips stale participant heartbeats to
// offline so session screens stop showing dead markers as live.
type HeartbeatCleanupJob struct {
	repo       *repositories.SessionRepository
	staleAfter time.Duration
	ticker     *time.Ticker
	done       chan bool
}

// NewHeartbeatCleanupJob creates a new heartbeat cleanup job
func NewHeartbeatCleanupJob(db *gorm.DB, interval, staleAfter time.Duration) *HeartbeatCleanupJob {
	return &HeartbeatCleanupJob{
		repo:       repositories.NewSessionRepository(db),
		staleAfter: staleAfter,
		ticker:     time.NewTicker(interval),
		done:       make(chan bool),
	}
}

// Start begins the cleanup job
func (j *HeartbeatCleanupJob) Start() {
	log.Info().Msg("heartbeat cleanup job started")

	go func() {
		// Run immediately on start
		j.cleanup()

		// Then run on schedule
		for {
			select {
			case <-j.ticker.C:
				j.cleanup()
			case <-j.done:
				log.Info().Msg("heartbeat cleanup job stopped")
				return
			}
		}
	}()
}

// Stop stops the cleanup job
func (j *HeartbeatCleanupJob) Stop() {
	j.ticker.Stop()
	j.done <- true
}

func (j *HeartbeatCleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	affected, err := j.repo.MarkStaleHeartbeatsOffline(ctx, j.staleAfter)
	if err != nil {
		log.Warn().Err(err).Msg("heartbeat cleanup failed")
		return
	}

	if affected > 0 {
		log.Info().Int64("marked_offline", affected).Msg("heartbeat cleanup completed")
	}
}
