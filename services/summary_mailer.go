// File: /services/summary_mailer.go
package services

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
	"squadrun-api/config"
	"squadrun-api/models"
)

// SummaryMailer sends the post-run summary email. Strictly advisory: a
// failed send is logged and forgotten, it never affects the session.
type SummaryMailer struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewSummaryMailer(cfg *config.Config) *SummaryMailer {
	return &SummaryMailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// SendSessionSummary emails the participant their final numbers for one run
func (sm *SummaryMailer) SendSessionSummary(email, name string, session *models.Session, metrics models.LiveMetricsResponse) error {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", sm.config.FromName, sm.config.FromEmail))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "SquadRun - Your run summary")

	duration := time.Duration(metrics.Duration) * time.Second
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1 style="color: #2e7d32;">SquadRun</h1>
        <h2>Nice run, %s!</h2>
        <p>Here is how <strong>%s</strong> went:</p>
        <ul>
            <li>Distance: %.2f km</li>
            <li>Duration: %s</li>
            <li>Average speed: %.1f km/h</li>
            <li>Max speed: %.1f km/h</li>
        </ul>
        <p>See the full route and your squad's stats in the app.</p>
    </div>
</body>
</html>`,
		name,
		session.Title,
		metrics.Distance/1000,
		duration.Round(time.Second),
		metrics.AverageSpeed*3.6,
		metrics.MaxSpeed*3.6,
	)

	m.SetBody("text/html", htmlBody)

	if err := sm.dialer.DialAndSend(m); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("could not send session summary email")
		return err
	}

	log.Info().Str("email", email).Str("session_id", session.ID).Msg("session summary email sent")
	return nil
}
