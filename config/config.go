// File: /config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	RedisAddr   string
	RedisPass   string

	// Tracking engine knobs
	FlushInterval    time.Duration // sync engine cadence
	JumpThresholdM   float64       // legs beyond this are excluded from distance
	StopGracePeriod  time.Duration // wait for in-flight writes on stop
	HeartbeatStale   time.Duration // heartbeats older than this are marked offline
	CleanupInterval  time.Duration // stale-heartbeat sweep cadence
	IngestPerMinute  int           // sample ingest rate limit per client
	IngestBurst      int

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func Load() *Config {
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "2525"))

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)/squadrun?charset=utf8mb4&parseTime=True&loc=Local"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		RedisPass:   getEnv("REDIS_PASSWORD", ""),

		FlushInterval:   time.Duration(getEnvInt("FLUSH_INTERVAL_SECONDS", 10)) * time.Second,
		JumpThresholdM:  getEnvFloat("JUMP_THRESHOLD_M", 500),
		StopGracePeriod: time.Duration(getEnvInt("STOP_GRACE_MILLIS", 1500)) * time.Millisecond,
		HeartbeatStale:  time.Duration(getEnvInt("HEARTBEAT_STALE_MINUTES", 5)) * time.Minute,
		CleanupInterval: time.Duration(getEnvInt("CLEANUP_INTERVAL_MINUTES", 5)) * time.Minute,
		IngestPerMinute: getEnvInt("INGEST_PER_MINUTE", 120),
		IngestBurst:     getEnvInt("INGEST_BURST", 30),

		// Email settings
		SMTPHost:     getEnv("SMTP_HOST", "sandbox.smtp.mailtrap.io"),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@squadrun.app"),
		FromName:     getEnv("FROM_NAME", "SquadRun"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
