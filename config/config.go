package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// Config contains all configuration for the application. It is built once at
// startup and passed by reference to every component; nothing reads the
// environment after LoadConfig returns.
type Config struct {
	// Server Configuration
	ServerPort string
	BaseURL    string // Base URL the generated scripts use for failure callbacks

	// Database Configuration
	DatabasePath string

	// Civil timezone all schedule comparisons are normalized to
	Timezone string

	// Streaming artifact paths
	ScriptsPath string // per-camera restart-loop scripts
	LivePath    string // per-camera HLS output directories
	UnitsPath   string // systemd unit files

	// Scheduler Configuration
	TickIntervalSeconds int

	// Camera HTTP control API
	CameraTimeoutSeconds int

	// Mail Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	SupportEmail string

	// Monitoring Configuration
	MonitorIntervalSeconds int
}

// LoadConfig loads configuration from environment variables with defaults.
func LoadConfig() Config {
	cfg := Config{
		ServerPort:             getEnv("SERVER_PORT", "3000"),
		BaseURL:                getEnv("BASE_URL", "http://localhost:3000"),
		DatabasePath:           getEnv("DATABASE_PATH", "./data/sedecam.db"),
		Timezone:               getEnv("TIMEZONE", "America/Bogota"),
		ScriptsPath:            getEnv("SCRIPTS_PATH", "/var/www/cameras/cams_sh"),
		LivePath:               getEnv("LIVE_PATH", "/var/www/cameras/live"),
		UnitsPath:              getEnv("UNITS_PATH", "/etc/systemd/system"),
		TickIntervalSeconds:    getEnvInt("TICK_INTERVAL_SECONDS", 1),
		CameraTimeoutSeconds:   getEnvInt("CAMERA_TIMEOUT_SECONDS", 3),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getEnvInt("SMTP_PORT", 587),
		SMTPUser:               getEnv("SMTP_USER", ""),
		SMTPPass:               getEnv("SMTP_PASS", ""),
		SupportEmail:           getEnv("SUPPORT_EMAIL", ""),
		MonitorIntervalSeconds: getEnvInt("MONITOR_INTERVAL_SECONDS", 300),
	}

	log.Printf("Server running on port %s with base URL %s", cfg.ServerPort, cfg.BaseURL)
	log.Printf("Database Path: %s", cfg.DatabasePath)
	log.Printf("Civil timezone: %s", cfg.Timezone)
	log.Printf("Streaming paths: scripts=%s live=%s units=%s",
		cfg.ScriptsPath, cfg.LivePath, cfg.UnitsPath)
	log.Printf("Scheduler tick interval: %ds", cfg.TickIntervalSeconds)

	return cfg
}

// EnsurePaths creates necessary paths
func EnsurePaths(cfg Config) {
	dbDir := filepath.Dir(cfg.DatabasePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Printf("Failed to create database directory %s: %v", dbDir, err)
	}

	for _, dir := range []string{cfg.ScriptsPath, cfg.LivePath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("Failed to create directory %s: %v", dir, err)
		}
	}
}

// getEnv returns environment variable or fallback value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback value
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}
