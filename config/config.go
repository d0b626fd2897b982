package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Snapshot format values control which derived preview assets are produced
// for each downloaded recording.
const (
	SnapshotStill    = "still"
	SnapshotAnimated = "animated"
	SnapshotBoth     = "both"
)

const (
	DefaultScanIntervalMinutes = 15
	DefaultUploadDelaySeconds  = 30
	DefaultRequestTimeout      = 30 * time.Second
	DefaultTranscodeTimeout    = 60 * time.Second
)

// Config contains all configuration for the application
type Config struct {
	// Home Assistant connection
	HassHost          string // e.g. http://localhost:8123
	HassToken         string // long-lived access token
	MediaPlayerEntity string // entity used for browse_media service calls

	// Refresh cycle
	ScanIntervalMinutes int    // 1-60 minutes between refresh cycles
	SnapshotFormat      string // still, animated or both
	EnableCaching       bool   // skip downloads when the recording id is unchanged
	UploadDelaySeconds  int    // 5-300 s settle delay for event-driven refreshes

	// Timeouts
	RequestTimeout   time.Duration // per HTTP request / socket exchange
	TranscodeTimeout time.Duration // per ffmpeg invocation

	// Storage Configuration
	StoragePath    string
	MinFreeSpaceMB uint64 // minimum free space required before a download

	// Server Configuration
	ServerPort string
	BaseURL    string // base URL for media/preview links in sensor records

	// Database Configuration
	DatabasePath string

	// MQTT event publishing (optional)
	MQTTBrokerURL string
	MQTTClientID  string

	// S3 mirror of the latest assets (optional)
	S3Enabled   bool
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() Config {
	cfg := Config{
		HassHost:          getEnv("HASS_HOST", "http://localhost:8123"),
		HassToken:         getEnv("HASS_TOKEN", ""),
		MediaPlayerEntity: getEnv("MEDIA_PLAYER_ENTITY", "media_player.reolink_recordings_browser"),

		ScanIntervalMinutes: getEnvInt("SCAN_INTERVAL_MINUTES", DefaultScanIntervalMinutes),
		SnapshotFormat:      getEnv("SNAPSHOT_FORMAT", SnapshotBoth),
		EnableCaching:       getEnvBool("ENABLE_CACHING", true),
		UploadDelaySeconds:  getEnvInt("UPLOAD_DELAY_SECONDS", DefaultUploadDelaySeconds),

		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		TranscodeTimeout: time.Duration(getEnvInt("TRANSCODE_TIMEOUT_SECONDS", 60)) * time.Second,

		StoragePath:    getEnv("STORAGE_PATH", "./data/reolink_recordings"),
		MinFreeSpaceMB: uint64(getEnvInt("MIN_FREE_SPACE_MB", 500)),

		ServerPort: getEnv("SERVER_PORT", "3000"),
		BaseURL:    getEnv("BASE_URL", "http://localhost:3000"),

		DatabasePath: getEnv("DATABASE_PATH", "./data/recordings.db"),

		MQTTBrokerURL: getEnv("MQTT_BROKER_URL", ""),
		MQTTClientID:  getEnv("MQTT_CLIENT_ID", "reolink-sync"),

		S3Enabled:   getEnvBool("S3_ENABLED", false),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "auto"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
	}

	// Clamp out-of-range values back to defaults rather than refusing to start.
	if cfg.ScanIntervalMinutes < 1 || cfg.ScanIntervalMinutes > 60 {
		log.Printf("SCAN_INTERVAL_MINUTES %d out of range (1-60), using default %d",
			cfg.ScanIntervalMinutes, DefaultScanIntervalMinutes)
		cfg.ScanIntervalMinutes = DefaultScanIntervalMinutes
	}
	if cfg.UploadDelaySeconds < 5 || cfg.UploadDelaySeconds > 300 {
		log.Printf("UPLOAD_DELAY_SECONDS %d out of range (5-300), using default %d",
			cfg.UploadDelaySeconds, DefaultUploadDelaySeconds)
		cfg.UploadDelaySeconds = DefaultUploadDelaySeconds
	}
	switch cfg.SnapshotFormat {
	case SnapshotStill, SnapshotAnimated, SnapshotBoth:
	default:
		log.Printf("Unknown SNAPSHOT_FORMAT %q, using %q", cfg.SnapshotFormat, SnapshotBoth)
		cfg.SnapshotFormat = SnapshotBoth
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.TranscodeTimeout <= 0 {
		cfg.TranscodeTimeout = DefaultTranscodeTimeout
	}

	log.Printf("Home Assistant host: %s (browse entity %s)", cfg.HassHost, cfg.MediaPlayerEntity)
	log.Printf("Storage path: %s", cfg.StoragePath)
	log.Printf("Scan interval: %d minutes, snapshot format: %s, caching: %v",
		cfg.ScanIntervalMinutes, cfg.SnapshotFormat, cfg.EnableCaching)
	log.Printf("Server running on port %s with base URL %s", cfg.ServerPort, cfg.BaseURL)

	return cfg
}

// RecordingsDir returns the directory holding the latest video and preview assets.
func (c Config) RecordingsDir() string {
	return filepath.Join(c.StoragePath, "recordings")
}

// MetadataDir returns the directory holding the durable metadata file.
func (c Config) MetadataDir() string {
	return filepath.Join(c.StoragePath, "metadata")
}

// EnsurePaths creates necessary paths
func EnsurePaths(cfg Config) {
	for _, dir := range []string{cfg.RecordingsDir(), cfg.MetadataDir(), filepath.Dir(cfg.DatabasePath)} {
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
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

// getEnvBool returns a boolean environment variable or fallback value
func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %v", key, value, fallback)
		return fallback
	}
	return b
}
