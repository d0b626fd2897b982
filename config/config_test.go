package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.ScanIntervalMinutes != DefaultScanIntervalMinutes {
		t.Errorf("ScanIntervalMinutes = %d", cfg.ScanIntervalMinutes)
	}
	if cfg.SnapshotFormat != SnapshotBoth {
		t.Errorf("SnapshotFormat = %q", cfg.SnapshotFormat)
	}
	if !cfg.EnableCaching {
		t.Error("EnableCaching = false")
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
}

func TestLoadConfigClampsOutOfRange(t *testing.T) {
	t.Setenv("SCAN_INTERVAL_MINUTES", "0")
	t.Setenv("UPLOAD_DELAY_SECONDS", "900")
	t.Setenv("SNAPSHOT_FORMAT", "hologram")

	cfg := LoadConfig()
	if cfg.ScanIntervalMinutes != DefaultScanIntervalMinutes {
		t.Errorf("ScanIntervalMinutes = %d, want clamped default", cfg.ScanIntervalMinutes)
	}
	if cfg.UploadDelaySeconds != DefaultUploadDelaySeconds {
		t.Errorf("UploadDelaySeconds = %d, want clamped default", cfg.UploadDelaySeconds)
	}
	if cfg.SnapshotFormat != SnapshotBoth {
		t.Errorf("SnapshotFormat = %q, want fallback", cfg.SnapshotFormat)
	}
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("HASS_HOST", "http://hass.example:8123")
	t.Setenv("SCAN_INTERVAL_MINUTES", "5")
	t.Setenv("SNAPSHOT_FORMAT", SnapshotStill)
	t.Setenv("ENABLE_CACHING", "false")

	cfg := LoadConfig()
	if cfg.HassHost != "http://hass.example:8123" {
		t.Errorf("HassHost = %q", cfg.HassHost)
	}
	if cfg.ScanIntervalMinutes != 5 {
		t.Errorf("ScanIntervalMinutes = %d", cfg.ScanIntervalMinutes)
	}
	if cfg.SnapshotFormat != SnapshotStill {
		t.Errorf("SnapshotFormat = %q", cfg.SnapshotFormat)
	}
	if cfg.EnableCaching {
		t.Error("EnableCaching = true")
	}
}
