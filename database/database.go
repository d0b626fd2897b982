package database

import (
	"time"
)

// Recording is one row of the recording history: a clip that was discovered
// and downloaded during a refresh cycle.
type Recording struct {
	ID          int64     `json:"id"`          // Auto-assigned row id
	Camera      string    `json:"camera"`      // Canonical camera name
	RecordingID string    `json:"recordingId"` // Composite change-detection key
	Date        string    `json:"date"`        // Catalog date title
	Timestamp   string    `json:"timestamp"`   // Clip start time
	Duration    string    `json:"duration"`    // Clip duration
	EventType   string    `json:"eventType"`   // Event classification (Person, Vehicle, Motion, ...)
	Path        string    `json:"path"`        // Local path of the downloaded video
	CreatedAt   time.Time `json:"createdAt"`   // When the download completed
}

// Database defines the interface for recording history operations
type Database interface {
	// History operations
	InsertRecording(rec Recording) error
	ListRecordings(camera string, limit, offset int) ([]Recording, error)
	LatestRecording(camera string) (*Recording, error)
	CountRecordings(camera string) (int, error)

	// Helper operations
	Close() error
}
