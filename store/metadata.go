package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// metadataFilename is the fixed name of the durable metadata file inside the
// metadata directory.
const metadataFilename = "recordings.json"

// CacheEntry is the persisted record of one camera's last-known recording.
// The recording id is the unit of change detection for skip-download
// decisions on the next cycle.
type CacheEntry struct {
	RecordingID string `json:"recording_id"`
	Timestamp   string `json:"timestamp"`
	EventType   string `json:"event_type"`
	Duration    string `json:"duration"`
	Path        string `json:"path"`
}

// Metadata is the full durable record, rewritten wholesale after every
// successful cycle.
type Metadata struct {
	LastUpdate     string                `json:"last_update"`
	Recordings     map[string]string     `json:"recordings"`
	RecordingCache map[string]CacheEntry `json:"recording_cache"`
}

// NewMetadata returns an empty metadata record with initialized maps.
func NewMetadata() *Metadata {
	return &Metadata{
		Recordings:     make(map[string]string),
		RecordingCache: make(map[string]CacheEntry),
	}
}

// MetadataStore persists Metadata as a flat JSON file.
type MetadataStore struct {
	path string
}

// NewMetadataStore creates a store writing to dir/recordings.json.
func NewMetadataStore(dir string) *MetadataStore {
	return &MetadataStore{path: filepath.Join(dir, metadataFilename)}
}

// Path returns the metadata file location.
func (s *MetadataStore) Path() string { return s.path }

// Load reads the metadata file. A missing file is a normal cold start and
// yields empty metadata without error; a corrupt file yields empty metadata
// plus the error so the caller can log it.
func (s *MetadataStore) Load() (*Metadata, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMetadata(), nil
		}
		return NewMetadata(), fmt.Errorf("failed to read metadata file %s: %v", s.path, err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return NewMetadata(), fmt.Errorf("failed to parse metadata file %s: %v", s.path, err)
	}
	if meta.Recordings == nil {
		meta.Recordings = make(map[string]string)
	}
	if meta.RecordingCache == nil {
		meta.RecordingCache = make(map[string]CacheEntry)
	}
	return &meta, nil
}

// Save writes the metadata file atomically via a temp file and rename so a
// crash mid-write can never leave a truncated record behind.
func (s *MetadataStore) Save(meta *Metadata) error {
	if meta.LastUpdate == "" {
		meta.LastUpdate = time.Now().UTC().Format(time.RFC3339)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %v", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %v", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %v", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace metadata file: %v", err)
	}
	return nil
}
