package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsColdStart(t *testing.T) {
	s := NewMetadataStore(t.TempDir())

	meta, err := s.Load()
	if err != nil {
		t.Fatalf("Load of missing file returned error: %v", err)
	}
	if len(meta.Recordings) != 0 || len(meta.RecordingCache) != 0 {
		t.Errorf("cold start metadata not empty: %+v", meta)
	}
}

func TestLoadCorruptFileDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	s := NewMetadataStore(dir)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	meta, err := s.Load()
	if err == nil {
		t.Error("Load of corrupt file returned no error")
	}
	if meta == nil || len(meta.Recordings) != 0 {
		t.Errorf("corrupt file did not degrade to empty metadata: %+v", meta)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewMetadataStore(t.TempDir())

	meta := NewMetadata()
	meta.Recordings["Driveway"] = "/data/recordings/driveway_latest.mp4"
	meta.RecordingCache["Driveway"] = CacheEntry{
		RecordingID: "0|14:30:00|0:00:20",
		Timestamp:   "14:30:00",
		EventType:   "Person",
		Duration:    "0:00:20",
		Path:        "/data/recordings/driveway_latest.mp4",
	}

	if err := s.Save(meta); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if meta.LastUpdate == "" {
		t.Error("Save did not stamp LastUpdate")
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.LastUpdate != meta.LastUpdate {
		t.Errorf("LastUpdate = %q, want %q", loaded.LastUpdate, meta.LastUpdate)
	}
	if loaded.Recordings["Driveway"] != meta.Recordings["Driveway"] {
		t.Errorf("Recordings = %+v", loaded.Recordings)
	}
	if loaded.RecordingCache["Driveway"] != meta.RecordingCache["Driveway"] {
		t.Errorf("RecordingCache = %+v", loaded.RecordingCache)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s := NewMetadataStore(dir)

	if err := s.Save(NewMetadata()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestSaveCreatesMetadataDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "metadata")
	s := NewMetadataStore(dir)

	if err := s.Save(NewMetadata()); err != nil {
		t.Fatalf("Save into missing directory: %v", err)
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("metadata file not written: %v", err)
	}
}
