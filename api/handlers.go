package api

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"reolink-sync/storage"
)

// CameraRecord is the sensor-style view of one camera's latest recording.
// Cameras whose lookup failed are reported as unavailable rather than
// dropped from the listing.
type CameraRecord struct {
	Camera      string `json:"camera"`
	State       string `json:"state"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
	Date        string `json:"date,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Duration    string `json:"duration,omitempty"`
	EventType   string `json:"event_type,omitempty"`
	RecordingID string `json:"recording_id,omitempty"`
	Path        string `json:"path,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
	StillURL    string `json:"still_url,omitempty"`
}

// MediaItem is one entry of the media browsing root.
type MediaItem struct {
	Title       string `json:"title"`
	Identifier  string `json:"identifier"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// handleCameras returns one sensor record per discovered camera.
func (s *Server) handleCameras(c *gin.Context) {
	state := s.engine.State()

	// Stamp asset URLs with the cycle time so downstream caches refetch
	// after every update.
	bust := state.LastUpdate.Unix()
	if state.LastUpdate.IsZero() {
		bust = 0
	}

	records := make([]CameraRecord, 0, len(state.Descriptors))
	for _, desc := range state.Descriptors {
		if desc.Failed() {
			records = append(records, CameraRecord{
				Camera:    desc.Camera,
				State:     "unavailable",
				Available: false,
				Error:     desc.Err,
				Date:      desc.Date,
			})
			continue
		}

		rec := CameraRecord{
			Camera:      desc.Camera,
			State:       fmt.Sprintf("%s %s - %s", desc.Date, desc.Timestamp, desc.EventType),
			Available:   true,
			Date:        desc.Date,
			Timestamp:   desc.Timestamp,
			Duration:    desc.Duration,
			EventType:   desc.EventType,
			RecordingID: desc.RecordingID,
		}

		if path, ok := state.RecordingPaths[desc.Camera]; ok {
			rec.Path = path
			rec.VideoURL = s.assetURL(storage.VideoFilename(desc.Camera), bust)
		}
		if _, ok := state.StillPaths[desc.Camera]; ok {
			rec.StillURL = s.assetURL(storage.StillFilename(desc.Camera), bust)
		}

		// Preview prefers the animated asset and falls back to the still
		// when the GIF was not produced.
		if _, ok := state.AnimatedPaths[desc.Camera]; ok {
			rec.PreviewURL = s.assetURL(storage.AnimatedFilename(desc.Camera), bust)
		} else if rec.StillURL != "" {
			rec.PreviewURL = rec.StillURL
		}

		records = append(records, rec)
	}

	c.JSON(http.StatusOK, gin.H{
		"last_update": state.LastUpdate,
		"cameras":     records,
	})
}

// handleMediaRoot lists every downloaded asset, sorted by title.
func (s *Server) handleMediaRoot(c *gin.Context) {
	state := s.engine.State()

	seen := make(map[string]bool)
	items := make([]MediaItem, 0, len(state.RecordingPaths))

	add := func(path, contentType string) {
		name := filepath.Base(path)
		if seen[name] {
			return
		}
		seen[name] = true
		items = append(items, MediaItem{
			Title:       name,
			Identifier:  name,
			ContentType: contentType,
			URL:         s.cfg.BaseURL + "/api/media/" + name,
		})
	}

	for _, path := range state.RecordingPaths {
		add(path, "video/mp4")
	}
	for _, path := range state.StillPaths {
		add(path, "image/jpeg")
	}
	for _, path := range state.AnimatedPaths {
		add(path, "image/gif")
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Title < items[j].Title })

	c.JSON(http.StatusOK, gin.H{"media": items})
}

// handleMediaItem serves one asset by identifier. An identifier the engine
// never produced and an asset whose file has gone missing are reported
// separately so callers can tell a bad request from lost storage.
func (s *Server) handleMediaItem(c *gin.Context) {
	identifier := c.Param("identifier")

	path, ok := s.lookupAsset(identifier)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown media identifier"})
		return
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "media file missing from storage"})
		return
	}

	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		c.Header("Content-Type", ct)
	}
	c.File(path)
}

// lookupAsset maps a media identifier (asset filename) back to its path.
func (s *Server) lookupAsset(identifier string) (string, bool) {
	state := s.engine.State()
	for _, paths := range []map[string]string{state.RecordingPaths, state.StillPaths, state.AnimatedPaths} {
		for _, path := range paths {
			if filepath.Base(path) == identifier {
				return path, true
			}
		}
	}
	return "", false
}

// handleHistory returns download history rows, newest first.
func (s *Server) handleHistory(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history database not configured"})
		return
	}

	camera := c.Query("camera")
	limit := parseIntParam(c.Query("limit"), 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := parseIntParam(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	recordings, err := s.db.ListRecordings(camera, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	total, err := s.db.CountRecordings(camera)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recordings": recordings,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// handleRefresh runs one refresh cycle immediately.
func (s *Server) handleRefresh(c *gin.Context) {
	ok := s.engine.RequestRefresh(c.Request.Context())
	if !ok {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": "refresh did not complete; it may already be running",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"updates": s.engine.LastUpdates(),
	})
}

func (s *Server) assetURL(filename string, bust int64) string {
	return fmt.Sprintf("%s/recordings/%s?t=%d", s.cfg.BaseURL, filename, bust)
}

func parseIntParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
