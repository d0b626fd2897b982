package catalog

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
)

// unknownField is the placeholder for clip title fields that could not be
// parsed.
const unknownField = "Unknown"

// defaultEventType labels clips whose title carries no event classification.
const defaultEventType = "Motion"

// RecordingDescriptor describes one camera's most recent recording, or the
// reason its lookup failed. A descriptor with Err set must not participate
// in caching, downloading or sensor emission.
type RecordingDescriptor struct {
	CameraIndex int    `json:"camera_index"`
	Camera      string `json:"camera"`
	Date        string `json:"date,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Duration    string `json:"duration,omitempty"`
	EventType   string `json:"event_type,omitempty"`
	ContentID   string `json:"media_content_id,omitempty"`
	RecordingID string `json:"recording_id,omitempty"`
	CanPlay     bool   `json:"can_play,omitempty"`
	Err         string `json:"error,omitempty"`
}

// Failed reports whether this descriptor records a failed per-camera lookup.
func (d RecordingDescriptor) Failed() bool { return d.Err != "" }

// RecordingID derives the change-detection key for a clip. Two clips with
// the same camera index, timestamp and duration are treated as the same
// physical recording.
func RecordingID(cameraIndex int, timestamp, duration string) string {
	return fmt.Sprintf("%d|%s|%s", cameraIndex, timestamp, duration)
}

// CameraContentID builds the catalog node id for a camera index.
func CameraContentID(hubID string, index int) string {
	return fmt.Sprintf("%s/CAM%s%s%s%d", RootContentID, contentIDDelimiter, hubID, contentIDDelimiter, index)
}

// Locator descends the catalog below one camera (quality tier, date, clip)
// to find its single most recent recording.
type Locator struct {
	browser Browser
}

// NewLocator creates a Locator over the given Browser.
func NewLocator(browser Browser) *Locator {
	return &Locator{browser: browser}
}

// LatestRecording finds the most recent clip for the camera at index. Every
// failure mode is contained within this camera: transport and catalog errors
// come back as an error descriptor, never as an error that could abort the
// discovery of other cameras.
func (l *Locator) LatestRecording(ctx context.Context, index int, cameraName, hubID string) (desc RecordingDescriptor) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered panic while locating recording for %s: %v", cameraName, r)
			desc = errorDescriptor(index, cameraName, fmt.Sprintf("panic: %v", r))
		}
	}()

	// Step 1: quality tiers under the camera node.
	qualities, err := l.browser.Browse(ctx, CameraContentID(hubID, index))
	if err != nil {
		return errorDescriptor(index, cameraName, err.Error())
	}
	if len(qualities) == 0 {
		return errorDescriptor(index, cameraName, "no resolution options found")
	}

	// Prefer the main (highest fidelity) stream, accept any stream over none.
	quality := qualities[0]
	for _, q := range qualities {
		if strings.Contains(q.ContentID, "main") {
			quality = q
			break
		}
	}

	// Step 2: dates under the chosen quality tier, newest first. Titles use
	// a fixed-width date format so a descending lexicographic sort is a
	// descending chronological sort.
	dates, err := l.browser.Browse(ctx, quality.ContentID)
	if err != nil {
		return errorDescriptor(index, cameraName, err.Error())
	}
	if len(dates) == 0 {
		return errorDescriptor(index, cameraName, "no dates found")
	}
	sortByTitleDescending(dates)
	latestDate := dates[0]

	// Step 3: clips under the newest date; titles embed a sortable time
	// prefix.
	clips, err := l.browser.Browse(ctx, latestDate.ContentID)
	if err != nil {
		return errorDescriptor(index, cameraName, err.Error())
	}
	if len(clips) == 0 {
		d := errorDescriptor(index, cameraName, "no recordings found")
		d.Date = latestDate.Title
		return d
	}
	sortByTitleDescending(clips)
	latest := clips[0]

	timestamp, duration, eventType := parseClipTitle(latest.Title)

	return RecordingDescriptor{
		CameraIndex: index,
		Camera:      cameraName,
		Date:        latestDate.Title,
		Timestamp:   timestamp,
		Duration:    duration,
		EventType:   eventType,
		ContentID:   latest.ContentID,
		RecordingID: RecordingID(index, timestamp, duration),
		CanPlay:     latest.CanPlay,
	}
}

// parseClipTitle splits a clip title of the form "HH:MM:SS D:DD:DD Type"
// into its fields, degrading to placeholders rather than failing.
func parseClipTitle(title string) (timestamp, duration, eventType string) {
	parts := strings.Fields(title)
	timestamp = unknownField
	duration = unknownField
	eventType = defaultEventType
	if len(parts) > 0 {
		timestamp = parts[0]
	}
	if len(parts) > 1 {
		duration = parts[1]
	}
	if len(parts) > 2 {
		eventType = strings.Join(parts[2:], " ")
	}
	return timestamp, duration, eventType
}

func sortByTitleDescending(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Title > nodes[j].Title
	})
}

func errorDescriptor(index int, cameraName, reason string) RecordingDescriptor {
	return RecordingDescriptor{
		CameraIndex: index,
		Camera:      cameraName,
		Err:         reason,
	}
}
