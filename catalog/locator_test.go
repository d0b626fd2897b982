package catalog

import (
	"context"
	"errors"
	"testing"
)

// fakeBrowser serves canned catalog levels keyed by content id.
type fakeBrowser struct {
	nodes map[string][]Node
	errs  map[string]error
}

func (f *fakeBrowser) Browse(_ context.Context, contentID string) ([]Node, error) {
	if err := f.errs[contentID]; err != nil {
		return nil, err
	}
	return f.nodes[contentID], nil
}

const testHub = "01HUB"

// cameraCatalog builds the sub/main, date and clip levels beneath one camera.
func cameraCatalog(index int, dates map[string][]Node) *fakeBrowser {
	camID := CameraContentID(testHub, index)
	f := &fakeBrowser{nodes: map[string][]Node{}, errs: map[string]error{}}

	f.nodes[camID] = []Node{
		{Title: "Low resolution", ContentID: camID + "/sub"},
		{Title: "High resolution", ContentID: camID + "/main"},
	}

	dateNodes := make([]Node, 0, len(dates))
	for date, clips := range dates {
		dateID := camID + "/main/" + date
		dateNodes = append(dateNodes, Node{Title: date, ContentID: dateID})
		f.nodes[dateID] = clips
	}
	f.nodes[camID+"/main"] = dateNodes
	return f
}

func TestLatestRecordingPicksNewestDateAndClip(t *testing.T) {
	browser := cameraCatalog(0, map[string][]Node{
		"2024-01-01": {{Title: "09:00:00 0:00:10 Motion", ContentID: "old"}},
		"2024-01-10": {
			{Title: "08:15:00 0:00:12 Motion", ContentID: "early", CanPlay: true},
			{Title: "14:30:00 0:00:20 Person", ContentID: "latest-clip", CanPlay: true},
		},
		"2024-01-02": {{Title: "10:00:00 0:00:10 Motion", ContentID: "mid"}},
	})

	desc := NewLocator(browser).LatestRecording(context.Background(), 0, "Driveway", testHub)
	if desc.Failed() {
		t.Fatalf("unexpected failure: %s", desc.Err)
	}
	if desc.Date != "2024-01-10" {
		t.Errorf("Date = %q, want 2024-01-10", desc.Date)
	}
	if desc.Timestamp != "14:30:00" || desc.Duration != "0:00:20" || desc.EventType != "Person" {
		t.Errorf("parsed clip = %q %q %q", desc.Timestamp, desc.Duration, desc.EventType)
	}
	if desc.ContentID != "latest-clip" {
		t.Errorf("ContentID = %q, want latest-clip", desc.ContentID)
	}
	if want := RecordingID(0, "14:30:00", "0:00:20"); desc.RecordingID != want {
		t.Errorf("RecordingID = %q, want %q", desc.RecordingID, want)
	}
	if !desc.CanPlay {
		t.Error("CanPlay = false, want true")
	}
}

func TestLatestRecordingPrefersMainStream(t *testing.T) {
	camID := CameraContentID(testHub, 0)
	browser := cameraCatalog(0, map[string][]Node{
		"2024-01-10": {{Title: "14:30:00 0:00:20 Person", ContentID: "clip"}},
	})
	// Only the main tier has dates wired up; choosing sub would fail.
	browser.nodes[camID+"/sub"] = nil

	desc := NewLocator(browser).LatestRecording(context.Background(), 0, "Driveway", testHub)
	if desc.Failed() {
		t.Fatalf("unexpected failure: %s", desc.Err)
	}
}

func TestLatestRecordingFallsBackToFirstStream(t *testing.T) {
	camID := CameraContentID(testHub, 0)
	browser := &fakeBrowser{nodes: map[string][]Node{
		camID: {{Title: "Fluent", ContentID: camID + "/fluent"}},
		camID + "/fluent": {
			{Title: "2024-01-10", ContentID: camID + "/fluent/2024-01-10"},
		},
		camID + "/fluent/2024-01-10": {
			{Title: "14:30:00 0:00:20 Motion", ContentID: "clip"},
		},
	}}

	desc := NewLocator(browser).LatestRecording(context.Background(), 0, "Driveway", testHub)
	if desc.Failed() {
		t.Fatalf("unexpected failure: %s", desc.Err)
	}
	if desc.ContentID != "clip" {
		t.Errorf("ContentID = %q, want clip", desc.ContentID)
	}
}

func TestLatestRecordingEmptyLevels(t *testing.T) {
	camID := CameraContentID(testHub, 3)

	t.Run("no qualities", func(t *testing.T) {
		browser := &fakeBrowser{nodes: map[string][]Node{camID: {}}}
		desc := NewLocator(browser).LatestRecording(context.Background(), 3, "Garage", testHub)
		if !desc.Failed() || desc.Err != "no resolution options found" {
			t.Errorf("Err = %q", desc.Err)
		}
	})

	t.Run("no dates", func(t *testing.T) {
		browser := cameraCatalog(3, map[string][]Node{})
		desc := NewLocator(browser).LatestRecording(context.Background(), 3, "Garage", testHub)
		if !desc.Failed() || desc.Err != "no dates found" {
			t.Errorf("Err = %q", desc.Err)
		}
	})

	t.Run("no clips", func(t *testing.T) {
		browser := cameraCatalog(3, map[string][]Node{"2024-01-10": {}})
		desc := NewLocator(browser).LatestRecording(context.Background(), 3, "Garage", testHub)
		if !desc.Failed() || desc.Err != "no recordings found" {
			t.Errorf("Err = %q", desc.Err)
		}
		if desc.Date != "2024-01-10" {
			t.Errorf("Date = %q, want the date that was empty", desc.Date)
		}
	})
}

func TestLatestRecordingBrowseError(t *testing.T) {
	camID := CameraContentID(testHub, 1)
	browser := &fakeBrowser{
		nodes: map[string][]Node{},
		errs:  map[string]error{camID: errors.New("host unreachable")},
	}

	desc := NewLocator(browser).LatestRecording(context.Background(), 1, "Backyard", testHub)
	if !desc.Failed() {
		t.Fatal("want failed descriptor")
	}
	if desc.Camera != "Backyard" || desc.CameraIndex != 1 {
		t.Errorf("descriptor identity = %q/%d", desc.Camera, desc.CameraIndex)
	}
	if desc.RecordingID != "" {
		t.Errorf("failed descriptor has RecordingID %q, want empty", desc.RecordingID)
	}
}

func TestParseClipTitle(t *testing.T) {
	cases := []struct {
		title     string
		timestamp string
		duration  string
		eventType string
	}{
		{"14:30:00 0:00:20 Person", "14:30:00", "0:00:20", "Person"},
		{"14:30:00 0:00:20 Person Vehicle", "14:30:00", "0:00:20", "Person Vehicle"},
		{"14:30:00 0:00:20", "14:30:00", "0:00:20", "Motion"},
		{"14:30:00", "14:30:00", "Unknown", "Motion"},
		{"", "Unknown", "Unknown", "Motion"},
	}
	for _, tc := range cases {
		ts, dur, et := parseClipTitle(tc.title)
		if ts != tc.timestamp || dur != tc.duration || et != tc.eventType {
			t.Errorf("parseClipTitle(%q) = %q %q %q, want %q %q %q",
				tc.title, ts, dur, et, tc.timestamp, tc.duration, tc.eventType)
		}
	}
}

// Equal titles keep their listing order: the sort is stable, so the catalog's
// own ordering breaks ties.
func TestSortTieBreakKeepsListingOrder(t *testing.T) {
	nodes := []Node{
		{Title: "14:30:00 0:00:20 Person", ContentID: "first"},
		{Title: "14:30:00 0:00:20 Person", ContentID: "second"},
		{Title: "09:00:00 0:00:10 Motion", ContentID: "older"},
	}
	sortByTitleDescending(nodes)
	if nodes[0].ContentID != "first" || nodes[1].ContentID != "second" {
		t.Errorf("tie order = %q, %q", nodes[0].ContentID, nodes[1].ContentID)
	}
}

func TestRecordingIDChangesWithClip(t *testing.T) {
	a := RecordingID(0, "14:30:00", "0:00:20")
	b := RecordingID(0, "14:35:00", "0:00:20")
	c := RecordingID(1, "14:30:00", "0:00:20")
	if a == b || a == c {
		t.Errorf("recording ids not distinct: %q %q %q", a, b, c)
	}
	if a != RecordingID(0, "14:30:00", "0:00:20") {
		t.Error("recording id not deterministic")
	}
}
