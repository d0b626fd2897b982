package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"reolink-sync/catalog"
	"reolink-sync/config"
	"reolink-sync/engine"
	"reolink-sync/store"
)

const testHub = "01HUB"

type fakeBrowser struct {
	nodes map[string][]catalog.Node
	errs  map[string]error
}

func (f *fakeBrowser) Browse(_ context.Context, contentID string) ([]catalog.Node, error) {
	if err := f.errs[contentID]; err != nil {
		return nil, err
	}
	return f.nodes[contentID], nil
}

type fakeFetcher struct{}

func (fakeFetcher) FetchMedia(_ context.Context, contentID, dest string) error {
	return os.WriteFile(dest, []byte("video "+contentID), 0644)
}

type fakeTranscoder struct{}

func (fakeTranscoder) Still(_ context.Context, _, outputPath string) error {
	return os.WriteFile(outputPath, []byte("jpg"), 0644)
}

func (fakeTranscoder) Animated(_ context.Context, _, outputPath string) error {
	return os.WriteFile(outputPath, []byte("gif"), 0644)
}

// testCatalog wires one healthy camera and one whose subtree errors out.
func testCatalog() *fakeBrowser {
	camID := catalog.CameraContentID(testHub, 0)
	brokenID := catalog.CameraContentID(testHub, 1)
	dateID := camID + "/main/2024-01-10"

	return &fakeBrowser{
		nodes: map[string][]catalog.Node{
			catalog.RootContentID: {
				{Title: "Driveway", ContentID: camID},
				{Title: "Backyard", ContentID: brokenID},
			},
			camID:           {{Title: "High resolution", ContentID: camID + "/main"}},
			camID + "/main": {{Title: "2024-01-10", ContentID: dateID}},
			dateID:          {{Title: "14:30:00 0:00:20 Person", ContentID: dateID + "/clip", CanPlay: true}},
		},
		errs: map[string]error{brokenID: errors.New("host unreachable")},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		StoragePath:    t.TempDir(),
		SnapshotFormat: config.SnapshotBoth,
		EnableCaching:  true,
		BaseURL:        "http://localhost:3000",
		ServerPort:     "3000",
	}
	if err := os.MkdirAll(cfg.RecordingsDir(), 0755); err != nil {
		t.Fatal(err)
	}

	eng := engine.New(cfg, testCatalog(), fakeFetcher{}, fakeTranscoder{},
		store.NewMetadataStore(cfg.MetadataDir()), nil, nil)
	if !eng.Refresh(context.Background()) {
		t.Fatal("initial refresh failed")
	}

	return NewServer(cfg, eng, nil)
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandleCameras(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/cameras")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Cameras []CameraRecord `json:"cameras"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Cameras) != 2 {
		t.Fatalf("cameras = %d, want 2 (errored camera included)", len(resp.Cameras))
	}

	byName := map[string]CameraRecord{}
	for _, rec := range resp.Cameras {
		byName[rec.Camera] = rec
	}

	driveway := byName["Driveway"]
	if !driveway.Available {
		t.Error("healthy camera marked unavailable")
	}
	if driveway.State != "2024-01-10 14:30:00 - Person" {
		t.Errorf("state = %q", driveway.State)
	}
	if !strings.Contains(driveway.VideoURL, "/recordings/driveway_latest.mp4?t=") {
		t.Errorf("video_url = %q", driveway.VideoURL)
	}
	if !strings.Contains(driveway.PreviewURL, "driveway_latest.gif") {
		t.Errorf("preview_url = %q, want the animated asset preferred", driveway.PreviewURL)
	}

	backyard := byName["Backyard"]
	if backyard.Available {
		t.Error("errored camera marked available")
	}
	if backyard.Error == "" {
		t.Error("errored camera has empty error")
	}
	if backyard.VideoURL != "" {
		t.Errorf("errored camera has video_url %q", backyard.VideoURL)
	}
}

func TestHandleMediaRootSorted(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/media")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Media []MediaItem `json:"media"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Media) != 3 {
		t.Fatalf("media items = %d, want video, still and animated", len(resp.Media))
	}
	for i := 1; i < len(resp.Media); i++ {
		if resp.Media[i-1].Title > resp.Media[i].Title {
			t.Errorf("media not sorted by title: %q before %q", resp.Media[i-1].Title, resp.Media[i].Title)
		}
	}
}

func TestHandleMediaItem(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/media/driveway_latest.mp4")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "video/mp4") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHandleMediaItemUnknownIdentifier(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/media/never_heard_of_it.mp4")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unknown media identifier") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestHandleMediaItemFileMissing(t *testing.T) {
	s := newTestServer(t)

	path, ok := s.lookupAsset("driveway_latest.mp4")
	if !ok {
		t.Fatal("asset not registered")
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	w := doRequest(t, s, http.MethodGet, "/api/media/driveway_latest.mp4")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "missing from storage") {
		t.Errorf("body = %q, want the missing-file error, not the unknown-identifier one", w.Body.String())
	}
}

func TestHandleHistoryWithoutDatabase(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/history")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHandleRefresh(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
}
