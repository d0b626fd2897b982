package engine

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"reolink-sync/catalog"
	"reolink-sync/config"
	"reolink-sync/database"
	"reolink-sync/storage"
	"reolink-sync/store"
	"reolink-sync/transcode"
)

// MediaFetcher resolves a content identifier and downloads the clip bytes to
// a local destination.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, contentID, dest string) error
}

// Update records one camera whose recording changed during the last cycle.
type Update struct {
	ID        string `json:"id"`
	Camera    string `json:"camera"`
	EventType string `json:"event_type"`
}

// Engine drives the full refresh cycle: discover cameras, locate each one's
// latest recording, skip unchanged clips via the recording cache, download
// and transcode the rest, persist metadata and notify listeners. One engine
// instance runs at most one cycle at a time; an overlapping Refresh call
// returns false without doing any work.
type Engine struct {
	cfg        config.Config
	browser    catalog.Browser
	locator    *catalog.Locator
	fetcher    MediaFetcher
	transcoder transcode.Transcoder
	metaStore  *store.MetadataStore
	db         database.Database
	mirror     *storage.S3Mirror

	// checkSpace is swappable for tests.
	checkSpace func(path string, minFreeMB uint64) error

	running *semaphore.Weighted

	mu             sync.Mutex
	loaded         bool
	hubID          string
	identity       *catalog.IdentityMap
	descriptors    []catalog.RecordingDescriptor
	recordingPaths map[string]string
	stillPaths     map[string]string
	animatedPaths  map[string]string
	cache          map[string]store.CacheEntry
	lastUpdate     time.Time
	updates        []Update

	listenerMu sync.Mutex
	listeners  []*listenerHandle
}

// New creates an engine. db and mirror are optional and may be nil.
func New(cfg config.Config, browser catalog.Browser, fetcher MediaFetcher, transcoder transcode.Transcoder, metaStore *store.MetadataStore, db database.Database, mirror *storage.S3Mirror) *Engine {
	return &Engine{
		cfg:            cfg,
		browser:        browser,
		locator:        catalog.NewLocator(browser),
		fetcher:        fetcher,
		transcoder:     transcoder,
		metaStore:      metaStore,
		db:             db,
		mirror:         mirror,
		checkSpace:     storage.CheckFreeSpace,
		running:        semaphore.NewWeighted(1),
		recordingPaths: make(map[string]string),
		stillPaths:     make(map[string]string),
		animatedPaths:  make(map[string]string),
		cache:          make(map[string]store.CacheEntry),
	}
}

// Refresh runs one full cycle. It never returns an error to the scheduler:
// cycle-level failures (auth, unreachable catalog root) log and return
// false, per-camera failures are isolated inside the cycle and still yield
// true.
func (e *Engine) Refresh(ctx context.Context) (ok bool) {
	if !e.running.TryAcquire(1) {
		log.Printf("Refresh already in progress, skipping overlapping request")
		return false
	}
	defer e.running.Release(1)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered panic during refresh: %v", r)
			ok = false
		}
	}()

	e.loadOnce()

	log.Printf("Fetching latest recordings")
	roots, err := e.browser.Browse(ctx, catalog.RootContentID)
	if err != nil {
		log.Printf("Error browsing catalog root: %v", err)
		return false
	}
	if len(roots) == 0 {
		log.Printf("No cameras found in catalog root")
	}

	// The identity map is rebuilt wholesale: the upstream catalog may
	// renumber or reorder cameras between polls.
	identity := catalog.BuildIdentityMap(roots, e.currentHub())

	descriptors := make([]catalog.RecordingDescriptor, 0, identity.Len())
	for _, index := range identity.Indexes() {
		name, _ := identity.Name(index)
		desc := e.locator.LatestRecording(ctx, index, name, identity.HubID())
		descriptors = append(descriptors, desc)
	}

	e.mu.Lock()
	e.identity = identity
	e.hubID = identity.HubID()
	e.descriptors = descriptors
	e.updates = nil
	e.mu.Unlock()

	for _, desc := range descriptors {
		if desc.Failed() {
			log.Printf("Skipping %s: %s", desc.Camera, desc.Err)
			continue
		}
		e.syncCamera(ctx, identity, desc)
	}

	e.mu.Lock()
	e.lastUpdate = time.Now().UTC()
	updated := len(e.updates)
	e.mu.Unlock()

	if err := e.persist(); err != nil {
		log.Printf("Error saving metadata: %v", err)
	}
	e.notifyListeners()

	log.Printf("Refreshed data for %d cameras (%d updated)", len(descriptors), updated)
	return true
}

// RequestRefresh runs an immediate cycle on demand.
func (e *Engine) RequestRefresh(ctx context.Context) bool {
	return e.Refresh(ctx)
}

// syncCamera decides whether one camera's clip needs downloading and
// performs the download/transcode/commit step. Every failure is contained
// here: the camera keeps its previous state and other cameras are
// unaffected.
func (e *Engine) syncCamera(ctx context.Context, identity *catalog.IdentityMap, desc catalog.RecordingDescriptor) {
	// The canonical name is the identity-resolved one; the descriptor's own
	// name is kept as a secondary key for compatibility with older data.
	canonical, ok := identity.Name(desc.CameraIndex)
	if !ok {
		canonical = desc.Camera
	}

	e.mu.Lock()
	entry, cached := e.cache[canonical]
	e.mu.Unlock()

	if cached && e.cfg.EnableCaching && entry.RecordingID == desc.RecordingID {
		// Unchanged clip. Re-verify the files actually exist: the cache
		// record can survive a restart that the files did not.
		if e.restoreAssets(desc.Camera, canonical) {
			log.Printf("Recording for %s unchanged (%s), skipping download", canonical, desc.RecordingID)
			return
		}
		log.Printf("Cache entry for %s matches but assets are missing, re-downloading", canonical)
	}

	if err := e.downloadAndCommit(ctx, desc, canonical); err != nil {
		log.Printf("Error downloading recording for %s: %v", canonical, err)
	}
}

// downloadAndCommit fetches the clip, derives previews and updates cache,
// path maps, history and mirror. The cache entry and the file on disk are
// updated together: the entry is written only after the download succeeded.
func (e *Engine) downloadAndCommit(ctx context.Context, desc catalog.RecordingDescriptor, canonical string) error {
	if err := e.checkSpace(e.cfg.StoragePath, e.cfg.MinFreeSpaceMB); err != nil {
		return err
	}

	dest := storage.VideoPath(e.cfg.RecordingsDir(), canonical)
	if err := e.fetcher.FetchMedia(ctx, desc.ContentID, dest); err != nil {
		return err
	}

	// Preview failures are logged inside; they never roll back the video.
	e.generatePreviews(ctx, desc.Camera, canonical, dest)

	entry := store.CacheEntry{
		RecordingID: desc.RecordingID,
		Timestamp:   desc.Timestamp,
		EventType:   desc.EventType,
		Duration:    desc.Duration,
		Path:        dest,
	}

	e.mu.Lock()
	e.recordingPaths[desc.Camera] = dest
	e.recordingPaths[canonical] = dest
	e.cache[desc.Camera] = entry
	e.cache[canonical] = entry
	e.updates = append(e.updates, Update{
		ID:        uuid.NewString(),
		Camera:    canonical,
		EventType: desc.EventType,
	})
	e.mu.Unlock()

	if e.db != nil {
		rec := database.Recording{
			Camera:      canonical,
			RecordingID: desc.RecordingID,
			Date:        desc.Date,
			Timestamp:   desc.Timestamp,
			Duration:    desc.Duration,
			EventType:   desc.EventType,
			Path:        dest,
			CreatedAt:   time.Now(),
		}
		if err := e.db.InsertRecording(rec); err != nil {
			log.Printf("Error recording history for %s: %v", canonical, err)
		}
	}

	if e.mirror != nil {
		if err := e.mirror.MirrorCamera(e.cfg.RecordingsDir(), canonical); err != nil {
			log.Printf("Error mirroring assets for %s: %v", canonical, err)
		}
	}

	log.Printf("Downloaded recording for %s to %s", canonical, dest)
	return nil
}

// generatePreviews derives the configured still/animated assets from a
// freshly downloaded video.
func (e *Engine) generatePreviews(ctx context.Context, discoveredName, canonical, videoPath string) {
	dir := e.cfg.RecordingsDir()
	format := e.cfg.SnapshotFormat

	if format == config.SnapshotStill || format == config.SnapshotBoth {
		out := storage.StillPath(dir, canonical)
		if err := e.transcoder.Still(ctx, videoPath, out); err != nil {
			log.Printf("Could not generate still preview for %s: %v", canonical, err)
		} else if fileExists(out) {
			e.mu.Lock()
			e.stillPaths[discoveredName] = out
			e.stillPaths[canonical] = out
			e.mu.Unlock()
		}
	}

	if format == config.SnapshotAnimated || format == config.SnapshotBoth {
		out := storage.AnimatedPath(dir, canonical)
		if err := e.transcoder.Animated(ctx, videoPath, out); err != nil {
			log.Printf("Could not generate animated preview for %s: %v", canonical, err)
		} else if fileExists(out) {
			e.mu.Lock()
			e.animatedPaths[discoveredName] = out
			e.animatedPaths[canonical] = out
			e.mu.Unlock()
		}
	}
}

// restoreAssets repopulates the in-memory path maps from files already on
// disk. Returns false when the video itself is gone, forcing a re-download.
func (e *Engine) restoreAssets(discoveredName, canonical string) bool {
	dir := e.cfg.RecordingsDir()

	videoPath := storage.VideoPath(dir, canonical)
	if !fileExists(videoPath) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.recordingPaths[discoveredName] = videoPath
	e.recordingPaths[canonical] = videoPath

	if still := storage.StillPath(dir, canonical); fileExists(still) {
		e.stillPaths[discoveredName] = still
		e.stillPaths[canonical] = still
	}
	if animated := storage.AnimatedPath(dir, canonical); fileExists(animated) {
		e.animatedPaths[discoveredName] = animated
		e.animatedPaths[canonical] = animated
	}
	return true
}

// loadOnce loads the persisted metadata on the first cycle only. Read
// failures degrade to an empty cache so a corrupt file behaves like a cold
// start.
func (e *Engine) loadOnce() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return
	}
	e.loaded = true

	meta, err := e.metaStore.Load()
	if err != nil {
		log.Printf("Starting with empty cache: %v", err)
	}

	e.cache = meta.RecordingCache
	for name, path := range meta.Recordings {
		if !fileExists(path) {
			continue
		}
		e.recordingPaths[name] = path

		dir := e.cfg.RecordingsDir()
		if still := storage.StillPath(dir, name); fileExists(still) {
			e.stillPaths[name] = still
		}
		if animated := storage.AnimatedPath(dir, name); fileExists(animated) {
			e.animatedPaths[name] = animated
		}
	}
	log.Printf("Loaded metadata: %d recordings, %d cache entries", len(e.recordingPaths), len(e.cache))
}

// persist rewrites the durable metadata file wholesale.
func (e *Engine) persist() error {
	e.mu.Lock()
	meta := store.NewMetadata()
	meta.LastUpdate = e.lastUpdate.Format(time.RFC3339)
	for name, path := range e.recordingPaths {
		meta.Recordings[name] = path
	}
	for name, entry := range e.cache {
		meta.RecordingCache[name] = entry
	}
	e.mu.Unlock()

	return e.metaStore.Save(meta)
}

func (e *Engine) currentHub() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hubID
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
