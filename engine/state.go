package engine

import (
	"log"
	"time"

	"reolink-sync/catalog"
)

type listenerHandle struct {
	fn func()
}

// AddListener registers a callback invoked after every completed refresh
// cycle. Listeners fire in registration order. The returned function
// removes the listener; calling it more than once is harmless.
func (e *Engine) AddListener(fn func()) func() {
	h := &listenerHandle{fn: fn}

	e.listenerMu.Lock()
	e.listeners = append(e.listeners, h)
	e.listenerMu.Unlock()

	return func() {
		e.listenerMu.Lock()
		defer e.listenerMu.Unlock()
		for i, cur := range e.listeners {
			if cur == h {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// notifyListeners invokes every registered listener. A panicking listener is
// logged and skipped so it cannot take down the cycle or starve the
// listeners after it.
func (e *Engine) notifyListeners() {
	e.listenerMu.Lock()
	snapshot := make([]*listenerHandle, len(e.listeners))
	copy(snapshot, e.listeners)
	e.listenerMu.Unlock()

	for _, h := range snapshot {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Recovered panic in refresh listener: %v", r)
				}
			}()
			h.fn()
		}()
	}
}

// State is a point-in-time copy of the engine's view of every camera.
type State struct {
	LastUpdate     time.Time
	HubID          string
	Descriptors    []catalog.RecordingDescriptor
	RecordingPaths map[string]string
	StillPaths     map[string]string
	AnimatedPaths  map[string]string
}

// State returns a deep copy safe to read while a cycle runs.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := State{
		LastUpdate:     e.lastUpdate,
		HubID:          e.hubID,
		Descriptors:    make([]catalog.RecordingDescriptor, len(e.descriptors)),
		RecordingPaths: make(map[string]string, len(e.recordingPaths)),
		StillPaths:     make(map[string]string, len(e.stillPaths)),
		AnimatedPaths:  make(map[string]string, len(e.animatedPaths)),
	}
	copy(s.Descriptors, e.descriptors)
	for k, v := range e.recordingPaths {
		s.RecordingPaths[k] = v
	}
	for k, v := range e.stillPaths {
		s.StillPaths[k] = v
	}
	for k, v := range e.animatedPaths {
		s.AnimatedPaths[k] = v
	}
	return s
}

// LastUpdates returns the updates recorded by the most recent cycle.
func (e *Engine) LastUpdates() []Update {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Update, len(e.updates))
	copy(out, e.updates)
	return out
}
