package audio

import (
	"sync"
	"time"
)

// SilentEngine is an Engine that renders no audio. It keeps honest status
// and wall-clock position so the rest of the application behaves normally
// on systems without a usable audio backend, and it backs the test suite.
type SilentEngine struct {
	mu       sync.Mutex
	status   Status
	uri      string
	nextURI  string
	started  time.Time
	elapsed  time.Duration
	duration int
	onEnded  func(err error)
}

// NewSilentEngine returns a stopped silent engine.
func NewSilentEngine() *SilentEngine {
	return &SilentEngine{status: StatusStopped}
}

// Play starts "playback" of the given URI.
func (e *SilentEngine) Play(uri string) error {
	e.mu.Lock()
	e.uri = uri
	e.status = StatusPlaying
	e.started = time.Now()
	e.elapsed = 0
	e.mu.Unlock()
	return nil
}

// Stop tears down the current resource.
func (e *SilentEngine) Stop() {
	e.mu.Lock()
	e.status = StatusStopped
	e.uri = ""
	e.nextURI = ""
	e.elapsed = 0
	e.mu.Unlock()
}

// Pause suspends playback.
func (e *SilentEngine) Pause() {
	e.mu.Lock()
	if e.status == StatusPlaying {
		e.elapsed += time.Since(e.started)
		e.status = StatusPaused
	}
	e.mu.Unlock()
}

// Resume continues suspended playback.
func (e *SilentEngine) Resume() {
	e.mu.Lock()
	if e.status == StatusPaused {
		e.started = time.Now()
		e.status = StatusPlaying
	}
	e.mu.Unlock()
}

// Seek jumps to the given position.
func (e *SilentEngine) Seek(seconds int) {
	e.mu.Lock()
	e.elapsed = time.Duration(seconds) * time.Second
	e.started = time.Now()
	e.mu.Unlock()
}

// Position returns the current position in seconds.
func (e *SilentEngine) Position() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.status {
	case StatusPlaying:
		return int((e.elapsed + time.Since(e.started)) / time.Second)
	case StatusPaused:
		return int(e.elapsed / time.Second)
	default:
		return 0
	}
}

// Duration returns the configured duration, 0 if unknown.
func (e *SilentEngine) Duration() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// SetNextURI records the chained resource.
func (e *SilentEngine) SetNextURI(uri string) {
	e.mu.Lock()
	e.nextURI = uri
	e.mu.Unlock()
}

// Status returns the current status.
func (e *SilentEngine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// OnEnded registers the end-of-stream callback.
func (e *SilentEngine) OnEnded(fn func(err error)) {
	e.mu.Lock()
	e.onEnded = fn
	e.mu.Unlock()
}

// FinishCurrent simulates the current resource reaching its end. Used by
// tests and by external wiring that knows track lengths.
func (e *SilentEngine) FinishCurrent(err error) {
	e.mu.Lock()
	fn := e.onEnded
	e.status = StatusStopped
	e.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
