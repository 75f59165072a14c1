// Package audio provides the playback engine seam. Actual decoding and
// output live behind the Engine interface; the player module only drives
// this contract and translates engine callbacks into bus events.
package audio

// Status describes what the engine is currently doing.
type Status int

const (
	// StatusStopped means no pipeline is active.
	StatusStopped Status = iota
	// StatusPlaying means audio is being rendered.
	StatusPlaying
	// StatusPaused means a pipeline is active but suspended.
	StatusPaused
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "Stopped"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Engine defines the playback backend. Implementations must be safe for
// concurrent use: the player module calls in from the UI loop while its
// position ticker reads from a separate goroutine.
type Engine interface {
	// Play starts playback of the given URI from the beginning.
	Play(uri string) error

	// Stop tears down the active pipeline.
	Stop()

	// Pause suspends playback.
	Pause()

	// Resume continues suspended playback.
	Resume()

	// Seek jumps to the given position in seconds.
	Seek(seconds int)

	// Position returns the current position in seconds.
	Position() int

	// Duration returns the duration of the current resource in seconds,
	// 0 if unknown.
	Duration() int

	// SetNextURI pre-buffers the resource to chain gaplessly after the
	// current one ends.
	SetNextURI(uri string)

	// Status returns the current playback status.
	Status() Status

	// OnEnded registers the callback invoked when the current resource
	// finishes, with a nil error on normal end of stream. The callback
	// may be invoked from an engine-internal goroutine.
	OnEnded(fn func(err error))
}
