// Package msg defines the closed set of message identifiers exchanged on the
// bus, together with their parameter bags. Commands are imperative requests
// ("play this"), events describe facts ("playback paused"). The set is fixed
// at compile time; adding an ID is backward compatible, removing or renaming
// one is not.
package msg

import "fmt"

// ID identifies a single command or event.
type ID int

const (
	// --- Commands ---

	// Player
	CmdPlay        ID = iota // Play a resource. Params: KeyURI, KeyForced
	CmdStop                  // Stop playing.
	CmdSeek                  // Jump to a position. Params: KeySeconds
	CmdStep                  // Step back or forth. Params: KeySeconds
	CmdBuffer                // Pre-buffer the next resource. Params: KeyURI
	CmdTogglePause           // Toggle play/pause.

	// Tracklist
	CmdNext             // Play the next track.
	CmdPrevious         // Play the previous track.
	CmdTracklistSet     // Replace the tracklist. Params: KeyTracks, KeyPlayNow
	CmdTracklistAdd     // Extend the tracklist. Params: KeyTracks, KeyPlayNow
	CmdTracklistDel     // Remove a track. Params: KeyIndex
	CmdTracklistClear   // Clear the tracklist.
	CmdTracklistShuffle // Shuffle the tracklist.
	CmdTracklistRepeat  // Enable/disable the repeat function. Params: KeyRepeat

	// Covers
	CmdSetCover // Cover files found for a track. Params: KeyTrack, KeyThumbnail, KeyFullSize

	// --- Events ---

	// Current track
	EvtPaused          // Playback paused.
	EvtStopped         // Playback stopped.
	EvtUnpaused        // Playback unpaused.
	EvtNewTrack        // The current track changed. Params: KeyTrack
	EvtNeedBuffer      // The next track should be buffered.
	EvtTrackPosition   // New position in the current track. Params: KeySeconds
	EvtTrackEndedOK    // The current track ended normally.
	EvtTrackEndedError // The current track ended because of an error.

	// Tracklist
	EvtTrackMoved     // The current track position changed. Params: KeyHasPrevious, KeyHasNext
	EvtNewTracklist   // A new tracklist is in place. Params: KeyTracks, KeyPlaytime
	EvtRepeatChanged  // The repeat function was toggled. Params: KeyRepeat

	// Application
	EvtAppQuit    // The application is quitting.
	EvtAppStarted // The application has started and the UI is realized.

	// Modules
	EvtModLoaded   // The module was loaded by request of the user.
	EvtModUnloaded // The module was unloaded by request of the user.

	// Search
	EvtSearchStart  // A search was initiated. Params: KeyQuery
	EvtSearchAppend // Search results are available. Params: KeyTracks
	EvtSearchEnd    // The search finished. Params: KeyQuery
	EvtSearchReset  // Search results should be discarded.

	// Music folders
	EvtMusicPathsChanged // The set of music folders changed. Params: KeyPaths
	EvtLoadTracks        // Filesystem paths should be resolved to tracks. Params: KeyPaths

	count
)

// Count returns the number of defined message identifiers.
func Count() int { return int(count) }

// IsCommand reports whether the identifier is an imperative request.
func (id ID) IsCommand() bool { return id >= CmdPlay && id <= CmdSetCover }

// IsEvent reports whether the identifier describes a fact.
func (id ID) IsEvent() bool { return id >= EvtPaused && id < count }

// Valid reports whether the identifier belongs to the defined set.
func (id ID) Valid() bool { return id >= 0 && id < count }

var names = map[ID]string{
	CmdPlay:              "CmdPlay",
	CmdStop:              "CmdStop",
	CmdSeek:              "CmdSeek",
	CmdStep:              "CmdStep",
	CmdBuffer:            "CmdBuffer",
	CmdTogglePause:       "CmdTogglePause",
	CmdNext:              "CmdNext",
	CmdPrevious:          "CmdPrevious",
	CmdTracklistSet:      "CmdTracklistSet",
	CmdTracklistAdd:      "CmdTracklistAdd",
	CmdTracklistDel:      "CmdTracklistDel",
	CmdTracklistClear:    "CmdTracklistClear",
	CmdTracklistShuffle:  "CmdTracklistShuffle",
	CmdTracklistRepeat:   "CmdTracklistRepeat",
	CmdSetCover:          "CmdSetCover",
	EvtPaused:            "EvtPaused",
	EvtStopped:           "EvtStopped",
	EvtUnpaused:          "EvtUnpaused",
	EvtNewTrack:          "EvtNewTrack",
	EvtNeedBuffer:        "EvtNeedBuffer",
	EvtTrackPosition:     "EvtTrackPosition",
	EvtTrackEndedOK:      "EvtTrackEndedOK",
	EvtTrackEndedError:   "EvtTrackEndedError",
	EvtTrackMoved:        "EvtTrackMoved",
	EvtNewTracklist:      "EvtNewTracklist",
	EvtRepeatChanged:     "EvtRepeatChanged",
	EvtAppQuit:           "EvtAppQuit",
	EvtAppStarted:        "EvtAppStarted",
	EvtModLoaded:         "EvtModLoaded",
	EvtModUnloaded:       "EvtModUnloaded",
	EvtSearchStart:       "EvtSearchStart",
	EvtSearchAppend:      "EvtSearchAppend",
	EvtSearchEnd:         "EvtSearchEnd",
	EvtSearchReset:       "EvtSearchReset",
	EvtMusicPathsChanged: "EvtMusicPathsChanged",
	EvtLoadTracks:        "EvtLoadTracks",
}

// String returns the identifier name for logging and debugging.
func (id ID) String() string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(id))
}

// Handler processes one delivery of a message.
type Handler func(p Params)
