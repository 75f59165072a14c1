package modules

import (
	"math/rand"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/domain/track"
)

var tracklistInfo = module.Info{
	Name:      "tracklist",
	Label:     "Tracklist",
	Desc:      "Maintain the list of tracks to play",
	Mandatory: true,
}

const (
	prefSavedTracks = "saved_tracks"
	prefSavedIndex  = "saved_index"
	prefRepeat      = "repeat"
)

// Tracklist owns the ordered list of tracks and the notion of a current
// track. It reacts to tracklist commands and to track-ended events, and
// emits new-track, track-moved and new-tracklist events.
type Tracklist struct {
	env      *application.Env
	handlers map[msg.ID]msg.Handler

	tracks      []*track.Track
	errored     map[*track.Track]bool
	current     int
	repeat      bool
	paused      bool
	bufferedURI string
}

// NewTracklist constructs the tracklist module.
func NewTracklist(env *application.Env) (module.Module, error) {
	t := &Tracklist{
		env:     env,
		errored: make(map[*track.Track]bool),
		current: -1,
	}
	t.handlers = map[msg.ID]msg.Handler{
		msg.CmdNext:             func(msg.Params) { t.jumpToNext() },
		msg.CmdPrevious:         func(msg.Params) { t.jumpToPrevious() },
		msg.CmdTogglePause:      func(msg.Params) { t.onTogglePause() },
		msg.CmdTracklistSet:     func(p msg.Params) { t.set(p.Tracks(msg.KeyTracks), p.Bool(msg.KeyPlayNow)) },
		msg.CmdTracklistAdd:     func(p msg.Params) { t.add(p.Tracks(msg.KeyTracks), p.Bool(msg.KeyPlayNow)) },
		msg.CmdTracklistDel:     func(p msg.Params) { t.remove(p.Int(msg.KeyIndex)) },
		msg.CmdTracklistClear:   func(msg.Params) { t.set(nil, false) },
		msg.CmdTracklistShuffle: func(msg.Params) { t.shuffle() },
		msg.CmdTracklistRepeat:  func(p msg.Params) { t.setRepeat(p.Bool(msg.KeyRepeat)) },
		msg.EvtPaused:           func(msg.Params) { t.paused = true },
		msg.EvtUnpaused:         func(msg.Params) { t.paused = false },
		msg.EvtStopped:          func(msg.Params) { t.paused = false },
		msg.EvtNeedBuffer:       func(msg.Params) { t.onBufferingNeeded() },
		msg.EvtTrackEndedOK:     func(msg.Params) { t.onTrackEnded(false) },
		msg.EvtTrackEndedError:  func(msg.Params) { t.onTrackEnded(true) },
		msg.EvtAppStarted:       func(msg.Params) { t.onAppStarted() },
		msg.EvtAppQuit:          func(msg.Params) { t.onAppQuit() },
	}
	return t, nil
}

func (t *Tracklist) Info() module.Info                { return tracklistInfo }
func (t *Tracklist) Handlers() map[msg.ID]msg.Handler { return t.handlers }

// currentTrack returns the playing track, nil if none.
func (t *Tracklist) currentTrack() *track.Track {
	if t.current < 0 || t.current >= len(t.tracks) {
		return nil
	}
	return t.tracks[t.current]
}

// nextIndex returns the index of the next playable track, wrapping around
// when repeat is enabled. Tracks that ended with an error are skipped.
// Returns -1 if there is none.
func (t *Tracklist) nextIndex() int {
	for i := t.current + 1; i < len(t.tracks); i++ {
		if !t.errored[t.tracks[i]] {
			return i
		}
	}
	if t.repeat {
		for i := 0; i <= t.current && i < len(t.tracks); i++ {
			if !t.errored[t.tracks[i]] {
				return i
			}
		}
	}
	return -1
}

// previousIndex returns the index of the previous playable track, -1 if
// there is none.
func (t *Tracklist) previousIndex() int {
	for i := t.current - 1; i >= 0; i-- {
		if !t.errored[t.tracks[i]] {
			return i
		}
	}
	return -1
}

func (t *Tracklist) jumpToNext() {
	if i := t.nextIndex(); i >= 0 {
		t.jumpTo(i, true, true)
	}
}

func (t *Tracklist) jumpToPrevious() {
	if i := t.previousIndex(); i >= 0 {
		t.jumpTo(i, true, true)
	}
}

// onTogglePause starts playback when nothing is playing yet; the player
// module handles the actual pause toggling.
func (t *Tracklist) onTogglePause() {
	if t.current < 0 && len(t.tracks) > 0 {
		t.jumpTo(0, true, true)
	}
}

// jumpTo makes the track at index i the current one. sendPlay is false
// when the engine already chained into the track from its buffer.
func (t *Tracklist) jumpTo(i int, sendPlay, forced bool) {
	if i < 0 || i >= len(t.tracks) {
		return
	}
	t.current = i
	t.paused = false
	trk := t.tracks[i]

	if sendPlay {
		t.env.Bus.Post(msg.CmdPlay, msg.Params{msg.KeyURI: trk.URI(), msg.KeyForced: forced})
	}
	t.env.Bus.Post(msg.EvtNewTrack, msg.Params{msg.KeyTrack: trk})
	t.postTrackMoved()
}

func (t *Tracklist) postTrackMoved() {
	t.env.Bus.Post(msg.EvtTrackMoved, msg.Params{
		msg.KeyHasPrevious: t.previousIndex() >= 0,
		msg.KeyHasNext:     t.nextIndex() >= 0,
	})
}

func (t *Tracklist) postNewTracklist() {
	tracks := make([]*track.Track, len(t.tracks))
	copy(tracks, t.tracks)
	t.env.Bus.Post(msg.EvtNewTracklist, msg.Params{
		msg.KeyTracks:   tracks,
		msg.KeyPlaytime: track.Playtime(tracks),
	})
}

func (t *Tracklist) set(tracks []*track.Track, playNow bool) {
	t.tracks = tracks
	t.errored = make(map[*track.Track]bool)
	t.current = -1
	t.bufferedURI = ""
	t.postNewTracklist()
	t.postTrackMoved()

	if playNow && len(t.tracks) > 0 {
		t.jumpTo(0, true, true)
	}
}

func (t *Tracklist) add(tracks []*track.Track, playNow bool) {
	if len(tracks) == 0 {
		return
	}
	first := len(t.tracks)
	t.tracks = append(t.tracks, tracks...)
	t.postNewTracklist()
	t.postTrackMoved()

	// Only interrupt when nothing is playing.
	if playNow && (t.current < 0 || t.paused) {
		t.jumpTo(first, true, true)
	}
}

func (t *Tracklist) remove(i int) {
	if i < 0 || i >= len(t.tracks) {
		return
	}
	delete(t.errored, t.tracks[i])
	t.tracks = append(t.tracks[:i], t.tracks[i+1:]...)
	switch {
	case i < t.current:
		t.current--
	case i == t.current:
		t.current = -1
	}
	t.postNewTracklist()
	t.postTrackMoved()
}

func (t *Tracklist) shuffle() {
	if len(t.tracks) < 2 {
		return
	}
	playing := t.currentTrack()
	rand.Shuffle(len(t.tracks), func(i, j int) {
		t.tracks[i], t.tracks[j] = t.tracks[j], t.tracks[i]
	})
	if playing != nil {
		for i, trk := range t.tracks {
			if trk == playing {
				t.current = i
				break
			}
		}
	}
	t.postNewTracklist()
	t.postTrackMoved()
}

func (t *Tracklist) setRepeat(repeat bool) {
	t.repeat = repeat
	t.env.Prefs.Set(tracklistInfo.Name, prefRepeat, repeat)
	t.env.Bus.Post(msg.EvtRepeatChanged, msg.Params{msg.KeyRepeat: repeat})
	t.postTrackMoved()
}

// onBufferingNeeded asks the player to pre-buffer the next track to avoid
// a gap at the transition.
func (t *Tracklist) onBufferingNeeded() {
	if i := t.nextIndex(); i >= 0 {
		t.bufferedURI = t.tracks[i].URI()
		t.env.Bus.Post(msg.CmdBuffer, msg.Params{msg.KeyURI: t.bufferedURI})
	}
}

// onTrackEnded advances to the next playable track, or stops when the end
// of the list is reached. A track that ended with an error is flagged and
// skipped from then on.
func (t *Tracklist) onTrackEnded(withError bool) {
	if withError {
		if trk := t.currentTrack(); trk != nil {
			t.errored[trk] = true
		}
	}

	next := t.nextIndex()
	if next < 0 {
		t.bufferedURI = ""
		t.env.Bus.Post(msg.CmdStop, nil)
		return
	}

	// Skip the play command when the engine already chained into the
	// buffered track.
	sendPlay := true
	if !withError && t.bufferedURI != "" {
		sendPlay = t.tracks[next].URI() != t.bufferedURI
	}
	t.bufferedURI = ""
	t.jumpTo(next, sendPlay, false)
}

// onAppStarted restores the previous session's tracklist and repeat flag.
func (t *Tracklist) onAppStarted() {
	t.repeat = t.env.Prefs.GetBool(tracklistInfo.Name, prefRepeat, false)
	if t.repeat {
		t.env.Bus.Post(msg.EvtRepeatChanged, msg.Params{msg.KeyRepeat: true})
	}

	paths := t.env.Prefs.GetStrings(tracklistInfo.Name, prefSavedTracks, nil)
	if len(paths) == 0 {
		return
	}
	tracks := make([]*track.Track, 0, len(paths))
	for _, p := range paths {
		tracks = append(tracks, track.New(p))
	}
	t.tracks = tracks
	t.current = -1
	t.postNewTracklist()
	t.postTrackMoved()
}

// onAppQuit persists the tracklist for the next session.
func (t *Tracklist) onAppQuit() {
	paths := make([]string, 0, len(t.tracks))
	for _, trk := range t.tracks {
		paths = append(paths, trk.Path)
	}
	t.env.Prefs.Set(tracklistInfo.Name, prefSavedTracks, paths)
	t.env.Prefs.Set(tracklistInfo.Name, prefSavedIndex, t.current)
}
