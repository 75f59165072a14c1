package modules

import (
	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/domain/track"
)

var trackpanelInfo = module.Info{
	Name:      "trackpanel",
	Label:     "Track Panel",
	Desc:      "Show the current track and its cover",
	Mandatory: true,
}

// TrackPanel feeds the current track's metadata and cover art to the UI.
type TrackPanel struct {
	env      *application.Env
	ui       UICallbacks
	handlers map[msg.ID]msg.Handler

	currTrack *track.Track
}

func trackpanelFactory(ui UICallbacks) application.Factory {
	return func(env *application.Env) (module.Module, error) {
		return NewTrackPanel(env, ui)
	}
}

// NewTrackPanel constructs the track panel module.
func NewTrackPanel(env *application.Env, ui UICallbacks) (module.Module, error) {
	t := &TrackPanel{env: env, ui: ui}
	t.handlers = map[msg.ID]msg.Handler{
		msg.EvtNewTrack: func(p msg.Params) { t.onNewTrack(p.Track(msg.KeyTrack)) },
		msg.EvtStopped:  func(msg.Params) { t.onStopped() },
		msg.CmdSetCover: func(p msg.Params) {
			t.onSetCover(p.Track(msg.KeyTrack), p.String(msg.KeyFullSize))
		},
	}
	return t, nil
}

func (t *TrackPanel) Info() module.Info                { return trackpanelInfo }
func (t *TrackPanel) Handlers() map[msg.ID]msg.Handler { return t.handlers }

func (t *TrackPanel) onNewTrack(trk *track.Track) {
	if trk == nil {
		return
	}
	t.currTrack = trk
	if t.ui.SetTrack != nil {
		title, artist, album := trk.Title, trk.Artist, trk.Album
		t.env.Sched.RunOnMain(func() { t.ui.SetTrack(title, artist, album) })
	}
}

func (t *TrackPanel) onStopped() {
	t.currTrack = nil
	if t.ui.SetTrack != nil {
		t.env.Sched.RunOnMain(func() { t.ui.SetTrack("", "", "") })
	}
	t.setCover("")
}

// onSetCover ignores covers that arrive for a track that is no longer
// current, which happens when the covers module lags behind track changes.
func (t *TrackPanel) onSetCover(trk *track.Track, path string) {
	if trk == nil || trk != t.currTrack {
		return
	}
	t.setCover(path)
}

func (t *TrackPanel) setCover(path string) {
	if t.ui.SetCover != nil {
		t.env.Sched.RunOnMain(func() { t.ui.SetCover(path) })
	}
}
