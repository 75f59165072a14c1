package modules

import (
	"fmt"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/domain/track"
)

var statusbarInfo = module.Info{
	Name:      "statusbar",
	Label:     "Status and Title Bars",
	Desc:      "Keep the window title and status bar up to date",
	Mandatory: true,
}

const appName = "Sirena"

// Statusbar tracks the current track and paused state and renders both
// the window title and the status line. UI mutations are marshalled onto
// the main loop.
type Statusbar struct {
	env      *application.Env
	ui       UICallbacks
	handlers map[msg.ID]msg.Handler

	currTrack *track.Track
	paused    bool
	count     int
	playtime  int
}

func statusbarFactory(ui UICallbacks) application.Factory {
	return func(env *application.Env) (module.Module, error) {
		return NewStatusbar(env, ui)
	}
}

// NewStatusbar constructs the statusbar module.
func NewStatusbar(env *application.Env, ui UICallbacks) (module.Module, error) {
	s := &Statusbar{env: env, ui: ui}
	s.handlers = map[msg.ID]msg.Handler{
		msg.EvtPaused:   func(msg.Params) { s.paused = true; s.update() },
		msg.EvtUnpaused: func(msg.Params) { s.paused = false; s.update() },
		msg.EvtStopped:  func(msg.Params) { s.currTrack = nil; s.paused = false; s.update() },
		msg.EvtNewTrack: func(p msg.Params) {
			s.currTrack = p.Track(msg.KeyTrack)
			s.paused = false
			s.update()
		},
		msg.EvtNewTracklist: func(p msg.Params) {
			s.count = len(p.Tracks(msg.KeyTracks))
			s.playtime = p.Int(msg.KeyPlaytime)
			s.update()
		},
		msg.EvtAppStarted: func(msg.Params) { s.update() },
	}
	return s, nil
}

func (s *Statusbar) Info() module.Info                { return statusbarInfo }
func (s *Statusbar) Handlers() map[msg.ID]msg.Handler { return s.handlers }

// title renders the window title for the current playback state.
func (s *Statusbar) title() string {
	switch {
	case s.currTrack == nil:
		return appName
	case s.paused:
		return s.currTrack.WindowTitle() + " [paused]"
	default:
		return s.currTrack.WindowTitle()
	}
}

// status renders the status line for the current tracklist.
func (s *Statusbar) status() string {
	if s.count == 0 {
		return ""
	}
	return fmt.Sprintf("%d tracks (%s)", s.count, formatDuration(s.playtime))
}

func (s *Statusbar) update() {
	title, status := s.title(), s.status()
	if s.ui.SetTitle != nil {
		s.env.Sched.RunOnMain(func() { s.ui.SetTitle(title) })
	}
	if s.ui.SetStatus != nil {
		s.env.Sched.RunOnMain(func() { s.ui.SetStatus(status) })
	}
}

// formatDuration renders seconds as "h:mm:ss" or "m:ss".
func formatDuration(seconds int) string {
	h, m, s := seconds/3600, (seconds/60)%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
