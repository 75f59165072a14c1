package modules

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/domain/track"
)

var mprisInfo = module.Info{
	Name:      "mpris",
	Label:     "D-Bus Support",
	Desc:      "Remote control over the MPRIS D-Bus interface",
	Deps:      []string{"tracklist", "player"},
	Mandatory: true,
}

const (
	mprisBusName     = "org.mpris.MediaPlayer2.sirena"
	mprisPath        = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisRootIface   = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
)

// MPRIS exposes playback state and remote control on the session bus.
// Incoming method calls arrive on a D-Bus goroutine and are forwarded as
// posted commands; outgoing state flows through the properties object,
// which is safe to update from the dispatching thread.
type MPRIS struct {
	env      *application.Env
	handlers map[msg.ID]msg.Handler

	conn  *dbus.Conn
	props *prop.Properties

	currTrack *track.Track
	paused    bool
	hasNext   bool
	hasPrev   bool
	hasTracks bool
}

// NewMPRIS constructs the MPRIS module. The bus connection is made in the
// app-started handler, not here.
func NewMPRIS(env *application.Env) (module.Module, error) {
	m := &MPRIS{env: env}
	m.handlers = map[msg.ID]msg.Handler{
		msg.EvtAppStarted: func(msg.Params) { m.onAppStarted() },
		msg.EvtAppQuit:    func(msg.Params) { m.onAppQuit() },
		msg.EvtPaused:     func(msg.Params) { m.paused = true; m.updateStatus() },
		msg.EvtUnpaused:   func(msg.Params) { m.paused = false; m.updateStatus() },
		msg.EvtStopped:    func(msg.Params) { m.onStopped() },
		msg.EvtNewTrack:   func(p msg.Params) { m.onNewTrack(p.Track(msg.KeyTrack)) },
		msg.EvtTrackMoved: func(p msg.Params) {
			m.onTrackMoved(p.Bool(msg.KeyHasPrevious), p.Bool(msg.KeyHasNext))
		},
		msg.EvtNewTracklist: func(p msg.Params) {
			m.hasTracks = len(p.Tracks(msg.KeyTracks)) > 0
			m.updateCaps()
		},
		msg.EvtTrackPosition: func(p msg.Params) { m.onTrackPosition(p.Int(msg.KeySeconds)) },
		msg.EvtRepeatChanged: func(p msg.Params) { m.onRepeatChanged(p.Bool(msg.KeyRepeat)) },
	}
	return m, nil
}

func (m *MPRIS) Info() module.Info                { return mprisInfo }
func (m *MPRIS) Handlers() map[msg.ID]msg.Handler { return m.handlers }

// onAppStarted claims the MPRIS bus name and exports the control
// interfaces. Failure leaves the module loaded but inert: no session bus
// simply means no remote control.
func (m *MPRIS) onAppStarted() {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		m.env.Logger.Warn("No session bus, D-Bus remote control disabled", "error", err)
		return
	}

	reply, err := conn.RequestName(mprisBusName, dbus.NameFlagDoNotQueue)
	if err != nil || reply != dbus.RequestNameReplyPrimaryOwner {
		m.env.Logger.Warn("Could not claim MPRIS bus name", "name", mprisBusName, "error", err)
		conn.Close()
		return
	}

	props, err := prop.Export(conn, mprisPath, m.propSpec())
	if err != nil {
		m.env.Logger.Warn("Could not export MPRIS properties", "error", err)
		conn.Close()
		return
	}

	remote := &mprisRemote{env: m.env}
	if err := conn.Export(remote, mprisPath, mprisRootIface); err != nil {
		m.env.Logger.Warn("Could not export MPRIS root interface", "error", err)
	}
	if err := conn.Export(remote, mprisPath, mprisPlayerIface); err != nil {
		m.env.Logger.Warn("Could not export MPRIS player interface", "error", err)
	}

	m.conn = conn
	m.props = props
	m.env.Logger.Info("MPRIS remote control available", "name", mprisBusName)
}

func (m *MPRIS) onAppQuit() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
		m.props = nil
	}
}

func (m *MPRIS) propSpec() prop.Map {
	return prop.Map{
		mprisRootIface: {
			"Identity":            {Value: appName, Emit: prop.EmitTrue},
			"CanQuit":             {Value: false, Emit: prop.EmitTrue},
			"CanRaise":            {Value: false, Emit: prop.EmitTrue},
			"HasTrackList":        {Value: true, Emit: prop.EmitTrue},
			"SupportedUriSchemes": {Value: []string{"file"}, Emit: prop.EmitTrue},
			"SupportedMimeTypes":  {Value: []string{"audio/*"}, Emit: prop.EmitTrue},
		},
		mprisPlayerIface: {
			"PlaybackStatus": {Value: "Stopped", Emit: prop.EmitTrue},
			"LoopStatus": {
				Value:    "None",
				Writable: true,
				Emit:     prop.EmitTrue,
				Callback: m.onSetLoopStatus,
			},
			"Metadata":      {Value: map[string]dbus.Variant{}, Emit: prop.EmitTrue},
			"Position":      {Value: int64(0), Emit: prop.EmitFalse},
			"Rate":          {Value: 1.0, Emit: prop.EmitTrue},
			"MinimumRate":   {Value: 1.0, Emit: prop.EmitTrue},
			"MaximumRate":   {Value: 1.0, Emit: prop.EmitTrue},
			"Volume":        {Value: 1.0, Emit: prop.EmitTrue},
			"CanGoNext":     {Value: false, Emit: prop.EmitTrue},
			"CanGoPrevious": {Value: false, Emit: prop.EmitTrue},
			"CanPlay":       {Value: false, Emit: prop.EmitTrue},
			"CanPause":      {Value: false, Emit: prop.EmitTrue},
			"CanSeek":       {Value: false, Emit: prop.EmitTrue},
			"CanControl":    {Value: true, Emit: prop.EmitTrue},
		},
	}
}

// onSetLoopStatus handles remote writes to LoopStatus.
func (m *MPRIS) onSetLoopStatus(c *prop.Change) *dbus.Error {
	repeat := c.Value == "Playlist"
	m.env.Bus.Post(msg.CmdTracklistRepeat, msg.Params{msg.KeyRepeat: repeat})
	return nil
}

func (m *MPRIS) set(iface, name string, value any) {
	if m.props != nil {
		m.props.SetMust(iface, name, value)
	}
}

func (m *MPRIS) updateStatus() {
	status := "Stopped"
	switch {
	case m.currTrack != nil && m.paused:
		status = "Paused"
	case m.currTrack != nil:
		status = "Playing"
	}
	m.set(mprisPlayerIface, "PlaybackStatus", status)
}

func (m *MPRIS) updateCaps() {
	playing := m.currTrack != nil
	m.set(mprisPlayerIface, "CanPlay", m.hasTracks || playing)
	m.set(mprisPlayerIface, "CanPause", playing)
	m.set(mprisPlayerIface, "CanSeek", playing)
	m.set(mprisPlayerIface, "CanGoNext", m.hasNext)
	m.set(mprisPlayerIface, "CanGoPrevious", m.hasPrev)
}

func (m *MPRIS) onStopped() {
	m.currTrack = nil
	m.paused = false
	m.set(mprisPlayerIface, "Metadata", map[string]dbus.Variant{})
	m.updateStatus()
	m.updateCaps()
}

func (m *MPRIS) onNewTrack(trk *track.Track) {
	m.currTrack = trk
	m.paused = false
	if trk != nil {
		m.set(mprisPlayerIface, "Metadata", metadataFor(trk))
	}
	m.updateStatus()
	m.updateCaps()
}

func (m *MPRIS) onTrackMoved(hasPrev, hasNext bool) {
	m.hasPrev = hasPrev
	m.hasNext = hasNext
	m.updateCaps()
}

func (m *MPRIS) onTrackPosition(seconds int) {
	m.set(mprisPlayerIface, "Position", int64(seconds)*1_000_000)
}

func (m *MPRIS) onRepeatChanged(repeat bool) {
	status := "None"
	if repeat {
		status = "Playlist"
	}
	m.set(mprisPlayerIface, "LoopStatus", status)
}

// metadataFor renders track metadata in MPRIS xesam form.
func metadataFor(trk *track.Track) map[string]dbus.Variant {
	meta := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/org/sirena/track/current")),
		"xesam:url":     dbus.MakeVariant(trk.URI()),
		"xesam:title":   dbus.MakeVariant(trk.Title),
	}
	if trk.Artist != "" {
		meta["xesam:artist"] = dbus.MakeVariant([]string{trk.Artist})
	}
	if trk.Album != "" {
		meta["xesam:album"] = dbus.MakeVariant(trk.Album)
	}
	if trk.Length > 0 {
		meta["mpris:length"] = dbus.MakeVariant(int64(trk.Length) * 1_000_000)
	}
	if trk.Number > 0 {
		meta["xesam:trackNumber"] = dbus.MakeVariant(int32(trk.Number))
	}
	return meta
}

// mprisRemote receives D-Bus method calls and forwards them as commands.
// Calls arrive on a godbus goroutine; posting is the thread-safe handoff.
type mprisRemote struct {
	env *application.Env
}

func (r *mprisRemote) Raise() *dbus.Error { return nil }
func (r *mprisRemote) Quit() *dbus.Error  { return nil }

func (r *mprisRemote) Next() *dbus.Error {
	r.env.Bus.Post(msg.CmdNext, nil)
	return nil
}

func (r *mprisRemote) Previous() *dbus.Error {
	r.env.Bus.Post(msg.CmdPrevious, nil)
	return nil
}

func (r *mprisRemote) Pause() *dbus.Error {
	r.env.Bus.Post(msg.CmdTogglePause, nil)
	return nil
}

func (r *mprisRemote) PlayPause() *dbus.Error {
	r.env.Bus.Post(msg.CmdTogglePause, nil)
	return nil
}

func (r *mprisRemote) Play() *dbus.Error {
	r.env.Bus.Post(msg.CmdTogglePause, nil)
	return nil
}

func (r *mprisRemote) Stop() *dbus.Error {
	r.env.Bus.Post(msg.CmdStop, nil)
	return nil
}

// Seek steps relative to the current position; the offset arrives in
// microseconds.
func (r *mprisRemote) Seek(offset int64) *dbus.Error {
	r.env.Bus.Post(msg.CmdStep, msg.Params{msg.KeySeconds: int(offset / 1_000_000)})
	return nil
}

func (r *mprisRemote) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	r.env.Bus.Post(msg.CmdSeek, msg.Params{msg.KeySeconds: int(position / 1_000_000)})
	return nil
}

func (r *mprisRemote) OpenUri(uri string) *dbus.Error {
	r.env.Bus.Post(msg.EvtLoadTracks, msg.Params{
		msg.KeyPaths:   []string{uri},
		msg.KeyPlayNow: true,
	})
	return nil
}
