package modules

import (
	"fmt"
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/domain/track"
)

var notifyInfo = module.Info{
	Name:           "notify",
	Label:          "Notifications",
	Desc:           "Show a desktop notification when the track changes",
	Deps:           []string{"tracklist"},
	DefaultEnabled: true,
	Configurable:   true,
}

const (
	notifyBusName   = "org.freedesktop.Notifications"
	notifyPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyCall      = "org.freedesktop.Notifications.Notify"
	notifyCloseCall = "org.freedesktop.Notifications.CloseNotification"

	prefNotifyTimeout = "timeout_ms"
	defaultNotifyMS   = 4000
)

// Notify raises a desktop notification on each new track. Reusing the
// previous notification id replaces the bubble instead of stacking them.
type Notify struct {
	env      *application.Env
	handlers map[msg.ID]msg.Handler

	conn      *dbus.Conn
	lastID    atomic.Uint32
	coverPath string
	timeoutMS int
}

func NewNotify(env *application.Env) (module.Module, error) {
	n := &Notify{env: env, timeoutMS: defaultNotifyMS}
	n.handlers = map[msg.ID]msg.Handler{
		msg.EvtAppStarted: func(msg.Params) { n.onAppStarted() },
		msg.EvtAppQuit:    func(msg.Params) { n.onAppQuit() },
		msg.EvtNewTrack:   func(p msg.Params) { n.onNewTrack(p.Track(msg.KeyTrack)) },
		msg.EvtStopped:    func(msg.Params) { n.coverPath = "" },
		msg.CmdSetCover: func(p msg.Params) {
			n.coverPath = p.String(msg.KeyFullSize)
		},
	}
	return n, nil
}

func (n *Notify) Info() module.Info                { return notifyInfo }
func (n *Notify) Handlers() map[msg.ID]msg.Handler { return n.handlers }

func (n *Notify) onAppStarted() {
	if t := n.env.Prefs.GetInt(notifyInfo.Name, prefNotifyTimeout, defaultNotifyMS); t > 0 {
		n.timeoutMS = t
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		n.env.Logger.Warn("No session bus, desktop notifications disabled", "error", err)
		return
	}
	n.conn = conn
}

func (n *Notify) onAppQuit() {
	if n.conn == nil {
		return
	}
	if id := n.lastID.Load(); id != 0 {
		n.conn.Object(notifyBusName, notifyPath).Go(notifyCloseCall, dbus.FlagNoReplyExpected, nil, id)
	}
	n.conn.Close()
	n.conn = nil
}

// onNewTrack fires the notification asynchronously so a slow or absent
// notification daemon never stalls dispatch.
func (n *Notify) onNewTrack(trk *track.Track) {
	if n.conn == nil || trk == nil {
		return
	}

	body := trk.Album
	if trk.Artist != "" {
		body = fmt.Sprintf("by %s\n%s", trk.Artist, trk.Album)
	}
	icon := n.coverPath
	if icon == "" {
		icon = "audio-x-generic"
	}

	obj := n.conn.Object(notifyBusName, notifyPath)
	call := obj.Go(notifyCall, 0, make(chan *dbus.Call, 1),
		appName,                   // app_name
		n.lastID.Load(),           // replaces_id
		icon,                      // app_icon
		trk.Title,                 // summary
		body,                      // body
		[]string{},                // actions
		map[string]dbus.Variant{}, // hints
		int32(n.timeoutMS),        // expire_timeout
	)
	go func() {
		<-call.Done
		if call.Err != nil {
			n.env.Logger.Warn("Desktop notification failed", "error", call.Err)
			return
		}
		var id uint32
		if err := call.Store(&id); err == nil {
			n.lastID.Store(id)
		}
	}()
}
