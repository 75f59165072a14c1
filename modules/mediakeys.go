package modules

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
)

var mediakeysInfo = module.Info{
	Name:      "mediakeys",
	Label:     "Gnome Media Keys",
	Desc:      "React to the keyboard's multimedia keys",
	Mandatory: true,
}

const (
	mediaKeysBusName  = "org.gnome.SettingsDaemon"
	mediaKeysPath     = dbus.ObjectPath("/org/gnome/SettingsDaemon/MediaKeys")
	mediaKeysIface    = "org.gnome.SettingsDaemon.MediaKeys"
	mediaKeysOldPath  = dbus.ObjectPath("/org/gnome/SettingsDaemon")
	mediaKeysOldIface = "org.gnome.SettingsDaemon"

	mediaKeySignal = "MediaPlayerKeyPressed"
)

// MediaKeys grabs the desktop's multimedia keys from the Gnome settings
// daemon and translates key presses into playback commands. Signals
// arrive on a godbus goroutine; posting is the thread-safe handoff.
type MediaKeys struct {
	env      *application.Env
	handlers map[msg.ID]msg.Handler

	conn  *dbus.Conn
	obj   dbus.BusObject
	iface string
	// uid keeps concurrent player instances from stealing each other's
	// grab.
	uid string
}

func NewMediaKeys(env *application.Env) (module.Module, error) {
	k := &MediaKeys{
		env: env,
		uid: fmt.Sprintf("%s-%d", appName, time.Now().UnixNano()),
	}
	k.handlers = map[msg.ID]msg.Handler{
		msg.EvtAppStarted: func(msg.Params) { k.onAppStarted() },
		msg.EvtAppQuit:    func(msg.Params) { k.onAppQuit() },
	}
	return k, nil
}

func (k *MediaKeys) Info() module.Info                { return mediakeysInfo }
func (k *MediaKeys) Handlers() map[msg.ID]msg.Handler { return k.handlers }

// onAppStarted grabs the media keys, preferring the current settings
// daemon interface and falling back to the pre-2.22 one. Failure leaves
// the module loaded but inert: no settings daemon simply means no media
// keys.
func (k *MediaKeys) onAppStarted() {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		k.env.Logger.Warn("No session bus, media keys disabled", "error", err)
		return
	}

	obj, iface, err := grabMediaKeys(conn, k.uid)
	if err != nil {
		k.env.Logger.Warn("Could not grab media keys", "error", err)
		conn.Close()
		return
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(iface),
		dbus.WithMatchMember(mediaKeySignal),
	); err != nil {
		k.env.Logger.Warn("Could not subscribe to media key signals", "error", err)
		conn.Close()
		return
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)
	go k.listen(signals)

	k.conn = conn
	k.obj = obj
	k.iface = iface
	k.env.Logger.Info("Media keys grabbed", "interface", iface)
}

func (k *MediaKeys) onAppQuit() {
	if k.conn == nil {
		return
	}
	k.obj.Call(k.iface+".ReleaseMediaPlayerKeys", 0, k.uid)
	k.conn.Close()
	k.conn = nil
}

// grabMediaKeys claims the media keys on whichever settings daemon
// interface answers.
func grabMediaKeys(conn *dbus.Conn, uid string) (dbus.BusObject, string, error) {
	obj := conn.Object(mediaKeysBusName, mediaKeysPath)
	if err := obj.Call(mediaKeysIface+".GrabMediaPlayerKeys", 0, uid, uint32(0)).Err; err == nil {
		return obj, mediaKeysIface, nil
	}
	obj = conn.Object(mediaKeysBusName, mediaKeysOldPath)
	if err := obj.Call(mediaKeysOldIface+".GrabMediaPlayerKeys", 0, uid, uint32(0)).Err; err != nil {
		return nil, "", err
	}
	return obj, mediaKeysOldIface, nil
}

// listen drains the signal channel until the connection is closed.
// Presses addressed to other grabbers are ignored.
func (k *MediaKeys) listen(signals <-chan *dbus.Signal) {
	for sig := range signals {
		if len(sig.Body) != 2 {
			continue
		}
		app, _ := sig.Body[0].(string)
		action, _ := sig.Body[1].(string)
		if app != k.uid {
			continue
		}
		if id, ok := mediaKeyCommand(action); ok {
			k.env.Bus.Post(id, nil)
		}
	}
}

// mediaKeyCommand maps a settings-daemon key action to its playback
// command.
func mediaKeyCommand(action string) (msg.ID, bool) {
	switch action {
	case "Stop":
		return msg.CmdStop, true
	case "Next":
		return msg.CmdNext, true
	case "Previous":
		return msg.CmdPrevious, true
	case "Play", "Pause":
		return msg.CmdTogglePause, true
	}
	return 0, false
}
