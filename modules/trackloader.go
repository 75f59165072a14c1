package modules

import (
	"net/url"
	"strings"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/domain/track"
)

var trackloaderInfo = module.Info{
	Name:      "trackloader",
	Label:     "Track Loader",
	Desc:      "Scan files and directories into playable tracks",
	Mandatory: true,
	Threaded:  true,
}

// TrackLoader turns filesystem paths into tracks off the dispatching
// thread. Directory scans can touch thousands of files, so the module is
// threaded and posts the result back when done.
type TrackLoader struct {
	env      *application.Env
	handlers map[msg.ID]msg.Handler
}

func NewTrackLoader(env *application.Env) (module.Module, error) {
	l := &TrackLoader{env: env}
	l.handlers = map[msg.ID]msg.Handler{
		msg.EvtLoadTracks: func(p msg.Params) {
			l.load(p.Strings(msg.KeyPaths), p.Bool(msg.KeyPlayNow))
		},
	}
	return l, nil
}

func (l *TrackLoader) Info() module.Info                { return trackloaderInfo }
func (l *TrackLoader) Handlers() map[msg.ID]msg.Handler { return l.handlers }

func (l *TrackLoader) load(paths []string, playNow bool) {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		cleaned = append(cleaned, localPath(p))
	}

	tracks := track.Collect(cleaned)
	if len(tracks) == 0 {
		l.env.Logger.Info("No playable tracks found", "paths", cleaned)
		return
	}

	l.env.Logger.Info("Loaded tracks", "count", len(tracks))
	l.env.Bus.Post(msg.CmdTracklistAdd, msg.Params{
		msg.KeyTracks:  tracks,
		msg.KeyPlayNow: playNow,
	})
}

// localPath strips a file:// scheme so drag-and-drop and D-Bus callers
// can pass URIs directly.
func localPath(p string) string {
	if !strings.HasPrefix(p, "file://") {
		return p
	}
	u, err := url.Parse(p)
	if err != nil {
		return strings.TrimPrefix(p, "file://")
	}
	return u.Path
}
