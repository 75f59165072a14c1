package modules

import (
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
)

var explorerInfo = module.Info{
	Name:         "explorer",
	Label:        "Music Folders",
	Desc:         "Watch the configured music folders for changes",
	Mandatory:    true,
	Configurable: true,
	Threaded:     true,
}

const (
	prefMusicPaths = "music_paths"

	// rescanDelay coalesces bursts of filesystem events (a copy of an
	// album fires one per file) into a single change notification.
	rescanDelay = 2 * time.Second
)

// Explorer owns the list of music folders and watches them with
// fsnotify. Any change inside a folder re-announces the path list so
// dependents refresh their view of the library.
type Explorer struct {
	env      *application.Env
	handlers map[msg.ID]msg.Handler

	paths   []string
	watcher *fsnotify.Watcher
	delay   time.Duration

	mu      sync.Mutex
	pending *time.Timer
}

func NewExplorer(env *application.Env) (module.Module, error) {
	e := &Explorer{env: env, delay: rescanDelay}
	e.handlers = map[msg.ID]msg.Handler{
		msg.EvtAppStarted:        func(msg.Params) { e.onAppStarted() },
		msg.EvtAppQuit:           func(msg.Params) { e.onAppQuit() },
		msg.EvtMusicPathsChanged: func(p msg.Params) { e.onPathsChanged(p.Strings(msg.KeyPaths)) },
	}
	return e, nil
}

func (e *Explorer) Info() module.Info                { return explorerInfo }
func (e *Explorer) Handlers() map[msg.ID]msg.Handler { return e.handlers }

func (e *Explorer) onAppStarted() {
	e.paths = e.env.Prefs.GetStrings(explorerInfo.Name, prefMusicPaths, nil)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		e.env.Logger.Warn("Folder watching disabled", "error", err)
	} else {
		e.watcher = w
		go e.watch(w)
		for _, p := range e.paths {
			if err := w.Add(p); err != nil {
				e.env.Logger.Warn("Cannot watch music folder", "path", p, "error", err)
			}
		}
	}

	if len(e.paths) > 0 {
		e.announce()
	}
}

func (e *Explorer) onAppQuit() {
	e.mu.Lock()
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.mu.Unlock()

	if e.watcher != nil {
		e.watcher.Close()
		e.watcher = nil
	}
}

// onPathsChanged applies an updated folder list. The event is also what
// this module posts itself, so echoes of our own announcement are
// ignored.
func (e *Explorer) onPathsChanged(paths []string) {
	if slices.Equal(paths, e.paths) {
		return
	}

	if e.watcher != nil {
		for _, p := range e.paths {
			e.watcher.Remove(p)
		}
		for _, p := range paths {
			if err := e.watcher.Add(p); err != nil {
				e.env.Logger.Warn("Cannot watch music folder", "path", p, "error", err)
			}
		}
	}

	e.paths = slices.Clone(paths)
	e.env.Prefs.Set(explorerInfo.Name, prefMusicPaths, e.paths)
}

// watch drains the fsnotify channels until the watcher is closed.
func (e *Explorer) watch(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				e.scheduleAnnounce()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			e.env.Logger.Warn("Folder watcher error", "error", err)
		}
	}
}

func (e *Explorer) scheduleAnnounce() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		e.pending.Reset(e.delay)
		return
	}
	e.pending = time.AfterFunc(e.delay, func() {
		e.mu.Lock()
		e.pending = nil
		e.mu.Unlock()
		e.announce()
	})
}

func (e *Explorer) announce() {
	e.env.Bus.Post(msg.EvtMusicPathsChanged, msg.Params{msg.KeyPaths: slices.Clone(e.paths)})
}
