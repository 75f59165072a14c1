package modules

import (
	"sync"
	"time"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/infrastructure/audio"
)

var playerInfo = module.Info{
	Name:      "player",
	Label:     "Player",
	Desc:      "Drive the audio playback engine",
	Mandatory: true,
}

// bufferAhead is how close to the end of the current track the next one
// should be requested, in seconds.
const bufferAhead = 5

// Player drives the playback engine: it handles the player commands and
// translates engine callbacks into playback events. Position updates are
// posted once per second while playing.
type Player struct {
	env      *application.Env
	engine   audio.Engine
	handlers map[msg.ID]msg.Handler

	// Shared with the ticker goroutine.
	mu         sync.Mutex
	nextURI    string
	needBuffer bool

	// Main-loop only.
	queuedSeek int
	hasQueued  bool
	stopTicker chan struct{}
}

func playerFactory(engine audio.Engine) application.Factory {
	return func(env *application.Env) (module.Module, error) {
		return NewPlayer(env, engine)
	}
}

// NewPlayer constructs the player module around the given engine.
func NewPlayer(env *application.Env, engine audio.Engine) (module.Module, error) {
	p := &Player{
		env:        env,
		engine:     engine,
		stopTicker: make(chan struct{}),
	}
	p.handlers = map[msg.ID]msg.Handler{
		msg.CmdPlay:        func(pr msg.Params) { p.onPlay(pr.String(msg.KeyURI), pr.Bool(msg.KeyForced)) },
		msg.CmdStop:        func(msg.Params) { p.onStop() },
		msg.CmdSeek:        func(pr msg.Params) { p.onSeek(pr.Int(msg.KeySeconds)) },
		msg.CmdStep:        func(pr msg.Params) { p.onStep(pr.Int(msg.KeySeconds)) },
		msg.CmdBuffer:      func(pr msg.Params) { p.onBuffer(pr.String(msg.KeyURI)) },
		msg.CmdTogglePause: func(msg.Params) { p.onTogglePause() },
		msg.EvtAppStarted:  func(msg.Params) { p.onAppStarted() },
		msg.EvtAppQuit:     func(msg.Params) { p.onAppQuit() },
	}
	return p, nil
}

func (p *Player) Info() module.Info                { return playerInfo }
func (p *Player) Handlers() map[msg.ID]msg.Handler { return p.handlers }

// onAppStarted hooks the engine callback and starts the position ticker.
func (p *Player) onAppStarted() {
	p.engine.OnEnded(func(err error) {
		p.mu.Lock()
		p.nextURI = ""
		p.mu.Unlock()
		if err != nil {
			p.env.Bus.Post(msg.EvtTrackEndedError, nil)
		} else {
			p.env.Bus.Post(msg.EvtTrackEndedOK, nil)
		}
	})

	go p.tick()
}

// tick posts the playback position once per second while playing, and
// requests buffering of the next track near the end of the current one.
func (p *Player) tick() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopTicker:
			return
		case <-ticker.C:
		}

		if p.engine.Status() != audio.StatusPlaying {
			continue
		}
		position := p.engine.Position()
		p.env.Bus.Post(msg.EvtTrackPosition, msg.Params{msg.KeySeconds: position})

		duration := p.engine.Duration()
		p.mu.Lock()
		want := duration > 0 && duration-position < bufferAhead &&
			p.nextURI == "" && !p.needBuffer
		if want {
			p.needBuffer = true
		}
		p.mu.Unlock()
		if want {
			p.env.Bus.Post(msg.EvtNeedBuffer, nil)
		}
	}
}

func (p *Player) onPlay(uri string, forced bool) {
	p.mu.Lock()
	chained := !forced && uri != "" && uri == p.nextURI
	p.nextURI = ""
	p.needBuffer = false
	p.mu.Unlock()

	// When the engine already chained into the buffered track there is
	// nothing to restart.
	if !chained {
		if err := p.engine.Play(uri); err != nil {
			p.env.Logger.Error("Engine refused to play", "uri", uri, "error", err)
			p.env.Bus.Post(msg.EvtTrackEndedError, nil)
			return
		}
	}
	p.hasQueued = false
}

func (p *Player) onStop() {
	p.mu.Lock()
	p.nextURI = ""
	p.needBuffer = false
	p.mu.Unlock()

	p.engine.Stop()
	p.hasQueued = false
	p.env.Bus.Post(msg.EvtStopped, nil)
}

func (p *Player) onTogglePause() {
	switch p.engine.Status() {
	case audio.StatusPaused:
		if p.hasQueued {
			p.engine.Seek(p.queuedSeek)
			p.hasQueued = false
		}
		p.engine.Resume()
		p.env.Bus.Post(msg.EvtUnpaused, nil)
	case audio.StatusPlaying:
		p.engine.Pause()
		p.env.Bus.Post(msg.EvtPaused, nil)
	}
}

// onSeek jumps when playing; when paused the seek is queued and applied
// on unpause.
func (p *Player) onSeek(seconds int) {
	switch p.engine.Status() {
	case audio.StatusPaused:
		p.queuedSeek = seconds
		p.hasQueued = true
	case audio.StatusPlaying:
		p.engine.Seek(seconds)
	}
}

func (p *Player) onStep(seconds int) {
	if p.engine.Status() != audio.StatusPlaying {
		return
	}
	pos := p.engine.Position() + seconds
	if pos < 0 {
		pos = 0
	}
	p.engine.Seek(pos)
}

func (p *Player) onBuffer(uri string) {
	p.mu.Lock()
	p.nextURI = uri
	p.mu.Unlock()
	p.engine.SetNextURI(uri)
}

func (p *Player) onAppQuit() {
	close(p.stopTicker)
	p.engine.Stop()
}
