package modules

import (
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/bus"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/infrastructure/prefs"
)

// syncScheduler runs callbacks inline, standing in for the UI loop.
type syncScheduler struct{}

func (syncScheduler) RunOnMain(fn func()) { fn() }

// recorder captures every message posted on the bus. Threaded modules
// post from their own goroutines, so access is mutex-guarded.
type recorder struct {
	mu     sync.Mutex
	ids    []msg.ID
	params []msg.Params
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Deliver(id msg.ID, p msg.Params) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	r.params = append(r.params, p)
}

// last returns the most recent params posted under id, nil if none.
func (r *recorder) last(id msg.ID) msg.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.ids) - 1; i >= 0; i-- {
		if r.ids[i] == id {
			return r.params[i]
		}
	}
	return nil
}

func (r *recorder) count(id msg.ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.ids {
		if got == id {
			n++
		}
	}
	return n
}

// all returns a snapshot of every recorded message identifier in order.
func (r *recorder) all() []msg.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]msg.ID(nil), r.ids...)
}

// paramsFor returns the params of every message posted under id, in order.
func (r *recorder) paramsFor(id msg.ID) []msg.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []msg.Params
	for i, got := range r.ids {
		if got == id {
			out = append(out, r.params[i])
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = nil
	r.params = nil
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// newTestEnv builds an environment whose bus dispatches inline and whose
// preferences live in a temp dir. The recorder sees every defined message.
func newTestEnv(t *testing.T) (*application.Env, *recorder) {
	t.Helper()
	env := &application.Env{
		Bus:    bus.New(syncScheduler{}, nil),
		Prefs:  prefs.Open(filepath.Join(t.TempDir(), "prefs.yaml"), nil),
		Sched:  syncScheduler{},
		Logger: slog.Default(),
	}
	rec := &recorder{}
	all := make([]msg.ID, 0, msg.Count())
	for id := msg.ID(0); id.Valid(); id++ {
		all = append(all, id)
	}
	env.Bus.Register(rec, all...)
	return env, rec
}
