package bus

import (
	"reflect"
	"testing"

	"github.com/santelmotechnologies/sirena/core/msg"
)

// syncScheduler runs callbacks inline, standing in for the UI loop.
type syncScheduler struct{}

func (syncScheduler) RunOnMain(fn func()) { fn() }

// recorder is a subscriber that records what it was delivered.
type recorder struct {
	name      string
	delivered []msg.ID
	params    []msg.Params
	onDeliver func(id msg.ID, p msg.Params)
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Deliver(id msg.ID, p msg.Params) {
	r.delivered = append(r.delivered, id)
	r.params = append(r.params, p)
	if r.onDeliver != nil {
		r.onDeliver(id, p)
	}
}

func TestPostDeliversInFIFOOrder(t *testing.T) {
	b := New(syncScheduler{}, nil)
	rec := &recorder{name: "rec"}
	b.Register(rec, msg.CmdPlay, msg.CmdStop, msg.CmdNext)

	b.Post(msg.CmdPlay, msg.Params{msg.KeyURI: "file:///a.ogg"})
	b.Post(msg.CmdNext, nil)
	b.Post(msg.CmdStop, nil)

	want := []msg.ID{msg.CmdPlay, msg.CmdNext, msg.CmdStop}
	if !reflect.DeepEqual(rec.delivered, want) {
		t.Errorf("delivered %v, want %v", rec.delivered, want)
	}
	if got := rec.params[0].String(msg.KeyURI); got != "file:///a.ogg" {
		t.Errorf("params[0] uri = %q", got)
	}
}

func TestPostWithoutSubscribersIsNoOp(t *testing.T) {
	b := New(syncScheduler{}, nil)

	// Must not panic or block.
	b.Post(msg.EvtNewTrack, nil)

	if names := b.SubscriberNames(msg.EvtNewTrack); len(names) != 0 {
		t.Errorf("SubscriberNames() = %v, want empty", names)
	}
}

func TestFanOutFollowsRegistrationOrder(t *testing.T) {
	b := New(syncScheduler{}, nil)

	var order []string
	sub := func(name string) *recorder {
		return &recorder{
			name:      name,
			onDeliver: func(msg.ID, msg.Params) { order = append(order, name) },
		}
	}

	b.Register(sub("first"), msg.EvtStopped)
	b.Register(sub("second"), msg.EvtStopped)
	b.Register(sub("third"), msg.EvtStopped)

	b.Post(msg.EvtStopped, nil)

	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("delivery order %v, want %v", order, want)
	}
	if names := b.SubscriberNames(msg.EvtStopped); !reflect.DeepEqual(names, want) {
		t.Errorf("SubscriberNames() = %v, want %v", names, want)
	}
}

func TestPanickingSubscriberDoesNotStopFanOut(t *testing.T) {
	b := New(syncScheduler{}, nil)

	bad := &recorder{name: "bad", onDeliver: func(msg.ID, msg.Params) { panic("boom") }}
	good := &recorder{name: "good"}
	b.Register(bad, msg.EvtPaused)
	b.Register(good, msg.EvtPaused)

	p := msg.Params{msg.KeySeconds: 3}
	b.Post(msg.EvtPaused, p)

	if len(good.delivered) != 1 {
		t.Fatalf("good subscriber got %d deliveries, want 1", len(good.delivered))
	}
	// The survivor must see the same params the panicker was given.
	if got := good.params[0].Int(msg.KeySeconds); got != 3 {
		t.Errorf("params seconds = %d, want 3", got)
	}
}

func TestReentrantPostIsDeferred(t *testing.T) {
	b := New(syncScheduler{}, nil)

	rec := &recorder{name: "rec"}
	chain := &recorder{name: "chain"}
	chain.onDeliver = func(id msg.ID, _ msg.Params) {
		if id == msg.CmdNext {
			// Posting from inside a handler must not recurse into
			// dispatch; the delivery happens in the same drain pass,
			// after the current fan-out completes.
			b.Post(msg.EvtNewTrack, nil)
		}
	}
	b.Register(chain, msg.CmdNext)
	b.Register(rec, msg.CmdNext, msg.EvtNewTrack)

	b.Post(msg.CmdNext, nil)

	want := []msg.ID{msg.CmdNext, msg.EvtNewTrack}
	if !reflect.DeepEqual(rec.delivered, want) {
		t.Errorf("delivered %v, want %v", rec.delivered, want)
	}
}

func TestUnregisterRemovesAllRegistrations(t *testing.T) {
	b := New(syncScheduler{}, nil)
	rec := &recorder{name: "rec"}
	other := &recorder{name: "other"}
	b.Register(rec, msg.CmdPlay, msg.CmdStop)
	b.Register(other, msg.CmdPlay)

	b.Unregister(rec)

	b.Post(msg.CmdPlay, nil)
	b.Post(msg.CmdStop, nil)

	if len(rec.delivered) != 0 {
		t.Errorf("unregistered subscriber got %v", rec.delivered)
	}
	if len(other.delivered) != 1 {
		t.Errorf("remaining subscriber got %d deliveries, want 1", len(other.delivered))
	}
}
