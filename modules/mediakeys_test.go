package modules

import (
	"reflect"
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/santelmotechnologies/sirena/core/msg"
)

func TestMediaKeyCommandMapping(t *testing.T) {
	tests := []struct {
		action string
		want   msg.ID
		ok     bool
	}{
		{"Stop", msg.CmdStop, true},
		{"Next", msg.CmdNext, true},
		{"Previous", msg.CmdPrevious, true},
		{"Play", msg.CmdTogglePause, true},
		{"Pause", msg.CmdTogglePause, true},
		{"FastForward", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := mediaKeyCommand(tt.action)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("mediaKeyCommand(%q) = %v, %v, want %v, %v", tt.action, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMediaKeyPressesPostCommands(t *testing.T) {
	env, rec := newTestEnv(t)
	mod, err := NewMediaKeys(env)
	if err != nil {
		t.Fatalf("NewMediaKeys() error = %v", err)
	}
	k := mod.(*MediaKeys)

	signals := make(chan *dbus.Signal)
	done := make(chan struct{})
	go func() {
		k.listen(signals)
		close(done)
	}()

	for _, action := range []string{"Stop", "Next", "Previous", "Play", "Pause", "FastForward"} {
		signals <- &dbus.Signal{Body: []any{k.uid, action}}
	}
	// A press addressed to another grabber must not produce a command.
	signals <- &dbus.Signal{Body: []any{"someone-else", "Stop"}}
	signals <- &dbus.Signal{Body: []any{"malformed"}}
	close(signals)
	<-done

	want := []msg.ID{msg.CmdStop, msg.CmdNext, msg.CmdPrevious, msg.CmdTogglePause, msg.CmdTogglePause}
	if got := rec.all(); !reflect.DeepEqual(got, want) {
		t.Errorf("posted %v, want %v", got, want)
	}
}
