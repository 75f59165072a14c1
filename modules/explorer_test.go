package modules

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/santelmotechnologies/sirena/core/msg"
)

func newTestExplorer(t *testing.T) (*Explorer, *recorder) {
	t.Helper()
	env, rec := newTestEnv(t)
	mod, err := NewExplorer(env)
	if err != nil {
		t.Fatalf("NewExplorer() error = %v", err)
	}
	e := mod.(*Explorer)
	e.delay = 20 * time.Millisecond
	return e, rec
}

func TestEventBurstCoalescesIntoOneAnnouncement(t *testing.T) {
	e, rec := newTestExplorer(t)
	e.paths = []string{"/music"}

	// An album copy fires one filesystem event per file.
	for i := 0; i < 10; i++ {
		e.scheduleAnnounce()
	}
	waitFor(t, "coalesced announcement", func() bool {
		return rec.count(msg.EvtMusicPathsChanged) == 1
	})

	time.Sleep(3 * e.delay)
	if got := rec.count(msg.EvtMusicPathsChanged); got != 1 {
		t.Fatalf("burst announced %d times, want 1", got)
	}

	// A later change opens a new window.
	e.scheduleAnnounce()
	waitFor(t, "second announcement", func() bool {
		return rec.count(msg.EvtMusicPathsChanged) == 2
	})
}

func TestFileCreationTriggersAnnouncement(t *testing.T) {
	e, rec := newTestExplorer(t)
	dir := t.TempDir()
	e.env.Prefs.Set(explorerInfo.Name, prefMusicPaths, []string{dir})

	e.onAppStarted()
	defer e.onAppQuit()
	if got := rec.count(msg.EvtMusicPathsChanged); got != 1 {
		t.Fatalf("startup announced %d times, want 1", got)
	}

	touch(t, filepath.Join(dir, "song.ogg"))
	waitFor(t, "change announcement", func() bool {
		return rec.count(msg.EvtMusicPathsChanged) == 2
	})
	if got := rec.last(msg.EvtMusicPathsChanged).Strings(msg.KeyPaths); len(got) != 1 || got[0] != dir {
		t.Errorf("announced paths = %v, want [%s]", got, dir)
	}
}

func TestOwnAnnouncementEchoIsIgnored(t *testing.T) {
	e, _ := newTestExplorer(t)
	e.paths = []string{"/music"}

	e.onPathsChanged([]string{"/music"})
	if got := e.env.Prefs.GetStrings(explorerInfo.Name, prefMusicPaths, nil); got != nil {
		t.Errorf("echo persisted paths %v, want none", got)
	}

	e.onPathsChanged([]string{"/music", "/more"})
	want := []string{"/music", "/more"}
	got := e.env.Prefs.GetStrings(explorerInfo.Name, prefMusicPaths, nil)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("persisted paths = %v, want %v", got, want)
	}
}
