package application

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/santelmotechnologies/sirena/core/bus"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/infrastructure/prefs"
)

// syncScheduler runs callbacks inline, standing in for the UI loop.
type syncScheduler struct{}

func (syncScheduler) RunOnMain(fn func()) { fn() }

// fakeModule is a catalogue entry for registry tests.
type fakeModule struct {
	info     module.Info
	handlers map[msg.ID]msg.Handler
}

func (f *fakeModule) Info() module.Info                { return f.info }
func (f *fakeModule) Handlers() map[msg.ID]msg.Handler { return f.handlers }

func registration(info module.Info, handlers map[msg.ID]msg.Handler) Registration {
	if handlers == nil {
		handlers = map[msg.ID]msg.Handler{msg.EvtAppStarted: func(msg.Params) {}}
	}
	return Registration{Info: info, New: func(*Env) (module.Module, error) {
		return &fakeModule{info: info, handlers: handlers}, nil
	}}
}

func newTestRegistry(t *testing.T, quit func()) *Registry {
	t.Helper()
	if quit == nil {
		quit = func() {}
	}
	env := &Env{
		Bus:   bus.New(syncScheduler{}, nil),
		Prefs: prefs.Open(filepath.Join(t.TempDir(), "prefs.yaml"), nil),
		Sched: syncScheduler{},
	}
	return NewRegistry(&RegistryConfig{
		Env:  env,
		Pool: module.NewPool(module.DefaultPoolSize),
		Quit: quit,
	})
}

func TestLoadEnabledModulesRespectsFlags(t *testing.T) {
	r := newTestRegistry(t, nil)
	r.Add(registration(module.Info{Name: "core", Mandatory: true}, nil))
	r.Add(registration(module.Info{Name: "extra", DefaultEnabled: true}, nil))
	r.Add(registration(module.Info{Name: "optional"}, nil))

	// First run: no preference exists, defaults apply.
	r.LoadEnabledModules()

	want := []string{"core", "extra"}
	if got := r.LoadedModules(); !reflect.DeepEqual(got, want) {
		t.Errorf("LoadedModules() = %v, want %v", got, want)
	}
}

func TestLoadEnabledModulesHonoursSavedList(t *testing.T) {
	r := newTestRegistry(t, nil)
	r.Add(registration(module.Info{Name: "core", Mandatory: true}, nil))
	r.Add(registration(module.Info{Name: "extra", DefaultEnabled: true}, nil))
	r.Add(registration(module.Info{Name: "optional"}, nil))

	// The user previously disabled "extra" and enabled "optional".
	r.env.Prefs.Set("modules", "enabled_modules", []string{"optional"})

	r.LoadEnabledModules()

	want := []string{"core", "optional"}
	if got := r.LoadedModules(); !reflect.DeepEqual(got, want) {
		t.Errorf("LoadedModules() = %v, want %v", got, want)
	}
}

func TestLoadPullsInDependenciesFirst(t *testing.T) {
	r := newTestRegistry(t, nil)
	r.Add(registration(module.Info{Name: "leaf", Mandatory: true, Deps: []string{"base"}}, nil))
	r.Add(registration(module.Info{Name: "base", Mandatory: true}, nil))

	r.LoadEnabledModules()

	if !r.IsLoaded("base") || !r.IsLoaded("leaf") {
		t.Errorf("LoadedModules() = %v, want base and leaf", r.LoadedModules())
	}
}

func TestLoadSkipsModuleWithUnresolvedDependency(t *testing.T) {
	r := newTestRegistry(t, nil)
	r.Add(registration(module.Info{Name: "orphan", Mandatory: true, Deps: []string{"ghost"}}, nil))

	r.LoadEnabledModules()

	if r.IsLoaded("orphan") {
		t.Error("module with unresolved dependency was loaded")
	}
}

func TestConstructorFailureIsNotFatal(t *testing.T) {
	r := newTestRegistry(t, nil)
	r.Add(Registration{
		Info: module.Info{Name: "broken", Mandatory: true},
		New: func(*Env) (module.Module, error) {
			panic("constructor exploded")
		},
	})
	r.Add(registration(module.Info{Name: "core", Mandatory: true}, nil))

	r.LoadEnabledModules()

	if r.IsLoaded("broken") {
		t.Error("broken module reported as loaded")
	}
	if !r.IsLoaded("core") {
		t.Error("healthy module was not loaded")
	}
}

func TestEnableRequiresLoadedDependencies(t *testing.T) {
	r := newTestRegistry(t, nil)
	r.Add(registration(module.Info{Name: "covers", Deps: []string{"tracklist"}}, nil))

	err := r.Enable("covers")

	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("Enable() error = %v, want DependencyError", err)
	}
	if !reflect.DeepEqual(depErr.Missing, []string{"tracklist"}) {
		t.Errorf("Missing = %v, want [tracklist]", depErr.Missing)
	}
	if r.IsLoaded("covers") {
		t.Error("module loaded despite missing dependency")
	}
}

func TestEnableDeliversModLoadedOnlyToNewModule(t *testing.T) {
	r := newTestRegistry(t, nil)

	var loadedCalls int
	handlers := map[msg.ID]msg.Handler{
		msg.EvtModLoaded: func(msg.Params) { loadedCalls++ },
	}
	r.Add(registration(module.Info{Name: "optional"}, handlers))

	if err := r.Enable("optional"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if loadedCalls != 1 {
		t.Errorf("EvtModLoaded handled %d times, want 1", loadedCalls)
	}
}

func TestDisableRejectsMandatoryAndDependedOn(t *testing.T) {
	r := newTestRegistry(t, nil)
	r.Add(registration(module.Info{Name: "core", Mandatory: true}, nil))
	r.Add(registration(module.Info{Name: "base", DefaultEnabled: true}, nil))
	r.Add(registration(module.Info{Name: "leaf", DefaultEnabled: true, Deps: []string{"base"}}, nil))
	r.LoadEnabledModules()

	if err := r.Disable("core"); err == nil {
		t.Error("Disable() on mandatory module succeeded")
	}

	err := r.Disable("base")
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("Disable() error = %v, want DependencyError", err)
	}
	if !reflect.DeepEqual(depErr.Dependents, []string{"leaf"}) {
		t.Errorf("Dependents = %v, want [leaf]", depErr.Dependents)
	}
	if !r.IsLoaded("base") || !r.IsLoaded("leaf") {
		t.Errorf("LoadedModules() = %v after rejected disable", r.LoadedModules())
	}

	// Dropping the dependent first unblocks the dependency.
	if err := r.Disable("leaf"); err != nil {
		t.Fatalf("Disable(leaf) error = %v", err)
	}
	if err := r.Disable("base"); err != nil {
		t.Fatalf("Disable(base) error = %v", err)
	}
	if r.IsLoaded("base") || r.IsLoaded("leaf") {
		t.Errorf("LoadedModules() = %v after disabling", r.LoadedModules())
	}
}

func TestDisableUnregistersFromBus(t *testing.T) {
	r := newTestRegistry(t, nil)

	var seen int
	handlers := map[msg.ID]msg.Handler{
		msg.EvtPaused: func(msg.Params) { seen++ },
	}
	r.Add(registration(module.Info{Name: "optional"}, handlers))

	if err := r.Enable("optional"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	r.env.Bus.Post(msg.EvtPaused, nil)
	if seen != 1 {
		t.Fatalf("handler ran %d times while loaded, want 1", seen)
	}

	if err := r.Disable("optional"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	r.env.Bus.Post(msg.EvtPaused, nil)
	if seen != 1 {
		t.Errorf("handler ran %d times after disable, want 1", seen)
	}
}

func TestCatalogueSafeForConcurrentAccess(t *testing.T) {
	r := newTestRegistry(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("mod%d", i)
			r.Add(registration(module.Info{Name: name}, nil))
			if err := r.Enable(name); err != nil {
				t.Errorf("Enable(%s) error = %v", name, err)
			}
			r.Catalogue()
		}(i)
	}
	wg.Wait()

	if got := len(r.LoadedModules()); got != 8 {
		t.Errorf("LoadedModules() has %d entries, want 8", got)
	}
}

func TestHandlerIDsMatchBusRegistrations(t *testing.T) {
	r := newTestRegistry(t, nil)
	handlers := map[msg.ID]msg.Handler{
		msg.EvtPaused:  func(msg.Params) {},
		msg.EvtStopped: func(msg.Params) {},
	}
	r.Add(registration(module.Info{Name: "watcher", Mandatory: true}, handlers))
	r.LoadEnabledModules()

	ids := r.HandlerIDs("watcher")
	if len(ids) != 2 {
		t.Fatalf("HandlerIDs() = %v, want 2 entries", ids)
	}
	for _, id := range ids {
		names := r.env.Bus.SubscriberNames(id)
		if !reflect.DeepEqual(names, []string{"watcher"}) {
			t.Errorf("SubscriberNames(%v) = %v, want [watcher]", id, names)
		}
	}

	if got := r.HandlerIDs("missing"); got != nil {
		t.Errorf("HandlerIDs(missing) = %v, want nil", got)
	}
}

func TestPostQuitMsgBroadcastsAndQuitsOnce(t *testing.T) {
	quit := make(chan struct{}, 2)
	r := newTestRegistry(t, func() { quit <- struct{}{} })

	var gotQuit int
	direct := map[msg.ID]msg.Handler{
		msg.EvtAppQuit: func(msg.Params) { gotQuit++ },
	}
	r.Add(registration(module.Info{Name: "direct", Mandatory: true}, direct))

	threadedDone := make(chan struct{})
	threaded := map[msg.ID]msg.Handler{
		msg.EvtAppQuit: func(msg.Params) { close(threadedDone) },
	}
	r.Add(registration(module.Info{Name: "threaded", Mandatory: true, Threaded: true}, threaded))
	r.LoadEnabledModules()

	r.PostQuitMsg()
	r.PostQuitMsg() // second call must be a no-op

	select {
	case <-quit:
	case <-time.After(2 * time.Second):
		t.Fatal("quit callback was not invoked")
	}
	select {
	case <-threadedDone:
	default:
		t.Error("threaded module had not handled app-quit before quit")
	}
	if gotQuit != 1 {
		t.Errorf("direct module handled app-quit %d times, want 1", gotQuit)
	}

	select {
	case <-quit:
		t.Error("quit callback invoked twice")
	case <-time.After(50 * time.Millisecond):
	}
}
