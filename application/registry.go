// Package application provides the module registry: it knows which modules
// exist, tracks which are enabled, loads and tears them down, and drives
// the orderly quit sequence.
package application

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/santelmotechnologies/sirena/core/bus"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/infrastructure/prefs"
)

const (
	prefsIdentity   = "modules"
	prefEnabledList = "enabled_modules"

	// joinTimeout bounds how long quitting waits for one threaded module
	// to drain its mailbox.
	joinTimeout = 5 * time.Second
)

// Env gives module constructors access to shared infrastructure.
type Env struct {
	Bus    *bus.Bus
	Prefs  *prefs.Store
	Sched  bus.Scheduler
	Logger *slog.Logger
}

// Factory constructs a module instance. Constructors must only build the
// handler table and module-local state; slow or UI-dependent work belongs
// in the EvtAppStarted handler.
type Factory func(env *Env) (module.Module, error)

// Registration describes one available module to the registry.
type Registration struct {
	Info module.Info
	New  Factory
}

// subscriber is the bus-facing side of a loaded module.
type subscriber interface {
	bus.Subscriber
	IDs() []msg.ID
}

// loadedModule tracks one constructed module instance.
type loadedModule struct {
	mod module.Module
	sub subscriber
	// mbx is non-nil for threaded modules and used to join the worker
	// during the quit sequence.
	mbx *module.Mailbox
}

// RegistryConfig holds the registry's collaborators.
type RegistryConfig struct {
	Env  *Env
	Pool *module.Pool
	// Quit terminates the enclosing UI loop. Called once, after the
	// app-quit broadcast has been dispatched and all workers drained.
	Quit   func()
	Logger *slog.Logger
}

// Registry implements the module lifecycle.
type Registry struct {
	env    *Env
	pool   *module.Pool
	quit   func()
	logger *slog.Logger

	mu        sync.Mutex
	catalogue map[string]Registration
	loaded    map[string]*loadedModule
	quitting  bool
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg *RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		env:       cfg.Env,
		pool:      cfg.Pool,
		quit:      cfg.Quit,
		logger:    logger,
		catalogue: make(map[string]Registration),
		loaded:    make(map[string]*loadedModule),
	}
}

// Add registers an available module with the catalogue.
func (r *Registry) Add(reg Registration) {
	r.mu.Lock()
	r.catalogue[reg.Info.Name] = reg
	r.mu.Unlock()
}

// Catalogue returns the known modules sorted by name.
func (r *Registry) Catalogue() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs := make([]Registration, 0, len(r.catalogue))
	for _, reg := range r.catalogue {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Info.Name < regs[j].Info.Name })
	return regs
}

// registration looks up one catalogue entry under the lock.
func (r *Registry) registration(name string) (Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.catalogue[name]
	return reg, ok
}

// IsLoaded reports whether the named module is currently loaded.
func (r *Registry) IsLoaded(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.loaded[name]
	return ok
}

// LoadedModules returns the names of the loaded modules, sorted.
func (r *Registry) LoadedModules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.loaded))
	for name := range r.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandlerIDs returns the message identifiers the loaded module is
// registered under, or nil if the module is not loaded.
func (r *Registry) HandlerIDs(name string) []msg.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	lm, ok := r.loaded[name]
	if !ok {
		return nil
	}
	return lm.sub.IDs()
}

// LoadEnabledModules constructs every module that is mandatory or marked
// enabled in the preferences, dependencies first. A module that fails to
// construct, or whose dependency is not part of the startup set, is logged
// and skipped; the process keeps running without it.
func (r *Registry) LoadEnabledModules() {
	enabled := r.env.Prefs.GetStrings(prefsIdentity, prefEnabledList, nil)
	firstRun := r.env.Prefs.Get(prefsIdentity, prefEnabledList, nil) == nil

	wanted := make(map[string]bool)
	for _, reg := range r.Catalogue() {
		if reg.Info.Mandatory || (firstRun && reg.Info.DefaultEnabled) {
			wanted[reg.Info.Name] = true
		}
	}
	for _, name := range enabled {
		if _, ok := r.registration(name); ok {
			wanted[name] = true
		}
	}

	for _, reg := range r.Catalogue() {
		if wanted[reg.Info.Name] {
			if err := r.loadWithDeps(reg.Info.Name, wanted, make(map[string]bool)); err != nil {
				r.logger.Error("Unable to load module", "module", reg.Info.Name, "error", err)
			}
		}
	}

	r.persistEnabled()
}

// loadWithDeps loads name after its declared dependencies. The wanted set
// is the full startup set; a dependency outside it is unresolved.
func (r *Registry) loadWithDeps(name string, wanted, visiting map[string]bool) error {
	if r.IsLoaded(name) {
		return nil
	}
	if visiting[name] {
		return fmt.Errorf("dependency cycle through module %q", name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	reg, ok := r.registration(name)
	if !ok {
		return fmt.Errorf("unknown module %q", name)
	}

	var missing []string
	for _, dep := range reg.Info.Deps {
		if !wanted[dep] {
			missing = append(missing, dep)
			continue
		}
		if err := r.loadWithDeps(dep, wanted, visiting); err != nil {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Module: name, Missing: missing}
	}

	return r.load(reg)
}

// load constructs the module and registers its handler table with the bus.
func (r *Registry) load(reg Registration) error {
	mod, err := construct(reg, r.env)
	if err != nil {
		return err
	}

	var sub subscriber
	var mbx *module.Mailbox
	if reg.Info.Threaded {
		mbx = module.NewMailbox(mod, r.pool, r.logger)
		sub = mbx
	} else {
		sub = module.NewDirect(mod)
	}
	r.env.Bus.Register(sub, sub.IDs()...)

	r.mu.Lock()
	r.loaded[reg.Info.Name] = &loadedModule{mod: mod, sub: sub, mbx: mbx}
	r.mu.Unlock()

	r.logger.Info("Module loaded", "module", reg.Info.Name)
	return nil
}

// construct runs the factory with panic isolation: a panicking constructor
// is a load failure, not a crash.
func construct(reg Registration, env *Env) (mod module.Module, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("constructor panicked: %v", rec)
		}
	}()
	return reg.New(env)
}

// Enable loads a single module at the user's request. Every declared
// dependency must already be loaded, otherwise a DependencyError is
// returned and nothing is registered.
func (r *Registry) Enable(name string) error {
	reg, ok := r.registration(name)
	if !ok {
		return fmt.Errorf("unknown module %q", name)
	}
	if r.IsLoaded(name) {
		return nil
	}

	var missing []string
	for _, dep := range reg.Info.Deps {
		if !r.IsLoaded(dep) {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Module: name, Missing: missing}
	}

	if err := r.load(reg); err != nil {
		return err
	}

	// Tell the new module (and only it) that it was loaded mid-run.
	r.mu.Lock()
	lm := r.loaded[name]
	r.mu.Unlock()
	if _, ok := lm.mod.Handlers()[msg.EvtModLoaded]; ok {
		r.env.Sched.RunOnMain(func() {
			lm.sub.Deliver(msg.EvtModLoaded, nil)
		})
	}

	r.persistEnabled()
	return nil
}

// Disable tears down a single module at the user's request. Mandatory
// modules cannot be disabled, and neither can a module that other loaded
// modules depend on.
func (r *Registry) Disable(name string) error {
	r.mu.Lock()
	lm, ok := r.loaded[name]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	if lm.mod.Info().Mandatory {
		r.mu.Unlock()
		return fmt.Errorf("module %q is mandatory and cannot be disabled", name)
	}

	var dependents []string
	for loadedName, other := range r.loaded {
		for _, dep := range other.mod.Info().Deps {
			if dep == name {
				dependents = append(dependents, loadedName)
			}
		}
	}
	if len(dependents) > 0 {
		r.mu.Unlock()
		sort.Strings(dependents)
		return &DependencyError{Module: name, Dependents: dependents}
	}
	delete(r.loaded, name)
	r.mu.Unlock()

	// Let the module persist its state, then drop its registrations. A
	// threaded module treats the unloaded message as its stop sentinel
	// and drains in the background.
	r.env.Sched.RunOnMain(func() {
		lm.sub.Deliver(msg.EvtModUnloaded, nil)
		r.env.Bus.Unregister(lm.sub)
	})

	r.logger.Info("Module unloaded", "module", name)
	r.persistEnabled()
	return nil
}

// NotifyStarted broadcasts the app-started event. Called once the UI is
// realized; delivery is asynchronous like any other post.
func (r *Registry) NotifyStarted() {
	r.env.Bus.Post(msg.EvtAppStarted, nil)
}

// PostQuitMsg begins the orderly shutdown: broadcast app-quit to every
// loaded module, wait for threaded workers to drain their mailboxes, then
// stop the UI loop. Safe to call more than once.
func (r *Registry) PostQuitMsg() {
	r.mu.Lock()
	if r.quitting {
		r.mu.Unlock()
		return
	}
	r.quitting = true
	mailboxes := make([]*module.Mailbox, 0, len(r.loaded))
	for _, lm := range r.loaded {
		if lm.mbx != nil {
			mailboxes = append(mailboxes, lm.mbx)
		}
	}
	r.mu.Unlock()

	if err := r.env.Prefs.Save(); err != nil {
		r.logger.Warn("Could not save preferences", "error", err)
	}

	r.env.Bus.Post(msg.EvtAppQuit, nil)

	// The callback below is scheduled after the quit broadcast, so by the
	// time it runs every direct module has handled app-quit and every
	// mailbox holds its stop sentinel. Joining happens off the UI loop.
	r.env.Sched.RunOnMain(func() {
		go func() {
			for _, mbx := range mailboxes {
				if !mbx.Join(joinTimeout) {
					r.logger.Warn("Worker did not drain in time", "module", mbx.Name())
				}
			}
			if err := r.env.Prefs.Save(); err != nil {
				r.logger.Warn("Could not save preferences", "error", err)
			}
			r.quit()
		}()
	})
}

// persistEnabled writes the current non-mandatory loaded set back to the
// preferences.
func (r *Registry) persistEnabled() {
	r.mu.Lock()
	var enabled []string
	for name, lm := range r.loaded {
		if !lm.mod.Info().Mandatory {
			enabled = append(enabled, name)
		}
	}
	r.mu.Unlock()
	sort.Strings(enabled)
	r.env.Prefs.Set(prefsIdentity, prefEnabledList, enabled)
	if err := r.env.Prefs.Save(); err != nil {
		r.logger.Warn("Could not save preferences", "error", err)
	}
}
