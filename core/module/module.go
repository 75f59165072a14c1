// Package module defines the capability contract every feature unit
// implements, and the runtime that connects modules to the bus: direct
// modules run their handlers on the dispatching thread, threaded modules
// run them sequentially on a shared worker pool.
package module

import "github.com/santelmotechnologies/sirena/core/msg"

// Info describes a module to the registry and the preferences UI.
type Info struct {
	// Name is the unique identifier of the module.
	Name string
	// Label is the human-readable name shown to the user.
	Label string
	// Desc is a short description shown to the user.
	Desc string
	// Deps lists names of other modules this one requires to function.
	Deps []string
	// Mandatory modules are always loaded and cannot be disabled.
	Mandatory bool
	// DefaultEnabled modules are loaded on first start, before the user
	// has expressed any preference.
	DefaultEnabled bool
	// Configurable modules expose a configuration dialog.
	Configurable bool
	// Threaded modules have their handlers executed on a pool worker
	// instead of the dispatching thread, one at a time, in FIFO order.
	Threaded bool
}

// Module is an independently loadable feature unit. The handler table is
// built once at construction and must not change afterwards; constructors
// must not perform slow or UI-dependent work (that belongs in the
// EvtAppStarted handler).
type Module interface {
	Info() Info
	Handlers() map[msg.ID]msg.Handler
}
