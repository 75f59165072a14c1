package module

import "github.com/santelmotechnologies/sirena/core/msg"

// Direct connects a non-threaded module to the bus. Handlers execute
// inline on the dispatching thread, which in practice is the UI loop, so
// they must not block.
type Direct struct {
	name     string
	handlers map[msg.ID]msg.Handler
}

// NewDirect wraps m for inline dispatch.
func NewDirect(m Module) *Direct {
	return &Direct{
		name:     m.Info().Name,
		handlers: m.Handlers(),
	}
}

// Name returns the module name.
func (d *Direct) Name() string { return d.name }

// IDs returns the message identifiers the module handles.
func (d *Direct) IDs() []msg.ID {
	ids := make([]msg.ID, 0, len(d.handlers))
	for id := range d.handlers {
		ids = append(ids, id)
	}
	return ids
}

// Deliver invokes the matching handler on the calling thread. Panic
// isolation happens at the bus dispatch boundary.
func (d *Direct) Deliver(id msg.ID, p msg.Params) {
	if h, ok := d.handlers[id]; ok {
		h(p)
	}
}
