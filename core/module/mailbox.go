package module

import (
	"log/slog"
	"sync"
	"time"

	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/core/state"
)

// DefaultMailboxLimit bounds the pending deliveries of one threaded
// module. When the limit is reached the oldest pending entry is dropped
// and a warning is logged; lifecycle messages are never dropped.
const DefaultMailboxLimit = 512

// Delivery is one queued (identifier, params) pair.
type Delivery struct {
	ID     msg.ID
	Params msg.Params
}

// Mailbox connects a threaded module to the bus. The bus enqueues
// deliveries here instead of invoking handlers; a shared pool worker
// drains the queue one entry at a time, so the module's handlers run
// strictly in FIFO order and never concurrently with each other.
//
// EvtAppQuit and EvtModUnloaded act as the stop sentinel: everything
// queued before them is processed, nothing is accepted after them, and
// once the sentinel's handler returns the worker reports stopped.
type Mailbox struct {
	name     string
	handlers map[msg.ID]msg.Handler
	pool     *Pool
	logger   *slog.Logger
	limit    int

	mu       sync.Mutex
	queue    []Delivery
	st       state.WorkerState
	serviced bool
	stopping bool

	done chan struct{}
}

// NewMailbox wraps m for queued dispatch on pool workers.
func NewMailbox(m Module, pool *Pool, logger *slog.Logger) *Mailbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailbox{
		name:     m.Info().Name,
		handlers: m.Handlers(),
		pool:     pool,
		logger:   logger,
		limit:    DefaultMailboxLimit,
		st:       state.Idle,
		done:     make(chan struct{}),
	}
}

// Name returns the module name.
func (mb *Mailbox) Name() string { return mb.name }

// IDs returns the identifiers to register with the bus. The stop sentinels
// are always included so the worker loop can exit even when the module
// declared no handler for them.
func (mb *Mailbox) IDs() []msg.ID {
	ids := make([]msg.ID, 0, len(mb.handlers)+2)
	for id := range mb.handlers {
		ids = append(ids, id)
	}
	if _, ok := mb.handlers[msg.EvtAppQuit]; !ok {
		ids = append(ids, msg.EvtAppQuit)
	}
	if _, ok := mb.handlers[msg.EvtModUnloaded]; !ok {
		ids = append(ids, msg.EvtModUnloaded)
	}
	return ids
}

// State returns the current worker state.
func (mb *Mailbox) State() state.WorkerState {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.st
}

// Stopped is closed once the worker has processed the stop sentinel.
func (mb *Mailbox) Stopped() <-chan struct{} { return mb.done }

// Join waits for the worker to stop, up to the given timeout. It reports
// whether the worker stopped in time.
func (mb *Mailbox) Join(timeout time.Duration) bool {
	select {
	case <-mb.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func isSentinel(id msg.ID) bool {
	return id == msg.EvtAppQuit || id == msg.EvtModUnloaded
}

// Deliver enqueues one message and wakes a worker if none is servicing
// the mailbox. Never blocks.
func (mb *Mailbox) Deliver(id msg.ID, p msg.Params) {
	mb.mu.Lock()
	if mb.stopping || mb.st.IsTerminal() {
		mb.mu.Unlock()
		return
	}

	if isSentinel(id) {
		mb.stopping = true
	} else if len(mb.queue) >= mb.limit {
		dropped := mb.queue[0]
		mb.queue = mb.queue[1:]
		mb.logger.Warn("Mailbox full, dropping oldest delivery",
			"module", mb.name, "msg", dropped.ID.String())
	}
	mb.queue = append(mb.queue, Delivery{ID: id, Params: p})

	wake := !mb.serviced
	if wake {
		mb.serviced = true
	}
	mb.mu.Unlock()

	if wake {
		mb.pool.Submit(mb.run)
	}
}

// run drains the queue on a pool worker until it is empty or the stop
// sentinel has been handled.
func (mb *Mailbox) run() {
	for {
		mb.mu.Lock()
		if len(mb.queue) == 0 {
			mb.serviced = false
			if !mb.st.IsTerminal() {
				mb.st = state.Idle
			}
			mb.mu.Unlock()
			return
		}
		d := mb.queue[0]
		mb.queue = mb.queue[1:]
		if mb.stopping && len(mb.queue) > 0 {
			mb.st = state.Draining
		} else {
			mb.st = state.Running
		}
		mb.mu.Unlock()

		mb.invoke(d)

		if isSentinel(d.ID) {
			mb.mu.Lock()
			mb.st = state.Stopped
			mb.serviced = false
			mb.queue = nil
			mb.mu.Unlock()
			close(mb.done)
			return
		}
	}
}

// invoke runs one handler, isolating panics so a failing handler cannot
// take the worker down. A missing handler is a no-op; this only happens
// for the injected stop sentinels.
func (mb *Mailbox) invoke(d Delivery) {
	defer func() {
		if r := recover(); r != nil {
			mb.logger.Error("Handler panicked on worker",
				"module", mb.name, "msg", d.ID.String(), "panic", r)
		}
	}()
	if h, ok := mb.handlers[d.ID]; ok {
		h(d.Params)
	}
}
