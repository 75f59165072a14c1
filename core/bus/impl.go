package bus

import (
	"log/slog"
	"sync"

	"github.com/santelmotechnologies/sirena/core/msg"
)

// delivery is one posted message awaiting fan-out.
type delivery struct {
	id     msg.ID
	params msg.Params
}

// Bus fans posted messages out to every registered subscriber. Posting is
// fire-and-forget: deliveries go through a deferred queue drained on the
// main loop, so the caller never blocks on handler execution and re-entrant
// posts never grow the stack.
type Bus struct {
	sched  Scheduler
	logger *slog.Logger

	mu        sync.Mutex
	table     map[msg.ID][]Subscriber
	pending   []delivery
	scheduled bool
}

// New creates a bus that drains its delivery queue via sched.
func New(sched Scheduler, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		sched:  sched,
		logger: logger,
		table:  make(map[msg.ID][]Subscriber),
	}
}

// Register adds the subscriber for the given identifiers. For one message,
// subscribers are delivered to in registration order. Called once per
// module at load time.
func (b *Bus) Register(s Subscriber, ids ...msg.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		b.table[id] = append(b.table[id], s)
	}
}

// Unregister removes all of the subscriber's registrations.
func (b *Bus) Unregister(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, subs := range b.table {
		kept := subs[:0]
		for _, sub := range subs {
			if sub != s {
				kept = append(kept, sub)
			}
		}
		if len(kept) == 0 {
			delete(b.table, id)
		} else {
			b.table[id] = kept
		}
	}
}

// Post enqueues delivery of a message to every subscriber currently
// registered for id and returns immediately. Posting an identifier nobody
// registered for is a silent no-op.
func (b *Bus) Post(id msg.ID, p msg.Params) {
	b.mu.Lock()
	b.pending = append(b.pending, delivery{id: id, params: p})
	schedule := !b.scheduled
	if schedule {
		b.scheduled = true
	}
	b.mu.Unlock()

	if schedule {
		b.sched.RunOnMain(b.drain)
	}
}

// SubscriberNames returns the names of the subscribers registered for id,
// in registration order.
func (b *Bus) SubscriberNames(id msg.ID) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.table[id]))
	for _, s := range b.table[id] {
		names = append(names, s.Name())
	}
	return names
}

// drain processes the deferred queue until it is empty. It runs on the main
// loop; posts made by handlers while draining are picked up by the same
// pass, keeping dispatch iterative rather than recursive.
func (b *Bus) drain() {
	for {
		b.mu.Lock()
		if len(b.pending) == 0 {
			b.scheduled = false
			b.mu.Unlock()
			return
		}
		d := b.pending[0]
		b.pending = b.pending[1:]
		subs := make([]Subscriber, len(b.table[d.id]))
		copy(subs, b.table[d.id])
		b.mu.Unlock()

		for _, s := range subs {
			b.deliver(s, d)
		}
	}
}

// deliver hands one message to one subscriber, isolating panics so a
// failing handler cannot prevent delivery to the remaining subscribers.
func (b *Bus) deliver(s Subscriber, d delivery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Handler panicked during dispatch",
				"module", s.Name(), "msg", d.id.String(), "panic", r)
		}
	}()
	s.Deliver(d.id, d.params)
}
