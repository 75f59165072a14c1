// Package bus provides the message bus connecting modules without direct
// references to each other.
package bus

import (
	"github.com/santelmotechnologies/sirena/core/msg"
)

// Scheduler defers a callback to the main UI loop. Callbacks run once,
// soon, in submission order on the single UI thread.
type Scheduler interface {
	RunOnMain(fn func())
}

// Subscriber receives deliveries for the message identifiers it registered
// for. Deliver must not block: direct modules run their handler inline on
// the dispatching thread, threaded modules enqueue to their mailbox.
type Subscriber interface {
	Name() string
	Deliver(id msg.ID, p msg.Params)
}
