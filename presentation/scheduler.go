package presentation

import "fyne.io/fyne/v2"

// FyneScheduler funnels work onto the Fyne event loop. It is the
// scheduler the message bus dispatches on, which makes bus delivery and
// widget updates share a single thread.
type FyneScheduler struct{}

func NewScheduler() *FyneScheduler { return &FyneScheduler{} }

func (s *FyneScheduler) RunOnMain(fn func()) {
	fyne.Do(fn)
}
