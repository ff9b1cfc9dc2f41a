package wizard

import (
	"sync"
	"time"
)

// DefaultAutoSaveDelay matches the edit flow's debounce window: a save fires
// about two seconds after the last change, not on every keystroke.
const DefaultAutoSaveDelay = 2 * time.Second

// AutoSaver debounces form saves. There is no cancellation for an in-flight
// save: a later save can race an earlier one and the later write wins.
type AutoSaver struct {
	delay time.Duration
	save  func(FormData)

	mu      sync.Mutex
	pending *FormData
	timer   *time.Timer
	stopped bool
}

// NewAutoSaver creates a debounced saver invoking save on its own goroutine.
func NewAutoSaver(delay time.Duration, save func(FormData)) *AutoSaver {
	if delay <= 0 {
		delay = DefaultAutoSaveDelay
	}
	return &AutoSaver{delay: delay, save: save}
}

// Notify records the latest form state and (re)starts the debounce timer.
// Rapid successive calls collapse into a single save of the last state.
func (a *AutoSaver) Notify(form FormData) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending = &form
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *AutoSaver) fire() {
	a.mu.Lock()
	form := a.pending
	a.pending = nil
	a.mu.Unlock()
	if form != nil {
		a.save(*form)
	}
}

// Flush saves any pending state immediately, e.g. when the user leaves the
// edit flow before the timer fires.
func (a *AutoSaver) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()
	a.fire()
}

// Stop discards pending state and prevents further saves.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
	}
}
