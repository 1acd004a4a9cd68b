package riffsync

import "sync"

// Visibility abstracts "is the hosting view on screen". The engine pauses
// polling while hidden and issues one immediate event fetch on return so
// the view is not stale for a full poll period.
type Visibility interface {
	Visible() bool
	// OnChange registers cb for visibility transitions and returns a
	// cancel func that detaches it.
	OnChange(cb func(visible bool)) (cancel func())
}

// alwaysVisible is the default for hosts with no visibility signal
// (one-shot commands).
type alwaysVisible struct{}

func (alwaysVisible) Visible() bool                        { return true }
func (alwaysVisible) OnChange(func(bool)) (cancel func()) { return func() {} }

// FocusSignal is a Visibility backed by explicit Set calls. The TUI feeds
// it terminal focus/blur; tests feed it directly.
type FocusSignal struct {
	mu      sync.Mutex
	visible bool
	subs    map[int]func(bool)
	nextID  int
}

func NewFocusSignal() *FocusSignal {
	return &FocusSignal{visible: true, subs: make(map[int]func(bool))}
}

func (f *FocusSignal) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

// Set records the new visibility and notifies subscribers on transitions.
// Redundant sets (visible→visible) are dropped.
func (f *FocusSignal) Set(visible bool) {
	f.mu.Lock()
	if f.visible == visible {
		f.mu.Unlock()
		return
	}
	f.visible = visible
	cbs := make([]func(bool), 0, len(f.subs))
	for _, cb := range f.subs {
		cbs = append(cbs, cb)
	}
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(visible)
	}
}

func (f *FocusSignal) OnChange(cb func(bool)) (cancel func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = cb
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}
