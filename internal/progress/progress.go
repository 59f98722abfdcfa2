// Package progress tracks how far the reader has scrolled through a page.
package progress

import (
	"math"
	"sync"
)

// Environment is the browser surface the tracker needs.
type Environment interface {
	ScrollTop() float64
	DocumentHeight() float64
	ViewportHeight() float64
	// OnScroll registers fn for scroll events and returns its remover.
	OnScroll(fn func()) (remove func())
	// RequestFrame runs fn on the next animation frame. The returned func
	// cancels it if it has not run yet.
	RequestFrame(fn func()) (cancel func())
}

// State of a Tracker.
type State int

// Tracker states.
const (
	Idle State = iota
	Tracking
)

func (s State) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "idle"
}

// Percent returns reading completion in [0, 100]. Pages that fit in the
// viewport are at 0.
func Percent(scrollTop, documentHeight, viewportHeight float64) float64 {
	if documentHeight <= viewportHeight {
		return 0
	}
	p := 100 * scrollTop / math.Max(1, documentHeight-viewportHeight)
	if math.IsNaN(p) {
		return 0
	}
	return math.Min(100, math.Max(0, p))
}

// Tracker keeps a reading-progress value current while mounted. Scroll
// events are coalesced to at most one recomputation per animation frame.
type Tracker struct {
	mu           sync.Mutex
	state        State
	env          Environment
	gen          uint64
	percent      float64
	framePending bool
	removeScroll func()
	cancelFrame  func()
	onChange     func(float64)
}

// NewTracker creates an idle tracker. onChange, if non-nil, receives every
// recomputed value.
func NewTracker(onChange func(float64)) *Tracker {
	return &Tracker{onChange: onChange}
}

// Mount starts tracking. A nil environment means there is no DOM to track
// and Mount does nothing.
func (t *Tracker) Mount(env Environment) {
	if env == nil {
		return
	}
	t.mu.Lock()
	if t.state == Tracking {
		t.mu.Unlock()
		return
	}
	t.state = Tracking
	t.env = env
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	t.update(env, gen)
	remove := env.OnScroll(t.handleScroll)

	t.mu.Lock()
	if t.state == Tracking && t.gen == gen {
		t.removeScroll = remove
		remove = nil
	}
	t.mu.Unlock()
	if remove != nil {
		remove()
	}
}

// Unmount removes the scroll listener and any pending frame. No update
// happens after it returns.
func (t *Tracker) Unmount() {
	t.mu.Lock()
	if t.state != Tracking {
		t.mu.Unlock()
		return
	}
	remove, cancel := t.removeScroll, t.cancelFrame
	t.state = Idle
	t.env = nil
	t.gen++
	t.removeScroll, t.cancelFrame = nil, nil
	t.framePending = false
	t.mu.Unlock()

	if remove != nil {
		remove()
	}
	if cancel != nil {
		cancel()
	}
}

// Percent returns the last computed value.
func (t *Tracker) Percent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

// State returns the tracker's lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) handleScroll() {
	t.mu.Lock()
	if t.state != Tracking || t.framePending {
		t.mu.Unlock()
		return
	}
	t.framePending = true
	env, gen := t.env, t.gen
	t.mu.Unlock()

	cancel := env.RequestFrame(func() { t.frame(env, gen) })

	t.mu.Lock()
	if t.framePending && t.gen == gen {
		t.cancelFrame = cancel
	}
	t.mu.Unlock()
}

func (t *Tracker) frame(env Environment, gen uint64) {
	t.mu.Lock()
	if t.state != Tracking || t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.framePending = false
	t.cancelFrame = nil
	t.mu.Unlock()

	t.update(env, gen)
}

// update recomputes the value unless the tracker was unmounted or
// remounted since gen was taken.
func (t *Tracker) update(env Environment, gen uint64) {
	p := Percent(env.ScrollTop(), env.DocumentHeight(), env.ViewportHeight())

	t.mu.Lock()
	if t.state != Tracking || t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.percent = p
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(p)
	}
}
