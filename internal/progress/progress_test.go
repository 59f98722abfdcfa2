package progress

import (
	"testing"
)

// fakeWindow is a scripted browser window.
type fakeWindow struct {
	scrollTop, docHeight, viewHeight float64

	nextID    int
	listeners map[int]func()
	frames    map[int]func()
	requested int
}

func newFakeWindow(scrollTop, docHeight, viewHeight float64) *fakeWindow {
	return &fakeWindow{
		scrollTop:  scrollTop,
		docHeight:  docHeight,
		viewHeight: viewHeight,
		listeners:  make(map[int]func()),
		frames:     make(map[int]func()),
	}
}

func (w *fakeWindow) ScrollTop() float64      { return w.scrollTop }
func (w *fakeWindow) DocumentHeight() float64 { return w.docHeight }
func (w *fakeWindow) ViewportHeight() float64 { return w.viewHeight }

func (w *fakeWindow) OnScroll(fn func()) func() {
	w.nextID++
	id := w.nextID
	w.listeners[id] = fn
	return func() { delete(w.listeners, id) }
}

func (w *fakeWindow) RequestFrame(fn func()) func() {
	w.nextID++
	id := w.nextID
	w.frames[id] = fn
	w.requested++
	return func() { delete(w.frames, id) }
}

func (w *fakeWindow) scrollTo(top float64) {
	w.scrollTop = top
	for _, fn := range w.listeners {
		fn()
	}
}

func (w *fakeWindow) flushFrames() {
	frames := w.frames
	w.frames = make(map[int]func())
	for _, fn := range frames {
		fn()
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name                 string
		top, doc, view, want float64
	}{
		{"top", 0, 2000, 1000, 0},
		{"middle", 500, 2000, 1000, 50},
		{"bottom", 1000, 2000, 1000, 100},
		{"overscroll", 1200, 2000, 1000, 100},
		{"negative bounce", -40, 2000, 1000, 0},
		{"short page", 0, 800, 1000, 0},
		{"exact fit", 0, 1000, 1000, 0},
		{"tiny scroll range", 0.5, 1000.5, 1000, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.top, tt.doc, tt.view); got != tt.want {
				t.Errorf("Percent(%v, %v, %v) = %v, want %v", tt.top, tt.doc, tt.view, got, tt.want)
			}
		})
	}
}

func TestPercentBounds(t *testing.T) {
	for top := -500.0; top <= 5000; top += 37 {
		for _, doc := range []float64{0, 500, 1000, 1001, 4000} {
			p := Percent(top, doc, 1000)
			if p < 0 || p > 100 {
				t.Fatalf("Percent(%v, %v, 1000) = %v out of bounds", top, doc, p)
			}
		}
	}
}

func TestTrackerMountComputesImmediately(t *testing.T) {
	w := newFakeWindow(500, 2000, 1000)
	var seen []float64
	tr := NewTracker(func(p float64) { seen = append(seen, p) })

	tr.Mount(w)
	defer tr.Unmount()

	if tr.State() != Tracking {
		t.Fatalf("expected tracking, got %s", tr.State())
	}
	if tr.Percent() != 50 {
		t.Errorf("expected 50 on mount, got %v", tr.Percent())
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 change callback on mount, got %d", len(seen))
	}
	if len(w.listeners) != 1 {
		t.Errorf("expected 1 scroll listener, got %d", len(w.listeners))
	}
}

func TestTrackerCoalescesScrolls(t *testing.T) {
	w := newFakeWindow(0, 3000, 1000)
	tr := NewTracker(nil)
	tr.Mount(w)
	defer tr.Unmount()

	for i := 1; i <= 20; i++ {
		w.scrollTo(float64(i * 10))
	}
	if w.requested != 1 {
		t.Fatalf("expected 1 frame request for a burst of scrolls, got %d", w.requested)
	}
	if tr.Percent() != 0 {
		t.Errorf("expected no recompute before the frame, got %v", tr.Percent())
	}

	w.flushFrames()
	if tr.Percent() != 10 {
		t.Errorf("expected 10 after frame, got %v", tr.Percent())
	}

	w.scrollTo(2000)
	if w.requested != 2 {
		t.Errorf("expected a new frame after the previous one ran, got %d requests", w.requested)
	}
	w.flushFrames()
	if tr.Percent() != 100 {
		t.Errorf("expected 100 at bottom, got %v", tr.Percent())
	}
}

func TestTrackerUnmount(t *testing.T) {
	w := newFakeWindow(0, 3000, 1000)
	updates := 0
	tr := NewTracker(func(float64) { updates++ })
	tr.Mount(w)

	var scroll []func()
	for _, fn := range w.listeners {
		scroll = append(scroll, fn)
	}
	w.scrollTo(1000)
	if len(w.frames) != 1 {
		t.Fatalf("expected a pending frame, got %d", len(w.frames))
	}

	tr.Unmount()
	if tr.State() != Idle {
		t.Errorf("expected idle after unmount, got %s", tr.State())
	}
	if len(w.listeners) != 0 {
		t.Errorf("expected no listeners after unmount, got %d", len(w.listeners))
	}
	if len(w.frames) != 0 {
		t.Errorf("expected pending frame cancelled, got %d", len(w.frames))
	}

	// Stale callbacks fired by a misbehaving environment change nothing.
	before := updates
	tr.handleScroll()
	for _, fn := range scroll {
		fn()
	}
	w.flushFrames()
	if updates != before {
		t.Errorf("expected no updates after unmount, got %d", updates-before)
	}
}

func TestTrackerNilEnvironment(t *testing.T) {
	tr := NewTracker(func(float64) { t.Error("unexpected update") })
	tr.Mount(nil)
	if tr.State() != Idle {
		t.Errorf("expected idle without environment, got %s", tr.State())
	}
	tr.Unmount()
}

func TestTrackerRemount(t *testing.T) {
	first := newFakeWindow(0, 2000, 1000)
	tr := NewTracker(nil)
	tr.Mount(first)
	first.scrollTo(500)
	var stale []func()
	for _, fn := range first.frames {
		stale = append(stale, fn)
	}
	tr.Unmount()

	second := newFakeWindow(250, 2000, 1000)
	tr.Mount(second)
	defer tr.Unmount()

	for _, fn := range stale {
		fn()
	}
	if tr.Percent() != 25 {
		t.Errorf("expected stale frame ignored after remount, got %v", tr.Percent())
	}
}
