// Package toc builds a page outline from extracted headings and keeps
// track of the heading currently in view.
package toc

import (
	"sync"

	"github.com/CageChen/markpress/internal/markdown"
)

// RootMargin shrinks the observed viewport to the band between 20% from the
// top and 30% from the top, so a heading becomes current once it scrolls
// past the top fifth of the screen.
const RootMargin = "-20% 0px -70% 0px"

// HeaderOffset keeps navigated-to headings clear of the sticky header.
const HeaderOffset = 80

// Entry is one outline row.
type Entry struct {
	markdown.Heading
	// Primary entries (levels 1 and 2) span the full outline width.
	Primary bool `json:"primary"`
	// Indent is the nesting depth of sub-entries, 0 for level 3.
	Indent int `json:"indent"`
}

// Outline lays out headings for display. It returns nil for no headings so
// callers render nothing.
func Outline(headings []markdown.Heading) []Entry {
	if len(headings) == 0 {
		return nil
	}
	entries := make([]Entry, len(headings))
	for i, h := range headings {
		e := Entry{Heading: h, Primary: h.Level <= 2}
		if !e.Primary {
			e.Indent = h.Level - 3
		}
		entries[i] = e
	}
	return entries
}

// Element is a rendered heading.
type Element interface {
	// Top is the element's distance from the top of the viewport.
	Top() float64
}

// Intersection reports a heading crossing the observed band.
type Intersection struct {
	ID           string
	Intersecting bool
}

// Observer watches elements for intersection changes.
type Observer interface {
	Observe(id string, el Element)
	Disconnect()
}

// Environment is the browser surface the navigator needs.
type Environment interface {
	ElementByID(id string) (Element, bool)
	NewObserver(rootMargin string, callback func([]Intersection)) Observer
	ScrollY() float64
	ScrollTo(top float64, smooth bool)
}

// Navigator tracks the active heading of a mounted outline.
type Navigator struct {
	mu       sync.Mutex
	mounted  bool
	gen      uint64
	env      Environment
	observer Observer
	activeID string
	onActive func(id string)
}

// NewNavigator creates an unmounted navigator. onActive, if non-nil, is
// called whenever the active heading changes.
func NewNavigator(onActive func(id string)) *Navigator {
	return &Navigator{onActive: onActive}
}

// Mount observes every heading that has a rendered element and returns how
// many were observed. Headings without an element are skipped. The active
// heading stays empty until the first observer report.
func (n *Navigator) Mount(env Environment, headings []markdown.Heading) int {
	if env == nil || len(headings) == 0 {
		return 0
	}

	n.mu.Lock()
	if n.mounted {
		n.mu.Unlock()
		return 0
	}
	n.mounted = true
	n.gen++
	gen := n.gen
	n.env = env
	n.activeID = ""
	n.mu.Unlock()

	observer := env.NewObserver(RootMargin, func(entries []Intersection) {
		n.handleIntersections(gen, entries)
	})
	observed := 0
	for _, h := range headings {
		el, ok := env.ElementByID(h.ID)
		if !ok {
			continue
		}
		observer.Observe(h.ID, el)
		observed++
	}

	n.mu.Lock()
	if n.mounted && n.gen == gen {
		n.observer = observer
		observer = nil
	}
	n.mu.Unlock()
	if observer != nil {
		observer.Disconnect()
	}
	return observed
}

// Unmount disconnects the observer. Reports arriving afterwards are
// ignored.
func (n *Navigator) Unmount() {
	n.mu.Lock()
	if !n.mounted {
		n.mu.Unlock()
		return
	}
	observer := n.observer
	n.mounted = false
	n.gen++
	n.env = nil
	n.observer = nil
	n.mu.Unlock()

	if observer != nil {
		observer.Disconnect()
	}
}

// ActiveID returns the id of the heading considered in view, or "".
func (n *Navigator) ActiveID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.activeID
}

// Navigate smooth-scrolls to the heading with the given id and marks it
// active right away. It reports whether the heading was found.
func (n *Navigator) Navigate(id string) bool {
	n.mu.Lock()
	env, gen := n.env, n.gen
	mounted := n.mounted
	n.mu.Unlock()
	if !mounted {
		return false
	}

	el, ok := env.ElementByID(id)
	if !ok {
		return false
	}
	env.ScrollTo(el.Top()+env.ScrollY()-HeaderOffset, true)
	n.setActive(gen, id)
	return true
}

// handleIntersections applies one observer report: the last intersecting
// entry wins.
func (n *Navigator) handleIntersections(gen uint64, entries []Intersection) {
	active := ""
	for _, e := range entries {
		if e.Intersecting {
			active = e.ID
		}
	}
	if active == "" {
		return
	}
	n.setActive(gen, active)
}

func (n *Navigator) setActive(gen uint64, id string) {
	n.mu.Lock()
	if !n.mounted || n.gen != gen || n.activeID == id {
		n.mu.Unlock()
		return
	}
	n.activeID = id
	onActive := n.onActive
	n.mu.Unlock()

	if onActive != nil {
		onActive(id)
	}
}
