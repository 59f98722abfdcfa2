// Package clipboard copies code blocks and drives the transient "copied"
// indicator of a rendered page.
package clipboard

import (
	"sync"
	"time"
)

// IndicatorDuration is how long a copied block shows its checkmark.
const IndicatorDuration = 2000 * time.Millisecond

// Clock schedules the indicator timeout.
type Clock interface {
	// AfterFunc runs f after d. The returned func stops the timer.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// CopyState remembers the most recently copied text of one rendered page.
// Only one text is "copied" at a time; a new copy supersedes the previous
// indicator and restarts the timeout.
type CopyState struct {
	mu       sync.Mutex
	clock    Clock
	text     string
	copied   bool
	gen      uint64
	stop     func() bool
	closed   bool
	onChange func(text string, copied bool)
}

// NewCopyState creates the state for one page. A nil clock uses real
// timers. onChange, if non-nil, receives the new state after every change.
func NewCopyState(clock Clock, onChange func(text string, copied bool)) *CopyState {
	if clock == nil {
		clock = realClock{}
	}
	return &CopyState{clock: clock, onChange: onChange}
}

// MarkCopied shows the indicator for text for IndicatorDuration.
func (s *CopyState) MarkCopied(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	prev := s.stop
	s.stop = nil
	s.gen++
	gen := s.gen
	s.text, s.copied = text, true
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	stop := s.clock.AfterFunc(IndicatorDuration, func() { s.expire(gen) })

	s.mu.Lock()
	if s.gen == gen && !s.closed {
		s.stop = stop
		stop = nil
	}
	s.mu.Unlock()
	if stop != nil {
		stop()
	}

	s.notify(gen, text, true)
}

// CopiedText returns the text whose indicator is showing.
func (s *CopyState) CopiedText() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, s.copied
}

// IsCopied reports whether text is the block currently marked as copied.
func (s *CopyState) IsCopied(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copied && s.text == text
}

// Teardown stops the pending timeout. The state ignores all later calls.
func (s *CopyState) Teardown() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.closed = true
	s.gen++
	s.text, s.copied = "", false
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (s *CopyState) expire(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.text, s.copied = "", false
	s.stop = nil
	s.mu.Unlock()

	s.notify(gen, "", false)
}

func (s *CopyState) notify(gen uint64, text string, copied bool) {
	s.mu.Lock()
	current := s.gen == gen && !s.closed
	onChange := s.onChange
	s.mu.Unlock()

	if current && onChange != nil {
		onChange(text, copied)
	}
}
