package clipboard

import (
	"errors"
	"fmt"
	"log"
)

// Errors reported by the fallback copy path.
var (
	ErrUnavailable  = errors.New("clipboard unavailable")
	ErrCopyRejected = errors.New("copy command rejected")
)

// Clipboard is the asynchronous platform clipboard.
type Clipboard interface {
	// Available reports whether the API exists and the page runs in a
	// secure context.
	Available() bool
	// WriteText writes text and calls done with the outcome.
	WriteText(text string, done func(error))
}

// TextField is a temporary off-screen text field.
type TextField interface {
	Select() error
	Remove()
}

// Document provides the legacy copy path.
type Document interface {
	AppendHiddenTextField(text string) (TextField, error)
	// ExecCopy issues the legacy copy command for the current selection.
	ExecCopy() bool
}

// Copier copies code text and records successful copies in a CopyState.
type Copier struct {
	clipboard Clipboard
	document  Document
	state     *CopyState
}

// NewCopier creates a Copier. Either environment may be nil when the page
// lacks it.
func NewCopier(clipboard Clipboard, document Document, state *CopyState) *Copier {
	return &Copier{clipboard: clipboard, document: document, state: state}
}

// Copy puts text on the clipboard. Failures are logged and leave the
// indicator untouched; Copy never panics.
func (c *Copier) Copy(text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("clipboard: copy failed: %v", r)
		}
	}()

	if c.clipboard != nil && c.clipboard.Available() {
		c.clipboard.WriteText(text, func(err error) {
			if err != nil {
				log.Printf("clipboard: write failed: %v", err)
				return
			}
			c.state.MarkCopied(text)
		})
		return
	}

	if err := c.legacyCopy(text); err != nil {
		log.Printf("clipboard: fallback copy failed: %v", err)
		return
	}
	c.state.MarkCopied(text)
}

// legacyCopy selects text in a temporary field and issues the copy
// command. The field is removed on every path once created.
func (c *Copier) legacyCopy(text string) error {
	if c.document == nil {
		return ErrUnavailable
	}
	field, err := c.document.AppendHiddenTextField(text)
	if err != nil {
		return fmt.Errorf("create text field: %w", err)
	}
	defer field.Remove()

	if err := field.Select(); err != nil {
		return fmt.Errorf("select text field: %w", err)
	}
	if !c.document.ExecCopy() {
		return ErrCopyRejected
	}
	return nil
}
