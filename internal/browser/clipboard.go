//go:build js && wasm

package browser

import (
	"errors"
	"syscall/js"

	"github.com/CageChen/markpress/internal/clipboard"
)

// Clipboard is the async clipboard API of navigator.
type Clipboard struct {
	window js.Value
}

// NewClipboard returns the platform clipboard adapter.
func NewClipboard(w *Window) *Clipboard {
	return &Clipboard{window: w.window}
}

func (c *Clipboard) Available() bool {
	cb := c.window.Get("navigator").Get("clipboard")
	if cb.IsUndefined() || cb.IsNull() {
		return false
	}
	return c.window.Get("isSecureContext").Truthy()
}

func (c *Clipboard) WriteText(text string, done func(error)) {
	var then, catch js.Func
	release := func() {
		then.Release()
		catch.Release()
	}
	then = js.FuncOf(func(js.Value, []js.Value) any {
		release()
		done(nil)
		return nil
	})
	catch = js.FuncOf(func(_ js.Value, args []js.Value) any {
		release()
		msg := "clipboard write rejected"
		if len(args) > 0 && args[0].Truthy() {
			msg = args[0].Call("toString").String()
		}
		done(errors.New(msg))
		return nil
	})
	err := call(func() {
		c.window.Get("navigator").Get("clipboard").Call("writeText", text).Call("then", then).Call("catch", catch)
	})
	if err != nil {
		// writeText threw before returning a promise.
		release()
		done(err)
	}
}

// Document implements the legacy copy path with a hidden textarea.
type Document struct {
	document js.Value
}

// NewDocument returns the legacy copy adapter.
func NewDocument(w *Window) *Document {
	return &Document{document: w.document}
}

func (d *Document) AppendHiddenTextField(text string) (clipboard.TextField, error) {
	var el js.Value
	err := call(func() {
		el = d.document.Call("createElement", "textarea")
		el.Set("value", text)
		el.Call("setAttribute", "readonly", "")
		style := el.Get("style")
		style.Set("position", "fixed")
		style.Set("left", "-9999px")
		style.Set("top", "0")
		style.Set("opacity", "0")
		d.document.Get("body").Call("appendChild", el)
	})
	if err != nil {
		return nil, err
	}
	return textField{el}, nil
}

func (d *Document) ExecCopy() bool {
	return d.document.Call("execCommand", "copy").Bool()
}

type textField struct{ el js.Value }

func (f textField) Select() error {
	return call(func() {
		f.el.Call("focus")
		f.el.Call("select")
	})
}

func (f textField) Remove() {
	_ = call(func() { f.el.Call("remove") })
}
