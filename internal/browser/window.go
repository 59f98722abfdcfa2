//go:build js && wasm

package browser

import (
	"fmt"
	"syscall/js"

	"github.com/CageChen/markpress/internal/toc"
)

// Window adapts the global window and document to the progress and toc
// environments.
type Window struct {
	window   js.Value
	document js.Value
}

// NewWindow returns the adapter for the current page, or nil outside a
// browser.
func NewWindow() *Window {
	w := js.Global().Get("window")
	if w.IsUndefined() || w.IsNull() {
		return nil
	}
	return &Window{window: w, document: w.Get("document")}
}

// Document returns the page document.
func (w *Window) Document() js.Value { return w.document }

func (w *Window) ScrollTop() float64 { return w.window.Get("scrollY").Float() }

func (w *Window) DocumentHeight() float64 {
	return w.document.Get("documentElement").Get("scrollHeight").Float()
}

func (w *Window) ViewportHeight() float64 { return w.window.Get("innerHeight").Float() }

func (w *Window) OnScroll(fn func()) func() {
	return w.Listen(w.window, "scroll", func(js.Value) { fn() }, true)
}

func (w *Window) RequestFrame(fn func()) func() {
	var cb js.Func
	done := false
	cb = js.FuncOf(func(js.Value, []js.Value) any {
		done = true
		cb.Release()
		fn()
		return nil
	})
	id := w.window.Call("requestAnimationFrame", cb)
	return func() {
		if done {
			return
		}
		done = true
		w.window.Call("cancelAnimationFrame", id)
		cb.Release()
	}
}

// Listen adds an event listener to target and returns its remover.
func (w *Window) Listen(target js.Value, event string, fn func(js.Value), passive bool) func() {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		var ev js.Value
		if len(args) > 0 {
			ev = args[0]
		}
		fn(ev)
		return nil
	})
	opts := map[string]any{"passive": passive}
	target.Call("addEventListener", event, cb, opts)
	return func() {
		target.Call("removeEventListener", event, cb, opts)
		cb.Release()
	}
}

func (w *Window) ElementByID(id string) (toc.Element, bool) {
	el := w.document.Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return nil, false
	}
	return element{el}, true
}

func (w *Window) NewObserver(rootMargin string, callback func([]toc.Intersection)) toc.Observer {
	o := &observer{}
	o.cb = js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		entries := args[0]
		reports := make([]toc.Intersection, entries.Length())
		for i := range reports {
			e := entries.Index(i)
			reports[i] = toc.Intersection{
				ID:           e.Get("target").Get("id").String(),
				Intersecting: e.Get("isIntersecting").Bool(),
			}
		}
		callback(reports)
		return nil
	})
	o.value = js.Global().Get("IntersectionObserver").New(o.cb, map[string]any{"rootMargin": rootMargin})
	return o
}

func (w *Window) ScrollY() float64 { return w.window.Get("scrollY").Float() }

func (w *Window) ScrollTo(top float64, smooth bool) {
	behavior := "auto"
	if smooth {
		behavior = "smooth"
	}
	w.window.Call("scrollTo", map[string]any{"top": top, "behavior": behavior})
}

// QueryAll returns the elements matching selector.
func (w *Window) QueryAll(selector string) []js.Value {
	list := w.document.Call("querySelectorAll", selector)
	out := make([]js.Value, list.Length())
	for i := range out {
		out[i] = list.Index(i)
	}
	return out
}

// Query returns the first element matching selector.
func (w *Window) Query(selector string) (js.Value, bool) {
	el := w.document.Call("querySelector", selector)
	return el, !el.IsNull() && !el.IsUndefined()
}

type element struct{ v js.Value }

func (e element) Top() float64 {
	return e.v.Call("getBoundingClientRect").Get("top").Float()
}

type observer struct {
	value js.Value
	cb    js.Func
}

func (o *observer) Observe(_ string, el toc.Element) {
	if e, ok := el.(element); ok {
		o.value.Call("observe", e.v)
	}
}

func (o *observer) Disconnect() {
	o.value.Call("disconnect")
	o.cb.Release()
}

// call invokes fn and turns a thrown JS exception into an error.
func call(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("js: %v", r)
		}
	}()
	fn()
	return nil
}
