//go:build js && wasm

// Command pageview drives the interactive parts of a rendered page: the
// reading progress bar, the outline highlight and the copy buttons.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"syscall/js"

	"github.com/CageChen/markpress/internal/browser"
	"github.com/CageChen/markpress/internal/clipboard"
	"github.com/CageChen/markpress/internal/markdown"
	"github.com/CageChen/markpress/internal/progress"
	"github.com/CageChen/markpress/internal/toc"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("pageview: ")

	w := browser.NewWindow()
	if w == nil {
		return
	}

	var removers []func()
	unmount := mount(w, &removers)
	removers = append(removers, w.Listen(w.Document().Get("defaultView"), "pagehide", func(js.Value) {
		unmount()
		for _, r := range removers {
			r()
		}
		removers = nil
	}, false))

	select {}
}

// mount attaches every component to the page and returns their teardown.
func mount(w *browser.Window, removers *[]func()) func() {
	tracker := progress.NewTracker(func(p float64) {
		if bar, ok := w.Query("#reading-progress-bar"); ok {
			bar.Get("style").Set("width", fmt.Sprintf("%.2f%%", p))
		}
	})
	tracker.Mount(w)

	headings := pageHeadings(w)
	nav := toc.NewNavigator(func(id string) {
		for _, link := range w.QueryAll(".toc-link") {
			link.Get("classList").Call("toggle", "is-active", link.Get("dataset").Get("id").String() == id)
		}
	})
	nav.Mount(w, headings)
	for _, link := range w.QueryAll(".toc-link") {
		id := link.Get("dataset").Get("id").String()
		*removers = append(*removers, w.Listen(link, "click", func(ev js.Value) {
			if nav.Navigate(id) {
				ev.Call("preventDefault")
			}
		}, false))
	}

	buttons := w.QueryAll(".md-copy")
	state := clipboard.NewCopyState(nil, func(text string, copied bool) {
		for _, b := range buttons {
			on := copied && b.Get("dataset").Get("copy").String() == text
			b.Get("classList").Call("toggle", "is-copied", on)
			if on {
				b.Set("textContent", "Copied")
			} else {
				b.Set("textContent", "Copy")
			}
		}
	})
	copier := clipboard.NewCopier(browser.NewClipboard(w), browser.NewDocument(w), state)
	for _, b := range buttons {
		text := b.Get("dataset").Get("copy").String()
		*removers = append(*removers, w.Listen(b, "click", func(js.Value) {
			copier.Copy(text)
		}, false))
	}

	return func() {
		tracker.Unmount()
		nav.Unmount()
		state.Teardown()
	}
}

// pageHeadings reads the outline the server embedded in the page.
func pageHeadings(w *browser.Window) []markdown.Heading {
	el, ok := w.Query("#page-headings")
	if !ok {
		return nil
	}
	var headings []markdown.Heading
	if err := json.Unmarshal([]byte(el.Get("textContent").String()), &headings); err != nil {
		log.Printf("Failed to read headings: %v", err)
		return nil
	}
	return headings
}
