// Package browser binds the page components to the DOM with syscall/js.
// It only builds for js/wasm.
package browser
