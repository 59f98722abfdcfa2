package site

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// wasmFiles are copied next to the pages when the page script is enabled.
var wasmFiles = []string{"pageview.wasm", "wasm_exec.js"}

// Export writes every visible page, the index and the assets under dir,
// laid out like the server's URLs. wasmDir, if set, supplies the page
// module. Files are replaced atomically so a live directory never serves a
// partial page.
func (s *Site) Export(dir, wasmDir string, rep Reporter) error {
	pages, err := s.lib.List()
	if err != nil {
		return err
	}
	if rep == nil {
		rep = &CIReporter{Out: io.Discard}
	}

	// Exported pages have no server to report changes.
	opts := s.opts
	opts.LiveReload = false

	rep.Start(len(pages))
	defer rep.Finish()

	for i, p := range pages {
		r, err := s.Render(p.Path)
		if err != nil {
			return fmt.Errorf("export %s: %w", p.Path, err)
		}
		var buf bytes.Buffer
		if err := writePage(&buf, opts, r); err != nil {
			return fmt.Errorf("export %s: %w", p.Path, err)
		}
		target := filepath.Join(dir, filepath.FromSlash(strings.Trim(r.URL, "/")), "index.html")
		if err := writeFile(target, buf.Bytes()); err != nil {
			return err
		}
		rep.Update(i+1, p.Path)
	}

	var buf bytes.Buffer
	if err := s.writeIndex(&buf, opts); err != nil {
		return fmt.Errorf("export index: %w", err)
	}
	if err := writeFile(filepath.Join(dir, "index.html"), buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := s.WriteStylesheet(&buf); err != nil {
		return fmt.Errorf("export stylesheet: %w", err)
	}
	if err := writeFile(filepath.Join(dir, "assets", StylesheetAsset), buf.Bytes()); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "assets", ScriptAsset), Script()); err != nil {
		return err
	}

	if wasmDir == "" {
		return nil
	}
	for _, name := range wasmFiles {
		data, err := os.ReadFile(filepath.Join(wasmDir, name))
		if err != nil {
			return fmt.Errorf("export wasm: %w", err)
		}
		if err := writeFile(filepath.Join(dir, "wasm", name), data); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
