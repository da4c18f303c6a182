package main

import (
	"bytes"
	"os"
	"sync"
)

// tailWriter keeps only the most recent maxLines of log output on disk.
// The daemon runs for months; the operator only ever wants the tail.
type tailWriter struct {
	mu       sync.Mutex
	path     string
	maxLines int
	lines    [][]byte
}

func newTailWriter(path string, maxLines int) (*tailWriter, error) {
	w := &tailWriter{path: path, maxLines: maxLines}

	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if len(raw) > 0 {
		for _, line := range bytes.Split(bytes.TrimRight(raw, "\n"), []byte("\n")) {
			w.lines = append(w.lines, append([]byte(nil), line...))
		}
		if len(w.lines) > maxLines {
			w.lines = w.lines[len(w.lines)-maxLines:]
		}
	}
	return w, nil
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		w.lines = append(w.lines, append([]byte(nil), line...))
	}
	if len(w.lines) > w.maxLines {
		w.lines = w.lines[len(w.lines)-w.maxLines:]
	}

	var buf bytes.Buffer
	for _, line := range w.lines {
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(w.path, buf.Bytes(), 0o644); err != nil {
		return 0, err
	}
	return len(p), nil
}
